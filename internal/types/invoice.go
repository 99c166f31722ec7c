package types

import (
	"time"

	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/samber/lo"
)

// InvoiceStatus is the lifecycle label of an invoice. Apart from draft and
// void it is always derived from the payment ledger.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPartial InvoiceStatus = "partial"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
	InvoiceStatusVoid    InvoiceStatus = "void"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusPending,
		InvoiceStatusPartial,
		InvoiceStatusPaid,
		InvoiceStatusOverdue,
		InvoiceStatusVoid,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid invoice status").
			WithHintf("Invoice status must be one of %v", allowed).
			WithField("status").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsFinal reports whether lines, due date and notes are frozen
func (s InvoiceStatus) IsFinal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusVoid
}

// InvoiceLineItemType classifies a charge component of an invoice
type InvoiceLineItemType string

const (
	InvoiceLineItemTypeRent        InvoiceLineItemType = "rent"
	InvoiceLineItemTypeDeposit     InvoiceLineItemType = "deposit"
	InvoiceLineItemTypeElectricity InvoiceLineItemType = "electricity"
	InvoiceLineItemTypeWater       InvoiceLineItemType = "water"
	InvoiceLineItemTypeInternet    InvoiceLineItemType = "internet"
	InvoiceLineItemTypeCleaning    InvoiceLineItemType = "cleaning"
	InvoiceLineItemTypeService     InvoiceLineItemType = "service"
	InvoiceLineItemTypeAdjustment  InvoiceLineItemType = "adjustment"
)

var InvoiceLineItemTypes = []InvoiceLineItemType{
	InvoiceLineItemTypeRent,
	InvoiceLineItemTypeDeposit,
	InvoiceLineItemTypeElectricity,
	InvoiceLineItemTypeWater,
	InvoiceLineItemTypeInternet,
	InvoiceLineItemTypeCleaning,
	InvoiceLineItemTypeService,
	InvoiceLineItemTypeAdjustment,
}

func (t InvoiceLineItemType) String() string {
	return string(t)
}

func (t InvoiceLineItemType) IsValid() bool {
	return lo.Contains(InvoiceLineItemTypes, t)
}

// AllowsNegativePrice reports whether the unit price may represent a credit
func (t InvoiceLineItemType) AllowsNegativePrice() bool {
	return t == InvoiceLineItemTypeAdjustment
}

// InvoiceWarning is a non-fatal condition reported alongside a successful write
type InvoiceWarning string

const (
	// WarningTotalBelowPaid is raised when an edit drops the total under what was already collected
	WarningTotalBelowPaid InvoiceWarning = "total_below_paid"
	// WarningOverpayment is raised when a payment exceeds the amount due
	WarningOverpayment InvoiceWarning = "overpayment"
)

// InvoiceFilter represents filters for listing invoices
type InvoiceFilter struct {
	*QueryFilter
	TenancyID string          `json:"tenancy_id,omitempty" form:"tenancy_id"`
	Period    string          `json:"period,omitempty" form:"period"`
	Statuses  []InvoiceStatus `json:"statuses,omitempty" form:"status"`

	// IssuedOnly drops invoices that were never issued. Tenants only ever
	// list with it set.
	IssuedOnly bool `json:"-" form:"-"`

	// TenancyIDs restricts results to tenancies the caller can see. It is set
	// by the service from the actor and never bound from requests.
	TenancyIDs []string `json:"-" form:"-"`

	// DueBefore selects invoices whose due date falls before the given day
	DueBefore *time.Time `json:"-" form:"-"`
}

func NewInvoiceFilter() *InvoiceFilter {
	return &InvoiceFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

func (f *InvoiceFilter) Validate() error {
	if f == nil {
		return nil
	}
	if f.QueryFilter == nil {
		f.QueryFilter = NewDefaultQueryFilter()
	}
	if err := f.QueryFilter.Validate(); err != nil {
		return err
	}
	for _, s := range f.Statuses {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	if f.Period != "" {
		if _, err := ParsePeriod(f.Period); err != nil {
			return err
		}
	}
	return nil
}
