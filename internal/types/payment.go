package types

import (
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/samber/lo"
)

// PaymentMethod is how the money was received
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodMomo         PaymentMethod = "momo"
	PaymentMethodVNPay        PaymentMethod = "vnpay"
	PaymentMethodOther        PaymentMethod = "other"
)

func (m PaymentMethod) String() string {
	return string(m)
}

func (m PaymentMethod) Validate() error {
	allowed := []PaymentMethod{
		PaymentMethodCash,
		PaymentMethodBankTransfer,
		PaymentMethodMomo,
		PaymentMethodVNPay,
		PaymentMethodOther,
	}
	if !lo.Contains(allowed, m) {
		return ierr.NewError("invalid payment method").
			WithHintf("Payment method must be one of %v", allowed).
			WithField("method").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PaymentStatus is the ledger state of a payment. Only completed payments count
// toward the amount paid on an invoice.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) Validate() error {
	allowed := []PaymentStatus{
		PaymentStatusPending,
		PaymentStatusCompleted,
		PaymentStatusFailed,
		PaymentStatusRefunded,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid payment status").
			WithHintf("Payment status must be one of %v", allowed).
			WithField("status").
			Mark(ierr.ErrValidation)
	}
	return nil
}
