package types

import (
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/samber/lo"
)

const (
	FILTER_DEFAULT_LIMIT = 50
	FILTER_MAX_LIMIT     = 1000
	FILTER_DEFAULT_SORT  = "created_at"
	FILTER_DEFAULT_ORDER = OrderDesc
)

// BaseFilter defines common filtering capabilities
type BaseFilter interface {
	GetLimit() int
	GetOffset() int
	GetSort() string
	GetOrder() string
	Validate() error
	IsUnlimited() bool
}

// QueryFilter represents a generic query filter with optional fields
type QueryFilter struct {
	Limit  *int    `json:"limit,omitempty" form:"limit" validate:"omitempty,min=1,max=1000"`
	Offset *int    `json:"offset,omitempty" form:"offset" validate:"omitempty,min=0"`
	Sort   *string `json:"sort,omitempty" form:"sort"`
	Order  *string `json:"order,omitempty" form:"order" validate:"omitempty,oneof=asc desc"`
}

// NewDefaultQueryFilter defines default values for query filters
func NewDefaultQueryFilter() *QueryFilter {
	return &QueryFilter{
		Limit:  lo.ToPtr(FILTER_DEFAULT_LIMIT),
		Offset: lo.ToPtr(0),
		Sort:   lo.ToPtr(FILTER_DEFAULT_SORT),
		Order:  lo.ToPtr(FILTER_DEFAULT_ORDER),
	}
}

// NewNoLimitQueryFilter returns a filter that lists everything
func NewNoLimitQueryFilter() *QueryFilter {
	return &QueryFilter{
		Sort:  lo.ToPtr(FILTER_DEFAULT_SORT),
		Order: lo.ToPtr(FILTER_DEFAULT_ORDER),
	}
}

func (f *QueryFilter) GetLimit() int {
	if f == nil || f.Limit == nil {
		return FILTER_DEFAULT_LIMIT
	}
	return *f.Limit
}

func (f *QueryFilter) GetOffset() int {
	if f == nil || f.Offset == nil {
		return 0
	}
	return *f.Offset
}

func (f *QueryFilter) GetSort() string {
	if f == nil || f.Sort == nil {
		return FILTER_DEFAULT_SORT
	}
	return *f.Sort
}

func (f *QueryFilter) GetOrder() string {
	if f == nil || f.Order == nil {
		return FILTER_DEFAULT_ORDER
	}
	return *f.Order
}

// IsUnlimited is true when no limit was requested at all
func (f *QueryFilter) IsUnlimited() bool {
	return f == nil || f.Limit == nil
}

func (f *QueryFilter) Validate() error {
	if f == nil {
		return nil
	}
	if f.Limit != nil && (*f.Limit < 1 || *f.Limit > FILTER_MAX_LIMIT) {
		return ierr.NewError("invalid limit").
			WithHintf("Limit must be between 1 and %d", FILTER_MAX_LIMIT).
			WithField("limit").
			Mark(ierr.ErrValidation)
	}
	if f.Offset != nil && *f.Offset < 0 {
		return ierr.NewError("invalid offset").
			WithHint("Offset cannot be negative").
			WithField("offset").
			Mark(ierr.ErrValidation)
	}
	if f.Order != nil && *f.Order != OrderAsc && *f.Order != OrderDesc {
		return ierr.NewError("invalid order").
			WithHint("Order must be asc or desc").
			WithField("order").
			Mark(ierr.ErrValidation)
	}
	if f.Sort != nil && !lo.Contains([]string{"created_at", "due_date", "period"}, *f.Sort) {
		return ierr.NewError("invalid sort").
			WithHint("Sort must be one of created_at, due_date, period").
			WithField("sort").
			Mark(ierr.ErrValidation)
	}
	return nil
}
