package types

import (
	ierr "github.com/rentdesk/rentdesk/internal/errors"
)

// MeterReadingSource tells how a reading was captured
type MeterReadingSource string

const (
	MeterReadingSourceManual MeterReadingSource = "manual"
	MeterReadingSourceOCR    MeterReadingSource = "ocr"
)

func (s MeterReadingSource) Validate() error {
	switch s {
	case MeterReadingSourceManual, MeterReadingSourceOCR:
		return nil
	}
	return ierr.NewError("invalid meter reading source").
		WithHintf("Source must be %s or %s", MeterReadingSourceManual, MeterReadingSourceOCR).
		WithField("source").
		Mark(ierr.ErrValidation)
}

// MeterReadingFilter lists the readings of one tenancy, newest period first
type MeterReadingFilter struct {
	*QueryFilter
	TenancyID string `json:"tenancy_id" form:"tenancy_id" validate:"required"`
	Period    string `json:"period,omitempty" form:"period"`
}

func NewMeterReadingFilter() *MeterReadingFilter {
	return &MeterReadingFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

func (f *MeterReadingFilter) Validate() error {
	if f.QueryFilter == nil {
		f.QueryFilter = NewDefaultQueryFilter()
	}
	if f.TenancyID == "" {
		return ierr.NewError("tenancy_id is required").
			WithHint("Pass the tenancy to list readings for").
			WithField("tenancy_id").
			Mark(ierr.ErrValidation)
	}
	if f.Period != "" {
		if _, err := ParsePeriod(f.Period); err != nil {
			return err
		}
	}
	return f.QueryFilter.Validate()
}
