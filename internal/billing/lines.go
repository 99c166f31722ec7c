package billing

import (
	"fmt"

	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/shopspring/decimal"
)

// AmountPrecision is the minor-unit precision of every stored amount
const AmountPrecision int32 = 2

// QuantityPrecision is the number of decimals a stored quantity keeps
const QuantityPrecision int32 = 4

// DefaultDisplayTolerance is the largest accepted difference between an amount
// shown to the user and the amount computed here.
var DefaultDisplayTolerance = decimal.New(1, -2)

// LineInput is a charge as entered by the user. Amount is never entered, only
// DisplayedAmount which is what the user saw when submitting.
type LineInput struct {
	ItemType        types.InvoiceLineItemType
	Description     string
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DisplayedAmount *decimal.Decimal
	Meta            types.JSONMap
}

// Line is a validated charge with its derived amount
type Line struct {
	ItemType    types.InvoiceLineItemType
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
	Meta        types.JSONMap
}

// LineSet is the outcome of pricing a full set of lines
type LineSet struct {
	Lines []Line
	Total decimal.Decimal
}

// RoundAmount rounds to two decimals, halves away from zero
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountPrecision)
}

// FitsPrecision reports whether d has no digits beyond the given decimal places.
// Trailing zeros do not count.
func FitsPrecision(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// LineAmount is quantity times unit price at minor-unit precision
func LineAmount(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return RoundAmount(quantity.Mul(unitPrice))
}

// ComputeLines validates the inputs and derives every line amount and the invoice total.
// The total is the exact sum of the rounded line amounts.
func ComputeLines(inputs []LineInput, tolerance decimal.Decimal) (*LineSet, error) {
	if len(inputs) == 0 {
		return nil, ierr.NewError("invoice must have at least one line").
			WithHint("Add at least one line to the invoice").
			WithField("lines").
			Mark(ierr.ErrValidation)
	}
	if tolerance.IsNegative() {
		tolerance = DefaultDisplayTolerance
	}

	set := &LineSet{
		Lines: make([]Line, 0, len(inputs)),
		Total: decimal.Zero,
	}

	for i, in := range inputs {
		if err := validateLine(i, in); err != nil {
			return nil, err
		}

		amount := LineAmount(in.Quantity, in.UnitPrice)
		if in.DisplayedAmount != nil && amount.Sub(*in.DisplayedAmount).Abs().GreaterThan(tolerance) {
			return nil, ierr.NewError("displayed amount does not match computed amount").
				WithHintf("Line %d amount is out of date, expected %s", i+1, amount.StringFixed(AmountPrecision)).
				WithField(fieldPath(i, "amount")).
				WithReportableDetails(map[string]any{
					"expected": amount.StringFixed(AmountPrecision),
					"received": in.DisplayedAmount.String(),
				}).
				Mark(ierr.ErrValidation)
		}

		set.Lines = append(set.Lines, Line{
			ItemType:    in.ItemType,
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			Amount:      amount,
			Meta:        in.Meta,
		})
		set.Total = set.Total.Add(amount)
	}

	if set.Total.IsNegative() {
		return nil, ierr.NewError("invoice total cannot be negative").
			WithHint("Adjustments cannot exceed the other charges on the invoice").
			WithField("lines").
			WithReportableDetails(map[string]any{"total": set.Total.StringFixed(AmountPrecision)}).
			Mark(ierr.ErrValidation)
	}

	return set, nil
}

func validateLine(i int, in LineInput) error {
	if !in.ItemType.IsValid() {
		return ierr.NewError("invalid line item type").
			WithHintf("Line %d has an unknown item type %q", i+1, in.ItemType).
			WithField(fieldPath(i, "item_type")).
			Mark(ierr.ErrValidation)
	}
	if in.Quantity.IsNegative() {
		return ierr.NewError("quantity cannot be negative").
			WithHintf("Line %d quantity cannot be negative", i+1).
			WithField(fieldPath(i, "quantity")).
			Mark(ierr.ErrValidation)
	}
	if !FitsPrecision(in.Quantity, QuantityPrecision) {
		return ierr.NewError("quantity has too many decimals").
			WithHintf("Line %d quantity can have at most %d decimals", i+1, QuantityPrecision).
			WithField(fieldPath(i, "quantity")).
			WithReportableDetails(map[string]any{"quantity": in.Quantity.String()}).
			Mark(ierr.ErrValidation)
	}
	if !FitsPrecision(in.UnitPrice, AmountPrecision) {
		return ierr.NewError("unit price has too many decimals").
			WithHintf("Line %d unit price can have at most %d decimals", i+1, AmountPrecision).
			WithField(fieldPath(i, "unit_price")).
			WithReportableDetails(map[string]any{"unit_price": in.UnitPrice.String()}).
			Mark(ierr.ErrValidation)
	}
	if in.UnitPrice.IsNegative() && !in.ItemType.AllowsNegativePrice() {
		return ierr.NewError("unit price cannot be negative").
			WithHintf("Line %d unit price can only be negative for adjustments", i+1).
			WithField(fieldPath(i, "unit_price")).
			Mark(ierr.ErrValidation)
	}
	return nil
}

func fieldPath(i int, field string) string {
	return fmt.Sprintf("lines[%d].%s", i, field)
}
