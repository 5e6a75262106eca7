package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates such as start and
// collection dates.
const DateLayout = "2006-01-02"

// LoanInput is the new/edit loan form.
type LoanInput struct {
	CustomerName      string           `json:"customer_name" validate:"required,max=120"`
	CustomerMobile    string           `json:"customer_mobile" validate:"required,numeric,min=7,max=15"`
	Amount            decimal.Decimal  `json:"amount" validate:"gt=0"`
	DisbursementType  DisbursementType `json:"disbursement_type" validate:"required,oneof=full cutting"`
	CuttingAmount     decimal.Decimal  `json:"cutting_amount" validate:"gte=0"`
	RepaymentCadence  Cadence          `json:"repayment_cadence" validate:"required,oneof=daily weekly monthly"`
	InstallmentAmount decimal.Decimal  `json:"installment_amount" validate:"gt=0"`
	DurationCount     int              `json:"duration_count" validate:"gt=0,lte=3650"`
	DurationUnit      TenorUnit        `json:"duration_unit" validate:"required,oneof=days weeks months"`
	StartDate         string           `json:"start_date" validate:"required,datetime=2006-01-02"`
}

// QuoteInput is the subset of the loan form needed to preview economics.
type QuoteInput struct {
	Amount            decimal.Decimal  `json:"amount" validate:"gt=0"`
	DisbursementType  DisbursementType `json:"disbursement_type" validate:"required,oneof=full cutting"`
	CuttingAmount     decimal.Decimal  `json:"cutting_amount" validate:"gte=0"`
	InstallmentAmount decimal.Decimal  `json:"installment_amount" validate:"gte=0"`
	TargetTotal       decimal.Decimal  `json:"target_total" validate:"gte=0"`
	DurationCount     int              `json:"duration_count" validate:"gt=0,lte=3650"`
	DurationUnit      TenorUnit        `json:"duration_unit" validate:"required,oneof=days weeks months"`
}

// CollectionInput records or edits a payment.
type CollectionInput struct {
	Amount         decimal.Decimal `json:"amount" validate:"gt=0"`
	CollectionDate string          `json:"collection_date" validate:"required,datetime=2006-01-02"`
	Notes          string          `json:"notes" validate:"max=500"`
}

// ParseDate parses a DateLayout string into a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// DateOnly drops the clock part of t, keeping its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
