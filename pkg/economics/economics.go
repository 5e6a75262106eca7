// Package economics derives the money figures of a loan from the terms an
// operator enters on the loan form.
package economics

import (
	"errors"

	"github.com/mcclellann/jama/pkg/models"
	"github.com/shopspring/decimal"
)

const (
	daysPerWeek = 7
	// A month is counted as exactly 30 days for tenor and rate annualization.
	// This is an approximation, not calendar arithmetic, and every stored
	// interest rate depends on it.
	daysPerMonth = 30
)

var (
	daysInYear = decimal.NewFromInt(365)
	hundred    = decimal.NewFromInt(100)
)

var (
	ErrNonPositivePrincipal    = errors.New("principal must be greater than zero")
	ErrNegativeCutting         = errors.New("cutting amount cannot be negative")
	ErrCuttingExceedsPrincipal = errors.New("cutting amount exceeds principal")
	ErrUnknownDisbursementType = errors.New("unknown disbursement type")
)

type Input struct {
	Principal         decimal.Decimal
	DisbursementType  models.DisbursementType
	CuttingAmount     decimal.Decimal // Only read for cutting disbursements
	InstallmentAmount decimal.Decimal
	TenorCount        int
	TenorUnit         models.TenorUnit
}

type Result struct {
	DisbursedAmount           decimal.Decimal `json:"disbursed_amount"`
	TotalCollection           decimal.Decimal `json:"total_collection"`
	ProfitInterest            decimal.Decimal `json:"profit_interest"`
	AnnualInterestRatePercent decimal.Decimal `json:"annual_interest_rate_percent"`
	TenorInDays               int             `json:"tenor_in_days"`
}

// TenorInDays converts a tenor to days. Unknown units yield 0.
func TenorInDays(count int, unit models.TenorUnit) int {
	switch unit {
	case models.TenorDays:
		return count
	case models.TenorWeeks:
		return count * daysPerWeek
	case models.TenorMonths:
		return count * daysPerMonth
	}
	return 0
}

// Compute derives disbursed amount, expected collection, profit and the
// annualized rate. It rejects a non-positive principal and a cutting amount
// outside [0, principal]; a zero installment or tenor is not an error and
// simply produces zero collection or a 0% rate.
func Compute(in Input) (Result, error) {
	if !in.Principal.IsPositive() {
		return Result{}, ErrNonPositivePrincipal
	}

	var disbursed decimal.Decimal
	switch in.DisbursementType {
	case models.DisbursementFull:
		disbursed = in.Principal
	case models.DisbursementCutting:
		if in.CuttingAmount.IsNegative() {
			return Result{}, ErrNegativeCutting
		}
		if in.CuttingAmount.GreaterThan(in.Principal) {
			return Result{}, ErrCuttingExceedsPrincipal
		}
		disbursed = in.Principal.Sub(in.CuttingAmount)
	default:
		return Result{}, ErrUnknownDisbursementType
	}

	total := in.InstallmentAmount.Mul(decimal.NewFromInt(int64(in.TenorCount)))
	profit := total.Sub(disbursed)
	days := TenorInDays(in.TenorCount, in.TenorUnit)

	return Result{
		DisbursedAmount:           disbursed,
		TotalCollection:           total,
		ProfitInterest:            profit,
		AnnualInterestRatePercent: AnnualRatePercent(profit, disbursed, days),
		TenorInDays:               days,
	}, nil
}

// AnnualRatePercent is profit/disbursed scaled to a 365-day year, in percent,
// rounded to 2 places. It is 0 when either disbursed or tenorDays is not
// positive.
func AnnualRatePercent(profit, disbursed decimal.Decimal, tenorDays int) decimal.Decimal {
	if !disbursed.IsPositive() || tenorDays <= 0 {
		return decimal.Zero
	}
	// One division: the final Round(2) is the only rounding step.
	num := profit.Mul(daysInYear).Mul(hundred)
	den := disbursed.Mul(decimal.NewFromInt(int64(tenorDays)))
	return num.Div(den).Round(2)
}

// InstallmentFor is the per-period amount needed to collect total over count
// periods, rounded up to a whole currency unit. It is 0 when count is not
// positive.
func InstallmentFor(total decimal.Decimal, count int) decimal.Decimal {
	if count <= 0 || !total.IsPositive() {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(count))).Ceil()
}
