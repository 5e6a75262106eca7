package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/jama/pkg/models"
	"github.com/mcclellann/jama/pkg/overdue"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Summary is what a loan's payment history adds up to.
type Summary struct {
	PaidAmount      decimal.Decimal   `json:"paid_amount"`
	PendingAmount   decimal.Decimal   `json:"pending_amount"`
	Overpaid        decimal.Decimal   `json:"overpaid"` // Paid beyond principal; pending is floored at zero instead
	ProgressPercent int64             `json:"progress_percent"`
	PaymentCount    int               `json:"payment_count"`
	LastPaymentDate time.Time         `json:"last_payment_date"`
	Status          models.LoanStatus `json:"status"`
}

// Aggregate sums collections against principal. Nil entries are skipped and
// the slice is not modified. Pending never goes below zero.
func Aggregate(principal decimal.Decimal, collections []*models.Collection) Summary {
	paid := decimal.Zero
	count := 0
	var last time.Time
	for _, c := range collections {
		if c == nil {
			continue
		}
		paid = paid.Add(c.Amount)
		count++
		if c.CollectionDate.After(last) {
			last = c.CollectionDate
		}
	}

	pending := principal.Sub(paid)
	overpaid := decimal.Zero
	if pending.IsNegative() {
		overpaid = pending.Neg()
		pending = decimal.Zero
	}

	var progress int64
	if principal.IsPositive() {
		progress = paid.Mul(hundred).Div(principal).Round(0).IntPart()
	}

	status := models.LoanActive
	if !pending.IsPositive() {
		status = models.LoanCompleted
	}

	return Summary{
		PaidAmount:      paid,
		PendingAmount:   pending,
		Overpaid:        overpaid,
		ProgressPercent: progress,
		PaymentCount:    count,
		LastPaymentDate: last,
		Status:          status,
	}
}

// DisplayStatus combines the ledger and the calendar. Overdue is never
// stored; it is recomputed here on every read and clears once payments
// catch up.
func DisplayStatus(s Summary, t overdue.Timing) models.LoanStatus {
	if !s.PendingAmount.IsPositive() {
		return models.LoanCompleted
	}
	if t.DaysOverdue > 0 {
		return models.LoanOverdue
	}
	return models.LoanActive
}

// LoanView is a loan with everything derived from it at read time.
type LoanView struct {
	Loan          *models.Loan      `json:"loan"`
	Ledger        Summary           `json:"ledger"`
	Timing        overdue.Timing    `json:"timing"`
	DisplayStatus models.LoanStatus `json:"display_status"`
}

// Describe builds the view of one loan from its full collection history.
func Describe(loan *models.Loan, collections []*models.Collection, today time.Time) *LoanView {
	summary := Aggregate(loan.Amount, collections)
	timing := overdue.Compute(loan.StartDate, loan.DurationCount, loan.DurationUnit, summary.LastPaymentDate, today)
	return &LoanView{
		Loan:          loan,
		Ledger:        summary,
		Timing:        timing,
		DisplayStatus: DisplayStatus(summary, timing),
	}
}

// GroupByLoan indexes collections by their loan.
func GroupByLoan(collections []*models.Collection) map[uuid.UUID][]*models.Collection {
	grouped := make(map[uuid.UUID][]*models.Collection)
	for _, c := range collections {
		if c == nil {
			continue
		}
		grouped[c.LoanID] = append(grouped[c.LoanID], c)
	}
	return grouped
}
