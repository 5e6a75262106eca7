// Package report builds the operator reports (daily collections, loan
// database, customer-wise) from freshly fetched loans and collections.
package report

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/jama/pkg/ledger"
	"github.com/mcclellann/jama/pkg/models"
	"github.com/mcclellann/jama/pkg/overdue"
	"github.com/shopspring/decimal"
)

// DailyRow is one collection taken on the report date.
type DailyRow struct {
	CollectionID   uuid.UUID       `json:"collection_id"`
	LoanID         uuid.UUID       `json:"loan_id"`
	CustomerName   string          `json:"customer_name"`
	CustomerMobile string          `json:"customer_mobile"`
	Amount         decimal.Decimal `json:"amount"`
	Notes          string          `json:"notes"`
	PendingAmount  decimal.Decimal `json:"pending_amount"` // Lifetime, not as of the report date
}

type DailyReport struct {
	Date           time.Time       `json:"date"`
	Rows           []DailyRow      `json:"rows"`
	Count          int             `json:"count"`
	TotalCollected decimal.Decimal `json:"total_collected"`
}

// DailyCollections lists every collection dated on date. Collections are
// reached through their loan, so one whose loan is missing never appears.
func DailyCollections(loans []*models.Loan, byLoan map[uuid.UUID][]*models.Collection, date time.Time) DailyReport {
	date = models.DateOnly(date)
	r := DailyReport{Date: date, Rows: []DailyRow{}, TotalCollected: decimal.Zero}

	for _, loan := range loans {
		history := byLoan[loan.ID]
		pending := ledger.Aggregate(loan.Amount, history).PendingAmount
		for _, c := range history {
			if c == nil || !models.DateOnly(c.CollectionDate).Equal(date) {
				continue
			}
			r.Rows = append(r.Rows, DailyRow{
				CollectionID:   c.ID,
				LoanID:         loan.ID,
				CustomerName:   loan.CustomerName,
				CustomerMobile: loan.CustomerMobile,
				Amount:         c.Amount,
				Notes:          c.Notes,
				PendingAmount:  pending,
			})
			r.TotalCollected = r.TotalCollected.Add(c.Amount)
		}
	}

	sort.SliceStable(r.Rows, func(i, j int) bool { return r.Rows[i].CustomerName < r.Rows[j].CustomerName })
	r.Count = len(r.Rows)
	return r
}

type LoanRow struct {
	LoanID         uuid.UUID         `json:"loan_id"`
	CustomerName   string            `json:"customer_name"`
	CustomerMobile string            `json:"customer_mobile"`
	Principal      decimal.Decimal   `json:"principal"`
	InterestRate   decimal.Decimal   `json:"interest_rate"`
	DurationCount  int               `json:"duration_count"`
	DurationUnit   models.TenorUnit  `json:"duration_unit"`
	Status         models.LoanStatus `json:"status"`
	StartDate      time.Time         `json:"start_date"`
}

type LoanDatabaseReport struct {
	Rows           []LoanRow       `json:"rows"`
	LoanCount      int             `json:"loan_count"`
	TotalPrincipal decimal.Decimal `json:"total_principal"`
	ActiveCount    int             `json:"active_count"`
}

// LoanDatabase lists every loan with its display status as of today.
// Overdue loans still count as active; only completed loans do not.
func LoanDatabase(loans []*models.Loan, byLoan map[uuid.UUID][]*models.Collection, today time.Time) LoanDatabaseReport {
	r := LoanDatabaseReport{Rows: make([]LoanRow, 0, len(loans)), TotalPrincipal: decimal.Zero}
	for _, loan := range loans {
		view := ledger.Describe(loan, byLoan[loan.ID], today)
		r.Rows = append(r.Rows, LoanRow{
			LoanID:         loan.ID,
			CustomerName:   loan.CustomerName,
			CustomerMobile: loan.CustomerMobile,
			Principal:      loan.Amount,
			InterestRate:   loan.InterestRate,
			DurationCount:  loan.DurationCount,
			DurationUnit:   loan.DurationUnit,
			Status:         view.DisplayStatus,
			StartDate:      loan.StartDate,
		})
		r.TotalPrincipal = r.TotalPrincipal.Add(loan.Amount)
		if view.DisplayStatus != models.LoanCompleted {
			r.ActiveCount++
		}
	}
	r.LoanCount = len(r.Rows)
	return r
}

type CustomerRow struct {
	LoanID         uuid.UUID       `json:"loan_id"`
	CustomerName   string          `json:"customer_name"`
	CustomerMobile string          `json:"customer_mobile"`
	Principal      decimal.Decimal `json:"principal"`
	Paid           decimal.Decimal `json:"paid"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	PaymentCount   int             `json:"payment_count"`
	AveragePayment decimal.Decimal `json:"average_payment"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	TimeFrame      string          `json:"time_frame"` // "start - end"
}

// BuildCustomerReport gives one row per loan with its lifetime repayment
// figures. The end date uses the same tenor conversion as the rate.
func BuildCustomerReport(loans []*models.Loan, byLoan map[uuid.UUID][]*models.Collection) []CustomerRow {
	rows := make([]CustomerRow, 0, len(loans))
	for _, loan := range loans {
		s := ledger.Aggregate(loan.Amount, byLoan[loan.ID])
		avg := decimal.Zero
		if s.PaymentCount > 0 {
			avg = s.PaidAmount.Div(decimal.NewFromInt(int64(s.PaymentCount))).Round(2)
		}
		end := overdue.ExpectedEndDate(loan.StartDate, loan.DurationCount, loan.DurationUnit)
		rows = append(rows, CustomerRow{
			LoanID:         loan.ID,
			CustomerName:   loan.CustomerName,
			CustomerMobile: loan.CustomerMobile,
			Principal:      loan.Amount,
			Paid:           s.PaidAmount,
			Outstanding:    s.PendingAmount,
			PaymentCount:   s.PaymentCount,
			AveragePayment: avg,
			StartDate:      loan.StartDate,
			EndDate:        end,
			TimeFrame:      loan.StartDate.Format(models.DateLayout) + " - " + end.Format(models.DateLayout),
		})
	}
	return rows
}
