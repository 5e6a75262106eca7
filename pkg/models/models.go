package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DisbursementType string

const (
	DisbursementFull    DisbursementType = "full"
	DisbursementCutting DisbursementType = "cutting"
)

type Cadence string

const (
	CadenceDaily   Cadence = "daily"
	CadenceWeekly  Cadence = "weekly"
	CadenceMonthly Cadence = "monthly"
)

type TenorUnit string

const (
	TenorDays   TenorUnit = "days"
	TenorWeeks  TenorUnit = "weeks"
	TenorMonths TenorUnit = "months"
)

// LoanStatus is persisted as active or completed. Overdue is only ever
// produced at read time.
type LoanStatus string

const (
	LoanActive    LoanStatus = "active"
	LoanCompleted LoanStatus = "completed"
	LoanOverdue   LoanStatus = "overdue"
)

type Loan struct {
	ID                uuid.UUID        `json:"id"`
	OwnerID           uuid.UUID        `json:"owner_id"` // Operator who booked the loan
	CustomerName      string           `json:"customer_name"`
	CustomerMobile    string           `json:"customer_mobile"`
	Amount            decimal.Decimal  `json:"amount"` // Principal
	DisbursementType  DisbursementType `json:"disbursement_type"`
	CuttingAmount     decimal.Decimal  `json:"cutting_amount"`
	DisbursedAmount   decimal.Decimal  `json:"disbursed_amount"`
	RepaymentCadence  Cadence          `json:"repayment_cadence"`
	InstallmentAmount decimal.Decimal  `json:"installment_amount"`
	DurationCount     int              `json:"duration_count"`
	DurationUnit      TenorUnit        `json:"duration_unit"`
	StartDate         time.Time        `json:"start_date"`
	Status            LoanStatus       `json:"status"`
	InterestRate      decimal.Decimal  `json:"interest_rate"` // Annualized percent, derived at creation
	TotalCollection   decimal.Decimal  `json:"total_collection"`
	ProfitInterest    decimal.Decimal  `json:"profit_interest"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// Collection is a single payment received against a loan.
type Collection struct {
	ID             uuid.UUID       `json:"id"`
	LoanID         uuid.UUID       `json:"loan_id"`
	Amount         decimal.Decimal `json:"amount"`
	CollectionDate time.Time       `json:"collection_date"`
	Notes          string          `json:"notes"`
	CreatedAt      time.Time       `json:"created_at"`
}
