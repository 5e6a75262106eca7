package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/jama/pkg/economics"
	"github.com/mcclellann/jama/pkg/models"
	"github.com/mcclellann/jama/pkg/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Store is the persistence the loan book needs.
type Store interface {
	store.LoanStore
	store.CollectionStore
}

// Ledger handles the business logic for loans and their collections.
type Ledger struct {
	storage Store
	logger  *logrus.Logger
	now     func() time.Time
}

// NewLedger creates a new Ledger with a given Store implementation.
func NewLedger(s Store, logger *logrus.Logger) *Ledger {
	return &Ledger{
		storage: s,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock replaces the time source used for "today".
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Today is the current calendar date in the ledger's clock zone.
func (l *Ledger) Today() time.Time {
	return models.DateOnly(l.now())
}

// Quote previews loan economics without persisting anything. When the
// installment is omitted and a target total is given, the installment is
// derived from it.
func (l *Ledger) Quote(in models.QuoteInput) (economics.Result, decimal.Decimal, error) {
	if err := models.Validate(in); err != nil {
		return economics.Result{}, decimal.Zero, err
	}

	installment := in.InstallmentAmount
	if installment.IsZero() && in.TargetTotal.IsPositive() {
		installment = economics.InstallmentFor(in.TargetTotal, in.DurationCount)
	}

	res, err := economics.Compute(economics.Input{
		Principal:         in.Amount,
		DisbursementType:  in.DisbursementType,
		CuttingAmount:     in.CuttingAmount,
		InstallmentAmount: installment,
		TenorCount:        in.DurationCount,
		TenorUnit:         in.DurationUnit,
	})
	if err != nil {
		return economics.Result{}, decimal.Zero, models.Invalid(err)
	}
	return res, installment, nil
}

// CreateLoan validates the form, derives the economics, and books the loan.
func (l *Ledger) CreateLoan(ctx context.Context, ownerID uuid.UUID, in models.LoanInput) (*models.Loan, error) {
	now := l.now().UTC()
	loan := &models.Loan{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Status:    models.LoanActive,
		CreatedAt: now,
	}
	if err := applyInput(loan, in); err != nil {
		return nil, err
	}
	loan.UpdatedAt = now

	if err := l.storage.CreateLoan(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to store loan: %w", err)
	}

	l.logger.WithFields(logrus.Fields{
		"loan_id":       loan.ID,
		"owner_id":      ownerID,
		"principal":     loan.Amount.StringFixed(2),
		"disbursed":     loan.DisbursedAmount.StringFixed(2),
		"interest_rate": loan.InterestRate.StringFixed(2),
	}).Info("Loan created")
	return loan, nil
}

// applyInput validates in and writes it, with derived economics, onto loan.
func applyInput(loan *models.Loan, in models.LoanInput) error {
	if err := models.Validate(in); err != nil {
		return err
	}
	start, err := models.ParseDate(in.StartDate)
	if err != nil {
		return models.Invalid(err)
	}

	cutting := in.CuttingAmount
	if in.DisbursementType == models.DisbursementFull {
		cutting = decimal.Zero
	}

	res, err := economics.Compute(economics.Input{
		Principal:         in.Amount,
		DisbursementType:  in.DisbursementType,
		CuttingAmount:     cutting,
		InstallmentAmount: in.InstallmentAmount,
		TenorCount:        in.DurationCount,
		TenorUnit:         in.DurationUnit,
	})
	if err != nil {
		return models.Invalid(err)
	}

	loan.CustomerName = in.CustomerName
	loan.CustomerMobile = in.CustomerMobile
	loan.Amount = in.Amount
	loan.DisbursementType = in.DisbursementType
	loan.CuttingAmount = cutting
	loan.DisbursedAmount = res.DisbursedAmount
	loan.RepaymentCadence = in.RepaymentCadence
	loan.InstallmentAmount = in.InstallmentAmount
	loan.DurationCount = in.DurationCount
	loan.DurationUnit = in.DurationUnit
	loan.StartDate = start
	loan.InterestRate = res.AnnualInterestRatePercent
	loan.TotalCollection = res.TotalCollection
	loan.ProfitInterest = res.ProfitInterest
	return nil
}

// GetLoan retrieves a loan owned by ownerID. Loans of other operators are
// reported as not found.
func (l *Ledger) GetLoan(ctx context.Context, ownerID, id uuid.UUID) (*models.Loan, error) {
	loan, err := l.storage.GetLoan(ctx, id)
	if err != nil {
		return nil, err
	}
	if loan.OwnerID != ownerID {
		return nil, store.ErrLoanNotFound
	}
	return loan, nil
}

// LoanDetail returns one loan with its ledger and timing.
func (l *Ledger) LoanDetail(ctx context.Context, ownerID, id uuid.UUID) (*LoanView, error) {
	loan, err := l.GetLoan(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	collections, err := l.storage.ListCollectionsForLoan(ctx, loan.ID)
	if err != nil {
		return nil, err
	}
	return Describe(loan, collections, l.Today()), nil
}

// ListLoans returns every loan of an operator with derived values.
func (l *Ledger) ListLoans(ctx context.Context, ownerID uuid.UUID) ([]*LoanView, error) {
	loans, byLoan, err := l.Portfolio(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	today := l.Today()
	views := make([]*LoanView, 0, len(loans))
	for _, loan := range loans {
		views = append(views, Describe(loan, byLoan[loan.ID], today))
	}
	return views, nil
}

// Portfolio fetches an operator's loans and all their collections grouped by
// loan, freshly from the store.
func (l *Ledger) Portfolio(ctx context.Context, ownerID uuid.UUID) ([]*models.Loan, map[uuid.UUID][]*models.Collection, error) {
	loans, err := l.storage.ListLoans(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}
	collections, err := l.storage.ListCollectionsForOwner(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}
	return loans, GroupByLoan(collections), nil
}

// UpdateLoan re-applies the form to an existing loan. Economics are derived
// again and the stored status follows the ledger under the new principal.
func (l *Ledger) UpdateLoan(ctx context.Context, ownerID, id uuid.UUID, in models.LoanInput) (*models.Loan, error) {
	loan, err := l.GetLoan(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := applyInput(loan, in); err != nil {
		return nil, err
	}

	collections, err := l.storage.ListCollectionsForLoan(ctx, loan.ID)
	if err != nil {
		return nil, err
	}
	loan.Status = Aggregate(loan.Amount, collections).Status
	loan.UpdatedAt = l.now().UTC()

	if err := l.storage.UpdateLoan(ctx, loan); err != nil {
		return nil, err
	}
	l.logger.WithField("loan_id", loan.ID).Info("Loan updated")
	return loan, nil
}

// DeleteLoan hard-deletes a loan and its collections.
func (l *Ledger) DeleteLoan(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := l.GetLoan(ctx, ownerID, id); err != nil {
		return err
	}
	if err := l.storage.DeleteLoan(ctx, id); err != nil {
		return err
	}
	l.logger.WithField("loan_id", id).Warn("Loan deleted with its collections")
	return nil
}

// RecordCollection processes a payment for a loan. Completed loans still
// accept payments; the overpayment shows up in the ledger summary.
func (l *Ledger) RecordCollection(ctx context.Context, ownerID, loanID uuid.UUID, in models.CollectionInput) (*models.Collection, error) {
	date, err := validateCollection(in)
	if err != nil {
		return nil, err
	}

	loan, err := l.GetLoan(ctx, ownerID, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status == models.LoanCompleted {
		l.logger.WithField("loan_id", loan.ID).Warn("Recording payment on a completed loan")
	}

	collection := &models.Collection{
		ID:             uuid.New(),
		LoanID:         loan.ID,
		Amount:         in.Amount,
		CollectionDate: date,
		Notes:          in.Notes,
		CreatedAt:      l.now().UTC(),
	}
	if err := l.storage.CreateCollection(ctx, collection); err != nil {
		return nil, fmt.Errorf("failed to store collection: %w", err)
	}

	if err := l.syncStatus(ctx, loan); err != nil {
		return nil, err
	}

	l.logger.WithFields(logrus.Fields{
		"loan_id":       loan.ID,
		"collection_id": collection.ID,
		"amount":        collection.Amount.StringFixed(2),
	}).Info("Collection recorded")
	return collection, nil
}

// ListCollections returns the payment history of one loan.
func (l *Ledger) ListCollections(ctx context.Context, ownerID, loanID uuid.UUID) ([]*models.Collection, error) {
	if _, err := l.GetLoan(ctx, ownerID, loanID); err != nil {
		return nil, err
	}
	return l.storage.ListCollectionsForLoan(ctx, loanID)
}

// UpdateCollection edits a recorded payment and re-derives the loan status.
func (l *Ledger) UpdateCollection(ctx context.Context, ownerID, id uuid.UUID, in models.CollectionInput) (*models.Collection, error) {
	date, err := validateCollection(in)
	if err != nil {
		return nil, err
	}
	collection, loan, err := l.ownedCollection(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	collection.Amount = in.Amount
	collection.CollectionDate = date
	collection.Notes = in.Notes
	if err := l.storage.UpdateCollection(ctx, collection); err != nil {
		return nil, err
	}
	if err := l.syncStatus(ctx, loan); err != nil {
		return nil, err
	}
	return collection, nil
}

// DeleteCollection removes a recorded payment and re-derives the loan status.
func (l *Ledger) DeleteCollection(ctx context.Context, ownerID, id uuid.UUID) error {
	_, loan, err := l.ownedCollection(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := l.storage.DeleteCollection(ctx, id); err != nil {
		return err
	}
	return l.syncStatus(ctx, loan)
}

func (l *Ledger) ownedCollection(ctx context.Context, ownerID, id uuid.UUID) (*models.Collection, *models.Loan, error) {
	collection, err := l.storage.GetCollection(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	loan, err := l.GetLoan(ctx, ownerID, collection.LoanID)
	if errors.Is(err, store.ErrLoanNotFound) {
		return nil, nil, store.ErrCollectionNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return collection, loan, nil
}

// syncStatus persists active/completed from the loan's current collections.
func (l *Ledger) syncStatus(ctx context.Context, loan *models.Loan) error {
	collections, err := l.storage.ListCollectionsForLoan(ctx, loan.ID)
	if err != nil {
		return err
	}
	status := Aggregate(loan.Amount, collections).Status
	if status == loan.Status {
		return nil
	}

	prev := loan.Status
	loan.Status = status
	loan.UpdatedAt = l.now().UTC()
	if err := l.storage.UpdateLoan(ctx, loan); err != nil {
		return fmt.Errorf("failed to update loan status: %w", err)
	}
	l.logger.WithFields(logrus.Fields{
		"loan_id": loan.ID,
		"from":    prev,
		"to":      status,
	}).Info("Loan status changed")
	return nil
}

func validateCollection(in models.CollectionInput) (time.Time, error) {
	if err := models.Validate(in); err != nil {
		return time.Time{}, err
	}
	date, err := models.ParseDate(in.CollectionDate)
	if err != nil {
		return time.Time{}, models.Invalid(err)
	}
	return date, nil
}

// PendingBalances lists loans that still have money outstanding, most
// urgent first: by priority band, then days overdue, then pending amount.
func (l *Ledger) PendingBalances(ctx context.Context, ownerID uuid.UUID) ([]*LoanView, error) {
	views, err := l.ListLoans(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	pending := make([]*LoanView, 0, len(views))
	for _, v := range views {
		if v.Ledger.PendingAmount.IsPositive() {
			pending = append(pending, v)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		a, b := pending[i], pending[j]
		if ra, rb := a.Timing.PriorityBand.Rank(), b.Timing.PriorityBand.Rank(); ra != rb {
			return ra > rb
		}
		if a.Timing.DaysOverdue != b.Timing.DaysOverdue {
			return a.Timing.DaysOverdue > b.Timing.DaysOverdue
		}
		return a.Ledger.PendingAmount.GreaterThan(b.Ledger.PendingAmount)
	})
	return pending, nil
}

// PortfolioStats summarizes an operator's book.
type PortfolioStats struct {
	LoanCount      int             `json:"loan_count"`
	ActiveCount    int             `json:"active_count"`
	OverdueCount   int             `json:"overdue_count"`
	TotalPrincipal decimal.Decimal `json:"total_principal"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	TotalPending   decimal.Decimal `json:"total_pending"`
}

func (l *Ledger) PortfolioStats(ctx context.Context, ownerID uuid.UUID) (PortfolioStats, error) {
	views, err := l.ListLoans(ctx, ownerID)
	if err != nil {
		return PortfolioStats{}, err
	}

	stats := PortfolioStats{
		TotalPrincipal: decimal.Zero,
		TotalPaid:      decimal.Zero,
		TotalPending:   decimal.Zero,
	}
	for _, v := range views {
		stats.LoanCount++
		switch v.DisplayStatus {
		case models.LoanActive:
			stats.ActiveCount++
		case models.LoanOverdue:
			stats.OverdueCount++
		}
		stats.TotalPrincipal = stats.TotalPrincipal.Add(v.Loan.Amount)
		stats.TotalPaid = stats.TotalPaid.Add(v.Ledger.PaidAmount)
		stats.TotalPending = stats.TotalPending.Add(v.Ledger.PendingAmount)
	}
	return stats, nil
}
