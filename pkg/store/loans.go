package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcclellann/jama/pkg/models"
)

const loanColumns = `id, owner_id, customer_name, customer_mobile, amount, disbursement_type, cutting_amount, disbursed_amount, repayment_cadence, installment_amount, duration_count, duration_unit, start_date, status, interest_rate, total_collection, profit_interest, created_at, updated_at`

// CreateLoan inserts a new loan into the database.
func (s *SQLStore) CreateLoan(ctx context.Context, loan *models.Loan) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO loans (`+loanColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		loan.ID, loan.OwnerID, loan.CustomerName, loan.CustomerMobile, loan.Amount, loan.DisbursementType,
		loan.CuttingAmount, loan.DisbursedAmount, loan.RepaymentCadence, loan.InstallmentAmount,
		loan.DurationCount, loan.DurationUnit, loan.StartDate, loan.Status, loan.InterestRate,
		loan.TotalCollection, loan.ProfitInterest, loan.CreatedAt, loan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// GetLoan retrieves a loan by its ID.
func (s *SQLStore) GetLoan(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+loanColumns+` FROM loans WHERE id = ?`), id)
	loan, err := scanLoan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return loan, nil
}

// UpdateLoan updates an existing loan in the database.
func (s *SQLStore) UpdateLoan(ctx context.Context, loan *models.Loan) error {
	result, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE loans SET customer_name = ?, customer_mobile = ?, amount = ?, disbursement_type = ?, cutting_amount = ?, disbursed_amount = ?, repayment_cadence = ?, installment_amount = ?, duration_count = ?, duration_unit = ?, start_date = ?, status = ?, interest_rate = ?, total_collection = ?, profit_interest = ?, updated_at = ? WHERE id = ?`),
		loan.CustomerName, loan.CustomerMobile, loan.Amount, loan.DisbursementType, loan.CuttingAmount,
		loan.DisbursedAmount, loan.RepaymentCadence, loan.InstallmentAmount, loan.DurationCount,
		loan.DurationUnit, loan.StartDate, loan.Status, loan.InterestRate, loan.TotalCollection,
		loan.ProfitInterest, loan.UpdatedAt, loan.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update loan: %w", err)
	}
	return expectOneRow(result, ErrLoanNotFound)
}

// DeleteLoan removes a loan and its collections from the database within a transaction.
func (s *SQLStore) DeleteLoan(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, s.rebind(`DELETE FROM collections WHERE loan_id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete associated collections: %w", err)
	}

	result, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM loans WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete loan: %w", err)
	}
	if err := expectOneRow(result, ErrLoanNotFound); err != nil {
		return err
	}

	return tx.Commit()
}

// ListLoans retrieves every loan booked by an operator, oldest first.
func (s *SQLStore) ListLoans(ctx context.Context, ownerID uuid.UUID) ([]*models.Loan, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+loanColumns+` FROM loans WHERE owner_id = ? ORDER BY start_date ASC, created_at ASC`), ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	return scanLoans(rows)
}

// ListAllLoans retrieves all loans across operators.
func (s *SQLStore) ListAllLoans(ctx context.Context) ([]*models.Loan, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+loanColumns+` FROM loans ORDER BY start_date ASC, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all loans: %w", err)
	}
	defer rows.Close()

	return scanLoans(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLoan(row rowScanner) (*models.Loan, error) {
	var loan models.Loan
	err := row.Scan(&loan.ID, &loan.OwnerID, &loan.CustomerName, &loan.CustomerMobile, &loan.Amount,
		&loan.DisbursementType, &loan.CuttingAmount, &loan.DisbursedAmount, &loan.RepaymentCadence,
		&loan.InstallmentAmount, &loan.DurationCount, &loan.DurationUnit, &loan.StartDate, &loan.Status,
		&loan.InterestRate, &loan.TotalCollection, &loan.ProfitInterest, &loan.CreatedAt, &loan.UpdatedAt)
	if err != nil {
		return nil, err
	}
	// Calendar dates are stored as UTC midnights; drivers may hand them back
	// in the session zone.
	loan.StartDate = loan.StartDate.UTC()
	return &loan, nil
}

func scanLoans(rows *sql.Rows) ([]*models.Loan, error) {
	loans := []*models.Loan{}
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan row: %w", err)
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return loans, nil
}
