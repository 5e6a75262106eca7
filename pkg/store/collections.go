package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcclellann/jama/pkg/models"
)

// CreateCollection inserts a new payment record.
func (s *SQLStore) CreateCollection(ctx context.Context, c *models.Collection) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO collections (id, loan_id, amount, collection_date, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		c.ID, c.LoanID, c.Amount, c.CollectionDate, c.Notes, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (s *SQLStore) GetCollection(ctx context.Context, id uuid.UUID) (*models.Collection, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, loan_id, amount, collection_date, notes, created_at FROM collections WHERE id = ?`), id)
	c, err := scanCollection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCollectionNotFound
		}
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	return c, nil
}

func (s *SQLStore) UpdateCollection(ctx context.Context, c *models.Collection) error {
	result, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE collections SET amount = ?, collection_date = ?, notes = ? WHERE id = ?`),
		c.Amount, c.CollectionDate, c.Notes, c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update collection: %w", err)
	}
	return expectOneRow(result, ErrCollectionNotFound)
}

func (s *SQLStore) DeleteCollection(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM collections WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return expectOneRow(result, ErrCollectionNotFound)
}

// ListCollectionsForLoan retrieves all payments of a loan in date order.
func (s *SQLStore) ListCollectionsForLoan(ctx context.Context, loanID uuid.UUID) ([]*models.Collection, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, loan_id, amount, collection_date, notes, created_at FROM collections
		WHERE loan_id = ? ORDER BY collection_date ASC, created_at ASC`), loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get collections for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	return scanCollections(rows)
}

// ListCollectionsForOwner retrieves every payment on every loan of an operator.
func (s *SQLStore) ListCollectionsForOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Collection, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT c.id, c.loan_id, c.amount, c.collection_date, c.notes, c.created_at
		FROM collections c JOIN loans l ON l.id = c.loan_id
		WHERE l.owner_id = ? ORDER BY c.collection_date ASC, c.created_at ASC`), ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get collections for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	return scanCollections(rows)
}

func scanCollection(row rowScanner) (*models.Collection, error) {
	var c models.Collection
	if err := row.Scan(&c.ID, &c.LoanID, &c.Amount, &c.CollectionDate, &c.Notes, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.CollectionDate = c.CollectionDate.UTC()
	return &c, nil
}

func scanCollections(rows *sql.Rows) ([]*models.Collection, error) {
	collections := []*models.Collection{}
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection row: %w", err)
		}
		collections = append(collections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration for collections: %w", err)
	}
	return collections, nil
}
