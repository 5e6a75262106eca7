package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/jama/pkg/models"
)

const adColumns = `id, title, description, image_url, video_url, target_url, is_active, starts_at, ends_at, recurrence, target_role, priority, created_by, created_at, updated_at`

func (s *SQLStore) CreateAd(ctx context.Context, ad *models.Ad) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO ads (`+adColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		ad.ID, ad.Title, ad.Description, ad.ImageURL, ad.VideoURL, ad.TargetURL, ad.IsActive, ad.StartsAt,
		nullTime(ad.EndsAt), ad.Recurrence, ad.TargetRole, ad.Priority, ad.CreatedBy, ad.CreatedAt, ad.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ad: %w", err)
	}
	return nil
}

func (s *SQLStore) GetAd(ctx context.Context, id uuid.UUID) (*models.Ad, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+adColumns+` FROM ads WHERE id = ?`), id)
	ad, err := scanAd(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdNotFound
		}
		return nil, fmt.Errorf("failed to get ad: %w", err)
	}
	return ad, nil
}

func (s *SQLStore) UpdateAd(ctx context.Context, ad *models.Ad) error {
	result, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE ads SET title = ?, description = ?, image_url = ?, video_url = ?, target_url = ?, is_active = ?, starts_at = ?, ends_at = ?, recurrence = ?, target_role = ?, priority = ?, updated_at = ? WHERE id = ?`),
		ad.Title, ad.Description, ad.ImageURL, ad.VideoURL, ad.TargetURL, ad.IsActive, ad.StartsAt,
		nullTime(ad.EndsAt), ad.Recurrence, ad.TargetRole, ad.Priority, ad.UpdatedAt, ad.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update ad: %w", err)
	}
	return expectOneRow(result, ErrAdNotFound)
}

func (s *SQLStore) DeleteAd(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM ads WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete ad: %w", err)
	}
	return expectOneRow(result, ErrAdNotFound)
}

// ListAds returns every ad, highest priority first.
func (s *SQLStore) ListAds(ctx context.Context) ([]*models.Ad, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+adColumns+` FROM ads ORDER BY priority DESC, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ads: %w", err)
	}
	defer rows.Close()

	ads := []*models.Ad{}
	for rows.Next() {
		ad, err := scanAd(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ad row: %w", err)
		}
		ads = append(ads, ad)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration for ads: %w", err)
	}
	return ads, nil
}

func scanAd(row rowScanner) (*models.Ad, error) {
	var ad models.Ad
	var endsAt sql.NullTime
	err := row.Scan(&ad.ID, &ad.Title, &ad.Description, &ad.ImageURL, &ad.VideoURL, &ad.TargetURL, &ad.IsActive,
		&ad.StartsAt, &endsAt, &ad.Recurrence, &ad.TargetRole, &ad.Priority, &ad.CreatedBy, &ad.CreatedAt, &ad.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if endsAt.Valid {
		ad.EndsAt = &endsAt.Time
	}
	return &ad, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
