// Package ads serves the in-app advertisements managed by super admins.
package ads

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/jama/pkg/media"
	"github.com/mcclellann/jama/pkg/models"
	"github.com/mcclellann/jama/pkg/store"
	"github.com/sirupsen/logrus"
)

// Service manages ads and their delivery counters.
type Service struct {
	store   store.AdStore
	counter Counter
	media   media.Store
	logger  *logrus.Logger
	now     func() time.Time
}

func NewService(s store.AdStore, counter Counter, mediaStore media.Store, logger *logrus.Logger) *Service {
	if counter == nil {
		counter = DiscardCounter{}
	}
	return &Service{
		store:   s,
		counter: counter,
		media:   mediaStore,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock replaces the time source used to decide which ads are live.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Create(ctx context.Context, createdBy uuid.UUID, in models.AdInput) (*models.Ad, error) {
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	ad := &models.Ad{ID: uuid.New(), CreatedBy: createdBy, CreatedAt: now}
	apply(ad, in)
	ad.UpdatedAt = now

	if err := s.store.CreateAd(ctx, ad); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"ad_id": ad.ID, "title": ad.Title}).Info("Ad created")
	return ad, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in models.AdInput) (*models.Ad, error) {
	if err := models.Validate(in); err != nil {
		return nil, err
	}
	ad, err := s.store.GetAd(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(ad, in)
	ad.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateAd(ctx, ad); err != nil {
		return nil, err
	}
	return ad, nil
}

func apply(ad *models.Ad, in models.AdInput) {
	ad.Title = in.Title
	ad.Description = in.Description
	ad.ImageURL = in.ImageURL
	ad.VideoURL = in.VideoURL
	ad.TargetURL = in.TargetURL
	ad.IsActive = in.IsActive
	ad.StartsAt = in.StartsAt.UTC()
	ad.EndsAt = nil
	if in.EndsAt != nil {
		end := in.EndsAt.UTC()
		ad.EndsAt = &end
	}
	ad.Recurrence = in.Recurrence
	if ad.Recurrence == "" {
		ad.Recurrence = models.RecurrenceNone
	}
	ad.TargetRole = in.TargetRole
	if ad.TargetRole == "" {
		ad.TargetRole = models.TargetAll
	}
	ad.Priority = in.Priority
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteAd(ctx, id); err != nil {
		return err
	}
	if err := s.counter.Reset(ctx, id); err != nil {
		s.logger.WithError(err).WithField("ad_id", id).Warn("Failed to reset ad counters")
	}
	return nil
}

// List returns every ad with its counters, for administration.
func (s *Service) List(ctx context.Context) ([]models.AdStats, error) {
	all, err := s.store.ListAds(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.AdStats, 0, len(all))
	for _, ad := range all {
		impressions, clicks, err := s.counter.Counts(ctx, ad.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.AdStats{Ad: ad, Impressions: impressions, Clicks: clicks})
	}
	return out, nil
}

// Live returns the ads to show to role right now, highest priority first,
// and counts an impression for each. A counter failure is logged and does
// not hide the ads.
func (s *Service) Live(ctx context.Context, role models.Role) ([]*models.Ad, error) {
	all, err := s.store.ListAds(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	live := make([]*models.Ad, 0, len(all))
	for _, ad := range all {
		if !ad.IsLive(now) || !ad.Targets(role) {
			continue
		}
		live = append(live, ad)
		if err := s.counter.Incr(ctx, ad.ID, EventImpression); err != nil {
			s.logger.WithError(err).WithField("ad_id", ad.ID).Warn("Failed to count impression")
		}
	}
	return live, nil
}

// RecordClick counts a click and returns the ad so the caller can redirect
// to its target.
func (s *Service) RecordClick(ctx context.Context, id uuid.UUID) (*models.Ad, error) {
	ad, err := s.store.GetAd(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.counter.Incr(ctx, id, EventClick); err != nil {
		return nil, err
	}
	return ad, nil
}

var mediaTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"video/mp4":  ".mp4",
	"video/webm": ".webm",
}

// UploadMedia stores an image or video for the ad and points the ad at it.
func (s *Service) UploadMedia(ctx context.Context, id uuid.UUID, contentType string, r io.Reader) (*models.Ad, error) {
	if s.media == nil {
		return nil, fmt.Errorf("media storage is not configured")
	}
	ext, ok := mediaTypes[contentType]
	if !ok {
		return nil, models.Invalid(fmt.Errorf("unsupported media type %q", contentType))
	}

	ad, err := s.store.GetAd(ctx, id)
	if err != nil {
		return nil, err
	}

	name := path.Join("ads", ad.ID.String(), fmt.Sprintf("%d%s", s.now().Unix(), ext))
	url, err := s.media.Put(ctx, name, contentType, r)
	if err != nil {
		return nil, fmt.Errorf("failed to store ad media: %w", err)
	}

	if strings.HasPrefix(contentType, "video/") {
		ad.VideoURL = url
	} else {
		ad.ImageURL = url
	}
	ad.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateAd(ctx, ad); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"ad_id": ad.ID, "url": url}).Info("Ad media uploaded")
	return ad, nil
}
