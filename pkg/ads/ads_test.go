package ads

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/jama/pkg/media"
	"github.com/mcclellann/jama/pkg/models"
	"github.com/mcclellann/jama/pkg/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday 2024-06-03, 10:00 UTC
var testNow = time.Date(2024, time.June, 3, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *RedisCounter, uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "ads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	admin := &models.User{
		ID: uuid.New(), Name: "Admin", Email: "admin@example.com", PasswordHash: "x",
		Role: models.RoleSuperAdmin, IsActive: true, CreatedAt: testNow, UpdatedAt: testNow,
	}
	require.NoError(t, s.CreateUser(ctx, admin))

	mediaStore, err := media.NewLocalStore(filepath.Join(t.TempDir(), "media"), "/media")
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	counter, _ := newMiniRedisCounter(t)
	svc := NewService(s, counter, mediaStore, logger).WithClock(func() time.Time { return testNow })
	return svc, counter, admin.ID
}

func adInput(title string) models.AdInput {
	return models.AdInput{
		Title:     title,
		IsActive:  true,
		StartsAt:  testNow.Add(-24 * time.Hour),
		TargetURL: "https://example.com/offer",
	}
}

func TestService_CreateDefaults(t *testing.T) {
	svc, _, admin := newTestService(t)

	ad, err := svc.Create(context.Background(), admin, adInput("Gold loans"))
	require.NoError(t, err)
	assert.Equal(t, models.RecurrenceNone, ad.Recurrence)
	assert.Equal(t, models.TargetAll, ad.TargetRole)
	assert.Equal(t, admin, ad.CreatedBy)
}

func TestService_CreateRejectsInvalid(t *testing.T) {
	svc, _, admin := newTestService(t)

	in := adInput("")
	_, err := svc.Create(context.Background(), admin, in)
	assert.True(t, models.IsValidation(err))

	in = adInput("Bad window")
	end := in.StartsAt.Add(-time.Hour)
	in.EndsAt = &end
	_, err = svc.Create(context.Background(), admin, in)
	assert.True(t, models.IsValidation(err))
}

func TestService_LiveFiltersAndCounts(t *testing.T) {
	ctx := context.Background()
	svc, counter, admin := newTestService(t)

	shown, err := svc.Create(ctx, admin, adInput("Shown"))
	require.NoError(t, err)

	inactive := adInput("Inactive")
	inactive.IsActive = false
	_, err = svc.Create(ctx, admin, inactive)
	require.NoError(t, err)

	adminsOnly := adInput("Admins only")
	adminsOnly.TargetRole = string(models.RoleSuperAdmin)
	_, err = svc.Create(ctx, admin, adminsOnly)
	require.NoError(t, err)

	future := adInput("Future")
	future.StartsAt = testNow.Add(time.Hour)
	_, err = svc.Create(ctx, admin, future)
	require.NoError(t, err)

	live, err := svc.Live(ctx, models.RoleUser)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, shown.ID, live[0].ID)

	impressions, _, err := counter.Counts(ctx, shown.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), impressions)
}

func TestService_LiveDailyWindowInLocalTime(t *testing.T) {
	ctx := context.Background()
	svc, _, admin := newTestService(t)
	ist := time.FixedZone("IST", 5*3600+1800)
	svc.WithClock(func() time.Time { return time.Date(2024, time.June, 5, 5, 45, 0, 0, ist) })

	morning := adInput("Morning")
	morning.Recurrence = models.RecurrenceDaily
	morning.StartsAt = time.Date(2024, time.June, 3, 4, 0, 0, 0, ist)
	morningEnd := time.Date(2024, time.June, 30, 6, 0, 0, 0, ist)
	morning.EndsAt = &morningEnd
	shown, err := svc.Create(ctx, admin, morning)
	require.NoError(t, err)

	later := adInput("Later")
	later.Recurrence = models.RecurrenceDaily
	later.StartsAt = time.Date(2024, time.June, 3, 7, 0, 0, 0, ist)
	laterEnd := time.Date(2024, time.June, 30, 9, 0, 0, 0, ist)
	later.EndsAt = &laterEnd
	_, err = svc.Create(ctx, admin, later)
	require.NoError(t, err)

	live, err := svc.Live(ctx, models.RoleUser)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, shown.ID, live[0].ID)
}

func TestService_RecordClickAndList(t *testing.T) {
	ctx := context.Background()
	svc, _, admin := newTestService(t)
	ad, err := svc.Create(ctx, admin, adInput("Clickable"))
	require.NoError(t, err)

	clicked, err := svc.RecordClick(ctx, ad.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/offer", clicked.TargetURL)

	_, err = svc.RecordClick(ctx, uuid.New())
	assert.True(t, errors.Is(err, store.ErrAdNotFound))

	stats, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(1), stats[0].Clicks)
}

func TestService_UploadMedia(t *testing.T) {
	ctx := context.Background()
	svc, _, admin := newTestService(t)
	ad, err := svc.Create(ctx, admin, adInput("With media"))
	require.NoError(t, err)

	updated, err := svc.UploadMedia(ctx, ad.ID, "video/mp4", strings.NewReader("mp4"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(updated.VideoURL, "/media/ads/"+ad.ID.String()+"/"))
	assert.Empty(t, updated.ImageURL)

	_, err = svc.UploadMedia(ctx, ad.ID, "application/zip", strings.NewReader("zip"))
	assert.True(t, models.IsValidation(err))
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, _, admin := newTestService(t)
	ad, err := svc.Create(ctx, admin, adInput("Gone"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, ad.ID))
	assert.True(t, errors.Is(svc.Delete(ctx, ad.ID), store.ErrAdNotFound))
}
