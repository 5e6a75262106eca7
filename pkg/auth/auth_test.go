package auth

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mcclellann/jama/pkg/models"
	"github.com/mcclellann/jama/pkg/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewService(s, "test-secret", time.Hour, logger)
}

func signUp(t *testing.T, svc *Service, email string) *models.User {
	t.Helper()
	user, err := svc.SignUp(context.Background(), models.SignUpInput{
		Name: "Operator", Email: email, Password: "correct-horse",
	})
	require.NoError(t, err)
	return user
}

func TestSignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	user := signUp(t, svc, "Op@Example.com")
	assert.Equal(t, models.RoleUser, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	token, signedIn, err := svc.SignIn(ctx, models.SignInInput{Email: "op@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, signedIn.ID)

	id, role, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
	assert.Equal(t, models.RoleUser, role)
}

func TestSignUp_DuplicateAndInvalid(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	signUp(t, svc, "op@example.com")

	_, err := svc.SignUp(ctx, models.SignUpInput{Name: "Other", Email: "OP@example.com", Password: "another-pass"})
	assert.True(t, errors.Is(err, store.ErrDuplicateEmail))

	_, err = svc.SignUp(ctx, models.SignUpInput{Name: "Short", Email: "short@example.com", Password: "123"})
	assert.True(t, models.IsValidation(err))
}

func TestSignIn_WrongCredentials(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	signUp(t, svc, "op@example.com")

	_, _, err := svc.SignIn(ctx, models.SignInInput{Email: "op@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.SignIn(ctx, models.SignInInput{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignIn_UnknownEmailComparesHash(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	signUp(t, svc, "op@example.com")

	var hashes [][]byte
	svc.compare = func(hash, password []byte) error {
		hashes = append(hashes, hash)
		return bcrypt.CompareHashAndPassword(hash, password)
	}

	_, _, err := svc.SignIn(ctx, models.SignInInput{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	require.Len(t, hashes, 1)
	assert.Equal(t, dummyHash(), hashes[0])

	_, _, err = svc.SignIn(ctx, models.SignInInput{Email: "op@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Len(t, hashes, 2)
}

func TestDeactivatedUser(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	user := signUp(t, svc, "op@example.com")
	token, err := svc.GenerateToken(user)
	require.NoError(t, err)

	_, err = svc.SetUserActive(ctx, user.ID, false)
	require.NoError(t, err)

	_, _, err = svc.SignIn(ctx, models.SignInInput{Email: "op@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrInactiveUser)

	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrInactiveUser)

	_, err = svc.SetUserActive(ctx, user.ID, true)
	require.NoError(t, err)
	authed, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)
}

func TestParseToken_Rejects(t *testing.T) {
	svc := newTestService(t)
	user := &models.User{ID: uuid.New(), Role: models.RoleUser}

	other := NewService(nil, "other-secret", time.Hour, svc.logger)
	forged, err := other.GenerateToken(user)
	require.NoError(t, err)
	_, _, err = svc.ParseToken(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := svc.GenerateToken(user)
	require.NoError(t, err)
	svc.now = time.Now
	_, _, err = svc.ParseToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: models.RoleSuperAdmin})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, _, err = svc.ParseToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = svc.ParseToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestEnsureSuperAdmin(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	admin, err := svc.EnsureSuperAdmin(ctx, "Admin", "admin@example.com", "admin-password")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, admin.Role)

	again, err := svc.EnsureSuperAdmin(ctx, "Admin", "admin@example.com", "changed-password")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)

	_, err = svc.SetUserActive(ctx, admin.ID, false)
	assert.True(t, models.IsValidation(err))

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
