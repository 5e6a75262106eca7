// Package auth signs operators up and in, and issues role-bearing tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mcclellann/jama/pkg/models"
	"github.com/mcclellann/jama/pkg/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInactiveUser       = errors.New("user is deactivated")
)

// dummyHash is compared against when the email is unknown, so that path
// costs the same bcrypt work as a wrong password.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("jama-unknown-account"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
})

// Claims are carried in every issued token.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	users       store.UserStore
	jwtSecret   []byte
	tokenExpiry time.Duration
	logger      *logrus.Logger
	now         func() time.Time
	compare     func(hash, password []byte) error
}

func NewService(users store.UserStore, jwtSecret string, tokenExpiry time.Duration, logger *logrus.Logger) *Service {
	return &Service{
		users:       users,
		jwtSecret:   []byte(jwtSecret),
		tokenExpiry: tokenExpiry,
		logger:      logger,
		now:         time.Now,
		compare:     bcrypt.CompareHashAndPassword,
	}
}

// SignUp registers a new operator with the jama_user role.
func (s *Service) SignUp(ctx context.Context, input models.SignUpInput) (*models.User, error) {
	if err := models.Validate(input); err != nil {
		return nil, err
	}
	s.logger.WithField("email", input.Email).Info("Sign up attempt")
	return s.createUser(ctx, input.Name, input.Email, input.Password, models.RoleUser)
}

func (s *Service) createUser(ctx context.Context, name, email, password string, role models.Role) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        strings.ToLower(email),
		PasswordHash: string(hashed),
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "role": role}).Info("User registered")
	return user, nil
}

// SignIn checks credentials and returns a signed token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, input models.SignInInput) (string, *models.User, error) {
	if err := models.Validate(input); err != nil {
		return "", nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.compare(dummyHash(), []byte(input.Password))
			s.logger.WithField("email", input.Email).Warn("Sign in for unknown email")
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := s.compare([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		s.logger.WithField("user_id", user.ID).Warn("Wrong password on sign in")
		return "", nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, ErrInactiveUser
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	s.logger.WithField("user_id", user.ID).Info("User signed in")
	return token, user, nil
}

func (s *Service) GenerateToken(user *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ParseToken validates a token and returns its user ID and role.
func (s *Service) ParseToken(tokenString string) (uuid.UUID, models.Role, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return uuid.Nil, "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return userID, claims.Role, nil
}

// Authenticate resolves a token to a still-active user. The role comes from
// the store, so a demotion takes effect before the token expires.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	userID, _, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}

// EnsureSuperAdmin creates the bootstrap super admin when the email is not
// registered yet. An existing account is left untouched.
func (s *Service) EnsureSuperAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	existing, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		if existing.Role != models.RoleSuperAdmin {
			s.logger.WithField("email", email).Warn("Bootstrap admin email belongs to a regular user")
		}
		return existing, nil
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		return nil, err
	}
	return s.createUser(ctx, name, email, password, models.RoleSuperAdmin)
}

func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.users.ListUsers(ctx)
}

// SetUserActive activates or deactivates an account. Super admins cannot be
// deactivated through here.
func (s *Service) SetUserActive(ctx context.Context, id uuid.UUID, active bool) (*models.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleSuperAdmin && !active {
		return nil, models.Invalid(errors.New("super admin accounts cannot be deactivated"))
	}
	user.IsActive = active
	user.UpdatedAt = s.now().UTC()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"user_id": id, "active": active}).Info("User status changed")
	return user, nil
}
