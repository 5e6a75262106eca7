package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mcclellann/jama/pkg/models"
)

var (
	ErrLoanNotFound       = errors.New("loan not found")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrAdNotFound         = errors.New("ad not found")
	ErrDuplicateEmail     = errors.New("email already registered")
)

// LoanStore persists loans. Listing is always scoped to an owner except for
// ListAllLoans, which serves tenant administration.
type LoanStore interface {
	CreateLoan(ctx context.Context, loan *models.Loan) error
	GetLoan(ctx context.Context, id uuid.UUID) (*models.Loan, error)
	UpdateLoan(ctx context.Context, loan *models.Loan) error
	DeleteLoan(ctx context.Context, id uuid.UUID) error
	ListLoans(ctx context.Context, ownerID uuid.UUID) ([]*models.Loan, error)
	ListAllLoans(ctx context.Context) ([]*models.Loan, error)
}

type CollectionStore interface {
	CreateCollection(ctx context.Context, c *models.Collection) error
	GetCollection(ctx context.Context, id uuid.UUID) (*models.Collection, error)
	UpdateCollection(ctx context.Context, c *models.Collection) error
	DeleteCollection(ctx context.Context, id uuid.UUID) error
	ListCollectionsForLoan(ctx context.Context, loanID uuid.UUID) ([]*models.Collection, error)
	ListCollectionsForOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Collection, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]*models.User, error)
}

type AdStore interface {
	CreateAd(ctx context.Context, ad *models.Ad) error
	GetAd(ctx context.Context, id uuid.UUID) (*models.Ad, error)
	UpdateAd(ctx context.Context, ad *models.Ad) error
	DeleteAd(ctx context.Context, id uuid.UUID) error
	ListAds(ctx context.Context) ([]*models.Ad, error)
}

// Storage defines the interface for all database operations.
type Storage interface {
	LoanStore
	CollectionStore
	UserStore
	AdStore

	Close() error
}
