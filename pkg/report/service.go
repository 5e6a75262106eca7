package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/mcclellann/jama/pkg/ledger"
	"github.com/sirupsen/logrus"
)

// Service fetches an operator's book and shapes it into reports.
type Service struct {
	book   *ledger.Ledger
	font   Font
	logger *logrus.Logger
}

func NewService(book *ledger.Ledger, logger *logrus.Logger) *Service {
	return &Service{book: book, font: GoFont, logger: logger}
}

// WithFont sets the face PDF exports are set in.
func (s *Service) WithFont(font Font) *Service {
	s.font = font
	return s
}

func (s *Service) Daily(ctx context.Context, ownerID uuid.UUID, date time.Time) (DailyReport, error) {
	loans, byLoan, err := s.book.Portfolio(ctx, ownerID)
	if err != nil {
		return DailyReport{}, fmt.Errorf("failed to load portfolio: %w", err)
	}
	return DailyCollections(loans, byLoan, date), nil
}

func (s *Service) Loans(ctx context.Context, ownerID uuid.UUID) (LoanDatabaseReport, error) {
	loans, byLoan, err := s.book.Portfolio(ctx, ownerID)
	if err != nil {
		return LoanDatabaseReport{}, fmt.Errorf("failed to load portfolio: %w", err)
	}
	return LoanDatabase(loans, byLoan, s.book.Today()), nil
}

func (s *Service) Customers(ctx context.Context, ownerID uuid.UUID) ([]CustomerRow, error) {
	loans, byLoan, err := s.book.Portfolio(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}
	return BuildCustomerReport(loans, byLoan), nil
}

// Render writes t in a tabular format. JSON is not tabular; callers encode
// the report value itself for it.
func (s *Service) Render(w io.Writer, f Format, t Table) error {
	var err error
	switch f {
	case FormatCSV:
		err = WriteCSV(w, t)
	case FormatPDF:
		err = WritePDF(w, t, s.font)
	default:
		err = fmt.Errorf("format %q is not tabular", f)
	}
	if err != nil {
		s.logger.WithError(err).WithField("report", t.Title).Error("Failed to render report")
	}
	return err
}
