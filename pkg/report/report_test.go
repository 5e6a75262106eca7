package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mcclellann/jama/pkg/ledger"
	"github.com/mcclellann/jama/pkg/models"
	"github.com/mcclellann/jama/pkg/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time { return time.Date(2024, time.June, d, 0, 0, 0, 0, time.UTC) }

func testLoan(name string, principal int64, start time.Time) *models.Loan {
	return &models.Loan{
		ID:             uuid.New(),
		CustomerName:   name,
		CustomerMobile: "9000000000",
		Amount:         decimal.NewFromInt(principal),
		InterestRate:   decimal.RequireFromString("243.33"),
		DurationCount:  2,
		DurationUnit:   models.TenorWeeks,
		StartDate:      start,
	}
}

func collect(loan *models.Loan, amount int64, date time.Time, notes string) *models.Collection {
	return &models.Collection{
		ID:             uuid.New(),
		LoanID:         loan.ID,
		Amount:         decimal.NewFromInt(amount),
		CollectionDate: date,
		Notes:          notes,
	}
}

func fixture() ([]*models.Loan, map[uuid.UUID][]*models.Collection) {
	ravi := testLoan("Ravi", 5000, day(1))
	asha := testLoan("Asha", 2000, day(3))
	orphan := &models.Loan{ID: uuid.New()}

	all := []*models.Collection{
		collect(ravi, 1200, day(5), "first"),
		collect(ravi, 800, day(6), ""),
		collect(asha, 500, day(5).Add(14*time.Hour), "evening"),
		collect(orphan, 999, day(5), "loan deleted"),
	}
	return []*models.Loan{ravi, asha}, ledger.GroupByLoan(all)
}

func TestDailyCollections(t *testing.T) {
	loans, byLoan := fixture()

	r := DailyCollections(loans, byLoan, day(5))
	require.Len(t, r.Rows, 2)
	assert.Equal(t, 2, r.Count)
	assert.Equal(t, "1700.00", r.TotalCollected.StringFixed(2))

	assert.Equal(t, "Asha", r.Rows[0].CustomerName)
	assert.Equal(t, "evening", r.Rows[0].Notes)
	assert.Equal(t, "1500.00", r.Rows[0].PendingAmount.StringFixed(2))

	// Pending is lifetime: the payment on day 6 is included.
	assert.Equal(t, "Ravi", r.Rows[1].CustomerName)
	assert.Equal(t, "3000.00", r.Rows[1].PendingAmount.StringFixed(2))
}

func TestDailyCollections_EmptyDay(t *testing.T) {
	loans, byLoan := fixture()

	r := DailyCollections(loans, byLoan, day(20))
	assert.Empty(t, r.Rows)
	assert.NotNil(t, r.Rows)
	assert.True(t, r.TotalCollected.IsZero())
}

func TestLoanDatabase(t *testing.T) {
	loans, byLoan := fixture()
	settled := testLoan("Meena", 100, day(1))
	byLoan[settled.ID] = []*models.Collection{collect(settled, 100, day(2), "")}
	loans = append(loans, settled)

	r := LoanDatabase(loans, byLoan, day(18))
	assert.Equal(t, 3, r.LoanCount)
	assert.Equal(t, 2, r.ActiveCount)
	assert.Equal(t, "7100.00", r.TotalPrincipal.StringFixed(2))

	statuses := map[string]models.LoanStatus{}
	for _, row := range r.Rows {
		statuses[row.CustomerName] = row.Status
	}
	// Ravi started on day 1 with a 14 day tenor; Asha on day 3.
	assert.Equal(t, models.LoanOverdue, statuses["Ravi"])
	assert.Equal(t, models.LoanOverdue, statuses["Asha"])
	assert.Equal(t, models.LoanCompleted, statuses["Meena"])
}

func TestBuildCustomerReport(t *testing.T) {
	loans, byLoan := fixture()

	rows := BuildCustomerReport(loans, byLoan)
	require.Len(t, rows, 2)

	ravi := rows[0]
	assert.Equal(t, "2000.00", ravi.Paid.StringFixed(2))
	assert.Equal(t, "3000.00", ravi.Outstanding.StringFixed(2))
	assert.Equal(t, 2, ravi.PaymentCount)
	assert.Equal(t, "1000.00", ravi.AveragePayment.StringFixed(2))
	assert.Equal(t, "2024-06-01 - 2024-06-15", ravi.TimeFrame)
}

func TestBuildCustomerReport_NoPayments(t *testing.T) {
	loan := testLoan("Kiran", 3000, day(1))

	rows := BuildCustomerReport([]*models.Loan{loan}, nil)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].AveragePayment.IsZero())
	assert.Equal(t, 0, rows[0].PaymentCount)
	assert.Equal(t, "3000.00", rows[0].Outstanding.StringFixed(2))
}

func TestWriteCSV(t *testing.T) {
	loans, byLoan := fixture()
	var buf bytes.Buffer

	require.NoError(t, WriteCSV(&buf, CustomerTable(BuildCustomerReport(loans, byLoan))))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Customer", "Mobile", "Principal", "Paid", "Outstanding", "Payments", "Avg Payment", "Time Frame"}, records[0])
	assert.Equal(t, "Ravi", records[1][0])
	assert.Equal(t, "1000.00", records[1][6])
}

func TestWritePDF(t *testing.T) {
	loans, byLoan := fixture()
	tbl := LoanDatabase(loans, byLoan, day(10)).Table()
	for i := 0; i < 80; i++ {
		tbl.Rows = append(tbl.Rows, tbl.Rows[0])
	}
	var buf bytes.Buffer

	require.NoError(t, WritePDF(&buf, tbl, Font{}))
	assert.True(t, strings.HasPrefix(buf.String(), "%PDF-"))
}

func TestWritePDF_EmbedsUnicodeFont(t *testing.T) {
	tbl := Table{
		Title:  "Клиенты",
		Header: []string{"Customer", "Mobile"},
		Rows:   [][]string{{"Лакшми Иванова", "9123456780"}, {"Ravi", "9000000000"}},
	}
	var buf bytes.Buffer

	require.NoError(t, WritePDF(&buf, tbl, GoFont))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "%PDF-"))
	assert.Contains(t, out, "Identity-H")
	assert.NotContains(t, out, "WinAnsiEncoding")
}

func TestFit_KeepsWholeRunes(t *testing.T) {
	pdf, err := newPDF(GoFont)
	require.NoError(t, err)
	pdf.SetFont(pdfFamily, "", pdfFontSize)

	name := strings.Repeat("Лакшми ", 20)
	got := fit(pdf, name, 30)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, ".."))
	assert.Less(t, len(got), len(name))
	assert.Equal(t, "Ravi", fit(pdf, "Ravi", 30))
}

func TestLoadFont(t *testing.T) {
	path := filepath.Join(t.TempDir(), "face.ttf")
	require.NoError(t, os.WriteFile(path, GoFont.Regular, 0o644))

	font, err := LoadFont(path, "")
	require.NoError(t, err)
	assert.Equal(t, GoFont.Regular, font.Regular)
	assert.Equal(t, GoFont.Regular, font.Bold)

	_, err = LoadFont(filepath.Join(t.TempDir(), "missing.ttf"), "")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatJSON, "json": FormatJSON, "CSV": FormatCSV, "pdf": FormatPDF}
	for in, want := range cases {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xlsx")
	assert.Error(t, err)
	assert.Equal(t, "text/csv", FormatCSV.ContentType())
}

func TestService(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "report.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	owner := &models.User{
		ID: uuid.New(), Name: "Op", Email: "op@example.com", PasswordHash: "x",
		Role: models.RoleUser, IsActive: true, CreatedAt: day(1), UpdatedAt: day(1),
	}
	require.NoError(t, s.CreateUser(ctx, owner))

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	book := ledger.NewLedger(s, logger).WithClock(func() time.Time { return day(10) })
	svc := NewService(book, logger)

	loan, err := book.CreateLoan(ctx, owner.ID, models.LoanInput{
		CustomerName:      "Ravi",
		CustomerMobile:    "9000000000",
		Amount:            decimal.NewFromInt(5000),
		DisbursementType:  models.DisbursementFull,
		RepaymentCadence:  models.CadenceDaily,
		InstallmentAmount: decimal.NewFromInt(200),
		DurationCount:     30,
		DurationUnit:      models.TenorDays,
		StartDate:         "2024-06-01",
	})
	require.NoError(t, err)
	_, err = book.RecordCollection(ctx, owner.ID, loan.ID, models.CollectionInput{
		Amount: decimal.NewFromInt(200), CollectionDate: "2024-06-02",
	})
	require.NoError(t, err)

	daily, err := svc.Daily(ctx, owner.ID, day(2))
	require.NoError(t, err)
	require.Equal(t, 1, daily.Count)
	assert.Equal(t, "4800.00", daily.Rows[0].PendingAmount.StringFixed(2))

	loansReport, err := svc.Loans(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, loansReport.ActiveCount)

	customers, err := svc.Customers(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, customers, 1)

	var buf bytes.Buffer
	require.NoError(t, svc.Render(&buf, FormatCSV, daily.Table()))
	assert.Contains(t, buf.String(), "Ravi")
	assert.Error(t, svc.Render(&buf, FormatJSON, daily.Table()))
}
