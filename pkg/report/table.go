package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/mcclellann/jama/pkg/models"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Format selects how a report is rendered.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// ParseFormat defaults to JSON when s is empty.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// ContentType is the HTTP media type of a rendered report.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/json"
}

// Table is the flat shape every export renders.
type Table struct {
	Title   string
	Summary []string
	Header  []string
	Rows    [][]string
}

func (r DailyReport) Table() Table {
	t := Table{
		Title: "Daily Collections " + r.Date.Format(models.DateLayout),
		Summary: []string{
			"Collections: " + strconv.Itoa(r.Count),
			"Total collected: " + r.TotalCollected.StringFixed(2),
		},
		Header: []string{"Customer", "Mobile", "Amount", "Pending", "Notes"},
	}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []string{
			row.CustomerName,
			row.CustomerMobile,
			row.Amount.StringFixed(2),
			row.PendingAmount.StringFixed(2),
			row.Notes,
		})
	}
	return t
}

func (r LoanDatabaseReport) Table() Table {
	t := Table{
		Title: "Loan Database",
		Summary: []string{
			"Loans: " + strconv.Itoa(r.LoanCount),
			"Total principal: " + r.TotalPrincipal.StringFixed(2),
			"Active: " + strconv.Itoa(r.ActiveCount),
		},
		Header: []string{"Customer", "Mobile", "Principal", "Rate %", "Tenor", "Status", "Start"},
	}
	for _, row := range r.Rows {
		t.Rows = append(t.Rows, []string{
			row.CustomerName,
			row.CustomerMobile,
			row.Principal.StringFixed(2),
			row.InterestRate.StringFixed(2),
			fmt.Sprintf("%d %s", row.DurationCount, row.DurationUnit),
			string(row.Status),
			row.StartDate.Format(models.DateLayout),
		})
	}
	return t
}

// CustomerTable renders BuildCustomerReport rows.
func CustomerTable(rows []CustomerRow) Table {
	t := Table{
		Title:   "Customer-wise Report",
		Summary: []string{"Loans: " + strconv.Itoa(len(rows))},
		Header:  []string{"Customer", "Mobile", "Principal", "Paid", "Outstanding", "Payments", "Avg Payment", "Time Frame"},
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, []string{
			row.CustomerName,
			row.CustomerMobile,
			row.Principal.StringFixed(2),
			row.Paid.StringFixed(2),
			row.Outstanding.StringFixed(2),
			strconv.Itoa(row.PaymentCount),
			row.AveragePayment.StringFixed(2),
			row.TimeFrame,
		})
	}
	return t
}

// WriteCSV writes the header row followed by every data row.
func WriteCSV(w io.Writer, t Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}

const (
	pdfRowHeight  = 7.0
	pdfFontSize   = 9.0
	pdfTitleSize  = 14.0
	pdfCellMargin = 2.0
)

// Font is a TrueType face pair for PDF output. Text is embedded as UTF-8,
// so names render in any script the face has glyphs for.
type Font struct {
	Regular []byte
	Bold    []byte
}

// GoFont is the embedded Go font family. It covers Latin, Greek and
// Cyrillic; other scripts need a face loaded with LoadFont.
var GoFont = Font{Regular: goregular.TTF, Bold: gobold.TTF}

// LoadFont reads TrueType files. An empty boldPath reuses the regular face.
func LoadFont(regularPath, boldPath string) (Font, error) {
	regular, err := os.ReadFile(regularPath)
	if err != nil {
		return Font{}, fmt.Errorf("failed to read pdf font: %w", err)
	}
	font := Font{Regular: regular, Bold: regular}
	if boldPath != "" {
		if font.Bold, err = os.ReadFile(boldPath); err != nil {
			return Font{}, fmt.Errorf("failed to read bold pdf font: %w", err)
		}
	}
	return font, nil
}

const pdfFamily = "jama"

func newPDF(font Font) (*fpdf.Fpdf, error) {
	if font.Regular == nil {
		font = GoFont
	}
	if font.Bold == nil {
		font.Bold = font.Regular
	}
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.AddUTF8FontFromBytes(pdfFamily, "", font.Regular)
	pdf.AddUTF8FontFromBytes(pdfFamily, "B", font.Bold)
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to load pdf font: %w", err)
	}
	return pdf, nil
}

// WritePDF renders a title, the summary lines and a gridded table. The
// header row is repeated on every page. A zero Font means GoFont.
func WritePDF(w io.Writer, t Table, font Font) error {
	pdf, err := newPDF(font)
	if err != nil {
		return err
	}
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	left, _, right, bottom := pdf.GetMargins()
	if bottom == 0 {
		bottom = left
	}
	colW := (pageW - left - right) / float64(max(len(t.Header), 1))

	pdf.SetFont(pdfFamily, "B", pdfTitleSize)
	pdf.CellFormat(0, 10, t.Title, "", 1, "L", false, 0, "")
	pdf.SetFont(pdfFamily, "", pdfFontSize)
	for _, line := range t.Summary {
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	header := func() {
		pdf.SetFont(pdfFamily, "B", pdfFontSize)
		pdf.SetFillColor(230, 230, 230)
		for _, h := range t.Header {
			pdf.CellFormat(colW, pdfRowHeight, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont(pdfFamily, "", pdfFontSize)
	}
	header()

	for _, row := range t.Rows {
		if pdf.GetY()+pdfRowHeight > pageH-bottom {
			pdf.AddPage()
			header()
		}
		for i := range t.Header {
			var cell string
			if i < len(row) {
				cell = fit(pdf, row[i], colW-pdfCellMargin)
			}
			pdf.CellFormat(colW, pdfRowHeight, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}

// fit truncates s by whole runes so it renders within width.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"..") > width {
		r = r[:len(r)-1]
	}
	return string(r) + ".."
}
