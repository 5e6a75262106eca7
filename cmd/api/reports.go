package main

import (
	"fmt"
	"net/http"

	"github.com/mcclellann/jama/pkg/models"
	"github.com/mcclellann/jama/pkg/report"
)

// reportFormat reads ?format=, defaulting to JSON.
func reportFormat(r *http.Request) (report.Format, error) {
	f, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		return "", models.Invalid(err)
	}
	return f, nil
}

// writeReport sends v as JSON or t rendered as a download.
func (s *Server) writeReport(w http.ResponseWriter, f report.Format, filename string, v interface{}, t report.Table) {
	if f == report.FormatJSON {
		writeJSON(w, http.StatusOK, v)
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+"."+string(f)))
	// Render logs its own failures; the status line is already out by then.
	s.reports.Render(w, f, t)
}

func (s *Server) dailyReportHandler(w http.ResponseWriter, r *http.Request) {
	f, err := reportFormat(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	date := s.ledger.Today()
	if q := r.URL.Query().Get("date"); q != "" {
		if date, err = models.ParseDate(q); err != nil {
			s.writeError(w, r, models.Invalid(fmt.Errorf("invalid date %q", q)))
			return
		}
	}

	daily, err := s.reports.Daily(r.Context(), userFrom(r).ID, date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeReport(w, f, "daily_collections_"+date.Format(models.DateLayout), daily, daily.Table())
}

func (s *Server) loanReportHandler(w http.ResponseWriter, r *http.Request) {
	f, err := reportFormat(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	loans, err := s.reports.Loans(r.Context(), userFrom(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeReport(w, f, "loan_database", loans, loans.Table())
}

func (s *Server) customerReportHandler(w http.ResponseWriter, r *http.Request) {
	f, err := reportFormat(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rows, err := s.reports.Customers(r.Context(), userFrom(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeReport(w, f, "customer_report", rows, report.CustomerTable(rows))
}
