package main

import (
	"net/http"

	"github.com/mcclellann/jama/pkg/economics"
	"github.com/mcclellann/jama/pkg/models"
	"github.com/shopspring/decimal"
)

type quoteResponse struct {
	economics.Result
	InstallmentAmount decimal.Decimal `json:"installment_amount"`
}

func (s *Server) quoteHandler(w http.ResponseWriter, r *http.Request) {
	var in models.QuoteInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, installment, err := s.ledger.Quote(in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse{Result: res, InstallmentAmount: installment})
}

func (s *Server) createLoanHandler(w http.ResponseWriter, r *http.Request) {
	var in models.LoanInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	loan, err := s.ledger.CreateLoan(r.Context(), userFrom(r).ID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

func (s *Server) listLoansHandler(w http.ResponseWriter, r *http.Request) {
	views, err := s.ledger.ListLoans(r.Context(), userFrom(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) getLoanHandler(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	view, err := s.ledger.LoanDetail(r.Context(), userFrom(r).ID, loanID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) updateLoanHandler(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in models.LoanInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	loan, err := s.ledger.UpdateLoan(r.Context(), userFrom(r).ID, loanID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (s *Server) deleteLoanHandler(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.ledger.DeleteLoan(r.Context(), userFrom(r).ID, loanID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listCollectionsHandler(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	collections, err := s.ledger.ListCollections(r.Context(), userFrom(r).ID, loanID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, collections)
}

func (s *Server) recordCollectionHandler(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in models.CollectionInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	collection, err := s.ledger.RecordCollection(r.Context(), userFrom(r).ID, loanID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, collection)
}

func (s *Server) updateCollectionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in models.CollectionInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	collection, err := s.ledger.UpdateCollection(r.Context(), userFrom(r).ID, id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, collection)
}

func (s *Server) deleteCollectionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.ledger.DeleteCollection(r.Context(), userFrom(r).ID, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) pendingHandler(w http.ResponseWriter, r *http.Request) {
	pending, err := s.ledger.PendingBalances(r.Context(), userFrom(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ledger.PortfolioStats(r.Context(), userFrom(r).ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
