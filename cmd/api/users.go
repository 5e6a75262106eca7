package main

import (
	"net/http"

	"github.com/mcclellann/jama/pkg/ledger"
	"github.com/mcclellann/jama/pkg/models"
)

func (s *Server) signUpHandler(w http.ResponseWriter, r *http.Request) {
	var in models.SignUpInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.auth.SignUp(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type signInResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *Server) signInHandler(w http.ResponseWriter, r *http.Request) {
	var in models.SignInInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	token, user, err := s.auth.SignIn(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, signInResponse{Token: token, User: user})
}

// tenant is an account with a summary of its loan book.
type tenant struct {
	User  *models.User          `json:"user"`
	Stats ledger.PortfolioStats `json:"stats"`
}

func (s *Server) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := s.auth.ListUsers(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	tenants := make([]tenant, 0, len(users))
	for _, u := range users {
		stats, err := s.ledger.PortfolioStats(r.Context(), u.ID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		tenants = append(tenants, tenant{User: u, Stats: stats})
	}
	writeJSON(w, http.StatusOK, tenants)
}

func (s *Server) userStatusHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in models.UserStatusInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := models.Validate(in); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.auth.SetUserActive(r.Context(), id, *in.IsActive)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
