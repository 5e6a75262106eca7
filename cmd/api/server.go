package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mcclellann/jama/pkg/ads"
	"github.com/mcclellann/jama/pkg/auth"
	"github.com/mcclellann/jama/pkg/ledger"
	"github.com/mcclellann/jama/pkg/models"
	"github.com/mcclellann/jama/pkg/report"
	"github.com/sirupsen/logrus"
)

// Server holds the services behind the HTTP API.
type Server struct {
	ledger  *ledger.Ledger
	reports *report.Service
	auth    *auth.Service
	ads     *ads.Service
	logger  *logrus.Logger
}

func NewServer(authService *auth.Service, book *ledger.Ledger, adService *ads.Service, logger *logrus.Logger) *Server {
	return &Server{
		ledger:  book,
		reports: report.NewService(book, logger),
		auth:    authService,
		ads:     adService,
		logger:  logger,
	}
}

// Routes builds the router for the whole API.
func (s *Server) Routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.requestLogger)

	router.HandleFunc("/healthz", s.healthHandler).Methods("GET")

	public := router.PathPrefix("/auth").Subrouter()
	public.HandleFunc("/signup", s.signUpHandler).Methods("POST")
	public.HandleFunc("/signin", s.signInHandler).Methods("POST")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.authMiddleware)

	api.HandleFunc("/loans/quote", s.quoteHandler).Methods("POST")
	api.HandleFunc("/loans", s.listLoansHandler).Methods("GET")
	api.HandleFunc("/loans", s.createLoanHandler).Methods("POST")
	api.HandleFunc("/loans/{id}", s.getLoanHandler).Methods("GET")
	api.HandleFunc("/loans/{id}", s.updateLoanHandler).Methods("PUT")
	api.HandleFunc("/loans/{id}", s.deleteLoanHandler).Methods("DELETE")
	api.HandleFunc("/loans/{id}/collections", s.listCollectionsHandler).Methods("GET")
	api.HandleFunc("/loans/{id}/collections", s.recordCollectionHandler).Methods("POST")
	api.HandleFunc("/collections/{id}", s.updateCollectionHandler).Methods("PUT")
	api.HandleFunc("/collections/{id}", s.deleteCollectionHandler).Methods("DELETE")
	api.HandleFunc("/pending", s.pendingHandler).Methods("GET")
	api.HandleFunc("/stats", s.statsHandler).Methods("GET")

	api.HandleFunc("/reports/daily", s.dailyReportHandler).Methods("GET")
	api.HandleFunc("/reports/loans", s.loanReportHandler).Methods("GET")
	api.HandleFunc("/reports/customers", s.customerReportHandler).Methods("GET")

	api.HandleFunc("/ads", s.liveAdsHandler).Methods("GET")
	api.HandleFunc("/ads/{id}/click", s.adClickHandler).Methods("POST")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(requireRole(models.RoleSuperAdmin))
	admin.HandleFunc("/ads", s.listAdsHandler).Methods("GET")
	admin.HandleFunc("/ads", s.createAdHandler).Methods("POST")
	admin.HandleFunc("/ads/{id}", s.updateAdHandler).Methods("PUT")
	admin.HandleFunc("/ads/{id}", s.deleteAdHandler).Methods("DELETE")
	admin.HandleFunc("/ads/{id}/media", s.uploadAdMediaHandler).Methods("POST")
	admin.HandleFunc("/users", s.listUsersHandler).Methods("GET")
	admin.HandleFunc("/users/{id}/status", s.userStatusHandler).Methods("PUT")

	return router
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
