package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"malkhana-backend/internal/handlers"
	"malkhana-backend/internal/middleware"
	"malkhana-backend/internal/models"
	"malkhana-backend/pkg/utils"
)

func NewRouter(
	authHandler *handlers.AuthHandler,
	incidentHandler *handlers.IncidentHandler,
	evidenceHandler *handlers.EvidenceHandler,
	transferHandler *handlers.TransferHandler,
	closureHandler *handlers.ClosureHandler,
	reportHandler *handlers.ReportHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		utils.Fail(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		utils.Fail(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Health and metrics, no authentication
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", healthHandler.DetailedHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Public
	api.HandleFunc("/staff/login", authHandler.Login).Methods("POST")

	// Authenticated
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware.Authenticate)
	adminOnly := authMiddleware.RequireRole(models.DesignationAdmin)

	protected.HandleFunc("/staff/logout", authHandler.Logout).Methods("POST")
	protected.HandleFunc("/staff/profile", authHandler.Profile).Methods("GET")
	protected.Handle("/staff/register", adminOnly(http.HandlerFunc(authHandler.Register))).Methods("POST")

	// Incidents - fixed paths before /{id}
	protected.HandleFunc("/incidents", incidentHandler.Create).Methods("POST")
	protected.HandleFunc("/incidents", incidentHandler.List).Methods("GET")
	protected.HandleFunc("/incidents/search", incidentHandler.Search).Methods("GET")
	protected.HandleFunc("/incidents/metrics", incidentHandler.Metrics).Methods("GET")
	protected.HandleFunc("/incidents/alerts/pending", incidentHandler.PendingAlerts).Methods("GET")
	protected.HandleFunc("/incidents/dashboard", incidentHandler.Dashboard).Methods("GET")
	protected.HandleFunc("/incidents/{id}", incidentHandler.Get).Methods("GET")

	// Evidence
	protected.HandleFunc("/evidence", evidenceHandler.Register).Methods("POST")
	protected.HandleFunc("/evidence/search", evidenceHandler.Search).Methods("GET")
	protected.HandleFunc("/evidence/track", evidenceHandler.Track).Methods("GET")
	protected.HandleFunc("/evidence/incident/{incidentId}", evidenceHandler.ListByIncident).Methods("GET")
	protected.HandleFunc("/evidence/{id}", evidenceHandler.Get).Methods("GET")

	// Custody transfers
	protected.HandleFunc("/transfers", transferHandler.Record).Methods("POST")
	protected.HandleFunc("/transfers/evidence/{evidenceId}", transferHandler.History).Methods("GET")
	protected.HandleFunc("/transfers/evidence/{evidenceId}/report.pdf", transferHandler.CustodyReport).Methods("GET")

	// Closures
	protected.Handle("/closures", adminOnly(http.HandlerFunc(closureHandler.Close))).Methods("POST")
	protected.HandleFunc("/closures/incident/{incidentId}", closureHandler.GetByIncident).Methods("GET")

	// Reports
	protected.Handle("/reports/overview", adminOnly(http.HandlerFunc(reportHandler.Overview))).Methods("GET")

	return r
}
