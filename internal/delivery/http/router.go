package http

import (
	"net/http"

	"onboarding-portal/internal/delivery/http/handler"
	"onboarding-portal/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router            *mux.Router
	scheduleHandler   *handler.ScheduleHandler
	onboardingHandler *handler.OnboardingHandler
	auditLogHandler   *handler.AuditLogHandler
	authMiddleware    *middleware.AuthMiddleware
	corsMiddleware    *middleware.CORSMiddleware
}

// NewRouter wires the handlers. onboardingHandler and auditLogHandler may be nil when the
// portal runs without a database; their routes are then not registered.
func NewRouter(
	scheduleHandler *handler.ScheduleHandler,
	onboardingHandler *handler.OnboardingHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:            mux.NewRouter(),
		scheduleHandler:   scheduleHandler,
		onboardingHandler: onboardingHandler,
		auditLogHandler:   auditLogHandler,
		authMiddleware:    authMiddleware,
		corsMiddleware:    corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Admin routes (protected - admin only). Registered before the client routes so that
	// /admin paths never fall through to them.
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)

	admin.HandleFunc("/schedules", r.scheduleHandler.GetAdminGrid).Methods(http.MethodGet)
	admin.HandleFunc("/schedules/stream", r.scheduleHandler.StreamAdminGrid).Methods(http.MethodGet)

	if r.onboardingHandler != nil {
		admin.HandleFunc("/onboarding", r.onboardingHandler.GetAll).Methods(http.MethodGet)
		admin.HandleFunc("/onboarding/{id}/status", r.onboardingHandler.UpdateStatus).Methods(http.MethodPatch)
		admin.HandleFunc("/onboarding/{id}", r.onboardingHandler.Delete).Methods(http.MethodDelete)
		admin.HandleFunc("/onboarding/files/{id}", r.onboardingHandler.DownloadDocument).Methods(http.MethodGet)
	}
	if r.auditLogHandler != nil {
		admin.HandleFunc("/audit-logs", r.auditLogHandler.GetAllAuditLogs).Methods(http.MethodGet)
		admin.HandleFunc("/audit-logs/{id}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)
	}

	// Client routes (protected)
	client := api.NewRoute().Subrouter()
	client.Use(r.authMiddleware.Authenticate)
	client.Use(middleware.RequireClient)

	client.HandleFunc("/schedules/availability", r.scheduleHandler.GetAvailability).Methods(http.MethodGet)
	client.HandleFunc("/schedules/stream", r.scheduleHandler.StreamAvailability).Methods(http.MethodGet)
	client.HandleFunc("/schedules/me", r.scheduleHandler.GetMySchedule).Methods(http.MethodGet)
	client.HandleFunc("/schedules/me", r.scheduleHandler.Release).Methods(http.MethodDelete)
	client.HandleFunc("/schedules/reserve", r.scheduleHandler.Reserve).Methods(http.MethodPost)

	if r.onboardingHandler != nil {
		client.HandleFunc("/onboarding", r.onboardingHandler.CreateOrUpdate).Methods(http.MethodPost)
		client.HandleFunc("/onboarding/me", r.onboardingHandler.GetMine).Methods(http.MethodGet)
		client.HandleFunc("/onboarding/files", r.onboardingHandler.UploadDocument).Methods(http.MethodPost)
		client.HandleFunc("/onboarding/files/{id}", r.onboardingHandler.DownloadDocument).Methods(http.MethodGet)
		client.HandleFunc("/onboarding/files/{id}", r.onboardingHandler.DeleteDocument).Methods(http.MethodDelete)
		client.HandleFunc("/onboarding/{id}", r.onboardingHandler.Update).Methods(http.MethodPut)
	}

	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
