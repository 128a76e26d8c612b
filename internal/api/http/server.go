// Package http exposes the moderation engine to the admin UI: transition
// requests, list views with derived classifications, the activity log, and
// internal notes. Rendering, routing of pages, and auth issuance live in
// external collaborators; only the JSON surface is served here.
package http

import (
	"net/http"

	"fundlift-moderation-backend/internal/security"
	"fundlift-moderation-backend/internal/service"

	"github.com/gorilla/mux"
)

type Server struct {
	router     *mux.Router
	moderation service.ModerationService
	payments   service.PaymentCallbackService
	audit      service.AuditService
	notes      service.NotesService
	tokens     security.TokenManager
	webhookKey string
}

func NewServer(
	moderation service.ModerationService,
	payments service.PaymentCallbackService,
	audit service.AuditService,
	notes service.NotesService,
	tokens security.TokenManager,
	webhookKey string,
) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		moderation: moderation,
		payments:   payments,
		audit:      audit,
		notes:      notes,
		tokens:     tokens,
		webhookKey: webhookKey,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(requestIDMiddleware)

	admin := api.NewRoute().Subrouter()
	admin.Use(s.authMiddleware)
	admin.HandleFunc("/moderation/{entityType}/{id:[0-9]+}/transition", s.handleTransition).Methods(http.MethodPost)
	admin.HandleFunc("/moderation/{entityType}/{id:[0-9]+}", s.handleGetEntity).Methods(http.MethodGet)
	admin.HandleFunc("/moderation/{entityType}", s.handleListEntities).Methods(http.MethodGet)
	admin.HandleFunc("/audit/actors/{actorId:[0-9]+}", s.handleActorActivity).Methods(http.MethodGet)
	admin.HandleFunc("/audit/{entityType}/{id:[0-9]+}", s.handleEntityActivity).Methods(http.MethodGet)
	admin.HandleFunc("/moderation/{entityType}/{id:[0-9]+}/notes", s.handleAddNote).Methods(http.MethodPost)
	admin.HandleFunc("/moderation/{entityType}/{id:[0-9]+}/notes", s.handleListNotes).Methods(http.MethodGet)

	// Payment collaborator callbacks use the shared webhook key, not JWT.
	hooks := api.PathPrefix("/collaborators/payments").Subrouter()
	hooks.Use(s.webhookMiddleware)
	hooks.HandleFunc("/donations", s.handleConfirmDonation).Methods(http.MethodPost)
	hooks.HandleFunc("/verifications", s.handleConfirmVerificationPayment).Methods(http.MethodPost)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
