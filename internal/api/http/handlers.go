package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"fundlift-moderation-backend/internal/domain"
	"fundlift-moderation-backend/internal/repository"
	"fundlift-moderation-backend/internal/workflow"

	"github.com/gorilla/mux"
)

type transitionRequest struct {
	RequestedStatus domain.Status `json:"requested_status"`
	Reason          string        `json:"reason,omitempty"`
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	entityType, id, ok := entityRef(w, r)
	if !ok {
		return
	}

	var body transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}

	ent, err := s.moderation.Transition(r.Context(), workflow.Request{
		EntityType:      entityType,
		EntityID:        id,
		RequestedStatus: body.RequestedStatus,
		Reason:          body.Reason,
		Actor:           actorFrom(r.Context()),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ent)
}

func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	entityType, id, ok := entityRef(w, r)
	if !ok {
		return
	}
	view, err := s.moderation.GetEntity(r.Context(), entityType, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	entityType := domain.EntityType(mux.Vars(r)["entityType"])
	if !domain.ValidEntityType(entityType) {
		writeError(w, domain.NewNotFound(entityType, 0))
		return
	}

	f := repository.Filter{
		EntityType: entityType,
		Page:       queryInt32(r, "page", 1),
		PageSize:   queryInt32(r, "page_size", repository.DefaultPageSize),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.Status(raw)
		switch status {
		case domain.StatusPaymentPending, domain.StatusPending, domain.StatusSubmitted,
			domain.StatusApproved, domain.StatusRejected, domain.StatusAccepted, domain.StatusVerified:
			f.Status = &status
		default:
			writeBadRequest(w, "unknown status filter")
			return
		}
	}
	if raw := r.URL.Query().Get("campaign_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeBadRequest(w, "campaign_id must be numeric")
			return
		}
		f.CampaignID = &id
	}

	views, total, err := s.moderation.ListEntities(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pagedResponse{Items: views, Total: total, Page: f.Page, PageSize: f.PageSize})
}

func (s *Server) handleEntityActivity(w http.ResponseWriter, r *http.Request) {
	entityType, id, ok := entityRef(w, r)
	if !ok {
		return
	}
	page, pageSize := queryInt32(r, "page", 1), queryInt32(r, "page_size", repository.DefaultPageSize)
	records, total, err := s.audit.EntityActivity(r.Context(), entityType, id, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pagedResponse{Items: records, Total: total, Page: page, PageSize: pageSize})
}

func (s *Server) handleActorActivity(w http.ResponseWriter, r *http.Request) {
	actorID, err := strconv.ParseInt(mux.Vars(r)["actorId"], 10, 64)
	if err != nil {
		writeBadRequest(w, "actor id must be numeric")
		return
	}
	page, pageSize := queryInt32(r, "page", 1), queryInt32(r, "page_size", repository.DefaultPageSize)
	records, total, err := s.audit.ActorActivity(r.Context(), actorID, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pagedResponse{Items: records, Total: total, Page: page, PageSize: pageSize})
}

type addNoteRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	entityType, id, ok := entityRef(w, r)
	if !ok {
		return
	}
	var body addNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}
	note, err := s.notes.AddNote(r.Context(), actorFrom(r.Context()), entityType, id, body.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	entityType, id, ok := entityRef(w, r)
	if !ok {
		return
	}
	notes, err := s.notes.ListNotes(r.Context(), entityType, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

type donationCallback struct {
	CampaignID  int64 `json:"campaign_id"`
	AmountCents int64 `json:"amount_cents"`
}

func (s *Server) handleConfirmDonation(w http.ResponseWriter, r *http.Request) {
	var body donationCallback
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}
	campaign, err := s.payments.ConfirmDonation(r.Context(), body.CampaignID, body.AmountCents)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

type verificationCallback struct {
	VerificationID int64 `json:"verification_id"`
}

func (s *Server) handleConfirmVerificationPayment(w http.ResponseWriter, r *http.Request) {
	var body verificationCallback
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}
	verification, err := s.payments.ConfirmVerificationPayment(r.Context(), body.VerificationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, verification)
}

func entityRef(w http.ResponseWriter, r *http.Request) (domain.EntityType, int64, bool) {
	vars := mux.Vars(r)
	entityType := domain.EntityType(vars["entityType"])
	if !domain.ValidEntityType(entityType) {
		writeError(w, domain.NewNotFound(entityType, 0))
		return "", 0, false
	}
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		writeBadRequest(w, "entity id must be numeric")
		return "", 0, false
	}
	return entityType, id, true
}

func queryInt32(r *http.Request, name string, fallback int32) int32 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || v < 1 {
		return fallback
	}
	return int32(v)
}
