package http

import (
	"encoding/json"
	"net/http"

	"fundlift-moderation-backend/internal/domain"
	"fundlift-moderation-backend/internal/logger"
)

type pagedResponse struct {
	Items    any   `json:"items"`
	Total    int64 `json:"total"`
	Page     int32 `json:"page"`
	PageSize int32 `json:"page_size"`
}

type errorResponse struct {
	Kind      domain.ErrorKind     `json:"kind"`
	Violation domain.ViolationKind `json:"violation,omitempty"`
	Message   string               `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Kind: "BAD_REQUEST", Message: message})
}

// writeError maps workflow error kinds onto HTTP status codes. Anything that
// is not a WorkflowError is a storage or infrastructure failure and surfaces
// as 500 without detail.
func writeError(w http.ResponseWriter, err error) {
	we, ok := domain.AsWorkflowError(err)
	if !ok {
		logger.Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Kind: "INTERNAL", Message: "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch we.Kind {
	case domain.ErrNotFound:
		status = http.StatusNotFound
	case domain.ErrInvalidTransition, domain.ErrInvariantViolation:
		status = http.StatusUnprocessableEntity
	case domain.ErrMissingReason:
		status = http.StatusBadRequest
	case domain.ErrUnauthorized:
		status = http.StatusForbidden
	case domain.ErrConflict:
		status = http.StatusConflict
	}
	writeJSON(w, status, errorResponse{Kind: we.Kind, Violation: we.Violation, Message: we.Message})
}
