package http

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"fundlift-moderation-backend/internal/domain"
	"fundlift-moderation-backend/internal/logger"

	"github.com/google/uuid"
)

type contextKey string

const (
	actorKey     contextKey = "actor"
	requestIDKey contextKey = "request_id"
)

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authMiddleware validates the bearer token issued by the auth collaborator
// and puts the actor identity on the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, domain.NewUnauthorized("missing bearer token"))
			return
		}
		claims, err := s.tokens.ValidateToken(token)
		if err != nil {
			logger.Debug("token validation failed", "error", err)
			writeError(w, domain.NewUnauthorized("invalid or expired token"))
			return
		}
		ctx := context.WithValue(r.Context(), actorKey, claims.Actor())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) webhookMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-Webhook-Key")
		if s.webhookKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.webhookKey)) != 1 {
			writeError(w, domain.NewUnauthorized("invalid webhook key"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func actorFrom(ctx context.Context) domain.Actor {
	if a, ok := ctx.Value(actorKey).(domain.Actor); ok {
		return a
	}
	return domain.Actor{}
}
