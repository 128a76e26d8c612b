package service

import (
	"context"
	"strings"
	"time"

	"fundlift-moderation-backend/internal/domain"
	"fundlift-moderation-backend/internal/repository"
)

type notesService struct {
	store repository.Store
}

func NewNotesService(store repository.Store) NotesService {
	return &notesService{store: store}
}

func (s *notesService) AddNote(ctx context.Context, actor domain.Actor, t domain.EntityType, entityID int64, content string) (*domain.Note, error) {
	if !actor.IsModerator() {
		return nil, domain.NewUnauthorized("actor lacks moderation capability")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &domain.WorkflowError{Kind: domain.ErrMissingReason, Message: "note content must not be empty"}
	}
	// The target must exist, but notes attach regardless of its state.
	if _, err := s.store.Get(ctx, t, entityID); err != nil {
		return nil, err
	}
	n := &domain.Note{
		EntityType: t,
		EntityID:   entityID,
		AuthorID:   actor.ID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.AddNote(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *notesService) ListNotes(ctx context.Context, t domain.EntityType, entityID int64) ([]domain.Note, error) {
	if !domain.ValidEntityType(t) {
		return nil, domain.NewNotFound(t, entityID)
	}
	return s.store.ListNotes(ctx, t, entityID)
}
