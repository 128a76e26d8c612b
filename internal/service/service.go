package service

import (
	"context"

	"fundlift-moderation-backend/internal/domain"
	"fundlift-moderation-backend/internal/repository"
	"fundlift-moderation-backend/internal/workflow"
)

// EntityView is an entity snapshot decorated with the derived read-only
// classifications and, for campaigns, the computed payout headroom.
type EntityView struct {
	Entity                domain.Entity         `json:"entity"`
	Classification        domain.Classification `json:"classification"`
	AvailableBalanceCents *int64                `json:"available_balance_cents,omitempty"`
}

type ModerationService interface {
	// Transition applies one administrative state change; the returned
	// snapshot is the single source of truth for the caller's UI state.
	Transition(ctx context.Context, req workflow.Request) (domain.Entity, error)

	GetEntity(ctx context.Context, t domain.EntityType, id int64) (*EntityView, error)
	ListEntities(ctx context.Context, f repository.Filter) ([]EntityView, int64, error)
}

// PaymentCallbackService handles mutations originating from the payment
// collaborator rather than an administrative actor.
type PaymentCallbackService interface {
	ConfirmDonation(ctx context.Context, campaignID, amountCents int64) (*domain.Campaign, error)
	ConfirmVerificationPayment(ctx context.Context, verificationID int64) (*domain.StudentVerification, error)
}

type AuditService interface {
	EntityActivity(ctx context.Context, t domain.EntityType, entityID int64, page, pageSize int32) ([]domain.AuditRecord, int64, error)
	ActorActivity(ctx context.Context, actorID int64, page, pageSize int32) ([]domain.AuditRecord, int64, error)
}

type NotesService interface {
	AddNote(ctx context.Context, actor domain.Actor, t domain.EntityType, entityID int64, content string) (*domain.Note, error)
	ListNotes(ctx context.Context, t domain.EntityType, entityID int64) ([]domain.Note, error)
}
