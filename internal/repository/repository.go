package repository

import (
	"context"

	"fundlift-moderation-backend/internal/domain"
)

// Filter is the enumerated list query shape. Free-text status filters from
// callers are rejected before reaching the store layer.
type Filter struct {
	EntityType domain.EntityType
	Status     *domain.Status
	CampaignID *int64
	Page       int32
	PageSize   int32
}

const (
	DefaultPageSize int32 = 20
	MaxPageSize     int32 = 100
)

// Normalize validates the filter and fills paging defaults.
func (f *Filter) Normalize() error {
	if !domain.ValidEntityType(f.EntityType) {
		return domain.NewNotFound(f.EntityType, 0)
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	return nil
}

// EntityStore is pure data access for workflow entities. No business rules:
// validation lives in the guard, orchestration in the engine.
type EntityStore interface {
	// Get returns the current snapshot, or a NotFound workflow error.
	Get(ctx context.Context, t domain.EntityType, id int64) (domain.Entity, error)

	// CompareAndSwap persists the entity only if the stored version still
	// equals expectedVersion, then bumps the version. A lost race returns a
	// Conflict workflow error and writes nothing.
	CompareAndSwap(ctx context.Context, e domain.Entity, expectedVersion int32) error

	List(ctx context.Context, f Filter) ([]domain.Entity, int64, error)

	// MilestonesByCampaign returns every milestone owned by the campaign,
	// regardless of status.
	MilestonesByCampaign(ctx context.Context, campaignID int64) ([]domain.Milestone, error)

	// WithdrawalsByCampaign returns withdrawals for the campaign filtered by
	// status (empty status means all).
	WithdrawalsByCampaign(ctx context.Context, campaignID int64, status domain.Status) ([]domain.Withdrawal, error)

	// BankAccount reads the collaborator-owned payout account; only the
	// verification flag is consumed.
	BankAccount(ctx context.Context, id int64) (*domain.BankAccount, error)
}

// AuditLog is the append-only record of successful transitions.
type AuditLog interface {
	Append(ctx context.Context, rec *domain.AuditRecord) error
	QueryByEntity(ctx context.Context, t domain.EntityType, entityID int64, page, pageSize int32) ([]domain.AuditRecord, int64, error)
	QueryByActor(ctx context.Context, actorID int64, page, pageSize int32) ([]domain.AuditRecord, int64, error)
}

// NotesStore is the independent annotation log, outside the state machine.
type NotesStore interface {
	AddNote(ctx context.Context, n *domain.Note) error
	ListNotes(ctx context.Context, t domain.EntityType, entityID int64) ([]domain.Note, error)
}

// Store bundles the three stores plus transactional execution. InTx runs fn
// against a store view bound to a single transaction, so the engine can make
// the compare-and-swap and the audit append atomic.
type Store interface {
	EntityStore
	AuditLog
	NotesStore

	InTx(ctx context.Context, fn func(tx Store) error) error
}
