package service

import (
	"context"
	"time"

	"fundlift-moderation-backend/internal/domain"
	"fundlift-moderation-backend/internal/ledger"
	"fundlift-moderation-backend/internal/logger"
	"fundlift-moderation-backend/internal/notify"
	"fundlift-moderation-backend/internal/repository"
	"fundlift-moderation-backend/internal/workflow"
)

type moderationService struct {
	engine       *workflow.Engine
	store        repository.Store
	notifier     notify.Notifier
	slaWindow    time.Duration
	freezeWindow time.Duration
}

func NewModerationService(engine *workflow.Engine, store repository.Store, notifier notify.Notifier, slaWindow, freezeWindow time.Duration) ModerationService {
	if slaWindow <= 0 {
		slaWindow = domain.DefaultSLAWindow
	}
	if freezeWindow <= 0 {
		freezeWindow = domain.DefaultFreezeWindow
	}
	return &moderationService{
		engine:       engine,
		store:        store,
		notifier:     notifier,
		slaWindow:    slaWindow,
		freezeWindow: freezeWindow,
	}
}

func (s *moderationService) Transition(ctx context.Context, req workflow.Request) (domain.Entity, error) {
	ent, err := s.engine.Transition(ctx, req)
	if err != nil {
		return nil, err
	}

	// Delivery is a collaborator concern: best-effort, after the transaction.
	if err := s.notifier.SendDecisionNotification(ctx, ent.Type(), ent.EntityMeta().ID, ent.EntityMeta().Status, req.Reason); err != nil {
		logger.Warn("decision notification failed",
			"entity_type", ent.Type(), "entity_id", ent.EntityMeta().ID, "error", err)
	}
	return ent, nil
}

func (s *moderationService) GetEntity(ctx context.Context, t domain.EntityType, id int64) (*EntityView, error) {
	ent, err := s.store.Get(ctx, t, id)
	if err != nil {
		return nil, err
	}
	view, err := s.decorate(ctx, ent)
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *moderationService) ListEntities(ctx context.Context, f repository.Filter) ([]EntityView, int64, error) {
	entities, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	views := make([]EntityView, 0, len(entities))
	for _, ent := range entities {
		view, err := s.decorate(ctx, ent)
		if err != nil {
			return nil, 0, err
		}
		views = append(views, *view)
	}
	return views, total, nil
}

func (s *moderationService) decorate(ctx context.Context, ent domain.Entity) (*EntityView, error) {
	view := &EntityView{
		Entity:         ent,
		Classification: domain.Classify(ent.EntityMeta(), time.Now().UTC(), s.freezeWindow, s.slaWindow),
	}
	if c, ok := ent.(*domain.Campaign); ok {
		approved, err := s.store.WithdrawalsByCampaign(ctx, c.ID, domain.StatusApproved)
		if err != nil {
			return nil, err
		}
		balance := ledger.AvailableBalance(c, approved)
		view.AvailableBalanceCents = &balance
	}
	return view, nil
}
