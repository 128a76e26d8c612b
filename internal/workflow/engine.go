package workflow

import (
	"context"
	"time"

	"fundlift-moderation-backend/internal/domain"
	"fundlift-moderation-backend/internal/logger"
	"fundlift-moderation-backend/internal/repository"

	"github.com/google/uuid"
)

// Engine orchestrates transitions: load, guard, compare-and-swap, audit.
// The CAS and the audit append run in one transaction so no mutation is ever
// visible without its record. A lost CAS race is retried once against the
// fresh snapshot, then surfaces as Conflict.
type Engine struct {
	store repository.Store
	guard *Guard
}

func NewEngine(store repository.Store) *Engine {
	return &Engine{store: store, guard: NewGuard()}
}

// Transition applies one administrative state change and returns the updated
// snapshot. Every business-rule failure comes back as a *domain.WorkflowError
// value with nothing written.
func (e *Engine) Transition(ctx context.Context, req Request) (domain.Entity, error) {
	if !domain.ValidEntityType(req.EntityType) {
		return nil, domain.NewNotFound(req.EntityType, req.EntityID)
	}

	for attempt := 0; ; attempt++ {
		ent, err := e.store.Get(ctx, req.EntityType, req.EntityID)
		if err != nil {
			return nil, err
		}

		gc, err := e.loadGuardContext(ctx, ent)
		if err != nil {
			return nil, err
		}

		plan, werr := e.guard.Evaluate(req, ent, gc)
		if werr != nil {
			return nil, werr
		}

		updated, err := e.apply(ctx, req.Actor.ID, ent, plan)
		if err != nil {
			if domain.IsKind(err, domain.ErrConflict) && attempt == 0 {
				logger.Debug("transition lost CAS race, re-evaluating",
					"entity_type", req.EntityType, "entity_id", req.EntityID)
				continue
			}
			return nil, err
		}
		return updated, nil
	}
}

// apply mutates the snapshot per the plan and persists it atomically with
// exactly one audit record.
func (e *Engine) apply(ctx context.Context, actorID int64, ent domain.Entity, plan *Plan) (domain.Entity, error) {
	now := time.Now().UTC()
	meta := ent.EntityMeta()
	expected := meta.Version

	meta.Status = plan.To
	meta.UpdatedAt = now
	if plan.To == domain.StatusRejected {
		meta.RejectionReason = plan.Reason
	}
	for _, eff := range plan.Effects {
		if eff == EffectIncrementReapproval {
			meta.ReapprovalCount++
			meta.RejectionReason = ""
		}
	}

	rec := &domain.AuditRecord{
		CorrelationID: uuid.NewString(),
		EntityType:    ent.Type(),
		EntityID:      meta.ID,
		ActorID:       actorID,
		Action:        plan.Action,
		BeforeStatus:  plan.From,
		AfterStatus:   plan.To,
		Reason:        plan.Reason,
		Timestamp:     now,
	}

	err := e.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.CompareAndSwap(ctx, ent, expected); err != nil {
			return err
		}
		for _, eff := range plan.Effects {
			if eff != EffectFlagCampaignIssue {
				continue
			}
			m, ok := ent.(*domain.Milestone)
			if !ok {
				continue
			}
			ce, err := tx.Get(ctx, domain.EntityCampaign, m.CampaignID)
			if err != nil {
				return err
			}
			c := ce.(*domain.Campaign)
			if c.OpenIssue {
				continue
			}
			v := c.Version
			c.OpenIssue = true
			c.UpdatedAt = now
			if err := tx.CompareAndSwap(ctx, c, v); err != nil {
				return err
			}
		}
		return tx.Append(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("transition applied",
		"entity_type", ent.Type(), "entity_id", meta.ID,
		"from", plan.From, "to", plan.To, "actor_id", actorID)
	return ent, nil
}

// ConfirmDonation credits a confirmed payment capture to the campaign's
// raised total. Triggered by the payment collaborator, so it bypasses the
// guard's role check, but it still goes through compare-and-swap and still
// writes an audit record. amountRaised only ever grows.
func (e *Engine) ConfirmDonation(ctx context.Context, campaignID, amountCents int64) (*domain.Campaign, error) {
	if amountCents <= 0 {
		return nil, domain.NewInvariantViolation(domain.ViolationNegativeAmount,
			"donation amount must be positive, got %d", amountCents)
	}

	for attempt := 0; ; attempt++ {
		ent, err := e.store.Get(ctx, domain.EntityCampaign, campaignID)
		if err != nil {
			return nil, err
		}
		c := ent.(*domain.Campaign)

		now := time.Now().UTC()
		expected := c.Version
		status := c.Status
		c.AmountRaisedCents += amountCents
		c.UpdatedAt = now

		rec := &domain.AuditRecord{
			CorrelationID: uuid.NewString(),
			EntityType:    domain.EntityCampaign,
			EntityID:      c.ID,
			ActorID:       domain.SystemActorID,
			Action:        domain.ActionDonationConfirmed,
			BeforeStatus:  status,
			AfterStatus:   status,
			Timestamp:     now,
		}

		err = e.store.InTx(ctx, func(tx repository.Store) error {
			if err := tx.CompareAndSwap(ctx, c, expected); err != nil {
				return err
			}
			return tx.Append(ctx, rec)
		})
		if err != nil {
			if domain.IsKind(err, domain.ErrConflict) && attempt == 0 {
				continue
			}
			return nil, err
		}

		logger.Info("donation confirmed", "campaign_id", c.ID, "amount_cents", amountCents)
		return c, nil
	}
}

// ConfirmVerificationPayment moves a student verification from
// PAYMENT_PENDING into PENDING once the payment collaborator reports the
// verification fee captured. Like ConfirmDonation this is a collaborator
// path, not an admin transition.
func (e *Engine) ConfirmVerificationPayment(ctx context.Context, verificationID int64) (*domain.StudentVerification, error) {
	for attempt := 0; ; attempt++ {
		ent, err := e.store.Get(ctx, domain.EntityStudentVerification, verificationID)
		if err != nil {
			return nil, err
		}
		v := ent.(*domain.StudentVerification)
		if v.Status != domain.StatusPaymentPending {
			return nil, domain.NewInvalidTransition(domain.EntityStudentVerification, v.Status, domain.StatusPending)
		}

		now := time.Now().UTC()
		expected := v.Version
		v.Status = domain.StatusPending
		v.PaymentConfirmed = true
		v.UpdatedAt = now

		rec := &domain.AuditRecord{
			CorrelationID: uuid.NewString(),
			EntityType:    domain.EntityStudentVerification,
			EntityID:      v.ID,
			ActorID:       domain.SystemActorID,
			Action:        domain.ActionPaymentConfirmed,
			BeforeStatus:  domain.StatusPaymentPending,
			AfterStatus:   domain.StatusPending,
			Timestamp:     now,
		}

		err = e.store.InTx(ctx, func(tx repository.Store) error {
			if err := tx.CompareAndSwap(ctx, v, expected); err != nil {
				return err
			}
			return tx.Append(ctx, rec)
		})
		if err != nil {
			if domain.IsKind(err, domain.ErrConflict) && attempt == 0 {
				continue
			}
			return nil, err
		}
		return v, nil
	}
}

// loadGuardContext gathers the related snapshots the guard needs for the
// entity being transitioned.
func (e *Engine) loadGuardContext(ctx context.Context, ent domain.Entity) (Context, error) {
	var gc Context
	switch v := ent.(type) {
	case *domain.Milestone:
		ce, err := e.store.Get(ctx, domain.EntityCampaign, v.CampaignID)
		if err != nil {
			return gc, err
		}
		gc.Campaign = ce.(*domain.Campaign)
		siblings, err := e.store.MilestonesByCampaign(ctx, v.CampaignID)
		if err != nil {
			return gc, err
		}
		gc.Milestones = siblings
	case *domain.Withdrawal:
		ce, err := e.store.Get(ctx, domain.EntityCampaign, v.CampaignID)
		if err != nil {
			return gc, err
		}
		gc.Campaign = ce.(*domain.Campaign)
		approved, err := e.store.WithdrawalsByCampaign(ctx, v.CampaignID, domain.StatusApproved)
		if err != nil {
			return gc, err
		}
		gc.ApprovedWithdrawals = approved
		if gc.Campaign.BankAccountID != nil {
			acct, err := e.store.BankAccount(ctx, *gc.Campaign.BankAccountID)
			if err != nil {
				return gc, err
			}
			gc.BankAccount = acct
		}
	case *domain.Application:
		pe, err := e.store.Get(ctx, domain.EntityDonorProject, v.ProjectID)
		if err != nil {
			return gc, err
		}
		gc.Project = pe.(*domain.DonorProject)
	}
	return gc, nil
}
