package workflow

import (
	"strings"

	"fundlift-moderation-backend/internal/domain"
	"fundlift-moderation-backend/internal/ledger"
)

// Request is the uniform transition request shape consumed from the API
// layer, regardless of which admin screen produced it.
type Request struct {
	EntityType      domain.EntityType `json:"entity_type"`
	EntityID        int64             `json:"entity_id"`
	RequestedStatus domain.Status     `json:"requested_status"`
	Reason          string            `json:"reason,omitempty"`
	Actor           domain.Actor      `json:"-"`
}

// SideEffect is a derived instruction the engine executes inside the same
// transaction as the transition itself.
type SideEffect string

const (
	// EffectIncrementReapproval counts a REJECTED -> PENDING resubmission
	// against the ceiling and clears the stale rejection reason.
	EffectIncrementReapproval SideEffect = "increment-reapproval"

	// EffectFlagCampaignIssue marks the owning campaign as having an open
	// issue after a milestone rejection. The campaign status itself is
	// unaffected.
	EffectFlagCampaignIssue SideEffect = "flag-campaign-issue"
)

// Plan is an approved transition: the new status, coupled side effects, and
// the audit payload the engine must write.
type Plan struct {
	From    domain.Status
	To      domain.Status
	Action  string
	Reason  string
	Effects []SideEffect
}

// Context carries the related snapshots the guard consults for cross-entity
// invariants. The engine assembles it; the guard stays free of I/O.
type Context struct {
	Campaign            *domain.Campaign
	Milestones          []domain.Milestone
	ApprovedWithdrawals []domain.Withdrawal
	BankAccount         *domain.BankAccount
	Project             *domain.DonorProject
}

// transitions is the per-entity state table. A (current, requested) pair
// absent here fails with InvalidTransition before any other check runs.
var transitions = map[domain.EntityType]map[domain.Status][]domain.Status{
	domain.EntityCampaign: {
		domain.StatusPending:  {domain.StatusApproved, domain.StatusRejected},
		domain.StatusRejected: {domain.StatusPending}, // bounded resubmission
	},
	domain.EntityMilestone: {
		domain.StatusPending:   {domain.StatusSubmitted},
		domain.StatusSubmitted: {domain.StatusApproved, domain.StatusRejected},
	},
	domain.EntityWithdrawal: {
		domain.StatusPending: {domain.StatusApproved, domain.StatusRejected},
	},
	domain.EntityDonorProject: {
		domain.StatusPending:  {domain.StatusApproved, domain.StatusRejected},
		domain.StatusRejected: {domain.StatusPending},
	},
	domain.EntityApplication: {
		domain.StatusPending: {domain.StatusAccepted, domain.StatusRejected},
	},
	domain.EntityStudentVerification: {
		// PAYMENT_PENDING -> PENDING happens only through the payment
		// collaborator path, never through an admin transition request.
		domain.StatusPending: {domain.StatusVerified, domain.StatusRejected},
	},
	domain.EntityClubReferral: {
		domain.StatusPending: {domain.StatusApproved, domain.StatusRejected},
	},
}

// Guard validates a proposed state change against the state table, the
// actor's role, and the ledger invariants, producing either a transition
// plan or a typed rejection. Stateless.
type Guard struct{}

func NewGuard() *Guard {
	return &Guard{}
}

// Evaluate runs the checks in fixed order: table, mandatory reason, role,
// invariants. The first failure wins; nothing is mutated.
func (g *Guard) Evaluate(req Request, e domain.Entity, gc Context) (*Plan, *domain.WorkflowError) {
	meta := e.EntityMeta()
	from := meta.Status
	to := req.RequestedStatus

	if !allowed(e.Type(), from, to) {
		return nil, domain.NewInvalidTransition(e.Type(), from, to)
	}

	reason := strings.TrimSpace(req.Reason)
	if to == domain.StatusRejected && reason == "" {
		return nil, domain.NewMissingReason(e.Type())
	}

	if werr := g.checkRole(req, e, gc, to); werr != nil {
		return nil, werr
	}

	if werr := g.checkInvariants(e, gc, to); werr != nil {
		return nil, werr
	}

	return &Plan{
		From:    from,
		To:      to,
		Action:  actionFor(from, to),
		Reason:  reason,
		Effects: effectsFor(e.Type(), to),
	}, nil
}

func allowed(t domain.EntityType, from, to domain.Status) bool {
	table, ok := transitions[t]
	if !ok {
		return false
	}
	for _, s := range table[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (g *Guard) checkRole(req Request, e domain.Entity, gc Context, to domain.Status) *domain.WorkflowError {
	if req.Actor.IsModerator() {
		return nil
	}
	// Application acceptance additionally permits the owning donor project's
	// creator.
	if e.Type() == domain.EntityApplication && to == domain.StatusAccepted {
		if gc.Project != nil && gc.Project.CreatorID == req.Actor.ID {
			return nil
		}
	}
	return domain.NewUnauthorized("actor lacks moderation capability")
}

func (g *Guard) checkInvariants(e domain.Entity, gc Context, to domain.Status) *domain.WorkflowError {
	switch ent := e.(type) {
	case *domain.Campaign:
		if to == domain.StatusPending {
			return ledger.ReapprovalAllowed(ent.EntityMeta())
		}
	case *domain.DonorProject:
		if to == domain.StatusPending {
			return ledger.ReapprovalAllowed(ent.EntityMeta())
		}
	case *domain.Milestone:
		if to == domain.StatusSubmitted || to == domain.StatusApproved {
			if gc.Campaign == nil {
				return domain.NewNotFound(domain.EntityCampaign, ent.CampaignID)
			}
			if to == domain.StatusSubmitted && gc.Campaign.Status != domain.StatusApproved {
				return domain.NewInvariantViolation(domain.ViolationCampaignNotApproved,
					"milestones may be submitted only once campaign %d is approved", ent.CampaignID)
			}
			// Budget is re-validated at approval as well, so the sum stays
			// within the goal even after sibling budgets changed.
			return ledger.MilestoneBudgetFits(gc.Campaign, gc.Milestones, ent)
		}
	case *domain.Withdrawal:
		if to == domain.StatusApproved {
			if gc.Campaign == nil {
				return domain.NewNotFound(domain.EntityCampaign, ent.CampaignID)
			}
			if werr := ledger.BankAccountVerified(gc.BankAccount); werr != nil {
				return werr
			}
			return ledger.WithdrawalWithinRaised(gc.Campaign, gc.ApprovedWithdrawals, ent)
		}
	case *domain.StudentVerification:
		if to == domain.StatusVerified && !ent.PaymentConfirmed {
			return domain.NewInvariantViolation(domain.ViolationPaymentUnconfirmed,
				"verification payment has not been confirmed")
		}
	}
	return nil
}

func actionFor(from, to domain.Status) string {
	switch to {
	case domain.StatusApproved:
		return domain.ActionApprove
	case domain.StatusRejected:
		return domain.ActionReject
	case domain.StatusAccepted:
		return domain.ActionAccept
	case domain.StatusVerified:
		return domain.ActionVerify
	case domain.StatusSubmitted:
		return domain.ActionSubmit
	case domain.StatusPending:
		if from == domain.StatusRejected {
			return domain.ActionResubmit
		}
	}
	return string(to)
}

func effectsFor(t domain.EntityType, to domain.Status) []SideEffect {
	switch {
	case to == domain.StatusPending && (t == domain.EntityCampaign || t == domain.EntityDonorProject):
		return []SideEffect{EffectIncrementReapproval}
	case to == domain.StatusRejected && t == domain.EntityMilestone:
		return []SideEffect{EffectFlagCampaignIssue}
	}
	return nil
}
