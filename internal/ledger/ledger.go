// Package ledger holds the stateless cross-entity monetary checks. Every
// function is pure: it consumes snapshots and returns either nil or a typed
// violation, never touching storage.
package ledger

import (
	"fundlift-moderation-backend/internal/domain"
)

// MaxReapprovals caps how many times a rejected campaign or donor project
// may re-enter PENDING through resubmission.
const MaxReapprovals int32 = 3

// MilestoneBudgetFits checks that the candidate milestone's budget, together
// with every sibling budget already committed (SUBMITTED or APPROVED), stays
// within the campaign goal. Re-checked at both submission and approval so the
// invariant holds even when sibling budgets changed in between.
func MilestoneBudgetFits(campaign *domain.Campaign, siblings []domain.Milestone, candidate *domain.Milestone) *domain.WorkflowError {
	total := candidate.BudgetCents
	for _, m := range siblings {
		if m.ID == candidate.ID {
			continue
		}
		if m.Status == domain.StatusSubmitted || m.Status == domain.StatusApproved {
			total += m.BudgetCents
		}
	}
	if total > campaign.GoalAmountCents {
		return domain.NewInvariantViolation(domain.ViolationBudgetExceedsGoal,
			"committed milestone budgets %d exceed campaign goal %d", total, campaign.GoalAmountCents)
	}
	return nil
}

// WithdrawalWithinRaised checks that the requested amount plus every already
// approved withdrawal does not exceed what the campaign has raised. Raised
// funds are a historical total; approving a withdrawal never decrements them.
func WithdrawalWithinRaised(campaign *domain.Campaign, approved []domain.Withdrawal, requested *domain.Withdrawal) *domain.WorkflowError {
	total := requested.AmountCents
	for _, w := range approved {
		if w.ID == requested.ID {
			continue
		}
		if w.Status == domain.StatusApproved {
			total += w.AmountCents
		}
	}
	if total > campaign.AmountRaisedCents {
		return domain.NewInvariantViolation(domain.ViolationWithdrawalExceedsRaised,
			"combined approved withdrawals %d exceed amount raised %d", total, campaign.AmountRaisedCents)
	}
	return nil
}

// ReapprovalAllowed gates the REJECTED -> PENDING resubmission edge.
func ReapprovalAllowed(m *domain.Meta) *domain.WorkflowError {
	if m.ReapprovalCount >= MaxReapprovals {
		return domain.NewInvariantViolation(domain.ViolationReapprovalCeiling,
			"resubmission ceiling of %d reached", MaxReapprovals)
	}
	return nil
}

// BankAccountVerified requires a verified payout destination before any
// withdrawal approval, regardless of amount.
func BankAccountVerified(account *domain.BankAccount) *domain.WorkflowError {
	if account == nil || account.Status != domain.BankAccountStatusVerified {
		return domain.NewInvariantViolation(domain.ViolationBankAccountUnverified,
			"campaign bank account is not verified")
	}
	return nil
}

// AvailableBalance is the read-time payout headroom: raised minus approved
// withdrawals. Never stored.
func AvailableBalance(campaign *domain.Campaign, approved []domain.Withdrawal) int64 {
	balance := campaign.AmountRaisedCents
	for _, w := range approved {
		if w.Status == domain.StatusApproved {
			balance -= w.AmountCents
		}
	}
	return balance
}
