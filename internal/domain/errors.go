package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrNotFound           ErrorKind = "NOT_FOUND"
	ErrInvalidTransition  ErrorKind = "INVALID_TRANSITION"
	ErrMissingReason      ErrorKind = "MISSING_REASON"
	ErrInvariantViolation ErrorKind = "INVARIANT_VIOLATION"
	ErrUnauthorized       ErrorKind = "UNAUTHORIZED"
	ErrConflict           ErrorKind = "CONFLICT"
)

// ViolationKind identifies which monetary or count invariant was broken, so
// the caller can render a specific message.
type ViolationKind string

const (
	ViolationBudgetExceedsGoal       ViolationKind = "budget-exceeds-goal"
	ViolationWithdrawalExceedsRaised ViolationKind = "withdrawal-exceeds-raised"
	ViolationReapprovalCeiling       ViolationKind = "reapproval-ceiling"
	ViolationBankAccountUnverified   ViolationKind = "bank-account-unverified"
	ViolationPaymentUnconfirmed      ViolationKind = "payment-unconfirmed"
	ViolationCampaignNotApproved     ViolationKind = "campaign-not-approved"
	ViolationNegativeAmount          ViolationKind = "negative-amount"
)

// WorkflowError is the value form of every ordinary business-rule failure.
// The engine never panics or aborts for these; they flow back to the caller.
type WorkflowError struct {
	Kind      ErrorKind     `json:"kind"`
	Violation ViolationKind `json:"violation,omitempty"`
	Message   string        `json:"message"`
}

func (e *WorkflowError) Error() string {
	if e.Violation != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Violation, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewNotFound(t EntityType, id int64) *WorkflowError {
	return &WorkflowError{Kind: ErrNotFound, Message: fmt.Sprintf("%s %d not found", t, id)}
}

func NewInvalidTransition(t EntityType, from, to Status) *WorkflowError {
	return &WorkflowError{Kind: ErrInvalidTransition, Message: fmt.Sprintf("%s cannot move from %s to %s", t, from, to)}
}

func NewMissingReason(t EntityType) *WorkflowError {
	return &WorkflowError{Kind: ErrMissingReason, Message: fmt.Sprintf("rejecting a %s requires a non-empty reason", t)}
}

func NewInvariantViolation(v ViolationKind, format string, args ...any) *WorkflowError {
	return &WorkflowError{Kind: ErrInvariantViolation, Violation: v, Message: fmt.Sprintf(format, args...)}
}

func NewUnauthorized(message string) *WorkflowError {
	return &WorkflowError{Kind: ErrUnauthorized, Message: message}
}

func NewConflict(t EntityType, id int64) *WorkflowError {
	return &WorkflowError{Kind: ErrConflict, Message: fmt.Sprintf("%s %d was modified concurrently, refetch and resubmit", t, id)}
}

// AsWorkflowError unwraps err into a WorkflowError if one is in the chain.
func AsWorkflowError(err error) (*WorkflowError, bool) {
	var we *WorkflowError
	if errors.As(err, &we) {
		return we, true
	}
	return nil, false
}

// IsKind reports whether err is a WorkflowError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	we, ok := AsWorkflowError(err)
	return ok && we.Kind == kind
}
