package domain

import "time"

// Transition actions as recorded in the audit trail.
const (
	ActionApprove           = "approve"
	ActionReject            = "reject"
	ActionAccept            = "accept"
	ActionVerify            = "verify"
	ActionSubmit            = "submit"
	ActionResubmit          = "resubmit"
	ActionDonationConfirmed = "donation.confirmed"
	ActionPaymentConfirmed  = "payment.confirmed"
)

// AuditRecord describes one successful state transition. Records are
// append-only and never mutated after creation.
type AuditRecord struct {
	ID            int64      `json:"id"`
	CorrelationID string     `json:"correlation_id,omitempty"`
	EntityType    EntityType `json:"entity_type"`
	EntityID      int64      `json:"entity_id"`
	ActorID       int64      `json:"actor_id"`
	Action        string     `json:"action"`
	BeforeStatus  Status     `json:"before_status"`
	AfterStatus   Status     `json:"after_status"`
	Reason        string     `json:"reason,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}

// Note is a threaded free-text annotation attached to an entity by an
// administrator. Independent of the workflow: no status, no transitions.
type Note struct {
	ID         int64      `json:"id"`
	EntityType EntityType `json:"entity_type"`
	EntityID   int64      `json:"entity_id"`
	AuthorID   int64      `json:"author_id"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"created_at"`
}
