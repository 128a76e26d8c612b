package domain

import "time"

type EntityType string

const (
	EntityCampaign            EntityType = "campaign"
	EntityMilestone           EntityType = "milestone"
	EntityWithdrawal          EntityType = "withdrawal"
	EntityDonorProject        EntityType = "donor_project"
	EntityApplication         EntityType = "application"
	EntityStudentVerification EntityType = "student_verification"
	EntityClubReferral        EntityType = "club_referral"
)

// EntityTypes lists every workflow-bearing entity type, in table order.
var EntityTypes = []EntityType{
	EntityCampaign,
	EntityMilestone,
	EntityWithdrawal,
	EntityDonorProject,
	EntityApplication,
	EntityStudentVerification,
	EntityClubReferral,
}

func ValidEntityType(t EntityType) bool {
	for _, et := range EntityTypes {
		if et == t {
			return true
		}
	}
	return false
}

type Status string

const (
	StatusPaymentPending Status = "PAYMENT_PENDING"
	StatusPending        Status = "PENDING"
	StatusSubmitted      Status = "SUBMITTED"
	StatusApproved       Status = "APPROVED"
	StatusRejected       Status = "REJECTED"
	StatusAccepted       Status = "ACCEPTED"
	StatusVerified       Status = "VERIFIED"
)

// Meta carries the fields shared by every workflow entity. Version is the
// compare-and-swap token: every successful mutation increments it.
type Meta struct {
	ID              int64     `json:"id"`
	Status          Status    `json:"status"`
	Version         int32     `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	ReapprovalCount int32     `json:"reapproval_count,omitempty"`
}

// Entity is the tagged-variant view over the workflow entities: each concrete
// type carries its own fixed field set, the engine only needs the shared meta.
type Entity interface {
	Type() EntityType
	EntityMeta() *Meta
}

type Campaign struct {
	Meta
	OwnerID           int64  `json:"owner_id"`
	Title             string `json:"title"`
	GoalAmountCents   int64  `json:"goal_amount_cents"`
	AmountRaisedCents int64  `json:"amount_raised_cents"`
	BankAccountID     *int64 `json:"bank_account_id,omitempty"`
	OpenIssue         bool   `json:"open_issue"`
}

func (c *Campaign) Type() EntityType { return EntityCampaign }
func (c *Campaign) EntityMeta() *Meta { return &c.Meta }

type Milestone struct {
	Meta
	CampaignID  int64  `json:"campaign_id"`
	Title       string `json:"title"`
	BudgetCents int64  `json:"budget_cents"`
}

func (m *Milestone) Type() EntityType { return EntityMilestone }
func (m *Milestone) EntityMeta() *Meta { return &m.Meta }

type Withdrawal struct {
	Meta
	CampaignID  int64 `json:"campaign_id"`
	AmountCents int64 `json:"amount_cents"`
	RequestedBy int64 `json:"requested_by"`
}

func (w *Withdrawal) Type() EntityType { return EntityWithdrawal }
func (w *Withdrawal) EntityMeta() *Meta { return &w.Meta }

type DonorProject struct {
	Meta
	CreatorID int64  `json:"creator_id"`
	Title     string `json:"title"`
}

func (p *DonorProject) Type() EntityType { return EntityDonorProject }
func (p *DonorProject) EntityMeta() *Meta { return &p.Meta }

type Application struct {
	Meta
	ProjectID   int64 `json:"project_id"`
	ApplicantID int64 `json:"applicant_id"`
}

func (a *Application) Type() EntityType { return EntityApplication }
func (a *Application) EntityMeta() *Meta { return &a.Meta }

type StudentVerification struct {
	Meta
	StudentID        int64 `json:"student_id"`
	PaymentConfirmed bool  `json:"payment_confirmed"`
}

func (v *StudentVerification) Type() EntityType { return EntityStudentVerification }
func (v *StudentVerification) EntityMeta() *Meta { return &v.Meta }

type ClubReferral struct {
	Meta
	ClubID     int64 `json:"club_id"`
	ReferrerID int64 `json:"referrer_id"`
}

func (r *ClubReferral) Type() EntityType { return EntityClubReferral }
func (r *ClubReferral) EntityMeta() *Meta { return &r.Meta }

// BankAccount is owned by the payments collaborator; only the verification
// flag is consumed here.
type BankAccountStatus string

const (
	BankAccountStatusUnverified BankAccountStatus = "UNVERIFIED"
	BankAccountStatusVerified   BankAccountStatus = "VERIFIED"
)

type BankAccount struct {
	ID     int64             `json:"id"`
	Status BankAccountStatus `json:"status"`
}
