package domain

const (
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// Actor is the authenticated identity behind a transition request. Identity
// issuance belongs to the auth collaborator; only the claims are consumed.
type Actor struct {
	ID    int64    `json:"id"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles"`
}

// IsModerator reports whether the actor carries moderation capability.
// Admins moderate implicitly.
func (a Actor) IsModerator() bool {
	for _, r := range a.Roles {
		if r == RoleModerator || r == RoleAdmin {
			return true
		}
	}
	return false
}

// SystemActorID marks mutations originating from the payment collaborator
// rather than an administrative actor (donation capture, fee confirmation).
const SystemActorID int64 = 0
