package domain

import "time"

// Default windows for the derived read-only classifications. These are
// labels computed at read time, never stored and never part of the state
// machine.
const (
	DefaultFreezeWindow = 30 * 24 * time.Hour
	DefaultSLAWindow    = 7 * 24 * time.Hour
)

type Classification struct {
	Frozen      bool `json:"frozen"`
	SLABreached bool `json:"sla_breached"`
}

// Classify derives the read-only labels for an entity at the given instant.
// Frozen: no activity for at least freezeWindow. SLABreached: still awaiting
// a decision for longer than slaWindow.
func Classify(m *Meta, now time.Time, freezeWindow, slaWindow time.Duration) Classification {
	var c Classification
	if now.Sub(m.UpdatedAt) >= freezeWindow {
		c.Frozen = true
	}
	if awaitingDecision(m.Status) && now.Sub(m.CreatedAt) > slaWindow {
		c.SLABreached = true
	}
	return c
}

func awaitingDecision(s Status) bool {
	return s == StatusPending || s == StatusSubmitted
}
