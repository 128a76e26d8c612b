package domain_test

import (
	"testing"
	"time"

	"fundlift-moderation-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		status  domain.Status
		created time.Duration
		updated time.Duration
		want    domain.Classification
	}{
		{
			name:    "FreshPending",
			status:  domain.StatusPending,
			created: 2 * 24 * time.Hour,
			updated: 24 * time.Hour,
			want:    domain.Classification{},
		},
		{
			name:    "PendingPastSLA",
			status:  domain.StatusPending,
			created: 8 * 24 * time.Hour,
			updated: 24 * time.Hour,
			want:    domain.Classification{SLABreached: true},
		},
		{
			name:    "SubmittedPastSLA",
			status:  domain.StatusSubmitted,
			created: 10 * 24 * time.Hour,
			updated: 24 * time.Hour,
			want:    domain.Classification{SLABreached: true},
		},
		{
			name:    "ApprovedNeverBreachesSLA",
			status:  domain.StatusApproved,
			created: 90 * 24 * time.Hour,
			updated: 24 * time.Hour,
			want:    domain.Classification{},
		},
		{
			name:    "InactiveApprovedIsFrozen",
			status:  domain.StatusApproved,
			created: 90 * 24 * time.Hour,
			updated: 31 * 24 * time.Hour,
			want:    domain.Classification{Frozen: true},
		},
		{
			name:    "StalePendingIsBoth",
			status:  domain.StatusPending,
			created: 45 * 24 * time.Hour,
			updated: 30 * 24 * time.Hour,
			want:    domain.Classification{Frozen: true, SLABreached: true},
		},
		{
			name:    "ExactlySLAWindowIsNotBreached",
			status:  domain.StatusPending,
			created: domain.DefaultSLAWindow,
			updated: time.Hour,
			want:    domain.Classification{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &domain.Meta{
				Status:    tt.status,
				CreatedAt: now.Add(-tt.created),
				UpdatedAt: now.Add(-tt.updated),
			}
			got := domain.Classify(m, now, domain.DefaultFreezeWindow, domain.DefaultSLAWindow)
			assert.Equal(t, tt.want, got)
		})
	}
}
