package jobs

import (
	"context"
	"fmt"
	"time"

	"fundlift-moderation-backend/internal/domain"
	"fundlift-moderation-backend/internal/logger"
	"fundlift-moderation-backend/internal/repository"
)

const scanPageSize int32 = 100

// ScanSLABreaches reports entities still awaiting a decision past the SLA
// window to the moderation inbox.
func (jr *JobRunner) ScanSLABreaches() {
	jr.runWithRecovery("ScanSLABreaches", func(ctx context.Context) {
		now := time.Now().UTC()
		slaWindow := jr.config.SLAWindow()
		freezeWindow := jr.config.FreezeWindow()

		var lines []string
		for _, t := range domain.EntityTypes {
			for _, status := range []domain.Status{domain.StatusPending, domain.StatusSubmitted} {
				entities, err := jr.listAll(ctx, t, status)
				if err != nil {
					logger.Error("SLA scan failed", "entity_type", t, "error", err)
					return
				}
				for _, e := range entities {
					c := domain.Classify(e.EntityMeta(), now, freezeWindow, slaWindow)
					if c.SLABreached {
						lines = append(lines, fmt.Sprintf("%s %d pending since %s",
							t, e.EntityMeta().ID, e.EntityMeta().CreatedAt.Format(time.RFC3339)))
					}
				}
			}
		}

		if len(lines) == 0 {
			logger.Info("SLA scan clean")
			return
		}
		subject := fmt.Sprintf("[moderation] %d entities past the decision SLA", len(lines))
		if err := jr.notifier.SendModerationDigest(ctx, subject, lines); err != nil {
			logger.Error("SLA digest delivery failed", "error", err)
		}
	})
}

// ScanFrozenCampaigns reports approved campaigns with no activity inside the
// freeze window.
func (jr *JobRunner) ScanFrozenCampaigns() {
	jr.runWithRecovery("ScanFrozenCampaigns", func(ctx context.Context) {
		now := time.Now().UTC()
		slaWindow := jr.config.SLAWindow()
		freezeWindow := jr.config.FreezeWindow()

		entities, err := jr.listAll(ctx, domain.EntityCampaign, domain.StatusApproved)
		if err != nil {
			logger.Error("freeze scan failed", "error", err)
			return
		}

		var lines []string
		for _, e := range entities {
			c := domain.Classify(e.EntityMeta(), now, freezeWindow, slaWindow)
			if c.Frozen {
				lines = append(lines, fmt.Sprintf("campaign %d inactive since %s",
					e.EntityMeta().ID, e.EntityMeta().UpdatedAt.Format(time.RFC3339)))
			}
		}

		if len(lines) == 0 {
			logger.Info("freeze scan clean")
			return
		}
		subject := fmt.Sprintf("[moderation] %d frozen campaigns", len(lines))
		if err := jr.notifier.SendModerationDigest(ctx, subject, lines); err != nil {
			logger.Error("freeze digest delivery failed", "error", err)
		}
	})
}

func (jr *JobRunner) listAll(ctx context.Context, t domain.EntityType, status domain.Status) ([]domain.Entity, error) {
	var out []domain.Entity
	for page := int32(1); ; page++ {
		entities, total, err := jr.store.List(ctx, repository.Filter{
			EntityType: t,
			Status:     &status,
			Page:       page,
			PageSize:   scanPageSize,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, entities...)
		if int64(len(out)) >= total || len(entities) == 0 {
			return out, nil
		}
	}
}
