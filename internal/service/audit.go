package service

import (
	"context"

	"fundlift-moderation-backend/internal/domain"
	"fundlift-moderation-backend/internal/repository"
)

type auditService struct {
	log repository.AuditLog
}

func NewAuditService(log repository.AuditLog) AuditService {
	return &auditService{log: log}
}

func (s *auditService) EntityActivity(ctx context.Context, t domain.EntityType, entityID int64, page, pageSize int32) ([]domain.AuditRecord, int64, error) {
	if !domain.ValidEntityType(t) {
		return nil, 0, domain.NewNotFound(t, entityID)
	}
	return s.log.QueryByEntity(ctx, t, entityID, page, pageSize)
}

func (s *auditService) ActorActivity(ctx context.Context, actorID int64, page, pageSize int32) ([]domain.AuditRecord, int64, error) {
	return s.log.QueryByActor(ctx, actorID, page, pageSize)
}
