package postgres

import (
	"context"
	"fmt"

	"fundlift-moderation-backend/internal/domain"
	"fundlift-moderation-backend/internal/repository"
)

const auditColumns = "id, correlation_id, entity_type, entity_id, actor_id, action, before_status, after_status, reason, ts"

func (s *Store) Append(ctx context.Context, rec *domain.AuditRecord) error {
	query := `INSERT INTO audit_records (correlation_id, entity_type, entity_id, actor_id, action, before_status, after_status, reason, ts)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := s.q.QueryRowContext(ctx, query,
		rec.CorrelationID, rec.EntityType, rec.EntityID, rec.ActorID, rec.Action,
		rec.BeforeStatus, rec.AfterStatus, rec.Reason, rec.Timestamp).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

func (s *Store) QueryByEntity(ctx context.Context, t domain.EntityType, entityID int64, page, pageSize int32) ([]domain.AuditRecord, int64, error) {
	return s.queryAudit(ctx, "entity_type = $1 AND entity_id = $2", []any{t, entityID}, page, pageSize)
}

func (s *Store) QueryByActor(ctx context.Context, actorID int64, page, pageSize int32) ([]domain.AuditRecord, int64, error) {
	return s.queryAudit(ctx, "actor_id = $1", []any{actorID}, page, pageSize)
}

func (s *Store) queryAudit(ctx context.Context, where string, args []any, page, pageSize int32) ([]domain.AuditRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = repository.DefaultPageSize
	}
	if pageSize > repository.MaxPageSize {
		pageSize = repository.MaxPageSize
	}

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM audit_records WHERE %s", where)
	if err := s.q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit records: %w", err)
	}

	args = append(args, pageSize, (page-1)*pageSize)
	query := fmt.Sprintf(`SELECT %s FROM audit_records WHERE %s
	          ORDER BY ts DESC, id DESC LIMIT $%d OFFSET $%d`,
		auditColumns, where, len(args)-1, len(args))
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditRecord
	for rows.Next() {
		var rec domain.AuditRecord
		if err := rows.Scan(&rec.ID, &rec.CorrelationID, &rec.EntityType, &rec.EntityID,
			&rec.ActorID, &rec.Action, &rec.BeforeStatus, &rec.AfterStatus, &rec.Reason,
			&rec.Timestamp); err != nil {
			return nil, 0, fmt.Errorf("scan audit record: %w", err)
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}
