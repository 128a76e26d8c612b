package postgres

import (
	"context"
	"fmt"
	"time"

	"fundlift-moderation-backend/internal/domain"
)

func (s *Store) AddNote(ctx context.Context, n *domain.Note) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO notes (entity_type, entity_id, author_id, content, created_at)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := s.q.QueryRowContext(ctx, query,
		n.EntityType, n.EntityID, n.AuthorID, n.Content, n.CreatedAt).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("add note: %w", err)
	}
	return nil
}

func (s *Store) ListNotes(ctx context.Context, t domain.EntityType, entityID int64) ([]domain.Note, error) {
	query := `SELECT id, entity_type, entity_id, author_id, content, created_at
	          FROM notes WHERE entity_type = $1 AND entity_id = $2
	          ORDER BY created_at DESC, id DESC`
	rows, err := s.q.QueryContext(ctx, query, t, entityID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var out []domain.Note
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.ID, &n.EntityType, &n.EntityID, &n.AuthorID, &n.Content, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
