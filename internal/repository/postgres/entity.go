package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fundlift-moderation-backend/internal/domain"
	"fundlift-moderation-backend/internal/repository"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// metaColumns is the shared column tail on every workflow entity table.
const metaColumns = "status, version, created_at, updated_at, rejection_reason, reapproval_count"

type entitySQL struct {
	table       string
	columns     string
	campaignCol string
	scan        func(rowScanner) (domain.Entity, error)
}

var entityTables = map[domain.EntityType]entitySQL{
	domain.EntityCampaign: {
		table:       "campaigns",
		columns:     "id, owner_id, title, goal_amount_cents, amount_raised_cents, bank_account_id, open_issue, " + metaColumns,
		campaignCol: "id",
		scan:        scanCampaign,
	},
	domain.EntityMilestone: {
		table:       "milestones",
		columns:     "id, campaign_id, title, budget_cents, " + metaColumns,
		campaignCol: "campaign_id",
		scan:        scanMilestone,
	},
	domain.EntityWithdrawal: {
		table:       "withdrawals",
		columns:     "id, campaign_id, amount_cents, requested_by, " + metaColumns,
		campaignCol: "campaign_id",
		scan:        scanWithdrawal,
	},
	domain.EntityDonorProject: {
		table:   "donor_projects",
		columns: "id, creator_id, title, " + metaColumns,
		scan:    scanDonorProject,
	},
	domain.EntityApplication: {
		table:   "applications",
		columns: "id, project_id, applicant_id, " + metaColumns,
		scan:    scanApplication,
	},
	domain.EntityStudentVerification: {
		table:   "student_verifications",
		columns: "id, student_id, payment_confirmed, " + metaColumns,
		scan:    scanStudentVerification,
	},
	domain.EntityClubReferral: {
		table:   "club_referrals",
		columns: "id, club_id, referrer_id, " + metaColumns,
		scan:    scanClubReferral,
	},
}

func (s *Store) Get(ctx context.Context, t domain.EntityType, id int64) (domain.Entity, error) {
	es, ok := entityTables[t]
	if !ok {
		return nil, domain.NewNotFound(t, id)
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", es.columns, es.table)
	e, err := es.scan(s.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound(t, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", t, id, err)
	}
	return e, nil
}

// CompareAndSwap writes the entity's mutable fields guarded by the version
// predicate. Zero rows updated means either the entity vanished or another
// actor won the race; the follow-up read disambiguates.
func (s *Store) CompareAndSwap(ctx context.Context, e domain.Entity, expectedVersion int32) error {
	meta := e.EntityMeta()
	var (
		query string
		args  []any
	)
	switch v := e.(type) {
	case *domain.Campaign:
		query = `UPDATE campaigns
		         SET status = $1, updated_at = $2, rejection_reason = $3, reapproval_count = $4,
		             amount_raised_cents = $5, open_issue = $6, version = version + 1
		         WHERE id = $7 AND version = $8`
		args = []any{meta.Status, meta.UpdatedAt, meta.RejectionReason, meta.ReapprovalCount,
			v.AmountRaisedCents, v.OpenIssue, meta.ID, expectedVersion}
	case *domain.StudentVerification:
		query = `UPDATE student_verifications
		         SET status = $1, updated_at = $2, rejection_reason = $3, reapproval_count = $4,
		             payment_confirmed = $5, version = version + 1
		         WHERE id = $6 AND version = $7`
		args = []any{meta.Status, meta.UpdatedAt, meta.RejectionReason, meta.ReapprovalCount,
			v.PaymentConfirmed, meta.ID, expectedVersion}
	default:
		es, ok := entityTables[e.Type()]
		if !ok {
			return domain.NewNotFound(e.Type(), meta.ID)
		}
		query = fmt.Sprintf(`UPDATE %s
		         SET status = $1, updated_at = $2, rejection_reason = $3, reapproval_count = $4,
		             version = version + 1
		         WHERE id = $5 AND version = $6`, es.table)
		args = []any{meta.Status, meta.UpdatedAt, meta.RejectionReason, meta.ReapprovalCount,
			meta.ID, expectedVersion}
	}

	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("compare-and-swap %s %d: %w", e.Type(), meta.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("compare-and-swap %s %d: %w", e.Type(), meta.ID, err)
	}
	if n == 0 {
		return s.casFailure(ctx, e.Type(), meta.ID)
	}
	meta.Version = expectedVersion + 1
	return nil
}

func (s *Store) casFailure(ctx context.Context, t domain.EntityType, id int64) error {
	es := entityTables[t]
	var v int32
	err := s.q.QueryRowContext(ctx,
		fmt.Sprintf("SELECT version FROM %s WHERE id = $1", es.table), id).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewNotFound(t, id)
	}
	if err != nil {
		return fmt.Errorf("compare-and-swap %s %d: %w", t, id, err)
	}
	return domain.NewConflict(t, id)
}

func (s *Store) List(ctx context.Context, f repository.Filter) ([]domain.Entity, int64, error) {
	if err := f.Normalize(); err != nil {
		return nil, 0, err
	}
	es := entityTables[f.EntityType]

	var (
		where []string
		args  []any
	)
	if f.Status != nil {
		args = append(args, *f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.CampaignID != nil && es.campaignCol != "" {
		args = append(args, *f.CampaignID)
		where = append(where, fmt.Sprintf("%s = $%d", es.campaignCol, len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", es.table, clause)
	if err := s.q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", f.EntityType, err)
	}

	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)
	pageQuery := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY id LIMIT $%d OFFSET $%d",
		es.columns, es.table, clause, len(args)-1, len(args))
	rows, err := s.q.QueryContext(ctx, pageQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", f.EntityType, err)
	}
	defer rows.Close()

	var out []domain.Entity
	for rows.Next() {
		e, err := es.scan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list %s: %w", f.EntityType, err)
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (s *Store) MilestonesByCampaign(ctx context.Context, campaignID int64) ([]domain.Milestone, error) {
	es := entityTables[domain.EntityMilestone]
	query := fmt.Sprintf("SELECT %s FROM %s WHERE campaign_id = $1 ORDER BY id", es.columns, es.table)
	rows, err := s.q.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("milestones for campaign %d: %w", campaignID, err)
	}
	defer rows.Close()

	var out []domain.Milestone
	for rows.Next() {
		e, err := es.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("milestones for campaign %d: %w", campaignID, err)
		}
		out = append(out, *e.(*domain.Milestone))
	}
	return out, rows.Err()
}

func (s *Store) WithdrawalsByCampaign(ctx context.Context, campaignID int64, status domain.Status) ([]domain.Withdrawal, error) {
	es := entityTables[domain.EntityWithdrawal]
	query := fmt.Sprintf("SELECT %s FROM %s WHERE campaign_id = $1", es.columns, es.table)
	args := []any{campaignID}
	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
	}
	query += " ORDER BY id"
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("withdrawals for campaign %d: %w", campaignID, err)
	}
	defer rows.Close()

	var out []domain.Withdrawal
	for rows.Next() {
		e, err := es.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("withdrawals for campaign %d: %w", campaignID, err)
		}
		out = append(out, *e.(*domain.Withdrawal))
	}
	return out, rows.Err()
}

func (s *Store) BankAccount(ctx context.Context, id int64) (*domain.BankAccount, error) {
	acct := &domain.BankAccount{}
	err := s.q.QueryRowContext(ctx,
		"SELECT id, status FROM bank_accounts WHERE id = $1", id).Scan(&acct.ID, &acct.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("bank account %d: %w", id, err)
	}
	return acct, nil
}

func scanMeta(m *domain.Meta) []any {
	return []any{&m.Status, &m.Version, &m.CreatedAt, &m.UpdatedAt, &m.RejectionReason, &m.ReapprovalCount}
}

func scanCampaign(r rowScanner) (domain.Entity, error) {
	c := &domain.Campaign{}
	var bankAccountID sql.NullInt64
	dest := append([]any{&c.ID, &c.OwnerID, &c.Title, &c.GoalAmountCents, &c.AmountRaisedCents,
		&bankAccountID, &c.OpenIssue}, scanMeta(&c.Meta)...)
	if err := r.Scan(dest...); err != nil {
		return nil, err
	}
	if bankAccountID.Valid {
		c.BankAccountID = &bankAccountID.Int64
	}
	return c, nil
}

func scanMilestone(r rowScanner) (domain.Entity, error) {
	m := &domain.Milestone{}
	dest := append([]any{&m.ID, &m.CampaignID, &m.Title, &m.BudgetCents}, scanMeta(&m.Meta)...)
	if err := r.Scan(dest...); err != nil {
		return nil, err
	}
	return m, nil
}

func scanWithdrawal(r rowScanner) (domain.Entity, error) {
	w := &domain.Withdrawal{}
	dest := append([]any{&w.ID, &w.CampaignID, &w.AmountCents, &w.RequestedBy}, scanMeta(&w.Meta)...)
	if err := r.Scan(dest...); err != nil {
		return nil, err
	}
	return w, nil
}

func scanDonorProject(r rowScanner) (domain.Entity, error) {
	p := &domain.DonorProject{}
	dest := append([]any{&p.ID, &p.CreatorID, &p.Title}, scanMeta(&p.Meta)...)
	if err := r.Scan(dest...); err != nil {
		return nil, err
	}
	return p, nil
}

func scanApplication(r rowScanner) (domain.Entity, error) {
	a := &domain.Application{}
	dest := append([]any{&a.ID, &a.ProjectID, &a.ApplicantID}, scanMeta(&a.Meta)...)
	if err := r.Scan(dest...); err != nil {
		return nil, err
	}
	return a, nil
}

func scanStudentVerification(r rowScanner) (domain.Entity, error) {
	v := &domain.StudentVerification{}
	dest := append([]any{&v.ID, &v.StudentID, &v.PaymentConfirmed}, scanMeta(&v.Meta)...)
	if err := r.Scan(dest...); err != nil {
		return nil, err
	}
	return v, nil
}

func scanClubReferral(r rowScanner) (domain.Entity, error) {
	c := &domain.ClubReferral{}
	dest := append([]any{&c.ID, &c.ClubID, &c.ReferrerID}, scanMeta(&c.Meta)...)
	if err := r.Scan(dest...); err != nil {
		return nil, err
	}
	return c, nil
}
