package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundlift-moderation-backend/internal/domain"
	"fundlift-moderation-backend/internal/repository"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func campaignColumns() []string {
	return []string{"id", "owner_id", "title", "goal_amount_cents", "amount_raised_cents",
		"bank_account_id", "open_issue",
		"status", "version", "created_at", "updated_at", "rejection_reason", "reapproval_count"}
}

func campaignRow(id int64, status domain.Status, version int32) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(campaignColumns()).
		AddRow(id, int64(100), "School lab", int64(50000), int64(0), nil, false,
			string(status), version, now, now, "", int32(0))
}

func TestStore_Get(t *testing.T) {
	t.Run("Campaign", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT (.+) FROM campaigns WHERE id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(campaignRow(1, domain.StatusPending, 0))

		ent, err := store.Get(context.Background(), domain.EntityCampaign, 1)
		require.NoError(t, err)
		c := ent.(*domain.Campaign)
		assert.Equal(t, domain.StatusPending, c.Status)
		assert.Nil(t, c.BankAccountID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT (.+) FROM campaigns WHERE id = \$1`).
			WithArgs(int64(42)).
			WillReturnError(sql.ErrNoRows)

		_, err := store.Get(context.Background(), domain.EntityCampaign, 42)
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("UnknownEntityType", func(t *testing.T) {
		store, _ := newMockStore(t)
		_, err := store.Get(context.Background(), "unicorn", 1)
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.ErrNotFound))
	})
}

func TestStore_CompareAndSwap(t *testing.T) {
	now := time.Now().UTC()
	campaign := func(version int32) *domain.Campaign {
		return &domain.Campaign{
			Meta: domain.Meta{ID: 1, Status: domain.StatusApproved, Version: version, UpdatedAt: now},
		}
	}

	t.Run("Success", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`UPDATE campaigns`).
			WithArgs(string(domain.StatusApproved), now, "", int32(0),
				int64(0), false, int64(1), int32(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		c := campaign(3)
		require.NoError(t, store.CompareAndSwap(context.Background(), c, 3))
		assert.Equal(t, int32(4), c.Version, "version follows the row")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("StaleVersionConflicts", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`UPDATE campaigns`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT version FROM campaigns WHERE id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int32(5)))

		err := store.CompareAndSwap(context.Background(), campaign(3), 3)
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.ErrConflict))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("VanishedRowIsNotFound", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`UPDATE campaigns`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT version FROM campaigns WHERE id = \$1`).
			WithArgs(int64(1)).
			WillReturnError(sql.ErrNoRows)

		err := store.CompareAndSwap(context.Background(), campaign(3), 3)
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("StudentVerificationCarriesPaymentFlag", func(t *testing.T) {
		store, mock := newMockStore(t)
		v := &domain.StudentVerification{
			Meta:             domain.Meta{ID: 7, Status: domain.StatusPending, UpdatedAt: now},
			PaymentConfirmed: true,
		}
		mock.ExpectExec(`UPDATE student_verifications`).
			WithArgs(string(domain.StatusPending), now, "", int32(0), true, int64(7), int32(0)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, store.CompareAndSwap(context.Background(), v, 0))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_List(t *testing.T) {
	store, mock := newMockStore(t)
	pending := domain.StatusPending

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM campaigns WHERE status = \$1`).
		WithArgs(string(pending)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT (.+) FROM campaigns WHERE status = \$1 ORDER BY id LIMIT \$2 OFFSET \$3`).
		WithArgs(string(pending), int32(20), int32(0)).
		WillReturnRows(campaignRow(1, domain.StatusPending, 0))

	out, total, err := store.List(context.Background(), repository.Filter{
		EntityType: domain.EntityCampaign,
		Status:     &pending,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, out, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_BankAccount(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT id, status FROM bank_accounts WHERE id = \$1`).
			WithArgs(int64(77)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).
				AddRow(int64(77), string(domain.BankAccountStatusVerified)))

		acct, err := store.BankAccount(context.Background(), 77)
		require.NoError(t, err)
		require.NotNil(t, acct)
		assert.Equal(t, domain.BankAccountStatusVerified, acct.Status)
	})

	t.Run("MissingIsNilNotError", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT id, status FROM bank_accounts WHERE id = \$1`).
			WithArgs(int64(99)).
			WillReturnError(sql.ErrNoRows)

		acct, err := store.BankAccount(context.Background(), 99)
		require.NoError(t, err)
		assert.Nil(t, acct)
	})
}

func TestStore_AppendAuditRecord(t *testing.T) {
	store, mock := newMockStore(t)
	rec := &domain.AuditRecord{
		CorrelationID: "c0ffee",
		EntityType:    domain.EntityCampaign,
		EntityID:      1,
		ActorID:       9,
		Action:        domain.ActionApprove,
		BeforeStatus:  domain.StatusPending,
		AfterStatus:   domain.StatusApproved,
		Timestamp:     time.Now().UTC(),
	}
	mock.ExpectQuery(`INSERT INTO audit_records`).
		WithArgs(rec.CorrelationID, string(rec.EntityType), rec.EntityID, rec.ActorID,
			rec.Action, string(rec.BeforeStatus), string(rec.AfterStatus), rec.Reason, rec.Timestamp).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	require.NoError(t, store.Append(context.Background(), rec))
	assert.EqualValues(t, 11, rec.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_QueryByEntity(t *testing.T) {
	store, mock := newMockStore(t)
	ts := time.Now().UTC()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM audit_records WHERE entity_type = \$1 AND entity_id = \$2`).
		WithArgs(string(domain.EntityCampaign), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectQuery(`SELECT (.+) FROM audit_records WHERE entity_type = \$1 AND entity_id = \$2`).
		WithArgs(string(domain.EntityCampaign), int64(1), int32(20), int32(0)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "correlation_id", "entity_type", "entity_id",
			"actor_id", "action", "before_status", "after_status", "reason", "ts"}).
			AddRow(int64(2), "b", "campaign", int64(1), int64(9), "reject", "PENDING", "REJECTED", "spam", ts).
			AddRow(int64(1), "a", "campaign", int64(1), int64(9), "approve", "PENDING", "APPROVED", "", ts.Add(-time.Minute)))

	recs, total, err := store.QueryByEntity(context.Background(), domain.EntityCampaign, 1, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, recs, 2)
	assert.Equal(t, domain.ActionReject, recs[0].Action)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Notes(t *testing.T) {
	t.Run("Add", func(t *testing.T) {
		store, mock := newMockStore(t)
		n := &domain.Note{
			EntityType: domain.EntityCampaign,
			EntityID:   1,
			AuthorID:   9,
			Content:    "flagged for second review",
			CreatedAt:  time.Now().UTC(),
		}
		mock.ExpectQuery(`INSERT INTO notes`).
			WithArgs(string(n.EntityType), n.EntityID, n.AuthorID, n.Content, n.CreatedAt).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

		require.NoError(t, store.AddNote(context.Background(), n))
		assert.EqualValues(t, 3, n.ID)
	})

	t.Run("List", func(t *testing.T) {
		store, mock := newMockStore(t)
		ts := time.Now().UTC()
		mock.ExpectQuery(`SELECT (.+) FROM notes WHERE entity_type = \$1 AND entity_id = \$2`).
			WithArgs(string(domain.EntityCampaign), int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "entity_type", "entity_id", "author_id", "content", "created_at"}).
				AddRow(int64(2), "campaign", int64(1), int64(9), "newer", ts).
				AddRow(int64(1), "campaign", int64(1), int64(9), "older", ts.Add(-time.Hour)))

		notes, err := store.ListNotes(context.Background(), domain.EntityCampaign, 1)
		require.NoError(t, err)
		require.Len(t, notes, 2)
		assert.Equal(t, "newer", notes[0].Content)
	})
}

func TestStore_InTx(t *testing.T) {
	t.Run("CommitsOnSuccess", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE campaigns`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.InTx(context.Background(), func(tx repository.Store) error {
			return tx.CompareAndSwap(context.Background(), &domain.Campaign{
				Meta: domain.Meta{ID: 1, Status: domain.StatusApproved},
			}, 0)
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RollsBackOnError", func(t *testing.T) {
		store, mock := newMockStore(t)
		boom := errors.New("append failed")
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := store.InTx(context.Background(), func(tx repository.Store) error {
			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
