// Package memory provides an in-memory repository.Store with the same
// compare-and-swap and transaction semantics as the Postgres store. Used by
// engine tests and local development runs without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"fundlift-moderation-backend/internal/domain"
	"fundlift-moderation-backend/internal/repository"
)

type data struct {
	entities  map[domain.EntityType]map[int64]domain.Entity
	accounts  map[int64]domain.BankAccount
	audits    []domain.AuditRecord
	notes     []domain.Note
	nextAudit int64
	nextNote  int64
}

func newData() *data {
	entities := make(map[domain.EntityType]map[int64]domain.Entity, len(domain.EntityTypes))
	for _, t := range domain.EntityTypes {
		entities[t] = make(map[int64]domain.Entity)
	}
	return &data{
		entities:  entities,
		accounts:  make(map[int64]domain.BankAccount),
		nextAudit: 1,
		nextNote:  1,
	}
}

func (d *data) clone() *data {
	c := newData()
	for t, m := range d.entities {
		for id, e := range m {
			c.entities[t][id] = copyEntity(e)
		}
	}
	for id, a := range d.accounts {
		c.accounts[id] = a
	}
	c.audits = append([]domain.AuditRecord(nil), d.audits...)
	c.notes = append([]domain.Note(nil), d.notes...)
	c.nextAudit = d.nextAudit
	c.nextNote = d.nextNote
	return c
}

// Store is safe for concurrent use; every operation takes the store mutex,
// and InTx holds it across the whole function so the CAS plus audit append
// commit or roll back together.
type Store struct {
	mu   sync.Mutex
	data *data
}

func NewStore() *Store {
	return &Store{data: newData()}
}

// Seed inserts or replaces an entity snapshot directly, bypassing the
// engine. Test and bootstrap use only.
func (s *Store) Seed(e domain.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.entities[e.Type()][e.EntityMeta().ID] = copyEntity(e)
}

// SeedBankAccount registers a collaborator-owned bank account snapshot.
func (s *Store) SeedBankAccount(a domain.BankAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.accounts[a.ID] = a
}

func (s *Store) Get(ctx context.Context, t domain.EntityType, id int64) (domain.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.get(t, id)
}

func (s *Store) CompareAndSwap(ctx context.Context, e domain.Entity, expectedVersion int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.compareAndSwap(e, expectedVersion)
}

func (s *Store) List(ctx context.Context, f repository.Filter) ([]domain.Entity, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.list(f)
}

func (s *Store) MilestonesByCampaign(ctx context.Context, campaignID int64) ([]domain.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.milestonesByCampaign(campaignID), nil
}

func (s *Store) WithdrawalsByCampaign(ctx context.Context, campaignID int64, status domain.Status) ([]domain.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.withdrawalsByCampaign(campaignID, status), nil
}

func (s *Store) BankAccount(ctx context.Context, id int64) (*domain.BankAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.data.accounts[id]
	if !ok {
		return nil, nil
	}
	acct := a
	return &acct, nil
}

func (s *Store) Append(ctx context.Context, rec *domain.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.append(rec)
}

func (s *Store) QueryByEntity(ctx context.Context, t domain.EntityType, entityID int64, page, pageSize int32) ([]domain.AuditRecord, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.query(func(r domain.AuditRecord) bool {
		return r.EntityType == t && r.EntityID == entityID
	}, page, pageSize)
}

func (s *Store) QueryByActor(ctx context.Context, actorID int64, page, pageSize int32) ([]domain.AuditRecord, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.query(func(r domain.AuditRecord) bool {
		return r.ActorID == actorID
	}, page, pageSize)
}

func (s *Store) AddNote(ctx context.Context, n *domain.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = s.data.nextNote
	s.data.nextNote++
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	s.data.notes = append(s.data.notes, *n)
	return nil
}

func (s *Store) ListNotes(ctx context.Context, t domain.EntityType, entityID int64) ([]domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Note
	for _, n := range s.data.notes {
		if n.EntityType == t && n.EntityID == entityID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// InTx serializes the whole function under the store mutex and restores the
// pre-transaction snapshot if fn fails, mirroring the SQL rollback.
func (s *Store) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	backup := s.data.clone()
	if err := fn(&txStore{data: s.data}); err != nil {
		s.data = backup
		return err
	}
	return nil
}

// txStore is the unlocked view handed to InTx callbacks; the store mutex is
// already held.
type txStore struct {
	data *data
}

func (t *txStore) Get(ctx context.Context, et domain.EntityType, id int64) (domain.Entity, error) {
	return t.data.get(et, id)
}

func (t *txStore) CompareAndSwap(ctx context.Context, e domain.Entity, expectedVersion int32) error {
	return t.data.compareAndSwap(e, expectedVersion)
}

func (t *txStore) List(ctx context.Context, f repository.Filter) ([]domain.Entity, int64, error) {
	return t.data.list(f)
}

func (t *txStore) MilestonesByCampaign(ctx context.Context, campaignID int64) ([]domain.Milestone, error) {
	return t.data.milestonesByCampaign(campaignID), nil
}

func (t *txStore) WithdrawalsByCampaign(ctx context.Context, campaignID int64, status domain.Status) ([]domain.Withdrawal, error) {
	return t.data.withdrawalsByCampaign(campaignID, status), nil
}

func (t *txStore) BankAccount(ctx context.Context, id int64) (*domain.BankAccount, error) {
	a, ok := t.data.accounts[id]
	if !ok {
		return nil, nil
	}
	acct := a
	return &acct, nil
}

func (t *txStore) Append(ctx context.Context, rec *domain.AuditRecord) error {
	return t.data.append(rec)
}

func (t *txStore) QueryByEntity(ctx context.Context, et domain.EntityType, entityID int64, page, pageSize int32) ([]domain.AuditRecord, int64, error) {
	return t.data.query(func(r domain.AuditRecord) bool {
		return r.EntityType == et && r.EntityID == entityID
	}, page, pageSize)
}

func (t *txStore) QueryByActor(ctx context.Context, actorID int64, page, pageSize int32) ([]domain.AuditRecord, int64, error) {
	return t.data.query(func(r domain.AuditRecord) bool {
		return r.ActorID == actorID
	}, page, pageSize)
}

func (t *txStore) AddNote(ctx context.Context, n *domain.Note) error {
	n.ID = t.data.nextNote
	t.data.nextNote++
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	t.data.notes = append(t.data.notes, *n)
	return nil
}

func (t *txStore) ListNotes(ctx context.Context, et domain.EntityType, entityID int64) ([]domain.Note, error) {
	var out []domain.Note
	for _, n := range t.data.notes {
		if n.EntityType == et && n.EntityID == entityID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (t *txStore) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	// Already inside a transaction.
	return fn(t)
}

func (d *data) get(t domain.EntityType, id int64) (domain.Entity, error) {
	m, ok := d.entities[t]
	if !ok {
		return nil, domain.NewNotFound(t, id)
	}
	e, ok := m[id]
	if !ok {
		return nil, domain.NewNotFound(t, id)
	}
	return copyEntity(e), nil
}

func (d *data) compareAndSwap(e domain.Entity, expectedVersion int32) error {
	meta := e.EntityMeta()
	stored, ok := d.entities[e.Type()][meta.ID]
	if !ok {
		return domain.NewNotFound(e.Type(), meta.ID)
	}
	if stored.EntityMeta().Version != expectedVersion {
		return domain.NewConflict(e.Type(), meta.ID)
	}
	meta.Version = expectedVersion + 1
	d.entities[e.Type()][meta.ID] = copyEntity(e)
	return nil
}

func (d *data) list(f repository.Filter) ([]domain.Entity, int64, error) {
	if err := f.Normalize(); err != nil {
		return nil, 0, err
	}
	var all []domain.Entity
	for _, e := range d.entities[f.EntityType] {
		if f.Status != nil && e.EntityMeta().Status != *f.Status {
			continue
		}
		if f.CampaignID != nil && campaignIDOf(e) != *f.CampaignID {
			continue
		}
		all = append(all, copyEntity(e))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].EntityMeta().ID < all[j].EntityMeta().ID })
	total := int64(len(all))
	start := int((f.Page - 1) * f.PageSize)
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + int(f.PageSize)
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (d *data) milestonesByCampaign(campaignID int64) []domain.Milestone {
	var out []domain.Milestone
	for _, e := range d.entities[domain.EntityMilestone] {
		m := e.(*domain.Milestone)
		if m.CampaignID == campaignID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *data) withdrawalsByCampaign(campaignID int64, status domain.Status) []domain.Withdrawal {
	var out []domain.Withdrawal
	for _, e := range d.entities[domain.EntityWithdrawal] {
		w := e.(*domain.Withdrawal)
		if w.CampaignID != campaignID {
			continue
		}
		if status != "" && w.Status != status {
			continue
		}
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *data) append(rec *domain.AuditRecord) error {
	rec.ID = d.nextAudit
	d.nextAudit++
	d.audits = append(d.audits, *rec)
	return nil
}

func (d *data) query(match func(domain.AuditRecord) bool, page, pageSize int32) ([]domain.AuditRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = repository.DefaultPageSize
	}
	var all []domain.AuditRecord
	for _, r := range d.audits {
		if match(r) {
			all = append(all, r)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Timestamp.Equal(all[j].Timestamp) {
			return all[i].ID > all[j].ID
		}
		return all[i].Timestamp.After(all[j].Timestamp)
	})
	total := int64(len(all))
	start := int((page - 1) * pageSize)
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + int(pageSize)
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func campaignIDOf(e domain.Entity) int64 {
	switch v := e.(type) {
	case *domain.Milestone:
		return v.CampaignID
	case *domain.Withdrawal:
		return v.CampaignID
	case *domain.Campaign:
		return v.ID
	}
	return 0
}

func copyEntity(e domain.Entity) domain.Entity {
	switch v := e.(type) {
	case *domain.Campaign:
		c := *v
		if v.BankAccountID != nil {
			id := *v.BankAccountID
			c.BankAccountID = &id
		}
		return &c
	case *domain.Milestone:
		c := *v
		return &c
	case *domain.Withdrawal:
		c := *v
		return &c
	case *domain.DonorProject:
		c := *v
		return &c
	case *domain.Application:
		c := *v
		return &c
	case *domain.StudentVerification:
		c := *v
		return &c
	case *domain.ClubReferral:
		c := *v
		return &c
	}
	return e
}
