// Package mocks provides test doubles for the usecase layer: stateful
// in-memory repositories that honor transactions and row locks, and
// gomock-generated mocks for the smaller ports.
package mocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/casacambio/cashledger/internal/domain"
	"github.com/casacambio/cashledger/internal/usecase"
)

// ErrTxClosed is returned when a finished transaction is committed again.
var ErrTxClosed = errors.New("tx is closed")

type pairKey struct {
	accountID  string
	currencyID string
}

// Store is the shared in-memory state behind every repository fake.
// Writes made through a transaction become visible only on commit.
type Store struct {
	mu         sync.Mutex
	accounts   map[string]*domain.Account
	currencies map[string]*domain.Currency
	snapshots  map[pairKey]domain.Snapshot
	movements  []*domain.Movement
	openings   []*domain.OpeningBalance
	outbox     []*domain.OutboxEvent

	locksMu sync.Mutex
	locks   map[pairKey]chan struct{}

	// LockTimeout bounds how long a transaction waits for a row lock.
	LockTimeout time.Duration
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts:    make(map[string]*domain.Account),
		currencies:  make(map[string]*domain.Currency),
		snapshots:   make(map[pairKey]domain.Snapshot),
		locks:       make(map[pairKey]chan struct{}),
		LockTimeout: 2 * time.Second,
	}
}

// PutAccount stores an account directly.
func (s *Store) PutAccount(a *domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a
}

// PutCurrency stores a currency directly.
func (s *Store) PutCurrency(c *domain.Currency) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currencies[c.ID] = c
}

// PutSnapshot overwrites a snapshot outside any transaction, as an
// out-of-band edit would.
func (s *Store) PutSnapshot(snap domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[pairKey{snap.AccountID, snap.CurrencyID}] = copySnapshot(snap)
}

// PutMovement appends a movement outside any transaction.
func (s *Store) PutMovement(m *domain.Movement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movements = append(s.movements, m)
}

// PutOpeningBalance stores an opening balance outside any transaction.
func (s *Store) PutOpeningBalance(o *domain.OpeningBalance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openings = append(s.openings, o)
}

// Snapshot returns the committed snapshot of a pair.
func (s *Store) Snapshot(accountID, currencyID string) (domain.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[pairKey{accountID, currencyID}]
	return copySnapshot(snap), ok
}

// Movements returns the committed movements of a pair in sequence order.
func (s *Store) Movements(accountID, currencyID string) []*domain.Movement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pairMovements(pairKey{accountID, currencyID})
}

// OutboxEvents returns every committed outbox event.
func (s *Store) OutboxEvents() []*domain.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.OutboxEvent(nil), s.outbox...)
}

// OpeningBalances returns every opening balance of a pair, superseded ones included.
func (s *Store) OpeningBalances(accountID, currencyID string) []*domain.OpeningBalance {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.OpeningBalance
	for _, o := range s.openings {
		if o.AccountID == accountID && o.CurrencyID == currencyID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out
}

func (s *Store) pairMovements(key pairKey) []*domain.Movement {
	var out []*domain.Movement
	for _, m := range s.movements {
		if m.AccountID == key.accountID && m.CurrencyID == key.currencyID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out
}

func (s *Store) lockChan(key pairKey) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	return ch
}

// lock acquires the pair's row lock for tx, waiting at most LockTimeout.
func (s *Store) lock(ctx context.Context, tx *Tx, key pairKey) error {
	if tx.holds(key) {
		return nil
	}

	timer := time.NewTimer(s.LockTimeout)
	defer timer.Stop()

	select {
	case s.lockChan(key) <- struct{}{}:
		tx.locks = append(tx.locks, key)
		return nil
	case <-timer.C:
		return domain.ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) unlock(key pairKey) {
	<-s.lockChan(key)
}

func copySnapshot(snap domain.Snapshot) domain.Snapshot {
	if snap.Components != nil {
		c := *snap.Components
		snap.Components = &c
	}
	return snap
}

// Tx stages writes and applies them atomically on commit.
type Tx struct {
	store    *Store
	ops      []func()
	locks    []pairKey
	done     bool
	ReadOnly bool
}

func (t *Tx) holds(key pairKey) bool {
	for _, k := range t.locks {
		if k == key {
			return true
		}
	}
	return false
}

func (t *Tx) stage(op func()) {
	t.ops = append(t.ops, op)
}

func (t *Tx) release() {
	for _, k := range t.locks {
		t.store.unlock(k)
	}
	t.locks = nil
	t.done = true
}

// Commit applies the staged writes and releases held locks.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxClosed
	}

	t.store.mu.Lock()
	for _, op := range t.ops {
		op()
	}
	t.store.mu.Unlock()

	t.release()
	return nil
}

// Rollback discards staged writes. Rolling back a finished transaction is a no-op.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.release()
	return nil
}

func asTx(tx usecase.Transaction) *Tx {
	if t, ok := tx.(*Tx); ok {
		return t
	}
	return nil
}

// write stages op on tx, or applies it immediately without one.
func (s *Store) write(tx usecase.Transaction, op func()) error {
	t := asTx(tx)
	if t == nil {
		s.mu.Lock()
		op()
		s.mu.Unlock()
		return nil
	}
	if t.done {
		return ErrTxClosed
	}
	if t.ReadOnly {
		return errors.New("cannot write in a read-only transaction")
	}
	t.stage(op)
	return nil
}

// TxManager hands out in-memory transactions.
type TxManager struct {
	Store    *Store
	BeginErr error
	begun    atomic.Int64
}

// NewTxManager creates a transaction manager over store.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{Store: store}
}

// Begin starts a read-write transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginErr != nil {
		return nil, m.BeginErr
	}
	m.begun.Add(1)
	return &Tx{store: m.Store}, nil
}

// BeginReadOnly starts a read-only transaction.
func (m *TxManager) BeginReadOnly(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginErr != nil {
		return nil, m.BeginErr
	}
	m.begun.Add(1)
	return &Tx{store: m.Store, ReadOnly: true}, nil
}

// Begun reports how many transactions were started.
func (m *TxManager) Begun() int64 {
	return m.begun.Load()
}

// AccountRepo is an in-memory AccountRepository.
type AccountRepo struct {
	Store *Store
}

func (r *AccountRepo) Create(ctx context.Context, account *domain.Account) error {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()
	if _, ok := r.Store.accounts[account.ID]; ok {
		return fmt.Errorf("account %s already exists", account.ID)
	}
	r.Store.accounts[account.ID] = account
	return nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()
	if a, ok := r.Store.accounts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (r *AccountRepo) List(ctx context.Context, afterID string, limit int) ([]*domain.Account, error) {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()

	ids := make([]string, 0, len(r.Store.accounts))
	for id := range r.Store.accounts {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		cp := *r.Store.accounts[id]
		out = append(out, &cp)
	}
	return out, nil
}

// CurrencyRepo is an in-memory CurrencyRepository.
type CurrencyRepo struct {
	Store *Store
}

func (r *CurrencyRepo) Create(ctx context.Context, currency *domain.Currency) error {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()
	if _, ok := r.Store.currencies[currency.ID]; ok {
		return fmt.Errorf("currency %s already exists", currency.ID)
	}
	r.Store.currencies[currency.ID] = currency
	return nil
}

func (r *CurrencyRepo) GetByID(ctx context.Context, id string) (*domain.Currency, error) {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()
	if c, ok := r.Store.currencies[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrCurrencyNotFound
}

func (r *CurrencyRepo) List(ctx context.Context) ([]*domain.Currency, error) {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()
	out := make([]*domain.Currency, 0, len(r.Store.currencies))
	for _, c := range r.Store.currencies {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SnapshotRepo is an in-memory SnapshotRepository with per-pair row locks.
type SnapshotRepo struct {
	Store *Store
}

func (r *SnapshotRepo) LockOrCreate(ctx context.Context, tx usecase.Transaction, accountID, currencyID string, now time.Time) (*domain.Snapshot, error) {
	t := asTx(tx)
	if t == nil {
		return nil, errors.New("LockOrCreate requires a transaction")
	}

	key := pairKey{accountID, currencyID}
	if err := r.Store.lock(ctx, t, key); err != nil {
		return nil, err
	}

	r.Store.mu.Lock()
	snap, ok := r.Store.snapshots[key]
	r.Store.mu.Unlock()

	if !ok {
		snap = domain.Snapshot{AccountID: accountID, CurrencyID: currencyID, UpdatedAt: now}
		created := snap
		t.stage(func() {
			if _, exists := r.Store.snapshots[key]; !exists {
				r.Store.snapshots[key] = created
			}
		})
	}

	snap = copySnapshot(snap)
	return &snap, nil
}

func (r *SnapshotRepo) GetForUpdate(ctx context.Context, tx usecase.Transaction, accountID, currencyID string) (*domain.Snapshot, error) {
	t := asTx(tx)
	if t == nil {
		return nil, errors.New("GetForUpdate requires a transaction")
	}

	key := pairKey{accountID, currencyID}

	r.Store.mu.Lock()
	_, ok := r.Store.snapshots[key]
	r.Store.mu.Unlock()
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}

	if err := r.Store.lock(ctx, t, key); err != nil {
		return nil, err
	}

	r.Store.mu.Lock()
	snap := copySnapshot(r.Store.snapshots[key])
	r.Store.mu.Unlock()

	return &snap, nil
}

func (r *SnapshotRepo) Get(ctx context.Context, tx usecase.Transaction, accountID, currencyID string) (*domain.Snapshot, error) {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()
	snap, ok := r.Store.snapshots[pairKey{accountID, currencyID}]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	snap = copySnapshot(snap)
	return &snap, nil
}

func (r *SnapshotRepo) Update(ctx context.Context, tx usecase.Transaction, snapshot *domain.Snapshot) error {
	next := copySnapshot(*snapshot)
	return r.Store.write(tx, func() {
		r.Store.snapshots[pairKey{next.AccountID, next.CurrencyID}] = next
	})
}

func (r *SnapshotRepo) ListByAccount(ctx context.Context, accountID string) ([]*domain.Snapshot, error) {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()

	var out []*domain.Snapshot
	for key, snap := range r.Store.snapshots {
		if key.accountID == accountID {
			cp := copySnapshot(snap)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CurrencyID < out[j].CurrencyID })
	return out, nil
}

// MovementRepo is an in-memory MovementRepository.
type MovementRepo struct {
	Store *Store
	// AppendErr, when set, is consulted before every append.
	AppendErr func(m *domain.Movement) error
}

func (r *MovementRepo) Append(ctx context.Context, tx usecase.Transaction, movement *domain.Movement) error {
	if r.AppendErr != nil {
		if err := r.AppendErr(movement); err != nil {
			return err
		}
	}
	cp := *movement
	return r.Store.write(tx, func() {
		r.Store.movements = append(r.Store.movements, &cp)
	})
}

func (r *MovementRepo) List(ctx context.Context, tx usecase.Transaction, accountID, currencyID string, filter usecase.MovementFilter) ([]*domain.Movement, error) {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()

	var out []*domain.Movement
	for _, m := range r.Store.pairMovements(pairKey{accountID, currencyID}) {
		if m.Sequence <= filter.AfterSequence {
			continue
		}
		if filter.From != nil && m.Timestamp.Before(*filter.From) {
			continue
		}
		if filter.To != nil && m.Timestamp.After(*filter.To) {
			continue
		}
		cp := *m
		out = append(out, &cp)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (r *MovementRepo) GetByID(ctx context.Context, id string) (*domain.Movement, error) {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()
	for _, m := range r.Store.movements {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrMovementNotFound
}

func (r *MovementRepo) ListByReference(ctx context.Context, tx usecase.Transaction, ref domain.Reference) ([]*domain.Movement, error) {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()
	var out []*domain.Movement
	for _, m := range r.Store.movements {
		if m.Reference != nil && *m.Reference == ref {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

// OpeningBalanceRepo is an in-memory OpeningBalanceRepository.
type OpeningBalanceRepo struct {
	Store *Store
}

func (r *OpeningBalanceRepo) Create(ctx context.Context, tx usecase.Transaction, opening *domain.OpeningBalance) error {
	cp := *opening
	return r.Store.write(tx, func() {
		r.Store.openings = append(r.Store.openings, &cp)
	})
}

func (r *OpeningBalanceRepo) GetActive(ctx context.Context, tx usecase.Transaction, accountID, currencyID string) (*domain.OpeningBalance, error) {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()
	for _, o := range r.Store.openings {
		if o.AccountID == accountID && o.CurrencyID == currencyID && o.Active {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domain.ErrOpeningBalanceNotFound
}

func (r *OpeningBalanceRepo) Supersede(ctx context.Context, tx usecase.Transaction, id, supersededBy string, at time.Time) error {
	return r.Store.write(tx, func() {
		for _, o := range r.Store.openings {
			if o.ID == id {
				o.Active = false
				o.SupersededBy = supersededBy
				ts := at
				o.SupersededAt = &ts
			}
		}
	})
}

// OutboxRepo is an in-memory OutboxRepository.
type OutboxRepo struct {
	Store *Store
}

func (r *OutboxRepo) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	cp := *event
	return r.Store.write(tx, func() {
		r.Store.outbox = append(r.Store.outbox, &cp)
	})
}

func (r *OutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range r.Store.outbox {
		if !e.Published {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *OutboxRepo) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()
	for _, e := range r.Store.outbox {
		if e.ID == id {
			e.Published = true
			ts := publishedAt
			e.PublishedAt = &ts
		}
	}
	return nil
}

func (r *OutboxRepo) DeletePublished(ctx context.Context, before time.Time) error {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()
	kept := r.Store.outbox[:0]
	for _, e := range r.Store.outbox {
		if !e.Published || e.PublishedAt == nil || !e.PublishedAt.Before(before) {
			kept = append(kept, e)
		}
	}
	r.Store.outbox = kept
	return nil
}

// SequentialIDs generates sortable IDs from a counter.
type SequentialIDs struct {
	Prefix string
	n      atomic.Int64
}

func (g *SequentialIDs) Generate() string {
	return fmt.Sprintf("%s%08d", g.Prefix, g.n.Add(1))
}

// Retrier retries retryable errors up to Attempts times.
type Retrier struct {
	Attempts int
}

func (r Retrier) Retry(ctx context.Context, operation func() error) error {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = operation(); err == nil || !domain.IsRetryable(err) {
			return err
		}
	}
	return err
}
