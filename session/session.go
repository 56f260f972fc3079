// Package session ties a principal to a ledger, its remote store and its
// realtime channel. A session serves exactly one principal at a time;
// switching principals destroys the ledger and every subscription scoped to
// the previous one.
package session

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/ledgerline/budgetbook"
	"github.com/ledgerline/budgetbook/store"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "session").Logger()

// Store is the remote collaborator a session mutates and seeds from.
// *store.Postgres is the production implementation.
type Store interface {
	Transactions(ctx context.Context, owner string) ([]budgetbook.Transaction, error)
	Insert(ctx context.Context, tx budgetbook.Transaction) (budgetbook.Transaction, error)
	Delete(ctx context.Context, id, owner string) error
	Goal(ctx context.Context, owner string) (budgetbook.SavingGoal, bool, error)
	UpsertGoal(ctx context.Context, goal budgetbook.SavingGoal) error
}

// Session holds the ledger of the current principal and keeps it reconciled
// with the remote store. All methods are safe for concurrent use.
type Session struct {
	store Store
	rec   *store.Reconciler
	hook  store.Hook

	mu       sync.RWMutex
	owner    string
	ledger   *budgetbook.Ledger
	goal     budgetbook.SavingGoal
	hasGoal  bool
	onChange func()
}

// New builds a session over a store and a realtime subscribe function. The
// hook observes the reconciler lifecycle and the session's own mutation
// confirmations; it may be nil.
func New(st Store, subscribe store.SubscribeFunc, hook store.Hook) *Session {
	if hook == nil {
		hook = func(store.HookEvent) {}
	}
	return &Session{
		store:  st,
		rec:    store.NewReconciler(subscribe, hook),
		hook:   hook,
		ledger: budgetbook.NewLedger(),
	}
}

// OnChange registers a callback invoked after every ledger change, whether it
// came from a confirmed mutation or a realtime event. At most one callback is
// held; registering replaces the previous one.
func (s *Session) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *Session) notify() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// SetPrincipal switches the session to a new principal. The previous
// subscription is torn down first, then a fresh ledger is seeded with the
// bulk fetch and the realtime channel is reopened for the new owner.
//
// A seed failure leaves the session on the previous principal. A subscription
// failure does not: the session is usable with the seeded ledger, it just
// receives no remote echoes, and the failure is observable through the hook
// and State.
func (s *Session) SetPrincipal(ctx context.Context, owner string) error {
	if owner == "" {
		return fmt.Errorf("empty principal")
	}

	txs, err := s.store.Transactions(ctx, owner)
	if err != nil {
		return fmt.Errorf("seed ledger for %s: %w", owner, err)
	}
	goal, hasGoal, err := s.store.Goal(ctx, owner)
	if err != nil {
		return fmt.Errorf("load saving goal for %s: %w", owner, err)
	}

	s.rec.Unsubscribe(ctx)

	ledger := budgetbook.NewLedger()
	ledger.Seed(txs)
	s.mu.Lock()
	s.owner = owner
	s.ledger = ledger
	s.goal, s.hasGoal = goal, hasGoal
	s.mu.Unlock()
	s.notify()

	if err := s.rec.Subscribe(ctx, owner, applier{s}); err != nil {
		logger.Warn().Err(err).Str("owner", owner).Msg("realtime channel unavailable, continuing without echoes")
	}
	return nil
}

// Clear signs the principal out: the subscription is released and the ledger
// is destroyed.
func (s *Session) Clear(ctx context.Context) {
	s.rec.Unsubscribe(ctx)
	s.mu.Lock()
	s.owner = ""
	s.ledger = budgetbook.NewLedger()
	s.goal, s.hasGoal = budgetbook.SavingGoal{}, false
	s.mu.Unlock()
	s.notify()
}

// Owner returns the current principal, or "" when signed out.
func (s *Session) Owner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner
}

// State returns the realtime subscription state.
func (s *Session) State() store.State { return s.rec.State() }

// Snapshot returns the current ledger content, ordered by date descending.
func (s *Session) Snapshot() []budgetbook.Transaction {
	s.mu.RLock()
	ledger := s.ledger
	s.mu.RUnlock()
	return ledger.Snapshot()
}

// Add sends one transaction to the remote store and, only once the store
// confirms it, applies the confirmed record to the ledger. Nothing is
// mutated optimistically: a failed insert leaves the ledger exactly as it
// was, and the error carries the remote cause.
func (s *Session) Add(ctx context.Context, tx budgetbook.Transaction) (budgetbook.Transaction, error) {
	s.mu.RLock()
	owner, ledger := s.owner, s.ledger
	s.mu.RUnlock()
	if owner == "" {
		return budgetbook.Transaction{}, fmt.Errorf("no principal")
	}
	tx.OwnerID = owner

	confirmed, err := s.store.Insert(ctx, tx)
	if err != nil {
		return budgetbook.Transaction{}, err
	}
	if err := confirmed.Validate(); err != nil {
		return budgetbook.Transaction{}, fmt.Errorf("store returned a malformed record: %w", err)
	}
	ledger.ApplyInsert(confirmed)
	s.hook(store.HookEvent{Name: store.HookMutationConfirmed, Owner: owner, Seq: confirmed.Seq})
	s.notify()
	return confirmed, nil
}

// Remove deletes a transaction by id. The ledger entry is removed as soon as
// the store confirms; the later realtime delete echo is absorbed as a no-op.
func (s *Session) Remove(ctx context.Context, id string) error {
	s.mu.RLock()
	owner, ledger := s.owner, s.ledger
	s.mu.RUnlock()
	if owner == "" {
		return fmt.Errorf("no principal")
	}
	if err := s.store.Delete(ctx, id, owner); err != nil {
		return err
	}
	ledger.ApplyDelete(id)
	s.hook(store.HookEvent{Name: store.HookMutationConfirmed, Owner: owner})
	s.notify()
	return nil
}

// Goal returns the principal's saving goal and whether one exists.
func (s *Session) Goal() (budgetbook.SavingGoal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.goal, s.hasGoal
}

// SetGoal upserts the principal's saving goal, last write wins.
func (s *Session) SetGoal(ctx context.Context, goal budgetbook.SavingGoal) error {
	s.mu.RLock()
	owner := s.owner
	s.mu.RUnlock()
	if owner == "" {
		return fmt.Errorf("no principal")
	}
	goal.OwnerID = owner
	if err := s.store.UpsertGoal(ctx, goal); err != nil {
		return err
	}
	s.mu.Lock()
	s.goal, s.hasGoal = goal, true
	s.mu.Unlock()
	s.notify()
	return nil
}

// Close releases the realtime subscription.
func (s *Session) Close(ctx context.Context) {
	s.rec.Close(ctx)
}

// applier routes realtime events to whatever ledger is current at delivery
// time, and fans out the change notification.
type applier struct{ s *Session }

func (a applier) ledger() *budgetbook.Ledger {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()
	return a.s.ledger
}

func (a applier) ApplyInsert(tx budgetbook.Transaction) {
	a.ledger().ApplyInsert(tx)
	a.s.notify()
}

func (a applier) ApplyUpdate(tx budgetbook.Transaction) {
	a.ledger().ApplyUpdate(tx)
	a.s.notify()
}

func (a applier) ApplyDelete(id string) {
	a.ledger().ApplyDelete(id)
	a.s.notify()
}
