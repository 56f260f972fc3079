package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ledgerline/budgetbook"
	"github.com/ledgerline/budgetbook/date"
	"github.com/ledgerline/budgetbook/store"
	"github.com/shopspring/decimal"
)

type fakeStore struct {
	mu        sync.Mutex
	txs       map[string][]budgetbook.Transaction
	goals     map[string]budgetbook.SavingGoal
	nextSeq   int64
	insertErr error
	seedErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		txs:   make(map[string][]budgetbook.Transaction),
		goals: make(map[string]budgetbook.SavingGoal),
	}
}

func (f *fakeStore) Transactions(ctx context.Context, owner string) ([]budgetbook.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seedErr != nil {
		return nil, f.seedErr
	}
	return f.txs[owner], nil
}

func (f *fakeStore) Insert(ctx context.Context, tx budgetbook.Transaction) (budgetbook.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return budgetbook.Transaction{}, f.insertErr
	}
	f.nextSeq++
	tx.ID = fmt.Sprintf("tx-%d", f.nextSeq)
	tx.Seq = f.nextSeq
	tx.CreatedAt = time.Now()
	f.txs[tx.OwnerID] = append(f.txs[tx.OwnerID], tx)
	return tx, nil
}

func (f *fakeStore) Delete(ctx context.Context, id, owner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.txs[owner][:0]
	for _, tx := range f.txs[owner] {
		if tx.ID != id {
			kept = append(kept, tx)
		}
	}
	f.txs[owner] = kept
	return nil
}

func (f *fakeStore) Goal(ctx context.Context, owner string) (budgetbook.SavingGoal, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.goals[owner]
	return g, ok, nil
}

func (f *fakeStore) UpsertGoal(ctx context.Context, goal budgetbook.SavingGoal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.goals[goal.OwnerID] = goal
	return nil
}

// chanSource feeds scripted realtime events into the reconciler.
type chanSource struct {
	events chan store.Event
}

func (c *chanSource) Next(ctx context.Context) (store.Event, error) {
	select {
	case e := <-c.events:
		return e, nil
	case <-ctx.Done():
		return store.Event{}, ctx.Err()
	}
}

func (c *chanSource) Close(ctx context.Context) error { return nil }

func seeded(id, day string, amount float64) budgetbook.Transaction {
	return budgetbook.Transaction{
		ID:      id,
		OwnerID: "owner-1",
		Amount:  decimal.NewFromFloat(amount),
		Kind:    budgetbook.Expense,
		Date:    date.MustParse(day),
	}
}

func newTestSession(f *fakeStore) (*Session, *chanSource) {
	src := &chanSource{events: make(chan store.Event, 8)}
	s := New(f, func(ctx context.Context, owner string) (store.EventSource, error) {
		return src, nil
	}, nil)
	return s, src
}

func TestSetPrincipal_SeedsLedgerAndGoal(t *testing.T) {
	f := newFakeStore()
	f.txs["owner-1"] = []budgetbook.Transaction{
		seeded("a", "2025-03-01", 10),
		seeded("b", "2025-03-05", 20),
	}
	f.goals["owner-1"] = budgetbook.SavingGoal{
		OwnerID:          "owner-1",
		MonthlyIncome:    decimal.NewFromInt(1000),
		SavingPercentage: 20,
	}
	s, _ := newTestSession(f)
	defer s.Close(context.Background())

	if err := s.SetPrincipal(context.Background(), "owner-1"); err != nil {
		t.Fatalf("SetPrincipal() = %v", err)
	}
	snap := s.Snapshot()
	if len(snap) != 2 || snap[0].ID != "b" {
		t.Errorf("Snapshot() = %+v, want [b a] by date descending", snap)
	}
	goal, ok := s.Goal()
	if !ok || goal.SavingPercentage != 20 {
		t.Errorf("Goal() = %+v, %v; want the stored goal", goal, ok)
	}
	if got := s.State(); got != store.Subscribed {
		t.Errorf("State() = %s, want %s", got, store.Subscribed)
	}
}

func TestSetPrincipal_SeedFailureKeepsPrevious(t *testing.T) {
	f := newFakeStore()
	f.txs["owner-1"] = []budgetbook.Transaction{seeded("a", "2025-03-01", 10)}
	s, _ := newTestSession(f)
	defer s.Close(context.Background())

	if err := s.SetPrincipal(context.Background(), "owner-1"); err != nil {
		t.Fatalf("SetPrincipal() = %v", err)
	}

	f.mu.Lock()
	f.seedErr = errors.New("store down")
	f.mu.Unlock()
	if err := s.SetPrincipal(context.Background(), "owner-2"); err == nil {
		t.Fatal("SetPrincipal() = nil, want seed error")
	}
	if s.Owner() != "owner-1" {
		t.Errorf("Owner() = %q after failed switch, want owner-1", s.Owner())
	}
	if len(s.Snapshot()) != 1 {
		t.Errorf("ledger lost its records on a failed switch")
	}
}

func TestSetPrincipal_SubscribeFailureIsNonFatal(t *testing.T) {
	f := newFakeStore()
	f.txs["owner-1"] = []budgetbook.Transaction{seeded("a", "2025-03-01", 10)}
	s := New(f, func(ctx context.Context, owner string) (store.EventSource, error) {
		return nil, errors.New("channel down")
	}, nil)
	defer s.Close(context.Background())

	if err := s.SetPrincipal(context.Background(), "owner-1"); err != nil {
		t.Fatalf("SetPrincipal() = %v, want nil: a dead channel is not fatal", err)
	}
	if len(s.Snapshot()) != 1 {
		t.Error("ledger not seeded despite the failed subscription")
	}
	if got := s.State(); got != store.Errored {
		t.Errorf("State() = %s, want %s", got, store.Errored)
	}
}

func TestAdd_NoOptimisticMutation(t *testing.T) {
	f := newFakeStore()
	s, _ := newTestSession(f)
	defer s.Close(context.Background())
	if err := s.SetPrincipal(context.Background(), "owner-1"); err != nil {
		t.Fatalf("SetPrincipal() = %v", err)
	}

	f.mu.Lock()
	f.insertErr = errors.New("permission denied")
	f.mu.Unlock()
	_, err := s.Add(context.Background(), seeded("", "2025-03-10", 42))
	if err == nil {
		t.Fatal("Add() = nil, want the remote error")
	}
	if len(s.Snapshot()) != 0 {
		t.Error("ledger mutated although the store rejected the insert")
	}

	f.mu.Lock()
	f.insertErr = nil
	f.mu.Unlock()
	var changes int
	s.OnChange(func() { changes++ })
	confirmed, err := s.Add(context.Background(), seeded("", "2025-03-10", 42))
	if err != nil {
		t.Fatalf("Add() = %v", err)
	}
	if confirmed.ID == "" || confirmed.Seq == 0 {
		t.Errorf("confirmed record missing store-assigned fields: %+v", confirmed)
	}
	snap := s.Snapshot()
	if len(snap) != 1 || snap[0].ID != confirmed.ID {
		t.Errorf("confirmed record not in the ledger: %+v", snap)
	}
	if changes != 1 {
		t.Errorf("OnChange fired %d times, want 1", changes)
	}
}

func TestRemove_DeleteWins(t *testing.T) {
	f := newFakeStore()
	f.txs["owner-1"] = []budgetbook.Transaction{seeded("a", "2025-03-01", 10)}
	s, src := newTestSession(f)
	defer s.Close(context.Background())
	if err := s.SetPrincipal(context.Background(), "owner-1"); err != nil {
		t.Fatalf("SetPrincipal() = %v", err)
	}

	if err := s.Remove(context.Background(), "a"); err != nil {
		t.Fatalf("Remove() = %v", err)
	}
	if len(s.Snapshot()) != 0 {
		t.Fatal("record still in ledger after confirmed delete")
	}

	// A stale insert echo for the deleted id must not resurrect it.
	rec, _ := json.Marshal(seeded("a", "2025-03-01", 10))
	src.events <- store.Event{Op: store.OpInsert, Seq: 1, Record: rec}
	time.Sleep(100 * time.Millisecond)
	if len(s.Snapshot()) != 0 {
		t.Error("deleted record resurrected by a late insert echo")
	}
}

func TestRealtimeEventReachesSnapshot(t *testing.T) {
	f := newFakeStore()
	s, src := newTestSession(f)
	defer s.Close(context.Background())
	if err := s.SetPrincipal(context.Background(), "owner-1"); err != nil {
		t.Fatalf("SetPrincipal() = %v", err)
	}

	var mu sync.Mutex
	changed := false
	s.OnChange(func() { mu.Lock(); changed = true; mu.Unlock() })

	rec, _ := json.Marshal(seeded("pushed", "2025-03-12", 7))
	src.events <- store.Event{Op: store.OpInsert, Seq: 1, Record: rec}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(s.Snapshot()) == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if len(s.Snapshot()) != 1 || s.Snapshot()[0].ID != "pushed" {
		t.Fatalf("pushed event never reached the ledger: %+v", s.Snapshot())
	}
	mu.Lock()
	defer mu.Unlock()
	if !changed {
		t.Error("OnChange not fired for a realtime event")
	}
}

func TestClear_DestroysLedger(t *testing.T) {
	f := newFakeStore()
	f.txs["owner-1"] = []budgetbook.Transaction{seeded("a", "2025-03-01", 10)}
	s, _ := newTestSession(f)
	if err := s.SetPrincipal(context.Background(), "owner-1"); err != nil {
		t.Fatalf("SetPrincipal() = %v", err)
	}

	s.Clear(context.Background())
	if s.Owner() != "" {
		t.Errorf("Owner() = %q after Clear, want empty", s.Owner())
	}
	if len(s.Snapshot()) != 0 {
		t.Error("ledger survived Clear")
	}
	if got := s.State(); got != store.Unsubscribed {
		t.Errorf("State() = %s after Clear, want %s", got, store.Unsubscribed)
	}
}

func TestSetGoal_Upserts(t *testing.T) {
	f := newFakeStore()
	s, _ := newTestSession(f)
	defer s.Close(context.Background())
	if err := s.SetPrincipal(context.Background(), "owner-1"); err != nil {
		t.Fatalf("SetPrincipal() = %v", err)
	}

	goal := budgetbook.SavingGoal{MonthlyIncome: decimal.NewFromInt(1500), SavingPercentage: 30}
	if err := s.SetGoal(context.Background(), goal); err != nil {
		t.Fatalf("SetGoal() = %v", err)
	}
	got, ok := s.Goal()
	if !ok || got.OwnerID != "owner-1" || got.SavingPercentage != 30 {
		t.Errorf("Goal() = %+v, %v", got, ok)
	}
	stored := f.goals["owner-1"]
	if !stored.MonthlyIncome.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("stored goal income = %s, want 1500", stored.MonthlyIncome)
	}
}

func TestPrincipalFromToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "owner-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("not-our-secret"))
	if err != nil {
		t.Fatal(err)
	}

	got, err := PrincipalFromToken(signed)
	if err != nil {
		t.Fatalf("PrincipalFromToken() = %v", err)
	}
	if got != "owner-42" {
		t.Errorf("PrincipalFromToken() = %q, want owner-42", got)
	}

	if _, err := PrincipalFromToken("not.a.token"); err == nil {
		t.Error("PrincipalFromToken() accepted garbage")
	}
}
