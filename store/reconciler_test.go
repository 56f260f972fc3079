package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ledgerline/budgetbook"
)

// fakeSource delivers a scripted sequence of events, then blocks until the
// pump context is cancelled.
type fakeSource struct {
	events []Event
	i      int

	mu     sync.Mutex
	closed bool
}

func (f *fakeSource) Next(ctx context.Context) (Event, error) {
	if f.i < len(f.events) {
		e := f.events[f.i]
		f.i++
		return e, nil
	}
	<-ctx.Done()
	return Event{}, ctx.Err()
}

func (f *fakeSource) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSource) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func record(id string, amount float64, seq int64) Event {
	rec := map[string]any{
		"id":      id,
		"user_id": "owner-1",
		"amount":  amount,
		"type":    "expense",
		"date":    "2025-03-10",
	}
	b, _ := json.Marshal(rec)
	return Event{Op: OpInsert, Seq: seq, Record: b}
}

// recorder collects hook events by name for assertions.
type recorder struct {
	mu     sync.Mutex
	events []HookEvent
}

func (r *recorder) hook(e HookEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Name == name {
			n++
		}
	}
	return n
}

func (r *recorder) waitFor(t *testing.T, name string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r.count(name) >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("hook %q seen %d times, want %d", name, r.count(name), want)
}

func TestReconciler_AppliesEventsInOrder(t *testing.T) {
	src := &fakeSource{events: []Event{
		record("a", 10, 1),
		record("b", 20, 2),
		{Op: OpDelete, Seq: 3, Record: json.RawMessage(`{"id":"a"}`)},
	}}
	rec := &recorder{}
	r := NewReconciler(func(ctx context.Context, owner string) (EventSource, error) {
		return src, nil
	}, rec.hook)
	defer r.Close(context.Background())

	ledger := budgetbook.NewLedger()
	if err := r.Subscribe(context.Background(), "owner-1", ledger); err != nil {
		t.Fatalf("Subscribe() = %v", err)
	}
	if got := r.State(); got != Subscribed {
		t.Errorf("State() = %s, want %s", got, Subscribed)
	}

	rec.waitFor(t, HookEventApplied, 3)
	if ledger.Len() != 1 {
		t.Errorf("ledger has %d records, want 1 (b inserted, a deleted)", ledger.Len())
	}
	if _, ok := ledger.Get("b"); !ok {
		t.Errorf("record b missing from ledger")
	}
	if _, ok := ledger.Get("a"); ok {
		t.Errorf("record a still present after delete event")
	}
}

func TestReconciler_RejectsMalformedEvents(t *testing.T) {
	bad := record("bad", -5, 2) // negative amount fails validation
	src := &fakeSource{events: []Event{
		record("good", 10, 1),
		bad,
		{Op: OpInsert, Seq: 3, Record: json.RawMessage(`{not json`)},
		{Op: "TRUNCATE", Seq: 4, Record: json.RawMessage(`{}`)},
		{Op: OpDelete, Seq: 5, Record: json.RawMessage(`{}`)}, // delete without id
	}}
	rec := &recorder{}
	r := NewReconciler(func(ctx context.Context, owner string) (EventSource, error) {
		return src, nil
	}, rec.hook)
	defer r.Close(context.Background())

	ledger := budgetbook.NewLedger()
	if err := r.Subscribe(context.Background(), "owner-1", ledger); err != nil {
		t.Fatalf("Subscribe() = %v", err)
	}

	rec.waitFor(t, HookEventRejected, 4)
	rec.waitFor(t, HookEventApplied, 1)
	if ledger.Len() != 1 {
		t.Errorf("ledger has %d records, want only the valid one", ledger.Len())
	}
	if got := r.State(); got != Subscribed {
		t.Errorf("State() = %s after rejected events, want %s", got, Subscribed)
	}
}

func TestReconciler_SubscribeFailureLandsInError(t *testing.T) {
	rec := &recorder{}
	r := NewReconciler(func(ctx context.Context, owner string) (EventSource, error) {
		return nil, errors.New("connection refused")
	}, rec.hook)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := r.Subscribe(ctx, "owner-1", budgetbook.NewLedger())
	if err == nil {
		t.Fatal("Subscribe() = nil, want error after exhausted retries")
	}
	var serr *SubscriptionError
	if !errors.As(err, &serr) {
		t.Errorf("Subscribe() error = %T, want *SubscriptionError", err)
	}
	if got := r.State(); got != Errored {
		t.Errorf("State() = %s, want %s", got, Errored)
	}
	if rec.count(HookSubscriptionError) == 0 {
		t.Error("no subscription_error hook event")
	}
}

func TestReconciler_RetriesBeforeGivingUp(t *testing.T) {
	var attempts int
	src := &fakeSource{}
	r := NewReconciler(func(ctx context.Context, owner string) (EventSource, error) {
		attempts++
		if attempts < 3 {
			return nil, fmt.Errorf("transient failure %d", attempts)
		}
		return src, nil
	}, nil)
	defer r.Close(context.Background())

	if err := r.Subscribe(context.Background(), "owner-1", budgetbook.NewLedger()); err != nil {
		t.Fatalf("Subscribe() = %v, want success on third attempt", err)
	}
	if attempts != 3 {
		t.Errorf("subscribe attempted %d times, want 3", attempts)
	}
	if got := r.State(); got != Subscribed {
		t.Errorf("State() = %s, want %s", got, Subscribed)
	}
}

func TestReconciler_ConcurrentSubscribeKeepsOneSource(t *testing.T) {
	var mu sync.Mutex
	var opened []*fakeSource
	r := NewReconciler(func(ctx context.Context, owner string) (EventSource, error) {
		src := &fakeSource{}
		mu.Lock()
		opened = append(opened, src)
		mu.Unlock()
		return src, nil
	}, nil)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Subscribe(context.Background(), "owner-1", budgetbook.NewLedger()); err != nil {
				t.Errorf("Subscribe() = %v", err)
			}
		}()
	}
	wg.Wait()
	r.Unsubscribe(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if len(opened) != 4 {
		t.Fatalf("%d sources opened, want 4", len(opened))
	}
	live := 0
	for _, src := range opened {
		if !src.isClosed() {
			live++
		}
	}
	if live != 0 {
		t.Errorf("%d sources still live after Unsubscribe, want 0", live)
	}
	if got := r.State(); got != Unsubscribed {
		t.Errorf("State() = %s, want %s", got, Unsubscribed)
	}
}

func TestReconciler_ReleasesSourceBeforeReacquiring(t *testing.T) {
	first := &fakeSource{}
	second := &fakeSource{}
	sources := []*fakeSource{first, second}
	var subscribed []string
	r := NewReconciler(func(ctx context.Context, owner string) (EventSource, error) {
		subscribed = append(subscribed, owner)
		src := sources[0]
		sources = sources[1:]
		// The previous source must be fully closed before a new one opens.
		if src == second && !first.isClosed() {
			t.Error("second subscription opened before the first source was closed")
		}
		return src, nil
	}, nil)
	defer r.Close(context.Background())

	ctx := context.Background()
	if err := r.Subscribe(ctx, "owner-1", budgetbook.NewLedger()); err != nil {
		t.Fatalf("first Subscribe() = %v", err)
	}
	if err := r.Subscribe(ctx, "owner-2", budgetbook.NewLedger()); err != nil {
		t.Fatalf("second Subscribe() = %v", err)
	}
	if len(subscribed) != 2 || subscribed[0] != "owner-1" || subscribed[1] != "owner-2" {
		t.Errorf("subscribed owners = %v, want [owner-1 owner-2]", subscribed)
	}

	r.Unsubscribe(ctx)
	if !second.isClosed() {
		t.Error("second source not closed after Unsubscribe")
	}
	if got := r.State(); got != Unsubscribed {
		t.Errorf("State() = %s, want %s", got, Unsubscribed)
	}
}
