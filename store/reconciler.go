package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ledgerline/budgetbook"
	retry "github.com/sethvargo/go-retry"
)

// State is the reconciler subscription state, observable at any time.
type State string

const (
	Unsubscribed State = "UNSUBSCRIBED"
	Subscribing  State = "SUBSCRIBING"
	Subscribed   State = "SUBSCRIBED"
	Errored      State = "ERROR"
)

// An Applier consumes reconciled change events. *budgetbook.Ledger is the
// canonical implementation.
type Applier interface {
	ApplyInsert(budgetbook.Transaction)
	ApplyUpdate(budgetbook.Transaction)
	ApplyDelete(id string)
}

// SubscribeFunc opens an event source for an owner. (*Postgres).Subscribe is
// the production implementation.
type SubscribeFunc func(ctx context.Context, owner string) (EventSource, error)

const subscribeMaxRetries = 5

// Reconciler keeps an Applier in sync with the owner-scoped change channel.
// At most one subscription is live at a time: subscribing for a new owner
// first tears down the previous source, so no event of the old owner can
// land after the switch.
type Reconciler struct {
	subscribe SubscribeFunc
	hook      Hook

	// sub serializes whole Subscribe/Unsubscribe sequences: teardown of the
	// previous source and acquisition of the next must never interleave, or
	// two sources could end up live for one owner.
	sub sync.Mutex

	mu     sync.Mutex
	state  State
	owner  string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewReconciler builds a reconciler over the given subscribe function. The
// hook may be nil.
func NewReconciler(subscribe SubscribeFunc, hook Hook) *Reconciler {
	if hook == nil {
		hook = func(HookEvent) {}
	}
	return &Reconciler{subscribe: subscribe, hook: hook, state: Unsubscribed}
}

// State returns the current subscription state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Subscribe opens the owner's channel and starts pumping events into the
// applier. Any previous subscription is fully released first. The source is
// (re)opened with a capped fibonacci backoff; if every attempt fails the
// reconciler lands in the ERROR state and the error is returned. The session
// stays usable either way, it just stops receiving remote echoes.
func (r *Reconciler) Subscribe(ctx context.Context, owner string, applier Applier) error {
	r.sub.Lock()
	defer r.sub.Unlock()
	r.release(ctx)

	r.mu.Lock()
	r.state = Subscribing
	r.owner = owner
	r.mu.Unlock()
	r.hook(HookEvent{Name: HookSubscribing, Owner: owner})

	var src EventSource
	backoff := retry.WithMaxRetries(subscribeMaxRetries, retry.NewFibonacci(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		src, err = r.subscribe(ctx, owner)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		r.mu.Lock()
		r.state = Errored
		r.mu.Unlock()
		serr := &SubscriptionError{Owner: owner, Err: err}
		r.hook(HookEvent{Name: HookSubscriptionError, Owner: owner, Err: serr})
		return serr
	}

	pumpCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r.mu.Lock()
	r.state = Subscribed
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()
	r.hook(HookEvent{Name: HookSubscribed, Owner: owner})

	go r.pump(pumpCtx, owner, src, applier, done)
	return nil
}

// pump is the single goroutine draining the source. Events are applied in
// arrival order; ordering across events is the applier's concern, not
// re-established here.
func (r *Reconciler) pump(ctx context.Context, owner string, src EventSource, applier Applier, done chan struct{}) {
	defer close(done)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		src.Close(closeCtx)
	}()

	for {
		e, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return // deliberate teardown
			}
			r.mu.Lock()
			r.state = Errored
			r.mu.Unlock()
			r.hook(HookEvent{Name: HookSubscriptionError, Owner: owner, Err: err})
			return
		}
		if err := apply(applier, e); err != nil {
			r.hook(HookEvent{Name: HookEventRejected, Owner: owner, Seq: e.Seq, Err: err})
			continue
		}
		r.hook(HookEvent{Name: HookEventApplied, Owner: owner, Seq: e.Seq})
	}
}

// apply decodes and validates one event, then hands it to the applier. A
// malformed event is rejected without disturbing the ledger.
func apply(applier Applier, e Event) error {
	switch e.Op {
	case OpDelete:
		var rec struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(e.Record, &rec); err != nil {
			return fmt.Errorf("decode delete record: %w", err)
		}
		if rec.ID == "" {
			return fmt.Errorf("delete record without id")
		}
		applier.ApplyDelete(rec.ID)
		return nil
	case OpInsert, OpUpdate:
		var tx budgetbook.Transaction
		if err := json.Unmarshal(e.Record, &tx); err != nil {
			return fmt.Errorf("decode record: %w", err)
		}
		tx.Seq = e.Seq
		if err := tx.Validate(); err != nil {
			return err
		}
		if e.Op == OpInsert {
			applier.ApplyInsert(tx)
		} else {
			applier.ApplyUpdate(tx)
		}
		return nil
	default:
		return fmt.Errorf("unknown op %q", e.Op)
	}
}

// Unsubscribe stops the pump and releases the current source. It blocks
// until the source is closed, so a follow-up Subscribe never races the old
// channel.
func (r *Reconciler) Unsubscribe(ctx context.Context) {
	r.sub.Lock()
	defer r.sub.Unlock()
	r.release(ctx)
}

func (r *Reconciler) release(ctx context.Context) {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.state = Unsubscribed
	r.owner = ""
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Close is Unsubscribe for shutdown paths.
func (r *Reconciler) Close(ctx context.Context) { r.Unsubscribe(ctx) }
