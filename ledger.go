package budgetbook

import (
	"iter"
	"slices"
	"strings"
	"sync"
)

// Ledger is the authoritative in-memory collection of the current principal's
// transactions. It is owned by a single session and destroyed on identity
// change.
//
// Two independent producers write into it: direct mutation requests confirmed
// by the remote store, and pushed realtime events. Both may interleave
// arbitrarily, so every operation is safe for concurrent use and none of them
// blocks.
//
// Apply operations are deliberately tolerant: an insert for a known id is an
// update, an update for an unknown id is an insert, and a delete for an
// unknown id is a no-op. A delete additionally leaves a tombstone so that a
// stale insert echo arriving later cannot resurrect the record. Every change
// event carries the remote change sequence number, and a record is only
// replaced by an event with a newer sequence.
type Ledger struct {
	mu        sync.RWMutex
	records   map[string]Transaction
	tombstone map[string]struct{}
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		records:   make(map[string]Transaction),
		tombstone: make(map[string]struct{}),
	}
}

// Seed replaces the full transaction set. It is used once per session, after
// the initial bulk fetch, and resets all tombstones.
func (l *Ledger) Seed(txs []Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = make(map[string]Transaction, len(txs))
	l.tombstone = make(map[string]struct{})
	for _, tx := range txs {
		l.records[tx.ID] = tx
	}
}

// ApplyInsert records a new transaction. Applying the same insert twice
// leaves the ledger unchanged, and an insert for an already known id is
// treated as an update.
func (l *Ledger) ApplyInsert(tx Transaction) {
	l.apply(tx)
}

// ApplyUpdate replaces the record at tx.ID. An update for an absent id is
// not an error: the update/insert race with the realtime channel is expected,
// and the record is inserted instead.
func (l *Ledger) ApplyUpdate(tx Transaction) {
	l.apply(tx)
}

func (l *Ledger) apply(tx Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, deleted := l.tombstone[tx.ID]; deleted {
		// The record was deleted in this session. A late echo cannot
		// resurrect it.
		return
	}
	if old, ok := l.records[tx.ID]; ok && tx.Seq != 0 && tx.Seq <= old.Seq {
		// Stale echo: an event older than what the ledger already holds.
		return
	}
	l.records[tx.ID] = tx
}

// ApplyDelete removes the record with the given id if present, and is a
// no-op otherwise. A delete may legitimately arrive before the matching
// insert is echoed back, so it is never an error; the id is tombstoned
// either way.
func (l *Ledger) ApplyDelete(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, id)
	l.tombstone[id] = struct{}{}
}

// Get returns the transaction with the given id.
func (l *Ledger) Get(id string) (Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	tx, ok := l.records[id]
	return tx, ok
}

// Len returns the number of transactions in the ledger.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Snapshot returns the transactions ordered by date descending, ties broken
// by id ascending for determinism. The slice is a copy: the analytics
// functions consume it without holding any lock.
func (l *Ledger) Snapshot() []Transaction {
	l.mu.RLock()
	txs := make([]Transaction, 0, len(l.records))
	for _, tx := range l.records {
		txs = append(txs, tx)
	}
	l.mu.RUnlock()

	slices.SortFunc(txs, func(a, b Transaction) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return txs
}

// All returns a restartable iterator over the transactions in the same order
// as Snapshot.
func (l *Ledger) All() iter.Seq[Transaction] {
	return func(yield func(Transaction) bool) {
		for _, tx := range l.Snapshot() {
			if !yield(tx) {
				return
			}
		}
	}
}
