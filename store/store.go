// Package store implements the two remote collaborators of the ledger: the
// relational store holding the transactions and saving_goals tables, and the
// principal-scoped realtime channel that echoes changes back to the client.
package store

import "fmt"

// StoreError reports a failed remote CRUD call (network, permission,
// timeout). It is surfaced to the caller of the mutation; the ledger is
// never mutated optimistically on its behalf.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("remote store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// SubscriptionError reports a realtime channel that failed to reach the
// SUBSCRIBED state. It leaves the reconciler in the ERROR state and is
// observable through the hook; it is never fatal to the session.
type SubscriptionError struct {
	Owner string
	Err   error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription for owner %s: %v", e.Owner, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }
