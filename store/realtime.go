package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Change operations carried by a realtime event.
const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// Event is one change notification from the owner-scoped channel. The store
// emits it for every committed change to the owner's transactions, including
// changes this client made itself.
type Event struct {
	Op     string          `json:"op"`
	Seq    int64           `json:"seq"`
	Record json.RawMessage `json:"record"`
}

// An EventSource delivers the owner's change events in commit order.
type EventSource interface {
	// Next blocks until the next event arrives, the context is cancelled, or
	// the source fails.
	Next(ctx context.Context) (Event, error)
	Close(ctx context.Context) error
}

// Subscription is an EventSource over a dedicated store connection listening
// on the owner's channel. It must be closed before a new one is opened for a
// different owner.
type Subscription struct {
	conn    *pgx.Conn
	owner   string
	channel string
}

// Subscribe opens a dedicated connection for the owner's channel. The pool
// cannot serve here: LISTEN binds to one connection for its whole life.
func (s *Postgres) Subscribe(ctx context.Context, owner string) (EventSource, error) {
	conn, err := pgx.Connect(ctx, s.dsn)
	if err != nil {
		return nil, &SubscriptionError{Owner: owner, Err: err}
	}
	channel := "tx_changes_" + owner
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		conn.Close(ctx)
		return nil, &SubscriptionError{Owner: owner, Err: err}
	}
	return &Subscription{conn: conn, owner: owner, channel: channel}, nil
}

// Next waits for the next change event and decodes it. A payload that does
// not decode is a source error; callers treat it like any other event error.
func (s *Subscription) Next(ctx context.Context) (Event, error) {
	n, err := s.conn.WaitForNotification(ctx)
	if err != nil {
		return Event{}, &SubscriptionError{Owner: s.owner, Err: err}
	}
	var e Event
	if err := json.Unmarshal([]byte(n.Payload), &e); err != nil {
		return Event{}, &SubscriptionError{Owner: s.owner, Err: fmt.Errorf("decode payload: %w", err)}
	}
	return e, nil
}

// Close unlistens and releases the dedicated connection.
func (s *Subscription) Close(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, "UNLISTEN "+pgx.Identifier{s.channel}.Sanitize())
	if cerr := s.conn.Close(ctx); err == nil {
		err = cerr
	}
	return err
}
