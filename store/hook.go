package store

import "github.com/rs/zerolog"

// HookEvent is one observable step of the reconciler lifecycle.
type HookEvent struct {
	Name  string // one of the Hook* constants
	Owner string
	Seq   int64 // change sequence when the event carries one, else 0
	Err   error // set for error events
}

// Lifecycle event names reported through the hook.
const (
	HookSubscribing       = "subscribing"
	HookSubscribed        = "subscribed"
	HookSubscriptionError = "subscription_error"
	HookEventApplied      = "event_applied"
	HookEventRejected     = "event_rejected"
	HookMutationConfirmed = "mutation_confirmed"
	HookFallbackTriggered = "fallback_triggered"
)

// A Hook observes reconciler lifecycle events. Hooks must be fast; they are
// called from the pump goroutine and block event delivery while they run.
type Hook func(HookEvent)

// LogHook returns a Hook that writes every lifecycle event to the given
// logger. Error events log at warn, the rest at debug.
func LogHook(log zerolog.Logger) Hook {
	return func(e HookEvent) {
		ev := log.Debug()
		if e.Err != nil {
			ev = log.Warn().Err(e.Err)
		}
		if e.Seq != 0 {
			ev = ev.Int64("seq", e.Seq)
		}
		ev.Str("owner", e.Owner).Msg(e.Name)
	}
}
