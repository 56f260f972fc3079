// Package budgetbook provides the client-held transaction ledger of a smart
// expense tracker and the deterministic analytics derived from it. It is
// designed to keep a principal's ledger consistent while it is mutated from
// two independent sources, and to recompute budget insight on every change.
//
// The core functionalities include:
//   - Ledger State Store: the authoritative in-memory collection of the
//     current principal's transactions, fed by direct confirmed writes and by
//     pushed remote change events, with idempotent, order-tolerant apply
//     operations.
//   - Categorization Engine: a deterministic keyword classifier that suggests
//     a category for a free-text description, with no I/O.
//   - Analytics Aggregator: pure functions over a ledger snapshot producing
//     totals, category breakdowns, monthly and daily expense rollups, and
//     budget-threshold status.
//   - Saving Goals: per-principal income and saving-percentage settings from
//     which the available monthly budget is derived.
//
// The remote store, realtime channel and insight service collaborators live
// in the store and insight subpackages; this package has no network or
// storage dependency and stays fully deterministic.
package budgetbook
