package budgetbook

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ledgerline/budgetbook/date"
	"github.com/shopspring/decimal"
)

// Kind is a typed string for the direction of a transaction.
type Kind string

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// ParseKind parses a string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	default:
		return "", fmt.Errorf("unknown transaction kind: %q", s)
	}
}

func (k Kind) String() string { return string(k) }

// Transaction is a single financial movement of a principal.
//
// The amount is always a positive magnitude: the direction is carried by the
// kind, never by a negative amount. The JSON tags match the columns of the
// remote transactions table, which is also the shape of realtime change
// records.
type Transaction struct {
	ID          string          `json:"id" validate:"required"`
	OwnerID     string          `json:"user_id" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        date.Date       `json:"date"`
	Kind        Kind            `json:"type" validate:"required,oneof=income expense"`
	CreatedAt   time.Time       `json:"created_at"`

	// Seq is the remote change sequence number under which this record was
	// last written. It is not a column of the record itself: it is assigned
	// by the store on insert and carried on every change event, and the
	// ledger uses it to discard stale echoes.
	Seq int64 `json:"-"`
}

var validate = validator.New()

// Validate checks a transaction against the record schema. It is the guard
// applied to every inbound record (query rows and realtime events) before it
// may reach the ledger.
func (t Transaction) Validate() error {
	if err := validate.Struct(t); err != nil {
		return &ValidationError{ID: t.ID, Err: err}
	}
	if !t.Amount.IsPositive() {
		return &ValidationError{ID: t.ID, Err: fmt.Errorf("amount %s is not strictly positive", t.Amount)}
	}
	if t.Date.IsZero() {
		return &ValidationError{ID: t.ID, Err: fmt.Errorf("date is missing")}
	}
	return nil
}

// ValidationError reports a malformed inbound record. Malformed records are
// rejected and logged at the reconciler boundary rather than inserted.
type ValidationError struct {
	ID  string
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid transaction record %q: %v", e.ID, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
