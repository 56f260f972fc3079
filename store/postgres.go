package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ledgerline/budgetbook"
	"github.com/ledgerline/budgetbook/date"
	"github.com/shopspring/decimal"
)

// Postgres is the remote store client. All reads and writes are scoped to a
// single owner; the server enforces the same scoping on its side.
type Postgres struct {
	db  *pgxpool.Pool
	dsn string
}

// Open connects to the remote store and verifies the connection.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, &StoreError{Op: "connect", Err: err}
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, &StoreError{Op: "ping", Err: err}
	}
	return &Postgres{db: db, dsn: dsn}, nil
}

// Close releases the connection pool.
func (s *Postgres) Close() { s.db.Close() }

// Transactions fetches the full transaction set of an owner, ordered by date
// descending. It is the bulk fetch that seeds the ledger once per session.
func (s *Postgres) Transactions(ctx context.Context, owner string) ([]budgetbook.Transaction, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, amount::text, category, description, date, type, created_at, change_seq
		FROM transactions
		WHERE user_id = $1
		ORDER BY date DESC, id ASC
	`, owner)
	if err != nil {
		return nil, &StoreError{Op: "select transactions", Err: err}
	}
	defer rows.Close()

	var txs []budgetbook.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, &StoreError{Op: "select transactions", Err: err}
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "select transactions", Err: err}
	}
	return txs, nil
}

type row interface {
	Scan(dest ...any) error
}

func scanTransaction(r row) (budgetbook.Transaction, error) {
	var (
		tx        budgetbook.Transaction
		amount    string
		kind      string
		when      time.Time
		createdAt time.Time
	)
	if err := r.Scan(&tx.ID, &tx.OwnerID, &amount, &tx.Category, &tx.Description, &when, &kind, &createdAt, &tx.Seq); err != nil {
		return tx, fmt.Errorf("scan transaction: %w", err)
	}
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return tx, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	k, err := budgetbook.ParseKind(kind)
	if err != nil {
		return tx, err
	}
	tx.Amount = dec
	tx.Kind = k
	tx.Date = date.New(when.Date())
	tx.CreatedAt = createdAt
	return tx, nil
}

// Insert writes one transaction and returns the inserted row as confirmed by
// the store, including its assigned id, creation time and change sequence.
// On error the caller must leave the ledger untouched.
func (s *Postgres) Insert(ctx context.Context, tx budgetbook.Transaction) (budgetbook.Transaction, error) {
	err := s.db.QueryRow(ctx, `
		INSERT INTO transactions (user_id, amount, category, description, date, type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, change_seq
	`, tx.OwnerID, tx.Amount.String(), tx.Category, tx.Description, tx.Date.Format(date.DateFormat), string(tx.Kind)).
		Scan(&tx.ID, &tx.CreatedAt, &tx.Seq)
	if err != nil {
		return budgetbook.Transaction{}, &StoreError{Op: "insert transaction", Err: err}
	}
	return tx, nil
}

// Delete removes a transaction by the compound match {id, owner}. Deleting
// an id the store no longer has is not an error.
func (s *Postgres) Delete(ctx context.Context, id, owner string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, owner)
	if err != nil {
		return &StoreError{Op: "delete transaction", Err: err}
	}
	return nil
}

// UpsertGoal writes the owner's saving goal, replacing any previous record
// (one record per owner, last write wins).
func (s *Postgres) UpsertGoal(ctx context.Context, goal budgetbook.SavingGoal) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO saving_goals (user_id, monthly_income, saving_percentage)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET monthly_income = EXCLUDED.monthly_income, saving_percentage = EXCLUDED.saving_percentage
	`, goal.OwnerID, goal.MonthlyIncome.String(), float64(goal.SavingPercentage))
	if err != nil {
		return &StoreError{Op: "upsert saving goal", Err: err}
	}
	return nil
}

// Goal fetches the owner's saving goal. The second return value reports
// whether a record exists.
func (s *Postgres) Goal(ctx context.Context, owner string) (budgetbook.SavingGoal, bool, error) {
	var (
		income string
		pct    float64
	)
	err := s.db.QueryRow(ctx, `
		SELECT monthly_income::text, saving_percentage FROM saving_goals WHERE user_id = $1
	`, owner).Scan(&income, &pct)
	if errors.Is(err, pgx.ErrNoRows) {
		return budgetbook.SavingGoal{}, false, nil
	}
	if err != nil {
		return budgetbook.SavingGoal{}, false, &StoreError{Op: "select saving goal", Err: err}
	}
	dec, err := decimal.NewFromString(income)
	if err != nil {
		return budgetbook.SavingGoal{}, false, &StoreError{Op: "select saving goal", Err: fmt.Errorf("parse monthly income %q: %w", income, err)}
	}
	return budgetbook.SavingGoal{OwnerID: owner, MonthlyIncome: dec, SavingPercentage: budgetbook.Percent(pct)}, true, nil
}
