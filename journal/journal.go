// Package journal is the durable, append-only record of booked transactions.
// It stores rendered entries together with their postings in SQLite and
// answers the balance queries reconciliation and VAT closing need.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/shopspring/decimal"

	"github.com/haskoe/ledger/ledger"
)

const dateLayout = "2006-01-02"

// ErrAlreadyApproved is returned when a period is approved twice.
var ErrAlreadyApproved = errors.New("period is already approved")

// Journal is an open journal database.
type Journal struct {
	db   *sql.DB
	path string
}

// DatedBalance is the balance of an account at the end of a date.
type DatedBalance struct {
	Date    time.Time
	Balance decimal.Decimal
}

// Entry is a transaction with its rendered text.
type Entry struct {
	Transaction *ledger.Transaction
	Text        string
}

// Open opens the journal at path, creating the file and schema if needed.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open journal %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}

	return &Journal{db: db, path: path}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.path
}

// AppendEntry appends one transaction and its rendered text.
func (j *Journal) AppendEntry(ctx context.Context, txn *ledger.Transaction, text string) error {
	return j.Append(ctx, []Entry{{Transaction: txn, Text: text}})
}

// Append appends entries in order, all or none.
func (j *Journal) Append(ctx context.Context, entries []Entry) error {
	return j.transaction(ctx, func(tx *sql.Tx) error {
		for _, e := range entries {
			if err := appendEntry(ctx, tx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

// ApprovePeriod appends the entries generated for period and marks the
// period approved, all or none. A period can be approved once.
func (j *Journal) ApprovePeriod(ctx context.Context, period string, entries []Entry) error {
	return j.transaction(ctx, func(tx *sql.Tx) error {
		var n int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM approvals WHERE period = ?`, period).Scan(&n)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: %s", ErrAlreadyApproved, period)
		}

		for _, e := range entries {
			if err := appendEntry(ctx, tx, e); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO approvals (period, entries) VALUES (?, ?)`, period, len(entries))
		return err
	})
}

// Approved reports whether period has been approved.
func (j *Journal) Approved(ctx context.Context, period string) (bool, error) {
	var n int
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM approvals WHERE period = ?`, period).Scan(&n)
	return n > 0, err
}

func appendEntry(ctx context.Context, tx *sql.Tx, e Entry) error {
	txn := e.Transaction
	date := txn.Date().Format(dateLayout)

	res, err := tx.ExecContext(ctx,
		`INSERT INTO entries (entry_date, narration, template_id, link, body) VALUES (?, ?, ?, ?, ?)`,
		date, txn.Narration(), txn.TemplateID(), txn.Link(), e.Text)
	if err != nil {
		return fmt.Errorf("failed to append entry %s %q: %w", date, txn.Narration(), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, p := range txn.Postings() {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO postings (entry_id, entry_date, account, amount) VALUES (?, ?, ?, ?)`,
			id, date, p.Account, p.Amount.String())
		if err != nil {
			return fmt.Errorf("failed to append posting to %s: %w", p.Account, err)
		}
	}
	return nil
}

// BalanceInPeriod returns the balance of account, including its
// sub-accounts, at the end of every date in [start, end] that has postings.
// Balances are cumulative: postings before start count toward them.
func (j *Journal) BalanceInPeriod(ctx context.Context, account string, start, end time.Time) ([]DatedBalance, error) {
	opening, err := j.sum(ctx, account, "", start.AddDate(0, 0, -1).Format(dateLayout))
	if err != nil {
		return nil, err
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT entry_date, amount FROM postings
		WHERE `+accountClause+` AND entry_date >= ? AND entry_date <= ?
		ORDER BY entry_date, id`,
		accountArgs(account, start.Format(dateLayout), end.Format(dateLayout))...)
	if err != nil {
		return nil, fmt.Errorf("failed to query balance of %s: %w", account, err)
	}
	defer rows.Close()

	var out []DatedBalance
	balance := opening
	for rows.Next() {
		var date, amount string
		if err := rows.Scan(&date, &amount); err != nil {
			return nil, err
		}
		d, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, fmt.Errorf("invalid posting date %q: %w", date, err)
		}
		a, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("invalid posting amount %q: %w", amount, err)
		}

		balance = balance.Add(a)
		if n := len(out); n > 0 && out[n-1].Date.Equal(d) {
			out[n-1].Balance = balance
			continue
		}
		out = append(out, DatedBalance{Date: d, Balance: balance})
	}

	return out, rows.Err()
}

// SumInPeriod returns the sum of postings to account, including its
// sub-accounts, dated within [start, end].
func (j *Journal) SumInPeriod(ctx context.Context, account string, start, end time.Time) (decimal.Decimal, error) {
	return j.sum(ctx, account, start.Format(dateLayout), end.Format(dateLayout))
}

// BalanceAt returns the balance of account at the end of date.
func (j *Journal) BalanceAt(ctx context.Context, account string, date time.Time) (decimal.Decimal, error) {
	return j.sum(ctx, account, "", date.Format(dateLayout))
}

// Count returns the number of entries.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n)
	return n, err
}

func (j *Journal) sum(ctx context.Context, account, from, to string) (decimal.Decimal, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT amount FROM postings
		WHERE `+accountClause+` AND entry_date >= ? AND entry_date <= ?`,
		accountArgs(account, from, to)...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query postings of %s: %w", account, err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, err
		}
		a, err := decimal.NewFromString(amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid posting amount %q: %w", amount, err)
		}
		total = total.Add(a)
	}

	return total, rows.Err()
}

// accountClause matches an account and its sub-accounts. substr counts
// characters, hence the rune count in accountArgs.
const accountClause = `(account = ? OR substr(account, 1, ?) = ?)`

func accountArgs(account string, rest ...any) []any {
	prefix := account + ":"
	args := []any{account, utf8.RuneCountInString(prefix), prefix}
	return append(args, rest...)
}

func (j *Journal) transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%v (rollback failed: %w)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
