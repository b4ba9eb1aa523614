// Package postgres backs the storage interfaces with PostgreSQL. All stores
// honor a transaction carried in context (pkg/platform/tx) so the lifecycle
// service can bind a status write and its audit append into one commit.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	txcontext "paygate/pkg/platform/tx"
)

// Open connects and verifies the database, returning a handle shared by all
// stores.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Schema creates the tables when they do not exist. Idempotent; ran at
// startup so the default deployment needs no migration tooling.
const Schema = `
CREATE TABLE IF NOT EXISTS payment_requests (
	id                    TEXT PRIMARY KEY,
	raised_by             TEXT NOT NULL,
	raised_by_role        TEXT NOT NULL DEFAULT '',
	submitted_at          TIMESTAMPTZ NOT NULL,
	payment_deadline      TIMESTAMPTZ NOT NULL,
	category              TEXT NOT NULL,
	purpose               TEXT NOT NULL DEFAULT '',
	project_id            TEXT NOT NULL DEFAULT '',
	work_order_number     TEXT NOT NULL DEFAULT '',
	vendor_name           TEXT NOT NULL,
	vendor_type           TEXT NOT NULL DEFAULT '',
	bill_number           TEXT NOT NULL DEFAULT '',
	bill_date             TEXT NOT NULL DEFAULT '',
	amount                BIGINT NOT NULL,
	payment_type          TEXT NOT NULL DEFAULT '',
	payment_mode          TEXT NOT NULL DEFAULT '',
	account_number        TEXT NOT NULL DEFAULT '',
	ifsc                  TEXT NOT NULL DEFAULT '',
	upi_id                TEXT NOT NULL DEFAULT '',
	drive_link_bills      TEXT NOT NULL DEFAULT '',
	drive_link_work_proof TEXT NOT NULL DEFAULT '',
	cutoff_status         TEXT NOT NULL,
	risk                  TEXT NOT NULL,
	status                TEXT NOT NULL,
	utr                   TEXT NOT NULL DEFAULT '',
	proof_link            TEXT NOT NULL DEFAULT '',
	version               BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	client_details TEXT NOT NULL DEFAULT '',
	location       TEXT NOT NULL DEFAULT '',
	in_charge      TEXT NOT NULL DEFAULT '',
	budget         BIGINT NOT NULL,
	phase          TEXT NOT NULL,
	current_work   TEXT NOT NULL DEFAULT '',
	next_work      TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_logs (
	id         TEXT PRIMARY KEY,
	action     TEXT NOT NULL,
	payment_id TEXT NOT NULL DEFAULT '',
	user_name  TEXT NOT NULL,
	role       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_logs_payment ON audit_logs (payment_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_payment_requests_submitted ON payment_requests (submitted_at DESC);
`

// EnsureSchema applies Schema.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// executor is satisfied by *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func execer(ctx context.Context, db *sql.DB) executor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return db
}

// TxRunner opens a real transaction and threads it through context so every
// store call inside fn joins the same commit.
type TxRunner struct {
	db *sql.DB
}

func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{db: db}
}

func (r *TxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(txcontext.WithTx(ctx, sqlTx)); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
