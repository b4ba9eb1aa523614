package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"paygate/internal/domain"
)

// AuditStore implements storage.AuditStore on PostgreSQL. Append-only: no
// UPDATE or DELETE statement exists in this file on purpose.
type AuditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) Append(ctx context.Context, entry domain.AuditLog) error {
	_, err := execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO audit_logs (id, action, payment_id, user_name, role, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		entry.ID, entry.Action, entry.PaymentID, entry.User, entry.Role, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

func (s *AuditStore) List(ctx context.Context) ([]domain.AuditLog, error) {
	return s.query(ctx, `
		SELECT id, action, payment_id, user_name, role, created_at
		FROM audit_logs ORDER BY created_at DESC, id DESC`)
}

func (s *AuditStore) ListByPayment(ctx context.Context, paymentID string) ([]domain.AuditLog, error) {
	return s.query(ctx, `
		SELECT id, action, payment_id, user_name, role, created_at
		FROM audit_logs WHERE payment_id = $1 ORDER BY created_at DESC, id DESC`, paymentID)
}

func (s *AuditStore) query(ctx context.Context, q string, args ...any) ([]domain.AuditLog, error) {
	rows, err := execer(ctx, s.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditLog
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.PaymentID, &entry.User, &entry.Role, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return out, nil
}
