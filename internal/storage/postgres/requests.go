package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"paygate/internal/domain"
	"paygate/pkg/platform/sentinel"
)

// RequestStore implements storage.RequestStore on PostgreSQL.
type RequestStore struct {
	db *sql.DB
}

func NewRequestStore(db *sql.DB) *RequestStore {
	return &RequestStore{db: db}
}

const requestColumns = `id, raised_by, raised_by_role, submitted_at, payment_deadline,
	category, purpose, project_id, work_order_number,
	vendor_name, vendor_type, bill_number, bill_date, amount,
	payment_type, payment_mode, account_number, ifsc, upi_id,
	drive_link_bills, drive_link_work_proof,
	cutoff_status, risk, status, utr, proof_link, version`

func (s *RequestStore) Save(ctx context.Context, req domain.PaymentRequest) error {
	_, err := execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO payment_requests (`+requestColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27)`,
		req.ID, req.RaisedBy, req.RaisedByRole, req.Timestamp, req.PaymentDeadline,
		req.Category, req.Purpose, req.ProjectID, req.WorkOrderNumber,
		req.VendorName, req.VendorType, req.BillNumber, req.BillDate, req.Amount,
		req.PaymentType, req.PaymentMode, req.AccountNumber, req.IFSC, req.UPIID,
		req.DriveLinkBills, req.DriveLinkWorkProof,
		req.CutoffStatus, req.Risk, req.Status, req.UTR, req.ProofLink, req.Version,
	)
	if err != nil {
		return fmt.Errorf("insert payment request: %w", err)
	}
	return nil
}

func (s *RequestStore) FindByID(ctx context.Context, id string) (domain.PaymentRequest, error) {
	row := execer(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM payment_requests WHERE id = $1`, id)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PaymentRequest{}, sentinel.ErrNotFound
	}
	if err != nil {
		return domain.PaymentRequest{}, fmt.Errorf("find payment request: %w", err)
	}
	return req, nil
}

// Update applies a compare-and-swap on the version stamp: the row is replaced
// only when the stored version is the one the writer read (req.Version-1).
func (s *RequestStore) Update(ctx context.Context, req domain.PaymentRequest) error {
	res, err := execer(ctx, s.db).ExecContext(ctx, `
		UPDATE payment_requests SET
			cutoff_status = $1, risk = $2, status = $3,
			utr = $4, proof_link = $5, version = $6
		WHERE id = $7 AND version = $8`,
		req.CutoffStatus, req.Risk, req.Status,
		req.UTR, req.ProofLink, req.Version,
		req.ID, req.Version-1,
	)
	if err != nil {
		return fmt.Errorf("update payment request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update payment request: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing row from a stale writer.
		if _, findErr := s.FindByID(ctx, req.ID); errors.Is(findErr, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	return nil
}

func (s *RequestStore) Delete(ctx context.Context, id string) error {
	res, err := execer(ctx, s.db).ExecContext(ctx,
		`DELETE FROM payment_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete payment request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete payment request: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *RequestStore) List(ctx context.Context) ([]domain.PaymentRequest, error) {
	rows, err := execer(ctx, s.db).QueryContext(ctx,
		`SELECT `+requestColumns+` FROM payment_requests ORDER BY submitted_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list payment requests: %w", err)
	}
	defer rows.Close()

	var out []domain.PaymentRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list payment requests: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (domain.PaymentRequest, error) {
	var req domain.PaymentRequest
	err := row.Scan(
		&req.ID, &req.RaisedBy, &req.RaisedByRole, &req.Timestamp, &req.PaymentDeadline,
		&req.Category, &req.Purpose, &req.ProjectID, &req.WorkOrderNumber,
		&req.VendorName, &req.VendorType, &req.BillNumber, &req.BillDate, &req.Amount,
		&req.PaymentType, &req.PaymentMode, &req.AccountNumber, &req.IFSC, &req.UPIID,
		&req.DriveLinkBills, &req.DriveLinkWorkProof,
		&req.CutoffStatus, &req.Risk, &req.Status, &req.UTR, &req.ProofLink, &req.Version,
	)
	return req, err
}
