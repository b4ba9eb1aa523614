package storage

import (
	"context"

	"paygate/internal/domain"
)

// Stores are interface-driven to keep the domain logic testable and to allow
// swapping in-memory, file-based, or external persistence without rewiring
// business code. The lifecycle service is the only writer of request status;
// stores enforce nothing beyond shape and the version stamp.
type RequestStore interface {
	Save(ctx context.Context, req domain.PaymentRequest) error
	FindByID(ctx context.Context, id string) (domain.PaymentRequest, error)
	// Update replaces the stored record if and only if the stored version
	// equals req.Version-1 (the version the writer read). Stale writers
	// get sentinel.ErrConflict.
	Update(ctx context.Context, req domain.PaymentRequest) error
	Delete(ctx context.Context, id string) error
	// List returns all requests newest-first.
	List(ctx context.Context) ([]domain.PaymentRequest, error)
}

type ProjectStore interface {
	Save(ctx context.Context, project domain.Project) error
	FindByID(ctx context.Context, id string) (domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
}

// AuditStore is append-only. No update or delete exists for this entity.
type AuditStore interface {
	Append(ctx context.Context, entry domain.AuditLog) error
	// List returns entries newest-first.
	List(ctx context.Context) ([]domain.AuditLog, error)
	// ListByPayment returns entries for one request newest-first.
	ListByPayment(ctx context.Context, paymentID string) ([]domain.AuditLog, error)
}

// TxRunner scopes a function to one atomic unit. The lifecycle service runs
// each status write and its audit append inside one InTx call so neither can
// survive without the other. The in-memory runner relies on single-process
// mutation under the engine's locks; the Postgres runner opens a real
// transaction and threads it through context.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}
