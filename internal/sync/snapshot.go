// Package sync reconciles a client session's local mirror with the
// authoritative store. It is the sole writer of the mirror: pull refreshes
// replace it with authoritative state, user mutations are applied
// optimistically and forwarded, and when the store is unreachable the engine
// runs local-only against a durable snapshot cache until the connection
// returns.
package sync

import (
	"context"

	"paygate/internal/domain"
)

// Snapshot is the combined full-state read: one call returning every
// collection, the preferred shape for pull refreshes.
type Snapshot struct {
	Projects  []domain.Project        `json:"projects"`
	Requests  []domain.PaymentRequest `json:"requests"`
	AuditLogs []domain.AuditLog       `json:"auditLogs"`
}

// RequestPatch is the partial update a session sends for a status change.
type RequestPatch struct {
	ID        string        `json:"id"`
	Status    domain.Status `json:"status"`
	UTR       string        `json:"utr,omitempty"`
	ProofLink string        `json:"proofLink,omitempty"`
	Version   int64         `json:"version,omitempty"`
}

//go:generate mockgen -source=snapshot.go -destination=mocks/remote_mock.go -package=mocks Remote

// Remote is the authoritative store as seen from a session. The HTTP client
// implements it; tests substitute a mock.
type Remote interface {
	FullState(ctx context.Context) (Snapshot, error)
	CreateRequest(ctx context.Context, req domain.PaymentRequest) (domain.PaymentRequest, error)
	UpdateRequest(ctx context.Context, patch RequestPatch) (domain.PaymentRequest, error)
	DeleteRequest(ctx context.Context, id string) error
	CreateProject(ctx context.Context, project domain.Project) (domain.Project, error)
}
