// Package audit records the immutable trail. Every status-changing lifecycle
// operation appends exactly one entry through the Recorder before the
// operation is considered complete; the synchronous store append failing
// fails the whole transition.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"paygate/internal/domain"
	"paygate/internal/storage"
)

// Mirror receives a best-effort copy of every appended entry, typically the
// Kafka publisher. Mirror failures never fail the append.
type Mirror interface {
	Publish(ctx context.Context, entry domain.AuditLog)
}

// Recorder appends audit entries. It is append-only and uses the storage
// layer for persistence so tests can swap sinks easily.
type Recorder struct {
	store  storage.AuditStore
	mirror Mirror
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithMirror attaches a best-effort downstream sink.
func WithMirror(m Mirror) Option {
	return func(r *Recorder) { r.mirror = m }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRecorder(store storage.AuditStore, opts ...Option) *Recorder {
	r := &Recorder{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Append persists one entry. The store write is synchronous and its error is
// the caller's error; the mirror copy is fire-and-forget.
func (r *Recorder) Append(ctx context.Context, action, paymentID string, actor domain.User) (domain.AuditLog, error) {
	entry := domain.AuditLog{
		ID:        uuid.NewString(),
		Action:    action,
		PaymentID: paymentID,
		User:      actor.Name,
		Role:      actor.Role,
		Timestamp: r.now(),
	}
	if err := r.store.Append(ctx, entry); err != nil {
		return domain.AuditLog{}, err
	}
	if r.mirror != nil {
		r.mirror.Publish(ctx, entry)
	}
	return entry, nil
}

// List returns the trail newest-first.
func (r *Recorder) List(ctx context.Context) ([]domain.AuditLog, error) {
	return r.store.List(ctx)
}

// ListByPayment returns one request's trail newest-first.
func (r *Recorder) ListByPayment(ctx context.Context, paymentID string) ([]domain.AuditLog, error) {
	return r.store.ListByPayment(ctx, paymentID)
}
