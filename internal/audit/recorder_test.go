package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygate/internal/domain"
	"paygate/internal/storage"
)

var actor = domain.User{ID: "1", Username: "approver", Name: "Approvals Desk", Role: domain.RoleApprover}

func TestRecorder_Append(t *testing.T) {
	ctx := context.Background()
	store := storage.NewInMemoryAuditStore()
	fixed := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	rec := NewRecorder(store, WithClock(func() time.Time { return fixed }))

	entry, err := rec.Append(ctx, "payment request approved", "req-1", actor)
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "payment request approved", entry.Action)
	assert.Equal(t, "req-1", entry.PaymentID)
	assert.Equal(t, actor.Name, entry.User)
	assert.Equal(t, domain.RoleApprover, entry.Role)
	assert.Equal(t, fixed, entry.Timestamp)

	listed, err := rec.ListByPayment(ctx, "req-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, entry, listed[0])
}

func TestRecorder_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	rec := NewRecorder(storage.NewInMemoryAuditStore())

	_, err := rec.Append(ctx, "submitted", "req-1", actor)
	require.NoError(t, err)
	_, err = rec.Append(ctx, "approved", "req-1", actor)
	require.NoError(t, err)

	all, err := rec.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "approved", all[0].Action)
	assert.Equal(t, "submitted", all[1].Action)
}

type failingAuditStore struct {
	storage.AuditStore
}

func (failingAuditStore) Append(context.Context, domain.AuditLog) error {
	return errors.New("disk full")
}

type capturingMirror struct {
	entries []domain.AuditLog
}

func (m *capturingMirror) Publish(_ context.Context, entry domain.AuditLog) {
	m.entries = append(m.entries, entry)
}

func TestRecorder_StoreFailureIsCallerFailure(t *testing.T) {
	mirror := &capturingMirror{}
	rec := NewRecorder(failingAuditStore{}, WithMirror(mirror))

	_, err := rec.Append(context.Background(), "approved", "req-1", actor)
	assert.Error(t, err)
	assert.Empty(t, mirror.entries, "mirror must not see entries the store rejected")
}

func TestRecorder_MirrorReceivesCopies(t *testing.T) {
	mirror := &capturingMirror{}
	rec := NewRecorder(storage.NewInMemoryAuditStore(), WithMirror(mirror))

	_, err := rec.Append(context.Background(), "submitted", "req-1", actor)
	require.NoError(t, err)
	require.Len(t, mirror.entries, 1)
	assert.Equal(t, "submitted", mirror.entries[0].Action)
}
