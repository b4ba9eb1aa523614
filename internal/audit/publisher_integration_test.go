//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"paygate/internal/audit"
	"paygate/internal/domain"
	"paygate/pkg/testutil/containers"
)

func TestKafkaPublisher_MirrorsEntries(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	redpanda := containers.NewRedpandaContainer(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	const topic = "paygate.audit.test"
	publisher, err := audit.NewKafkaPublisher(ctx, audit.KafkaConfig{
		Brokers: redpanda.Brokers,
		Topic:   topic,
	}, logger)
	require.NoError(t, err)

	entry := domain.AuditLog{
		ID:        uuid.NewString(),
		Action:    "Payment request submitted",
		PaymentID: uuid.NewString(),
		User:      "Submission Desk",
		Role:      domain.RoleSubmission,
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
	}
	publisher.Publish(ctx, entry)
	publisher.Close() // drains the inbox before returning

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(fetchCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, entry.PaymentID, string(records[0].Key), "keyed by payment for per-request ordering")

	var got domain.AuditLog
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, entry.Action, got.Action)
}
