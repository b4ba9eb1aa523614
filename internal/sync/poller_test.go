package sync_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	syncengine "paygate/internal/sync"
	"paygate/internal/sync/bus"
	"paygate/internal/sync/mocks"
)

func TestPoller_RefreshesOnInterval(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := mocks.NewMockRemote(ctrl)

	var pulls atomic.Int32
	remote.EXPECT().FullState(gomock.Any()).
		DoAndReturn(func(context.Context) (syncengine.Snapshot, error) {
			pulls.Add(1)
			return syncengine.Snapshot{}, nil
		}).MinTimes(3)

	engine, err := syncengine.NewEngine(remote, syncengine.NoopCache{}, bus.NewInMemoryBus(),
		syncengine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	poller := syncengine.NewPoller(engine, syncengine.WithInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- poller.Run(ctx) }()

	require.Eventually(t, func() bool { return pulls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancellation")
	}
}

func TestPoller_KeepsPollingThroughFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	remote := mocks.NewMockRemote(ctrl)

	var pulls atomic.Int32
	remote.EXPECT().FullState(gomock.Any()).
		DoAndReturn(func(context.Context) (syncengine.Snapshot, error) {
			pulls.Add(1)
			return syncengine.Snapshot{}, errConnRefused
		}).MinTimes(2)

	engine, err := syncengine.NewEngine(remote, syncengine.NoopCache{}, bus.NewInMemoryBus(),
		syncengine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	poller := syncengine.NewPoller(engine,
		syncengine.WithInterval(5*time.Millisecond),
		syncengine.WithPollerLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = poller.Run(ctx) }()

	require.Eventually(t, func() bool { return pulls.Load() >= 2 }, time.Second, time.Millisecond)
	assert.Equal(t, syncengine.ModeLocalOnly, engine.Mode(), "failed polls flip the session to local-only")
}
