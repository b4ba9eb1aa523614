package sync

import (
	"context"
	"encoding/json"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"paygate/internal/domain"
	"paygate/internal/sync/bus"
	syncmetrics "paygate/internal/sync/metrics"
	"paygate/pkg/platform/circuit"
)

// Mode is the session's connectivity state, always visible to the operator
// so they know whether their actions are durable beyond this device.
type Mode string

const (
	// ModeAuthoritative: mutations reach the central store.
	ModeAuthoritative Mode = "authoritative"
	// ModeLocalOnly: the store is unreachable; mutations persist to the
	// local cache and queue for retransmission.
	ModeLocalOnly Mode = "local-only"
)

const defaultCallTimeout = 5 * time.Second

// Engine reconciles the session's mirror with the authoritative store. It is
// the mirror's sole writer. Consistency provided is eventual, last-pull-wins
// per record: the next successful pull converges the mirror to the
// authoritative truth regardless of what optimistic state preceded it.
type Engine struct {
	sessionID string
	mirror    *Mirror
	remote    Remote
	cache     Cache
	queue     *pendingQueue
	bus       bus.Bus
	breaker   *circuit.Breaker
	logger    *slog.Logger
	metrics   *syncmetrics.Metrics
	timeout   time.Duration

	droppedMu   gosync.Mutex
	droppedSeen int64

	unsubscribe func()
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithMetrics(m *syncmetrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithCallTimeout bounds every remote call. No unbounded hangs.
func WithCallTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithQueueCapacity bounds the retransmission queue.
func WithQueueCapacity(n int) Option {
	return func(e *Engine) { e.queue = newPendingQueue(n) }
}

// WithSessionID fixes the sender identity, mainly for tests.
func WithSessionID(id string) Option {
	return func(e *Engine) {
		if id != "" {
			e.sessionID = id
		}
	}
}

// NewEngine builds an engine around the given remote, durable cache, and
// broadcast bus. The previous state, if any, primes the mirror so a
// restarted session has data before its first pull, and re-queues the
// mutations that were still awaiting retransmission when the session ended.
func NewEngine(remote Remote, cache Cache, broadcast bus.Bus, opts ...Option) (*Engine, error) {
	e := &Engine{
		sessionID: uuid.NewString(),
		mirror:    NewMirror(),
		remote:    remote,
		cache:     cache,
		queue:     newPendingQueue(0),
		bus:       broadcast,
		breaker:   circuit.New("authoritative-store", circuit.WithFailureThreshold(1), circuit.WithSuccessThreshold(1)),
		logger:    slog.Default(),
		timeout:   defaultCallTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}

	if state, ok, err := cache.Load(); err != nil {
		return nil, err
	} else if ok {
		e.mirror.ApplyAuthoritative(state.Snapshot)
		for _, mut := range state.Pending {
			e.queue.Enqueue(mut)
		}
	}

	return e, nil
}

// Start subscribes to the broadcast bus. Messages from sibling sessions
// trigger an immediate refresh; the engine's own messages are ignored.
func (e *Engine) Start(ctx context.Context) error {
	unsub, err := e.bus.Subscribe(ctx, func(msg bus.Message) {
		if msg.SenderID == e.sessionID {
			return
		}
		refreshCtx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		if err := e.Refresh(refreshCtx); err != nil {
			e.logger.Debug("broadcast-triggered refresh failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	e.unsubscribe = unsub
	return nil
}

// Stop releases the bus subscription.
func (e *Engine) Stop() {
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
}

// SessionID is the engine's sender identity on the broadcast bus.
func (e *Engine) SessionID() string { return e.sessionID }

// Mode reports the current connectivity state.
func (e *Engine) Mode() Mode {
	if e.breaker.IsOpen() {
		return ModeLocalOnly
	}
	return ModeAuthoritative
}

// Snapshot exposes the mirror's current state.
func (e *Engine) Snapshot() Snapshot { return e.mirror.Snapshot() }

// Requests exposes the mirrored requests newest-first.
func (e *Engine) Requests() []domain.PaymentRequest { return e.mirror.Requests() }

// PendingMutations reports how many mutations await retransmission.
func (e *Engine) PendingMutations() int { return e.queue.Len() }

// Refresh performs one pull: fetch the authoritative snapshot and replace
// the mirror. On reconnection after an outage, queued local mutations are
// retransmitted first so records created offline are not lost, then the
// authoritative state (which now includes them) wins wholesale.
func (e *Engine) Refresh(ctx context.Context) error {
	if e.metrics != nil {
		e.metrics.Pulls.Inc()
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	snap, err := e.remote.FullState(callCtx)
	cancel()
	if err != nil {
		e.recordFailure(err)
		return err
	}
	e.recordSuccess()

	if e.queue.Len() > 0 {
		sent, replayErr := e.replayPending(ctx)
		if replayErr != nil {
			// The mirror keeps its optimistic state; applying the
			// pre-replay snapshot would hide the queued records.
			return replayErr
		}
		if sent > 0 {
			// Re-fetch so the replayed mutations are reflected.
			callCtx, cancel := context.WithTimeout(ctx, e.timeout)
			snap, err = e.remote.FullState(callCtx)
			cancel()
			if err != nil {
				e.recordFailure(err)
				return err
			}
		}
	}

	e.mirror.ApplyAuthoritative(snap)
	e.persistState()
	return nil
}

// replayPending retransmits queued mutations in FIFO order. A failure
// mid-replay requeues the remainder and stops; nothing sent is lost.
func (e *Engine) replayPending(ctx context.Context) (int, error) {
	pending := e.queue.DequeueAll()
	sent := 0
	for i, mut := range pending {
		if err := e.forward(ctx, mut); err != nil {
			e.logger.Warn("replay interrupted, requeueing remainder",
				"sent", sent, "remaining", len(pending)-i, "error", err)
			e.queue.Requeue(pending[i:])
			e.recordFailure(err)
			e.updateQueueGauge()
			// Drop the sent prefix from the durable queue so a
			// restart does not retransmit it.
			e.persistState()
			return sent, err
		}
		sent++
		if e.metrics != nil {
			e.metrics.ReplayedTotal.Inc()
		}
	}
	e.updateQueueGauge()
	return sent, nil
}

// SubmitRequest applies a locally-built request to the mirror immediately,
// then forwards it. In local-only mode (or on transport failure) the
// mutation is cached and queued, never dropped.
func (e *Engine) SubmitRequest(ctx context.Context, req domain.PaymentRequest) error {
	mut := Mutation{Kind: MutationCreateRequest, Request: &req}
	if err := e.mirror.ApplyOptimistic(mut); err != nil {
		return err
	}
	return e.dispatch(ctx, mut, bus.TypeNewRequest, req.ID)
}

// UpdateRequestStatus applies a status patch optimistically and forwards it.
func (e *Engine) UpdateRequestStatus(ctx context.Context, patch RequestPatch) error {
	mut := Mutation{Kind: MutationUpdateRequest, Patch: &patch}
	if err := e.mirror.ApplyOptimistic(mut); err != nil {
		return err
	}
	return e.dispatch(ctx, mut, bus.TypeStatusUpdate, patch.ID)
}

// DeleteRequest removes a record optimistically and forwards the erase.
func (e *Engine) DeleteRequest(ctx context.Context, id string) error {
	mut := Mutation{Kind: MutationDeleteRequest, ID: id}
	if err := e.mirror.ApplyOptimistic(mut); err != nil {
		return err
	}
	return e.dispatch(ctx, mut, bus.TypeStatusUpdate, id)
}

// CreateProject applies a project optimistically and forwards it.
func (e *Engine) CreateProject(ctx context.Context, project domain.Project) error {
	mut := Mutation{Kind: MutationCreateProject, Project: &project}
	if err := e.mirror.ApplyOptimistic(mut); err != nil {
		return err
	}
	return e.dispatch(ctx, mut, bus.TypeRefresh, project.ID)
}

// dispatch forwards a mutation to the authoritative store, falling back to
// the queue when the store is unreachable. The optimistic mirror state is
// persisted either way; if the forward ultimately failed server-side the
// next successful pull corrects the mirror.
func (e *Engine) dispatch(ctx context.Context, mut Mutation, msgType bus.MessageType, subjectID string) error {
	defer e.persistState()

	if e.Mode() == ModeLocalOnly {
		e.queue.Enqueue(mut)
		e.updateQueueGauge()
		return nil
	}

	if err := e.forward(ctx, mut); err != nil {
		e.recordFailure(err)
		e.queue.Enqueue(mut)
		e.updateQueueGauge()
		e.logger.Warn("mutation queued after transport failure",
			"kind", mut.Kind, "subject", subjectID, "error", err)
		return nil
	}
	e.recordSuccess()
	e.broadcast(ctx, msgType, subjectID)
	return nil
}

// forward performs the remote call for one mutation, bounded by the call
// timeout.
func (e *Engine) forward(ctx context.Context, mut Mutation) error {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	switch mut.Kind {
	case MutationCreateRequest:
		_, err := e.remote.CreateRequest(callCtx, *mut.Request)
		return err
	case MutationUpdateRequest:
		_, err := e.remote.UpdateRequest(callCtx, *mut.Patch)
		return err
	case MutationDeleteRequest:
		return e.remote.DeleteRequest(callCtx, mut.ID)
	case MutationCreateProject:
		_, err := e.remote.CreateProject(callCtx, *mut.Project)
		return err
	}
	return nil
}

func (e *Engine) broadcast(ctx context.Context, msgType bus.MessageType, subjectID string) {
	payload, _ := json.Marshal(map[string]string{"id": subjectID})
	msg := bus.Message{Type: msgType, Payload: payload, SenderID: e.sessionID}
	if err := e.bus.Publish(ctx, msg); err != nil {
		e.logger.Debug("broadcast failed", "type", msgType, "error", err)
		return
	}
	if e.metrics != nil {
		e.metrics.BroadcastsSent.Inc()
	}
}

func (e *Engine) persistState() {
	state := State{Snapshot: e.mirror.Snapshot(), Pending: e.queue.Items()}
	if err := e.cache.Save(state); err != nil {
		e.logger.Warn("state cache write failed", "error", err)
	}
}

func (e *Engine) recordFailure(err error) {
	_, change := e.breaker.RecordFailure()
	if change.Opened {
		e.logger.Warn("authoritative store unreachable, entering local-only mode", "error", err)
	}
	if e.metrics != nil {
		e.metrics.PullFailures.Inc()
		e.metrics.FallbackMode.Set(1)
	}
}

func (e *Engine) recordSuccess() {
	_, change := e.breaker.RecordSuccess()
	if change.Closed {
		e.logger.Info("authoritative store reachable again, leaving local-only mode")
	}
	if e.metrics != nil {
		e.metrics.FallbackMode.Set(0)
	}
}

func (e *Engine) updateQueueGauge() {
	if e.metrics == nil {
		return
	}
	e.metrics.PendingQueue.Set(float64(e.queue.Len()))
	e.droppedMu.Lock()
	defer e.droppedMu.Unlock()
	if dropped := e.queue.Dropped(); dropped > e.droppedSeen {
		e.metrics.QueuedDropped.Add(float64(dropped - e.droppedSeen))
		e.droppedSeen = dropped
	}
}
