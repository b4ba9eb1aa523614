package storage

import (
	"context"
	"sync"

	"paygate/internal/domain"
	"paygate/pkg/platform/sentinel"
)

// In-memory stores keep the default deployment dependency-free and back the
// unit tests. They intentionally favor clarity over performance.

type InMemoryRequestStore struct {
	mu       sync.RWMutex
	requests map[string]domain.PaymentRequest
	order    []string
}

func NewInMemoryRequestStore() *InMemoryRequestStore {
	return &InMemoryRequestStore{requests: make(map[string]domain.PaymentRequest)}
}

func (s *InMemoryRequestStore) Save(_ context.Context, req domain.PaymentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[req.ID]; ok {
		return sentinel.ErrConflict
	}
	s.requests[req.ID] = req
	s.order = append(s.order, req.ID)
	return nil
}

func (s *InMemoryRequestStore) FindByID(_ context.Context, id string) (domain.PaymentRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if req, ok := s.requests[id]; ok {
		return req, nil
	}
	return domain.PaymentRequest{}, sentinel.ErrNotFound
}

func (s *InMemoryRequestStore) Update(_ context.Context, req domain.PaymentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.requests[req.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != req.Version-1 {
		return sentinel.ErrConflict
	}
	s.requests[req.ID] = req
	return nil
}

func (s *InMemoryRequestStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.requests, id)
	for i, other := range s.order {
		if other == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *InMemoryRequestStore) List(_ context.Context) ([]domain.PaymentRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PaymentRequest, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.requests[s.order[i]])
	}
	return out, nil
}

type InMemoryProjectStore struct {
	mu       sync.RWMutex
	projects map[string]domain.Project
	order    []string
}

func NewInMemoryProjectStore() *InMemoryProjectStore {
	return &InMemoryProjectStore{projects: make(map[string]domain.Project)}
}

func (s *InMemoryProjectStore) Save(_ context.Context, project domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[project.ID]; !ok {
		s.order = append(s.order, project.ID)
	}
	s.projects[project.ID] = project
	return nil
}

func (s *InMemoryProjectStore) FindByID(_ context.Context, id string) (domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if project, ok := s.projects[id]; ok {
		return project, nil
	}
	return domain.Project{}, sentinel.ErrNotFound
}

func (s *InMemoryProjectStore) List(_ context.Context) ([]domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Project, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.projects[s.order[i]])
	}
	return out, nil
}

type InMemoryAuditStore struct {
	mu      sync.RWMutex
	entries []domain.AuditLog
}

func NewInMemoryAuditStore() *InMemoryAuditStore {
	return &InMemoryAuditStore{}
}

func (s *InMemoryAuditStore) Append(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *InMemoryAuditStore) List(_ context.Context) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AuditLog, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}

func (s *InMemoryAuditStore) ListByPayment(_ context.Context, paymentID string) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AuditLog
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].PaymentID == paymentID {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

// NoopTxRunner executes the function directly. The in-memory stores mutate
// under their own locks within one process, so there is no transaction to
// open.
type NoopTxRunner struct{}

func (NoopTxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
