package sync

import (
	"sync"

	"paygate/internal/domain"
	"paygate/pkg/platform/sentinel"
)

// MutationKind tags an optimistic mutation.
type MutationKind string

const (
	MutationCreateRequest MutationKind = "createRequest"
	MutationUpdateRequest MutationKind = "updateRequest"
	MutationDeleteRequest MutationKind = "deleteRequest"
	MutationCreateProject MutationKind = "createProject"
)

// Mutation is one user-initiated change, applied to the mirror immediately
// and forwarded (or queued) for the authoritative store. Exactly one of the
// payload fields is set, matching Kind.
type Mutation struct {
	Kind    MutationKind            `json:"kind"`
	Request *domain.PaymentRequest  `json:"request,omitempty"`
	Patch   *RequestPatch           `json:"patch,omitempty"`
	ID      string                  `json:"id,omitempty"`
	Project *domain.Project         `json:"project,omitempty"`
}

// Mirror is the session-local copy of the authoritative collections. All
// access goes through its methods; the engine is the only caller that
// mutates it. Applying the same authoritative snapshot twice leaves the
// mirror identical: replacement is wholesale, not merged.
type Mirror struct {
	mu        sync.RWMutex
	requests  []domain.PaymentRequest
	projects  []domain.Project
	auditLogs []domain.AuditLog
}

func NewMirror() *Mirror {
	return &Mirror{}
}

// ApplyAuthoritative replaces the mirror with the authoritative snapshot.
// Idempotent by construction.
func (m *Mirror) ApplyAuthoritative(snap Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append([]domain.PaymentRequest(nil), snap.Requests...)
	m.projects = append([]domain.Project(nil), snap.Projects...)
	m.auditLogs = append([]domain.AuditLog(nil), snap.AuditLogs...)
}

// ApplyOptimistic applies a user mutation locally so the session reflects it
// before any network round-trip. Record identity is stable: re-applying a
// create for an ID already present replaces rather than duplicates, so a
// refresh landing between the optimistic apply and its confirmation cannot
// corrupt the mirror.
func (m *Mirror) ApplyOptimistic(mut Mutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch mut.Kind {
	case MutationCreateRequest:
		if mut.Request == nil {
			return sentinel.ErrInvalidState
		}
		for i, r := range m.requests {
			if r.ID == mut.Request.ID {
				m.requests[i] = *mut.Request
				return nil
			}
		}
		m.requests = append([]domain.PaymentRequest{*mut.Request}, m.requests...)
	case MutationUpdateRequest:
		if mut.Patch == nil {
			return sentinel.ErrInvalidState
		}
		for i := range m.requests {
			if m.requests[i].ID == mut.Patch.ID {
				m.requests[i].Status = mut.Patch.Status
				if mut.Patch.UTR != "" {
					m.requests[i].UTR = mut.Patch.UTR
				}
				if mut.Patch.ProofLink != "" {
					m.requests[i].ProofLink = mut.Patch.ProofLink
				}
				return nil
			}
		}
		return sentinel.ErrNotFound
	case MutationDeleteRequest:
		for i, r := range m.requests {
			if r.ID == mut.ID {
				m.requests = append(m.requests[:i], m.requests[i+1:]...)
				return nil
			}
		}
		return sentinel.ErrNotFound
	case MutationCreateProject:
		if mut.Project == nil {
			return sentinel.ErrInvalidState
		}
		for i, p := range m.projects {
			if p.ID == mut.Project.ID {
				m.projects[i] = *mut.Project
				return nil
			}
		}
		m.projects = append([]domain.Project{*mut.Project}, m.projects...)
	default:
		return sentinel.ErrInvalidState
	}
	return nil
}

// Snapshot returns a deep copy of the mirror's current state.
func (m *Mirror) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		Requests:  append([]domain.PaymentRequest(nil), m.requests...),
		Projects:  append([]domain.Project(nil), m.projects...),
		AuditLogs: append([]domain.AuditLog(nil), m.auditLogs...),
	}
}

// Requests returns the mirrored requests newest-first.
func (m *Mirror) Requests() []domain.PaymentRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.PaymentRequest(nil), m.requests...)
}

// FindRequest looks up one mirrored request by ID.
func (m *Mirror) FindRequest(id string) (domain.PaymentRequest, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.requests {
		if r.ID == id {
			return r, true
		}
	}
	return domain.PaymentRequest{}, false
}
