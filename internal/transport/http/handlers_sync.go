package httptransport

import (
	"net/http"

	"paygate/internal/storage"
	syncengine "paygate/internal/sync"
	dErrors "paygate/pkg/domain-errors"
	"paygate/pkg/platform/httputil"
)

// SyncHandler serves the combined full-state read used by pull refreshes.
// One response carries every collection so a session converges in a single
// round-trip.
type SyncHandler struct {
	requests storage.RequestStore
	projects storage.ProjectStore
	audit    storage.AuditStore
}

func (h *SyncHandler) handleFullState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requests, err := h.requests.List(ctx)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list requests"))
		return
	}
	projects, err := h.projects.List(ctx)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list projects"))
		return
	}
	auditLogs, err := h.audit.List(ctx)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list audit entries"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, syncengine.Snapshot{
		Requests:  requests,
		Projects:  projects,
		AuditLogs: auditLogs,
	})
}
