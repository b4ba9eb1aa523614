package httptransport

import (
	"encoding/json"
	"net/http"

	"paygate/internal/domain"
	"paygate/internal/platform/middleware"
	"paygate/internal/storage"
	dErrors "paygate/pkg/domain-errors"
	"paygate/pkg/platform/httputil"
)

type ProjectHandler struct {
	lifecycle LifecycleService
	projects  storage.ProjectStore
}

func (h *ProjectHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var project domain.Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	created, err := h.lifecycle.CreateProject(r.Context(), actor, project)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *ProjectHandler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.projects.List(r.Context())
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list projects"))
		return
	}
	if list == nil {
		list = []domain.Project{}
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}
