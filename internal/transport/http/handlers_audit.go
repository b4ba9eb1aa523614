package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"paygate/internal/domain"
	"paygate/internal/platform/middleware"
	"paygate/internal/storage"
	dErrors "paygate/pkg/domain-errors"
	"paygate/pkg/platform/httputil"
)

// AuditAppender writes one entry attributed to the acting user. Lifecycle
// transitions append through the same recorder; this interface exists so the
// handler can take entries from operators directly.
type AuditAppender interface {
	Append(ctx context.Context, action, paymentID string, actor domain.User) (domain.AuditLog, error)
}

type AuditHandler struct {
	audit    storage.AuditStore
	recorder AuditAppender
}

type appendAuditRequest struct {
	Action    string `json:"action"`
	PaymentID string `json:"paymentId"`
}

// handleAppend records a free-text entry in the trail. Entries are
// append-only; there is no update or delete.
func (h *AuditHandler) handleAppend(w http.ResponseWriter, r *http.Request) {
	var body appendAuditRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if strings.TrimSpace(body.Action) == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "action is required"))
		return
	}
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	entry, err := h.recorder.Append(r.Context(), body.Action, body.PaymentID, actor)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "append audit entry"))
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, entry)
}

// handleList returns the audit trail newest-first, optionally scoped to one
// payment via ?paymentId=.
func (h *AuditHandler) handleList(w http.ResponseWriter, r *http.Request) {
	var (
		entries []domain.AuditLog
		err     error
	)
	if paymentID := r.URL.Query().Get("paymentId"); paymentID != "" {
		entries, err = h.audit.ListByPayment(r.Context(), paymentID)
	} else {
		entries, err = h.audit.List(r.Context())
	}
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list audit entries"))
		return
	}
	if entries == nil {
		entries = []domain.AuditLog{}
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}
