package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"paygate/internal/domain"
	"paygate/internal/lifecycle"
	"paygate/internal/platform/middleware"
	"paygate/internal/storage"
	dErrors "paygate/pkg/domain-errors"
	"paygate/pkg/platform/httputil"
)

// LifecycleService is the slice of the lifecycle package the transport needs.
type LifecycleService interface {
	Submit(ctx context.Context, actor domain.User, in lifecycle.SubmitInput) (domain.PaymentRequest, error)
	ApplyPatch(ctx context.Context, actor domain.User, id string, patch lifecycle.Patch) (domain.PaymentRequest, error)
	Erase(ctx context.Context, actor domain.User, id string) error
	CreateProject(ctx context.Context, actor domain.User, project domain.Project) (domain.Project, error)
}

type RequestHandler struct {
	lifecycle LifecycleService
	requests  storage.RequestStore
}

// submitRequest is the wire shape for POST /api/requests. The confirm fields
// are the double-entry check on the settlement rail.
type submitRequest struct {
	Purpose         string          `json:"purpose"`
	Category        domain.Category `json:"category"`
	ProjectID       string          `json:"projectId,omitempty"`
	WorkOrderNumber string          `json:"workOrderNumber,omitempty"`

	VendorName string `json:"vendorName"`
	VendorType string `json:"vendorType,omitempty"`
	BillNumber string `json:"billNumber"`
	BillDate   string `json:"billDate,omitempty"`
	Amount     int64  `json:"amount"`

	PaymentType domain.PaymentType `json:"paymentType"`
	PaymentMode domain.PaymentMode `json:"paymentMode"`

	AccountNumber        string `json:"accountNumber,omitempty"`
	AccountNumberConfirm string `json:"accountNumberConfirm,omitempty"`
	IFSC                 string `json:"ifsc,omitempty"`
	UPIID                string `json:"upiId,omitempty"`
	UPIIDConfirm         string `json:"upiIdConfirm,omitempty"`

	DriveLinkBills     string `json:"driveLinkBills,omitempty"`
	DriveLinkWorkProof string `json:"driveLinkWorkProof,omitempty"`

	PaymentDeadline time.Time `json:"paymentDeadline"`
}

func (h *RequestHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	created, err := h.lifecycle.Submit(r.Context(), actor, lifecycle.SubmitInput{
		Purpose:         req.Purpose,
		Category:        req.Category,
		ProjectID:       req.ProjectID,
		WorkOrderNumber: req.WorkOrderNumber,

		VendorName: req.VendorName,
		VendorType: req.VendorType,
		BillNumber: req.BillNumber,
		BillDate:   req.BillDate,
		Amount:     req.Amount,

		PaymentType: req.PaymentType,
		PaymentMode: req.PaymentMode,

		AccountNumber:        req.AccountNumber,
		AccountNumberConfirm: req.AccountNumberConfirm,
		IFSC:                 req.IFSC,
		UPIID:                req.UPIID,
		UPIIDConfirm:         req.UPIIDConfirm,

		DriveLinkBills:     req.DriveLinkBills,
		DriveLinkWorkProof: req.DriveLinkWorkProof,

		PaymentDeadline: req.PaymentDeadline,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *RequestHandler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.requests.List(r.Context())
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "list requests"))
		return
	}
	if list == nil {
		list = []domain.PaymentRequest{}
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *RequestHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	req, err := h.requests.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "request not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) handlePatch(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var patch lifecycle.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	updated, err := h.lifecycle.ApplyPatch(r.Context(), actor, chi.URLParam(r, "id"), patch)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *RequestHandler) handleErase(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.UserFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	if err := h.lifecycle.Erase(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
