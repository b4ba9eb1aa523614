// Package lifecycle is the sole authority for payment request status. Every
// mutation flows through this service: it validates the transition guards,
// writes the record and its audit entry inside one transaction scope, and
// nothing else in the system may set the status field.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"paygate/internal/audit"
	"paygate/internal/cutoff"
	"paygate/internal/domain"
	"paygate/internal/platform/metrics"
	"paygate/internal/risk"
	"paygate/internal/storage"
	dErrors "paygate/pkg/domain-errors"
	"paygate/pkg/platform/sentinel"
)

// Service applies lifecycle transitions.
type Service struct {
	requests storage.RequestStore
	projects storage.ProjectStore
	recorder *audit.Recorder
	detector *risk.Detector
	cutoff   *cutoff.Evaluator
	tx       storage.TxRunner
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(
	requests storage.RequestStore,
	projects storage.ProjectStore,
	recorder *audit.Recorder,
	detector *risk.Detector,
	evaluator *cutoff.Evaluator,
	tx storage.TxRunner,
	opts ...Option,
) (*Service, error) {
	if requests == nil || projects == nil || recorder == nil || detector == nil || evaluator == nil || tx == nil {
		return nil, errors.New("lifecycle service requires all collaborators")
	}
	s := &Service{
		requests: requests,
		projects: projects,
		recorder: recorder,
		detector: detector,
		cutoff:   evaluator,
		tx:       tx,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SubmitInput carries a candidate request. The confirmation fields are the
// double-entry check on the settlement rail; a mismatch is a validation
// error and nothing is stored.
type SubmitInput struct {
	Purpose         string
	Category        domain.Category
	ProjectID       string
	WorkOrderNumber string

	VendorName string
	VendorType string
	BillNumber string
	BillDate   string
	Amount     int64

	PaymentType domain.PaymentType
	PaymentMode domain.PaymentMode

	AccountNumber        string
	AccountNumberConfirm string
	IFSC                 string
	UPIID                string
	UPIIDConfirm         string

	DriveLinkBills     string
	DriveLinkWorkProof string

	PaymentDeadline time.Time
}

func (in SubmitInput) validate() error {
	if in.VendorName == "" {
		return dErrors.New(dErrors.CodeBadRequest, "vendor name is required")
	}
	if in.Amount <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "amount must be positive")
	}
	switch in.PaymentMode {
	case domain.ModeBankTransfer:
		if in.AccountNumber == "" {
			return dErrors.New(dErrors.CodeBadRequest, "account number is required for bank transfer")
		}
		if in.AccountNumber != in.AccountNumberConfirm {
			return dErrors.New(dErrors.CodeBadRequest, "account number mismatch")
		}
	case domain.ModeUPI:
		if in.UPIID == "" {
			return dErrors.New(dErrors.CodeBadRequest, "UPI ID is required for UPI")
		}
		if in.UPIID != in.UPIIDConfirm {
			return dErrors.New(dErrors.CodeBadRequest, "UPI ID mismatch")
		}
	default:
		return dErrors.New(dErrors.CodeBadRequest, "unknown payment mode")
	}
	return nil
}

// Submit creates a request: evaluates the cutoff, classifies risk against the
// existing population, stores the record and appends its creation audit entry
// atomically. Risk, initial status and the cutoff flag are computed here once
// and frozen until a later transition changes them explicitly.
func (s *Service) Submit(ctx context.Context, actor domain.User, in SubmitInput) (domain.PaymentRequest, error) {
	if actor.Role != domain.RoleSubmission {
		return domain.PaymentRequest{}, dErrors.New(dErrors.CodeForbidden, "only the submission desk may raise requests")
	}
	if err := in.validate(); err != nil {
		return domain.PaymentRequest{}, err
	}

	submittedAt := s.now()
	cutoffStatus := s.cutoff.Evaluate(submittedAt, in.PaymentDeadline)

	prior, err := s.requests.List(ctx)
	if err != nil {
		return domain.PaymentRequest{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load prior requests")
	}
	riskLevel, status := s.detector.Classify(risk.Candidate{
		VendorName: in.VendorName,
		BillNumber: in.BillNumber,
		Amount:     in.Amount,
	}, prior, cutoffStatus == domain.CutoffMissed)

	req := domain.PaymentRequest{
		ID:                 uuid.NewString(),
		RaisedBy:           actor.Name,
		RaisedByRole:       string(actor.Role),
		Timestamp:          submittedAt,
		PaymentDeadline:    in.PaymentDeadline,
		Category:           in.Category,
		Purpose:            in.Purpose,
		ProjectID:          in.ProjectID,
		WorkOrderNumber:    in.WorkOrderNumber,
		VendorName:         in.VendorName,
		VendorType:         in.VendorType,
		BillNumber:         in.BillNumber,
		BillDate:           in.BillDate,
		Amount:             in.Amount,
		PaymentType:        in.PaymentType,
		PaymentMode:        in.PaymentMode,
		AccountNumber:      in.AccountNumber,
		IFSC:               in.IFSC,
		UPIID:              in.UPIID,
		DriveLinkBills:     in.DriveLinkBills,
		DriveLinkWorkProof: in.DriveLinkWorkProof,
		CutoffStatus:       cutoffStatus,
		Risk:               riskLevel,
		Status:             status,
		Version:            1,
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.requests.Save(ctx, req); err != nil {
			return err
		}
		_, err := s.recorder.Append(ctx, "Payment request submitted", req.ID, actor)
		return err
	})
	if err != nil {
		return domain.PaymentRequest{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store request")
	}

	if s.metrics != nil {
		s.metrics.RequestsSubmitted.Inc()
		s.metrics.AuditAppends.Inc()
	}
	s.logger.InfoContext(ctx, "payment request submitted",
		"request_id", req.ID, "vendor", req.VendorName, "risk", req.Risk, "status", req.Status)
	return req, nil
}

// Approve moves a pending or held request to APPROVED. Approver role only;
// blocked outright when the request's cutoff flag is MISSED.
func (s *Service) Approve(ctx context.Context, actor domain.User, id string, expectedVersion int64) (domain.PaymentRequest, error) {
	if actor.Role != domain.RoleApprover {
		return domain.PaymentRequest{}, s.denied("role", dErrors.CodeForbidden, "only the approver may approve requests")
	}
	return s.transition(ctx, actor, id, expectedVersion, "Payment request approved", func(req *domain.PaymentRequest) error {
		switch req.Status {
		case domain.StatusNew, domain.StatusSimilarExists, domain.StatusRequestCutoffMissed, domain.StatusHold:
		default:
			return s.denied("state", dErrors.CodeConflict, "request is not awaiting approval")
		}
		if req.CutoffStatus == domain.CutoffMissed {
			return s.denied("cutoff_missed", dErrors.CodeConflict, "cutoff missed: approval is blocked")
		}
		req.Status = domain.StatusApproved
		return nil
	})
}

// Hold parks a pending request. Reversible: Approve accepts HOLD.
func (s *Service) Hold(ctx context.Context, actor domain.User, id string, expectedVersion int64) (domain.PaymentRequest, error) {
	if actor.Role != domain.RoleApprover {
		return domain.PaymentRequest{}, s.denied("role", dErrors.CodeForbidden, "only the approver may hold requests")
	}
	return s.transition(ctx, actor, id, expectedVersion, "Payment request put on hold", func(req *domain.PaymentRequest) error {
		switch req.Status {
		case domain.StatusNew, domain.StatusSimilarExists:
		default:
			return s.denied("state", dErrors.CodeConflict, "only pending requests can be held")
		}
		req.Status = domain.StatusHold
		return nil
	})
}

// Settle marks an approved request paid. Finance role only; both the
// transaction reference and the proof reference are mandatory.
func (s *Service) Settle(ctx context.Context, actor domain.User, id string, expectedVersion int64, utr, proofLink string) (domain.PaymentRequest, error) {
	if actor.Role != domain.RoleFinance {
		return domain.PaymentRequest{}, s.denied("role", dErrors.CodeForbidden, "only the finance desk may settle requests")
	}
	if utr == "" {
		return domain.PaymentRequest{}, s.denied("missing_utr", dErrors.CodeBadRequest, "settlement reference is required")
	}
	if proofLink == "" {
		return domain.PaymentRequest{}, s.denied("missing_proof", dErrors.CodeBadRequest, "proof of payment is required")
	}
	return s.transition(ctx, actor, id, expectedVersion, "Payment settled", func(req *domain.PaymentRequest) error {
		if req.Status != domain.StatusApproved {
			return s.denied("state", dErrors.CodeConflict, "only approved requests can be settled")
		}
		req.Status = domain.StatusSettled
		req.UTR = utr
		req.ProofLink = proofLink
		return nil
	})
}

// Erase removes a record entirely. Administrative, logged, and deliberately
// not modeled as a transition; the only operation allowed past SETTLED.
func (s *Service) Erase(ctx context.Context, actor domain.User, id string) error {
	if actor.Role != domain.RoleAdmin {
		return s.denied("role", dErrors.CodeForbidden, "only an administrator may erase requests")
	}
	if _, err := s.requests.FindByID(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "request not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load request")
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.requests.Delete(ctx, id); err != nil {
			return err
		}
		_, err := s.recorder.Append(ctx, "Payment request erased", id, actor)
		return err
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to erase request")
	}
	if s.metrics != nil {
		s.metrics.RequestsErased.Inc()
		s.metrics.AuditAppends.Inc()
	}
	s.logger.InfoContext(ctx, "payment request erased", "request_id", id, "actor", actor.Username)
	return nil
}

// CreateProject stores a budget envelope and its audit entry.
func (s *Service) CreateProject(ctx context.Context, actor domain.User, project domain.Project) (domain.Project, error) {
	if actor.Role != domain.RoleAdmin {
		return domain.Project{}, dErrors.New(dErrors.CodeForbidden, "only an administrator may create projects")
	}
	if project.Name == "" {
		return domain.Project{}, dErrors.New(dErrors.CodeBadRequest, "project name is required")
	}
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if project.Status == "" {
		project.Status = domain.ProjectActive
	}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.projects.Save(ctx, project); err != nil {
			return err
		}
		_, err := s.recorder.Append(ctx, "Project created: "+project.Name, "", actor)
		return err
	})
	if err != nil {
		return domain.Project{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store project")
	}
	return project, nil
}

// transition loads the record, checks the version stamp, applies mutate, and
// commits the write plus its audit entry together. No transition without its
// log, no log without its transition.
func (s *Service) transition(
	ctx context.Context,
	actor domain.User,
	id string,
	expectedVersion int64,
	action string,
	mutate func(*domain.PaymentRequest) error,
) (domain.PaymentRequest, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.PaymentRequest{}, dErrors.New(dErrors.CodeNotFound, "request not found")
		}
		return domain.PaymentRequest{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load request")
	}
	if req.Status.Terminal() {
		return domain.PaymentRequest{}, s.denied("terminal", dErrors.CodeConflict, "settled requests accept no further transitions")
	}
	if expectedVersion != 0 && expectedVersion != req.Version {
		return domain.PaymentRequest{}, s.denied("stale_version", dErrors.CodeConflict, "request was modified by another session")
	}

	if err := mutate(&req); err != nil {
		return domain.PaymentRequest{}, err
	}
	req.Version++

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.requests.Update(ctx, req); err != nil {
			return err
		}
		_, err := s.recorder.Append(ctx, action, req.ID, actor)
		return err
	})
	if errors.Is(err, sentinel.ErrConflict) {
		return domain.PaymentRequest{}, s.denied("stale_version", dErrors.CodeConflict, "request was modified by another session")
	}
	if err != nil {
		return domain.PaymentRequest{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to apply transition")
	}

	if s.metrics != nil {
		s.metrics.ObserveTransition(string(req.Status))
		s.metrics.AuditAppends.Inc()
	}
	s.logger.InfoContext(ctx, "transition applied",
		"request_id", req.ID, "status", req.Status, "actor", actor.Username)
	return req, nil
}

func (s *Service) denied(reason string, code dErrors.Code, msg string) error {
	if s.metrics != nil {
		s.metrics.ObserveDenied(reason)
	}
	return dErrors.New(code, msg)
}
