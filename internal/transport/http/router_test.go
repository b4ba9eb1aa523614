package httptransport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"paygate/internal/audit"
	"paygate/internal/auth"
	"paygate/internal/cutoff"
	"paygate/internal/domain"
	"paygate/internal/lifecycle"
	"paygate/internal/risk"
	"paygate/internal/storage"
	syncengine "paygate/internal/sync"
)

// RouterSuite exercises the full stack behind the router: real lifecycle
// service, real auth, in-memory stores. Only the network is fake.
type RouterSuite struct {
	suite.Suite
	server *httptest.Server
	tokens map[domain.Role]string
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	requests := storage.NewInMemoryRequestStore()
	projects := storage.NewInMemoryProjectStore()
	auditStore := storage.NewInMemoryAuditStore()
	recorder := audit.NewRecorder(auditStore, audit.WithLogger(logger))

	svc, err := lifecycle.New(requests, projects, recorder,
		risk.New(), cutoff.NewDeadline(), storage.NoopTxRunner{},
		lifecycle.WithLogger(logger))
	s.Require().NoError(err)

	tokens, err := auth.NewTokenService("router-test-key", "paygate-test")
	s.Require().NoError(err)
	authSvc, err := auth.NewService(nil, tokens, auth.WithLogger(logger))
	s.Require().NoError(err)

	s.server = httptest.NewServer(NewRouter(Deps{
		Auth:      authSvc,
		Validator: authSvc,
		Lifecycle: svc,
		Requests:  requests,
		Projects:  projects,
		Audit:     auditStore,
		Recorder:  recorder,
		Logger:    logger,
	}))
	s.T().Cleanup(s.server.Close)

	s.tokens = make(map[domain.Role]string)
	for username, password := range map[string]string{
		"admin": "admin123", "approver": "approve123", "backend": "backend123", "accounts": "accounts123",
	} {
		var out struct {
			Token string      `json:"token"`
			User  domain.User `json:"user"`
		}
		s.doJSON(http.MethodPost, "/api/login", "", map[string]string{"username": username, "password": password}, http.StatusOK, &out)
		s.tokens[out.User.Role] = out.Token
	}
}

// doJSON performs one request and decodes the response, asserting the status.
func (s *RouterSuite) doJSON(method, path, token string, body any, wantStatus int, out any) {
	s.T().Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Require().Equal(wantStatus, resp.StatusCode, "%s %s: %s", method, path, raw)
	if out != nil {
		s.Require().NoError(json.Unmarshal(raw, out))
	}
}

func (s *RouterSuite) submit(vendor string) domain.PaymentRequest {
	s.T().Helper()
	var created domain.PaymentRequest
	s.doJSON(http.MethodPost, "/api/requests", s.tokens[domain.RoleSubmission], map[string]any{
		"purpose":              "Cement supply",
		"category":             "Project",
		"vendorName":           vendor,
		"billNumber":           fmt.Sprintf("BILL-%s-1", vendor),
		"amount":               250_000_00,
		"paymentType":          "Full",
		"paymentMode":          "Bank Transfer",
		"accountNumber":        "004401523456",
		"accountNumberConfirm": "004401523456",
		"ifsc":                 "HDFC0000440",
		"paymentDeadline":      time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	}, http.StatusCreated, &created)
	return created
}

func (s *RouterSuite) TestLoginRejectsBadCredentials() {
	s.doJSON(http.MethodPost, "/api/login", "", map[string]string{"username": "admin", "password": "nope"}, http.StatusUnauthorized, nil)
}

func (s *RouterSuite) TestAPIRequiresToken() {
	s.doJSON(http.MethodGet, "/api/requests", "", nil, http.StatusUnauthorized, nil)
}

func (s *RouterSuite) TestSubmitFlow() {
	created := s.submit("Sharma Traders")
	s.Equal(domain.StatusNew, created.Status)
	s.Equal(int64(1), created.Version)
	s.NotEmpty(created.ID)

	var list []domain.PaymentRequest
	s.doJSON(http.MethodGet, "/api/requests", s.tokens[domain.RoleApprover], nil, http.StatusOK, &list)
	s.Require().Len(list, 1)
}

func (s *RouterSuite) TestOnlySubmissionDeskMaySubmit() {
	s.doJSON(http.MethodPost, "/api/requests", s.tokens[domain.RoleFinance], map[string]any{
		"vendorName": "X", "amount": 100, "paymentMode": "UPI", "upiId": "x@upi", "upiIdConfirm": "x@upi",
		"paymentDeadline": time.Now().Add(time.Hour).Format(time.RFC3339),
	}, http.StatusForbidden, nil)
}

func (s *RouterSuite) TestApproveThenSettle() {
	created := s.submit("Sharma Traders")

	var approved domain.PaymentRequest
	s.doJSON(http.MethodPatch, "/api/requests/"+created.ID, s.tokens[domain.RoleApprover],
		map[string]any{"status": "APPROVED", "version": created.Version},
		http.StatusOK, &approved)
	s.Equal(domain.StatusApproved, approved.Status)
	s.Equal(created.Version+1, approved.Version)

	var settled domain.PaymentRequest
	s.doJSON(http.MethodPatch, "/api/requests/"+created.ID, s.tokens[domain.RoleFinance],
		map[string]any{"status": "SETTLED", "utr": "UTR9876543210", "proofLink": "https://drive.example/proof", "version": approved.Version},
		http.StatusOK, &settled)
	s.Equal(domain.StatusSettled, settled.Status)
	s.Equal("UTR9876543210", settled.UTR)
}

func (s *RouterSuite) TestSettleWithoutReferencesRejected() {
	created := s.submit("Sharma Traders")
	s.doJSON(http.MethodPatch, "/api/requests/"+created.ID, s.tokens[domain.RoleApprover],
		map[string]any{"status": "APPROVED"}, http.StatusOK, nil)

	s.doJSON(http.MethodPatch, "/api/requests/"+created.ID, s.tokens[domain.RoleFinance],
		map[string]any{"status": "SETTLED"}, http.StatusBadRequest, nil)
}

func (s *RouterSuite) TestStaleVersionConflicts() {
	created := s.submit("Sharma Traders")
	s.doJSON(http.MethodPatch, "/api/requests/"+created.ID, s.tokens[domain.RoleApprover],
		map[string]any{"status": "HOLD", "version": created.Version}, http.StatusOK, nil)

	// A second client still holding version 1.
	s.doJSON(http.MethodPatch, "/api/requests/"+created.ID, s.tokens[domain.RoleApprover],
		map[string]any{"status": "APPROVED", "version": created.Version}, http.StatusConflict, nil)
}

func (s *RouterSuite) TestEraseIsAdminOnly() {
	created := s.submit("Sharma Traders")

	s.doJSON(http.MethodDelete, "/api/requests/"+created.ID, s.tokens[domain.RoleApprover], nil, http.StatusForbidden, nil)
	s.doJSON(http.MethodDelete, "/api/requests/"+created.ID, s.tokens[domain.RoleAdmin], nil, http.StatusNoContent, nil)
	s.doJSON(http.MethodGet, "/api/requests/"+created.ID, s.tokens[domain.RoleAdmin], nil, http.StatusNotFound, nil)
}

func (s *RouterSuite) TestProjectCreationAdminOnly() {
	project := map[string]any{"name": "Hillside Residency", "budget": 5_000_000_00, "phase": "Planning", "status": "Active"}

	s.doJSON(http.MethodPost, "/api/projects", s.tokens[domain.RoleSubmission], project, http.StatusForbidden, nil)

	var created domain.Project
	s.doJSON(http.MethodPost, "/api/projects", s.tokens[domain.RoleAdmin], project, http.StatusCreated, &created)
	s.NotEmpty(created.ID)

	var list []domain.Project
	s.doJSON(http.MethodGet, "/api/projects", s.tokens[domain.RoleFinance], nil, http.StatusOK, &list)
	s.Len(list, 1)
}

func (s *RouterSuite) TestFullStateCarriesAllCollections() {
	created := s.submit("Sharma Traders")

	var snap syncengine.Snapshot
	s.doJSON(http.MethodGet, "/api/sync", s.tokens[domain.RoleApprover], nil, http.StatusOK, &snap)
	s.Require().Len(snap.Requests, 1)
	s.Equal(created.ID, snap.Requests[0].ID)
	s.NotEmpty(snap.AuditLogs, "submission leaves an audit entry")
}

func (s *RouterSuite) TestAuditTrailNewestFirstAndFilterable() {
	created := s.submit("Sharma Traders")
	s.doJSON(http.MethodPatch, "/api/requests/"+created.ID, s.tokens[domain.RoleApprover],
		map[string]any{"status": "APPROVED"}, http.StatusOK, nil)

	var entries []domain.AuditLog
	s.doJSON(http.MethodGet, "/api/audit", s.tokens[domain.RoleAdmin], nil, http.StatusOK, &entries)
	s.Require().Len(entries, 2)
	s.Equal("Payment request approved", entries[0].Action, "newest entry lists first")

	var scoped []domain.AuditLog
	s.doJSON(http.MethodGet, "/api/audit?paymentId="+created.ID, s.tokens[domain.RoleAdmin], nil, http.StatusOK, &scoped)
	s.Len(scoped, 2)
}

func (s *RouterSuite) TestAuditAppendAttributesActor() {
	created := s.submit("Sharma Traders")

	var entry domain.AuditLog
	s.doJSON(http.MethodPost, "/api/audit", s.tokens[domain.RoleFinance],
		map[string]any{"action": "Vendor bank details verified", "paymentId": created.ID},
		http.StatusCreated, &entry)
	s.Equal("Vendor bank details verified", entry.Action)
	s.Equal(domain.RoleFinance, entry.Role)
	s.NotEmpty(entry.ID)

	s.doJSON(http.MethodPost, "/api/audit", s.tokens[domain.RoleFinance],
		map[string]any{"action": "   "}, http.StatusBadRequest, nil)

	var entries []domain.AuditLog
	s.doJSON(http.MethodGet, "/api/audit?paymentId="+created.ID, s.tokens[domain.RoleAdmin], nil, http.StatusOK, &entries)
	s.Require().Len(entries, 2)
	s.Equal("Vendor bank details verified", entries[0].Action)
}

func (s *RouterSuite) TestHealthIsPublic() {
	resp, err := s.server.Client().Get(s.server.URL + "/health")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}
