package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"paygate/internal/domain"
	dErrors "paygate/pkg/domain-errors"
	"paygate/pkg/platform/sentinel"
)

// HTTPRemote talks to the authoritative server over its REST API. It is the
// production Remote; the transport timeout lives in the engine's per-call
// contexts, not here.
type HTTPRemote struct {
	baseURL string
	token   string
	client  *http.Client
}

// HTTPRemoteOption configures an HTTPRemote.
type HTTPRemoteOption func(*HTTPRemote)

// WithHTTPClient substitutes the underlying client, mainly for tests.
func WithHTTPClient(c *http.Client) HTTPRemoteOption {
	return func(r *HTTPRemote) {
		if c != nil {
			r.client = c
		}
	}
}

// NewHTTPRemote builds a remote for the server at baseURL. The bearer token
// comes from POST /api/login and is attached to every request.
func NewHTTPRemote(baseURL, token string, opts ...HTTPRemoteOption) (*HTTPRemote, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("http remote: base URL is required")
	}
	r := &HTTPRemote{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// SetToken replaces the bearer token, e.g. after a re-login.
func (r *HTTPRemote) SetToken(token string) { r.token = token }

// Login exchanges credentials for a bearer token. It does not store the
// token; callers decide via SetToken.
func (r *HTTPRemote) Login(ctx context.Context, username, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := r.do(ctx, http.MethodPost, "/api/login", body, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// FullState fetches every collection. The combined /api/sync endpoint is
// preferred; if the server predates it the collections are fetched in
// parallel and assembled.
func (r *HTTPRemote) FullState(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := r.do(ctx, http.MethodGet, "/api/sync", nil, &snap)
	if err == nil {
		return snap, nil
	}
	if !dErrors.Is(err, dErrors.CodeNotFound) {
		return Snapshot{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.do(gctx, http.MethodGet, "/api/requests", nil, &snap.Requests)
	})
	g.Go(func() error {
		return r.do(gctx, http.MethodGet, "/api/projects", nil, &snap.Projects)
	})
	g.Go(func() error {
		return r.do(gctx, http.MethodGet, "/api/audit", nil, &snap.AuditLogs)
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (r *HTTPRemote) CreateRequest(ctx context.Context, req domain.PaymentRequest) (domain.PaymentRequest, error) {
	var created domain.PaymentRequest
	if err := r.do(ctx, http.MethodPost, "/api/requests", req, &created); err != nil {
		return domain.PaymentRequest{}, err
	}
	return created, nil
}

func (r *HTTPRemote) UpdateRequest(ctx context.Context, patch RequestPatch) (domain.PaymentRequest, error) {
	var updated domain.PaymentRequest
	path := "/api/requests/" + patch.ID
	if err := r.do(ctx, http.MethodPatch, path, patch, &updated); err != nil {
		return domain.PaymentRequest{}, err
	}
	return updated, nil
}

func (r *HTTPRemote) DeleteRequest(ctx context.Context, id string) error {
	return r.do(ctx, http.MethodDelete, "/api/requests/"+id, nil, nil)
}

func (r *HTTPRemote) CreateProject(ctx context.Context, project domain.Project) (domain.Project, error) {
	var created domain.Project
	if err := r.do(ctx, http.MethodPost, "/api/projects", project, &created); err != nil {
		return domain.Project{}, err
	}
	return created, nil
}

// do performs one request. Non-2xx responses are decoded into coded domain
// errors so callers can distinguish a stale-version conflict from an outage.
func (r *HTTPRemote) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, sentinel.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	msg := payload.Description
	if msg == "" {
		msg = payload.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return dErrors.New(codeForStatus(resp.StatusCode), msg)
}

func codeForStatus(status int) dErrors.Code {
	switch status {
	case http.StatusBadRequest:
		return dErrors.CodeBadRequest
	case http.StatusUnauthorized:
		return dErrors.CodeUnauthorized
	case http.StatusForbidden:
		return dErrors.CodeForbidden
	case http.StatusNotFound:
		return dErrors.CodeNotFound
	case http.StatusConflict:
		return dErrors.CodeConflict
	case http.StatusServiceUnavailable:
		return dErrors.CodeUnavailable
	default:
		return dErrors.CodeInternal
	}
}
