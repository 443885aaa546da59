// API service for making HTTP requests to the content API gateway
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/setsvm/novi/internal/shared"
	"github.com/setsvm/novi/internal/storage"
)

const (
	defaultBaseURL       = "http://localhost:8080"
	defaultTimeout       = 30 * time.Second
	defaultUploadTimeout = 60 * time.Second
)

// APIServiceOpts configures an [APIService]. Zero values select defaults.
type APIServiceOpts struct {
	BaseURL           string
	HTTPClient        *http.Client
	Timeout           time.Duration
	UploadTimeout     time.Duration
	RequestsPerMinute int // 0 disables throttling
	Logger            *log.Logger
}

// APIService is the shared transport to the gateway. It is safe for concurrent use.
type APIService struct {
	baseURL       string
	httpClient    *http.Client
	limiter       *rate.Limiter
	timeout       time.Duration
	uploadTimeout time.Duration
	logger        *log.Logger
}

// NewAPIService creates a new API service instance for the gateway.
func NewAPIService(opts APIServiceOpts) *APIService {
	a := &APIService{
		baseURL:       opts.BaseURL,
		httpClient:    opts.HTTPClient,
		timeout:       opts.Timeout,
		uploadTimeout: opts.UploadTimeout,
		logger:        opts.Logger,
		limiter:       rate.NewLimiter(rate.Inf, 0),
	}

	if a.baseURL == "" {
		a.baseURL = defaultBaseURL
	}
	if a.httpClient == nil {
		a.httpClient = http.DefaultClient
	}
	if a.timeout <= 0 {
		a.timeout = defaultTimeout
	}
	if a.uploadTimeout <= 0 {
		a.uploadTimeout = defaultUploadTimeout
	}
	if a.logger == nil {
		a.logger = shared.NewLogger(io.Discard)
	}
	if opts.RequestsPerMinute > 0 {
		a.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), opts.RequestsPerMinute)
	}

	return a
}

// BaseURL returns the gateway base URL.
func (a *APIService) BaseURL() string { return a.baseURL }

// Bind returns an [APIClient] whose token lives in s.
func (a *APIService) Bind(s storage.Storage) *APIClient {
	return &APIClient{api: a, store: s, logger: a.logger}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// apiRequest describes a single gateway call.
type apiRequest struct {
	op          string
	method      string
	path        string
	body        io.Reader
	contentType string
	token       *oauth2.Token
	upload      bool
}

// jsonRequest builds an [apiRequest] with a JSON-encoded body.
func jsonRequest(op, method, path string, payload any) (apiRequest, error) {
	req := apiRequest{op: op, method: method, path: path}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return req, &APIError{Op: op, Message: "failed to encode request", Kind: shared.ErrValidation, Err: err}
		}
		req.body = bytes.NewReader(data)
		req.contentType = "application/json"
	}
	return req, nil
}

// do waits on the limiter, performs the request, and reads the whole response.
//
// Only transport failures are returned as errors; non-2xx responses are returned for the
// caller to classify.
func (a *APIService) do(ctx context.Context, r apiRequest) (*APIResponse, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, &APIError{Op: r.op, Message: "rate limit wait aborted", Kind: shared.ErrTransport, Err: err}
	}

	timeout := a.timeout
	if r.upload {
		timeout = a.uploadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, r.method, a.baseURL+r.path, r.body)
	if err != nil {
		return nil, &APIError{Op: r.op, Message: "failed to create request", Kind: shared.ErrTransport, Err: err}
	}

	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	client := a.httpClient
	if r.token != nil {
		client = oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, a.httpClient), oauth2.StaticTokenSource(r.token))
	}

	started := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		a.logger.Warn("request failed", "op", r.op, "method", r.method, "path", r.path, "error", err)
		return nil, &APIError{Op: r.op, Message: "request failed", Kind: shared.ErrTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Op: r.op, Status: resp.StatusCode, Message: "failed to read response", Kind: shared.ErrTransport, Err: err}
	}

	a.logger.Debug("request", "op", r.op, "method", r.method, "path", r.path,
		"status", resp.StatusCode, "duration", time.Since(started))

	return &APIResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: body}, nil
}

// call performs a request and decodes a 2xx JSON body into result, which may be nil.
func (a *APIService) call(ctx context.Context, r apiRequest, result any) error {
	resp, err := a.do(ctx, r)
	if err != nil {
		return err
	}

	if !resp.OK() {
		return &APIError{
			Op:      r.op,
			Status:  resp.StatusCode,
			Message: errorMessage(resp.StatusCode, resp.Body),
			Kind:    classify(r.op, resp.StatusCode),
		}
	}

	if result == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(resp.Body, result); err != nil {
		return &APIError{Op: r.op, Status: resp.StatusCode, Message: "failed to decode response", Kind: shared.ErrTransport, Err: err}
	}
	return nil
}

// Get performs an unauthenticated GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, apiRequest{op: "get", method: http.MethodGet, path: path})
}

// Ping checks that the gateway is reachable. Any HTTP response counts as reachable.
func (a *APIService) Ping(ctx context.Context) error {
	_, err := a.Get(ctx, "/")
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("gateway %s unreachable: %w", a.baseURL, err)
	}
	return err
}
