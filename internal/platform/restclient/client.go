package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/deshimart/storefront-go/internal/platform/httpx"
	"github.com/deshimart/storefront-go/internal/platform/observability"
	"github.com/deshimart/storefront-go/internal/platform/requestctx"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxRetries  = 2
	defaultBackoffBase = 2 * time.Second
	maxResponseBytes   = 1 << 20
)

// ConnectivityFailureMessage is surfaced after transport failures exhaust the
// retry budget.
const ConnectivityFailureMessage = "Could not reach the server. Please check your connection and try again."

var errBaseURLRequired = errors.New("restclient: base url is required")

// TokenSource supplies the current bearer token, or empty when the actor has
// no authenticated session.
type TokenSource func() string

// Result is the uniform outcome of every call. HTTP-level failures never
// surface as Go errors: Success is false and Message carries the most
// specific extractable server message.
type Result struct {
	Success bool
	Data    json.RawMessage
	Kind    httpx.EnvelopeKind
	Message string
	Status  int
}

// Decode unmarshals the normalized payload into v.
func (r Result) Decode(v any) error {
	if !r.Success {
		return errors.New("restclient: cannot decode failed result")
	}
	if len(bytes.TrimSpace(r.Data)) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

// CallOptions overrides the client defaults for a single call.
type CallOptions struct {
	// Timeout bounds each individual attempt. Zero keeps the client default.
	Timeout time.Duration
	// MaxRetries caps extra attempts after the first. Nil keeps the client
	// default; a pointer to zero disables retries for this call.
	MaxRetries *int
}

// Deps wires the request client. Only BaseURL is mandatory.
type Deps struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	// MaxRetries caps extra attempts after the first. Nil keeps the default;
	// a pointer to zero disables retries entirely.
	MaxRetries  *int
	BackoffBase time.Duration
	Token       TokenSource
	Logger      *zap.Logger
	// Sleep is the backoff wait, injectable for tests. Defaults to a
	// context-aware timer sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Client issues JSON calls against the commerce service with per-attempt
// timeouts and exponential-backoff retry on transport failures and 5xx
// responses. 4xx responses are never retried.
type Client struct {
	baseURL     string
	http        *http.Client
	timeout     time.Duration
	maxRetries  int
	backoffBase time.Duration
	token       TokenSource
	logger      *zap.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// New constructs a Client, applying defaults for unset optional dependencies.
func New(deps Deps) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(deps.BaseURL), "/")
	if base == "" {
		return nil, errBaseURLRequired
	}

	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRetries := defaultMaxRetries
	if deps.MaxRetries != nil && *deps.MaxRetries >= 0 {
		maxRetries = *deps.MaxRetries
	}
	backoffBase := deps.BackoffBase
	if backoffBase <= 0 {
		backoffBase = defaultBackoffBase
	}
	sleep := deps.Sleep
	if sleep == nil {
		sleep = sleepWithContext
	}

	return &Client{
		baseURL:     base,
		http:        httpClient,
		timeout:     timeout,
		maxRetries:  maxRetries,
		backoffBase: backoffBase,
		token:       deps.Token,
		logger:      observability.EnsureLogger(deps.Logger),
		sleep:       sleep,
	}, nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, endpoint string, opts *CallOptions) Result {
	return c.do(ctx, http.MethodGet, endpoint, nil, opts)
}

// Post issues a POST request with an optional JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, body any, opts *CallOptions) Result {
	return c.do(ctx, http.MethodPost, endpoint, body, opts)
}

// Patch issues a PATCH request with an optional JSON body.
func (c *Client) Patch(ctx context.Context, endpoint string, body any, opts *CallOptions) Result {
	return c.do(ctx, http.MethodPatch, endpoint, body, opts)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, endpoint string, opts *CallOptions) Result {
	return c.do(ctx, http.MethodDelete, endpoint, nil, opts)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, opts *CallOptions) Result {
	target, err := url.JoinPath(c.baseURL, endpoint)
	if err != nil {
		return Result{Message: httpx.GenericFailureMessage}
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return Result{Message: httpx.GenericFailureMessage}
		}
	}

	timeout := c.timeout
	maxRetries := c.maxRetries
	if opts != nil {
		if opts.Timeout > 0 {
			timeout = opts.Timeout
		}
		if opts.MaxRetries != nil && *opts.MaxRetries >= 0 {
			maxRetries = *opts.MaxRetries
		}
	}

	ctx, requestID := requestctx.EnsureRequestID(ctx)

	log := c.logger.With(
		zap.String("method", observability.SanitizeMethod(method)),
		zap.String("endpoint", observability.SanitizeEndpoint(endpoint)),
		zap.String("requestID", requestID),
	)
	log.Debug("request dispatched")

	var result Result
	for attempt := 0; ; attempt++ {
		var retryable bool
		result, retryable = c.attempt(ctx, method, target, payload, timeout)
		if result.Success {
			if attempt > 0 {
				log.Info("request recovered after retry", zap.Int("attempts", attempt+1))
			}
			return result
		}
		if !retryable || attempt >= maxRetries {
			log.Warn("request failed",
				zap.Int("status", result.Status),
				zap.String("error", observability.SanitizeMessage(result.Message)),
				zap.Int("attempts", attempt+1),
			)
			return result
		}

		delay := c.backoffBase << attempt
		log.Debug("retrying request", zap.Duration("backoff", delay), zap.Int("status", result.Status))
		if err := c.sleep(ctx, delay); err != nil {
			return result
		}
	}
}

// attempt performs a single HTTP exchange. The bool return reports whether
// the failure is eligible for retry: transport failures and 5xx are, 4xx and
// per-attempt timeouts are not.
func (c *Client) attempt(ctx context.Context, method, target string, payload []byte, timeout time.Duration) (Result, bool) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, target, reader)
	if err != nil {
		return Result{Message: httpx.GenericFailureMessage}, false
	}
	req.Header.Set("Accept", "application/json")
	if id := requestctx.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if token := strings.TrimSpace(c.token()); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// A timed-out attempt aborts outright; other transport failures are
		// retried up to the budget.
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return Result{Message: ConnectivityFailureMessage}, false
		}
		if ctx.Err() != nil {
			return Result{Message: ConnectivityFailureMessage}, false
		}
		return Result{Message: ConnectivityFailureMessage}, true
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Result{Message: ConnectivityFailureMessage, Status: resp.StatusCode}, true
	}

	switch {
	case resp.StatusCode >= 500:
		return Result{
			Message: httpx.ErrorMessage(raw, httpx.GenericFailureMessage),
			Status:  resp.StatusCode,
		}, true
	case resp.StatusCode >= 400:
		return Result{
			Message: httpx.ErrorMessage(raw, httpx.GenericFailureMessage),
			Status:  resp.StatusCode,
		}, false
	}

	if httpx.DeclaredFailure(raw) {
		return Result{
			Message: httpx.ErrorMessage(raw, httpx.GenericFailureMessage),
			Status:  resp.StatusCode,
		}, false
	}

	data, kind := httpx.Normalize(raw)
	return Result{Success: true, Data: data, Kind: kind, Status: resp.StatusCode}, false
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
