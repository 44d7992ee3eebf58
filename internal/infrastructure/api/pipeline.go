package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/kirillkom/resumind-client/internal/core/domain"
	"github.com/kirillkom/resumind-client/internal/core/ports"
	"github.com/kirillkom/resumind-client/internal/infrastructure/resilience"
)

const (
	PathToken    = "/token/"
	PathRefresh  = "/token/refresh/"
	PathRegister = "/accounts/register/"

	HeaderRequestID = "X-Request-Id"

	refreshTimeout = 30 * time.Second
)

// publicPaths never carry a bearer token and never trigger a refresh.
var publicPaths = []string{PathToken, PathRefresh, PathRegister}

func isPublicPath(path string) bool {
	for _, public := range publicPaths {
		if strings.Contains(path, public) {
			return true
		}
	}
	return false
}

// Request is replayable: Body is kept in memory so the single retry after a
// refresh sends the same bytes.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        []byte
	ContentType string
}

func NewJSONRequest(method, path string, payload any) (*Request, error) {
	req := &Request{Method: method, Path: path}
	if payload == nil {
		return req, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s %s request: %w", method, path, err)
	}
	req.Body = body
	req.ContentType = "application/json"
	return req, nil
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) DecodeJSON(out any) error {
	if r == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return fmt.Errorf("decode response: empty body")
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Metrics receives one observation per dispatched HTTP exchange.
type Metrics interface {
	RecordRequest(method, path, status string, duration time.Duration)
	RecordTokenRefresh(outcome string)
}

type Options struct {
	HTTPClient *http.Client
	Executor   *resilience.Executor
	Limiter    *rate.Limiter
	Metrics    Metrics
	Logger     *zap.Logger
}

// Pipeline sends authenticated requests and keeps the access token fresh.
// It is the only writer of the credential store.
type Pipeline struct {
	baseURL    string
	httpClient *http.Client
	store      ports.CredentialStore
	executor   *resilience.Executor
	limiter    *rate.Limiter
	metrics    Metrics
	logger     *zap.Logger

	refreshGroup singleflight.Group
}

func NewPipeline(baseURL string, store ports.CredentialStore, opts Options) *Pipeline {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		store:      store,
		executor:   opts.Executor,
		limiter:    opts.Limiter,
		metrics:    opts.Metrics,
		logger:     logger,
	}
}

// Send dispatches req. A 401 on an authenticated path is answered by one
// refresh and one resend. When no refresh is possible the credentials are
// cleared and a *domain.AuthRedirectError is returned.
func (p *Pipeline) Send(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("api: request is nil")
	}
	op := operationName(req.Method, req.Path)
	public := isPublicPath(req.Path)

	sent := ""
	if !public {
		sent = p.store.Credentials().Access
	}
	resp, err := p.dispatch(ctx, op, req, sent)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || public {
		return checkStatus(op, resp)
	}

	original := newStatusError(op, resp)
	p.logger.Debug("access_token_rejected",
		zap.String("operation", op),
		zap.Error(domain.WrapError(domain.ErrAuthExpired, op, original)),
	)

	access, err := p.renewAccess(ctx, sent)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("api %s: %w", op, ctxErr)
		}
		return nil, p.forceLogin(op, original, err)
	}

	resp, err = p.dispatch(ctx, op, req, access)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		p.logger.Warn("unauthorized_after_refresh", zap.String("operation", op))
	}
	return checkStatus(op, resp)
}

// Authenticate exchanges username and password for a credential pair and stores it.
func (p *Pipeline) Authenticate(ctx context.Context, username, password string) error {
	req, err := NewJSONRequest(http.MethodPost, PathToken, map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}
	resp, err := p.Send(ctx, req)
	if err != nil {
		return err
	}

	var creds domain.Credentials
	if err := resp.DecodeJSON(&creds); err != nil {
		return fmt.Errorf("api login: %w", err)
	}
	if creds.Access == "" {
		return domain.WrapError(domain.ErrServer, "api login", fmt.Errorf("response has no access token"))
	}
	if err := p.store.SetCredentials(creds); err != nil {
		return fmt.Errorf("store credentials: %w", err)
	}
	return nil
}

func (p *Pipeline) ClearCredentials() error {
	if err := p.store.Clear(); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// renewAccess returns the token for the single resend. If another request
// already replaced the rejected token, that one is reused.
func (p *Pipeline) renewAccess(ctx context.Context, rejected string) (string, error) {
	creds := p.store.Credentials()
	if creds.Access != "" && creds.Access != rejected {
		return creds.Access, nil
	}
	if !creds.CanRefresh() {
		p.recordRefresh("missing")
		return "", fmt.Errorf("no refresh token")
	}

	// Shared by every waiter; a caller giving up does not cancel the exchange.
	results := p.refreshGroup.DoChan(creds.Refresh, func() (any, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		access, err := p.exchangeRefresh(refreshCtx, creds.Refresh)
		if err != nil {
			p.recordRefresh("failure")
			return "", err
		}
		if err := p.store.SetAccess(access); err != nil {
			p.recordRefresh("failure")
			return "", fmt.Errorf("store refreshed access token: %w", err)
		}
		p.recordRefresh("success")
		return access, nil
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// exchangeRefresh talks to the refresh endpoint directly; it never re-enters Send.
func (p *Pipeline) exchangeRefresh(ctx context.Context, refresh string) (string, error) {
	req, err := NewJSONRequest(http.MethodPost, PathRefresh, map[string]string{"refresh": refresh})
	if err != nil {
		return "", err
	}
	op := operationName(req.Method, req.Path)
	resp, err := p.dispatch(ctx, op, req, "")
	if err != nil {
		return "", err
	}
	if _, err := checkStatus(op, resp); err != nil {
		return "", err
	}

	var payload struct {
		Access string `json:"access"`
	}
	if err := resp.DecodeJSON(&payload); err != nil {
		return "", fmt.Errorf("api token refresh: %w", err)
	}
	if payload.Access == "" {
		return "", fmt.Errorf("api token refresh: response has no access token")
	}
	return payload.Access, nil
}

func (p *Pipeline) forceLogin(op string, original *StatusError, cause error) error {
	p.logger.Warn("token_refresh_failed",
		zap.String("operation", op),
		zap.Error(cause),
	)
	if err := p.store.Clear(); err != nil {
		p.logger.Error("clear_credentials_failed", zap.Error(err))
	}
	return &domain.AuthRedirectError{
		RedirectTo: domain.RouteLogin,
		Cause:      original,
	}
}

func (p *Pipeline) dispatch(ctx context.Context, op string, req *Request, access string) (*Response, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("api %s rate limit: %w", op, err)
		}
	}

	target, err := p.resolve(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, op, err)
	}

	var out *Response
	call := func(ctx context.Context) error {
		out = nil
		resp, err := p.roundTrip(ctx, op, target, req, access)
		if err != nil {
			return err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return newStatusError(op, resp)
		}
		out = resp
		return nil
	}

	if p.executor != nil {
		err = p.executor.Execute(ctx, op, call, classifierFor(req.Method))
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapTemporaryIfNeeded(op, err)
	}
	return out, nil
}

func (p *Pipeline) roundTrip(ctx context.Context, op, target string, req *Request, access string) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", op, err)
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	if access != "" {
		httpReq.Header.Set("Authorization", "Bearer "+access)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set(HeaderRequestID, requestID)

	start := time.Now()
	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		p.observe(req, "error", start, requestID)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("api %s: %w", op, ctxErr)
		}
		return nil, domain.WrapError(domain.ErrNetwork, op, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		p.observe(req, "error", start, requestID)
		return nil, domain.WrapError(domain.ErrNetwork, op, fmt.Errorf("read body: %w", err))
	}
	p.observe(req, strconv.Itoa(httpResp.StatusCode), start, requestID)

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

func (p *Pipeline) resolve(req *Request) (string, error) {
	path := req.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	target, err := url.Parse(p.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("parse request url: %w", err)
	}
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}
	return target.String(), nil
}

func (p *Pipeline) observe(req *Request, status string, start time.Time, requestID string) {
	duration := time.Since(start)
	p.logger.Debug("api_request",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.String("status", status),
		zap.Int64("duration_ms", duration.Milliseconds()),
		zap.String("request_id", requestID),
	)
	if p.metrics != nil {
		p.metrics.RecordRequest(req.Method, req.Path, status, duration)
	}
}

func (p *Pipeline) recordRefresh(outcome string) {
	if p.metrics != nil {
		p.metrics.RecordTokenRefresh(outcome)
	}
}

func checkStatus(op string, resp *Response) (*Response, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	return nil, newStatusError(op, resp)
}

func operationName(method, path string) string {
	return resilience.OperationKey(method, path)
}
