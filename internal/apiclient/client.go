package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/signa-app/trademark-console/internal/logging"
	"github.com/signa-app/trademark-console/internal/metrics"
	"github.com/signa-app/trademark-console/internal/session"
)

const maxErrorBody = 1 << 20

// UnauthorizedFunc runs after the stored token was cleared because the
// server answered 401.
type UnauthorizedFunc func(ctx context.Context)

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     session.Store
	metrics    *metrics.API

	onUnauthorized atomic.Pointer[UnauthorizedFunc]
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

func WithMetrics(m *metrics.API) Option {
	return func(c *Client) { c.metrics = m }
}

func NewClient(baseURL string, tokens session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnUnauthorized installs the hook run on every 401. The session
// orchestrator uses it to log out and redirect.
func (c *Client) OnUnauthorized(fn UnauthorizedFunc) {
	if fn == nil {
		c.onUnauthorized.Store(nil)
		return
	}
	c.onUnauthorized.Store(&fn)
}

type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Public requests carry no bearer token and treat 401 as an ordinary
	// rejection (the login call).
	Public bool
}

func (c *Client) URL(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// Do sends req and decodes a JSON success body into out when out is non-nil.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	l := logging.FromContext(ctx).With("svc", "apiclient", "method", req.Method, "path", req.Path)

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.URL(req.Path, req.Query), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if !req.Public && c.tokens != nil {
		if token, ok := c.tokens.Get(ctx); ok && token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.Observe(req.Method, 0, time.Since(start))
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("do request: %w", err)
		}
		l.Warn("api_request_failed", "request_id", requestID, "reason", "transport", "error", err)
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	took := time.Since(start)
	c.metrics.Observe(req.Method, resp.StatusCode, took)
	l = l.With("request_id", requestID, "status", resp.StatusCode, "duration_ms", took.Milliseconds())

	if resp.StatusCode == http.StatusUnauthorized && !req.Public {
		l.Warn("api_request_unauthorized")
		c.expireSession(ctx)
		return ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		rerr := &RemoteError{
			StatusCode: resp.StatusCode,
			StatusText: statusText(resp),
			Detail:     parseDetail(raw),
		}
		l.Warn("api_request_rejected", "reason", rerr.Error())
		return rerr
	}

	l.Debug("api_request_completed")

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) expireSession(ctx context.Context) {
	if c.tokens != nil {
		if err := c.tokens.Remove(ctx); err != nil {
			logging.FromContext(ctx).Error("token_remove_failed", "error", err)
		}
	}
	c.metrics.SessionExpired()
	if fn := c.onUnauthorized.Load(); fn != nil {
		(*fn)(ctx)
	}
}

func statusText(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if t := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); t != "" {
		return t
	}
	return http.StatusText(resp.StatusCode)
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

func (c *Client) Patch(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Query: query, Body: body}, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, nil)
}
