// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/newsdesk/internal/model"
	"github.com/jeranaias/newsdesk/internal/storage"
)

// Configuration constants for the backend client.
const (
	// DefaultTimeout is the default timeout for a single backend request.
	DefaultTimeout = 60 * time.Second

	// DefaultUserAgent identifies the client when no other agent is set.
	DefaultUserAgent = "newsdesk"

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 4 * 1024 * 1024

	// RequestIDHeader carries a per-request uuid for correlating logs.
	RequestIDHeader = "X-Request-ID"
)

// Endpoint paths relative to the base URL.
const (
	ChatPath      = "/chat"
	AssistantPath = "/assistant"
	HealthPath    = "/health"
)

// MetadataStore is the subset of the local store the client needs to keep
// the assistant thread id. *storage.Store satisfies it.
type MetadataStore interface {
	GetMetadata(ctx context.Context, key string) (string, bool, error)
	SetMetadataIfAbsent(ctx context.Context, key, value string) (bool, error)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the news backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	meta       MetadataStore
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each request. Zero disables the bound; the caller's
// context still applies.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout >= 0 {
			c.timeout = timeout
		}
	}
}

// WithRateLimit allows at most perMinute requests per minute. Zero or a
// negative value means unlimited.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New creates a client for the backend at baseURL. meta may be nil, in which
// case assistant mode starts a fresh thread on every request.
func New(baseURL string, meta MetadataStore, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		meta:       meta,
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		userAgent:  DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// REQUESTS
// =============================================================================

type chatRequest struct {
	Message string `json:"message"`
}

type assistantRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id,omitempty"`
}

// GetResponse sends message to the endpoint selected by mode and returns the
// normalized reply.
//
// In assistant mode the stored thread id is sent along, and a thread id in
// the reply is stored only if none is stored yet. Backend failures are
// returned as *UpstreamError; metadata failures are returned as the store
// reported them.
func (c *Client) GetResponse(ctx context.Context, message string, mode model.Mode) (*model.Reply, error) {
	var (
		endpoint string
		payload  interface{}
		loc      replyLocation
	)

	switch mode {
	case model.ModeChat:
		endpoint = ChatPath
		payload = chatRequest{Message: message}
		loc = replyTopLevel

	case model.ModeAssistant:
		threadID, err := c.threadID(ctx)
		if err != nil {
			return nil, err
		}
		endpoint = AssistantPath
		payload = assistantRequest{Message: message, ThreadID: threadID}
		loc = replyInSummary

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	body, err := c.do(ctx, http.MethodPost, endpoint, payload, mode)
	if err != nil {
		return nil, err
	}

	reply, err := decodeReply(body, loc)
	if err != nil {
		return nil, &UpstreamError{Endpoint: endpoint, Status: http.StatusOK, Err: err}
	}
	reply.Mode = mode

	if mode == model.ModeAssistant && reply.ThreadID != "" && c.meta != nil {
		stored, err := c.meta.SetMetadataIfAbsent(ctx, storage.KeyThreadID, reply.ThreadID)
		if err != nil {
			return nil, fmt.Errorf("failed to store thread id: %w", err)
		}
		if stored {
			log.Printf("THREAD_STARTED | thread_id=%s", reply.ThreadID)
		}
	}

	return reply, nil
}

// threadID returns the stored assistant thread id, or "" when none.
func (c *Client) threadID(ctx context.Context) (string, error) {
	if c.meta == nil {
		return "", nil
	}
	threadID, found, err := c.meta.GetMetadata(ctx, storage.KeyThreadID)
	if err != nil {
		return "", fmt.Errorf("failed to read thread id: %w", err)
	}
	if !found {
		return "", nil
	}
	return threadID, nil
}

type healthResponse struct {
	Status string `json:"status"`
}

// Health checks that the backend is up. A nil error means it answered
// {"status":"ok"}.
func (c *Client) Health(ctx context.Context) error {
	body, err := c.do(ctx, http.MethodGet, HealthPath, nil, "")
	if err != nil {
		return err
	}

	var health healthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return &UpstreamError{Endpoint: HealthPath, Status: http.StatusOK, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if health.Status != "ok" {
		return &UpstreamError{Endpoint: HealthPath, Status: http.StatusOK, Message: fmt.Sprintf("status %q", health.Status)}
	}
	return nil
}

// do performs one request and returns the body of a 2xx response.
// Transport failures and non-2xx statuses become *UpstreamError.
func (c *Client) do(ctx context.Context, method, endpoint string, payload interface{}, mode model.Mode) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, &UpstreamError{Endpoint: endpoint, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, requestID)

	// Message text is never logged
	log.Printf("BACKEND_REQUEST | method=%s path=%s mode=%s request_id=%s", method, endpoint, mode, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("BACKEND_ERROR | path=%s request_id=%s duration=%v error=%v", endpoint, requestID, time.Since(start), err)
		return nil, &UpstreamError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	log.Printf("BACKEND_RESPONSE | path=%s request_id=%s status=%d duration=%v", endpoint, requestID, resp.StatusCode, time.Since(start))

	body, err := readResponse(resp)
	if err != nil {
		return nil, &UpstreamError{Endpoint: endpoint, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{
			Endpoint: endpoint,
			Status:   resp.StatusCode,
			Message:  excerpt(body),
		}
	}

	return body, nil
}

// readResponse reads the response body with a size limit.
//
// SECURITY: Response size limit prevents memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("%w: exceeded %d bytes", ErrResponseTooLarge, MaxResponseSize)
	}
	return body, nil
}
