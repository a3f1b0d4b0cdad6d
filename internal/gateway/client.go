// Package gateway is the HTTP client of the ModularAI backend.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iksnae/modular-chat/internal"
)

// Operation names, used in RequestFailedError.Op
const (
	OpChat      = "chat"
	OpMemory    = "memory"
	OpDocuments = "documents"
	OpPing      = "ping"
)

// Default failure messages, used when the backend sends no body.
var defaultMessages = map[string]string{
	OpChat:      "Request failed",
	OpMemory:    "Failed to load memory",
	OpDocuments: "Failed to add documents",
	OpPing:      "Backend unreachable",
}

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody bounds how much of an error response is kept as the message.
const maxErrorBody = 4096

// Client talks to the backend over HTTP.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	messages map[string]string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.HTTPClient = hc
	}
}

// WithTimeout bounds every request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.HTTPClient
		hc.Timeout = d
		c.HTTPClient = &hc
	}
}

// WithDefaultMessages overrides the failure messages used when the backend
// sends no body, keyed by operation. Blank entries are ignored.
func WithDefaultMessages(msgs map[string]string) Option {
	return func(c *Client) {
		for op, msg := range msgs {
			if strings.TrimSpace(msg) != "" {
				c.messages[op] = msg
			}
		}
	}
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
		messages:   maps.Clone(defaultMessages),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChatReply is the response of POST /chat
type ChatReply struct {
	Reply string `json:"reply"`
	Steps int    `json:"steps"`
}

// Memory is the response of GET /memory/{user_id}
type Memory struct {
	UserID   string   `json:"user_id"`
	Memories []string `json:"memories"`
}

// DocumentsResult is the response of POST /documents
type DocumentsResult struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type chatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

type documentsRequest struct {
	Documents []string `json:"documents"`
}

// SendMessage posts a user message and returns the agent reply.
func (c *Client) SendMessage(ctx context.Context, userID, text string) (*ChatReply, error) {
	var reply ChatReply
	if err := c.do(ctx, OpChat, http.MethodPost, "/chat", chatRequest{UserID: userID, Message: text}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// FetchMemory returns the long-term memories the backend keeps for userID.
func (c *Client) FetchMemory(ctx context.Context, userID string) (*Memory, error) {
	var mem Memory
	if err := c.do(ctx, OpMemory, http.MethodGet, "/memory/"+url.PathEscape(userID), nil, &mem); err != nil {
		return nil, err
	}
	if mem.Memories == nil {
		mem.Memories = []string{}
	}
	return &mem, nil
}

// AddDocuments submits documents for indexing.
func (c *Client) AddDocuments(ctx context.Context, docs []string) (*DocumentsResult, error) {
	if docs == nil {
		docs = []string{}
	}
	var result DocumentsResult
	if err := c.do(ctx, OpDocuments, http.MethodPost, "/documents", documentsRequest{Documents: docs}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ping checks that the backend answers on its root path.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, OpPing, http.MethodGet, "/", nil, nil)
}

func (c *Client) failed(op string, status int, msg string, err error) *internal.RequestFailedError {
	if strings.TrimSpace(msg) == "" {
		msg = c.messages[op]
	}
	return &internal.RequestFailedError{Op: op, StatusCode: status, Message: msg, Err: err}
}

// do performs a single request. A nil out skips decoding the response body.
func (c *Client) do(ctx context.Context, op, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return c.failed(op, 0, "", fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return c.failed(op, 0, "", err)
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	internal.LogDebug("%s %s (%s)", method, path, requestID)
	start := time.Now()

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		internal.LogWarn("%s %s failed (%s): %v", method, path, requestID, err)
		msg := ""
		if errors.Is(err, context.Canceled) {
			msg = "Request cancelled"
		}
		return c.failed(op, 0, msg, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		internal.LogWarn("%s %s returned %d (%s)", method, path, resp.StatusCode, requestID)
		return c.failed(op, resp.StatusCode, string(data), fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	internal.LogDebug("%s %s returned %d in %s (%s)", method, path, resp.StatusCode, time.Since(start), requestID)

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return c.failed(op, resp.StatusCode, "", fmt.Errorf("decode response: %w", err))
	}
	return nil
}
