// Package backend is the HTTP client for the remote shop API: catalog, regions,
// cart, vouchers and order placement.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront.GO/core/apperror"
	"storefront.GO/core/cache"
	"storefront.GO/core/logging"
)

// Client talks to the shop backend. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	cache   cache.Cache
	ttl     time.Duration
	logger  *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithCache serves catalog, regions and fee-per-kilo from cache for ttl.
func WithCache(store cache.Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = store
		c.ttl = ttl
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		cache:   cache.NewMemory(),
		ttl:     5 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrNop(c.logger)
	return c
}

// envelope is the common part of every JSON object the backend returns.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// do sends a JSON request and decodes the JSON response into out (which may be nil).
// Responses with "success": false are turned into errors carrying the server message.
func (c *Client) do(ctx context.Context, method, path, token string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return apperror.Wrap(apperror.KindValidation, method+" "+path, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apperror.Wrap(apperror.KindNetwork, method+" "+path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, token, out)
}

func (c *Client) send(req *http.Request, token string, out interface{}) error {
	op := req.Method + " " + req.URL.Path
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return apperror.Wrap(apperror.KindNetwork, op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperror.Wrap(apperror.KindNetwork, op, err)
	}
	c.logger.Debug("backend call",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	var env envelope
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return apperror.Wrap(apperror.KindNetwork, op, fmt.Errorf("malformed response: %w", err))
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperror.New(apperror.KindAuth, op, messageOr(env.Message, "not authorized"))
	case resp.StatusCode == http.StatusNotFound:
		return apperror.New(apperror.KindNotFound, op, messageOr(env.Message, "not found"))
	case resp.StatusCode >= 400:
		return apperror.Newf(apperror.KindNetwork, op, "status %d: %s", resp.StatusCode, messageOr(env.Message, http.StatusText(resp.StatusCode)))
	case env.Success != nil && !*env.Success:
		return &RejectedError{Op: op, Message: messageOr(env.Message, "request rejected")}
	}

	if out == nil || len(trimmed) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], trimmed...)
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return apperror.Wrap(apperror.KindNetwork, op, fmt.Errorf("malformed response: %w", err))
	}
	return nil
}

// RejectedError is a well-formed "success": false answer from the backend.
type RejectedError struct {
	Op      string
	Message string
}

func (e *RejectedError) Error() string {
	return e.Op + ": " + e.Message
}

func messageOr(msg, def string) string {
	if msg != "" {
		return msg
	}
	return def
}
