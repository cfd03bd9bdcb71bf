// Package remote is the HTTP client for the topic store's REST interface.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/hpungsan/kb/internal/errors"
	"github.com/hpungsan/kb/internal/topic"
)

// RequestIDHeader carries a per-request ULID so store logs can be correlated with ours.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody caps how much of an error response is read for logging.
const maxErrorBody = 4 << 10

// Client talks to the topic store at a fixed base URL.
type Client struct {
	base *url.URL
	http *http.Client
	log  zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a Client for the store rooted at baseURL (e.g. http://localhost:5000/api).
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid store URL %q", baseURL))
	}

	c := &Client{
		base: u,
		http: &http.Client{},
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the store base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// List fetches the complete topic collection in store order.
func (c *Client) List(ctx context.Context) ([]topic.Topic, error) {
	var topics []topic.Topic
	if err := c.do(ctx, http.MethodGet, "/topics", nil, &topics); err != nil {
		return nil, err
	}
	if topics == nil {
		topics = []topic.Topic{}
	}
	return topics, nil
}

// Get fetches one topic.
func (c *Client) Get(ctx context.Context, id topic.ID) (*topic.Topic, error) {
	if id == "" {
		return nil, errors.NewInvalidRequest("topic id is required")
	}
	var t topic.Topic
	if err := c.do(ctx, http.MethodGet, topicPath(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create sends a new topic (its ID, if any, is not sent) and returns the stored record.
func (c *Client) Create(ctx context.Context, t topic.Topic) (*topic.Topic, error) {
	t.ID = ""
	var created topic.Topic
	if err := c.do(ctx, http.MethodPost, "/topics", t, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Update replaces the full record addressed by id.
func (c *Client) Update(ctx context.Context, id topic.ID, t topic.Topic) (*topic.Topic, error) {
	if id == "" {
		return nil, errors.NewInvalidRequest("topic id is required")
	}
	t.ID = id
	var updated topic.Topic
	if err := c.do(ctx, http.MethodPut, topicPath(id), t, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the topic addressed by id. The response body is ignored.
func (c *Client) Delete(ctx context.Context, id topic.ID) error {
	if id == "" {
		return errors.NewInvalidRequest("topic id is required")
	}
	return c.do(ctx, http.MethodDelete, topicPath(id), nil, nil)
}

func topicPath(id topic.ID) string {
	return "/topics/" + url.PathEscape(id.String())
}

// do sends one request. in is JSON-encoded when non-nil; out is decoded from a
// non-empty 2xx body when non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.NewInternal(fmt.Errorf("encode request: %w", err))
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return errors.NewInternal(err)
	}
	reqID := ulid.Make().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, reqID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).
			Str("method", method).
			Str("path", path).
			Str("request_id", reqID).
			Dur("duration", time.Since(start)).
			Msg("topic store request failed")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.NewUnavailable(ctxErr)
		}
		return errors.NewUnavailable(err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("request_id", reqID).
		Dur("duration", time.Since(start)).
		Msg("topic store request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Warn().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Str("request_id", reqID).
			Str("body", strings.TrimSpace(string(snippet))).
			Msg("topic store rejected request")
		return c.statusError(resp.StatusCode, method, path)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewUnavailable(err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.NewInternal(fmt.Errorf("decode %s %s response: %w", method, path, err))
	}
	return nil
}

// statusError maps a non-2xx store status to a typed error.
// A 404 on the collection itself means the base URL is wrong, not that a topic is missing.
func (c *Client) statusError(status int, method, path string) error {
	switch status {
	case http.StatusBadRequest:
		return errors.NewInvalidRequest(fmt.Sprintf("store rejected %s %s", method, path))
	case http.StatusNotFound:
		if path == "/topics" {
			kbErr := errors.NewRemote(http.StatusBadGateway, method, path)
			kbErr.Message = fmt.Sprintf("no topic collection at %s%s (store returned 404); check the store base URL", c.base, path)
			kbErr.Details["store_status"] = status
			return kbErr
		}
		id, err := url.PathUnescape(strings.TrimPrefix(path, "/topics/"))
		if err != nil {
			id = path
		}
		return errors.NewNotFound(id)
	case http.StatusConflict:
		return errors.NewConflict(fmt.Sprintf("store reported a conflict for %s %s", method, path))
	default:
		return errors.NewRemote(status, method, path)
	}
}
