// ABOUTME: HTTP client for the webhook backend that stores bot user profiles
// ABOUTME: Implements list, fetch and upsert with SHA-256 password digests

package webhook

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/2389/bot-console/internal/metrics"
	"github.com/2389/bot-console/internal/profile"
)

// Default endpoints of the hosted backend.
const (
	DefaultListURL   = "https://n8n.instantassist.cloud/webhook/admin/list"
	DefaultDataURL   = "https://n8n.instantassist.cloud/webhook/admin/data"
	DefaultUpdateURL = "https://n8n.instantassist.cloud/webhook/update"

	DefaultTimeout = 30 * time.Second
)

// Operation names used in errors, logs and metrics.
const (
	OpList = "list"
	OpGet  = "get"
	OpSave = "save"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 4 << 20

// ErrEmptyPayload is returned when a data response carries no record.
var ErrEmptyPayload = errors.New("empty payload")

// NetworkError reports a failed call to the backend: transport failure,
// non-2xx status or an undecodable body.
type NetworkError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("webhook %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("webhook %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Endpoints holds the three backend URLs.
type Endpoints struct {
	List   string
	Data   string
	Update string
}

// DefaultEndpoints returns the hosted backend URLs.
func DefaultEndpoints() Endpoints {
	return Endpoints{List: DefaultListURL, Data: DefaultDataURL, Update: DefaultUpdateURL}
}

// Client talks to the webhook backend. Every operation performs exactly one
// outbound request; there are no retries and nothing is cached.
type Client struct {
	endpoints Endpoints
	client    *http.Client
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithMetrics records every call on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a backend client.
func NewClient(endpoints Endpoints, opts ...Option) *Client {
	c := &Client{
		endpoints: endpoints,
		client:    &http.Client{Timeout: DefaultTimeout},
		logger:    slog.Default().With("component", "webhook"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HashPassword returns the lowercase hex SHA-256 digest of the UTF-8 bytes
// of plain. This is what the backend stores; it is an obfuscation, not a
// password hashing scheme.
func HashPassword(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// ListUsers fetches all bot usernames in backend order.
func (c *Client) ListUsers(ctx context.Context) ([]profile.UserListItem, error) {
	start := time.Now()
	items, err := c.listUsers(ctx)
	c.observe(OpList, err, start)
	return items, err
}

func (c *Client) listUsers(ctx context.Context) ([]profile.UserListItem, error) {
	body, err := c.do(ctx, OpList, http.MethodGet, c.endpoints.List)
	if err != nil {
		return nil, err
	}

	var items []profile.UserListItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, &NetworkError{Op: OpList, URL: c.endpoints.List, Err: fmt.Errorf("decoding list: %w", err)}
	}
	if items == nil {
		items = []profile.UserListItem{}
	}
	return items, nil
}

// GetUser fetches one full record. The backend may answer with a single
// object or with an array whose first element is the record.
func (c *Client) GetUser(ctx context.Context, username string) (*profile.UserRecord, error) {
	start := time.Now()
	target := c.endpoints.Data + "?" + url.Values{"user": {username}}.Encode()

	rec, err := c.getUser(ctx, target)
	c.observe(OpGet, err, start)
	return rec, err
}

func (c *Client) getUser(ctx context.Context, target string) (*profile.UserRecord, error) {
	body, err := c.do(ctx, OpGet, http.MethodGet, target)
	if err != nil {
		return nil, err
	}

	rec, err := decodeRecord(body)
	if err != nil {
		return nil, &NetworkError{Op: OpGet, URL: c.endpoints.Data, Err: err}
	}
	return rec, nil
}

// decodeRecord accepts either a JSON object or a non-empty JSON array.
func decodeRecord(body []byte) (*profile.UserRecord, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrEmptyPayload
	}

	if trimmed[0] == '[' {
		var recs []profile.UserRecord
		if err := json.Unmarshal(trimmed, &recs); err != nil {
			return nil, fmt.Errorf("decoding record array: %w", err)
		}
		if len(recs) == 0 {
			return nil, ErrEmptyPayload
		}
		return &recs[0], nil
	}

	var rec profile.UserRecord
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return &rec, nil
}

// SaveUser upserts a record. Fields travel as query parameters; there is no
// body. A non-empty password is sent as its SHA-256 digest, an empty one as
// the empty string.
func (c *Client) SaveUser(ctx context.Context, rec profile.UserRecord) error {
	start := time.Now()

	pass := ""
	if rec.Pass != "" {
		pass = HashPassword(rec.Pass)
	}

	params := url.Values{}
	params.Set("user", rec.User)
	params.Set("pass", pass)
	params.Set("textprompt", rec.TextPrompt)
	params.Set("imageprompt", rec.ImagePrompt)
	params.Set("type", rec.TypeOrDefault())

	_, err := c.do(ctx, OpSave, http.MethodPost, c.endpoints.Update+"?"+params.Encode())
	c.observe(OpSave, err, start)
	return err
}

// do performs one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, op, method, target string) ([]byte, error) {
	// Errors carry the endpoint without its query so secrets never leak.
	base := stripQuery(target)

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, &NetworkError{Op: op, URL: base, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, URL: base, Err: fmt.Errorf("sending request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Op: op, URL: base, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{
			Op:         op,
			URL:        base,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}
	return body, nil
}

func (c *Client) observe(op string, err error, start time.Time) {
	elapsed := time.Since(start)
	c.metrics.ObserveWebhook(op, err, elapsed)
	if err != nil {
		c.logger.Debug("webhook call failed", "op", op, "duration", elapsed, "error", err)
		return
	}
	c.logger.Debug("webhook call", "op", op, "duration", elapsed)
}

func stripQuery(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	u.RawQuery = ""
	return u.String()
}
