// Package client talks to a running stradmind server.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kingrea/strad-mind/internal/memory"
	"github.com/kingrea/strad-mind/internal/ritual"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 5 * time.Second

// Client is a thin JSON client for the read-only endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New returns a client for baseURL (scheme + host:port).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// BaseURL returns the server address the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Pulse mirrors GET /v1/pulse.
type Pulse struct {
	OK           bool       `json:"ok"`
	Time         time.Time  `json:"time"`
	FrameStatus  string     `json:"frame_status"`
	BalanceGate  *time.Time `json:"balance_gate"`
	DriveLaunch  *time.Time `json:"drive_launch"`
	LastDecision *string    `json:"last_decision"`
	LastNumber   *string    `json:"last_number"`
}

// Health mirrors GET /health.
type Health struct {
	OK      bool      `json:"ok"`
	Name    string    `json:"name"`
	Version string    `json:"version"`
	Eco     bool      `json:"eco"`
	Time    time.Time `json:"time"`
	Stage   string    `json:"stage"`
}

// State mirrors GET /v1/state.
type State struct {
	Version     string             `json:"version"`
	Eco         bool               `json:"eco"`
	Time        time.Time          `json:"time"`
	Frame       ritual.Frame       `json:"frame"`
	Short       memory.Short       `json:"short"`
	Friction    ritual.Friction    `json:"friction"`
	MastersGate ritual.MastersGate `json:"masters_gate"`
	D6          *ritual.D6         `json:"d6"`
}

// Semaphore is the latest D6 colour once the frame has closed on one, and
// the friction provisional status otherwise.
func (s State) Semaphore() ritual.Semaphore {
	if s.D6 != nil && s.Frame.Status == ritual.StatusClosed {
		return s.D6.Semaphore
	}
	return s.Friction.ProvisionalStatus
}

// Pulse fetches the quick status used by dashboards.
func (c *Client) Pulse(ctx context.Context) (Pulse, error) {
	var out Pulse
	if err := c.get(ctx, "/v1/pulse", &out); err != nil {
		return Pulse{}, err
	}
	return out, nil
}

// Health fetches the service identity and current stage.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	if err := c.get(ctx, "/health", &out); err != nil {
		return Health{}, err
	}
	return out, nil
}

// State fetches the full ritual snapshot.
func (c *Client) State(ctx context.Context) (State, error) {
	var out State
	if err := c.get(ctx, "/v1/state", &out); err != nil {
		return State{}, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("client: build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("client: GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("client: decode %s: %w", path, err)
	}
	return nil
}
