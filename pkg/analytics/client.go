package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	dashboard "github.com/goliatone/go-brandboard/components/dashboard"
)

// Config configures the analytics client.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client

	// QueueSize bounds the in-flight event buffer; events past the bound
	// are dropped. Defaults to 256.
	QueueSize int
}

// Client ships usage events to the analytics ingestion endpoint. Record is
// fire-and-forget: it enqueues and returns immediately, a background worker
// posts batches of one, and failures are dropped silently. Losing an
// analytics event must never be a product problem.
type Client struct {
	baseURL   string
	apiKey    string
	client    *http.Client
	sessionID string

	mu     sync.Mutex
	closed bool
	queue  chan event
	done   chan struct{}
}

type event struct {
	Event      string         `json:"event"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  string         `json:"timestamp"`
	SessionID  string         `json:"sessionId"`
}

// New builds and starts the client. Callers should Close it on shutdown to
// drain the queue.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("analytics: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = 256
	}
	c := &Client{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		client:    httpClient,
		sessionID: uuid.NewString(),
		queue:     make(chan event, size),
		done:      make(chan struct{}),
	}
	go c.run()
	return c, nil
}

var _ dashboard.Telemetry = (*Client)(nil)

// SessionID returns the id stamped on every event from this client.
func (c *Client) SessionID() string { return c.sessionID }

// Record implements dashboard.Telemetry. It never blocks and never fails:
// when the queue is full, or the client is already closed, the event is
// dropped.
func (c *Client) Record(_ context.Context, name string, payload map[string]any) {
	e := event{
		Event:      name,
		Properties: payload,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		SessionID:  c.sessionID,
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.queue <- e:
	default:
	}
}

// Close stops the worker after draining queued events. Records arriving
// after Close are dropped.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.queue)
	c.mu.Unlock()
	<-c.done
}

func (c *Client) run() {
	defer close(c.done)
	for e := range c.queue {
		c.post(e)
	}
}

func (c *Client) post(e event) {
	body, err := json.Marshal(e)
	if err != nil {
		return
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/analytics/events", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return
	}
	_ = resp.Body.Close()
}
