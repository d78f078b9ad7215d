package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rgowan/tunerbridge/internal/devices"
	"github.com/rgowan/tunerbridge/internal/registry"
)

const (
	requestTimeout            = 10 * time.Second
	websocketHandshakeTimeout = 10 * time.Second
)

// Client talks to a running tunerbridge daemon over its control API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	dialer     *websocket.Dialer
}

// New creates a client for the daemon at addr (host:port, no scheme).
func New(addr string) *Client {
	return &Client{
		baseURL:    "http://" + addr,
		httpClient: &http.Client{Timeout: requestTimeout},
		dialer: &websocket.Dialer{
			HandshakeTimeout: websocketHandshakeTimeout,
		},
	}
}

// Devices returns the daemon's current device table.
func (c *Client) Devices(ctx context.Context) ([]devices.Device, error) {
	var body struct {
		Devices []devices.Device `json:"devices"`
	}
	if err := c.get(ctx, "/api/devices", &body); err != nil {
		return nil, err
	}
	return body.Devices, nil
}

// Sources returns the daemon's current source registry.
func (c *Client) Sources(ctx context.Context) ([]registry.Source, error) {
	var body struct {
		Sources []registry.Source `json:"sources"`
	}
	if err := c.get(ctx, "/api/sources", &body); err != nil {
		return nil, err
	}
	return body.Sources, nil
}

// Refresh asks the daemon for a full refresh pass. It reports whether the
// request was queued behind an already pending one.
func (c *Client) Refresh(ctx context.Context) (bool, error) {
	return c.trigger(ctx, "/api/refresh")
}

// Discover asks the daemon for an immediate discovery round.
func (c *Client) Discover(ctx context.Context) (bool, error) {
	return c.trigger(ctx, "/api/discover")
}

// Events opens the daemon's intent stream. The returned channel closes
// when the connection drops or ctx is cancelled.
func (c *Client) Events(ctx context.Context) (<-chan registry.Intent, error) {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/api/events"
	conn, resp, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, fmt.Errorf("connecting to event stream: %w", err)
	}

	events := make(chan registry.Intent, 16)
	go func() {
		defer close(events)
		defer conn.Close()
		for {
			var intent registry.Intent
			if err := conn.ReadJSON(&intent); err != nil {
				return
			}
			select {
			case events <- intent:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	return events, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("daemon returned %s for %s: %s", resp.Status, path, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) trigger(ctx context.Context, path string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("daemon returned %s for %s", resp.Status, path)
	}
	var body struct {
		Triggered bool `json:"triggered"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, err
	}
	return body.Triggered, nil
}
