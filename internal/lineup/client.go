package lineup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the default per-request HTTP timeout. Matches the
	// bounded-timeout contract: no fetch may block a reconciliation pass
	// indefinitely.
	DefaultTimeout = 5 * time.Second

	// maxBodySize caps response bodies. Lineups are small; anything larger
	// is not a lineup.
	maxBodySize = 4 << 20
)

// Client fetches lineup and identity documents from tuner devices over HTTP.
type Client struct {
	// HTTPClient is the underlying HTTP client. Its Timeout bounds every
	// request issued by this client.
	HTTPClient *http.Client
}

// NewClient creates a lineup client with the given per-request timeout.
// A non-positive timeout falls back to DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves and parses the channel lineup from the device at address
// (host or host:port). Failures are classified as *FetchError.
func (c *Client) Fetch(ctx context.Context, address string) ([]Channel, error) {
	data, err := c.get(ctx, address, "/lineup.json")
	if err != nil {
		return nil, err
	}

	channels, err := parseLineup(data)
	if err != nil {
		return nil, &FetchError{
			Kind:    KindMalformedResponse,
			Address: address,
			Message: "malformed lineup response",
			Err:     err,
		}
	}

	return channels, nil
}

// DeviceInfo retrieves the identity document from the device at address.
// Used during discovery to verify a responder is a real tuner and to
// obtain its stable device ID and friendly name.
func (c *Client) DeviceInfo(ctx context.Context, address string) (*DeviceInfo, error) {
	data, err := c.get(ctx, address, "/discover.json")
	if err != nil {
		return nil, err
	}

	var info DeviceInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, &FetchError{
			Kind:    KindMalformedResponse,
			Address: address,
			Message: "malformed discover response",
			Err:     err,
		}
	}

	return &info, nil
}

// get issues a single bounded GET against the device and returns the body.
func (c *Client) get(ctx context.Context, address, path string) ([]byte, error) {
	url := deviceURL(address, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{
			Kind:    KindUnreachable,
			Address: address,
			Message: "failed to build request",
			Err:     err,
		}
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err, address)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{
			Kind:    KindMalformedResponse,
			Address: address,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, classifyTransportError(err, address)
	}

	return data, nil
}

// deviceURL builds the request URL for a device address, which may be a
// bare host or host:port.
func deviceURL(address, path string) string {
	address = strings.TrimSuffix(address, "/")
	if strings.HasPrefix(address, "http://") || strings.HasPrefix(address, "https://") {
		return address + path
	}
	return "http://" + address + path
}
