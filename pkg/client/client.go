package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/akrauze/OpenFilamentSensor/pkg/settings"
	"github.com/akrauze/OpenFilamentSensor/pkg/status"
	"github.com/akrauze/OpenFilamentSensor/pkg/version"
)

// DefaultTimeout bounds poll requests. Streams are bounded by their context
// only.
const DefaultTimeout = 10 * time.Second

// ErrUnexpectedResponse is returned for responses the client cannot
// interpret.
var ErrUnexpectedResponse = errors.New("unexpected response")

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("server returned %d", e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

// Health is the /api/health response.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Streams int    `json:"streams"`
	Uptime  string `json:"uptime"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the client used for poll requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithStreamClient sets the client used for event streams. It must not set
// an overall timeout.
func WithStreamClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.stream = hc
		}
	}
}

// Client talks to one sensor.
type Client struct {
	baseURL string
	http    *http.Client
	stream  *http.Client
}

// New creates a client for baseURL (e.g. "http://192.168.1.42"). A bare
// host gets the http scheme.
func New(baseURL string, opts ...Option) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		stream:  &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SensorStatus fetches one snapshot.
func (c *Client) SensorStatus(ctx context.Context) (status.Snapshot, error) {
	var snap status.Snapshot
	err := c.getJSON(ctx, "/sensor_status", &snap)
	return snap, err
}

// Settings fetches the current settings.
func (c *Client) Settings(ctx context.Context) (settings.Settings, error) {
	var s settings.Settings
	err := c.getJSON(ctx, "/get_settings", &s)
	return s, err
}

// UpdateSettings merges partial into the server's settings.
func (c *Client) UpdateSettings(ctx context.Context, partial map[string]any) error {
	body, err := json.Marshal(partial)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return c.UpdateSettingsJSON(ctx, body)
}

// UpdateSettingsJSON posts a raw JSON body to the settings endpoint.
func (c *Client) UpdateSettingsJSON(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/update_settings", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := c.do(req, &result); err != nil {
		return err
	}
	if !result.Success {
		return &APIError{StatusCode: http.StatusOK, Message: result.Error}
	}
	return nil
}

// DiscoverPrinter asks the sensor to locate the printer and returns its
// address.
func (c *Client) DiscoverPrinter(ctx context.Context) (string, error) {
	var result struct {
		IP string `json:"ip"`
	}
	if err := c.getJSON(ctx, "/discover_printer", &result); err != nil {
		return "", err
	}
	return result.IP, nil
}

// Version fetches the version descriptor.
func (c *Client) Version(ctx context.Context) (version.Descriptor, error) {
	var d version.Descriptor
	err := c.getJSON(ctx, "/version", &d)
	return d, err
}

// Logs fetches the recent log lines.
func (c *Client) Logs(ctx context.Context) ([]string, error) {
	var result struct {
		Logs []string `json:"logs"`
	}
	if err := c.getJSON(ctx, "/api/logs_live", &result); err != nil {
		return nil, err
	}
	return result.Logs, nil
}

// LogsText fetches the recent log lines as plain text.
func (c *Client) LogsText(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/logs_text", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Health fetches the service health.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.getJSON(ctx, "/api/health", &h)
	return h, err
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnexpectedResponse, req.Method, req.URL.Path, err)
	}
	return nil
}

// checkStatus converts non-2xx responses into *APIError, reading both the
// {"error","details"} and {"success":false,"error"} body shapes.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		apiErr.Message = payload.Error
		apiErr.Details = payload.Details
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
