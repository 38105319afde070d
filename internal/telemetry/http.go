package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"brewtemp/internal/config"
)

const (
	authHeader = "X-Auth-Token"
	apiPrefix  = "/api/v1.6/devices/"
)

// HTTPTransport uses the Ubidots REST API over plain HTTP.
type HTTPTransport struct {
	baseURL string
	token   string
	client  *http.Client
}

// BaseURL is the REST endpoint for a telemetry table.
func BaseURL(cfg config.TelemetryConfig) string {
	return fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)
}

func NewHTTPTransport(baseURL, token string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

var _ Transport = (*HTTPTransport)(nil)

func (t *HTTPTransport) deviceURL(device string, parts ...string) string {
	u := t.baseURL + apiPrefix + url.PathEscape(device)
	for _, p := range parts {
		u += "/" + url.PathEscape(p)
	}
	return u
}

// Publish posts all values in one request.
func (t *HTTPTransport) Publish(ctx context.Context, device string, values map[string]float64) error {
	body, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode values: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.deviceURL(device), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(authHeader, t.token)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", device, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("publish to %s: unexpected status %d", device, resp.StatusCode)
	}
	return nil
}

// LastValue reads the "lv" endpoint, which answers with a bare number.
func (t *HTTPTransport) LastValue(ctx context.Context, device, label string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.deviceURL(device, label, "lv"), nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set(authHeader, t.token)

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("read %s/%s: %w", device, label, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, ErrNoValue
	}
	if resp.StatusCode/100 != 2 {
		return 0, fmt.Errorf("read %s/%s: unexpected status %d", device, label, resp.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return 0, fmt.Errorf("read %s/%s body: %w", device, label, err)
	}
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		return 0, ErrNoValue
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s/%s value %q: %w", device, label, s, err)
	}
	return v, nil
}

func (t *HTTPTransport) Resubscribe(context.Context, string, []string) error { return nil }

func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
