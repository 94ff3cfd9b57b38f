package postalcode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 5 * time.Second

// maxBodySize caps how much of a provider response is read.
const maxBodySize = 1 << 20

// Payload is the decoded JSON object a provider returned. An empty payload
// means the provider had nothing usable: not found, or the call failed.
type Payload map[string]any

// Empty reports whether the payload carries no keys.
func (p Payload) Empty() bool {
	return len(p) == 0
}

// Provider fetches and interprets one external lookup service.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Fetch never fails: transport and decoding errors yield an empty Payload.
	Fetch(ctx context.Context, code string) Payload

	// Normalize maps a payload onto the canonical address. It returns false
	// when the payload is empty, carries the provider's not-found marker, or
	// lacks city or state.
	Normalize(p Payload) (Address, bool)
}

// fetcher performs the HTTP side shared by the providers.
type fetcher struct {
	name   string
	client *http.Client
	logger *slog.Logger
}

func newFetcher(name string, client *http.Client, timeout time.Duration, logger *slog.Logger) fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return fetcher{name: name, client: client, logger: logger.With(slog.String("provider", name))}
}

// get issues the request and masks any failure into an empty payload.
func (f fetcher) get(ctx context.Context, url string, header http.Header) Payload {
	p, err := f.fetchJSON(ctx, url, header)
	return maskFailure(f.logger, p, err)
}

// fetchJSON returns the decoded JSON object at url. Non-2xx statuses, bodies
// that are not a JSON object, and transport errors are all returned as errors.
func (f fetcher) fetchJSON(ctx context.Context, url string, header http.Header) (Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s API error (status %d): %s", f.name, resp.StatusCode, truncate(string(body), 200))
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload Payload
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return payload, nil
}

// maskFailure turns a failed call into an empty payload. Callers see a
// failure exactly as they see an unknown code; the error is only logged.
func maskFailure(logger *slog.Logger, p Payload, err error) Payload {
	if err != nil {
		logger.Warn("postal code lookup failed, treating as not found", slog.String("error", err.Error()))
		return Payload{}
	}
	if p == nil {
		return Payload{}
	}
	return p
}

// stringField reads key as a string; JSON numbers are formatted.
func stringField(p Payload, key string) string {
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}

// objectField reads key as a nested object.
func objectField(p Payload, key string) Payload {
	if m, ok := p[key].(map[string]any); ok {
		return Payload(m)
	}
	return Payload{}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
