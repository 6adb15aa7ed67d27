package submit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-dynform/pkg/schema"
)

const defaultHTTPTimeout = 10 * time.Second

// HTTP posts payloads as JSON to a URL.
type HTTP struct {
	url     string
	method  string
	client  *http.Client
	headers http.Header
}

// HTTPOption configures an HTTP submitter.
type HTTPOption func(*HTTP)

// WithHTTPClient overrides the client used for requests.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(h *HTTP) {
		if client != nil {
			h.client = client
		}
	}
}

// WithMethod overrides the request method (POST by default).
func WithMethod(method string) HTTPOption {
	return func(h *HTTP) {
		if method = strings.TrimSpace(method); method != "" {
			h.method = strings.ToUpper(method)
		}
	}
}

// WithHeader adds a request header.
func WithHeader(key, value string) HTTPOption {
	return func(h *HTTP) {
		h.headers.Add(key, value)
	}
}

// WithTimeout sets the client timeout.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(h *HTTP) {
		if timeout > 0 {
			h.client = &http.Client{Timeout: timeout, Transport: h.client.Transport}
		}
	}
}

// NewHTTP returns a submitter that sends payloads to url.
func NewHTTP(url string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		url:     url,
		method:  http.MethodPost,
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		headers: make(http.Header),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Submit implements Submitter. Any non-2xx response is an error.
func (h *HTTP) Submit(ctx context.Context, payload schema.Values) error {
	if payload == nil {
		payload = schema.Values{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("submit: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, h.method, h.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("submit: build request: %w", err)
	}
	for key, values := range h.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("submit: %s %s: %w", h.method, h.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s: %s: %s", ErrRejected, h.method, h.url, resp.Status, strings.TrimSpace(string(snippet)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
