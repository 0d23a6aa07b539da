// Package client is the HTTP client for the relay's analyze endpoint.
// Ordinary HTTP and protocol failures are normalized into an
// AnalyzeResult carrying an error field; only transport-level
// unreachability surfaces as a Go error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jpbenga/tyrecheck/internal/models"
)

// maxDetailLen bounds diagnostic detail text so malformed responses
// never flood the UI
const maxDetailLen = 500

// Client talks to one relay instance
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBearerToken sends the given token on every request
func WithBearerToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for the relay at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Analyze uploads the image under the fixed field name and returns the
// relay's answer as a discriminated result. The returned error is
// non-nil only when the relay could not be reached at all.
func (c *Client) Analyze(ctx context.Context, image io.Reader, filename string) (*models.AnalyzeResult, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relay unreachable: %w", err)
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("relay unreachable: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.ErrResult(fmt.Sprintf("HTTP %d", resp.StatusCode), truncate(text)), nil
	}

	// A redirect or auth proxy can hand back HTML with a 200; refuse to
	// parse anything not declared as JSON
	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		return models.ErrResult("Non-JSON response", truncate(text)), nil
	}

	var result models.AnalyzeResult
	if err := json.Unmarshal(text, &result); err != nil {
		return models.ErrResult("Non-JSON response", truncate(text)), nil
	}

	if result.OK() {
		if err := result.Classification.Validate(); err != nil {
			return models.ErrResult("Invalid response shape", err.Error()), nil
		}
	}

	return &result, nil
}

// truncate bounds diagnostic text to maxDetailLen bytes without
// splitting a multi-byte rune at the cut
func truncate(b []byte) string {
	if len(b) <= maxDetailLen {
		return string(b)
	}
	cut := maxDetailLen
	for cut > 0 && !utf8.RuneStart(b[cut]) {
		cut--
	}
	return string(b[:cut])
}
