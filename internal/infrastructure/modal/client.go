package modal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/basel-ax/promptpix/internal/domain"
)

const (
	// maxErrorBody caps how much of a failed response is kept for logging
	maxErrorBody = 4 << 10
	// DefaultContentType is what we ask the backend for
	DefaultContentType = "image/jpeg"
)

var supportedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// Client represents the text-to-image endpoint client
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	apiKey     string
}

// NewClient creates a new client. A zero timeout leaves the transport default in place.
func NewClient(baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base URL scheme %q", u.Scheme)
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    u,
		apiKey:     apiKey,
	}, nil
}

// Generate requests a single image for prompt. Every failure is a *domain.UpstreamError.
func (c *Client) Generate(ctx context.Context, prompt string) (*domain.GeneratedImage, error) {
	u := *c.baseURL
	q := u.Query()
	q.Set("prompt", prompt)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &domain.UpstreamError{Message: "failed to create request", Err: err}
	}
	httpReq.Header.Set("X-API-KEY", c.apiKey)
	httpReq.Header.Set("Accept", DefaultContentType)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &domain.UpstreamError{Message: "failed to send request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &domain.UpstreamError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.UpstreamError{StatusCode: resp.StatusCode, Message: "failed to read image", Err: err}
	}
	if len(data) == 0 {
		return nil, &domain.UpstreamError{StatusCode: resp.StatusCode, Message: "empty image payload"}
	}

	contentType, err := imageContentType(resp.Header.Get("Content-Type"), data)
	if err != nil {
		return nil, &domain.UpstreamError{StatusCode: resp.StatusCode, Message: "malformed image payload", Err: err}
	}

	return &domain.GeneratedImage{
		Data:        data,
		ContentType: contentType,
	}, nil
}

// imageContentType resolves the payload type from the header, sniffing when the header is absent
func imageContentType(header string, data []byte) (string, error) {
	mediaType := ""
	if header != "" {
		mt, _, err := mime.ParseMediaType(header)
		if err != nil {
			return "", fmt.Errorf("invalid content type %q: %w", header, err)
		}
		mediaType = mt
	}
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType, _, _ = mime.ParseMediaType(http.DetectContentType(data))
	}
	if !supportedTypes[mediaType] {
		return "", errors.New("unsupported content type " + mediaType)
	}
	return mediaType, nil
}
