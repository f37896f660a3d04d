// Package httpfetch renders pages with a plain HTTP GET, for server-rendered pages and offline mirrors
package httpfetch

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// Options configures a Client
type Options struct {
	Timeout   time.Duration
	UserAgent string
}

// Client fetches raw page HTML
type Client struct {
	client    *http.Client
	userAgent string
}

// New creates a Client
func New(opts Options) *Client {
	return &Client{
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		userAgent: opts.UserAgent,
	}
}

// Render fetches url and returns the decoded body
func (c *Client) Render(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br, zstd")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch %s, status code: %d", url, resp.StatusCode)
	}

	body, err := decodeBody(resp)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", url, err)
	}
	return string(body), nil
}

// decodeBody reads the response body according to its Content-Encoding
func decodeBody(resp *http.Response) ([]byte, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		return io.ReadAll(gzipReader)
	case "deflate":
		flateReader := flate.NewReader(resp.Body)
		defer flateReader.Close()
		return io.ReadAll(flateReader)
	case "br":
		return io.ReadAll(brotli.NewReader(resp.Body))
	case "zstd":
		zstdReader, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer zstdReader.Close()
		return io.ReadAll(zstdReader)
	default:
		return io.ReadAll(resp.Body)
	}
}
