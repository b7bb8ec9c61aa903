package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const fetchAttempts = 3

// DefaultMaxImageSize caps a single download
const DefaultMaxImageSize int64 = 20 << 20

// HTTPImageFetcher downloads images over HTTP(S) with a small retry budget.
type HTTPImageFetcher struct {
	client  *http.Client
	backoff time.Duration
	maxSize int64
}

// HTTPOption configures an HTTPImageFetcher
type HTTPOption func(*HTTPImageFetcher)

// WithBackoff sets the base delay between attempts. Attempt n waits n*d.
func WithBackoff(d time.Duration) HTTPOption {
	return func(f *HTTPImageFetcher) { f.backoff = d }
}

// WithMaxSize limits the accepted response body size in bytes
func WithMaxSize(n int64) HTTPOption {
	return func(f *HTTPImageFetcher) { f.maxSize = n }
}

// NewHTTPImageFetcher creates an HTTP image fetcher whose client gives up
// after timeout.
func NewHTTPImageFetcher(timeout time.Duration, opts ...HTTPOption) *HTTPImageFetcher {
	transport := &http.Transport{
		MaxIdleConns:           10,
		MaxIdleConnsPerHost:    2,
		IdleConnTimeout:        30 * time.Second,
		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 4096,
	}

	f := &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		backoff: time.Second,
		maxSize: DefaultMaxImageSize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchImage retries network failures and 5xx responses. A 4xx response
// stops immediately.
func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) (*Image, error) {
	var lastErr error

	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * h.backoff):
			}
		}

		img, retry, err := h.fetchOnce(ctx, imageURL)
		if err == nil {
			return img, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
	}

	return nil, fmt.Errorf("failed to fetch image after %d attempts: %w", fetchAttempts, lastErr)
}

func (h *HTTPImageFetcher) fetchOnce(ctx context.Context, imageURL string) (*Image, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "image/png, image/jpeg, image/webp, image/gif, */*")
	req.Header.Set("User-Agent", "CT-Scan-Inspector/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, false, fmt.Errorf("client error: status code %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxSize+1))
	if err != nil {
		return nil, true, fmt.Errorf("failed to read image body: %w", err)
	}
	if int64(len(data)) > h.maxSize {
		return nil, false, fmt.Errorf("image exceeds %d bytes", h.maxSize)
	}

	contentType := DetectContentType(resp.Header.Get("Content-Type"), data)
	if !IsImage(contentType) {
		return nil, false, fmt.Errorf("response is not an image: %s", contentType)
	}

	return &Image{Data: data, ContentType: contentType, Source: imageURL}, false, nil
}
