package job

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fyerfyer/pdf-ocr-service/internal/models"
)

const (
	// DefaultFetchTimeout bounds the URL download.
	DefaultFetchTimeout = 30 * time.Second
	// DefaultMaxFetchBytes caps the downloaded file size (50MB, same
	// limit as direct uploads).
	DefaultMaxFetchBytes = 50 * 1024 * 1024
)

// Fetcher downloads job source files over HTTP with a bounded timeout
// and size limit.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewFetcher creates a fetcher. Zero values select the defaults.
func NewFetcher(timeout time.Duration, maxBytes int64) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFetchBytes
	}
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// Fetch performs a GET of url and returns the body bytes. Network
// failures and non-2xx statuses come back as a FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &models.FetchError{URL: url, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &models.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &models.FetchError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, &models.FetchError{URL: url, Err: err}
	}
	if int64(len(data)) > f.maxBytes {
		return nil, &models.FetchError{URL: url, Err: fmt.Errorf("file exceeds %d byte limit", f.maxBytes)}
	}

	return data, nil
}
