package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	// maxDatasetBytes bounds the payload accepted from a remote source.
	maxDatasetBytes = 256 << 20
)

// httpSource fetches the dataset with a single GET to a fixed URL.
type httpSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a SchoolSource that downloads the dataset from url.
// A nil client gets a default one with a 30 second timeout.
func NewHTTPSource(url string, client *http.Client) SchoolSource {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &httpSource{url: url, client: client}
}

// Fetch downloads and decodes the dataset. Any non-2xx status is a failure.
func (s *httpSource) Fetch(ctx context.Context) (*Dataset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build dataset request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dataset from %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch dataset from %s: unexpected status %d", s.url, resp.StatusCode)
	}

	schools, rejected, err := DecodeDataset(io.LimitReader(resp.Body, maxDatasetBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset from %s: %w", s.url, err)
	}

	return &Dataset{Schools: schools, Rejected: rejected, Origin: s.url}, nil
}
