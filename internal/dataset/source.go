// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dataset

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/scatterscope/internal/httputil"
)

// Source opens the named data files. A missing file is reported with an
// error wrapping fs.ErrNotExist.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// DirSource reads data files from a local directory.
type DirSource struct {
	Dir string
}

// Open opens Dir/name.
func (s DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.Dir, name))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	return f, nil
}

func (s DirSource) String() string { return s.Dir }

// HTTPSource fetches data files relative to a base URL, retrying on 429.
type HTTPSource struct {
	BaseURL    string
	Client     *http.Client
	MaxRetries int
}

// NewHTTPSource returns an HTTPSource with a bounded client timeout.
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

// Open fetches BaseURL/name. A 404 wraps fs.ErrNotExist.
func (s *HTTPSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	u, err := url.JoinPath(strings.TrimRight(s.BaseURL, "/"), name)
	if err != nil {
		return nil, fmt.Errorf("building URL for %s: %w", name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, s.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", name, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: %w", name, fs.ErrNotExist)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: HTTP status %d", name, resp.StatusCode)
	}
	return resp.Body, nil
}

func (s *HTTPSource) String() string { return s.BaseURL }

// NewSource picks an HTTPSource when location looks like a URL and a
// DirSource otherwise.
func NewSource(location string, timeout time.Duration) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(location, timeout)
	}
	return DirSource{Dir: location}
}
