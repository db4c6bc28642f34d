// Package bls reads the Bureau of Labor Statistics CPI flat files, either
// from the BLS download server or from a local copy, into cpi.Records.
package bls

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/runnerr0/cpi/internal/logger"
)

// DefaultBaseURL is where the BLS publishes the CPI-U time series.
const DefaultBaseURL = "https://download.bls.gov/pub/time.series/cu/"

// DefaultUserAgent identifies the client. The BLS rejects requests without
// a contact in the User-Agent.
const DefaultUserAgent = "cpi-go (https://github.com/runnerr0/cpi)"

// DefaultTimeout bounds each file download.
const DefaultTimeout = 60 * time.Second

// Source opens one named flat file. A missing file is reported with an
// error wrapping fs.ErrNotExist.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	String() string
}

// HTTPSource downloads files from a BLS-style directory listing.
type HTTPSource struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

// NewHTTPSource returns an HTTPSource with the given settings. Empty values
// take the defaults; a non-positive timeout means DefaultTimeout.
func NewHTTPSource(baseURL, userAgent string, timeout time.Duration) *HTTPSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPSource{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Client:    &http.Client{Timeout: timeout},
	}
}

// Open fetches name below BaseURL. The caller must close the body.
func (s *HTTPSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	url := s.BaseURL + name
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", s.UserAgent)

	logger.Debug("downloading %s", url)
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("download %s: %w", url, fs.ErrNotExist)
	case resp.StatusCode != http.StatusOK:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("download %s: unexpected status %s: %s",
			url, resp.Status, strings.TrimSpace(string(snippet)))
	}
	return resp.Body, nil
}

func (s *HTTPSource) String() string {
	return s.BaseURL
}

// DirSource reads files from a local directory holding a copy of the BLS
// files.
type DirSource struct {
	Dir string
}

// Open opens name inside Dir.
func (s DirSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name != filepath.Base(name) {
		return nil, fmt.Errorf("invalid file name %q", name)
	}
	f, err := os.Open(filepath.Join(s.Dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("open %s: %w", name, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

func (s DirSource) String() string {
	return s.Dir
}
