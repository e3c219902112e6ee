package wasm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aretw0/bustub-shell/pkg/ports"
)

// MaxArtifactSize caps downloaded artifacts (64 MiB).
const MaxArtifactSize = 64 << 20

// FileSource reads the artifact from disk.
type FileSource struct {
	Path string
}

var _ ports.ArtifactSource = FileSource{}

// Fetch implements ports.ArtifactSource.
func (s FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return data, nil
}

// Location implements ports.ArtifactSource.
func (s FileSource) Location() string { return s.Path }

// HTTPSource downloads the artifact.
type HTTPSource struct {
	URL        string
	HTTPClient *http.Client
}

var _ ports.ArtifactSource = (*HTTPSource)(nil)

// NewHTTPSource creates a source with a default client.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		URL: url,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Fetch implements ports.ArtifactSource.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download artifact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download artifact: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxArtifactSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	if len(data) > MaxArtifactSize {
		return nil, fmt.Errorf("artifact larger than %d bytes", MaxArtifactSize)
	}
	return data, nil
}

// Location implements ports.ArtifactSource.
func (s *HTTPSource) Location() string { return s.URL }

// ResolveSource picks a source for a file path or an http(s) URL.
func ResolveSource(location string) (ports.ArtifactSource, error) {
	location = strings.TrimSpace(location)
	switch {
	case location == "":
		return nil, errors.New("artifact location is empty")
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return NewHTTPSource(location), nil
	default:
		return FileSource{Path: location}, nil
	}
}
