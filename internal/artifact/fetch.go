package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/sha1n/relic-posts/internal/domain"
)

// Fetcher retrieves the raw bytes of an artifact by URL path.
// Failures are reported as domain.CodeUnavailable errors.
type Fetcher interface {
	Fetch(ctx context.Context, urlPath string) ([]byte, error)
}

// HTTPFetcher fetches artifacts from a deployed site.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher using http.DefaultClient.
func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	return &HTTPFetcher{BaseURL: strings.TrimRight(baseURL, "/"), Client: http.DefaultClient}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, urlPath string) ([]byte, error) {
	url := f.BaseURL + urlPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.NewError(domain.CodeUnavailable, "invalid artifact url "+url, err)
	}
	req.Header.Set("Accept", "application/json")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, domain.NewError(domain.CodeUnavailable, "failed to fetch "+url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewError(domain.CodeUnavailable, fmt.Sprintf("fetch %s: unexpected status %d", url, resp.StatusCode), nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxArtifactBytes))
	if err != nil {
		return nil, domain.NewError(domain.CodeUnavailable, "failed to read "+url, err)
	}
	return data, nil
}

// FileFetcher reads artifacts from a local build output directory.
type FileFetcher struct {
	Root string
}

// Fetch implements Fetcher.
func (f *FileFetcher) Fetch(ctx context.Context, urlPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := FilePath(f.Root, urlPath)
	data, err := os.ReadFile(path)
	if err != nil {
		msg := "failed to read " + path
		if errors.Is(err, fs.ErrNotExist) {
			msg = "artifact not built: " + path
		}
		return nil, domain.NewError(domain.CodeUnavailable, msg, err)
	}
	return data, nil
}
