// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package listing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/preprint-herald/internal/httputil"
	"github.com/pdiddy/preprint-herald/pkg/types"
)

// defaultBaseURL is the listing endpoint used when the config leaves it empty.
const defaultBaseURL = "https://export.arxiv.org/list"

// Period returns the yymm token naming the month that contains t.
func Period(t time.Time) string {
	return t.Format("0601")
}

// Fetcher downloads listing pages.
type Fetcher struct {
	Client *http.Client
	Config types.ListingConfig
}

// URL returns the listing address for period. The whole month is requested
// on one page.
func (f *Fetcher) URL(period string) string {
	base := f.Config.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return fmt.Sprintf("%s/%s/%s?skip=0&show=2000", strings.TrimRight(base, "/"), f.Config.Category, period)
}

// Fetch returns the raw listing document for the configured category.
func (f *Fetcher) Fetch(ctx context.Context, period string) (string, error) {
	if f.Config.Category == "" {
		return "", fmt.Errorf("listing category is empty")
	}

	url := f.URL(period)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, f.Client, req, 0)
	if err != nil {
		return "", fmt.Errorf("listing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("listing %s returned HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading listing: %w", err)
	}
	return string(body), nil
}
