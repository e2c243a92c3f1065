// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metadata queries the arXiv Atom API for detail records in groups
// of at most ten identifiers.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/pdiddy/preprint-herald/internal/httputil"
	"github.com/pdiddy/preprint-herald/internal/record"
	"github.com/pdiddy/preprint-herald/pkg/types"
)

// MaxBatchSize is the upstream limit on identifiers per request.
const MaxBatchSize = 10

const defaultBaseURL = "https://export.arxiv.org/api/query"

// ErrBatchTooLarge reports a configured group size above MaxBatchSize.
var ErrBatchTooLarge = errors.New("metadata batch exceeds upstream limit")

// Client fetches detail records. Consecutive group requests start at least
// Config.BatchDelay apart, measured start to start, which is how the
// upstream states its limit of one request per interval.
type Client struct {
	HTTP   *http.Client
	Config types.MetadataConfig

	limiter *rate.Limiter
}

// NewClient returns a Client for cfg. A zero BatchSize selects MaxBatchSize.
func NewClient(hc *http.Client, cfg types.MetadataConfig) (*Client, error) {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = MaxBatchSize
	}
	if cfg.BatchSize < 0 || cfg.BatchSize > MaxBatchSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, cfg.BatchSize, MaxBatchSize)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{
		HTTP:    hc,
		Config:  cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.BatchDelay), 1),
	}, nil
}

// Fetch returns one detail record per identifier, in group order. Any
// failing group fails the whole call. Empty input issues no request.
func (c *Client) Fetch(ctx context.Context, ids []string) ([]types.DetailRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	groups := Split(ids, c.Config.BatchSize)
	out := make([]types.DetailRecord, 0, len(ids))
	for i, group := range groups {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting before group %d: %w", i, err)
		}
		details, err := c.fetchGroup(ctx, group)
		if err != nil {
			return nil, fmt.Errorf("group %d of %d: %w", i+1, len(groups), err)
		}
		out = append(out, details...)
	}
	return out, nil
}

// Split cuts ids into contiguous groups of at most size elements.
func Split(ids []string, size int) [][]string {
	if size <= 0 {
		size = MaxBatchSize
	}
	groups := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		groups = append(groups, ids[start:end])
	}
	return groups
}

// URL returns the query address for one group.
func (c *Client) URL(group []string) string {
	q := url.Values{}
	q.Set("id_list", strings.Join(group, ","))
	q.Set("max_results", strconv.Itoa(len(group)))
	return c.Config.BaseURL + "?" + q.Encode()
}

func (c *Client) fetchGroup(ctx context.Context, group []string) ([]types.DetailRecord, error) {
	if len(group) > MaxBatchSize {
		return nil, fmt.Errorf("%w: %d identifiers", ErrBatchTooLarge, len(group))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(group), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 0)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	if len(feed.Items) != len(group) {
		return nil, fmt.Errorf("arXiv API returned %d entries for %d identifiers", len(feed.Items), len(group))
	}

	details := make([]types.DetailRecord, len(feed.Items))
	for i, item := range feed.Items {
		details[i] = detailFromItem(item)
	}
	return details, nil
}

func detailFromItem(item *gofeed.Item) types.DetailRecord {
	d := types.DetailRecord{
		ID:              StripVersion(item.GUID),
		AbsLink:         item.GUID,
		Summary:         record.CleanSummary(item.Description),
		PrimaryCategory: primaryCategory(item),
	}
	if d.AbsLink == "" {
		d.AbsLink = item.Link
		d.ID = StripVersion(item.Link)
	}
	if item.UpdatedParsed != nil {
		d.Updated = item.UpdatedParsed.UTC()
	}
	if item.PublishedParsed != nil {
		d.Published = item.PublishedParsed.UTC()
	}
	return d
}

// primaryCategory reads <arxiv:primary_category term="..."/>, falling back
// to the first <category>.
func primaryCategory(item *gofeed.Item) string {
	if ns, ok := item.Extensions["arxiv"]; ok {
		for _, e := range ns["primary_category"] {
			if term := e.Attrs["term"]; term != "" {
				return term
			}
		}
	}
	if len(item.Categories) > 0 {
		return item.Categories[0]
	}
	return ""
}

// StripVersion extracts the bare identifier from an abstract URL
// (e.g. "http://arxiv.org/abs/2301.07041v2" yields "2301.07041").
func StripVersion(absURL string) string {
	const prefix = "/abs/"
	id := absURL
	if idx := strings.Index(absURL, prefix); idx >= 0 {
		id = absURL[idx+len(prefix):]
	}

	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
