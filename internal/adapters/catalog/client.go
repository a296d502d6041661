// Package catalog implements the HTTP client for the package catalog
// service, with a local SQLite cache for resolution results.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.trai.ch/zerr"
	"golang.org/x/mod/semver"

	"go.trai.ch/grove/internal/adapters/httpauth"
	"go.trai.ch/grove/internal/core/domain"
	"go.trai.ch/grove/internal/core/ports"
)

const (
	maxAttempts   = 3
	retryInterval = 500 * time.Millisecond
)

// Client implements ports.CatalogClient against the catalog HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *Cache
	logger  ports.Logger
}

// New creates a catalog client. cache may be nil to disable caching.
func New(baseURL string, timeout time.Duration, cache *Cache, logger ports.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: httpauth.NetrcTransport(baseURL),
		},
		cache:  cache,
		logger: logger,
	}
}

var _ ports.CatalogClient = (*Client)(nil)

type snapshotResponse struct {
	URL  string `json:"url"`
	Rev  string `json:"rev"`
	Hash string `json:"hash"`
}

// Snapshot returns the latest snapshot of the named input.
func (c *Client) Snapshot(ctx context.Context, input string) (domain.Input, error) {
	var resp snapshotResponse
	endpoint := fmt.Sprintf("%s/api/v1/inputs/%s", c.baseURL, url.PathEscape(input))
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return domain.Input{}, zerr.With(zerr.Wrap(err, "failed to snapshot input"), "input", input)
	}
	return domain.Input{URL: resp.URL, Rev: resp.Rev, Hash: resp.Hash}, nil
}

type resolveResponse struct {
	Candidates []ports.Candidate `json:"candidates"`
}

// Resolve returns ranked candidates for the request. Results are cached per
// (attr path, platform, input revision); a snapshot revision pins the
// catalog's answer, so cache entries never go stale.
func (c *Client) Resolve(ctx context.Context, req ports.ResolveRequest) ([]ports.Candidate, error) {
	key := CacheKey{
		AttrPath: req.Request.Path,
		Version:  req.Request.Version,
		Platform: req.Platform,
		InputRev: req.Input.Rev,
	}
	if c.cache != nil {
		if candidates, ok, err := c.cache.Get(ctx, key); err != nil {
			c.logger.Warn("resolution cache read failed: " + err.Error())
		} else if ok {
			return candidates, nil
		}
	}

	q := url.Values{}
	q.Set("path", req.Request.Path)
	q.Set("platform", req.Platform)
	q.Set("rev", req.Input.Rev)
	if req.Request.Version != "" {
		q.Set("version", req.Request.Version)
	}
	endpoint := fmt.Sprintf("%s/api/v1/resolve?%s", c.baseURL, q.Encode())

	var resp resolveResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, zerr.With(zerr.With(zerr.Wrap(err, "failed to resolve package"), "path", req.Request.Path), "platform", req.Platform)
	}
	rankCandidates(resp.Candidates)

	if c.cache != nil {
		if err := c.cache.Put(ctx, key, resp.Candidates); err != nil {
			c.logger.Warn("resolution cache write failed: " + err.Error())
		}
	}
	return resp.Candidates, nil
}

// rankCandidates orders candidates newest version first.
func rankCandidates(candidates []ports.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return semver.Compare(canonical(candidates[i].Version), canonical(candidates[j].Version)) > 0
	})
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if semver.IsValid(v) {
		return v
	}
	return "v0.0.0"
}

// getJSON performs a GET with retries on transport errors and 5xx responses.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryInterval):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return zerr.Wrap(err, "failed to build request")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.Unmarshal(body, out); err != nil {
				return zerr.Wrap(err, "failed to decode response")
			}
			return nil
		case resp.StatusCode >= http.StatusInternalServerError:
			lastErr = zerr.With(zerr.New("catalog server error"), "status", resp.StatusCode)
			continue
		default:
			return zerr.With(zerr.With(zerr.New("catalog request rejected"), "status", resp.StatusCode), "body", strings.TrimSpace(string(body)))
		}
	}
	return lastErr
}
