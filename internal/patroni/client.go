// Package patroni is a client for the Patroni REST API.
package patroni

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Client talks to a single Patroni instance. Successful responses are
// memoized per path for cacheTTL; a TTL of zero disables the cache.
type Client struct {
	clusterName string
	baseURL     string
	httpClient  *http.Client
	logger      zerolog.Logger

	cacheTTL time.Duration
	mu       sync.Mutex
	cache    map[string]cacheEntry
}

type cacheEntry struct {
	body      []byte
	fetchedAt time.Time
}

// NewClient creates a client for one cluster's Patroni endpoint.
func NewClient(clusterName, baseURL string, timeout, cacheTTL time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		clusterName: clusterName,
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:   logger.With().Str("component", "patroni-client").Str("cluster", clusterName).Logger(),
		cacheTTL: cacheTTL,
		cache:    make(map[string]cacheEntry),
	}
}

// ClusterName returns the configured cluster name for this client.
func (c *Client) ClusterName() string {
	return c.clusterName
}

// Cluster fetches and decodes GET /cluster.
func (c *Client) Cluster(ctx context.Context) (*ClusterStatus, error) {
	body, err := c.get(ctx, "/cluster")
	if err != nil {
		return nil, err
	}

	var status ClusterStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("decode cluster status: %w", err)
	}
	return &status, nil
}

// Patroni fetches GET /patroni, the per-instance status document. It is
// exposed for diagnostics and is not part of the metric pipeline.
func (c *Client) Patroni(ctx context.Context) (map[string]any, error) {
	body, err := c.get(ctx, "/patroni")
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode patroni status: %w", err)
	}
	return doc, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if body, ok := c.cached(path); ok {
		c.logger.Debug().Str("path", path).Msg("serving cached response")
		return body, nil
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s returned %d: %s", url, resp.StatusCode, string(body))
	}

	c.store(path, body)
	return body, nil
}

func (c *Client) cached(path string) ([]byte, bool) {
	if c.cacheTTL <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.cache[path]
	if !ok || time.Since(entry.fetchedAt) >= c.cacheTTL {
		return nil, false
	}
	return entry.body, true
}

func (c *Client) store(path string, body []byte) {
	if c.cacheTTL <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[path] = cacheEntry{body: body, fetchedAt: time.Now()}
}
