// Package soundcharts talks to the music-analytics HTTP API.
package soundcharts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"song-scraper/services"
	"song-scraper/utils"
)

const pageLimit = "100"

// Options configures a Client.
type Options struct {
	BaseURL     string
	AppID       string
	APIKey      string
	RateLimitMs int
	MaxRetries  int
	Timeout     time.Duration
}

// Client is a rate-limited, retrying API client. It is safe for concurrent
// use.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	retry   *utils.RetryConfig
	metrics *utils.RunMetrics
	logger  *utils.Logger
	quota   atomic.Int64
}

// New creates a Client. metrics may be nil.
func New(opts Options, metrics *utils.RunMetrics, logger *utils.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	limit := rate.Inf
	if opts.RateLimitMs > 0 {
		limit = rate.Every(time.Duration(opts.RateLimitMs) * time.Millisecond)
	}

	hc := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("x-app-id", opts.AppID).
		SetHeader("x-api-key", opts.APIKey).
		SetHeader("Accept", "application/json")

	c := &Client{
		http:    hc,
		limiter: rate.NewLimiter(limit, 1),
		retry:   &utils.RetryConfig{MaxAttempts: opts.MaxRetries, BaseDelay: 500 * time.Millisecond, Logger: logger},
		metrics: metrics,
		logger:  logger,
	}
	c.quota.Store(-1)
	return c
}

// QuotaRemaining returns the last quota figure the API reported, or -1.
func (c *Client) QuotaRemaining() int64 {
	return c.quota.Load()
}

// get fetches path (relative to the base URL, or a page link returned by the
// API) and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, query map[string]string, out any) error {
	return c.retry.Do(ctx, "GET "+path, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return utils.Permanent(err)
		}

		req := c.http.R().SetContext(ctx).SetResult(out)
		if len(query) > 0 {
			req.SetQueryParams(query)
		}
		resp, err := req.Get(path)
		if err != nil {
			if ctx.Err() != nil {
				return utils.Permanent(ctx.Err())
			}
			return fmt.Errorf("%w: %v", services.ErrProviderUnavailable, err)
		}
		c.trackQuota(resp.Header())

		switch code := resp.StatusCode(); {
		case code >= 200 && code < 300:
			return nil
		case code == http.StatusNotFound:
			return utils.Permanent(fmt.Errorf("%w: %s", services.ErrNotFound, path))
		case code == http.StatusTooManyRequests || code >= 500:
			return fmt.Errorf("%w: %s returned %d", services.ErrProviderUnavailable, path, code)
		default:
			return utils.Permanent(fmt.Errorf("%w: %s returned %d", services.ErrProviderUnavailable, path, code))
		}
	})
}

func (c *Client) trackQuota(h http.Header) {
	v := h.Get("X-Quota-Remaining")
	if v == "" {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		c.logger.Debug("[soundcharts] Bad quota header %q", v)
		return
	}
	c.quota.Store(n)
	if c.metrics != nil {
		c.metrics.QuotaRemaining.Set(float64(n))
	}
}

type pageInfo struct {
	Next *string `json:"next"`
}

type listResponse[T any] struct {
	Items   []T             `json:"items"`
	Page    *pageInfo       `json:"page"`
	Related json.RawMessage `json:"related"`
}

// collect follows page links from path until they run out or maxPages pages
// have been read (maxPages <= 0 means no limit). It returns every item and
// the "related" object of the first page.
func collect[T any](ctx context.Context, c *Client, path string, query map[string]string, maxPages int) ([]T, json.RawMessage, error) {
	var items []T
	var related json.RawMessage

	next := path
	for pages := 0; next != ""; pages++ {
		if maxPages > 0 && pages >= maxPages {
			break
		}
		var resp listResponse[T]
		if err := c.get(ctx, next, query, &resp); err != nil {
			return items, related, err
		}
		if pages == 0 {
			related = resp.Related
		}
		if len(resp.Items) == 0 {
			break
		}
		items = append(items, resp.Items...)

		next, query = "", nil
		if resp.Page != nil && resp.Page.Next != nil {
			next = *resp.Page.Next
		}
	}
	return items, related, nil
}
