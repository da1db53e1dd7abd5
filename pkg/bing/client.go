// Package bing fetches the image search results page for a query. The
// request carries browser-like headers so the provider serves the same
// markup a real browser would get.
package bing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	errs "github.com/BrunoDobem/dowloadimg/pkg/errors"
	"github.com/BrunoDobem/dowloadimg/pkg/logger"
	"github.com/BrunoDobem/dowloadimg/pkg/retry"
)

// Client performs search-page requests against the configured provider.
type Client struct {
	httpClient  *http.Client
	urlTemplate string
	headers     map[string]string
	maxRetries  int
	backoff     retry.BackoffStrategy
	logger      logger.Logger
}

// Options configures a search Client.
type Options struct {
	// URLTemplate receives the URL-encoded query via fmt.Sprintf
	URLTemplate    string
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
	MaxRetries     int
	// Backoff overrides the retry delay strategy; nil means the default
	// exponential backoff
	Backoff retry.BackoffStrategy
	Logger  logger.Logger
}

// NewClient creates a search client. A zero timeout defaults to 15s.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	if opts.Backoff == nil {
		opts.Backoff = retry.DefaultExponentialBackoff()
	}

	return &Client{
		httpClient:  &http.Client{Timeout: opts.Timeout},
		urlTemplate: opts.URLTemplate,
		maxRetries:  opts.MaxRetries,
		backoff:     opts.Backoff,
		headers: map[string]string{
			"User-Agent":      opts.UserAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language": opts.AcceptLanguage,
		},
		logger: opts.Logger,
	}
}

// SearchURL builds the provider URL for a query.
func (c *Client) SearchURL(query string) string {
	return fmt.Sprintf(c.urlTemplate, url.QueryEscape(query))
}

// SearchHTML fetches the results page markup for query, retrying transient
// network failures with backoff. Terminal failures come back as typed
// network errors.
func (c *Client) SearchHTML(ctx context.Context, query string) (string, error) {
	target := c.SearchURL(query)

	var html string
	op := func() error {
		body, err := c.get(ctx, target)
		if err != nil {
			return err
		}
		html = body
		return nil
	}

	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = c.maxRetries
	cfg.Backoff = c.backoff
	cfg.Context = ctx
	cfg.Logger = c.logger
	if err := retry.Do(op, cfg); err != nil {
		return "", err
	}
	return html, nil
}

func (c *Client) get(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeNetwork, "failed to build search request", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending search request", map[string]interface{}{
		"url": target,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeNetwork, "search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errs.New(errs.ErrorTypeNetwork,
			fmt.Sprintf("search returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.Wrap(errs.ErrorTypeNetwork, "failed to read search response", err)
	}

	c.logger.DebugWithFields("search request completed", map[string]interface{}{
		"url":      target,
		"status":   resp.StatusCode,
		"size":     len(body),
		"duration": time.Since(start),
	})

	return string(body), nil
}
