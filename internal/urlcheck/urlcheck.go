// Package urlcheck verifies that stored restaurant websites still
// resolve, and stamps the ones that do not so an admin can review them.
package urlcheck

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/colefield/tablefinder/internal/store"
)

const (
	requestTimeout = 10 * time.Second
	retryAttempts  = 3
	retryBase      = time.Second
)

// Result reports what a verification run found.
type Result struct {
	Checked     int
	Unreachable int
}

type Checker struct {
	restaurantStore *store.RestaurantStore
	client          *http.Client
	logger          *slog.Logger
}

func NewChecker(rs *store.RestaurantStore, logger *slog.Logger) *Checker {
	return &Checker{
		restaurantStore: rs,
		client:          &http.Client{Timeout: requestTimeout},
		logger:          logger,
	}
}

// Run checks every restaurant that has a website. Unreachable ones get
// url_verified_at stamped with the current UTC time; reachable ones are
// left untouched.
func (c *Checker) Run(ctx context.Context) (Result, error) {
	var res Result

	restaurants, err := c.restaurantStore.ListWithWebsite()
	if err != nil {
		return res, fmt.Errorf("list restaurants: %w", err)
	}

	for _, r := range restaurants {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Checked++

		website := strings.TrimSpace(r.Website)
		if c.reachable(ctx, website) {
			c.logger.Info("url ok", "restaurant", r.Name, "url", website)
			continue
		}

		res.Unreachable++
		c.logger.Warn("url unreachable", "restaurant", r.Name, "url", website)
		if err := c.restaurantStore.SetURLVerifiedAt(r.ID, time.Now().UTC()); err != nil {
			return res, fmt.Errorf("stamp restaurant %d: %w", r.ID, err)
		}
	}

	return res, nil
}

// reachable tries the URL as stored and, when it has no scheme, the
// https then http variants.
func (c *Checker) reachable(ctx context.Context, website string) bool {
	if c.fetch(ctx, website) {
		return true
	}
	if strings.HasPrefix(website, "http://") || strings.HasPrefix(website, "https://") {
		return false
	}
	return c.fetch(ctx, "https://"+website) || c.fetch(ctx, "http://"+website)
}

// fetch is true when a GET eventually lands on a 200. Transient
// transport errors are retried with backoff; a non-200 response is
// final, and a value that is not an absolute http(s) URL fails
// immediately without touching the network.
func (c *Checker) fetch(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}

	backoff := retry.WithMaxRetries(retryAttempts-1, retry.NewExponential(retryBase))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return nil
	})
	return err == nil
}
