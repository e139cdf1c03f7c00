// Package news looks up local news articles for a postal code from an RSS feed.
// Feeds are parsed with gofeed and calls run through a gobreaker circuit
// breaker so a dead upstream fails fast instead of tying up handlers.
package news

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"

	"github.com/samirrijal/mashup/internal/core/domain"
)

// GeoPlaceholder is replaced with the escaped postal code in Config.FeedURL.
const GeoPlaceholder = "{geo}"

// Config holds the lookup client settings.
type Config struct {
	// FeedURL is the per-postal-code feed, containing GeoPlaceholder.
	FeedURL string
	// FallbackFeedURL is read when the primary feed has no items. Optional.
	FallbackFeedURL string
	UserAgent       string
	Timeout         time.Duration
}

// Client implements ports.ArticleLookup. Each call makes one attempt per feed.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

// New creates a Client. A nil httpClient gets a default one bounded by cfg.Timeout.
func New(cfg Config, httpClient *http.Client) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "MashupBot/1.0"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "news-feed",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return &Client{cfg: cfg, http: httpClient, breaker: breaker}
}

// Lookup returns articles for geo. An empty list is not an error.
func (c *Client) Lookup(ctx context.Context, geo string) ([]domain.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	feedURL := strings.ReplaceAll(c.cfg.FeedURL, GeoPlaceholder, url.PathEscape(geo))
	articles, err := c.fetch(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	if len(articles) > 0 || c.cfg.FallbackFeedURL == "" {
		return articles, nil
	}

	slog.DebugContext(ctx, "primary feed empty, reading fallback", "geo", geo)
	return c.fetch(ctx, c.cfg.FallbackFeedURL)
}

// State exposes the breaker state for readiness checks.
func (c *Client) State() string {
	return c.breaker.State().String()
}

func (c *Client) fetch(ctx context.Context, feedURL string) ([]domain.Article, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.parse(ctx, feedURL)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: news feed unavailable: %v", domain.ErrLookup, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrLookup, redact(feedURL), err)
	}
	return res.([]domain.Article), nil
}

func (c *Client) parse(ctx context.Context, feedURL string) ([]domain.Article, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = c.cfg.UserAgent
	fp.Client = c.http

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	articles := make([]domain.Article, 0, len(feed.Items))
	for _, it := range feed.Items {
		articles = append(articles, domain.Article{Link: it.Link, Title: it.Title})
	}
	return articles, nil
}

// redact drops the query string, which may carry API tokens.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "feed"
	}
	u.RawQuery = ""
	return u.String()
}
