// Package fetcher handles feed downloading and parsing.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/mmcdole/gofeed"

	"feed_notifier/internal/model"
)

const (
	userAgent    = "FeedNotifier/1.0"
	maxBodyBytes = 5 * 1024 * 1024
	maxRetries   = 2
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is returned when a feed responds with a non-200 status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Fetcher downloads and parses feeds.
type Fetcher struct {
	client  HTTPClient
	backoff func() backoff.BackOff
}

// New creates a Fetcher with the given HTTP client.
func New(client HTTPClient) *Fetcher {
	return &Fetcher{
		client: client,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
	}
}

// Fetch downloads the feed at url and returns its entries in delivered order.
// Network errors and 5xx/429 responses are retried; other failures are not.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]model.Entry, error) {
	var feed *gofeed.Feed
	op := func() error {
		var err error
		feed, err = f.fetchOnce(ctx, url)
		if err == nil {
			return nil
		}
		var se *StatusError
		if errors.As(err, &se) && se.Code != http.StatusTooManyRequests && se.Code < 500 {
			return backoff.Permanent(err)
		}
		if errors.Is(err, gofeed.ErrFeedTypeNotDetected) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(f.backoff(), maxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, err
	}

	entries := make([]model.Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		entries = append(entries, ToEntry(item))
	}
	return entries, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

// ToEntry converts a parsed feed item into an Entry.
func ToEntry(item *gofeed.Item) model.Entry {
	return model.Entry{
		ID:        item.GUID,
		Title:     item.Title,
		Link:      item.Link,
		Summary:   item.Description,
		Published: item.PublishedParsed,
		Updated:   item.UpdatedParsed,
	}
}
