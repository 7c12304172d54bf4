// Package scheduler drives the fetch, filter, notify and persist cycle of every feed.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"feed_notifier/internal/filter"
	"feed_notifier/internal/message"
	"feed_notifier/internal/metrics"
	"feed_notifier/internal/model"
	"feed_notifier/internal/notify"
	"feed_notifier/internal/storage"
)

// Source fetches the current entries of a feed.
type Source interface {
	Fetch(ctx context.Context, url string) ([]model.Entry, error)
}

// Scheduler periodically checks feeds and sends notifications for new entries.
type Scheduler struct {
	feeds    []model.FeedConfig
	source   Source
	notifier notify.Sender
	store    storage.Storage
	state    *State
	log      *slog.Logger

	tick         time.Duration
	fetchTimeout time.Duration
	sendTimeout  time.Duration
	workers      int

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Scheduler over feeds, processed in the given order.
func New(feeds []model.FeedConfig, source Source, notifier notify.Sender, store storage.Storage, state *State, log *slog.Logger) *Scheduler {
	return &Scheduler{
		feeds:        feeds,
		source:       source,
		notifier:     notifier,
		store:        store,
		state:        state,
		log:          log,
		tick:         10 * time.Second,
		fetchTimeout: 30 * time.Second,
		sendTimeout:  30 * time.Second,
		workers:      1,
		now:          time.Now,
		sleep:        sleepContext,
	}
}

// SetTickInterval overrides the default 10-second check interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// SetTimeouts bounds every fetch and every send.
func (s *Scheduler) SetTimeouts(fetch, send time.Duration) {
	s.fetchTimeout = fetch
	s.sendTimeout = send
}

// SetWorkers sets how many feeds are processed at once.
func (s *Scheduler) SetWorkers(n int) {
	s.workers = max(n, 1)
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info("scheduler started", "feeds", len(s.feeds), "tick", s.tick, "workers", s.workers)
	s.checkAll(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.checkAll(ctx)
		}
	}
}

func (s *Scheduler) checkAll(ctx context.Context) {
	if s.workers <= 1 {
		for _, feed := range s.feeds {
			if ctx.Err() != nil {
				return
			}
			s.checkFeed(ctx, feed)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(s.workers)
	for _, feed := range s.feeds {
		if ctx.Err() != nil {
			break
		}
		feed := feed
		g.Go(func() error {
			s.checkFeed(ctx, feed)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Scheduler) checkFeed(ctx context.Context, feed model.FeedConfig) {
	if !s.state.Claim(feed.URL, feed.Interval, s.now()) {
		return
	}

	start := time.Now()
	s.processFeed(ctx, feed)
	metrics.CycleDuration.Observe(time.Since(start).Seconds())
}

func (s *Scheduler) processFeed(ctx context.Context, feed model.FeedConfig) {
	log := s.log.With("url", feed.URL, "name", feed.DisplayName())
	log.Debug("checking feed")

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	entries, err := s.source.Fetch(fetchCtx, feed.URL)
	cancel()
	metrics.Fetches.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		log.Error("fetch feed", "error", err)
		return
	}

	seen, err := s.store.Load(ctx, feed.URL)
	if err != nil {
		log.Error("load seen", "error", err)
		return
	}

	selected, updated := filter.Select(entries, feed, seen, s.now())

	sent := 0
	for _, sel := range selected {
		if ctx.Err() != nil {
			break
		}
		if err := s.notifyEntry(ctx, feed, sel.Entry); err != nil {
			log.Error("send notification", "id", sel.ID, "error", err)
		} else {
			sent++
		}

		if feed.Delay > 0 {
			if err := s.sleep(ctx, feed.Delay); err != nil {
				break
			}
		}
	}

	if sent > 0 {
		log.Info("sent notifications", "count", sent, "selected", len(selected))
	}

	err = s.store.Save(context.WithoutCancel(ctx), feed.URL, updated)
	metrics.SeenSaves.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		log.Error("save seen", "error", err)
	}
}

func (s *Scheduler) notifyEntry(ctx context.Context, feed model.FeedConfig, entry model.Entry) error {
	body := message.Format(feed.Template, feed.DisplayName(), entry.Title, entry.Link, feed.DisablePreview)

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	err := s.notifier.Send(sendCtx, feed.Destination, notify.Message{
		Title:          feed.Username,
		Body:           body,
		DisablePreview: feed.DisablePreview,
	})
	metrics.Notifications.WithLabelValues(metrics.Result(err)).Inc()
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
