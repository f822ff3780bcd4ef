package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spacesedan/tweetflow/internal/clients"
	"github.com/spacesedan/tweetflow/internal/models"
	"github.com/spacesedan/tweetflow/internal/processing"
)

var ErrInvalidRequest = errors.New("[Collector] invalid request")

// Searcher fetches a single page of search results.
type Searcher interface {
	Search(ctx context.Context, req models.SearchRequest) (*models.SearchPage, error)
}

// Sink receives each normalized page as soon as it is fetched.
type Sink interface {
	Append(ctx context.Context, topic string, records []models.Record) error
}

// Metrics observes collection progress.
type Metrics interface {
	PageFetched(topic string, items int)
	RecordsWritten(topic string, n int)
	BatchDropped(topic string, n int)
	Retried(kind string)
}

type nopMetrics struct{}

func (nopMetrics) PageFetched(string, int) {}
func (nopMetrics) RecordsWritten(string, int) {}
func (nopMetrics) BatchDropped(string, int) {}
func (nopMetrics) Retried(string) {}

type Collector struct {
	searcher Searcher
	sink     Sink
	policy   RetryPolicy
	pageSize int
	now      func() time.Time
	sleep    SleepFunc
	metrics  Metrics
}

type Option func(*Collector)

func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Collector) { c.policy = policy.withDefaults() }
}

func WithPageSize(size int) Option {
	return func(c *Collector) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

func WithSleep(sleep SleepFunc) Option {
	return func(c *Collector) { c.sleep = sleep }
}

func WithMetrics(m Metrics) Option {
	return func(c *Collector) {
		if m != nil {
			c.metrics = m
		}
	}
}

func New(searcher Searcher, sink Sink, opts ...Option) *Collector {
	c := &Collector{
		searcher: searcher,
		sink:     sink,
		policy:   DefaultRetryPolicy(),
		pageSize: clients.DEFAULT_PAGE_SIZE,
		now:      time.Now,
		sleep:    sleepContext,
		metrics:  nopMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result describes one Collect call. It is populated even when Collect
// returns an error, covering the pages handled before the failure.
type Result struct {
	Query          string
	Topic          string
	Pages          int
	Items          int
	Written        int
	DroppedBatches int
	DroppedItems   int
	Retries        int
}

// Collect pages through the results for query until at least count items
// were received or the API runs out of pages. Every page is normalized and
// appended to the sink before the next one is requested; the last page is
// never truncated, so Items may exceed count.
func (c *Collector) Collect(ctx context.Context, query string, count int, topic string) (Result, error) {
	res := Result{Query: query, Topic: topic}
	if query == "" || topic == "" || count <= 0 {
		return res, fmt.Errorf("%w: query=%q topic=%q count=%d", ErrInvalidRequest, query, topic, count)
	}

	cursor := ""
	for {
		page, err := c.fetchPage(ctx, models.SearchRequest{Query: query, Count: c.pageSize, Cursor: cursor}, &res)
		if err != nil {
			return res, fmt.Errorf("[Collector] query %q: %w", query, err)
		}

		res.Pages++
		res.Items += len(page.Statuses)
		c.metrics.PageFetched(topic, len(page.Statuses))
		if len(page.Statuses) > 0 {
			c.emit(ctx, topic, page.Statuses, &res)
		}

		slog.Info("[Collector] Page collected",
			slog.String("query", query),
			slog.Int("page", res.Pages),
			slog.Int("items", len(page.Statuses)),
			slog.Int("total", res.Items))

		if page.NextCursor == "" || res.Items >= count {
			break
		}
		if page.NextCursor == cursor {
			slog.Warn("[Collector] Cursor did not advance, stopping",
				slog.String("query", query),
				slog.String("cursor", cursor))
			break
		}
		cursor = page.NextCursor
	}

	return res, nil
}

func (c *Collector) emit(ctx context.Context, topic string, statuses []models.Status, res *Result) {
	records := processing.NormalizeStatuses(statuses, topic, c.now())
	err := c.sink.Append(ctx, topic, records)
	if err == nil {
		res.Written += len(records)
		c.metrics.RecordsWritten(topic, len(records))
		return
	}

	written := min(max(clients.WrittenOf(err), 0), len(records))
	if written > 0 {
		res.Written += written
		c.metrics.RecordsWritten(topic, written)
	}
	dropped := len(records) - written
	res.DroppedBatches++
	res.DroppedItems += dropped
	c.metrics.BatchDropped(topic, dropped)
	slog.Error("[Collector] Sink write failed, batch dropped",
		slog.String("topic", topic),
		slog.Int("records", len(records)),
		slog.Int("written", written),
		slog.Int("dropped", dropped),
		slog.String("error", err.Error()))
}

// fetchPage issues req, retrying retryable failures according to the
// policy. Retry state is scoped to this one request.
func (c *Collector) fetchPage(ctx context.Context, req models.SearchRequest, res *Result) (*models.SearchPage, error) {
	var (
		serverWait        time.Duration
		serverBackoff     = c.policy.ServerBackoff
		transportFailures int
		transportBackoff  = c.policy.TransportBackoff
	)

	for {
		page, err := c.searcher.Search(ctx, req)
		if err == nil {
			return page, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		var delay time.Duration
		kind := clients.KindOf(err)
		switch kind {
		case clients.KindRateLimited:
			transportFailures = 0
			delay = c.policy.RateLimitCooldown
			slog.Warn("[Collector] Rate limited, cooling down",
				slog.String("query", req.Query),
				slog.Duration("cooldown", delay))

		case clients.KindTransientServer:
			transportFailures = 0
			if serverWait+serverBackoff > c.policy.MaxServerWait {
				return nil, fmt.Errorf("%w: waited %s on server errors: %w", ErrRetriesExhausted, serverWait, err)
			}
			delay = serverBackoff
			serverWait += delay
			serverBackoff *= 2
			slog.Warn("[Collector] Server error, retrying with backoff",
				slog.String("query", req.Query),
				slog.Duration("backoff", delay),
				slog.Duration("waited", serverWait))

		case clients.KindTransport:
			transportFailures++
			if transportFailures > c.policy.MaxTransportRetries {
				return nil, fmt.Errorf("%w: %d consecutive transport failures: %w", ErrRetriesExhausted, transportFailures, err)
			}
			delay = transportBackoff
			transportBackoff *= 2
			if transportBackoff > c.policy.MaxTransportBackoff {
				transportBackoff = c.policy.MaxTransportBackoff
			}
			slog.Warn("[Collector] Transport failure, retrying",
				slog.String("query", req.Query),
				slog.Int("attempt", transportFailures),
				slog.Duration("backoff", delay),
				slog.String("error", err.Error()))

		default:
			return nil, err
		}

		res.Retries++
		c.metrics.Retried(kind.String())
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}
