package producer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spacesedan/tweetflow/internal/clients"
	"github.com/spacesedan/tweetflow/internal/collector"
	"github.com/spacesedan/tweetflow/internal/processing"
)

type Collector interface {
	Collect(ctx context.Context, query string, count int, topic string) (collector.Result, error)
}

// QueryOutcome is the result of collecting one hashtag query.
type QueryOutcome struct {
	Hashtag string
	collector.Result
	Err error
}

type Summary struct {
	Queries  []QueryOutcome
	Duration time.Duration
}

func (s Summary) Failed() int {
	n := 0
	for _, q := range s.Queries {
		if q.Err != nil {
			n++
		}
	}
	return n
}

func (s Summary) Written() int {
	n := 0
	for _, q := range s.Queries {
		n += q.Written
	}
	return n
}

func (s Summary) DroppedBatches() int {
	n := 0
	for _, q := range s.Queries {
		n += q.DroppedBatches
	}
	return n
}

// FetchTweetsForGroups collects up to count posts for every hashtag of every
// group, writing them under the group's topic. A post matched by hashtags of
// two groups is stored under both topics. A failing query is logged and
// recorded in the summary; the run moves on to the next query. Only context
// cancellation stops the run early.
func FetchTweetsForGroups(ctx context.Context, c Collector, groups []processing.HashtagGroup, count int) (Summary, error) {
	start := time.Now()
	var summary Summary

	for _, group := range groups {
		for _, hashtag := range group.Hashtags {
			if err := ctx.Err(); err != nil {
				summary.Duration = time.Since(start)
				return summary, err
			}

			query := processing.BuildQuery(hashtag)
			slog.Info("Fetching tweets for hashtag",
				slog.String("topic", group.Topic),
				slog.String("query", query))

			res, err := c.Collect(ctx, query, count, group.Topic)
			summary.Queries = append(summary.Queries, QueryOutcome{Hashtag: hashtag, Result: res, Err: err})

			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					summary.Duration = time.Since(start)
					return summary, err
				}
				slog.Error("Failed processing query",
					slog.String("topic", group.Topic),
					slog.String("query", query),
					slog.String("kind", clients.KindOf(err).String()),
					slog.String("error", err.Error()))
				continue
			}

			if res.DroppedBatches > 0 {
				slog.Warn("Query finished with dropped batches",
					slog.String("query", query),
					slog.Int("dropped_batches", res.DroppedBatches),
					slog.Int("dropped_items", res.DroppedItems))
			}
		}
	}

	summary.Duration = time.Since(start)
	slog.Info("Done fetching tweets",
		slog.Int("queries", len(summary.Queries)),
		slog.Int("failed", summary.Failed()),
		slog.Int("written", summary.Written()),
		slog.Int("dropped_batches", summary.DroppedBatches()),
		slog.Duration("duration", summary.Duration))
	return summary, nil
}
