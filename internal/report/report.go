// Package report turns collected records into per-topic sentiment
// breakdowns.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/russross/blackfriday/v2"
	"github.com/spacesedan/tweetflow/internal/models"
	"github.com/spacesedan/tweetflow/internal/sentiment"
)

type Scorer interface {
	Name() string
	Score(text string) (float64, models.SentimentLabel)
}

// Source loads the records of one topic.
type Source interface {
	ReadAll(ctx context.Context, topic string) ([]models.Record, error)
}

// Generate builds a report for each topic. Topics that cannot be loaded are
// skipped; their errors are joined into the returned error.
func Generate(ctx context.Context, src Source, topics []string, scorer Scorer) ([]models.TopicReport, error) {
	var (
		reports []models.TopicReport
		errs    []error
	)
	for _, topic := range topics {
		if err := ctx.Err(); err != nil {
			return reports, err
		}

		records, err := src.ReadAll(ctx, topic)
		if err != nil {
			slog.Warn("[Report] Skipping topic", slog.String("topic", topic), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("[Report] topic %s: %w", topic, err))
			continue
		}

		report := AnalyzeTopic(topic, records, scorer)
		slog.Info("[Report] Analyzed topic",
			slog.String("topic", topic),
			slog.Int("records", len(records)),
			slog.Int("analyzed", report.Total))
		reports = append(reports, report)
	}
	return reports, errors.Join(errs...)
}

// AnalyzeTopic orders records by creation time, cleans their text, drops
// posts whose cleaned text duplicates an earlier one or is empty, and scores
// the rest.
func AnalyzeTopic(topic string, records []models.Record, scorer Scorer) models.TopicReport {
	ordered := make([]models.Record, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	seen := make(map[string]bool, len(ordered))
	analyzed := make([]models.AnalyzedRecord, 0, len(ordered))
	for _, record := range ordered {
		cleaned := sentiment.Clean(record.Text)
		if seen[cleaned] {
			continue
		}
		seen[cleaned] = true

		cleaned = strings.TrimSpace(sentiment.RemovePunctuation(cleaned))
		if cleaned == "" {
			continue
		}

		score, label := scorer.Score(cleaned)
		analyzed = append(analyzed, models.AnalyzedRecord{
			Record:         record,
			CleanedText:    cleaned,
			SentimentScore: score,
			SentimentLabel: label,
		})
	}

	return models.TopicReport{
		Topic:    topic,
		Total:    len(analyzed),
		Analyzed: analyzed,
		Counts:   ValueCounts(analyzed, scorer.Name()),
	}
}

// ValueCounts counts each label present, with its share of the total as a
// percentage rounded to two decimals, ordered by label.
func ValueCounts(analyzed []models.AnalyzedRecord, analyzer string) []models.SentimentCount {
	if len(analyzed) == 0 {
		return nil
	}

	byLabel := make(map[models.SentimentLabel]int)
	for _, a := range analyzed {
		byLabel[a.SentimentLabel]++
	}

	counts := make([]models.SentimentCount, 0, len(byLabel))
	for label, n := range byLabel {
		counts = append(counts, models.SentimentCount{
			Sentiment:  label,
			Count:      n,
			Percentage: round2(float64(n) * 100 / float64(len(analyzed))),
			Analyzer:   analyzer,
		})
	}
	sort.Slice(counts, func(i, j int) bool {
		return counts[i].Sentiment < counts[j].Sentiment
	})
	return counts
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RenderMarkdown renders one table per topic.
func RenderMarkdown(reports []models.TopicReport) string {
	var b strings.Builder
	b.WriteString("# Sentiment report\n\n")
	for _, r := range reports {
		fmt.Fprintf(&b, "## %s\n\n", r.Topic)
		if r.Total == 0 {
			b.WriteString("No posts to analyze.\n\n")
			continue
		}
		fmt.Fprintf(&b, "%d posts analyzed.\n\n", r.Total)
		b.WriteString("| Sentiment | Count | Percentage | Analyzer |\n")
		b.WriteString("|---|---:|---:|---|\n")
		for _, c := range r.Counts {
			fmt.Fprintf(&b, "| %s | %d | %.2f%% | %s |\n", c.Sentiment, c.Count, c.Percentage, c.Analyzer)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func RenderHTML(markdown string) []byte {
	return blackfriday.Run([]byte(markdown), blackfriday.WithExtensions(blackfriday.CommonExtensions))
}
