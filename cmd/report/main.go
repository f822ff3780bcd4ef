package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spacesedan/tweetflow/config"
	"github.com/spacesedan/tweetflow/internal/logging"
	"github.com/spacesedan/tweetflow/internal/processing"
	"github.com/spacesedan/tweetflow/internal/report"
	"github.com/spacesedan/tweetflow/internal/sentiment"
	"github.com/spacesedan/tweetflow/internal/sink"
)

const (
	REPORT_MARKDOWN_FILE = "sentiment_report.md"
	REPORT_HTML_FILE     = "sentiment_report.html"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel)

	groups, err := processing.ParseHashtagGroups(cfg.Hashtags)
	if err != nil {
		slog.Error("Invalid HASHTAGS", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := sink.NewCSVSink(cfg.DataDir)
	if err != nil {
		slog.Error("Failed to open data dir", slog.String("dir", cfg.DataDir), slog.String("error", err.Error()))
		os.Exit(1)
	}

	reports, err := report.Generate(ctx, source, processing.Topics(groups), sentiment.NewAnalyzer())
	if err != nil {
		slog.Warn("Some topics were skipped", slog.String("error", err.Error()))
	}
	if len(reports) == 0 {
		slog.Error("Nothing to report", slog.String("dir", cfg.DataDir))
		os.Exit(1)
	}

	markdown := report.RenderMarkdown(reports)
	mdPath := filepath.Join(cfg.DataDir, REPORT_MARKDOWN_FILE)
	if err := os.WriteFile(mdPath, []byte(markdown), 0o644); err != nil {
		slog.Error("Failed to write report", slog.String("path", mdPath), slog.String("error", err.Error()))
		os.Exit(1)
	}

	htmlPath := filepath.Join(cfg.DataDir, REPORT_HTML_FILE)
	if err := os.WriteFile(htmlPath, report.RenderHTML(markdown), 0o644); err != nil {
		slog.Error("Failed to write report", slog.String("path", htmlPath), slog.String("error", err.Error()))
		os.Exit(1)
	}

	for _, r := range reports {
		for _, c := range r.Counts {
			slog.Info("[Report] "+r.Topic,
				slog.String("sentiment", string(c.Sentiment)),
				slog.Int("count", c.Count),
				slog.Float64("percentage", c.Percentage))
		}
	}
	slog.Info("Report written", slog.String("markdown", mdPath), slog.String("html", htmlPath))
}
