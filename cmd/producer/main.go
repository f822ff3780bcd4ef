package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/spacesedan/tweetflow/config"
	"github.com/spacesedan/tweetflow/internal/clients"
	"github.com/spacesedan/tweetflow/internal/collector"
	"github.com/spacesedan/tweetflow/internal/logging"
	"github.com/spacesedan/tweetflow/internal/metrics"
	"github.com/spacesedan/tweetflow/internal/processing"
	"github.com/spacesedan/tweetflow/internal/producer"
	"github.com/spacesedan/tweetflow/internal/sink"
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

	if err := cfg.ValidateSearch(); err != nil {
		slog.Error("Invalid search configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	groups, err := processing.ParseHashtagGroups(cfg.Hashtags)
	if err != nil {
		slog.Error("Invalid HASHTAGS", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := sink.New(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open sink", slog.String("sink", cfg.Sink), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := out.Close(context.Background()); err != nil {
			slog.Warn("Failed to close sink", slog.String("error", err.Error()))
		}
	}()

	searchClient := clients.NewSearchClient(ctx, clients.SearchClientOptions{
		BaseURL:           cfg.SearchAPIURL,
		TokenURL:          cfg.TokenURL,
		ConsumerKey:       cfg.ConsumerKey,
		ConsumerSecret:    cfg.ConsumerSecret,
		BearerToken:       cfg.BearerToken,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})

	policy := collector.DefaultRetryPolicy()
	policy.RateLimitCooldown = cfg.RateLimitCooldown
	policy.ServerBackoff = cfg.ServerBackoff
	policy.MaxServerWait = cfg.MaxServerWait
	policy.TransportBackoff = cfg.TransportBackoff
	policy.MaxTransportRetries = cfg.MaxTransportRetries

	reg := prometheus.NewRegistry()
	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metrics.Router(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", slog.String("error", err.Error()))
			}
		}()
		defer srv.Shutdown(context.Background())
		slog.Info("Serving metrics", slog.String("addr", cfg.MetricsAddr))
	}

	c := collector.New(searchClient, out,
		collector.WithRetryPolicy(policy),
		collector.WithPageSize(cfg.PageSize),
		collector.WithMetrics(metrics.NewCollector(reg)))

	slog.Info("Starting collection",
		slog.String("sink", cfg.Sink),
		slog.Int("topics", len(groups)),
		slog.Int("count", cfg.TweetCount))

	summary, err := producer.FetchTweetsForGroups(ctx, c, groups, cfg.TweetCount)
	if err != nil {
		slog.Warn("Collection interrupted", slog.String("error", err.Error()))
	}
	if summary.Failed() > 0 || summary.DroppedBatches() > 0 {
		slog.Warn("Collection finished with failures",
			slog.Int("failed_queries", summary.Failed()),
			slog.Int("dropped_batches", summary.DroppedBatches()))
	}
}
