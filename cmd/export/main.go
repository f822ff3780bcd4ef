package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spacesedan/tweetflow/config"
	"github.com/spacesedan/tweetflow/internal/logging"
	"github.com/spacesedan/tweetflow/internal/processing"
	"github.com/spacesedan/tweetflow/internal/sink"
)

// export dumps every topic held in the configured store into a fresh
// <DATA_DIR>/<topic>.csv snapshot.
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

	if cfg.Sink == config.SinkCSV || cfg.Sink == config.SinkKafka {
		slog.Error("Export needs a readable store, set SINK to mongo, dynamodb, valkey or postgres", slog.String("sink", cfg.Sink))
		os.Exit(1)
	}

	groups, err := processing.ParseHashtagGroups(cfg.Hashtags)
	if err != nil {
		slog.Error("Invalid HASHTAGS", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sink.New(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open store", slog.String("sink", cfg.Sink), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close(context.Background())

	reader, ok := store.(sink.Reader)
	if !ok {
		slog.Error("Store does not support reads", slog.String("sink", cfg.Sink))
		os.Exit(1)
	}

	csvSink, err := sink.NewCSVSink(cfg.DataDir)
	if err != nil {
		slog.Error("Failed to open data dir", slog.String("dir", cfg.DataDir), slog.String("error", err.Error()))
		os.Exit(1)
	}

	failed := 0
	for _, topic := range processing.Topics(groups) {
		records, err := reader.ReadAll(ctx, topic)
		if err != nil {
			slog.Error("Failed to read topic", slog.String("topic", topic), slog.String("error", err.Error()))
			failed++
			continue
		}
		if err := csvSink.WriteSnapshot(topic, records); err != nil {
			slog.Error("Failed to write snapshot", slog.String("topic", topic), slog.String("error", err.Error()))
			failed++
			continue
		}
		slog.Info("Exported topic",
			slog.String("topic", topic),
			slog.Int("records", len(records)),
			slog.String("path", csvSink.Path(topic)))
	}

	if failed > 0 {
		os.Exit(1)
	}
}
