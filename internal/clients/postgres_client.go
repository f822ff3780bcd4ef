package clients

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const POSTGRES_CONNECT_TIMEOUT = 5 * time.Second

func NewPostgresPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, POSTGRES_CONNECT_TIMEOUT)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("[PostgresClient] Failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("[PostgresClient] Failed to ping PostgreSQL: %w", err)
	}

	slog.Info("[PostgresClient] Connected to PostgreSQL successfully")
	return pool, nil
}
