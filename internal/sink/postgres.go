package sink

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/spacesedan/tweetflow/internal/models"
)

// PostgresPool is the subset of *pgxpool.Pool the sink needs.
type PostgresPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresSink keeps one table per topic. The table is created on first use
// with a serial row_id as the store-internal key.
type PostgresSink struct {
	pool        PostgresPool
	tablePrefix string
	ready       map[string]bool
}

func NewPostgresSink(pool PostgresPool, tablePrefix string) *PostgresSink {
	return &PostgresSink{pool: pool, tablePrefix: tablePrefix, ready: make(map[string]bool)}
}

// TableName returns the quoted table identifier for topic.
func (s *PostgresSink) TableName(topic string) string {
	return pgx.Identifier{s.tablePrefix + topic}.Sanitize()
}

func (s *PostgresSink) ensureTable(ctx context.Context, table string) error {
	if s.ready[table] {
		return nil
	}
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+table+` (
	row_id          BIGSERIAL PRIMARY KEY,
	text            TEXT NOT NULL,
	id              TEXT NOT NULL,
	author_name     TEXT NOT NULL DEFAULT '',
	author_location TEXT NOT NULL DEFAULT '',
	topic           TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL,
	collected_at    TIMESTAMPTZ NOT NULL
)`)
	if err != nil {
		return fmt.Errorf("[PostgresSink] Failed to create table %s: %w", table, err)
	}
	s.ready[table] = true
	return nil
}

// Append inserts the batch with a single multi-row INSERT. Record ids are not
// checked for duplicates.
func (s *PostgresSink) Append(ctx context.Context, topic string, records []models.Record) error {
	if err := validateBatch(topic, records); err != nil {
		return err
	}

	table := s.TableName(topic)
	if err := s.ensureTable(ctx, table); err != nil {
		return err
	}

	query, args := insertStatement(table, records)
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("[PostgresSink] Failed to insert into %s: %w", table, err)
	}

	slog.Debug("[PostgresSink] Inserted records",
		slog.String("table", table),
		slog.Int64("rows", tag.RowsAffected()))
	return nil
}

func insertStatement(table string, records []models.Record) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO " + table + " (" + strings.Join(models.RecordFields, ", ") + ") VALUES ")

	args := make([]any, 0, len(records)*len(models.RecordFields))
	for i, r := range records {
		if i > 0 {
			b.WriteString(", ")
		}
		n := len(args)
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5, n+6, n+7)
		args = append(args, r.Text, r.ID, r.AuthorName, r.AuthorLocation, r.Topic, r.CreatedAt, r.CollectedAt)
	}
	return b.String(), args
}

// ReadAll returns every row of the topic's table ordered by creation time,
// without the internal row_id.
func (s *PostgresSink) ReadAll(ctx context.Context, topic string) ([]models.Record, error) {
	table := s.TableName(topic)
	rows, err := s.pool.Query(ctx,
		"SELECT "+strings.Join(models.RecordFields, ", ")+" FROM "+table+" ORDER BY created_at, row_id")
	if err != nil {
		return nil, fmt.Errorf("[PostgresSink] Failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var r models.Record
		if err := rows.Scan(&r.Text, &r.ID, &r.AuthorName, &r.AuthorLocation, &r.Topic, &r.CreatedAt, &r.CollectedAt); err != nil {
			return nil, fmt.Errorf("[PostgresSink] Failed to scan %s: %w", table, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("[PostgresSink] Failed reading %s: %w", table, err)
	}
	return records, nil
}

func (s *PostgresSink) Close(context.Context) error {
	s.pool.Close()
	return nil
}
