// Package sink persists normalized records, one bucket per topic.
package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/spacesedan/tweetflow/internal/clients"
	"github.com/spacesedan/tweetflow/internal/models"
)

var (
	ErrEmptyBatch    = errors.New("[Sink] empty batch")
	ErrTopicMismatch = errors.New("[Sink] record topic does not match batch topic")
)

// Sink appends batches of records under a topic. Implementations are used
// by a single writer and are not safe for concurrent use.
type Sink interface {
	Append(ctx context.Context, topic string, records []models.Record) error
	Close(ctx context.Context) error
}

// Reader returns every record stored under a topic. Implemented by the
// document-store sinks for CSV export.
type Reader interface {
	ReadAll(ctx context.Context, topic string) ([]models.Record, error)
}

func validateBatch(topic string, records []models.Record) error {
	if len(records) == 0 {
		return ErrEmptyBatch
	}
	for i, r := range records {
		if r.Topic != topic {
			return fmt.Errorf("%w: record %d (%s) has topic %q, want %q", ErrTopicMismatch, i, r.ID, r.Topic, topic)
		}
	}
	return nil
}

// partialWrite wraps err with the number of records already persisted.
func partialWrite(written, total int, err error) error {
	if written <= 0 {
		return err
	}
	return &clients.PartialWriteError{Written: written, Total: total, Err: err}
}

var (
	_ Sink   = (*CSVSink)(nil)
	_ Sink   = (*MongoSink)(nil)
	_ Sink   = (*DynamoSink)(nil)
	_ Sink   = (*ValkeySink)(nil)
	_ Sink   = (*KafkaSink)(nil)
	_ Sink   = (*PostgresSink)(nil)
	_ Reader = (*CSVSink)(nil)
	_ Reader = (*MongoSink)(nil)
	_ Reader = (*DynamoSink)(nil)
	_ Reader = (*ValkeySink)(nil)
	_ Reader = (*PostgresSink)(nil)
)
