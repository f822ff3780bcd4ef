package sink

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spacesedan/tweetflow/internal/models"
	"github.com/valkey-io/valkey-go"
)

// ValkeySink appends every record to a per-topic stream, <prefix><topic>,
// with a server-assigned entry id.
type ValkeySink struct {
	client valkey.Client
	prefix string
}

func NewValkeySink(client valkey.Client, prefix string) *ValkeySink {
	return &ValkeySink{client: client, prefix: prefix}
}

func (s *ValkeySink) StreamKey(topic string) string {
	return s.prefix + topic
}

func (s *ValkeySink) Append(ctx context.Context, topic string, records []models.Record) error {
	if err := validateBatch(topic, records); err != nil {
		return err
	}
	key := s.StreamKey(topic)

	cmds := make(valkey.Commands, 0, len(records))
	for _, record := range records {
		cmd := s.client.B().Xadd().Key(key).Id("*").FieldValue()
		for _, pair := range streamFields(record) {
			cmd = cmd.FieldValue(pair[0], pair[1])
		}
		cmds = append(cmds, cmd.Build())
	}

	failed := 0
	var firstErr error
	for _, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if failed > 0 {
		return partialWrite(len(records)-failed, len(records),
			fmt.Errorf("[ValkeySink] %d of %d entries not added to %s: %w", failed, len(records), key, firstErr))
	}

	slog.Info("[ValkeySink] Appended records",
		slog.String("stream", key),
		slog.Int("records", len(records)))
	return nil
}

// ReadAll returns the whole stream for topic in insertion order.
func (s *ValkeySink) ReadAll(ctx context.Context, topic string) ([]models.Record, error) {
	key := s.StreamKey(topic)
	entries, err := s.client.Do(ctx, s.client.B().Xrange().Key(key).Start("-").End("+").Build()).AsXRange()
	if err != nil {
		return nil, fmt.Errorf("[ValkeySink] Failed to read %s: %w", key, err)
	}

	records := make([]models.Record, 0, len(entries))
	for _, entry := range entries {
		record, err := models.RecordFromFields(entry.FieldValues)
		if err != nil {
			return nil, fmt.Errorf("[ValkeySink] entry %s of %s: %w", entry.ID, key, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *ValkeySink) Close(context.Context) error {
	s.client.Close()
	return nil
}

// streamFields flattens a record into ordered field/value pairs.
func streamFields(record models.Record) [][2]string {
	row := record.Row()
	pairs := make([][2]string, len(models.RecordFields))
	for i, name := range models.RecordFields {
		pairs[i] = [2]string{name, row[i]}
	}
	return pairs
}
