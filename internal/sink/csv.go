package sink

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spacesedan/tweetflow/internal/models"
)

// CSVSink appends records to <dir>/<topic>.csv. The header is written only
// when the file is new or empty.
type CSVSink struct {
	dir string
}

func NewCSVSink(dir string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("[CSVSink] Failed to create %s: %w", dir, err)
	}
	return &CSVSink{dir: dir}, nil
}

func (s *CSVSink) Path(topic string) string {
	return filepath.Join(s.dir, topic+".csv")
}

func (s *CSVSink) Append(ctx context.Context, topic string, records []models.Record) error {
	if err := validateBatch(topic, records); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.Path(topic)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("[CSVSink] Failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("[CSVSink] Failed to stat %s: %w", path, err)
	}

	if err := writeRecords(f, records, info.Size() == 0); err != nil {
		return fmt.Errorf("[CSVSink] Failed to write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("[CSVSink] Failed to sync %s: %w", path, err)
	}

	slog.Info("[CSVSink] Appended records",
		slog.String("topic", topic),
		slog.String("path", path),
		slog.Int("records", len(records)))
	return nil
}

func (s *CSVSink) Close(context.Context) error {
	return nil
}

// WriteSnapshot replaces <dir>/<topic>.csv with exactly records.
func (s *CSVSink) WriteSnapshot(topic string, records []models.Record) error {
	path := s.Path(topic)
	tmp, err := os.CreateTemp(s.dir, topic+".*.csv.tmp")
	if err != nil {
		return fmt.Errorf("[CSVSink] Failed to create snapshot for %s: %w", topic, err)
	}
	defer os.Remove(tmp.Name())

	if err := writeRecords(tmp, records, true); err != nil {
		tmp.Close()
		return fmt.Errorf("[CSVSink] Failed to write snapshot for %s: %w", topic, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[CSVSink] Failed to close snapshot for %s: %w", topic, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("[CSVSink] Failed to replace %s: %w", path, err)
	}

	slog.Info("[CSVSink] Wrote snapshot",
		slog.String("topic", topic),
		slog.String("path", path),
		slog.Int("records", len(records)))
	return nil
}

// ReadAll parses <dir>/<topic>.csv. Columns are matched by header name so
// files with extra or reordered columns still load.
func (s *CSVSink) ReadAll(ctx context.Context, topic string) ([]models.Record, error) {
	path := s.Path(topic)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("[CSVSink] Failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[CSVSink] Failed to read header of %s: %w", path, err)
	}

	var records []models.Record
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("[CSVSink] Failed to read %s line %d: %w", path, line, err)
		}

		fields := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(row) {
				fields[name] = row[i]
			}
		}
		record, err := models.RecordFromFields(fields)
		if err != nil {
			return nil, fmt.Errorf("[CSVSink] %s line %d: %w", path, line, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func writeRecords(f *os.File, records []models.Record, header bool) error {
	w := csv.NewWriter(f)
	if header {
		if err := w.Write(models.RecordFields); err != nil {
			return err
		}
	}
	for _, r := range records {
		if err := w.Write(r.Row()); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
