package processing

import (
	"log/slog"
	"strings"
	"time"

	"github.com/spacesedan/tweetflow/internal/models"
)

// NormalizeStatuses converts one page of API statuses into records under
// topic. collectedAt is stamped on every record; it is clamped so that it is
// never earlier than the post's own creation time.
func NormalizeStatuses(statuses []models.Status, topic string, collectedAt time.Time) []models.Record {
	records := make([]models.Record, 0, len(statuses))
	for _, status := range statuses {
		records = append(records, NormalizeStatus(status, topic, collectedAt))
	}
	return records
}

func NormalizeStatus(status models.Status, topic string, collectedAt time.Time) models.Record {
	text := status.Text
	if status.FullText != "" {
		text = status.FullText
	}

	createdAt, err := ParseCreatedAt(status.CreatedAt)
	if err != nil {
		slog.Warn("[Normalize] Unparseable created_at, using collection time",
			slog.String("id", status.IDStr),
			slog.String("created_at", status.CreatedAt))
		createdAt = collectedAt
	}

	if collectedAt.Before(createdAt) {
		collectedAt = createdAt
	}

	return models.Record{
		Text:           text,
		ID:             status.IDStr,
		AuthorName:     status.User.Name,
		AuthorLocation: status.User.Location,
		Topic:          topic,
		CreatedAt:      createdAt.UTC(),
		CollectedAt:    collectedAt.UTC(),
	}
}

// ParseCreatedAt accepts the classic API layout and RFC 3339.
func ParseCreatedAt(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	t, err := time.Parse(models.TWITTER_TIME_LAYOUT, value)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
