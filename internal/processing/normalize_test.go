package processing

import (
	"testing"
	"time"

	"github.com/spacesedan/tweetflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStatuses(t *testing.T) {
	collectedAt := time.Date(2021, 4, 20, 12, 0, 0, 0, time.UTC)
	statuses := []models.Status{
		{
			IDStr:     "1384",
			Text:      "Got my #PfizerVaccine today",
			CreatedAt: "Tue Apr 20 10:15:00 +0000 2021",
			User:      models.StatusUser{Name: "Ann", Location: "Austin, TX"},
		},
		{
			IDStr:     "1385",
			Text:      "truncated…",
			FullText:  "the whole post",
			CreatedAt: "Tue Apr 20 11:00:00 +0000 2021",
		},
	}

	records := NormalizeStatuses(statuses, "PfizerVaccine", collectedAt)
	require.Len(t, records, 2)

	assert.Equal(t, models.Record{
		Text:           "Got my #PfizerVaccine today",
		ID:             "1384",
		AuthorName:     "Ann",
		AuthorLocation: "Austin, TX",
		Topic:          "PfizerVaccine",
		CreatedAt:      time.Date(2021, 4, 20, 10, 15, 0, 0, time.UTC),
		CollectedAt:    collectedAt,
	}, records[0])

	assert.Equal(t, "the whole post", records[1].Text)
	assert.Empty(t, records[1].AuthorName)
	assert.Empty(t, records[1].AuthorLocation)
}

func TestNormalizeStatus_CollectedNeverBeforeCreated(t *testing.T) {
	lagging := time.Date(2021, 4, 20, 9, 0, 0, 0, time.UTC)
	record := NormalizeStatus(models.Status{
		IDStr:     "1",
		CreatedAt: "Tue Apr 20 10:15:00 +0000 2021",
	}, "Vaccinated", lagging)

	assert.Equal(t, record.CreatedAt, record.CollectedAt)
}

func TestNormalizeStatus_BadTimestamp(t *testing.T) {
	now := time.Date(2021, 4, 20, 9, 0, 0, 0, time.UTC)
	record := NormalizeStatus(models.Status{IDStr: "1", CreatedAt: "yesterday"}, "Vaccinated", now)

	assert.Equal(t, now, record.CreatedAt)
	assert.Equal(t, now, record.CollectedAt)
}

func TestParseCreatedAt(t *testing.T) {
	got, err := ParseCreatedAt("2021-04-20T10:15:00Z")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Hour())

	_, err = ParseCreatedAt("")
	assert.Error(t, err)
}
