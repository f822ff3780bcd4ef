package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRowOrder(t *testing.T) {
	r := Record{
		Text:           "hello, world",
		ID:             "42",
		AuthorName:     "Ann",
		AuthorLocation: "Ohio",
		Topic:          "Vaccinated",
		CreatedAt:      time.Date(2021, 4, 20, 10, 0, 0, 0, time.UTC),
		CollectedAt:    time.Date(2021, 4, 21, 8, 30, 0, 0, time.FixedZone("EST", -5*3600)),
	}

	assert.Equal(t, []string{
		"hello, world", "42", "Ann", "Ohio", "Vaccinated",
		"2021-04-20T10:00:00Z", "2021-04-21T13:30:00Z",
	}, r.Row())
	assert.Len(t, RecordFields, len(r.Row()))
}

func TestRecordFromFields(t *testing.T) {
	original := Record{
		Text:        "text",
		ID:          "7",
		Topic:       "PfizerVaccine",
		CreatedAt:   time.Date(2021, 4, 20, 10, 0, 0, 0, time.UTC),
		CollectedAt: time.Date(2021, 4, 21, 10, 0, 0, 0, time.UTC),
	}

	got, err := RecordFromFields(original.Fields())
	require.NoError(t, err)
	assert.Equal(t, original, got)

	_, err = RecordFromFields(map[string]string{"created_at": "last tuesday"})
	assert.ErrorContains(t, err, "created_at")
}
