package sink

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/spacesedan/tweetflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertArgs(records []models.Record) []any {
	args := []any{}
	for _, r := range records {
		args = append(args, r.Text, r.ID, r.AuthorName, r.AuthorLocation, r.Topic, r.CreatedAt, r.CollectedAt)
	}
	return args
}

func TestPostgresSink_CreatesTableOnceAndInserts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresSink(mock, "tweets_")
	first := testRecords("Vaccinated", "1", "2")
	second := testRecords("Vaccinated", "3")

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "tweets_Vaccinated"`)).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "tweets_Vaccinated" (text, id, author_name, author_location, topic, created_at, collected_at) VALUES ($1, $2, $3, $4, $5, $6, $7), ($8,`)).
		WithArgs(insertArgs(first)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "tweets_Vaccinated"`)).
		WithArgs(insertArgs(second)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Append(context.Background(), "Vaccinated", first))
	require.NoError(t, s.Append(context.Background(), "Vaccinated", second))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSink_InsertError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec("INSERT INTO").WillReturnError(errors.New("connection reset"))

	err = NewPostgresSink(mock, "tweets_").Append(context.Background(), "PfizerVaccine", testRecords("PfizerVaccine", "1"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection reset")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSink_RejectsInvalidBatches(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresSink(mock, "tweets_")
	assert.ErrorIs(t, s.Append(context.Background(), "Vaccinated", nil), ErrEmptyBatch)
	assert.ErrorIs(t, s.Append(context.Background(), "Vaccinated", testRecords("Pfizer", "1")), ErrTopicMismatch)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSink_ReadAll(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	want := testRecords("ModernaVaccine", "1", "2")
	rows := mock.NewRows(models.RecordFields)
	for _, r := range want {
		rows.AddRow(r.Text, r.ID, r.AuthorName, r.AuthorLocation, r.Topic, r.CreatedAt, r.CollectedAt)
	}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT text, id, author_name, author_location, topic, created_at, collected_at FROM "tweets_ModernaVaccine" ORDER BY created_at`)).
		WillReturnRows(rows)

	got, err := NewPostgresSink(mock, "tweets_").ReadAll(context.Background(), "ModernaVaccine")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	require.NoError(t, mock.ExpectationsWereMet())
}
