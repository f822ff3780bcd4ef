package sink

import (
	"context"
	"errors"
	"testing"

	"github.com/spacesedan/tweetflow/internal/clients"
	"github.com/spacesedan/tweetflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// fakeMongo keeps inserted documents per collection, in insertion order.
type fakeMongo struct {
	docs      map[string][]any
	insertErr error
	finds     []string
}

type fakeCollection struct {
	store *fakeMongo
	name  string
}

func (c *fakeCollection) InsertMany(_ context.Context, documents any, _ ...options.Lister[options.InsertManyOptions]) (*mongo.InsertManyResult, error) {
	if c.store.insertErr != nil {
		return nil, c.store.insertErr
	}
	docs := documents.([]any)
	c.store.docs[c.name] = append(c.store.docs[c.name], docs...)

	ids := make([]any, len(docs))
	for i := range ids {
		ids[i] = bson.NewObjectID()
	}
	return &mongo.InsertManyResult{InsertedIDs: ids}, nil
}

func (c *fakeCollection) Find(_ context.Context, _ any, _ ...options.Lister[options.FindOptions]) (*mongo.Cursor, error) {
	c.store.finds = append(c.store.finds, c.name)
	return mongo.NewCursorFromDocuments(c.store.docs[c.name], nil, nil)
}

func newFakeMongoSink(store *fakeMongo) *MongoSink {
	return &MongoSink{
		collection: func(name string) MongoCollection { return &fakeCollection{store: store, name: name} },
		disconnect: func(context.Context) error { return nil },
	}
}

func TestMongoSink_AppendKeepsDuplicates(t *testing.T) {
	store := &fakeMongo{docs: map[string][]any{}}
	s := newFakeMongoSink(store)
	batch := testRecords("PfizerVaccine", "1", "2")

	require.NoError(t, s.Append(context.Background(), "PfizerVaccine", batch))
	require.NoError(t, s.Append(context.Background(), "PfizerVaccine", batch))

	assert.Len(t, store.docs["PfizerVaccine"], 4)
	assert.Empty(t, store.docs["Vaccinated"], "records go to the collection named after their topic")

	got, err := s.ReadAll(context.Background(), "PfizerVaccine")
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, []string{"1", "2", "1", "2"}, []string{got[0].ID, got[1].ID, got[2].ID, got[3].ID})
	assert.True(t, batch[0].CreatedAt.Equal(got[0].CreatedAt))
	assert.Equal(t, []string{"PfizerVaccine"}, store.finds)
}

func TestMongoSink_RejectsInvalidBatches(t *testing.T) {
	store := &fakeMongo{docs: map[string][]any{}}
	s := newFakeMongoSink(store)

	assert.ErrorIs(t, s.Append(context.Background(), "Vaccinated", nil), ErrEmptyBatch)
	assert.ErrorIs(t, s.Append(context.Background(), "Vaccinated", testRecords("Moderna", "1")), ErrTopicMismatch)
	assert.Empty(t, store.docs)
}

func TestMongoSink_InsertFailures(t *testing.T) {
	t.Run("ordered insert stops at first write error", func(t *testing.T) {
		store := &fakeMongo{docs: map[string][]any{}, insertErr: mongo.BulkWriteException{
			WriteErrors: []mongo.BulkWriteError{
				{WriteError: mongo.WriteError{Index: 2, Code: 121, Message: "Document failed validation"}},
			},
		}}
		err := newFakeMongoSink(store).Append(context.Background(), "Vaccinated", testRecords("Vaccinated", "1", "2", "3", "4"))
		require.Error(t, err)
		assert.Equal(t, 2, clients.WrittenOf(err))
		assert.ErrorContains(t, err, "Document failed validation")
	})

	t.Run("connection error writes nothing", func(t *testing.T) {
		store := &fakeMongo{docs: map[string][]any{}, insertErr: errors.New("server selection timeout")}
		err := newFakeMongoSink(store).Append(context.Background(), "Vaccinated", testRecords("Vaccinated", "1"))
		require.Error(t, err)
		assert.Zero(t, clients.WrittenOf(err))
	})
}

func TestMongoDocuments_FieldNames(t *testing.T) {
	docs := mongoDocuments(testRecords("ModernaVaccine", "1", "2"))
	require.Len(t, docs, 2)

	raw, err := bson.Marshal(docs[0])
	require.NoError(t, err)

	var decoded bson.M
	require.NoError(t, bson.Unmarshal(raw, &decoded))

	for _, field := range models.RecordFields {
		assert.Contains(t, decoded, field)
	}
	assert.NotContains(t, decoded, "_id", "_id is assigned by the driver on insert")
	assert.Equal(t, "1", decoded["id"])
	assert.Equal(t, "ModernaVaccine", decoded["topic"])
}

func TestMongoDocuments_DecodeIgnoresStoreID(t *testing.T) {
	original := testRecords("ModernaVaccine", "1")[0]
	doc := bson.D{{Key: "_id", Value: bson.NewObjectID()}}
	raw, err := bson.Marshal(original)
	require.NoError(t, err)

	var fields bson.D
	require.NoError(t, bson.Unmarshal(raw, &fields))
	doc = append(doc, fields...)

	withID, err := bson.Marshal(doc)
	require.NoError(t, err)

	var got models.Record
	require.NoError(t, bson.Unmarshal(withID, &got))
	assert.Equal(t, original.ID, got.ID)
	assert.True(t, original.CreatedAt.Equal(got.CreatedAt))
}
