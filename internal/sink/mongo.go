package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spacesedan/tweetflow/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoCollection is the subset of *mongo.Collection used by MongoSink.
type MongoCollection interface {
	InsertMany(ctx context.Context, documents any, opts ...options.Lister[options.InsertManyOptions]) (*mongo.InsertManyResult, error)
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error)
}

// MongoSink inserts one document per record into the collection named after
// the topic. The driver assigns _id; the record id is stored alongside it
// and is not checked for duplicates, so re-collecting a topic inserts the
// same posts again.
type MongoSink struct {
	collection func(name string) MongoCollection
	disconnect func(ctx context.Context) error
}

func NewMongoSink(client *mongo.Client, database string) *MongoSink {
	db := client.Database(database)
	return &MongoSink{
		collection: func(name string) MongoCollection { return db.Collection(name) },
		disconnect: client.Disconnect,
	}
}

func (s *MongoSink) Append(ctx context.Context, topic string, records []models.Record) error {
	if err := validateBatch(topic, records); err != nil {
		return err
	}

	result, err := s.collection(topic).InsertMany(ctx, mongoDocuments(records))
	if err != nil {
		return partialWrite(insertedBeforeFailure(err), len(records),
			fmt.Errorf("[MongoSink] Failed to insert into %s: %w", topic, err))
	}

	slog.Info("[MongoSink] done inserting",
		slog.String("collection", topic),
		slog.Int("records", len(result.InsertedIDs)))
	return nil
}

// insertedBeforeFailure returns how many documents an ordered InsertMany
// stored before its first write error.
func insertedBeforeFailure(err error) int {
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || len(bwe.WriteErrors) == 0 {
		return 0
	}
	first := bwe.WriteErrors[0].Index
	for _, we := range bwe.WriteErrors[1:] {
		first = min(first, we.Index)
	}
	return first
}

// ReadAll returns every document of the topic collection ordered by
// creation time.
func (s *MongoSink) ReadAll(ctx context.Context, topic string) ([]models.Record, error) {
	cursor, err := s.collection(topic).Find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("[MongoSink] Failed to query %s: %w", topic, err)
	}

	var records []models.Record
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("[MongoSink] Failed to decode %s: %w", topic, err)
	}

	slog.Info("[MongoSink] Retrieved documents",
		slog.String("collection", topic),
		slog.Int("records", len(records)))
	return records, nil
}

func (s *MongoSink) Close(ctx context.Context) error {
	return s.disconnect(ctx)
}

func mongoDocuments(records []models.Record) []any {
	docs := make([]any, 0, len(records))
	for _, r := range records {
		docs = append(docs, r)
	}
	return docs
}
