package models

import (
	"fmt"
	"time"
)

// Record is the persisted unit. Field order here is the column order of the
// CSV sink and must not be changed without migrating existing files.
type Record struct {
	Text           string    `json:"text" bson:"text" dynamodbav:"text"`
	ID             string    `json:"id" bson:"id" dynamodbav:"id"`
	AuthorName     string    `json:"author_name" bson:"author_name" dynamodbav:"author_name"`
	AuthorLocation string    `json:"author_location" bson:"author_location" dynamodbav:"author_location"`
	Topic          string    `json:"topic" bson:"topic" dynamodbav:"topic"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at" dynamodbav:"created_at"`
	CollectedAt    time.Time `json:"collected_at" bson:"collected_at" dynamodbav:"collected_at"`
}

// RecordFields lists the column names in storage order.
var RecordFields = []string{
	"text",
	"id",
	"author_name",
	"author_location",
	"topic",
	"created_at",
	"collected_at",
}

// Row flattens the record in RecordFields order.
func (r Record) Row() []string {
	return []string{
		r.Text,
		r.ID,
		r.AuthorName,
		r.AuthorLocation,
		r.Topic,
		r.CreatedAt.UTC().Format(time.RFC3339),
		r.CollectedAt.UTC().Format(time.RFC3339),
	}
}

// RecordFromFields is the inverse of Row for stores that keep records as
// name/value pairs (CSV rows keyed by header, stream entries).
func RecordFromFields(fields map[string]string) (Record, error) {
	r := Record{
		Text:           fields["text"],
		ID:             fields["id"],
		AuthorName:     fields["author_name"],
		AuthorLocation: fields["author_location"],
		Topic:          fields["topic"],
	}

	var err error
	if v := fields["created_at"]; v != "" {
		if r.CreatedAt, err = time.Parse(time.RFC3339, v); err != nil {
			return Record{}, fmt.Errorf("[Record] invalid created_at %q: %w", v, err)
		}
	}
	if v := fields["collected_at"]; v != "" {
		if r.CollectedAt, err = time.Parse(time.RFC3339, v); err != nil {
			return Record{}, fmt.Errorf("[Record] invalid collected_at %q: %w", v, err)
		}
	}
	return r, nil
}

// Fields returns the record as name/value pairs keyed by RecordFields.
func (r Record) Fields() map[string]string {
	row := r.Row()
	fields := make(map[string]string, len(RecordFields))
	for i, name := range RecordFields {
		fields[name] = row[i]
	}
	return fields
}
