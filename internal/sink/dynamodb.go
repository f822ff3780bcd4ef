package sink

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/spacesedan/tweetflow/internal/models"
)

const (
	DYNAMODB_MAX_BATCH_SIZE = 25
	DYNAMODB_STORE_ID_ATTR  = "_id"
	DYNAMODB_MAX_RETRIES    = 3
)

// DynamoDBAPI is the subset of *dynamodb.Client used by DynamoSink.
type DynamoDBAPI interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	dynamodb.ScanAPIClient
}

// DynamoSink writes each topic to its own table, <prefix><topic>, keyed by
// a generated _id. The record id is a plain attribute and is not checked
// for duplicates.
type DynamoSink struct {
	client      DynamoDBAPI
	tablePrefix string
	newID       func() string
	retryDelay  time.Duration
}

func NewDynamoSink(client DynamoDBAPI, tablePrefix string) *DynamoSink {
	return &DynamoSink{
		client:      client,
		tablePrefix: tablePrefix,
		newID:       uuid.NewString,
		retryDelay:  500 * time.Millisecond,
	}
}

func (s *DynamoSink) TableName(topic string) string {
	return s.tablePrefix + topic
}

func (s *DynamoSink) Append(ctx context.Context, topic string, records []models.Record) error {
	if err := validateBatch(topic, records); err != nil {
		return err
	}
	table := s.TableName(topic)

	written := 0
	for i := 0; i < len(records); i += DYNAMODB_MAX_BATCH_SIZE {
		end := min(i+DYNAMODB_MAX_BATCH_SIZE, len(records))

		writeRequests := make([]types.WriteRequest, 0, end-i)
		for _, record := range records[i:end] {
			item, err := s.recordItem(record)
			if err != nil {
				return partialWrite(written, len(records), err)
			}
			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		n, err := s.batchWrite(ctx, table, writeRequests)
		written += n
		if err != nil {
			return partialWrite(written, len(records), err)
		}
	}

	slog.Info("[DynamoDB] Successfully stored records",
		slog.String("table", table),
		slog.Int("records", len(records)))
	return nil
}

// batchWrite writes one chunk and returns how many of its items were
// persisted.
func (s *DynamoSink) batchWrite(ctx context.Context, table string, writeRequests []types.WriteRequest) (int, error) {
	out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{
			table: writeRequests,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("[DynamoDB] Failed to batch write records: %w", err)
	}

	// Retry writing unprocessed records
	retryCount := 0
	backoff := s.retryDelay
	for len(out.UnprocessedItems) > 0 && retryCount < DYNAMODB_MAX_RETRIES {
		select {
		case <-ctx.Done():
			return len(writeRequests) - len(out.UnprocessedItems[table]), ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2

		slog.Warn("[DynamoDB] Retrying unprocessed items...",
			slog.Int("retry_attempt", retryCount+1),
			slog.Int("remaining_items", len(out.UnprocessedItems[table])))

		pending := len(out.UnprocessedItems[table])
		out, err = s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: out.UnprocessedItems,
		})
		if err != nil {
			return len(writeRequests) - pending, fmt.Errorf("[DynamoDB] Failed to retry batch write: %w", err)
		}
		retryCount++
	}

	if remaining := len(out.UnprocessedItems[table]); remaining > 0 {
		return len(writeRequests) - remaining, fmt.Errorf("[DynamoDB] %d items were not written to %s after %d retries", remaining, table, retryCount)
	}
	return len(writeRequests), nil
}

func (s *DynamoSink) recordItem(record models.Record) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, fmt.Errorf("[DynamoDB] Failed to marshal record %s: %w", record.ID, err)
	}
	item[DYNAMODB_STORE_ID_ATTR] = &types.AttributeValueMemberS{Value: s.newID()}
	return item, nil
}

// ReadAll scans the topic table and returns its records ordered by
// creation time.
func (s *DynamoSink) ReadAll(ctx context.Context, topic string) ([]models.Record, error) {
	table := s.TableName(topic)
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName: aws.String(table),
	})

	var records []models.Record
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("[DynamoDB] Scan of %s failed: %w", table, err)
		}
		var page []models.Record
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("[DynamoDB] Unable to unmarshal page of %s: %w", table, err)
		}
		records = append(records, page...)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})

	slog.Info("[DynamoDB] Successfully retrieved records",
		slog.String("table", table),
		slog.Int("count", len(records)))
	return records, nil
}

func (s *DynamoSink) Close(context.Context) error {
	return nil
}
