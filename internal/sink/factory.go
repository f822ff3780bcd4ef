package sink

import (
	"context"
	"fmt"

	"github.com/spacesedan/tweetflow/config"
	"github.com/spacesedan/tweetflow/internal/clients"
)

// New builds the sink selected by cfg.Sink, connecting to its backing store.
func New(ctx context.Context, cfg config.Config) (Sink, error) {
	switch cfg.Sink {
	case config.SinkCSV:
		return NewCSVSink(cfg.DataDir)

	case config.SinkMongo:
		client, err := clients.NewMongoClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		return NewMongoSink(client, cfg.MongoDatabase), nil

	case config.SinkDynamoDB:
		client, err := clients.NewDynamoDBClient(ctx, cfg.AWSRegion, cfg.AWSEndpoint)
		if err != nil {
			return nil, err
		}
		return NewDynamoSink(client, cfg.DynamoDBTablePrefix), nil

	case config.SinkValkey:
		client, err := clients.NewValkeyClient(ctx, clients.ValkeyOptions{
			Address:  cfg.ValkeyAddress,
			Password: cfg.ValkeyPassword,
			TLS:      cfg.ValkeyTLS,
		})
		if err != nil {
			return nil, err
		}
		return NewValkeySink(client, cfg.ValkeyStreamPrefix), nil

	case config.SinkKafka:
		producer, err := clients.NewKafkaProducer(cfg.KafkaBroker)
		if err != nil {
			return nil, err
		}
		return NewKafkaSink(producer, cfg.KafkaTopicPrefix), nil

	case config.SinkPostgres:
		pool, err := clients.NewPostgresPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return NewPostgresSink(pool, cfg.PostgresTablePrefix), nil

	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownSink, cfg.Sink)
	}
}
