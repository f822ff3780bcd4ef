package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"SINK", "TWEET_COUNT", "PAGE_SIZE", "RATE_LIMIT_COOLDOWN", "MAX_SERVER_WAIT",
		"MAX_TRANSPORT_RETRIES", "SEARCH_API_URL", "BEARER_TOKEN", "CONSUMER_KEY", "CONSUMER_SECRET",
		"AWS_ENDPOINT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, SinkCSV, cfg.Sink)
	assert.Equal(t, 10000, cfg.TweetCount)
	assert.Equal(t, 100, cfg.PageSize)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitCooldown)
	assert.Equal(t, time.Hour, cfg.MaxServerWait)
	assert.Equal(t, 10, cfg.MaxTransportRetries)
	assert.Equal(t, DEFAULT_SEARCH_API_URL, cfg.SearchAPIURL)
	assert.Empty(t, cfg.AWSEndpoint, "no endpoint override unless configured")
	assert.ErrorIs(t, cfg.ValidateSearch(), ErrMissingCredentials)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("SINK", "Mongo")
	t.Setenv("TWEET_COUNT", "50")
	t.Setenv("RATE_LIMIT_COOLDOWN", "30s")
	t.Setenv("VALKEY_TLS", "true")
	t.Setenv("BEARER_TOKEN", "token")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, SinkMongo, cfg.Sink)
	assert.Equal(t, 50, cfg.TweetCount)
	assert.Equal(t, 30*time.Second, cfg.RateLimitCooldown)
	assert.True(t, cfg.ValkeyTLS)
	assert.NoError(t, cfg.ValidateSearch())
}

func TestFromEnv_Postgres(t *testing.T) {
	t.Setenv("SINK", "postgres")
	t.Setenv("POSTGRES_TABLE_PREFIX", "posts_")
	t.Setenv("METRICS_ADDR", ":9100")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, SinkPostgres, cfg.Sink)
	assert.Equal(t, "posts_", cfg.PostgresTablePrefix)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Run("unknown sink", func(t *testing.T) {
		t.Setenv("SINK", "cassandra")
		_, err := FromEnv()
		assert.ErrorIs(t, err, ErrUnknownSink)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("SINK", "")
		t.Setenv("MAX_SERVER_WAIT", "forever")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "MAX_SERVER_WAIT")
	})

	for _, key := range []string{"RATE_LIMIT_COOLDOWN", "SERVER_BACKOFF", "MAX_SERVER_WAIT", "TRANSPORT_BACKOFF"} {
		for _, value := range []string{"0s", "-5s"} {
			t.Run(key+"="+value, func(t *testing.T) {
				t.Setenv("SINK", "")
				t.Setenv(key, value)
				_, err := FromEnv()
				require.Error(t, err)
				assert.ErrorContains(t, err, key+" must be positive")
			})
		}
	}

	t.Run("negative transport retries", func(t *testing.T) {
		t.Setenv("SINK", "")
		t.Setenv("MAX_TRANSPORT_RETRIES", "-1")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "MAX_TRANSPORT_RETRIES")
	})

	t.Run("bad count", func(t *testing.T) {
		t.Setenv("SINK", "")
		t.Setenv("TWEET_COUNT", "lots")
		_, err := FromEnv()
		assert.ErrorContains(t, err, "TWEET_COUNT")
	})
}

func TestValidateSearch_ConsumerCredentials(t *testing.T) {
	cfg := Config{ConsumerKey: "key", ConsumerSecret: "secret", TweetCount: 1, PageSize: 1}
	assert.NoError(t, cfg.ValidateSearch())

	cfg.ConsumerSecret = ""
	assert.ErrorIs(t, cfg.ValidateSearch(), ErrMissingCredentials)

	cfg.BearerToken = "token"
	cfg.TweetCount = 0
	assert.Error(t, cfg.ValidateSearch())
}
