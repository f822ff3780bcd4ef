package sink

import (
	"context"
	"testing"

	"github.com/spacesedan/tweetflow/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CSV(t *testing.T) {
	s, err := New(context.Background(), config.Config{Sink: config.SinkCSV, DataDir: t.TempDir()})
	require.NoError(t, err)

	_, isCSV := s.(*CSVSink)
	assert.True(t, isCSV)
	_, isReader := s.(Reader)
	assert.True(t, isReader)
}

func TestNew_UnknownSink(t *testing.T) {
	_, err := New(context.Background(), config.Config{Sink: "s3"})
	assert.ErrorIs(t, err, config.ErrUnknownSink)
}
