package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"github.com/ajitpratap0/flightsync/pkg/errors"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var flights = &core.TableSchema{
	Table:      "live_flights",
	PrimaryKey: []string{"icao24"},
	Columns: []core.Column{
		{Name: "icao24", Type: core.ColumnTypeString},
		{Name: "last_contact", Type: core.ColumnTypeUTCDateTime},
	},
}

func TestDestination_PublishesKeyedJSON(t *testing.T) {
	producer := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(val, &got))
		assert.Equal(t, "3c6444", got["icao24"])
		assert.Equal(t, "2023-11-14T22:13:20Z", got["last_contact"])
		return nil
	})

	dest := New(producer, "", zaptest.NewLogger(t))
	defer dest.Close()

	ctx := context.Background()
	require.NoError(t, dest.CreateTable(ctx, flights))
	require.NoError(t, dest.Upsert(ctx, "live_flights", core.Record{
		"icao24":       "3c6444",
		"last_contact": time.Unix(1700000000, 0).UTC(),
	}))
}

func TestDestination_BuildMessage(t *testing.T) {
	dest := New(mocks.NewSyncProducer(t, mocks.NewTestConfig()), "flights.compacted", nil)
	defer dest.Close()

	msg, err := dest.buildMessage(flights, core.Record{"icao24": "abc", "last_contact": nil})
	require.NoError(t, err)

	assert.Equal(t, "flights.compacted", msg.Topic)
	assert.Equal(t, sarama.StringEncoder("abc"), msg.Key)
	assert.Equal(t, "table", string(msg.Headers[0].Key))

	_, err = dest.buildMessage(flights, core.Record{"icao24": nil})
	assert.True(t, errors.IsType(err, errors.ErrorTypeSink))
}

func TestDestination_SendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	producer.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

	dest := New(producer, "", nil)
	defer dest.Close()

	ctx := context.Background()
	require.NoError(t, dest.CreateTable(ctx, flights))
	err := dest.Upsert(ctx, "live_flights", core.Record{"icao24": "abc"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSink))

	assert.Error(t, dest.Upsert(ctx, "other", core.Record{"icao24": "abc"}))
}

func TestNewSaramaConfig(t *testing.T) {
	cfg := NewSaramaConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, sarama.WaitForAll, cfg.Producer.RequiredAcks)
	assert.True(t, cfg.Producer.Return.Successes)
}
