// Package kafka provides a destination that publishes each record as a
// keyed JSON message. On a log-compacted topic the latest message per key
// is the upserted row.
package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/ajitpratap0/flightsync/pkg/config"
	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"github.com/ajitpratap0/flightsync/pkg/connector/registry"
	"github.com/ajitpratap0/flightsync/pkg/errors"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Name is the registry name of the destination
const Name = "kafka"

func init() {
	_ = registry.RegisterDestination(Name, func(cfg *config.Config, opts registry.Options) (core.Destination, error) {
		return Open(cfg.Destination.Brokers, cfg.Destination.Topic, opts.Log())
	})
}

// Destination publishes records through a SyncProducer
type Destination struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger

	mu      sync.RWMutex
	schemas map[string]*core.TableSchema
}

// NewSaramaConfig returns the producer configuration: acks from all
// in-sync replicas and hashing on the key so one aircraft stays on one
// partition.
func NewSaramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = "flightsync"
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Retry.Backoff = 250 * time.Millisecond
	cfg.Version = sarama.V2_8_0_0
	return cfg
}

// Open connects a SyncProducer to brokers. An empty topic publishes each
// table to a topic of the same name.
func Open(brokers []string, topic string, logger *zap.Logger) (*Destination, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewSaramaConfig())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create Kafka producer")
	}
	return New(producer, topic, logger), nil
}

// New wraps an existing producer
func New(producer sarama.SyncProducer, topic string, logger *zap.Logger) *Destination {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Destination{
		producer: producer,
		topic:    topic,
		logger:   logger.With(zap.String("destination", Name)),
		schemas:  make(map[string]*core.TableSchema),
	}
}

// CreateTable registers schema. Topics are provisioned outside flightsync.
func (d *Destination) CreateTable(_ context.Context, schema *core.TableSchema) error {
	if err := schema.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.schemas[schema.Table]; !ok {
		d.schemas[schema.Table] = schema
		d.logger.Info("table registered",
			zap.String("table", schema.Table),
			zap.String("topic", d.topicFor(schema.Table)))
	}
	return nil
}

// Upsert publishes record keyed by its primary key and waits for the ack
func (d *Destination) Upsert(ctx context.Context, table string, record core.Record) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeSink, "upsert cancelled")
	}

	d.mu.RLock()
	schema, ok := d.schemas[table]
	d.mu.RUnlock()
	if !ok {
		return errors.Newf(errors.ErrorTypeSink, "table %s is not registered", table)
	}

	msg, err := d.buildMessage(schema, record)
	if err != nil {
		return err
	}

	if _, _, err := d.producer.SendMessage(msg); err != nil {
		return errors.Wrap(err, errors.ErrorTypeSink, "publish to "+msg.Topic+" failed")
	}
	return nil
}

// Close flushes and closes the producer
func (d *Destination) Close() error {
	return d.producer.Close()
}

func (d *Destination) buildMessage(schema *core.TableSchema, record core.Record) (*sarama.ProducerMessage, error) {
	key, err := schema.KeyString(record)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeSink, "cannot publish record without a key")
	}

	value, err := json.Marshal(record)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeSink, "failed to encode record")
	}

	return &sarama.ProducerMessage{
		Topic: d.topicFor(schema.Table),
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("table"), Value: []byte(schema.Table)},
		},
	}, nil
}

func (d *Destination) topicFor(table string) string {
	if d.topic != "" {
		return d.topic
	}
	return table
}
