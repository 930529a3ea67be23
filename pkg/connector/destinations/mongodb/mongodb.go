// Package mongodb provides a MongoDB destination. Each table maps to a
// collection and the primary key becomes the document _id.
package mongodb

import (
	"context"
	"sync"
	"time"

	"github.com/ajitpratap0/flightsync/pkg/config"
	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"github.com/ajitpratap0/flightsync/pkg/connector/registry"
	"github.com/ajitpratap0/flightsync/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Name is the registry name of the destination
const Name = "mongodb"

// DefaultDatabase is used when neither the config nor the URI names one
const DefaultDatabase = "flightsync"

func init() {
	_ = registry.RegisterDestination(Name, func(cfg *config.Config, opts registry.Options) (core.Destination, error) {
		ctx, cancel := cfg.SinkContext()
		defer cancel()
		return Open(ctx, cfg.Destination.URI, cfg.Destination.Database, opts.Log())
	})
}

// Destination replaces one document per primary key
type Destination struct {
	client   *mongo.Client
	database *mongo.Database
	logger   *zap.Logger

	mu      sync.RWMutex
	schemas map[string]*core.TableSchema
}

// Open connects to uri and selects database
func Open(ctx context.Context, uri, database string, logger *zap.Logger) (*Destination, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if database == "" {
		database = DefaultDatabase
	}

	clientOpts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to connect to MongoDB")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to ping MongoDB")
	}

	logger = logger.With(zap.String("destination", Name))
	logger.Info("connected to MongoDB", zap.String("database", database))

	return &Destination{
		client:   client,
		database: client.Database(database),
		logger:   logger,
		schemas:  make(map[string]*core.TableSchema),
	}, nil
}

// CreateTable registers schema. Collections are created lazily by the
// first upsert; _id already enforces key uniqueness.
func (d *Destination) CreateTable(_ context.Context, schema *core.TableSchema) error {
	if err := schema.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.schemas[schema.Table]; !ok {
		d.schemas[schema.Table] = schema
		d.logger.Info("collection registered", zap.String("collection", schema.Table))
	}
	return nil
}

// Upsert replaces the document whose _id is the record's key
func (d *Destination) Upsert(ctx context.Context, table string, record core.Record) error {
	d.mu.RLock()
	schema, ok := d.schemas[table]
	d.mu.RUnlock()
	if !ok {
		return errors.Newf(errors.ErrorTypeSink, "table %s is not registered", table)
	}

	doc, err := Document(schema, record)
	if err != nil {
		return err
	}

	_, err = d.database.Collection(table).ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: doc[0].Value}},
		doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeSink, "replace into "+table+" failed")
	}
	return nil
}

// Close disconnects the client
func (d *Destination) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return d.client.Disconnect(ctx)
}

// Document renders record as an ordered document: _id first, then the
// columns in declaration order. Null values are stored as BSON null.
func Document(schema *core.TableSchema, record core.Record) (bson.D, error) {
	key, err := schema.KeyString(record)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeSink, "cannot upsert record without a key")
	}

	doc := make(bson.D, 0, len(schema.Columns)+1)
	doc = append(doc, bson.E{Key: "_id", Value: key})
	for _, c := range schema.Columns {
		doc = append(doc, bson.E{Key: c.Name, Value: record[c.Name]})
	}
	return doc, nil
}
