package checkpoint

import (
	"context"
	stderrors "errors"

	"github.com/ajitpratap0/flightsync/pkg/connector/core"
	"github.com/ajitpratap0/flightsync/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces checkpoint keys in redis
const KeyPrefix = "flightsync:checkpoint:"

// RedisOptions configures the redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore keeps the state as a JSON string under KeyPrefix+connector
type RedisStore struct {
	client *redis.Client
	key    string
}

// OpenRedisStore connects and pings the server
func OpenRedisStore(ctx context.Context, opts RedisOptions, connector string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to connect to redis")
	}
	return NewRedisStore(client, connector), nil
}

// NewRedisStore uses an existing client
func NewRedisStore(client *redis.Client, connector string) *RedisStore {
	return &RedisStore{client: client, key: KeyPrefix + connector}
}

// Key returns the redis key holding the state
func (r *RedisStore) Key() string {
	return r.key
}

// Read returns the stored state; a missing key is an empty state
func (r *RedisStore) Read(ctx context.Context) (core.State, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return core.State{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to read checkpoint")
	}
	return decode(data)
}

// Write replaces the stored state. Checkpoints do not expire.
func (r *RedisStore) Write(ctx context.Context, state core.State) error {
	data, err := encode(state)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeCheckpoint, "failed to write checkpoint")
	}
	return nil
}

// Close closes the client
func (r *RedisStore) Close() error {
	return r.client.Close()
}
