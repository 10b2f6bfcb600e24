package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/quorumlabs/quorum/pkg/quorum/tracker"
)

const (
	redisKeyPrefix = "quorum:record:"
	redisIndexKey  = "quorum:records"
)

// Redis persists records in Redis so multiple orchestrator processes can
// share one reliability history. Values are JSON; an index set tracks the
// known model ids so List avoids a keyspace scan.
type Redis struct {
	client *redis.Client
}

// OpenRedis connects to the given address and verifies the connection
func OpenRedis(addr string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrapf(err, "connecting to redis at %s", addr)
	}

	return &Redis{client: client}, nil
}

// Close releases the underlying connection pool
func (r *Redis) Close() error {
	return r.client.Close()
}

// Get implements tracker.Store
func (r *Redis) Get(ctx context.Context, modelID string) (tracker.Record, bool, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+modelID).Result()
	if err == redis.Nil {
		return tracker.Record{}, false, nil
	}
	if err != nil {
		return tracker.Record{}, false, errors.Wrapf(err, "loading record for %s", modelID)
	}

	var rec tracker.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return tracker.Record{}, false, errors.Wrapf(err, "decoding record for %s", modelID)
	}
	return rec, true, nil
}

// Put implements tracker.Store
func (r *Redis) Put(ctx context.Context, rec tracker.Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrapf(err, "encoding record for %s", rec.ModelID)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, redisKeyPrefix+rec.ModelID, raw, 0)
	pipe.SAdd(ctx, redisIndexKey, rec.ModelID)
	_, err = pipe.Exec(ctx)
	return errors.Wrapf(err, "storing record for %s", rec.ModelID)
}

// List implements tracker.Store
func (r *Redis) List(ctx context.Context) ([]tracker.Record, error) {
	ids, err := r.client.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, errors.Wrap(err, "listing record index")
	}

	out := make([]tracker.Record, 0, len(ids))
	for _, id := range ids {
		rec, ok, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		// Index entries without a value mean a concurrent delete; skip.
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}
