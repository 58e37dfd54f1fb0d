package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recall/pkg/model"
	"github.com/m-mizutani/recall/pkg/utils/logging"
	"github.com/redis/go-redis/v9"
)

const defaultTimeout = 2 * time.Second

// Redis implements Repository on a Redis server. Each memory is a JSON string
// under memory:<userId>:<id> and its id is indexed in the sorted set
// memories:<userId> scored by epoch milliseconds.
type Redis struct {
	client  *redis.Client
	timeout time.Duration
	atomic  bool
}

// RedisOption is a functional option for Redis
type RedisOption func(*Redis)

// WithTimeout bounds every Redis call. Zero or negative disables the bound.
func WithTimeout(d time.Duration) RedisOption {
	return func(r *Redis) {
		r.timeout = d
	}
}

// WithAtomicWrite writes the record and its index entry in one MULTI/EXEC
// transaction instead of two round trips.
func WithAtomicWrite() RedisOption {
	return func(r *Redis) {
		r.atomic = true
	}
}

// NewRedis creates a Redis repository. The connection is established lazily
// on first use, so an unreachable server is not an error here.
func NewRedis(url string, opts ...RedisOption) (*Redis, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse Redis URL", goerr.V("url", url))
	}

	r := &Redis{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(r)
	}

	// go-redis retries by default; failures go straight to the fallback store instead
	redisOpts.MaxRetries = -1
	if r.timeout > 0 {
		redisOpts.DialTimeout = r.timeout
		redisOpts.ReadTimeout = r.timeout
		redisOpts.WriteTimeout = r.timeout
		redisOpts.ContextTimeoutEnabled = true
	}
	r.client = redis.NewClient(redisOpts)

	return r, nil
}

func memoryKey(userID model.UserID, id model.MemoryID) string {
	return "memory:" + string(userID) + ":" + string(id)
}

func indexKey(userID model.UserID) string {
	return "memories:" + string(userID)
}

func (r *Redis) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

func unavailable(err error, msg string, opts ...goerr.Option) error {
	opts = append(opts, goerr.T(model.ErrTagBackendUnavailable))
	return goerr.Wrap(err, msg, opts...)
}

// PutMemory stores the record, then adds its id to the recency index
func (r *Redis) PutMemory(ctx context.Context, memory *model.Memory) error {
	raw, err := json.Marshal(memory)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal memory", goerr.V("id", memory.ID))
	}

	key := memoryKey(memory.UserID, memory.ID)
	member := redis.Z{
		Score:  float64(memory.Timestamp.UnixMilli()),
		Member: string(memory.ID),
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if r.atomic {
		var setCmd *redis.StatusCmd
		_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			setCmd = pipe.Set(ctx, key, raw, 0)
			pipe.ZAdd(ctx, indexKey(memory.UserID), member)
			return nil
		})
		if err == nil {
			return nil
		}

		// EXEC does not roll back: a command error inside the transaction
		// leaves the SET applied.
		if setCmd != nil && setCmd.Err() == nil {
			return goerr.Wrap(err, "failed to index memory in transaction",
				goerr.V("key", key),
				goerr.V("index", indexKey(memory.UserID)),
				goerr.T(model.ErrTagPartialWrite))
		}
		return unavailable(err, "failed to write memory transaction", goerr.V("key", key))
	}

	if err := r.client.Set(ctx, key, raw, 0).Err(); err != nil {
		return unavailable(err, "failed to write memory", goerr.V("key", key))
	}

	// The record is already stored at this point. Reporting the index failure
	// as unavailable would place a second copy in the fallback store.
	if err := r.client.ZAdd(ctx, indexKey(memory.UserID), member).Err(); err != nil {
		return goerr.Wrap(err, "failed to index memory",
			goerr.V("key", key),
			goerr.V("index", indexKey(memory.UserID)),
			goerr.T(model.ErrTagPartialWrite))
	}

	return nil
}

// ListMemories returns up to limit memories of the user, newest first
func (r *Redis) ListMemories(ctx context.Context, userID model.UserID, limit int) ([]*model.Memory, error) {
	if limit <= 0 {
		return []*model.Memory{}, nil
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	ids, err := r.client.ZRevRange(ctx, indexKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, unavailable(err, "failed to read memory index", goerr.V("user_id", userID))
	}
	if len(ids) == 0 {
		return []*model.Memory{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = memoryKey(userID, model.MemoryID(id))
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, unavailable(err, "failed to read memories", goerr.V("user_id", userID))
	}

	memories := make([]*model.Memory, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			// indexed but record missing
			continue
		}

		var m model.Memory
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			logging.From(ctx).Warn("skip undecodable memory record",
				"key", keys[i],
				"error", err)
			continue
		}
		memories = append(memories, &m)
	}

	return memories, nil
}

// Ping checks that Redis answers
func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return unavailable(err, "failed to ping Redis")
	}
	return nil
}

// Close closes the shared client
func (r *Redis) Close() error {
	if err := r.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close Redis client")
	}
	return nil
}
