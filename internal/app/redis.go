package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"taxi/internal/config"
)

// NewRedisClient connects to the Redis instance holding the shift start
// lock, the daily target and idempotent responses. With nrApp set, every
// command is recorded as a datastore segment.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, nrApp *newrelic.Application) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	if nrApp != nil {
		client.AddHook(datastoreHook{})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// datastoreHook reports Redis commands on the request's transaction. The
// collection is the key namespace, such as "lock" or "idempotency".
type datastoreHook struct{}

func (datastoreHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (datastoreHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		defer startDatastoreSegment(ctx, cmd.Name(), keyNamespace(cmd))()
		return next(ctx, cmd)
	}
}

func (datastoreHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		defer startDatastoreSegment(ctx, "pipeline", "")()
		return next(ctx, cmds)
	}
}

// startDatastoreSegment starts a segment on the request's transaction and
// returns the func ending it. Outside a transaction it does nothing.
func startDatastoreSegment(ctx context.Context, operation, collection string) func() {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return func() {}
	}
	segment := &newrelic.DatastoreSegment{
		StartTime:  txn.StartSegmentNow(),
		Product:    newrelic.DatastoreRedis,
		Operation:  operation,
		Collection: collection,
	}
	return segment.End
}

// keyNamespace returns the prefix before the first colon of the command's
// key, e.g. "settings" for "settings:target_amount".
func keyNamespace(cmd redis.Cmder) string {
	args := cmd.Args()
	if len(args) < 2 {
		return ""
	}
	key, ok := args[1].(string)
	if !ok {
		return ""
	}
	if ns, _, found := strings.Cut(key, ":"); found {
		return ns
	}
	return key
}
