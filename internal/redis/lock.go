package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const shiftStartLockKey = "lock:shift:start"

// releaseScript deletes the lock only while it still carries the caller's
// token, so a holder whose lock expired cannot drop a newer holder's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore serialises shift starts across processes.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireShiftStartLock tries to take the shift start lock for ttl. It
// returns the token needed to release it, or ok=false if another caller
// holds it.
func (s *LockStore) AcquireShiftStartLock(ctx context.Context, ttl time.Duration) (token string, ok bool, err error) {
	token = uuid.New().String()
	ok, err = s.client.SetNX(ctx, shiftStartLockKey, token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// ReleaseShiftStartLock releases the lock taken with token. Releasing a lock
// that expired or changed hands is a no-op.
func (s *LockStore) ReleaseShiftStartLock(ctx context.Context, token string) error {
	return releaseScript.Run(ctx, s.client, []string{shiftStartLockKey}, token).Err()
}
