package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker hands out short leases so a job runs on one replica at a time.
type RedisLocker struct {
	rdb *redis.Client
}

func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb}
}

// TryLock acquires key for ttl. ok is false when another holder owns it.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error) {
	token := uuid.NewString()
	ok, err = l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return func() {}, false, err
	}
	return func() {
		_ = releaseScript.Run(context.Background(), l.rdb, []string{key}, token).Err()
	}, true, nil
}

// MarkOnce reports true the first time key is seen within ttl.
func (l *RedisLocker) MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, key, "1", ttl).Result()
}

// LocalLocker is the in-process fallback used without Redis.
type LocalLocker struct {
	mu   sync.Mutex
	keys map[string]time.Time
	now  func() time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{keys: make(map[string]time.Time), now: time.Now}
}

func (l *LocalLocker) TryLock(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if !l.claim(key, ttl) {
		return func() {}, false, nil
	}
	return func() {
		l.mu.Lock()
		delete(l.keys, key)
		l.mu.Unlock()
	}, true, nil
}

func (l *LocalLocker) MarkOnce(_ context.Context, key string, ttl time.Duration) (bool, error) {
	return l.claim(key, ttl), nil
}

func (l *LocalLocker) claim(key string, ttl time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if exp, ok := l.keys[key]; ok && now.Before(exp) {
		return false
	}
	l.keys[key] = now.Add(ttl)
	return true
}
