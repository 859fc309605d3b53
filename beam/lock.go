package beam

import (
	"context"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Locker is the beam's lock-acquire hook. It is not owned by the beam,
// so many beams can share one mutex. A nil Locker puts the beam in a
// lock-free, single-threaded mode where blocking calls silently degrade
// to non-blocking ones.
type Locker interface {
	Lock()
	Unlock()
}

// noopLocker is the null object for the lock-free case. Blocking mode
// requires a condition variable AND a mutex; a beam whose Locker is
// a noopLocker has no mutex, so Send/Receive treat Blocking like
// NonBlocking rather than hang on a wait nothing will ever satisfy.
type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// localLocker is the default Locker: a single in-process mutex, created
// fresh per beam unless the caller wires a shared one via SetMutex.
type localLocker struct {
	mu sync.Mutex
}

func (l *localLocker) Lock()   { l.mu.Lock() }
func (l *localLocker) Unlock() { l.mu.Unlock() }

// RedisLocker implements Locker on top of a distributed Redis lock
// (github.com/redis/go-redis/v9 + github.com/bsm/redislock), grounded on
// database/redis.go's InitializeRedis. "Many beams share one mutex" can
// mean many beams *running in different processes* coordinate through
// one named lock, e.g. when a connection's streams are sharded across
// worker processes.
//
// Lock blocks, retrying at a fixed 50ms interval, until the distributed
// lock is acquired;
// sync.Locker has no way to report failure, so a Redis outage manifests as
// Lock blocking indefinitely rather than returning an error. Callers that
// need bounded waiting should not use RedisLocker as the sole lock for a
// beam configured with a Timeout shorter than their Redis retry budget.
type RedisLocker struct {
	client *redislock.Client
	key    string
	ttl    time.Duration

	mu  sync.Mutex
	tok *redislock.Lock
}

// NewRedisLocker builds a Locker backed by a Redis instance, keyed by name
// (typically the owning HTTP/2 connection's id) so every beam belonging to
// that connection contends for the same distributed lock.
func NewRedisLocker(rdb *redis.Client, name string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{client: redislock.New(rdb), key: "h2beam:lock:" + name, ttl: ttl}
}

func (r *RedisLocker) Lock() {
	backoff := redislock.LinearBackoff(50 * time.Millisecond)
	for {
		tok, err := r.client.Obtain(context.Background(), r.key, r.ttl, &redislock.Options{RetryStrategy: backoff})
		if err == nil {
			// r.mu stays held across the critical section; Unlock releases
			// both it and the distributed token together.
			r.mu.Lock()
			r.tok = tok
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func (r *RedisLocker) Unlock() {
	tok := r.tok
	r.tok = nil
	r.mu.Unlock()
	if tok != nil {
		_ = tok.Release(context.Background())
	}
}
