package beam

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestLocalLockerExcludesConcurrentAccess(t *testing.T) {
	l := &localLocker{}
	l.Lock()
	locked := make(chan struct{})
	go func() {
		l.Lock()
		close(locked)
		l.Unlock()
	}()

	select {
	case <-locked:
		t.Fatal("second Lock() should have blocked while the first is held")
	default:
	}
	l.Unlock()
	<-locked
}

func TestNoopLockerNeverBlocks(t *testing.T) {
	var l noopLocker
	l.Lock()
	l.Lock() // must not deadlock; it's a null object
	l.Unlock()
	l.Unlock()
}

func TestNewRedisLockerSetsKeyAndTTL(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()

	rl := NewRedisLocker(rdb, "conn-42", 0)
	assert.Equal(t, "h2beam:lock:conn-42", rl.key)
	assert.Equal(t, 10*time.Second, rl.ttl)
}
