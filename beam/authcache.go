package beam

import (
	"os"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// authDecisionCache remembers a file-beam-authorization verdict per file
// name for a bounded TTL, so a beam that re-sends the same handful of
// files doesn't re-consult the callback on every send batch. Grounded on
// proxy/stream/m3u8_stream.go's processedSegmentsCache: a
// patrickmn/go-cache instance keyed by segment name with a short TTL and
// a shorter cleanup interval.
type authDecisionCache struct {
	c *gocache.Cache
}

func newAuthDecisionCache(ttl time.Duration) *authDecisionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	cleanup := ttl / 6
	if cleanup <= 0 {
		cleanup = time.Second
	}
	return &authDecisionCache{c: gocache.New(ttl, cleanup)}
}

func (a *authDecisionCache) key(f *os.File) string {
	if f == nil {
		return ""
	}
	return f.Name()
}

func (a *authDecisionCache) get(f *os.File) (bool, bool) {
	v, found := a.c.Get(a.key(f))
	if !found {
		return false, false
	}
	return v.(bool), true
}

func (a *authDecisionCache) set(f *os.File, allowed bool) {
	a.c.Set(a.key(f), allowed, gocache.DefaultExpiration)
}
