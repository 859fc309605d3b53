package beam

// emitted runs the beam side of a proxy reaching refcount zero.
// Called by Proxy.Release without the beam lock held; it takes the lock
// itself.
func (b *Beam) emitted(core *proxyCore) {
	b.lk.Lock()

	delete(b.proxies, core)

	src := core.source.Load()
	if src != nil {
		found := false
		// Walk the whole of hold rather than stopping at src: a chunk's
		// trailing metadata (pushed right after it, e.g. an end-of-stream
		// marker) and any beamer-replaced chunk sitting unproxied
		// elsewhere in hold never get a proxy release of their own to
		// trigger their sweep, so every release opportunistically sweeps
		// all of them alongside its own source chunk.
		b.hold.each(func(c *Chunk) bool {
			if c == src {
				found = true
				b.hold.moveTo(c, b.purge)
				return true
			}
			if c.unproxied {
				b.hold.moveTo(c, b.purge)
			}
			return true
		})
		if !found {
			b.log.Warnf("beam %s: emitted chunk not found in hold (fingerprint %s)", b.ID, fingerprint(src))
			if src.elem == nil {
				b.purge.pushBack(src)
			}
			if b.onBookkeepingError != nil {
				b.onBookkeepingError(ErrBookkeeping)
			}
		}
	}

	producerAlive := b.sendArena == nil || b.sendArena.Alive()
	if producerAlive {
		b.lk.Unlock()
		b.cnd.broadcast()
		return
	}
	b.drainPurgeLocked()
	b.lk.Unlock()
}

// DrainPurge frees everything currently waiting in purge. Safe to call
// from outside the producer's own Send/Close path, e.g. from the reaper
// subpackage's scheduled sweep.
func (b *Beam) DrainPurge() {
	b.lk.Lock()
	b.drainPurgeLocked()
	b.lk.Unlock()
}

// drainPurgeLocked frees everything waiting in purge. Invoked from Send
// or Close, both producer-side operations, plus the reaper's scheduled
// sweep. Must be called with the beam lock held.
func (b *Beam) drainPurgeLocked() {
	for _, c := range b.purge.drain() {
		c.release()
		if c.Kind == KindFile && c.File != nil && c.File.File != nil {
			_ = c.File.File.Close()
		}
	}
}
