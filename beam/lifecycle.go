package beam

// Close marks the beam closed: no more data will be sent. Idempotent.
// Does not touch send; anything already admitted is still delivered.
func (b *Beam) Close() {
	b.lk.Lock()
	if b.closed {
		b.lk.Unlock()
		return
	}
	b.closed = true
	b.drainPurgeLocked()
	fire := b.fireConsumedLocked()
	b.lk.Unlock()

	fire()
	b.cnd.broadcast()
}

// Abort marks the beam aborted: every subsequent Send/Receive fails with
// ErrAborted. Idempotent; abort-then-close and close-then-abort both
// behave as abort.
func (b *Beam) Abort() {
	b.lk.Lock()
	if b.aborted {
		b.lk.Unlock()
		return
	}
	b.aborted = true
	b.closed = true
	b.drainPurgeLocked()
	for _, c := range b.send.drain() {
		c.release()
	}
	fire := b.fireConsumedLocked()
	b.lk.Unlock()

	fire()
	b.cnd.broadcast()
}

// Aborted reports whether Abort has been observed.
func (b *Beam) Aborted() bool {
	b.lk.Lock()
	defer b.lk.Unlock()
	return b.aborted
}

// WaitEmpty blocks (in Blocking mode) until send is empty and no proxies
// are live, or returns ErrAgain immediately in NonBlocking mode.
func (b *Beam) WaitEmpty(mode BlockMode) error {
	for {
		b.lk.Lock()
		mode = b.effectiveMode(mode)
		if b.aborted {
			b.lk.Unlock()
			return ErrAborted
		}
		if b.send.empty() && len(b.proxies) == 0 {
			b.lk.Unlock()
			return nil
		}
		if mode == NonBlocking {
			b.lk.Unlock()
			return ErrAgain
		}
		ch := b.cnd.subscribe()
		timeout := b.cfg.Timeout
		b.lk.Unlock()

		if !wait(ch, timeout) {
			return ErrTimedOut
		}
	}
}

// Destroy tears the beam down. Idempotent. Ownership determines which
// side's cleanup runs synchronously versus is assumed already quiesced.
func (b *Beam) Destroy() {
	b.lk.Lock()
	if b.destroyed {
		b.lk.Unlock()
		return
	}
	b.destroyed = true

	if b.ownArena != nil {
		b.ownArena.UnregisterAll()
	}

	switch b.owner {
	case OwnerProducer:
		b.producerCleanupLocked()
		b.recvBuf = itemBuffer{}
		b.recvArena = nil
	case OwnerConsumer:
		b.recvBuf = itemBuffer{}
		// producerCleanupLocked is idempotent, so it runs unconditionally
		// here regardless of whether the producer's (foreign) arena ever
		// died on its own and already ran detachSendArena: no dangling
		// proxy may survive Destroy, on either path.
		b.producerCleanupLocked()
	}

	b.lk.Unlock()
}

// producerCleanupLocked frees send/hold/purge and detaches every live
// proxy so the consumer observes ErrConnReset on its next read. Must be
// called with the beam lock held.
func (b *Beam) producerCleanupLocked() {
	for _, c := range b.send.drain() {
		c.release()
	}
	for _, c := range b.hold.drain() {
		c.release()
	}
	b.drainPurgeLocked()

	for core := range b.proxies {
		core.beam.Store(nil)
		core.source.Store(nil)
		delete(b.proxies, core)
	}
}

// detachSendArena runs when the producer's arena dies while this beam is
// consumer-owned. That arena is not this beam's own, so its death does
// not destroy the beam the way ownArena's death does — it only clears
// every reference into the now-unmapped memory: every queued chunk
// backed by it is released and every live proxy is detached, so the
// consumer observes ErrConnReset on read instead of reading freed
// memory. The beam itself stays usable; Destroy still runs later,
// through whichever side owns it.
func (b *Beam) detachSendArena() {
	b.lk.Lock()
	b.producerCleanupLocked()
	b.lk.Unlock()
	b.cnd.broadcast()
}

// detachRecvArena runs when the consumer's arena dies while this beam is
// producer-owned. Symmetric to detachSendArena, but lighter: recvArena
// only tags where Receive re-homes file copies (receive.go's
// materializeHeadLocked), nothing reads borrowed bytes through it, so
// clearing the backpointer is enough to stop new Receives from tagging
// copies with a dead arena.
func (b *Beam) detachRecvArena() {
	b.lk.Lock()
	b.recvArena = nil
	b.lk.Unlock()
}
