package beam

// effectiveMode demotes Blocking to NonBlocking when the beam has no real
// mutex configured.
func (b *Beam) effectiveMode(mode BlockMode) BlockMode {
	if mode == Blocking {
		if _, lockFree := b.lk.(noopLocker); lockFree {
			return NonBlocking
		}
	}
	return mode
}

// spaceLeftLocked reports how many more bytes send can accept right now.
// Must be called with the beam lock held.
func (b *Beam) spaceLeftLocked() int64 {
	if b.cfg.MaxBufSize <= 0 {
		return -1 // unbounded sentinel
	}
	left := b.cfg.MaxBufSize - b.bufferedLocked()
	if left < 0 {
		return 0
	}
	return left
}

// minSplitLocked reports the smallest head a backpressure split may
// admit, per Config.MinSplitSize, capped at MaxBufSize so a beam whose
// buffer is smaller than the configured minimum can still make progress.
// Must be called with the beam lock held.
func (b *Beam) minSplitLocked() int64 {
	m := b.cfg.MinSplitSize
	if m <= 0 {
		return 0
	}
	if b.cfg.MaxBufSize > 0 && m > b.cfg.MaxBufSize {
		return b.cfg.MaxBufSize
	}
	return m
}

// fireProducedLocked computes the produced-callback delta and invokes the
// hook after releasing the lock (callbacks must never run under it, since
// they may themselves call back into the beam).
func (b *Beam) fireProducedLocked() func() {
	delta := b.sentBytes - b.reportedProducedBytes
	if delta == 0 || b.onProduced == nil {
		b.reportedProducedBytes = b.sentBytes
		return func() {}
	}
	b.reportedProducedBytes = b.sentBytes
	fn := b.onProduced
	return func() { fn(b, delta) }
}

// fireConsumedLocked mirrors fireProducedLocked for received_bytes.
func (b *Beam) fireConsumedLocked() func() {
	delta := b.receivedBytes - b.reportedConsumedBytes
	if delta == 0 || b.onConsumed == nil {
		b.reportedConsumedBytes = b.receivedBytes
		return func() {}
	}
	b.reportedConsumedBytes = b.receivedBytes
	fn := b.onConsumed
	return func() { fn(b, delta) }
}
