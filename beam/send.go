package beam

// Send admits a batch of producer chunks into send, in order, enforcing
// backpressure per Config.MaxBufSize.
func (b *Beam) Send(chunks []*Chunk, mode BlockMode) error {
	pending := append([]*Chunk(nil), chunks...)

	b.lk.Lock()
	mode = b.effectiveMode(mode)
	b.drainPurgeLocked()

	if b.aborted {
		for _, c := range pending {
			b.send.pushBack(c)
		}
		fire := b.fireProducedLocked()
		b.lk.Unlock()
		fire()
		b.cnd.broadcast()
		return ErrAborted
	}

	for len(pending) > 0 {
		c := pending[0]
		pending = pending[1:]

		if c.Kind == KindMeta {
			if c.Meta == MetaEndOfStream {
				b.closed = true
			}
			b.send.pushBack(c)
			continue
		}

		if c.Kind != KindFile {
			for {
				left := b.spaceLeftLocked()
				if left < 0 || c.Len() <= left {
					break
				}
				if left > 0 && left >= b.minSplitLocked() {
					break // admitted partially via split, below
				}

				if mode == NonBlocking {
					fire := b.fireProducedLocked()
					b.lk.Unlock()
					fire()
					return ErrAgain
				}

				fire := b.fireProducedLocked()
				ch := b.cnd.subscribe()
				timeout := b.cfg.Timeout
				b.lk.Unlock()
				fire()

				woke := wait(ch, timeout)

				b.lk.Lock()
				b.drainPurgeLocked()
				if b.aborted {
					b.lk.Unlock()
					return ErrAborted
				}
				if !woke {
					b.lk.Unlock()
					return ErrTimedOut
				}
			}
		}

		if err := b.normalizeLocked(c); err != nil {
			b.lk.Unlock()
			return err
		}

		if c.Kind != KindFile {
			if left := b.spaceLeftLocked(); left >= 0 && c.Len() > left {
				splitAt := left
				if splitAt <= 0 {
					splitAt = 0
				}
				if tail := c.splitAt(splitAt); tail != nil {
					pending = append([]*Chunk{tail}, pending...)
				}
			}
		}

		b.send.pushBack(c)
		b.sentBytes += c.Len()
	}

	fire := b.fireProducedLocked()
	b.lk.Unlock()
	fire()
	b.cnd.broadcast()
	return nil
}

// normalizeLocked converts c into a form safe for the consumer to
// eventually observe. Must be called with the beam lock held.
func (b *Beam) normalizeLocked(c *Chunk) error {
	switch c.Kind {
	case KindBytesBorrowed:
		// Backing storage lives in the producer arena; copy it into a
		// pooled heap buffer so it outlives arena death. The arena's bump
		// allocator has no per-allocation free, so there is nothing to
		// release on the residency side beyond dropping the pointer.
		raw := append([]byte(nil), c.Data.Bytes()...)
		owned := newBytesChunk(raw)
		c.release()
		c.Kind = KindBytesOwned
		c.Data = owned.Data
		c.arenaBacked = false
		c.residency = nil
		return nil

	case KindFile:
		return b.normalizeFileLocked(c)

	default:
		return nil
	}
}

func (b *Beam) normalizeFileLocked(c *Chunk) error {
	if c.File == nil || c.File.File == nil {
		return nil
	}
	f := c.File.File

	if b.lastBeamedFD == f {
		c.File.arena = b.sendArena
		return nil
	}

	allowed, cached := b.authCache.get(f)
	if !cached {
		allowed = b.onFileAuth(b, f)
		b.authCache.set(f, allowed)
	}

	if !allowed {
		raw := make([]byte, c.File.Length)
		n, err := f.ReadAt(raw, c.File.Offset)
		if err != nil && n == 0 {
			return err
		}
		fallback := compressFallbackChunk(raw[:n])
		*c = *fallback
		return nil
	}

	c.File.arena = b.sendArena
	b.lastBeamedFD = f
	return nil
}
