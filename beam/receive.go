package beam

// Receive drains at most readbytes bytes (0 = unlimited) into a fresh
// Brigade, draining recv_buffer first and then send.
func (b *Beam) Receive(mode BlockMode, readbytes int64) (Brigade, error) {
	for {
		b.lk.Lock()
		mode = b.effectiveMode(mode)

		if b.aborted {
			b.recvBuf = itemBuffer{}
			b.lk.Unlock()
			return nil, ErrAborted
		}

		var out Brigade
		var budget int64 = readbytes
		unlimited := readbytes <= 0

		drain := func(it Item) bool {
			n := it.Len()
			if !unlimited && n > budget {
				if budget <= 0 {
					b.recvBuf.pushFront(it)
					return false
				}
				head, tail := it.split(budget)
				out = append(out, head)
				b.recvBuf.pushFront(tail)
				budget = 0
				return false
			}
			out = append(out, it)
			if !unlimited {
				budget -= n
			}
			return true
		}

		for {
			it, ok := b.recvBuf.popFront()
			if !ok {
				break
			}
			if !drain(it) {
				break
			}
		}

		if unlimited || budget > 0 {
			for {
				c := b.send.front()
				if c == nil {
					break
				}
				it, consumed := b.materializeHeadLocked(c)
				if !consumed {
					break
				}
				if !drain(it) {
					break
				}
			}
		}

		if b.closed && b.recvBuf.empty() && b.send.empty() && !b.closeSent {
			b.closeSent = true
			out = append(out, Item{Chunk: newMetaChunk(MetaEndOfStream)})
		}

		if len(out) > 0 {
			fire := b.fireConsumedLocked()
			b.lk.Unlock()
			fire()
			b.cnd.broadcast()
			return out, nil
		}

		if b.closed {
			b.lk.Unlock()
			return nil, ErrEOF
		}

		if mode == Blocking {
			ch := b.cnd.subscribe()
			timeout := b.cfg.Timeout
			b.lk.Unlock()
			if !wait(ch, timeout) {
				return nil, ErrTimedOut
			}
			continue
		}

		b.lk.Unlock()
		b.cnd.broadcast()
		return nil, ErrAgain
	}
}

// materializeHeadLocked converts the front of send into a consumer-facing
// Item and advances its residency. Must be called with the beam lock
// held. Returns consumed=false only if nothing could be produced (never
// happens for a non-nil c, but kept symmetrical with send's loop shape).
func (b *Beam) materializeHeadLocked(c *Chunk) (Item, bool) {
	switch c.Kind {
	case KindMeta:
		b.send.popFront()
		if c.Meta == MetaEndOfStream {
			b.closeSent = true
		}
		kind := c.Meta
		dup := newMetaChunk(kind)
		dup.Status = c.Status
		dup.Err = c.Err
		c.unproxied = true
		b.hold.pushBack(c)
		return Item{Chunk: dup}, true

	case KindFile:
		b.send.popFront()
		if c.File != nil && c.File.arena != b.recvArena {
			c.File.arena = b.recvArena
			b.filesBeamed++
		}
		fileCopy := &FileRef{File: c.File.File, Offset: c.File.Offset, Length: c.File.Length, Indeterminate: c.File.Indeterminate, arena: b.recvArena}
		dest := &Chunk{Kind: KindFile, File: fileCopy, Timestamp: c.Timestamp}
		b.hold.pushBack(c)
		return Item{Chunk: dest}, true

	default: // KindBytesOwned / KindBytesBorrowed: the "bytes" branch
		if c.compressed {
			if err := decompressChunkInPlace(c); err != nil {
				b.send.popFront()
				errChunk := newErrorChunk(err, 0)
				c.release()
				return Item{Chunk: errChunk}, true
			}
		}

		if repl, ok := globalBeamers.consult(b, c); ok {
			b.send.popFront()
			c.unproxied = true
			b.hold.pushBack(c)
			return Item{Chunk: repl}, true
		}

		b.send.popFront()
		b.bucketsSent++
		p := newProxy(b, c, b.bucketsSent, 0, c.Len())
		b.proxies[p.core] = struct{}{}
		b.hold.pushBack(c)
		b.receivedBytes += c.Len()
		return Item{Proxy: p}, true
	}
}
