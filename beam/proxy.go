package beam

import (
	"sync/atomic"
)

// proxyCore is the state a family of split/copied Proxy handles share:
// one refcount, one (possibly nulled) backpointer to the beam, one
// (possibly nulled) backpointer to the producer chunk it borrows from.
//
// Grounded on proxy/client/client.go's StreamClient: a consumer-side
// handle wrapping a producer-side resource with a backpointer, generalized
// here to add the shared refcount and nullable backpointers a
// multi-window proxy needs (StreamClient never outlives its single
// response writer, so it needed neither).
type proxyCore struct {
	refcount int32 // atomic

	beam   atomic.Pointer[Beam]
	source atomic.Pointer[Chunk]

	seq int64
}

// Proxy is a consumer-side refcounted handle standing in for a producer
// chunk. Split and Copy produce independent windows sharing one
// proxyCore; the last Release (however it was reached) detaches the chunk
// into purge.
type Proxy struct {
	core     *proxyCore
	start    int64
	length   int64
	released int32 // atomic
}

func newProxy(b *Beam, src *Chunk, seq int64, start, length int64) *Proxy {
	core := &proxyCore{refcount: 1, seq: seq}
	core.beam.Store(b)
	core.source.Store(src)
	return &Proxy{core: core, start: start, length: length}
}

// Len reports this window's length.
func (p *Proxy) Len() int64 { return p.length }

// Read returns the byte window this proxy names. It fails with
// ErrConnReset once the source chunk has been purged or the beam
// destroyed: a non-nil backpointer reads through to the source chunk,
// a nil one fails immediately.
func (p *Proxy) Read() ([]byte, error) {
	src := p.core.source.Load()
	if src == nil {
		return nil, ErrConnReset
	}
	if src.Data == nil {
		return nil, ErrConnReset
	}
	full := src.Data.Bytes()
	end := p.start + p.length
	if p.start < 0 || end > int64(len(full)) {
		return nil, ErrConnReset
	}
	return full[p.start:end], nil
}

// Copy returns an independent Proxy over the same window, incrementing
// the shared refcount. No data is copied.
func (p *Proxy) Copy() *Proxy {
	atomic.AddInt32(&p.core.refcount, 1)
	return &Proxy{core: p.core, start: p.start, length: p.length}
}

// Split divides this proxy at offset `at` into two independent windows
// sharing the same core and returns both; the receiver must not be used
// afterward (its single reference is consumed by the two halves, net one
// extra reference on the shared refcount).
func (p *Proxy) Split(at int64) (head, tail *Proxy) {
	if at < 0 {
		at = 0
	}
	if at > p.length {
		at = p.length
	}
	atomic.AddInt32(&p.core.refcount, 1)
	head = &Proxy{core: p.core, start: p.start, length: at}
	tail = &Proxy{core: p.core, start: p.start + at, length: p.length - at}
	atomic.StoreInt32(&p.released, 1) // the original handle is spent
	return head, tail
}

// Release decrements the shared refcount. When it reaches zero the proxy
// unlinks itself from the beam's live-proxy set and schedules its source
// chunk (and anything blocking it in hold) into purge. Idempotent: a
// second Release on the same handle is a no-op.
func (p *Proxy) Release() {
	if !atomic.CompareAndSwapInt32(&p.released, 0, 1) {
		return
	}
	if atomic.AddInt32(&p.core.refcount, -1) > 0 {
		return
	}
	if b := p.core.beam.Load(); b != nil {
		b.emitted(p.core)
	}
}
