package beam

import (
	"container/list"
	"os"
	"time"

	"github.com/valyala/bytebufferpool"
)

// Kind tags which of the four chunk variants a Chunk is.
type Kind int

const (
	// KindBytesOwned is a heap-allocated byte range, freely readable from
	// any thread.
	KindBytesOwned Kind = iota
	// KindBytesBorrowed is backed by storage that lives in the producer
	// arena; readable only from the producer thread until converted or
	// wrapped in a Proxy.
	KindBytesBorrowed
	// KindFile is an open file handle plus offset/length.
	KindFile
	// KindMeta carries no user data: end-of-stream, flush, or an error
	// status.
	KindMeta
)

// MetaKind distinguishes the three metadata markers.
type MetaKind int

const (
	MetaNone MetaKind = iota
	MetaFlush
	MetaEndOfStream
	MetaError
)

// FileRef is an open file handle plus the byte window a Chunk transports.
type FileRef struct {
	File   *os.File
	Offset int64
	Length int64
	// Indeterminate marks a file chunk whose length isn't known up front.
	Indeterminate bool
	// arena is the arena the file's read handle is currently registered
	// against; setaside re-homes it.
	arena *Arena
}

// Chunk is the beam's transportable unit. Exactly one of Data or File
// is populated, depending on Kind; Meta chunks populate neither.
type Chunk struct {
	Kind Kind
	Meta MetaKind

	// Data backs KindBytesOwned and (while still in the producer arena)
	// KindBytesBorrowed. Pooled via bytebufferpool, the same way
	// proxy/stream/buffer/coordinator.go pools its ChunkData.
	Data *bytebufferpool.ByteBuffer
	File *FileRef

	// Status carries an error-metadata chunk's status code.
	Status int
	Err    error

	Timestamp time.Time

	// seq is not assigned anywhere in this package; a proxy's sequence
	// number comes from the beam's buckets_sent counter at receive time
	// (see receive.go's materializeHeadLocked).
	seq int64

	// residency is non-nil only for KindBytesBorrowed: the arena whose
	// thread may safely read Data directly.
	residency *Arena

	// elem links this chunk into whichever of send/hold/purge currently
	// owns it.
	elem *list.Element

	// compressed and origLen support the file-beam-authorization fallback
	// path (see compress.go): when a file handle is refused, its content
	// is read into memory and zstd-compressed while it sits in send/hold,
	// and origLen preserves the true byte count for flow-control
	// accounting until it's decompressed again on the way out in
	// receive.go.
	compressed bool
	origLen    int64

	// arenaBacked marks a KindBytesBorrowed chunk whose Data.B points
	// directly into its residency arena's mapped region rather than a
	// bytebufferpool-owned slice; release() must not return it to the pool.
	arenaBacked bool

	// unproxied marks a hold entry that will never have a Proxy created
	// over it (a metadata chunk whose duplicate went to the consumer, or
	// the original behind a beamer replacement): nothing will ever call emitted() naming this chunk as
	// its source, so emitted's hold sweep frees these opportunistically
	// whenever it walks hold for some other chunk's release.
	unproxied bool
}

// Len reports the chunk's transport length for flow-control accounting.
// Metadata and indeterminate-length file chunks report 0.
func (c *Chunk) Len() int64 {
	switch c.Kind {
	case KindBytesOwned, KindBytesBorrowed:
		if c.compressed {
			return c.origLen
		}
		if c.Data == nil {
			return 0
		}
		return int64(c.Data.Len())
	case KindFile:
		if c.File == nil || c.File.Indeterminate {
			return 0
		}
		return c.File.Length
	default:
		return 0
	}
}

// NewBytesChunk allocates an owned-bytes chunk from b, suitable for
// passing straight to Beam.Send.
func NewBytesChunk(b []byte) *Chunk { return newBytesChunk(b) }

// NewFlushChunk builds a flush marker chunk.
func NewFlushChunk() *Chunk { return newMetaChunk(MetaFlush) }

// NewEndOfStreamChunk builds an end-of-stream marker chunk.
func NewEndOfStreamChunk() *Chunk { return newMetaChunk(MetaEndOfStream) }

// NewFileChunk builds a file-reference chunk for the given handle and
// byte window.
func NewFileChunk(f *os.File, offset, length int64) *Chunk {
	return &Chunk{Kind: KindFile, File: &FileRef{File: f, Offset: offset, Length: length}, Timestamp: time.Now()}
}

// NewBorrowedChunk copies b into arena-owned storage and wraps it as a
// bytes-borrowed-from-producer chunk: readable only from the producer
// thread until Send's normalization step converts it to bytes-owned.
func NewBorrowedChunk(a *Arena, b []byte) (*Chunk, error) {
	dst, ok := a.alloc(len(b))
	if !ok {
		return nil, ErrOutOfMemory
	}
	copy(dst, b)
	buf := &bytebufferpool.ByteBuffer{B: dst}
	return &Chunk{Kind: KindBytesBorrowed, Data: buf, residency: a, Timestamp: time.Now(), arenaBacked: true}, nil
}

// newBytesChunk allocates an owned-bytes chunk from the pool and copies b
// into it, mirroring proxy/stream/buffer/coordinator.go's newChunkData +
// Buffer.Write pattern.
func newBytesChunk(b []byte) *Chunk {
	buf := bytebufferpool.Get()
	_, _ = buf.Write(b)
	return &Chunk{Kind: KindBytesOwned, Data: buf, Timestamp: time.Now()}
}

func newMetaChunk(kind MetaKind) *Chunk {
	return &Chunk{Kind: KindMeta, Meta: kind, Timestamp: time.Now()}
}

func newErrorChunk(err error, status int) *Chunk {
	return &Chunk{Kind: KindMeta, Meta: MetaError, Err: err, Status: status, Timestamp: time.Now()}
}

// release returns a chunk's pooled buffer, mirroring ChunkData.Reset.
// Safe to call on any Kind; it is a no-op for File and Meta chunks.
func (c *Chunk) release() {
	if c.Data != nil {
		if !c.arenaBacked {
			c.Data.Reset()
			bytebufferpool.Put(c.Data)
		}
		c.Data = nil
	}
}

// splitAt splits an owned-bytes chunk into [0,at) and [at,len). The
// receiver keeps the head; the returned chunk is the tail, a fresh
// pooled buffer split at the exact remaining budget.
func (c *Chunk) splitAt(at int64) *Chunk {
	if c.Kind != KindBytesOwned && c.Kind != KindBytesBorrowed {
		return nil
	}
	full := c.Data.Bytes()
	if at < 0 {
		at = 0
	}
	if at > int64(len(full)) {
		at = int64(len(full))
	}
	tail := &Chunk{Kind: c.Kind, Timestamp: c.Timestamp, residency: c.residency}
	tail.Data = bytebufferpool.Get()
	_, _ = tail.Data.Write(full[at:])

	head := bytebufferpool.Get()
	_, _ = head.Write(full[:at])
	if !c.arenaBacked {
		c.Data.Reset()
		bytebufferpool.Put(c.Data)
	}
	c.Data = head
	c.arenaBacked = false

	return tail
}
