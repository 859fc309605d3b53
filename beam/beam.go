package beam

import (
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"h2beam/logger"
)

// ProducedCallback fires when sent_bytes advances: at the end of a send
// batch and before every backpressure wait.
type ProducedCallback func(b *Beam, delta int64)

// ConsumedCallback fires when received_bytes advances: on close, on
// abort, and at the end of every receive call that transferred anything.
type ConsumedCallback func(b *Beam, delta int64)

// FileAuthCallback is consulted at most once per distinct file handle
// per send stream; false forces the fallback read-and-copy path.
type FileAuthCallback func(b *Beam, f *os.File) bool

func defaultFileAuth(*Beam, *os.File) bool { return false }

// Beam is the shared producer/consumer pipe.
type Beam struct {
	ID uuid.UUID

	lk  Locker
	cnd *cond

	log logger.Logger
	cfg Config

	owner Owner

	ownArena  *Arena
	sendArena *Arena
	recvArena *Arena

	send  *chunkQueue
	hold  *chunkQueue
	purge *chunkQueue

	recvBuf itemBuffer

	proxies map[*proxyCore]struct{}

	sentBytes             int64
	receivedBytes         int64
	reportedProducedBytes int64
	reportedConsumedBytes int64
	bucketsSent           int64
	filesBeamed           int64
	lastBeamedFD          *os.File

	closed    bool
	aborted   bool
	closeSent bool
	destroyed bool

	onConsumed ConsumedCallback
	onProduced ProducedCallback
	onFileAuth FileAuthCallback

	// onBookkeepingError, if set, is invoked instead of just logging when
	// the emitted-notification path can't find its source chunk in hold.
	// See DESIGN.md for the stricter-vs-lenient tradeoff this resolves.
	onBookkeepingError func(err error)

	authCache *authDecisionCache
}

// NewBeam allocates a beam from ownArena. Per ownership rules, ownArena's
// death unconditionally destroys the beam.
func NewBeam(owner Owner, ownArena *Arena, cfg *Config, log logger.Logger) *Beam {
	if log == nil {
		log = logger.Default
	}
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	b := &Beam{
		ID:         uuid.New(),
		lk:         &localLocker{},
		cnd:        newCond(),
		log:        log,
		cfg:        *cfg,
		owner:      owner,
		ownArena:   ownArena,
		send:       newChunkQueue(),
		hold:       newChunkQueue(),
		purge:      newChunkQueue(),
		proxies:    make(map[*proxyCore]struct{}),
		onFileAuth: defaultFileAuth,
		authCache:  newAuthDecisionCache(cfg.AuthCacheTTL),
	}
	if ownArena != nil {
		ownArena.RegisterPreCleanup(func() { b.Destroy() })
	}
	return b
}

// BindSendArena (re)binds the producer's current arena, arming the
// foreign-arena-death monitor when the consumer owns this beam: that
// arena's death only detaches what it backed (detachSendArena), it does
// not destroy the beam the way this beam's own arena dying does.
func (b *Beam) BindSendArena(a *Arena) {
	b.lk.Lock()
	b.sendArena = a
	b.lk.Unlock()
	if a != nil && b.owner == OwnerConsumer {
		a.RegisterPreCleanup(b.detachSendArena)
	}
}

// BindRecvArena (re)binds the consumer's current arena, arming the
// foreign-arena-death monitor when the producer owns this beam: that
// arena's death only clears the backpointer (detachRecvArena), it does
// not destroy the beam the way this beam's own arena dying does.
func (b *Beam) BindRecvArena(a *Arena) {
	b.lk.Lock()
	b.recvArena = a
	b.lk.Unlock()
	if a != nil && b.owner == OwnerProducer {
		a.RegisterPreCleanup(b.detachRecvArena)
	}
}

// SetMutex installs a shared Locker, letting several beams contend on one
// lock (per-connection granularity instead of per-stream). Passing nil
// puts the beam into lock-free, single-threaded mode.
func (b *Beam) SetMutex(l Locker) {
	if l == nil {
		l = noopLocker{}
	}
	b.lk.Lock()
	b.lk = l
	b.lk.Unlock()
}

// OnConsumed installs the consumed-callback hook.
func (b *Beam) OnConsumed(fn ConsumedCallback) {
	b.lk.Lock()
	b.onConsumed = fn
	b.lk.Unlock()
}

// OnProduced installs the produced-callback hook.
func (b *Beam) OnProduced(fn ProducedCallback) {
	b.lk.Lock()
	b.onProduced = fn
	b.lk.Unlock()
}

// OnFileBeam installs the file-beam-authorization callback. A nil fn
// restores the always-refuse default.
func (b *Beam) OnFileBeam(fn FileAuthCallback) {
	b.lk.Lock()
	if fn == nil {
		fn = defaultFileAuth
	}
	b.onFileAuth = fn
	b.lk.Unlock()
}

// SetBufferSize changes max_buf_size (0 = unbounded).
func (b *Beam) SetBufferSize(n int64) {
	b.lk.Lock()
	b.cfg.MaxBufSize = n
	b.lk.Unlock()
	b.cnd.broadcast()
}

// GetBufferSize reports max_buf_size.
func (b *Beam) GetBufferSize() int64 {
	b.lk.Lock()
	defer b.lk.Unlock()
	return b.cfg.MaxBufSize
}

// SetTimeout changes the blocking-wait timeout (0 = untimed).
func (b *Beam) SetTimeout(d time.Duration) {
	b.lk.Lock()
	b.cfg.Timeout = d
	b.lk.Unlock()
}

// GetTimeout reports the blocking-wait timeout.
func (b *Beam) GetTimeout() time.Duration {
	b.lk.Lock()
	defer b.lk.Unlock()
	return b.cfg.Timeout
}

// GetBuffered reports buffered-size: the sum of lengths of chunks
// currently sitting in send, excluding file chunks and chunks of
// indeterminate length.
func (b *Beam) GetBuffered() int64 {
	b.lk.Lock()
	defer b.lk.Unlock()
	return b.bufferedLocked()
}

func (b *Beam) bufferedLocked() int64 {
	var n int64
	b.send.each(func(c *Chunk) bool {
		if c.Kind == KindFile {
			return true
		}
		n += c.Len()
		return true
	})
	return n
}

// GetMemUsed approximates memory held by this beam: buffered bytes in
// send plus whatever the consumer hasn't yet drained from recv_buffer.
func (b *Beam) GetMemUsed() int64 {
	b.lk.Lock()
	defer b.lk.Unlock()
	return b.bufferedLocked() + b.recvBuf.len()
}

// IsEmpty reports whether send is empty and no proxies are live.
func (b *Beam) IsEmpty() bool {
	b.lk.Lock()
	defer b.lk.Unlock()
	return b.send.empty() && len(b.proxies) == 0
}

// HoldsProxies reports whether the beam currently has live proxies.
func (b *Beam) HoldsProxies() bool {
	b.lk.Lock()
	defer b.lk.Unlock()
	return len(b.proxies) > 0
}

// WasReceived reports whether received_bytes has advanced at all.
func (b *Beam) WasReceived() bool {
	b.lk.Lock()
	defer b.lk.Unlock()
	return b.receivedBytes > 0
}

// GetFilesBeamed reports how many file chunks have been re-homed into
// the consumer arena.
func (b *Beam) GetFilesBeamed() int64 {
	b.lk.Lock()
	defer b.lk.Unlock()
	return b.filesBeamed
}

// stateSnapshot is the shape returned by DumpState, serialized with
// goccy/go-json for low-overhead diagnostic dumps (see beam/introspect
// for the live, queryable counterpart).
type stateSnapshot struct {
	ID            string `json:"id"`
	SentBytes     int64  `json:"sent_bytes"`
	ReceivedBytes int64  `json:"received_bytes"`
	BucketsSent   int64  `json:"buckets_sent"`
	FilesBeamed   int64  `json:"files_beamed"`
	SendLen       int    `json:"send_len"`
	HoldLen       int    `json:"hold_len"`
	PurgeLen      int    `json:"purge_len"`
	LiveProxies   int    `json:"live_proxies"`
	RecvBufferLen int    `json:"recv_buffer_len"`
	Closed        bool   `json:"closed"`
	Aborted       bool   `json:"aborted"`
	CloseSent     bool   `json:"close_sent"`
	Destroyed     bool   `json:"destroyed"`
}

// DumpState renders a point-in-time diagnostic snapshot of the beam as
// JSON, using goccy/go-json rather than encoding/json for the faster
// marshal path (this can be called on a hot diagnostics/debug endpoint).
func (b *Beam) DumpState() ([]byte, error) {
	return json.Marshal(b.snapshot())
}

func (b *Beam) snapshot() stateSnapshot {
	b.lk.Lock()
	defer b.lk.Unlock()
	return stateSnapshot{
		ID:            b.ID.String(),
		SentBytes:     b.sentBytes,
		ReceivedBytes: b.receivedBytes,
		BucketsSent:   b.bucketsSent,
		FilesBeamed:   b.filesBeamed,
		SendLen:       b.send.len(),
		HoldLen:       b.hold.len(),
		PurgeLen:      b.purge.len(),
		LiveProxies:   len(b.proxies),
		RecvBufferLen: len(b.recvBuf.items),
		Closed:        b.closed,
		Aborted:       b.aborted,
		CloseSent:     b.closeSent,
		Destroyed:     b.destroyed,
	}
}

