// Package introspect maintains a read-only, queryable view of the beams
// currently live in a process. It is never authoritative: a beam's own
// lock and queues remain the only source of truth, this package just
// mirrors periodic snapshots for diagnostics and admin tooling.
package introspect

import (
	"time"

	"github.com/cespare/xxhash"
	"github.com/goccy/go-json"
	"github.com/hashicorp/go-memdb"
	"github.com/puzpuzpuz/xsync/v3"

	"h2beam/beam"
)

// Record is one beam's most recently observed state.
type Record struct {
	ID            string
	HashKey       uint64
	SentBytes     int64
	ReceivedBytes int64
	BucketsSent   int64
	FilesBeamed   int64
	SendLen       int
	HoldLen       int
	PurgeLen      int
	LiveProxies   int
	RecvBufferLen int
	Closed        bool
	Aborted       bool
	CloseSent     bool
	Destroyed     bool
	UpdatedAt     time.Time
}

// wireSnapshot mirrors the JSON shape beam.Beam.DumpState produces. It
// stays package-private: introspect reads a beam only through its public
// DumpState surface, never its internals.
type wireSnapshot struct {
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

// Registry tracks every live beam process-wide (grounded on
// database/memdb.go's InitializeMemDB+Concurrency table shape) plus a
// concurrent map of the beams themselves to snapshot on Refresh,
// grounded on the xsync.Map the rest of the retrieval pack reaches for
// in place of sync.Map where hot-path reads dominate.
type Registry struct {
	live *xsync.MapOf[string, *beam.Beam]
	db   *memdb.MemDB
}

// NewRegistry builds an empty registry with its memdb schema: a "beams"
// table keyed uniquely by id, with a non-unique secondary index on
// HashKey (an xxhash.Sum64 of the id) so callers can shard lookups
// without string comparison.
func NewRegistry() (*Registry, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			"beams": {
				Name: "beams",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					"hash": {
						Name:    "hash",
						Unique:  false,
						Indexer: &memdb.UintFieldIndex{Field: "HashKey"},
					},
				},
			},
		},
	}
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, err
	}
	return &Registry{live: xsync.NewMapOf[string, *beam.Beam](), db: db}, nil
}

// Register adds a beam to the live set, keyed by its ID.
func (r *Registry) Register(b *beam.Beam) {
	r.live.Store(b.ID.String(), b)
}

// Unregister drops a beam from both the live set and the memdb table.
func (r *Registry) Unregister(id string) {
	r.live.Delete(id)
	txn := r.db.Txn(true)
	_, _ = txn.DeleteAll("beams", "id", id)
	txn.Commit()
}

// Refresh snapshots every registered beam via its public DumpState and
// upserts the result into the memdb table.
func (r *Registry) Refresh() error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	var firstErr error
	r.live.Range(func(id string, b *beam.Beam) bool {
		raw, err := b.DumpState()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return true
		}
		var snap wireSnapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return true
		}
		rec := &Record{
			ID:            snap.ID,
			HashKey:       xxhash.Sum64([]byte(snap.ID)),
			SentBytes:     snap.SentBytes,
			ReceivedBytes: snap.ReceivedBytes,
			BucketsSent:   snap.BucketsSent,
			FilesBeamed:   snap.FilesBeamed,
			SendLen:       snap.SendLen,
			HoldLen:       snap.HoldLen,
			PurgeLen:      snap.PurgeLen,
			LiveProxies:   snap.LiveProxies,
			RecvBufferLen: snap.RecvBufferLen,
			Closed:        snap.Closed,
			Aborted:       snap.Aborted,
			CloseSent:     snap.CloseSent,
			Destroyed:     snap.Destroyed,
			UpdatedAt:     time.Now(),
		}
		if err := txn.Insert("beams", rec); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})

	txn.Commit()
	return firstErr
}

// Get returns the most recently refreshed record for a beam id.
func (r *Registry) Get(id string) (*Record, bool) {
	txn := r.db.Txn(false)
	defer txn.Abort()
	raw, err := txn.First("beams", "id", id)
	if err != nil || raw == nil {
		return nil, false
	}
	return raw.(*Record), true
}

// List returns every record currently known, in id order.
func (r *Registry) List() ([]*Record, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()
	it, err := txn.Get("beams", "id")
	if err != nil {
		return nil, err
	}
	var out []*Record
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw.(*Record))
	}
	return out, nil
}

// Destroyed reports the live beams whose Destroy has already run, useful
// for the reaper to decide what to unregister next sweep.
func (r *Registry) Destroyed() []string {
	recs, err := r.List()
	if err != nil {
		return nil
	}
	var out []string
	for _, rec := range recs {
		if rec.Destroyed {
			out = append(out, rec.ID)
		}
	}
	return out
}
