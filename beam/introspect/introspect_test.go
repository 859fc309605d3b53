package introspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"h2beam/beam"
)

func TestRegistryRefreshAndGet(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	b := beam.NewBeam(beam.OwnerConsumer, nil, nil, nil)
	require.NoError(t, b.Send([]*beam.Chunk{beam.NewBytesChunk([]byte("abc"))}, beam.Blocking))
	r.Register(b)

	require.NoError(t, r.Refresh())

	rec, ok := r.Get(b.ID.String())
	require.True(t, ok)
	assert.Equal(t, int64(3), rec.SentBytes)
	assert.Equal(t, 1, rec.SendLen)
	assert.False(t, rec.Destroyed)
}

func TestRegistryUnregisterRemovesRecord(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	b := beam.NewBeam(beam.OwnerConsumer, nil, nil, nil)
	r.Register(b)
	require.NoError(t, r.Refresh())

	_, ok := r.Get(b.ID.String())
	require.True(t, ok)

	r.Unregister(b.ID.String())
	_, ok = r.Get(b.ID.String())
	assert.False(t, ok)
}

func TestRegistryListReturnsAllRecords(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	b1 := beam.NewBeam(beam.OwnerConsumer, nil, nil, nil)
	b2 := beam.NewBeam(beam.OwnerConsumer, nil, nil, nil)
	r.Register(b1)
	r.Register(b2)
	require.NoError(t, r.Refresh())

	recs, err := r.List()
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestRegistryDestroyedFiltersToDestroyedBeams(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	live := beam.NewBeam(beam.OwnerProducer, nil, nil, nil)
	dead := beam.NewBeam(beam.OwnerProducer, nil, nil, nil)
	dead.Destroy()

	r.Register(live)
	r.Register(dead)
	require.NoError(t, r.Refresh())

	ids := r.Destroyed()
	assert.Equal(t, []string{dead.ID.String()}, ids)
}

func TestRegistryGetMissingReturnsFalse(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	_, ok := r.Get("nonexistent")
	assert.False(t, ok)
}
