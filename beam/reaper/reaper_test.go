package reaper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"h2beam/beam"
)

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New("not a cron schedule", nil)
	assert.Error(t, err)
}

func TestWatchForgetTrackSet(t *testing.T) {
	r, err := New("@every 1h", nil)
	require.NoError(t, err)

	b := beam.NewBeam(beam.OwnerConsumer, nil, nil, nil)
	r.Watch(b)

	r.mu.Lock()
	_, tracked := r.beams[b.ID.String()]
	r.mu.Unlock()
	assert.True(t, tracked)

	r.Forget(b.ID.String())
	r.mu.Lock()
	_, tracked = r.beams[b.ID.String()]
	r.mu.Unlock()
	assert.False(t, tracked)
}

func TestSweepDrainsPurgeForWatchedBeams(t *testing.T) {
	r, err := New("@every 1h", nil)
	require.NoError(t, err)

	b := beam.NewBeam(beam.OwnerConsumer, nil, nil, nil)
	require.NoError(t, b.Send([]*beam.Chunk{beam.NewBytesChunk([]byte("x"))}, beam.Blocking))
	br, err := b.Receive(beam.NonBlocking, 0)
	require.NoError(t, err)
	require.Len(t, br, 1)
	br[0].Proxy.Release()

	raw, err := b.DumpState()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"purge_len":1`)

	r.Watch(b)
	r.sweep()

	raw, err = b.DumpState()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"purge_len":0`)
}

func TestStartStopDoesNotPanic(t *testing.T) {
	r, err := New("@every 1h", nil)
	require.NoError(t, err)
	r.Start()
	time.Sleep(5 * time.Millisecond)
	r.Stop()
}
