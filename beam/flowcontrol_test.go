package beam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveModeDemotesBlockingWithoutMutex(t *testing.T) {
	b := NewBeam(OwnerConsumer, nil, nil, nil)
	b.SetMutex(nil)
	assert.Equal(t, NonBlocking, b.effectiveMode(Blocking))
	assert.Equal(t, NonBlocking, b.effectiveMode(NonBlocking))
}

func TestEffectiveModeKeepsBlockingWithRealMutex(t *testing.T) {
	b := NewBeam(OwnerConsumer, nil, nil, nil)
	assert.Equal(t, Blocking, b.effectiveMode(Blocking))
}

func TestSendDoesNotHangWithNoopLocker(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.MaxBufSize = 2
	b := NewBeam(OwnerConsumer, nil, cfg, nil)
	b.SetMutex(nil)

	// Blocking is silently demoted, so a Send that can't fit returns
	// ErrAgain instead of hanging forever waiting on a cond no one can
	// ever signal (there is no mutex backing the wait).
	err := b.Send([]*Chunk{NewBytesChunk([]byte("abc"))}, Blocking)
	assert.Equal(t, int64(2), b.GetBuffered())
	require.ErrorIs(t, err, ErrAgain)
}
