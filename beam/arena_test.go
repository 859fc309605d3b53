package beam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaAllocBumpsOffset(t *testing.T) {
	a, err := NewArena(64, nil)
	require.NoError(t, err)
	defer a.Kill()

	b1, ok := a.alloc(10)
	require.True(t, ok)
	assert.Len(t, b1, 10)

	b2, ok := a.alloc(10)
	require.True(t, ok)
	assert.Len(t, b2, 10)

	// Distinct windows into the same mapping.
	b1[0] = 1
	assert.NotEqual(t, b1[0], b2[0])
}

func TestArenaAllocFailsAfterKill(t *testing.T) {
	a, err := NewArena(64, nil)
	require.NoError(t, err)
	a.Kill()

	_, ok := a.alloc(1)
	assert.False(t, ok)
}

func TestArenaKillRunsPreCleanupHooksInOrder(t *testing.T) {
	a, err := NewArena(64, nil)
	require.NoError(t, err)

	var order []int
	a.RegisterPreCleanup(func() { order = append(order, 1) })
	a.RegisterPreCleanup(func() { order = append(order, 2) })

	a.Kill()
	assert.Equal(t, []int{1, 2}, order)
}

func TestArenaRegisterPreCleanupAfterDeathFiresImmediately(t *testing.T) {
	a, err := NewArena(64, nil)
	require.NoError(t, err)
	a.Kill()

	fired := false
	a.RegisterPreCleanup(func() { fired = true })
	assert.True(t, fired)
}

func TestArenaKillIsIdempotent(t *testing.T) {
	a, err := NewArena(64, nil)
	require.NoError(t, err)

	calls := 0
	a.RegisterPreCleanup(func() { calls++ })
	a.Kill()
	a.Kill()
	assert.Equal(t, 1, calls)
}

func TestArenaUnregisterAllDropsHooks(t *testing.T) {
	a, err := NewArena(64, nil)
	require.NoError(t, err)

	fired := false
	a.RegisterPreCleanup(func() { fired = true })
	a.UnregisterAll()
	a.Kill()
	assert.False(t, fired)
}
