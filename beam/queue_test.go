package beam

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkQueueFIFO(t *testing.T) {
	q := newChunkQueue()
	a := NewBytesChunk([]byte("a"))
	b := NewBytesChunk([]byte("b"))
	c := NewBytesChunk([]byte("c"))

	q.pushBack(a)
	q.pushBack(b)
	q.pushBack(c)
	assert.Equal(t, 3, q.len())

	assert.Same(t, a, q.popFront())
	assert.Same(t, b, q.popFront())
	assert.Same(t, c, q.popFront())
	assert.True(t, q.empty())
	assert.Nil(t, q.popFront())
}

func TestChunkQueueRemoveFromMiddle(t *testing.T) {
	q := newChunkQueue()
	a := NewBytesChunk([]byte("a"))
	b := NewBytesChunk([]byte("b"))
	c := NewBytesChunk([]byte("c"))
	q.pushBack(a)
	q.pushBack(b)
	q.pushBack(c)

	q.remove(b)
	assert.Equal(t, 2, q.len())
	assert.Same(t, a, q.popFront())
	assert.Same(t, c, q.popFront())
}

func TestChunkQueueMoveToPreservesFIFOAtDestination(t *testing.T) {
	src := newChunkQueue()
	dst := newChunkQueue()
	a := NewBytesChunk([]byte("a"))
	b := NewBytesChunk([]byte("b"))
	existing := NewBytesChunk([]byte("x"))
	dst.pushBack(existing)
	src.pushBack(a)
	src.pushBack(b)

	src.moveTo(a, dst)
	assert.Equal(t, 1, src.len())
	assert.Equal(t, 2, dst.len())
	assert.Same(t, existing, dst.popFront())
	assert.Same(t, a, dst.popFront())
}

func TestChunkQueueDrain(t *testing.T) {
	q := newChunkQueue()
	a := NewBytesChunk([]byte("a"))
	b := NewBytesChunk([]byte("b"))
	q.pushBack(a)
	q.pushBack(b)

	out := q.drain()
	assert.Equal(t, []*Chunk{a, b}, out)
	assert.True(t, q.empty())
	assert.Nil(t, a.elem)
	assert.Nil(t, b.elem)
}

func TestChunkQueueEachStopsEarly(t *testing.T) {
	q := newChunkQueue()
	q.pushBack(NewBytesChunk([]byte("a")))
	q.pushBack(NewBytesChunk([]byte("b")))
	q.pushBack(NewBytesChunk([]byte("c")))

	var seen int
	q.each(func(c *Chunk) bool {
		seen++
		return seen < 2
	})
	assert.Equal(t, 2, seen)
}
