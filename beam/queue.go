package beam

import "container/list"

// chunkQueue is one of the beam's three named sequences (send/hold/purge).
// It's a thin typed wrapper over container/list: the stdlib's
// doubly-linked list is exactly the intrusive ordered sequence supporting
// O(1) append/remove this needs, and nothing in the retrieval pack offers
// a ready-made version of the specific shape this needs (a sequence an
// item can be removed from by identity from the middle, not just the
// head) — see DESIGN.md's standard-library justification.
type chunkQueue struct {
	l *list.List
}

func newChunkQueue() *chunkQueue {
	return &chunkQueue{l: list.New()}
}

func (q *chunkQueue) pushBack(c *Chunk) {
	c.elem = q.l.PushBack(c)
}

func (q *chunkQueue) front() *Chunk {
	e := q.l.Front()
	if e == nil {
		return nil
	}
	return e.Value.(*Chunk)
}

func (q *chunkQueue) popFront() *Chunk {
	e := q.l.Front()
	if e == nil {
		return nil
	}
	q.l.Remove(e)
	c := e.Value.(*Chunk)
	c.elem = nil
	return c
}

// remove detaches c from whichever position it currently occupies in this
// queue. c.elem must belong to this queue's list.
func (q *chunkQueue) remove(c *Chunk) {
	if c.elem == nil {
		return
	}
	q.l.Remove(c.elem)
	c.elem = nil
}

// moveTo transfers c from this queue to dst, preserving FIFO order within
// dst (appended at the back).
func (q *chunkQueue) moveTo(c *Chunk, dst *chunkQueue) {
	q.remove(c)
	dst.pushBack(c)
}

func (q *chunkQueue) len() int { return q.l.Len() }

func (q *chunkQueue) empty() bool { return q.l.Len() == 0 }

// each walks the queue front-to-back, stopping early if fn returns false.
func (q *chunkQueue) each(fn func(*Chunk) bool) {
	for e := q.l.Front(); e != nil; {
		next := e.Next()
		if !fn(e.Value.(*Chunk)) {
			return
		}
		e = next
	}
}

// drain removes and returns every chunk, in order.
func (q *chunkQueue) drain() []*Chunk {
	out := make([]*Chunk, 0, q.l.Len())
	for e := q.l.Front(); e != nil; e = e.Next() {
		c := e.Value.(*Chunk)
		c.elem = nil
		out = append(out, c)
	}
	q.l.Init()
	return out
}
