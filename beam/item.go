package beam

// Item is what Receive hands to the consumer: either a consumer-owned
// Chunk (metadata, file reference, error) or a Proxy borrowing a producer
// chunk's bytes. Exactly one field is set.
type Item struct {
	Chunk *Chunk
	Proxy *Proxy
}

// Len reports the item's byte length for readbytes accounting.
func (i Item) Len() int64 {
	switch {
	case i.Proxy != nil:
		return i.Proxy.Len()
	case i.Chunk != nil:
		return i.Chunk.Len()
	default:
		return 0
	}
}

func (i Item) isEndOfStream() bool {
	return i.Chunk != nil && i.Chunk.Kind == KindMeta && i.Chunk.Meta == MetaEndOfStream
}

func (i Item) empty() bool {
	return i.Chunk == nil && i.Proxy == nil
}

// split divides an item at byte offset `at`, returning head and tail.
// Metadata items (Len()==0) are never split; callers should not offer
// them an `at` inside (0, Len()).
func (i Item) split(at int64) (head, tail Item) {
	if i.Proxy != nil {
		h, t := i.Proxy.Split(at)
		return Item{Proxy: h}, Item{Proxy: t}
	}
	if i.Chunk != nil {
		t := i.Chunk.splitAt(at)
		return Item{Chunk: i.Chunk}, Item{Chunk: t}
	}
	return i, Item{}
}

// Brigade is an ordered batch of items, the consumer-facing counterpart
// of the producer's chunk queues.
type Brigade []Item

// Len sums the byte length of every item in the brigade.
func (br Brigade) Len() int64 {
	var n int64
	for _, it := range br {
		n += it.Len()
	}
	return n
}

// itemBuffer is the consumer-side carry-over queue (recv_buffer): items
// inserted by one Receive call that exceeded that call's readbytes
// budget, to be drained first by the next call.
type itemBuffer struct {
	items []Item
}

func (b *itemBuffer) empty() bool { return len(b.items) == 0 }

func (b *itemBuffer) len() int64 {
	var n int64
	for _, it := range b.items {
		n += it.Len()
	}
	return n
}

func (b *itemBuffer) pushBack(it Item) { b.items = append(b.items, it) }

func (b *itemBuffer) pushFront(it Item) {
	b.items = append([]Item{it}, b.items...)
}

func (b *itemBuffer) popFront() (Item, bool) {
	if len(b.items) == 0 {
		return Item{}, false
	}
	it := b.items[0]
	b.items = b.items[1:]
	return it, true
}
