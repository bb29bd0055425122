package rolling

import "container/list"

// authorTable is a bounded author -> running count mapping with
// least-recently-updated eviction: when a new author arrives at capacity,
// the author whose entry was updated longest ago is dropped. This is
// deliberately recency-based, unlike the FIFO windows, so chatty authors
// survive bursts of one-off authors. Not goroutine-safe; the owning Store
// serializes access.
type authorTable struct {
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = most recently updated
}

type authorEntry struct {
	name  string
	count int64
}

func newAuthorTable(capacity int) *authorTable {
	return &authorTable{
		capacity: capacity,
		entries:  make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// touch increments the author's running count, refreshing its recency.
// A new author at capacity evicts the least-recently-updated entry first.
func (t *authorTable) touch(author string) {
	if el, ok := t.entries[author]; ok {
		el.Value.(*authorEntry).count++
		t.order.MoveToFront(el)
		return
	}

	if t.order.Len() >= t.capacity {
		oldest := t.order.Back()
		t.order.Remove(oldest)
		delete(t.entries, oldest.Value.(*authorEntry).name)
	}

	t.entries[author] = t.order.PushFront(&authorEntry{name: author, count: 1})
}

// counts returns a copy of the table, most recently updated first.
func (t *authorTable) counts() []AuthorCount {
	if t.order.Len() == 0 {
		return nil
	}
	out := make([]AuthorCount, 0, t.order.Len())
	for el := t.order.Front(); el != nil; el = el.Next() {
		entry := el.Value.(*authorEntry)
		out = append(out, AuthorCount{Author: entry.name, Count: entry.count})
	}
	return out
}

func (t *authorTable) len() int { return t.order.Len() }
