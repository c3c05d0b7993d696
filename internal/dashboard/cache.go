package dashboard

import (
	"container/list"
	"sync"
)

// viewCache memoises computed views by view name and filter key, evicting the
// least recently used entry past its size. One cache belongs to one
// snapshot, so entries never go stale.
type viewCache struct {
	size  int
	mu    sync.Mutex
	order *list.List // front is most recently used; values are *viewEntry
	index map[string]*list.Element
}

type viewEntry struct {
	key  string
	view any
}

func newViewCache(size int) *viewCache {
	return &viewCache{
		size:  max(1, size),
		order: list.New(),
		index: make(map[string]*list.Element),
	}
}

func (c *viewCache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*viewEntry).view, true
}

// put stores a view. Two requests that missed concurrently both store; the
// later value wins.
func (c *viewCache) put(key string, view any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		el.Value.(*viewEntry).view = view
		c.order.MoveToFront(el)
		return
	}
	c.index[key] = c.order.PushFront(&viewEntry{key: key, view: view})

	for c.order.Len() > c.size {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.index, oldest.Value.(*viewEntry).key)
	}
}

func (c *viewCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
