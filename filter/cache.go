package filter

import (
	"container/list"
	"sync"
)

// lruCache keeps the most recently compiled filters, keyed by expression
type lruCache struct {
	capacity int

	mu    sync.Mutex
	order *list.List // front is most recently used
	index map[string]*list.Element
}

type cacheEntry struct {
	expression string
	filter     CompiledFilter
}

func newLRUCache(capacity int) *lruCache {
	return &lruCache{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element, capacity),
	}
}

func (c *lruCache) get(expression string) (CompiledFilter, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[expression]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).filter, true
}

func (c *lruCache) put(expression string, f CompiledFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[expression]; ok {
		el.Value.(*cacheEntry).filter = f
		c.order.MoveToFront(el)
		return
	}

	c.index[expression] = c.order.PushFront(&cacheEntry{expression: expression, filter: f})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.index, oldest.Value.(*cacheEntry).expression)
	}
}

func (c *lruCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.index = make(map[string]*list.Element, c.capacity)
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
