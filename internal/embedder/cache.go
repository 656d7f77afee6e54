package embedder

import (
	"container/list"
	"sync"
)

// DefaultCacheSize is the embedding cache capacity used when none is
// configured. Sized for corpora in the thousands-of-chunks range.
const DefaultCacheSize = 1000

// cacheEntry is the value stored in each list element: the exact source
// text (the cache key, needed for map cleanup on eviction) and its vector.
type cacheEntry struct {
	text   string
	vector []float32
}

// Cache is a bounded least-recently-used cache mapping exact text content to
// its previously computed embedding. Get and Put are O(1): recency is
// tracked with a doubly-linked list (front = most recently used) indexed by
// a map from text to list element. Safe for concurrent use.
type Cache struct {
	mu    sync.Mutex
	max   int
	order *list.List
	index map[string]*list.Element
}

// NewCache constructs a Cache holding at most maxSize entries.
// Non-positive sizes fall back to DefaultCacheSize.
func NewCache(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	return &Cache{
		max:   maxSize,
		order: list.New(),
		index: make(map[string]*list.Element),
	}
}

// Get returns the cached embedding for text, or (nil, false) on a miss.
// A hit promotes the entry to most recently used.
func (c *Cache) Get(text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[text]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).vector, true
}

// Put stores the embedding for text as the most recently used entry.
// Inserting beyond capacity evicts the least recently used entry first.
func (c *Cache) Put(text string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[text]; ok {
		el.Value.(*cacheEntry).vector = vector
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.max {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.index, oldest.Value.(*cacheEntry).text)
		}
	}

	c.index[text] = c.order.PushFront(&cacheEntry{text: text, vector: vector})
}

// Clear removes all cached embeddings.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.index = make(map[string]*list.Element)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
