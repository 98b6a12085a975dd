package query

import (
	"container/list"
	"time"

	"github.com/s0up4200/cinesearch/tmdb"
)

// entry is the cached state of one key
type entry struct {
	key       Key
	data      *tmdb.ResultPage
	updatedAt time.Time
	err       error
	failedAt  time.Time
	inflight  bool
	// flight names the singleflight call serving this entry while inflight
	flight string
}

// entryCache is an LRU of entries. It is not safe for concurrent use; the
// controller guards it with its own mutex.
type entryCache struct {
	size      int
	evictList *list.List
	items     map[Key]*list.Element
}

func newEntryCache(size int) *entryCache {
	return &entryCache{
		size:      size,
		evictList: list.New(),
		items:     make(map[Key]*list.Element),
	}
}

// get returns the entry for key and marks it most recently used
func (c *entryCache) get(key Key) *entry {
	node, ok := c.items[key]
	if !ok {
		return nil
	}
	c.evictList.MoveToFront(node)
	return node.Value.(*entry)
}

// getOrCreate returns the existing entry or inserts an empty one
func (c *entryCache) getOrCreate(key Key) *entry {
	if e := c.get(key); e != nil {
		return e
	}

	e := &entry{key: key}
	c.items[key] = c.evictList.PushFront(e)
	c.evict()
	return e
}

// remove drops key unless a request for it is in flight
func (c *entryCache) remove(key Key) bool {
	node, ok := c.items[key]
	if !ok || node.Value.(*entry).inflight {
		return false
	}
	c.evictList.Remove(node)
	delete(c.items, key)
	return true
}

// evict removes least recently used settled entries until the cache fits.
// The most recently used entry is never evicted.
func (c *entryCache) evict() {
	front := c.evictList.Front()
	for node := c.evictList.Back(); node != nil && node != front && c.evictList.Len() > c.size; {
		prev := node.Prev()
		if e := node.Value.(*entry); !e.inflight {
			c.evictList.Remove(node)
			delete(c.items, e.key)
		}
		node = prev
	}
}

// len returns the number of cached entries
func (c *entryCache) len() int {
	return c.evictList.Len()
}
