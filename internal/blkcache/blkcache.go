// Package blkcache implements the bounded, LRU-evicting cache of 512-byte
// disk blocks described in spec.md section 4.5, generalized from the
// teacher kernel's Bdev_block_t/BlkList_t (fs/blk.go) which cached 4096-byte
// pages over an AHCI disk; here the block size is spec.md's 512 and the
// device is whatever implements Disk_i (virtio-blk in production, an
// in-memory fake in tests).
package blkcache

import (
	"container/list"
	"sync"
)

// BSIZE is the on-disk block size, per spec.md section 6.
const BSIZE = 512

// Capacity is the cache's budget, per spec.md section 4.5's "implementation
// budget: 16 entries".
const Capacity = 16

// Disk_i is the block device underneath the cache.
type Disk_i interface {
	ReadBlock(id uint64, buf *[BSIZE]byte) error
	WriteBlock(id uint64, buf *[BSIZE]byte) error
}

// Entry is a cached block: its buffer, id, dirty flag, and reference count.
// The buffer has its own lock so concurrent readers/writers of the same
// block serialize independently of the cache's lookup table lock, per
// spec.md's concurrency contract.
type Entry struct {
	mu    sync.Mutex
	id    uint64
	dirty bool
	data  [BSIZE]byte

	cache *Cache
	elem  *list.Element // position in the cache's LRU list
	refs  int
}

// Id returns the block number this entry caches.
func (e *Entry) Id() uint64 { return e.id }

// Read calls f with a read-only view of the block's bytes at offset off.
func (e *Entry) Read(off int, f func(buf []byte)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f(e.data[off:])
}

// Modify calls f with a mutable view of the block's bytes at offset off and
// marks the entry dirty.
func (e *Entry) Modify(off int, f func(buf []byte)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f(e.data[off:])
	e.dirty = true
}

// Release drops the reference taken by Cache.Get. Once the refcount reaches
// zero the entry becomes eligible for LRU eviction.
func (e *Entry) Release() {
	e.cache.release(e)
}

// Cache is the bounded LRU block cache. At most one live Entry exists per
// block id, per spec.md's invariant.
type Cache struct {
	mu    sync.Mutex
	disk  Disk_i
	cap   int
	lru   *list.List // front = most recently used
	byID  map[uint64]*list.Element
}

// New constructs a cache of the given capacity (0 means Capacity) over disk.
func New(disk Disk_i, capacity int) *Cache {
	if capacity <= 0 {
		capacity = Capacity
	}
	return &Cache{
		disk: disk,
		cap:  capacity,
		lru:  list.New(),
		byID: make(map[uint64]*list.Element),
	}
}

// Get returns the cached entry for block id, reading it from disk on a
// miss. Repeated calls for the same id return the same Entry, per spec.md's
// "returns the same entry" requirement. The caller must call Release when
// done with the handle.
func (c *Cache) Get(id uint64) (*Entry, error) {
	c.mu.Lock()
	if elem, ok := c.byID[id]; ok {
		c.lru.MoveToFront(elem)
		e := elem.Value.(*Entry)
		e.refs++
		c.mu.Unlock()
		return e, nil
	}

	if c.lru.Len() >= c.cap {
		if err := c.evictOneLocked(); err != nil {
			c.mu.Unlock()
			return nil, err
		}
	}

	e := &Entry{id: id, cache: c, refs: 1}
	if err := c.disk.ReadBlock(id, &e.data); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	e.elem = c.lru.PushFront(e)
	c.byID[id] = e.elem
	c.mu.Unlock()
	return e, nil
}

// evictOneLocked evicts the least-recently-used entry with a zero refcount.
// Caller holds c.mu. If every entry is pinned, the cache simply grows past
// cap for this call rather than failing -- spec.md bounds typical working
// set size, not correctness.
func (c *Cache) evictOneLocked() error {
	for elem := c.lru.Back(); elem != nil; elem = elem.Prev() {
		e := elem.Value.(*Entry)
		if e.refs != 0 {
			continue
		}
		if e.dirty {
			if err := c.disk.WriteBlock(e.id, &e.data); err != nil {
				return err
			}
		}
		c.lru.Remove(elem)
		delete(c.byID, e.id)
		return nil
	}
	return nil
}

func (c *Cache) release(e *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e.refs--
	if e.refs < 0 {
		panic("blkcache: over-released entry")
	}
}

// SyncAll flushes every dirty entry to disk, per spec.md's sync_all.
func (c *Cache) SyncAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		e := elem.Value.(*Entry)
		e.mu.Lock()
		if e.dirty {
			if err := c.disk.WriteBlock(e.id, &e.data); err != nil {
				e.mu.Unlock()
				return err
			}
			e.dirty = false
		}
		e.mu.Unlock()
	}
	return nil
}

// Len reports how many blocks are currently cached, for diagnostics/tests.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
