package main

import (
	"strings"
	"sync"
	"time"

	"github.com/ryanuber/go-glob"
)

// KeyNotFound type
type KeyNotFound struct {
	key string
}

// Error formats an error for the KeyNotFound type
func (e KeyNotFound) Error() string {
	return e.key + " " + "not found"
}

// KeyExpired type
type KeyExpired struct {
	Key string
}

// Error formats an error for the KeyExpired type
func (e KeyExpired) Error() string {
	return e.Key + " " + "expired"
}

// CacheIsFull type
type CacheIsFull struct {
}

// Error formats an error for the CacheIsFull type
func (e CacheIsFull) Error() string {
	return "Cache is Full"
}

// Mesg represents a result cache entry
type Mesg struct {
	Result         CheckResult
	LastUpdateTime time.Time
}

// ResultCache interface
type ResultCache interface {
	Get(key string) (CheckResult, error)
	Set(key string, result CheckResult) error
	Exists(key string) bool
	Remove(key string)
	Length() int
}

// MemoryResultCache type
type MemoryResultCache struct {
	Backend  map[string]*Mesg
	Expire   time.Duration
	Maxcount int
	mu       sync.RWMutex
}

// Get returns the entry for a key or an error
func (c *MemoryResultCache) Get(key string) (CheckResult, error) {
	key = strings.ToLower(key)

	c.mu.Lock()
	mesg, ok := c.Backend[key]
	if ok && c.Expire > 0 && WallClock.Now().Sub(mesg.LastUpdateTime) > c.Expire {
		c.removeNoLock(key)
		c.mu.Unlock()
		return CheckResult{}, KeyExpired{key}
	}
	c.mu.Unlock()

	if !ok {
		logger.Debugf("Cache: Cannot find key %s", key)
		return CheckResult{}, KeyNotFound{key}
	}

	return mesg.Result, nil
}

// Set sets a keys value to a CheckResult
func (c *MemoryResultCache) Set(key string, result CheckResult) error {
	key = strings.ToLower(key)

	if c.Full() && !c.Exists(key) {
		return CacheIsFull{}
	}

	c.mu.Lock()
	c.Backend[key] = &Mesg{result, WallClock.Now().Truncate(time.Second)}
	c.mu.Unlock()

	return nil
}

func (c *MemoryResultCache) removeNoLock(key string) {
	key = strings.ToLower(key)
	delete(c.Backend, key)
}

// Remove removes an entry from the cache
func (c *MemoryResultCache) Remove(key string) {
	c.mu.Lock()
	c.removeNoLock(key)
	c.mu.Unlock()
}

// Exists returns whether or not a key exists in the cache
func (c *MemoryResultCache) Exists(key string) bool {
	key = strings.ToLower(key)

	c.mu.RLock()
	_, ok := c.Backend[key]
	c.mu.RUnlock()
	return ok
}

// Length returns the caches length
func (c *MemoryResultCache) Length() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.Backend)
}

// Full returns whether or not the cache is full
func (c *MemoryResultCache) Full() bool {
	if c.Maxcount == 0 {
		return false
	}
	return c.Length() >= c.Maxcount
}

const (
	// ListCacheEntryRegexp marks the regexp based MemoryListCache entries
	ListCacheEntryRegexp = iota
	// ListCacheEntryGlob marks the glob based MemoryListCache entries
	ListCacheEntryGlob
)

// ListCacheSpecial holds the extra data of a MemoryListCache entry
// used to perform glob or regexp matching.
type ListCacheSpecial struct {
	Data string
	Type int
}

// MemoryListCache holds the manual white/black list entries from the config
type MemoryListCache struct {
	Backend map[string]bool
	Special []ListCacheSpecial
	mu      sync.RWMutex
}

// Get returns the entry for a key or an error
func (c *MemoryListCache) Get(key string) (bool, error) {
	key = strings.ToLower(key)

	c.mu.RLock()
	val, ok := c.Backend[key]
	c.mu.RUnlock()

	if !ok {
		return false, KeyNotFound{key}
	}

	return val, nil
}

// Remove removes an entry from the cache
func (c *MemoryListCache) Remove(key string) {
	key = strings.ToLower(key)

	c.mu.Lock()
	delete(c.Backend, key)
	c.mu.Unlock()
}

// Set sets a value in the MemoryListCache
func (c *MemoryListCache) Set(key string, value bool) error {
	key = strings.ToLower(key)
	const globChars = "?*"

	c.mu.Lock()
	if strings.ContainsAny(key, globChars) {
		c.Special = append(
			c.Special,
			ListCacheSpecial{Data: key, Type: ListCacheEntryGlob})
	} else {
		c.Backend[key] = value
	}
	c.mu.Unlock()

	return nil
}

// Exists returns whether or not a key exists in the cache
func (c *MemoryListCache) Exists(key string) bool {
	key = strings.ToLower(key)

	c.mu.RLock()
	_, ok := c.Backend[key]
	if !ok {
		for _, element := range c.Special {
			if element.Type == ListCacheEntryRegexp {
				panic("Unsupported")
			} else if element.Type == ListCacheEntryGlob {
				if glob.Glob(element.Data, key) {
					ok = true
				}
			}
		}
	}
	c.mu.RUnlock()
	return ok
}

// Length returns the caches length
func (c *MemoryListCache) Length() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.Backend)
}

// CheckLogEntry represents a full check with metadata
type CheckLogEntry struct {
	Date   int64  `json:"date"`
	Host   string `json:"host"`
	Domain string `json:"domain"`
	Listed bool   `json:"listed"`
}

// MemoryCheckLog type
type MemoryCheckLog struct {
	Backend  []CheckLogEntry `json:"entry"`
	Maxcount int
	mu       sync.RWMutex
}

// Add adds a check to the log
func (c *MemoryCheckLog) Add(e CheckLogEntry) {
	c.mu.Lock()
	if c.Maxcount != 0 && len(c.Backend) >= c.Maxcount {
		c.Backend = nil
	}
	c.Backend = append(c.Backend, e)
	c.mu.Unlock()
}

// Clear clears the contents of the log
func (c *MemoryCheckLog) Clear() {
	c.mu.Lock()
	c.Backend = make([]CheckLogEntry, 0)
	c.mu.Unlock()
}

// Length returns the logs length
func (c *MemoryCheckLog) Length() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.Backend)
}

// GetOlder returns a slice of the entries older than `time`
func (c *MemoryCheckLog) GetOlder(time int64) []CheckLogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i, e := range c.Backend {
		if e.Date > time {
			return c.Backend[i:]
		}
	}
	return []CheckLogEntry{}
}
