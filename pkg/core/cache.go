package core

import (
	"os"
	"time"

	"github.com/golang/groupcache/lru"
)

// statCacheKey identifies a single cached observation: a path paired with
// the raw stat values that were true when the PathInfo for that path was
// last computed. If any of those raw values has since changed, the cached
// PathInfo must be discarded rather than reused.
type statCacheKey struct {
	path    string
	modTime int64
	size    int64
	mode    os.FileMode
}

// StatCache is a bounded memoization layer that PathSnapshot.Make can
// consult to avoid recomputing a PathInfo for a path whose underlying stat
// tuple (modification time, size, mode) hasn't changed since it was last
// observed, adapted to memoize stat-derived metadata rather than file
// content digests, since this engine never reads file contents.
//
// A nil *StatCache is valid and simply disables caching.
type StatCache struct {
	entries *lru.Cache
}

// NewStatCache creates a StatCache holding at most maxEntries observations.
// A maxEntries of 0 uses groupcache/lru's unbounded mode.
func NewStatCache(maxEntries int) *StatCache {
	return &StatCache{entries: lru.New(maxEntries)}
}

// lookup returns the cached PathInfo for path if the supplied current stat
// values match what was cached, and false otherwise (including when the
// cache is nil or has no entry for path).
func (c *StatCache) lookup(path string, modTime time.Time, size int64, mode os.FileMode) (PathInfo, bool) {
	if c == nil || c.entries == nil {
		return PathInfo{}, false
	}
	key := statCacheKey{path: path, modTime: modTime.UnixNano(), size: size, mode: mode}
	value, ok := c.entries.Get(key)
	if !ok {
		return PathInfo{}, false
	}
	info, ok := value.(PathInfo)
	return info, ok
}

// store records info as the cached observation for path under the supplied
// current stat values.
func (c *StatCache) store(path string, modTime time.Time, size int64, mode os.FileMode, info PathInfo) {
	if c == nil || c.entries == nil {
		return
	}
	key := statCacheKey{path: path, modTime: modTime.UnixNano(), size: size, mode: mode}
	c.entries.Add(key, info)
}
