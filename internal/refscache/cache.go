// Package refscache persists git ref metadata per plugin URL: filtered
// version-tag lists, full ref listings, update-status verdicts, and the
// names known to point at each commit.
//
// The store is a single format-versioned JSON document mirrored in memory.
// Reads of corrupted or wrong-version files degrade to an empty cache,
// never to an error. Entries older than the TTL are treated as a miss
// unless the caller explicitly allows expired fallback (used when the
// network is unavailable).
package refscache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/pluggit/internal/core/logging"
	"github.com/colonyops/pluggit/internal/core/refs"
)

// Defaults, overridable through Options and config.
const (
	DefaultTTL      = time.Hour
	DefaultFilename = "plugin_refs_cache.json"
)

// Options configures a Cache. Zero values select defaults.
type Options struct {
	// TTL is the age after which cached entries are treated as a miss.
	TTL time.Duration
	// Now is the clock used for timestamps and expiry. Defaults to time.Now.
	Now func() time.Time
}

// Cache is the persistent refs store. It mirrors one JSON document in
// memory, loaded lazily on first use. Mutating calls flush to disk
// immediately unless a batch is active.
type Cache struct {
	path string
	ttl  time.Duration
	now  func() time.Time
	log  zerolog.Logger

	// writeFile is swappable so tests can count flushes.
	writeFile func(path string, data []byte) error

	mu       sync.Mutex
	doc      *document
	loaded   bool
	batching bool
	dirty    bool
}

// New creates a Cache persisting to path.
func New(path string, opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		path: path,
		ttl:  opts.TTL,
		now:  opts.Now,
		log:  logging.Component("refscache"),
		writeFile: func(path string, data []byte) error {
			return os.WriteFile(path, data, 0o644)
		},
	}
}

// Path returns the on-disk location of the cache file.
func (c *Cache) Path() string { return c.path }

// load reads the document from disk on first use. Any corruption or
// format-version mismatch yields an empty document.
func (c *Cache) load() *document {
	if c.loaded {
		return c.doc
	}
	c.loaded = true
	c.doc = newDocument()

	raw, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.Debug().Err(err).Str("path", c.path).Msg("failed to read refs cache")
		}
		return c.doc
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.Debug().Err(err).Msg("refs cache corrupted or old format, treating as empty")
		return c.doc
	}
	if env.Version != FormatVersion {
		c.log.Debug().Int("version", env.Version).Int("want", FormatVersion).Msg("refs cache version mismatch, invalidating")
		return c.doc
	}

	var doc document
	if err := json.Unmarshal(env.Data, &doc); err != nil {
		c.log.Debug().Err(err).Msg("refs cache data malformed, treating as empty")
		return c.doc
	}
	c.doc = &doc
	c.log.Debug().Str("path", c.path).Msg("loaded refs cache")
	return c.doc
}

// persist flushes the document, or marks it dirty while a batch is active.
func (c *Cache) persist() {
	if c.batching {
		c.dirty = true
		return
	}
	c.save()
}

// save writes the document to disk. A write failure is logged but the
// in-memory state is not rolled back, so a later flush still carries the
// intended data.
func (c *Cache) save() {
	data, err := json.Marshal(c.doc)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to encode refs cache")
		return
	}
	var buf []byte
	env := envelope{Version: FormatVersion, Data: data}
	if buf, err = json.MarshalIndent(env, "", "  "); err != nil {
		c.log.Error().Err(err).Msg("failed to encode refs cache envelope")
		return
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		c.log.Error().Err(err).Str("path", c.path).Msg("failed to create cache directory")
		return
	}
	if err := c.writeFile(c.path, buf); err != nil {
		c.log.Error().Err(err).Str("path", c.path).Msg("failed to save refs cache")
		return
	}
	c.log.Debug().Str("path", c.path).Msg("saved refs cache")
}

// BeginBatch defers disk writes until EndBatch. It exists to collapse many
// small mutations, such as caching refs for dozens of plugins during a
// registry refresh, into one flush. It is not a thread-safety device.
func (c *Cache) BeginBatch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batching = true
}

// EndBatch flushes once if any mutation happened since BeginBatch. Call it
// with defer so the flush runs on every exit path.
func (c *Cache) EndBatch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batching = false
	if c.dirty {
		c.dirty = false
		c.save()
	}
}

func (c *Cache) expired(timestamp int64, ttl time.Duration) bool {
	return c.now().Unix()-timestamp > int64(ttl.Seconds())
}

// GetCachedTags returns the tag list cached for url under scheme, or false
// on unknown url/scheme or TTL expiry. With allowExpired, expired entries
// are returned as a fallback.
func (c *Cache) GetCachedTags(url, scheme string, allowExpired bool) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.load().URLs[url]
	if !ok {
		return nil, false
	}
	te, ok := entry.Schemes[scheme]
	if !ok {
		return nil, false
	}

	if c.expired(te.Timestamp, c.ttl) {
		if !allowExpired {
			return nil, false
		}
		c.log.Debug().Str("url", url).Str("scheme", scheme).Int("tags", len(te.Tags)).Msg("using expired tag cache")
	}
	return te.Tags, true
}

// CacheTags stores tags for url+scheme with the current timestamp.
func (c *Cache) CacheTags(url, scheme string, tags []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.load().urlEntry(url).Schemes[scheme] = tagEntry{Tags: tags, Timestamp: c.now().Unix()}
	c.persist()
	c.log.Debug().Str("url", url).Str("scheme", scheme).Int("tags", len(tags)).Msg("cached tags")
}

// RefSet is a full ref listing split into branches and tags.
type RefSet struct {
	Branches []refs.Item
	Tags     []refs.Item
}

// GetCachedAllRefs returns the cached full ref listing for url. Entries in
// the legacy bare-string format are treated as a miss, forcing a refresh.
func (c *Cache) GetCachedAllRefs(url string, allowExpired bool) (RefSet, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.load().URLs[url]
	if !ok || entry.AllRefs == nil {
		return RefSet{}, false
	}

	ar := entry.AllRefs
	if c.expired(ar.Timestamp, c.ttl) && !allowExpired {
		c.log.Debug().Str("url", url).Msg("all-refs cache expired")
		return RefSet{}, false
	}

	if legacyRefSet(ar.Refs) {
		c.log.Debug().Str("url", url).Msg("all-refs cache has old format, invalidating")
		return RefSet{}, false
	}

	var rs RefSet
	for _, raw := range ar.Refs.Branches {
		if item, ok := decodeRefRecord(raw); ok {
			rs.Branches = append(rs.Branches, item)
		}
	}
	for _, raw := range ar.Refs.Tags {
		if item, ok := decodeRefRecord(raw); ok {
			rs.Tags = append(rs.Tags, item)
		}
	}
	return rs, true
}

// CacheAllRefs stores the full ref listing for url.
func (c *Cache) CacheAllRefs(url string, rs RefSet) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw := rawRefSet{
		Branches: encodeItems(rs.Branches),
		Tags:     encodeItems(rs.Tags),
	}
	c.load().urlEntry(url).AllRefs = &allRefsEntry{Refs: raw, Timestamp: c.now().Unix()}
	c.persist()
	c.log.Debug().Str("url", url).Int("branches", len(rs.Branches)).Int("tags", len(rs.Tags)).Msg("cached all refs")
}

func encodeItems(items []refs.Item) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		// refs.Record contains only marshal-safe fields.
		data, err := json.Marshal(item.Record())
		if err != nil {
			continue
		}
		out = append(out, data)
	}
	return out
}

// CacheUpdateStatus stores a "has update" verdict for a plugin together
// with the ref it was computed against.
func (c *Cache) CacheUpdateStatus(pluginID string, hasUpdate bool, currentRef string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.load().UpdateStatus[pluginID] = updateStatusEntry{
		HasUpdate:  hasUpdate,
		CurrentRef: currentRef,
		Timestamp:  c.now().Unix(),
	}
	c.persist()
}

// GetCachedUpdateStatus returns the cached verdict for pluginID. A
// non-empty currentRef that differs from the recorded one invalidates the
// entry early, independent of the TTL clock. A non-positive ttl selects
// the cache default.
func (c *Cache) GetCachedUpdateStatus(pluginID, currentRef string, ttl time.Duration) (hasUpdate, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, found := c.load().UpdateStatus[pluginID]
	if !found {
		return false, false
	}

	// Ref changed underneath the cached verdict.
	if currentRef != "" && entry.CurrentRef != currentRef {
		return false, false
	}

	if ttl <= 0 {
		ttl = c.ttl
	}
	if c.expired(entry.Timestamp, ttl) {
		return false, false
	}
	return entry.HasUpdate, true
}

// CacheRefItemsForCommit stores the ref items known for a commit,
// replacing any previous list.
func (c *Cache) CacheRefItemsForCommit(pluginUUID, commitID string, items []refs.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheRefItemsLocked(pluginUUID, commitID, items)
	c.persist()
}

func (c *Cache) cacheRefItemsLocked(pluginUUID, commitID string, items []refs.Item) {
	doc := c.load()
	if doc.RefItems[pluginUUID] == nil {
		doc.RefItems[pluginUUID] = make(map[string][]json.RawMessage)
	}
	doc.RefItems[pluginUUID][commitID] = encodeItems(items)
}

// RefItemsForCommit returns the accumulated ref items for a commit.
// Malformed stored records are skipped, never fatal.
func (c *Cache) RefItemsForCommit(pluginUUID, commitID string) []refs.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refItemsLocked(pluginUUID, commitID)
}

func (c *Cache) refItemsLocked(pluginUUID, commitID string) []refs.Item {
	var items []refs.Item
	for _, raw := range c.load().RefItems[pluginUUID][commitID] {
		if item, ok := decodeRefRecord(raw); ok {
			items = append(items, item)
		}
	}
	return items
}

// AddRefItemToCommit appends one ref item to a commit's list. Re-adding an
// item whose name is already present is a no-op.
func (c *Cache) AddRefItemToCommit(pluginUUID, commitID string, item refs.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing := c.refItemsLocked(pluginUUID, commitID)
	for _, e := range existing {
		if e.Name == item.Name {
			return
		}
	}
	c.cacheRefItemsLocked(pluginUUID, commitID, append(existing, item))
	c.persist()
}

// SortedRefItemsForCommit returns the stored items for a commit ordered
// tags-first (or branches-first when preferTags is false).
func (c *Cache) SortedRefItemsForCommit(pluginUUID, commitID string, preferTags bool) []refs.Item {
	return refs.Sort(c.RefItemsForCommit(pluginUUID, commitID), preferTags)
}

// CommitRef pairs a commit id with one of its ref items.
type CommitRef struct {
	CommitID string
	Item     refs.Item
}

// FindRefItemsByName scans all cached commits for a plugin and returns
// every (commit, item) pair whose item carries the given name. Corrupted
// records are skipped.
func (c *Cache) FindRefItemsByName(pluginUUID, name string) []CommitRef {
	c.mu.Lock()
	defer c.mu.Unlock()

	var found []CommitRef
	for commitID, raws := range c.load().RefItems[pluginUUID] {
		for _, raw := range raws {
			item, ok := decodeRefRecord(raw)
			if !ok || item.Name != name {
				continue
			}
			found = append(found, CommitRef{CommitID: commitID, Item: item})
		}
	}
	return found
}

// CleanupInvalidRefItems purges records that fail to deserialize into a
// valid ref item, removing commit buckets that become empty. It returns
// the number of individual records removed.
func (c *Cache) CleanupInvalidRefItems(pluginUUID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	commits := c.load().RefItems[pluginUUID]
	removed := 0
	for commitID, raws := range commits {
		kept := make([]json.RawMessage, 0, len(raws))
		for _, raw := range raws {
			if _, ok := decodeRefRecord(raw); ok {
				kept = append(kept, raw)
			} else {
				removed++
			}
		}
		if len(kept) == 0 {
			delete(commits, commitID)
		} else {
			commits[commitID] = kept
		}
	}

	if removed > 0 {
		c.persist()
		c.log.Debug().Str("uuid", pluginUUID).Int("removed", removed).Msg("cleaned up invalid ref items")
	}
	return removed
}

// CleanupCache removes top-level URL entries absent from the supplied set
// of currently known plugin URLs. Called after a registry refresh to evict
// entries for removed or renamed plugins.
func (c *Cache) CleanupCache(knownURLs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	known := make(map[string]struct{}, len(knownURLs))
	for _, url := range knownURLs {
		known[url] = struct{}{}
	}

	doc := c.load()
	removed := 0
	for url := range doc.URLs {
		if _, ok := known[url]; !ok {
			delete(doc.URLs, url)
			removed++
		}
	}

	if removed > 0 {
		c.persist()
		c.log.Debug().Int("removed", removed).Msg("cleaned up stale cache entries")
	}
}

// ClearCache deletes the on-disk file and the in-memory mirror.
func (c *Cache) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		c.log.Warn().Err(err).Str("path", c.path).Msg("failed to delete refs cache file")
	} else {
		c.log.Debug().Str("path", c.path).Msg("cleared refs cache file")
	}
	c.doc = newDocument()
	c.loaded = true
	c.dirty = false
}
