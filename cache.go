package xsd

import (
	"log/slog"
	"os"
	"sync"
)

// memoCache memoizes a pure function keyed by its argument. First-populate
// races are serialized by the mutex; repeated hits take only the read lock.
type memoCache[K comparable, V any] struct {
	mu      sync.RWMutex
	fn      func(K) (V, error)
	entries map[K]V
}

func newMemoCache[K comparable, V any](fn func(K) (V, error)) *memoCache[K, V] {
	return &memoCache[K, V]{fn: fn, entries: make(map[K]V)}
}

func (c *memoCache[K, V]) get(key K) (V, error) {
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.entries[key]; ok {
		return v, nil
	}
	v, err := c.fn(key)
	if err != nil {
		var zero V
		return zero, err
	}
	c.entries[key] = v
	return v, nil
}

// SchemaCache loads and builds schema manifests at most once per path.
// Concurrent first loads of the same path share a single build.
type SchemaCache struct {
	mu      sync.Mutex
	entries map[string]*schemaEntry
	logger  *slog.Logger
}

type schemaEntry struct {
	once   sync.Once
	schema *Schema
	err    error
}

// NewSchemaCache creates an empty schema cache.
func NewSchemaCache(logger *slog.Logger) *SchemaCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &SchemaCache{entries: make(map[string]*schemaEntry), logger: logger}
}

// Load reads, parses and builds the manifest at path, caching the result.
// A failed load is cached too; callers retry by calling Invalidate first.
func (c *SchemaCache) Load(path string) (*Schema, error) {
	c.mu.Lock()
	entry, ok := c.entries[path]
	if !ok {
		entry = &schemaEntry{}
		c.entries[path] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		c.logger.Debug("loading schema manifest", "path", path)
		data, err := os.ReadFile(path)
		if err != nil {
			entry.err = err
			return
		}
		entry.schema, entry.err = LoadSchema(data, StrictMode)
		if entry.err != nil {
			c.logger.Warn("schema manifest failed to build", "path", path, "error", entry.err)
		}
	})
	return entry.schema, entry.err
}

// Invalidate drops the cached entry for a path.
func (c *SchemaCache) Invalidate(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}
