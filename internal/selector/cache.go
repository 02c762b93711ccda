package selector

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/coreflux/agentturn/pkg/models"
)

// cacheVersion is bumped whenever the on-disk shape changes incompatibly.
const cacheVersion = 1

// cacheFile is the single-file on-disk representation of the embedding
// cache (spec §4.1, "Embeddings & cache").
type cacheFile struct {
	Embeddings map[string][]float32         `json:"embeddings"`
	Metadata   map[string]models.ToolDefinition `json:"metadata"`
	Timestamp  time.Time                    `json:"timestamp"`
	Version    int                          `json:"version"`
}

// EmbeddingCache holds per-tool embeddings and their optimized
// definitions, persisted atomically to a single JSON file with a backup
// of the previous version (spec §4.1, "Embeddings & cache").
type EmbeddingCache struct {
	mu       sync.Mutex
	path     string
	data     cacheFile
	dirty    bool
	lastSave time.Time
}

// LoadCache reads path, falling back to its ".bak" backup on a malformed
// primary file, and to an empty cache if both are missing or malformed
// (spec §4.1, "Embeddings & cache").
func LoadCache(path string) *EmbeddingCache {
	c := &EmbeddingCache{path: path, data: cacheFile{
		Embeddings: make(map[string][]float32),
		Metadata:   make(map[string]models.ToolDefinition),
		Version:    cacheVersion,
	}}

	if loaded, ok := readCacheFile(path); ok {
		c.data = loaded
		return c
	}
	if loaded, ok := readCacheFile(path + ".bak"); ok {
		c.data = loaded
	}
	return c
}

func readCacheFile(path string) (cacheFile, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return cacheFile{}, false
	}
	var cf cacheFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return cacheFile{}, false
	}
	if cf.Embeddings == nil {
		cf.Embeddings = make(map[string][]float32)
	}
	if cf.Metadata == nil {
		cf.Metadata = make(map[string]models.ToolDefinition)
	}
	return cf, true
}

// Get returns the cached embedding and optimized definition for name.
func (c *EmbeddingCache) Get(name string) ([]float32, models.ToolDefinition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	emb, ok := c.data.Embeddings[name]
	if !ok {
		return nil, models.ToolDefinition{}, false
	}
	return emb, c.data.Metadata[name], true
}

// Put stores an embedding and its optimized definition, marking the
// cache dirty.
func (c *EmbeddingCache) Put(name string, embedding []float32, def models.ToolDefinition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Embeddings[name] = embedding
	c.data.Metadata[name] = def
	c.dirty = true
}

// MaybeAutoSave flushes to disk if the cache is dirty and at least
// interval has elapsed since the last save (spec §4.1, "Embeddings &
// cache", "Auto-save runs when dirty and ≥ 300s have elapsed").
func (c *EmbeddingCache) MaybeAutoSave(interval time.Duration) error {
	c.mu.Lock()
	dirty := c.dirty
	due := time.Since(c.lastSave) >= interval
	c.mu.Unlock()
	if !dirty || !due {
		return nil
	}
	return c.Save()
}

// Save atomically persists the cache: write to a temp file, rename the
// existing cache file to a ".bak" backup, then rename the temp file into
// place (spec §4.1, "Embeddings & cache", "Write is atomic").
func (c *EmbeddingCache) Save() error {
	c.mu.Lock()
	c.data.Timestamp = time.Now()
	c.data.Version = cacheVersion
	raw, err := json.Marshal(c.data)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if _, err := os.Stat(c.path); err == nil {
		os.Rename(c.path, c.path+".bak")
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return err
	}

	c.mu.Lock()
	c.dirty = false
	c.lastSave = time.Now()
	c.mu.Unlock()
	return nil
}
