package diagram

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/alnah/go-md2html/internal/fileutil"
)

const (
	dirPermissions  = 0o750
	filePermissions = 0o644
)

// Cache stores decorated SVGs by key. Entries are never updated: Put on an
// existing key is a no-op.
type Cache interface {
	Get(key string) (svg []byte, ok bool, err error)
	Put(key string, svg []byte) error
}

// Key returns the cache key for a diagram source: the hex SHA-256 of its bytes.
func Key(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

func validKey(key string) error {
	if len(key) != sha256.Size*2 {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if _, err := hex.DecodeString(key); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// DirCache keeps one {key}.svg file per diagram in a flat directory. The
// directory doubles as a static asset folder for object embedding.
type DirCache struct {
	dir string
}

// NewDirCache creates dir if needed.
func NewDirCache(dir string) (*DirCache, error) {
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating diagram cache: %w", err)
	}
	return &DirCache{dir: dir}, nil
}

// Path returns the file path for key.
func (c *DirCache) Path(key string) string {
	return filepath.Join(c.dir, key+".svg")
}

// Get reads the entry for key.
func (c *DirCache) Get(key string) ([]byte, bool, error) {
	if err := validKey(key); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(c.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading cached diagram: %w", err)
	}
	return data, true, nil
}

// Put writes the entry for key unless it already exists. The write goes
// through a temp file and rename; concurrent writers of the same key are
// harmless, the last rename wins with identical content.
func (c *DirCache) Put(key string, svg []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	path := c.Path(key)
	if fileutil.FileExists(path) {
		return nil
	}
	return fileutil.WriteFileAtomic(path, svg, filePermissions)
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]byte)}
}

// Get returns a copy of the entry for key.
func (c *MemoryCache) Get(key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	svg, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), svg...), true, nil
}

// Put stores svg unless key already exists.
func (c *MemoryCache) Put(key string, svg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		c.entries[key] = append([]byte(nil), svg...)
	}
	return nil
}

// Len returns the number of entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Compile-time interface checks.
var (
	_ Cache = (*DirCache)(nil)
	_ Cache = (*MemoryCache)(nil)
)
