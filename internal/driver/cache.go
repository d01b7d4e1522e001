package driver

import (
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"undertow/internal/project"
)

// Bump when UnitSummary changes shape.
const cacheSchemaVersion uint16 = 1

// DiskCache stores lowered-unit summaries keyed by content digest.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// UnitSummary is the cached outcome of lowering one unit. It carries
// enough to skip re-lowering an unchanged, clean unit and to report
// what the unit defined.
type UnitSummary struct {
	Schema uint16

	Path        string
	ContentHash project.Digest

	// Top-level symbol names in emission order.
	Symbols []string
	// Pass names that ran over the module.
	Passes []string

	Diagnostics int
	Broken      bool
}

// OpenDiskCache initializes a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the on-disk location of the cache.
func (c *DiskCache) Dir() string {
	return c.dir
}

func (c *DiskCache) pathFor(key project.Digest) string {
	return filepath.Join(c.dir, "units", hex.EncodeToString(key[:])+".mp")
}

// Put serializes and writes a summary under its key. The write goes
// through a temp file and a rename so readers never see a torn entry.
func (c *DiskCache) Put(key project.Digest, summary *UnitSummary) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	summary.Schema = cacheSchemaVersion
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(summary); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads the summary stored under key. Returns false without error
// when the entry is absent or belongs to an older schema.
func (c *DiskCache) Get(key project.Digest, out *UnitSummary) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	if out.Schema != cacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// Summarize condenses a finished unit result for caching.
func Summarize(res *UnitResult, passes []string, hash project.Digest) *UnitSummary {
	s := &UnitSummary{
		Path:        res.Path,
		ContentHash: hash,
		Passes:      passes,
		Broken:      res.Err != nil || res.Bag.HasErrors(),
	}
	if res.Bag != nil {
		s.Diagnostics = res.Bag.Len()
	}
	if res.Module != nil {
		for _, op := range res.Module.Top.Ops {
			if op.Name != "" {
				s.Symbols = append(s.Symbols, op.Name)
			}
		}
	}
	return s
}
