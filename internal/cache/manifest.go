// Package cache implements the content-addressed, size-bounded model cache
// described in §4.2: a JSON manifest under an exclusive file lock, streaming
// resumable downloads with incremental SHA-256 verification, and
// least-recently-used eviction once the cache exceeds its configured size.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"github.com/cmdai/cmdai/internal/cmdaierr"
)

const manifestVersion = "1"

// CachedModel is one entry in the manifest, per §3's data model.
type CachedModel struct {
	ModelID      string    `json:"model_id"`
	Path         string    `json:"path"`
	SizeBytes    int64     `json:"size_bytes"`
	Checksum     string    `json:"checksum"`
	DownloadedAt time.Time `json:"downloaded_at"`
	LastAccessed time.Time `json:"last_accessed"`
	Version      string    `json:"version,omitempty"`
}

// Manifest is the on-disk cache index.
type Manifest struct {
	Version           string                  `json:"version"`
	Models            map[string]*CachedModel `json:"models"`
	TotalSizeBytes    int64                   `json:"total_size_bytes"`
	MaxCacheSizeBytes int64                   `json:"max_cache_size_bytes"`
	LastUpdated       time.Time               `json:"last_updated"`
}

func emptyManifest(maxSize int64) *Manifest {
	return &Manifest{
		Version:           manifestVersion,
		Models:            make(map[string]*CachedModel),
		MaxCacheSizeBytes: maxSize,
		LastUpdated:       time.Now(),
	}
}

// Cache is a filesystem-backed model cache rooted at Dir.
type Cache struct {
	Dir          string
	manifestPath string
	lockPath     string
	maxSize      int64
}

// New creates a Cache rooted at dir, creating the directory if needed. The
// manifest is created lazily on first write.
func New(dir string, maxCacheSizeBytes int64) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create cache dir: %w", err)
	}
	return &Cache{
		Dir:          dir,
		manifestPath: filepath.Join(dir, "manifest.json"),
		lockPath:     filepath.Join(dir, "manifest.json.lock"),
		maxSize:      maxCacheSizeBytes,
	}, nil
}

// withManifestLock acquires the exclusive file lock, reloads the manifest
// from disk (discarding any stale caller state), runs mutate, and — if
// mutate did not return an error — rewrites the manifest file before
// releasing the lock. This is the sole mutation path, implementing §4.2's
// read-modify-write-under-lock rule.
func (c *Cache) withManifestLock(mutate func(m *Manifest) error) error {
	fl := flock.New(c.lockPath)
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("cache: acquire manifest lock: %w", err)
	}
	defer fl.Unlock()

	manifest, err := c.readManifestLocked()
	if err != nil {
		return err
	}

	if err := mutate(manifest); err != nil {
		return err
	}

	manifest.LastUpdated = time.Now()
	return c.writeManifestLocked(manifest)
}

func (c *Cache) readManifestLocked() (*Manifest, error) {
	data, err := os.ReadFile(c.manifestPath)
	if os.IsNotExist(err) {
		return emptyManifest(c.maxSize), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: read manifest: %w", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("cache: parse manifest: %w", err)
	}
	if manifest.Models == nil {
		manifest.Models = make(map[string]*CachedModel)
	}
	if manifest.MaxCacheSizeBytes == 0 {
		manifest.MaxCacheSizeBytes = c.maxSize
	}
	return &manifest, nil
}

// writeManifestLocked performs a full-file rewrite via a temp file plus
// rename, so a reader without the lock only ever observes the previous
// consistent snapshot or the new one — never a torn write.
func (c *Cache) writeManifestLocked(manifest *Manifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: marshal manifest: %w", err)
	}

	tmp := c.manifestPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("cache: create temp manifest: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("cache: write temp manifest: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("cache: flush temp manifest: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cache: close temp manifest: %w", err)
	}
	if err := os.Rename(tmp, c.manifestPath); err != nil {
		return fmt.Errorf("cache: rename manifest into place: %w", err)
	}
	return nil
}

// readManifestSnapshot reads the manifest for a pure lookup, without
// acquiring the write lock — safe per §4.2 because writes are full-file
// rewrites under the lock.
func (c *Cache) readManifestSnapshot() (*Manifest, error) {
	fl := flock.New(c.lockPath)
	locked, err := fl.TryRLock()
	if err == nil && locked {
		defer fl.Unlock()
	}
	return c.readManifestLocked()
}

// IsCached reports whether modelID has a manifest entry, without verifying
// the on-disk checksum.
func (c *Cache) IsCached(modelID string) (bool, error) {
	manifest, err := c.readManifestSnapshot()
	if err != nil {
		return false, err
	}
	_, ok := manifest.Models[modelID]
	return ok, nil
}

// Stats summarises the cache contents, per §4.2.
type Stats struct {
	Dir         string
	Count       int
	TotalBytes  int64
	ModelIDs    []string
}

// Stats returns a snapshot of cache occupancy.
func (c *Cache) Stats() (Stats, error) {
	manifest, err := c.readManifestSnapshot()
	if err != nil {
		return Stats{}, err
	}
	ids := make([]string, 0, len(manifest.Models))
	for id := range manifest.Models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return Stats{
		Dir:        c.Dir,
		Count:      len(manifest.Models),
		TotalBytes: manifest.TotalSizeBytes,
		ModelIDs:   ids,
	}, nil
}

// Remove deletes modelID's file and manifest entry. It is not an error to
// remove an absent entry.
func (c *Cache) Remove(modelID string) error {
	return c.withManifestLock(func(m *Manifest) error {
		entry, ok := m.Models[modelID]
		if !ok {
			return nil
		}
		if err := os.Remove(entry.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("cache: remove model file: %w", err)
		}
		m.TotalSizeBytes -= entry.SizeBytes
		delete(m.Models, modelID)
		return nil
	})
}

// Clear removes every cached model and resets the manifest.
func (c *Cache) Clear() error {
	return c.withManifestLock(func(m *Manifest) error {
		for _, entry := range m.Models {
			if err := os.Remove(entry.Path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("cache: remove model file: %w", err)
			}
		}
		m.Models = make(map[string]*CachedModel)
		m.TotalSizeBytes = 0
		return nil
	})
}

// IntegrityReport is the result of ValidateIntegrity.
type IntegrityReport struct {
	Valid     []string
	Corrupted []string
	Missing   []string
}

// ValidateIntegrity reverifies every manifest entry's file presence and
// checksum.
func (c *Cache) ValidateIntegrity() (IntegrityReport, error) {
	manifest, err := c.readManifestSnapshot()
	if err != nil {
		return IntegrityReport{}, err
	}

	var report IntegrityReport
	ids := make([]string, 0, len(manifest.Models))
	for id := range manifest.Models {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		entry := manifest.Models[id]
		sum, err := sha256File(entry.Path)
		if err != nil {
			report.Missing = append(report.Missing, id)
			continue
		}
		if sum != entry.Checksum {
			report.Corrupted = append(report.Corrupted, id)
			continue
		}
		report.Valid = append(report.Valid, id)
	}
	return report, nil
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := copyForHash(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get returns modelID's verified local path, downloading from url first if
// the model is not yet cached. Every call reverifies the on-disk SHA-256
// against the manifest entry, per §4.2's integrity requirement.
func (c *Cache) Get(modelID, url string) (string, error) {
	manifest, err := c.readManifestSnapshot()
	if err != nil {
		return "", err
	}

	if entry, ok := manifest.Models[modelID]; ok {
		sum, err := sha256File(entry.Path)
		if err != nil {
			return "", cmdaierr.Wrap(cmdaierr.KindNotFound, "cached model file missing", err)
		}
		if sum != entry.Checksum {
			return "", cmdaierr.New(cmdaierr.KindChecksumMismatch,
				fmt.Sprintf("model %q on disk does not match its recorded checksum", modelID))
		}
		if err := c.touch(modelID); err != nil {
			return "", err
		}
		return entry.Path, nil
	}

	destPath := filepath.Join(c.Dir, modelID)
	checksum, size, err := downloadModel(url, destPath, nil)
	if err != nil {
		return "", cmdaierr.Wrap(cmdaierr.KindDownloadFailed, fmt.Sprintf("download model %q", modelID), err)
	}

	if err := c.addEntry(modelID, destPath, size, checksum); err != nil {
		return "", err
	}
	return destPath, nil
}

// touch updates last_accessed for modelID under the manifest lock.
func (c *Cache) touch(modelID string) error {
	return c.withManifestLock(func(m *Manifest) error {
		entry, ok := m.Models[modelID]
		if !ok {
			return nil
		}
		entry.LastAccessed = time.Now()
		return nil
	})
}

// addEntry records a freshly downloaded model and triggers LRU eviction if
// the addition pushed the cache over its size limit.
func (c *Cache) addEntry(modelID, path string, size int64, checksum string) error {
	return c.withManifestLock(func(m *Manifest) error {
		now := time.Now()
		m.Models[modelID] = &CachedModel{
			ModelID:      modelID,
			Path:         path,
			SizeBytes:    size,
			Checksum:     checksum,
			DownloadedAt: now,
			LastAccessed: now,
		}
		m.TotalSizeBytes += size
		evictLocked(m)
		return nil
	})
}
