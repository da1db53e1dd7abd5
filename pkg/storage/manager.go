// Package storage places downloaded images on disk under a per-query folder
// layout and keeps the per-query metadata document that maps saved file
// names back to their source URLs.
package storage

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	errs "github.com/BrunoDobem/dowloadimg/pkg/errors"
	"github.com/BrunoDobem/dowloadimg/pkg/logger"
)

// MetadataFileName is the per-query JSON document mapping saved file names
// to source URLs, rewritten wholesale on each run.
const MetadataFileName = "metadata.json"

// Manager handles image persistence, metadata documents and asset lookup.
type Manager struct {
	locator *Locator
	logger  logger.Logger

	// sourceURLs caches filename -> source URL from written or previously
	// read metadata documents, consulted before touching the filesystem.
	mu         sync.RWMutex
	sourceURLs map[string]string
}

// NewManager creates a storage manager over the given locator.
func NewManager(locator *Locator, log logger.Logger) *Manager {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Manager{
		locator:    locator,
		logger:     log,
		sourceURLs: make(map[string]string),
	}
}

// BaseDir resolves the storage root via the locator.
func (m *Manager) BaseDir() (string, error) {
	return m.locator.BaseDir()
}

// QueryDir resolves and creates the folder for a query.
func (m *Manager) QueryDir(query string) (string, error) {
	base, err := m.locator.BaseDir()
	if err != nil {
		return "", err
	}
	return ResolveQueryFolder(base, query)
}

// ImageFileName returns the numbered file name for the nth saved image
// (1-based), matching the persisted layout contract.
func ImageFileName(n int) string {
	return fmt.Sprintf("imagem_%d.jpg", n)
}

// SaveImage writes image bytes as the nth numbered file in dir, via a
// temporary file and atomic rename so readers never see partial writes.
func (m *Manager) SaveImage(dir string, n int, data []byte) (string, error) {
	name := ImageFileName(n)
	path := filepath.Join(dir, name)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", errs.Wrap(errs.ErrorTypeStorage, "failed to write image file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", errs.Wrap(errs.ErrorTypeStorage, "failed to finalize image file", err)
	}

	m.logger.DebugWithFields("image saved", map[string]interface{}{
		"path": path,
		"size": len(data),
	})
	return name, nil
}

// WriteMetadata rewrites the metadata document for dir wholesale and primes
// the in-memory source URL cache with its entries.
func (m *Manager) WriteMetadata(dir string, meta map[string]string) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errs.Wrap(errs.ErrorTypeStorage, "failed to marshal metadata", err)
	}
	if err := os.WriteFile(filepath.Join(dir, MetadataFileName), data, 0644); err != nil {
		return errs.Wrap(errs.ErrorTypeStorage, "failed to write metadata file", err)
	}

	m.mu.Lock()
	for name, url := range meta {
		m.sourceURLs[name] = url
	}
	m.mu.Unlock()

	return nil
}

// ReadAsset locates a previously saved asset by name anywhere under the
// storage root and returns its bytes with a sniffed MIME type.
func (m *Manager) ReadAsset(name string) ([]byte, string, error) {
	path, err := m.findAsset(name)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errs.Wrap(errs.ErrorTypeStorage, "failed to read asset", err)
	}
	return data, http.DetectContentType(data), nil
}

// findAsset walks the per-query folder tree for a file with the given base
// name. Names carrying path separators or parent references are rejected
// before touching the filesystem.
func (m *Manager) findAsset(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return "", errs.New(errs.ErrorTypeNotFound, fmt.Sprintf("invalid asset name %q", name))
	}

	base, err := m.locator.BaseDir()
	if err != nil {
		return "", err
	}

	var found string
	err = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if !d.IsDir() && d.Name() == name {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil || found == "" {
		return "", errs.New(errs.ErrorTypeNotFound, fmt.Sprintf("asset %q not found", name))
	}
	return found, nil
}

// ResolveSourceURL looks up the original source URL for a saved asset,
// consulting the in-memory cache before scanning metadata documents.
func (m *Manager) ResolveSourceURL(name string) (string, error) {
	m.mu.RLock()
	url, ok := m.sourceURLs[name]
	m.mu.RUnlock()
	if ok {
		return url, nil
	}

	base, err := m.locator.BaseDir()
	if err != nil {
		return "", err
	}

	var resolved string
	walkErr := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != MetadataFileName {
			return nil
		}
		meta, err := readMetadataFile(path)
		if err != nil {
			m.logger.WarnWithFields("skipping unreadable metadata document", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			return nil
		}

		m.mu.Lock()
		for n, u := range meta {
			m.sourceURLs[n] = u
		}
		m.mu.Unlock()

		if u, ok := meta[name]; ok {
			resolved = u
			return fs.SkipAll
		}
		return nil
	})
	if walkErr == nil && resolved != "" {
		return resolved, nil
	}
	return "", errs.New(errs.ErrorTypeNotFound, fmt.Sprintf("no source URL recorded for %q", name))
}

func readMetadataFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var meta map[string]string
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// PurgeAll removes the entire storage root recursively and drops the
// in-memory source URL cache. A missing root is a no-op.
func (m *Manager) PurgeAll() error {
	base, err := m.locator.BaseDir()
	if err != nil {
		return err
	}

	if err := os.RemoveAll(base); err != nil {
		return errs.Wrap(errs.ErrorTypeStorage, "failed to remove storage root", err)
	}

	m.mu.Lock()
	m.sourceURLs = make(map[string]string)
	m.mu.Unlock()

	m.logger.InfoWithFields("storage purged", map[string]interface{}{
		"base_dir": base,
	})
	return nil
}
