package processor

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/linuxmatters/binmix/internal/engine"
	"github.com/linuxmatters/binmix/internal/params"
)

type cacheKey struct {
	source string // absolute source path
	rate   int
}

// ResampleCache maps effect source files to copies resampled to a target
// rate. Entries live in the build directory and are never evicted: an
// artifact already on disk is reused without calling the engine.
type ResampleCache struct {
	engine engine.Engine
	dir    string
	logger *slog.Logger

	entries map[cacheKey]string
	owners  map[string]string // artifact path -> source that claimed it
}

// NewResampleCache returns a cache writing into dir.
func NewResampleCache(eng engine.Engine, dir string, logger *slog.Logger) *ResampleCache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ResampleCache{
		engine:  eng,
		dir:     dir,
		logger:  logger,
		entries: make(map[cacheKey]string),
		owners:  make(map[string]string),
	}
}

// Resolve returns, for every distinct effect file, the path of a copy at
// rate. Keys are the File values exactly as given; the first occurrence of a
// file decides its artifact.
func (c *ResampleCache) Resolve(effects []params.EffectParams, rate int) (map[string]string, error) {
	resolved := make(map[string]string, len(effects))
	for _, fx := range effects {
		if _, ok := resolved[fx.File]; ok {
			continue
		}
		path, err := c.Get(fx.File, rate)
		if err != nil {
			return nil, err
		}
		resolved[fx.File] = path
	}
	return resolved, nil
}

// Get returns the artifact for one source file at rate, resampling it when
// the build directory does not already hold it.
func (c *ResampleCache) Get(file string, rate int) (string, error) {
	key := cacheKey{source: sourceID(file), rate: rate}
	path, ok := c.entries[key]
	if !ok {
		path = c.artifactPath(key)
		c.owners[path] = key.source
		c.entries[key] = path
	}

	// A remembered entry is only a name; the build directory may have been
	// cleared since it was made
	_, err := os.Stat(path)
	switch {
	case err == nil:
		c.logger.Debug("resample cache hit", "source", file, "rate", rate, "artifact", path)
		return path, nil
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("failed to check cache entry %s: %w", path, err)
	}

	c.logger.Debug("resampling effect", "source", file, "rate", rate, "artifact", path)
	if err := c.engine.Resample(file, path, rate); err != nil {
		delete(c.entries, key)
		delete(c.owners, path)
		// A failed resample must not leave a partial entry for the next run
		_ = os.Remove(path)
		return "", fmt.Errorf("resample %s: %w", file, err)
	}
	return path, nil
}

// artifactPath names the entry <base>-<rate>.wav, falling back to a
// hash-qualified <base>-<xxhash8>-<rate>.wav when another source file with
// the same base name already claimed that path in this cache.
func (c *ResampleCache) artifactPath(key cacheKey) string {
	base := filepath.Base(key.source)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	path := filepath.Join(c.dir, fmt.Sprintf("%s-%d.wav", base, key.rate))
	if owner, ok := c.owners[path]; !ok || owner == key.source {
		return path
	}
	sum := uint32(xxhash.Sum64String(key.source))
	return filepath.Join(c.dir, fmt.Sprintf("%s-%08x-%d.wav", base, sum, key.rate))
}

// sourceID identifies a source file independently of how its path was
// spelled on the command line.
func sourceID(file string) string {
	if abs, err := filepath.Abs(file); err == nil {
		return abs
	}
	return filepath.Clean(file)
}
