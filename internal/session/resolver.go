package session

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"cardvault/internal/logging"
)

// IsoDateLayout names archive day directories.
const IsoDateLayout = "2006-01-02"

type cacheKey struct {
	base string
	date string
}

// DirectoryCache memoizes resolved day directories per (base path, ISO date).
type DirectoryCache struct {
	entries map[cacheKey]string
}

// NewDirectoryCache returns an empty cache.
func NewDirectoryCache() *DirectoryCache {
	return &DirectoryCache{entries: make(map[cacheKey]string)}
}

// Get returns the cached directory for base and date.
func (c *DirectoryCache) Get(base, date string) (string, bool) {
	dir, ok := c.entries[cacheKey{base: filepath.Clean(base), date: date}]
	return dir, ok
}

// Put records dir as the resolution for base and date.
func (c *DirectoryCache) Put(base, date, dir string) {
	c.entries[cacheKey{base: filepath.Clean(base), date: date}] = dir
}

// Len reports the number of cached keys.
func (c *DirectoryCache) Len() int {
	return len(c.entries)
}

// Resolver finds or creates day directories beneath archive roots.
type Resolver struct {
	fs     afero.Fs
	cache  *DirectoryCache
	logger *slog.Logger
}

// NewResolver returns a Resolver operating on fsys with a fresh cache.
func NewResolver(fsys afero.Fs, logger *slog.Logger) *Resolver {
	return &Resolver{
		fs:     fsys,
		cache:  NewDirectoryCache(),
		logger: logging.NewComponentLogger(logger, "session"),
	}
}

// Cache exposes the resolver's memoization table.
func (r *Resolver) Cache() *DirectoryCache {
	return r.cache
}

// DirectoryFor returns the directory for the calendar date of t under basePath.
// The date is taken in t's own location.
func (r *Resolver) DirectoryFor(basePath string, t time.Time) (string, error) {
	isoDate := t.Format(IsoDateLayout)
	if dir, ok := r.cache.Get(basePath, isoDate); ok {
		return dir, nil
	}

	dir, err := findDayDirectory(r.fs, basePath, isoDate)
	if err != nil {
		return "", err
	}
	if dir == "" {
		yearDir := filepath.Join(basePath, strconv.Itoa(t.Year()))
		if dir, err = findDayDirectory(r.fs, yearDir, isoDate); err != nil {
			return "", err
		}
	}
	if dir == "" {
		dir = filepath.Join(basePath, isoDate)
		if err := r.fs.Mkdir(dir, 0o755); err != nil {
			return "", fmt.Errorf("create day directory %s: %w", dir, err)
		}
		r.logger.Debug("created day directory", logging.String("dir", dir))
	} else {
		r.logger.Debug("reusing day directory", logging.String("dir", dir))
	}

	r.cache.Put(basePath, isoDate, dir)
	return dir, nil
}

// findDayDirectory returns the first directory in parent, by name, whose name
// starts with isoDate, or "" when parent is missing or has none.
func findDayDirectory(fsys afero.Fs, parent, isoDate string) (string, error) {
	entries, err := afero.ReadDir(fsys, parent)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("list %s: %w", parent, err)
	}
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), isoDate) {
			continue
		}
		path := filepath.Join(parent, entry.Name())
		if entry.Mode()&fs.ModeSymlink != 0 {
			target, err := fsys.Stat(path)
			if err != nil || !target.IsDir() {
				continue
			}
			return path, nil
		}
		if entry.IsDir() {
			return path, nil
		}
	}
	return "", nil
}
