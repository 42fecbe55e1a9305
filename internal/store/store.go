// Package store reads and writes the database JSON files. It is the only
// place that touches the data directory: parse, pretty-printed save, the
// pre-mutation backup copy, and a parsed-document cache guarded by checksum
// change detection.
//
// There is no cross-process locking: two simultaneous invocations against
// the same file can still race, exactly as the script suite it replaces.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/opforge/ies4ctl/internal/catalog"
	"github.com/opforge/ies4ctl/internal/model"
)

var (
	// ErrNotFound means the database file does not exist.
	ErrNotFound = errors.New("database file not found")
	// ErrInvalidFormat means the file exists but is not parseable JSON.
	ErrInvalidFormat = errors.New("database file is not valid JSON")
)

// Store manages the files of one data directory.
type Store struct {
	dataDir string
	backup  bool
	log     *zap.SugaredLogger

	cache    *gocache.Cache // nil when caching is disabled
	cacheTTL time.Duration

	mu     sync.Mutex
	states map[string]fileState

	// now is stubbed in tests for deterministic backup names.
	now func() time.Time
}

// New creates a Store over dataDir. The directory must already exist; the
// tool never guesses or creates data locations.
func New(dataDir string, cfg *model.Config, log *zap.SugaredLogger) (*Store, error) {
	info, err := os.Stat(dataDir)
	if err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data directory %s is not a directory", dataDir)
	}

	s := &Store{
		dataDir: dataDir,
		backup:  cfg.Backup.Enabled,
		log:     log,
		states:  make(map[string]fileState),
		now:     time.Now,
	}
	if cfg.Cache.Enabled {
		s.cacheTTL = cfg.Cache.TTL
		s.cache = gocache.New(cfg.Cache.TTL, 10*time.Minute)
	}
	return s, nil
}

// Path returns the absolute path of a database file.
func (s *Store) Path(db catalog.Database) string {
	return filepath.Join(s.dataDir, db.File)
}

// Load reads and parses a database file. Unless force is set, an unchanged
// file (same mtime and checksum as the last load) is served from the cache.
func (s *Store) Load(db catalog.Database, force bool) (*model.Document, error) {
	path := s.Path(db)

	if s.cache != nil && !force {
		changed, err := s.hasChanged(path)
		if err == nil && !changed {
			if cached, ok := s.cache.Get(path); ok {
				s.log.Debugw("serving database from cache", "database", db.Code, "path", path)
				return cached.(*model.Document), nil
			}
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	doc, err := model.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFormat, path, err)
	}

	s.remember(path, data)
	if s.cache != nil {
		s.cache.Set(path, doc, s.cacheTTL)
	}
	s.log.Debugw("loaded database", "database", db.Code, "path", path, "bytes", len(data))
	return doc, nil
}

// Save writes the document back with 2-space indentation, taking a
// timestamped backup copy of the previous contents first. The write is the
// operation's durable effect; everything downstream is best-effort.
func (s *Store) Save(db catalog.Database, doc *model.Document) error {
	path := s.Path(db)

	data, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", db.Code, err)
	}

	if s.backup {
		if err := s.backupFile(path); err != nil {
			return err
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	s.remember(path, data)
	if s.cache != nil {
		s.cache.Set(path, doc, s.cacheTTL)
	}
	s.log.Infow("wrote database", "database", db.Code, "path", path, "bytes", len(data))
	return nil
}

// backupFile copies the current file to <name>_backup_<timestamp>.json in
// the same directory. A missing original is fine: first write, nothing to
// back up.
func (s *Store) backupFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read for backup %s: %w", path, err)
	}

	stamp := s.now().Format("20060102_150405")
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	backupPath := filepath.Join(filepath.Dir(path), fmt.Sprintf("%s_backup_%s%s", name, stamp, ext))

	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return fmt.Errorf("write backup %s: %w", backupPath, err)
	}
	s.log.Infow("backed up database file", "path", path, "backup", backupPath)
	return nil
}
