// Package archive implements the Archive Manager (C10): named whole-file
// copies of the working SQLite database, with a full search-mirror reindex
// triggered on load. Grounded on the teacher's internal/storage (formerly
// internal/sessions) file-handle-per-database shape for how a Store wraps
// one SQLite file, and on internal/skills' fsnotify.Watcher usage for
// observing a directory of files without polling.
package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lucidframe/conversa/internal/clock"
	"github.com/lucidframe/conversa/internal/observability"
	"github.com/lucidframe/conversa/internal/search"
	"github.com/lucidframe/conversa/internal/storage"
)

// ErrExists is returned by Create when an archive of that name already exists.
var ErrExists = fmt.Errorf("archive: already exists")

// ErrNotExist is returned by Overwrite, Delete and Load when no archive of
// that name exists.
var ErrNotExist = fmt.Errorf("archive: does not exist")

// Info describes one archive file, per spec.md §4.10's list() contract
// ("filesystem scan with size/ctime/mtime").
type Info struct {
	Name  string
	Size  int64
	Ctime time.Time
	Mtime time.Time
}

// Manager is C10: the process-wide archive operations over one working
// database file and a sibling archives directory. All operations serialize
// on a single lock (spec.md §4.10: "One process-wide lock serializes all
// archive operations"); the "currently loaded" archive is intentionally
// never surfaced (the working file is always the single source of truth).
type Manager struct {
	mu sync.Mutex

	workingPath string
	archivesDir string

	clock  *clock.Clock
	mirror *search.Client
	logger *observability.Logger

	store   *storage.Store
	watcher *fsnotify.Watcher
}

// Options configures a new Manager.
type Options struct {
	WorkingPath string
	ArchivesDir string
	Clock       *clock.Clock
	Mirror      *search.Client // nil disables mirror reindex on load/reset
	Logger      *observability.Logger
}

// NewManager opens (or reuses) the working store at opts.WorkingPath and
// starts watching opts.ArchivesDir, creating it if absent.
func NewManager(opts Options) (*Manager, error) {
	if opts.Logger == nil {
		opts.Logger = observability.NewLogger(observability.LogConfig{Level: "info", Format: "json"})
	}
	if err := os.MkdirAll(opts.ArchivesDir, 0o755); err != nil {
		return nil, fmt.Errorf("archive: create archives dir: %w", err)
	}

	s, err := storage.Open(opts.WorkingPath)
	if err != nil {
		return nil, fmt.Errorf("archive: open working db: %w", err)
	}
	if opts.Clock != nil {
		s.AttachClock(opts.Clock)
	}

	m := &Manager{
		workingPath: opts.WorkingPath,
		archivesDir: opts.ArchivesDir,
		clock:       opts.Clock,
		mirror:      opts.Mirror,
		logger:      opts.Logger,
		store:       s,
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		opts.Logger.Warn(context.Background(), "archive: fsnotify unavailable, list() falls back to plain directory scans", "error", err)
	} else if err := watcher.Add(opts.ArchivesDir); err != nil {
		opts.Logger.Warn(context.Background(), "archive: watch archives dir failed", "error", err)
		_ = watcher.Close()
	} else {
		m.watcher = watcher
		go m.watchLoop()
	}

	return m, nil
}

// watchLoop logs externally-placed or removed archive files; List() itself
// always re-scans the directory, so this is observability only, not a cache.
func (m *Manager) watchLoop() {
	for {
		select {
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.logger.Info(context.Background(), "archive directory changed", "op", ev.Op.String(), "name", ev.Name)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn(context.Background(), "archive watcher error", "error", err)
		}
	}
}

// Close stops the directory watcher and the working store's handle.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watcher != nil {
		_ = m.watcher.Close()
	}
	return m.store.Close()
}

// Store returns the currently open working database handle. Callers must
// not cache this across a Load or ResetWorking call, both of which swap it.
func (m *Manager) Store() *storage.Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store
}

// SetClock wires c into the manager after construction, attaching it to the
// current working store. Needed because building a Clock requires a Store
// (to satisfy clock.Store's GetClock/PutClock) that only exists once
// NewManager has opened the working file — so Options.Clock can't be
// populated on the first caller that wants both in one working file.
// reopen() keeps c attached across a future Load/ResetWorking.
func (m *Manager) SetClock(c *clock.Clock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = c
	m.store.AttachClock(c)
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.archivesDir, name+".db")
}

// Create copies the working database to a new archive named name.
func (m *Manager) Create(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dst := m.path(name)
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, name)
	}
	return copyFile(m.workingPath, dst)
}

// CreateEmpty creates a new archive with the C2 schema applied but no rows.
func (m *Manager) CreateEmpty(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dst := m.path(name)
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, name)
	}
	s, err := storage.Open(dst)
	if err != nil {
		return fmt.Errorf("archive: create empty %s: %w", name, err)
	}
	return s.Close()
}

// Overwrite replaces an existing archive's contents with the working
// database's current contents.
func (m *Manager) Overwrite(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dst := m.path(name)
	if _, err := os.Stat(dst); err != nil {
		return fmt.Errorf("%w: %s", ErrNotExist, name)
	}
	return copyFile(m.workingPath, dst)
}

// Delete removes an archive file.
func (m *Manager) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dst := m.path(name)
	if err := os.Remove(dst); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotExist, name)
		}
		return fmt.Errorf("archive: delete %s: %w", name, err)
	}
	return nil
}

// List scans the archives directory, per spec.md §4.10's list() contract.
func (m *Manager) List() ([]Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries, err := os.ReadDir(m.archivesDir)
	if err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	var out []Info
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".db" {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{
			Name:  strings.TrimSuffix(e.Name(), ".db"),
			Size:  fi.Size(),
			Mtime: fi.ModTime(),
			Ctime: ctime(fi),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Load replaces the working database's contents with archive name's, then
// triggers a full C3 reindex, per spec.md §4.10. Returns the (re-opened)
// working store.
func (m *Manager) Load(ctx context.Context, name string) (*storage.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	src := m.path(name)
	if _, err := os.Stat(src); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, name)
	}

	if err := m.store.Close(); err != nil {
		return nil, fmt.Errorf("archive: close working db: %w", err)
	}
	// copyFile stages into a temp file and renames atomically, so the
	// working file is untouched if the copy fails: reopening it below is
	// always safe, on both the success and failure path.
	copyErr := copyFile(src, m.workingPath)
	if err := m.reopen(); err != nil {
		return nil, err
	}
	if copyErr != nil {
		return nil, copyErr
	}
	if err := m.reindex(ctx); err != nil {
		return nil, fmt.Errorf("archive: reindex after load: %w", err)
	}
	return m.store, nil
}

// ResetWorking recreates an empty working database and reindexes (to an
// empty mirror), per spec.md §4.10's reset_working() contract.
func (m *Manager) ResetWorking(ctx context.Context) (*storage.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Close(); err != nil {
		return nil, fmt.Errorf("archive: close working db: %w", err)
	}
	if err := os.Remove(m.workingPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("archive: remove working db: %w", err)
	}
	if err := m.reopen(); err != nil {
		return nil, err
	}
	if err := m.reindex(ctx); err != nil {
		return nil, fmt.Errorf("archive: reindex after reset: %w", err)
	}
	return m.store, nil
}

func (m *Manager) reopen() error {
	s, err := storage.Open(m.workingPath)
	if err != nil {
		return fmt.Errorf("archive: reopen working db: %w", err)
	}
	if m.clock != nil {
		s.AttachClock(m.clock)
	}
	m.store = s
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("archive: open %s: %w", src, err)
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("archive: create %s: %w", tmp, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("archive: copy %s -> %s: %w", src, dst, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

func ctime(fi os.FileInfo) time.Time {
	// os.FileInfo has no portable ctime; mtime is the closest cross-platform
	// substitute and matches what a bare filesystem scan can offer.
	return fi.ModTime()
}
