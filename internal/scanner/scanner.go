// Package scanner ingests menu documents from a watched directory.
//
// A scan walks the directory once and parses every supported document; watch
// mode keeps ingesting as files appear or change. Both paths converge on
// IngestFile, which decodes, parses and stores one document and records the
// outcome for the status endpoint.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/canteen-works/mensa/internal/clock"
	"github.com/canteen-works/mensa/internal/grid"
	"github.com/canteen-works/mensa/internal/parser"
	"github.com/canteen-works/mensa/internal/sheet"
	"github.com/canteen-works/mensa/internal/store"
)

// ingest retry policy: a document picked up mid-copy fails to decode, so a
// few spaced attempts let the writer finish.
const (
	ingestAttempts = 3
	ingestDelay    = 200 * time.Millisecond
)

// debounce delay between a filesystem event and the ingest it triggers.
const watchDebounce = 500 * time.Millisecond

// Status is the scanner state reported by the API.
type Status struct {
	Dir       string    `json:"dir"`
	Watching  bool      `json:"watching"`
	Scanning  bool      `json:"scanning"`
	LastScan  time.Time `json:"lastScan,omitzero"`
	Documents int       `json:"documents"`
}

// Scanner ingests documents from one directory into the store.
type Scanner struct {
	dir   string
	store *store.Store
	clock *clock.Clock
	log   *slog.Logger

	mu       sync.Mutex
	watching bool
	scanning bool
	lastScan time.Time
	times    parser.MealTimes
}

// New builds a scanner over dir. The directory is created if absent.
func New(dir string, st *store.Store, clk *clock.Clock, log *slog.Logger) (*Scanner, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create menu directory: %w", err)
	}
	return &Scanner{dir: dir, store: st, clock: clk, log: log}, nil
}

// Dir returns the scanned directory.
func (s *Scanner) Dir() string {
	return s.dir
}

// SetMealTimes sets the serving-time overrides applied to parsed meals whose
// documents carry no explicit time. Safe to call while watching; documents
// ingested afterwards pick up the new times.
func (s *Scanner) SetMealTimes(times parser.MealTimes) {
	s.mu.Lock()
	s.times = times
	s.mu.Unlock()
}

func (s *Scanner) mealTimes() parser.MealTimes {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.times
}

// Scan walks the directory once and ingests every supported document.
// Per-document failures are recorded and logged, not returned; only a
// directory read failure is an error.
func (s *Scanner) Scan(ctx context.Context) (int, error) {
	s.setScanning(true)
	defer s.setScanning(false)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read menu directory: %w", err)
	}

	ingested := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return ingested, ctx.Err()
		}
		if entry.IsDir() || !sheet.Supported(entry.Name()) || hidden(entry.Name()) {
			continue
		}
		if err := s.IngestFile(ctx, filepath.Join(s.dir, entry.Name())); err != nil {
			s.log.Warn("document ingest failed", "file", entry.Name(), "error", err)
			continue
		}
		ingested++
	}

	s.mu.Lock()
	s.lastScan = s.clock.Now()
	s.mu.Unlock()

	s.log.Info("menu directory scanned", "dir", s.dir, "ingested", ingested)
	return ingested, nil
}

// IngestFile decodes, parses and stores one document. Decoding is retried a
// few times so files still being written settle before they count as bad.
// The outcome is recorded either way.
func (s *Scanner) IngestFile(ctx context.Context, path string) error {
	name := filepath.Base(path)

	g, err := retry.DoWithData(
		func() (*grid.Grid, error) { return sheet.Decode(path) },
		retry.Context(ctx),
		retry.Attempts(ingestAttempts),
		retry.Delay(ingestDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		s.recordFailure(name, err)
		return fmt.Errorf("decode %s: %w", name, err)
	}

	menus, report, err := parser.Parse(g, s.clock.Reference(), s.mealTimes())
	if err != nil {
		s.recordFailure(name, err)
		return fmt.Errorf("parse %s: %w", name, err)
	}

	s.store.PutAll(menus)
	s.store.RecordSource(store.SourceRecord{
		Name:      name,
		ParsedAt:  s.clock.Now(),
		Menus:     len(menus),
		RowIssues: len(report.Issues),
	})
	s.log.Info("document ingested",
		"file", name,
		"layout", report.Layout.String(),
		"menus", len(menus),
		"rowIssues", len(report.Issues))
	return nil
}

func (s *Scanner) recordFailure(name string, err error) {
	s.store.RecordSource(store.SourceRecord{
		Name:     name,
		ParsedAt: s.clock.Now(),
		Error:    err.Error(),
	})
}

// Watch ingests documents as they appear or change, until the context is
// canceled. An initial full scan runs first so the store is warm before
// events start trickling in.
func (s *Scanner) Watch(ctx context.Context) error {
	if _, err := s.Scan(ctx); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create directory watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}

	s.setWatching(true)
	defer s.setWatching(false)
	s.log.Info("watching menu directory", "dir", s.dir)

	// One timer per path coalesces the event bursts editors and copies
	// produce into a single ingest.
	pending := map[string]*time.Timer{}
	var pendingMu sync.Mutex

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !sheet.Supported(event.Name) || hidden(filepath.Base(event.Name)) {
				continue
			}
			path := event.Name
			pendingMu.Lock()
			if t, ok := pending[path]; ok {
				t.Stop()
			}
			pending[path] = time.AfterFunc(watchDebounce, func() {
				pendingMu.Lock()
				delete(pending, path)
				pendingMu.Unlock()
				if err := s.IngestFile(ctx, path); err != nil {
					s.log.Warn("document ingest failed", "file", filepath.Base(path), "error", err)
				}
			})
			pendingMu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("directory watcher error", "error", err)
		}
	}
}

// Status returns a snapshot of the scanner state.
func (s *Scanner) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Dir:       s.dir,
		Watching:  s.watching,
		Scanning:  s.scanning,
		LastScan:  s.lastScan,
		Documents: len(s.store.Sources()),
	}
}

func (s *Scanner) setScanning(v bool) {
	s.mu.Lock()
	s.scanning = v
	s.mu.Unlock()
}

func (s *Scanner) setWatching(v bool) {
	s.mu.Lock()
	s.watching = v
	s.mu.Unlock()
}

// hidden filters dotfiles and editor temp files out of ingestion.
func hidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~")
}
