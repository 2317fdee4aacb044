// Package store holds extracted menus in memory, keyed by calendar date.
//
// The store is the single shared state between the scanner, the upload path
// and the HTTP API, so all access goes through one RWMutex. Persistence is
// a whole-store JSON snapshot; there is no database.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/canteen-works/mensa/internal/menu"
)

// SourceRecord describes one ingested document and what came out of it.
type SourceRecord struct {
	Name      string    `json:"name"`
	ParsedAt  time.Time `json:"parsedAt"`
	Menus     int       `json:"menus"`
	RowIssues int       `json:"rowIssues"`
	Error     string    `json:"error,omitempty"`
}

// Store is a concurrency-safe map of date to daily menu.
type Store struct {
	mu      sync.RWMutex
	menus   map[string]menu.DailyMenu
	sources map[string]SourceRecord
}

// New returns an empty store.
func New() *Store {
	return &Store{
		menus:   make(map[string]menu.DailyMenu),
		sources: make(map[string]SourceRecord),
	}
}

// Put upserts one daily menu. A later document for the same date replaces
// the whole day; merging partial days across documents is not attempted.
func (s *Store) Put(m menu.DailyMenu) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menus[m.Date] = m
}

// PutAll upserts a batch of daily menus.
func (s *Store) PutAll(menus []menu.DailyMenu) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range menus {
		s.menus[m.Date] = m
	}
}

// Get returns the menu for the exact date.
func (s *Store) Get(date string) (menu.DailyMenu, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.menus[date]
	return m, ok
}

// Resolve returns the menu for the date, preferring the most recent earlier
// date when the exact day is missing. When every stored menu is later than
// the requested date the most recent menu overall is served, so a store
// holding only next week still answers for today. fallback reports whether
// the returned menu is a substitute.
func (s *Store) Resolve(date string) (m menu.DailyMenu, fallback, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if m, ok := s.menus[date]; ok {
		return m, false, true
	}

	best := ""
	for d := range s.menus {
		if d < date && d > best {
			best = d
		}
	}
	if best == "" {
		for d := range s.menus {
			if d > best {
				best = d
			}
		}
	}
	if best == "" {
		return menu.DailyMenu{}, false, false
	}
	return s.menus[best], true, true
}

// Latest returns the menu with the greatest date.
func (s *Store) Latest() (menu.DailyMenu, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best := ""
	for d := range s.menus {
		if d > best {
			best = d
		}
	}
	if best == "" {
		return menu.DailyMenu{}, false
	}
	return s.menus[best], true
}

// Dates returns every stored date in ascending order.
func (s *Store) Dates() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dates := make([]string, 0, len(s.menus))
	for d := range s.menus {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Range returns menus with from <= date <= to, ascending. Empty bounds are
// open.
func (s *Store) Range(from, to string) []menu.DailyMenu {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []menu.DailyMenu
	for d, m := range s.menus {
		if from != "" && d < from {
			continue
		}
		if to != "" && d > to {
			continue
		}
		out = append(out, m)
	}
	menu.SortMenus(out)
	return out
}

// Len returns the number of stored days.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.menus)
}

// All returns every stored menu in ascending date order.
func (s *Store) All() []menu.DailyMenu {
	return s.Range("", "")
}

// RecordSource upserts the ingest record for one document, keyed by name.
func (s *Store) RecordSource(rec SourceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[rec.Name] = rec
}

// Sources returns every ingest record, sorted by document name.
func (s *Store) Sources() []SourceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SourceRecord, 0, len(s.sources))
	for _, rec := range s.sources {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
