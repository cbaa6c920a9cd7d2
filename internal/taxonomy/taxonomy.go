// Package taxonomy provides the IAB content taxonomy table and lookup
// service used by segment filtering and validation.
//
// The table is a flat mapping keyed by code with explicit parent references.
// Hierarchy questions are answered by string-prefix matching on codes (see
// match.go), never by tree traversal, so lookups stay O(1) and the table can
// be treated as an immutable snapshot after load.
package taxonomy

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ignite/content-signals/internal/pkg/logger"
)

// MinViableEntries is the sanity-check floor for a taxonomy source. A source
// yielding fewer entries is treated as corrupt and skipped.
const MinViableEntries = 200

// Entry is one taxonomy node.
type Entry struct {
	Code   string   `json:"code"`
	Label  string   `json:"label"`
	Path   []string `json:"path"`
	Level  int      `json:"level"`
	Parent string   `json:"parent,omitempty"`
}

// State describes the lifecycle of the lookup service.
type State string

const (
	// StateUninitialized means Initialize has not completed yet.
	StateUninitialized State = "uninitialized"
	// StateReady means a source loaded with at least MinViableEntries entries.
	StateReady State = "ready"
	// StateDegraded means both sources failed the sanity check; the service
	// stays queryable but every lookup returns the empty/absent sentinel.
	StateDegraded State = "degraded"
)

// Service is the single source of truth for code -> label/path/validity.
// Construct one at startup with NewService and pass it by reference; it is
// safe for concurrent readers once Initialize has been awaited.
type Service struct {
	source Source

	mu    sync.RWMutex
	table map[string]Entry
	state State

	initOnce sync.Once
}

// NewService creates an uninitialized lookup service backed by the given
// source. A nil source means only the bundled fallback dataset is tried.
func NewService(source Source) *Service {
	return &Service{
		source: source,
		table:  map[string]Entry{},
		state:  StateUninitialized,
	}
}

// Initialize populates the taxonomy table from the first viable source:
// the primary source first, then the bundled fallback dataset. It is
// idempotent and single-flight: concurrent callers share one load, and a
// second call after success never re-fetches.
//
// Initialize fails soft. If both sources yield fewer than MinViableEntries
// entries the service transitions to StateDegraded with an empty table
// rather than returning an error; callers must treat the degraded state as
// valid-but-unusable, distinct from not-yet-initialized.
func (s *Service) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		table := s.loadFirstViable(ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		if table != nil {
			s.table = table
			s.state = StateReady
			logger.Info("taxonomy loaded", "entries", len(table))
			return
		}
		s.state = StateDegraded
		logger.Warn("taxonomy degraded: no viable source", "min_entries", MinViableEntries)
	})
}

func (s *Service) loadFirstViable(ctx context.Context) map[string]Entry {
	if s.source != nil {
		entries, err := s.source.Fetch(ctx)
		if err != nil {
			logger.Warn("primary taxonomy source failed", "error", err.Error())
		} else if len(entries) >= MinViableEntries {
			return buildTable(entries)
		} else {
			logger.Warn("primary taxonomy source undersized", "entries", len(entries))
		}
	}

	entries, err := loadFallback()
	if err != nil {
		logger.Error("fallback taxonomy dataset unreadable", "error", err.Error())
		return nil
	}
	if len(entries) < MinViableEntries {
		logger.Error("fallback taxonomy dataset undersized", "entries", len(entries))
		return nil
	}
	return buildTable(entries)
}

// buildTable keys entries by code and derives parent references from code
// structure. Duplicate codes keep the first occurrence. The intermediate map
// is never exposed until fully built.
func buildTable(entries []Entry) map[string]Entry {
	table := make(map[string]Entry, len(entries))
	for _, e := range entries {
		if e.Code == "" {
			continue
		}
		if _, dup := table[e.Code]; dup {
			continue
		}
		e.Parent = parentCode(e.Code)
		table[e.Code] = e
	}
	// Drop parent references that point outside the table so no dangling
	// parents survive the load.
	for code, e := range table {
		if e.Parent != "" {
			if _, ok := table[e.Parent]; !ok {
				e.Parent = ""
				table[code] = e
			}
		}
	}
	return table
}

// parentCode returns the immediate ancestor of a hyphen-delimited code, or
// "" for a top-level code.
func parentCode(code string) string {
	idx := strings.LastIndex(code, "-")
	if idx <= 0 {
		return ""
	}
	return code[:idx]
}

// State reports the current lifecycle state.
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Initialized reports whether Initialize has completed, in either the ready
// or degraded state.
func (s *Service) Initialized() bool {
	return s.State() != StateUninitialized
}

// Count returns the number of loaded taxonomy entries.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.table)
}

// HasCode reports whether the trimmed code exists in the table. Empty input
// is never a valid code.
func (s *Service) HasCode(code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.table[code]
	return ok
}

// Entry returns the taxonomy entry for a code.
func (s *Service) Entry(code string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.table[strings.TrimSpace(code)]
	return e, ok
}

// Label returns the node label for a code, or "" when unknown. Callers rely
// on empty-string-means-absent; this never returns an error.
func (s *Service) Label(code string) string {
	e, ok := s.Entry(code)
	if !ok {
		return ""
	}
	return e.Label
}

// FullPath returns the root-to-node path joined with " > ", or "" when the
// code is unknown.
func (s *Service) FullPath(code string) string {
	e, ok := s.Entry(code)
	if !ok {
		return ""
	}
	return strings.Join(e.Path, " > ")
}

// ==========================================
// DISPLAY STRINGS
// ==========================================

// DisplayFormat selects how DisplayString renders a code.
type DisplayFormat string

const (
	FormatCodeOnly  DisplayFormat = "codeOnly"
	FormatLabelOnly DisplayFormat = "labelOnly"
	FormatPathOnly  DisplayFormat = "pathOnly"
	FormatStandard  DisplayFormat = "standard"
)

// DisplayOptions controls DisplayString composition for FormatStandard.
type DisplayOptions struct {
	Format   DisplayFormat
	ShowPath bool
	ShowCode bool
}

// DefaultDisplayOptions matches the selection-widget default: "Label (CODE)".
func DefaultDisplayOptions() DisplayOptions {
	return DisplayOptions{Format: FormatStandard, ShowCode: true}
}

// DisplayString formats a code for human display. Unknown codes degrade to
// the trimmed raw code unchanged, so the result is always non-empty for
// non-empty input.
func (s *Service) DisplayString(code string, opts DisplayOptions) string {
	code = strings.TrimSpace(code)
	if opts.Format == FormatCodeOnly {
		return code
	}

	e, ok := s.Entry(code)
	if !ok {
		return code
	}

	switch opts.Format {
	case FormatLabelOnly:
		return e.Label
	case FormatPathOnly:
		return strings.Join(e.Path, " > ")
	default: // FormatStandard
		text := e.Label
		if opts.ShowPath {
			text = strings.Join(e.Path, " > ")
		}
		if opts.ShowCode {
			return text + " (" + code + ")"
		}
		return text
	}
}

// ==========================================
// OPTION LISTS
// ==========================================

// Option is one selectable taxonomy entry for UI population.
type Option struct {
	Code    string `json:"code"`
	Label   string `json:"label"`
	Display string `json:"display"`
	Level   int    `json:"level"`
}

// AllOptions returns every taxonomy entry as a display option, sorted by the
// numeric code ordering (a prefix code sorts before its descendants, IAB9
// before IAB10) with a case-insensitive label tiebreak. With includeHierarchy
// the display string carries the full path; otherwise the node label.
func (s *Service) AllOptions(includeHierarchy bool) []Option {
	s.mu.RLock()
	entries := make([]Entry, 0, len(s.table))
	for _, e := range s.table {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if c := CompareCodes(entries[i].Code, entries[j].Code); c != 0 {
			return c < 0
		}
		return strings.ToLower(entries[i].Label) < strings.ToLower(entries[j].Label)
	})

	opts := make([]Option, len(entries))
	for i, e := range entries {
		display := e.Label
		if includeHierarchy && len(e.Path) > 0 {
			display = strings.Join(e.Path, " > ")
		}
		opts[i] = Option{
			Code:    e.Code,
			Label:   e.Label,
			Display: display + " (" + e.Code + ")",
			Level:   e.Level,
		}
	}
	return opts
}
