package taxonomy

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ignite/content-signals/internal/pkg/httpretry"
)

// ErrNoSource is returned by TSVSource.Fetch when no location is configured.
var ErrNoSource = errors.New("taxonomy: no source configured")

// Source yields taxonomy entries from somewhere external. Fetch is called at
// most once per process by Service.Initialize.
type Source interface {
	Fetch(ctx context.Context) ([]Entry, error)
}

// TSVSource fetches a taxonomy TSV over HTTP or from a local file.
type TSVSource struct {
	// Location is either an http(s) URL or a filesystem path.
	Location string
	// Client executes HTTP fetches; nil gets a retrying default.
	Client httpretry.HTTPDoer
}

// NewTSVSource creates a source with a retrying HTTP client.
func NewTSVSource(location string) *TSVSource {
	return &TSVSource{
		Location: location,
		Client:   httpretry.NewRetryClient(&http.Client{Timeout: 30 * time.Second}, 3),
	}
}

// Fetch reads and parses the configured TSV.
func (s *TSVSource) Fetch(ctx context.Context) ([]Entry, error) {
	if s.Location == "" {
		return nil, ErrNoSource
	}

	var r io.ReadCloser
	if strings.HasPrefix(s.Location, "http://") || strings.HasPrefix(s.Location, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Location, nil)
		if err != nil {
			return nil, fmt.Errorf("taxonomy: build request: %w", err)
		}
		client := s.Client
		if client == nil {
			client = httpretry.NewRetryClient(nil, 3)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("taxonomy: fetch %s: %w", s.Location, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("taxonomy: fetch %s: HTTP %d", s.Location, resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(s.Location)
		if err != nil {
			return nil, fmt.Errorf("taxonomy: open %s: %w", s.Location, err)
		}
		r = f
	}
	defer r.Close()

	return ParseTSV(r)
}

// Header variants seen across published taxonomy spreadsheets.
var (
	codeColumns = []string{"code", "iab code", "iab_code", "taxonomy code", "node code", "node id", "nodeid", "id"}
	nameColumns = []string{"name", "label", "title", "taxonomy name", "node name", "english name"}
)

// ParseTSV parses a taxonomy TSV into entries. The parser is tolerant of
// header variants (Code/Name/Tier columns under several spellings), skips
// malformed or blank rows rather than failing the load, and derives path and
// level from the tier columns. A missing label falls back to the deepest
// tier, then to the code itself.
func ParseTSV(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("taxonomy: empty TSV, no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("taxonomy: read header: %w", err)
	}
	// Strip a UTF-8 BOM from the first cell if present.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	codeIdx := findColumn(header, codeColumns)
	nameIdx := findColumn(header, nameColumns)
	tierIdxs := findTierColumns(header)
	if codeIdx < 0 {
		return nil, errors.New("taxonomy: missing code column in TSV header")
	}

	var entries []Entry
	seen := map[string]bool{}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed row, skip it rather than failing the whole load.
			continue
		}

		code := cell(row, codeIdx)
		if code == "" {
			continue
		}
		if seen[code] {
			continue
		}

		var path []string
		for _, ti := range tierIdxs {
			if v := cell(row, ti); v != "" {
				path = append(path, lastPathSegmentAware(v))
			}
		}

		label := cell(row, nameIdx)
		if label == "" && len(path) > 0 {
			label = path[len(path)-1]
		}
		if label == "" {
			label = code
		}
		if len(path) == 0 {
			path = []string{label}
		}

		seen[code] = true
		entries = append(entries, Entry{
			Code:  code,
			Label: label,
			Path:  path,
			Level: len(path),
		})
	}
	return entries, nil
}

// lastPathSegmentAware collapses "A > B > C" style tier cells to their final
// segment, which some spreadsheet exports use instead of one column per tier.
func lastPathSegmentAware(v string) string {
	if strings.Contains(v, ">") {
		parts := strings.Split(v, ">")
		return strings.TrimSpace(parts[len(parts)-1])
	}
	return v
}

func findColumn(header []string, candidates []string) int {
	for _, cand := range candidates {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), cand) {
				return i
			}
		}
	}
	return -1
}

func findTierColumns(header []string) []int {
	var idxs []int
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		if strings.HasPrefix(h, "tier") {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
