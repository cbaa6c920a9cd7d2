// Package attribution ingests uploaded advertising attribution metrics
// (CTR, conversions, viewability, ...) from CSV and normalizes them into
// per-URL records for merging with classification data.
package attribution

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ErrNoURLColumn is returned when the CSV header carries no recognizable URL column.
var ErrNoURLColumn = errors.New("attribution: missing url column in CSV header")

// Record holds the attribution metrics uploaded for one URL. Metric pointers
// are nil when the column was absent or the cell was blank/unparseable.
type Record struct {
	URL string `json:"url"`

	Conversions *float64 `json:"conversions,omitempty"`
	Revenue     *float64 `json:"revenue,omitempty"`
	Impressions *float64 `json:"impressions,omitempty"`
	Clicks      *float64 `json:"clicks,omitempty"`
	CTR         *float64 `json:"ctr,omitempty"`
	Viewability *float64 `json:"viewability,omitempty"`
	ScrollDepth *float64 `json:"scroll_depth,omitempty"`
	FillRate    *float64 `json:"fill_rate,omitempty"`
	TimeOnPage  *float64 `json:"time_on_page,omitempty"`

	UploadedAt time.Time `json:"uploaded_at"`
}

// ParseStats summarizes one CSV parse.
type ParseStats struct {
	RowsTotal   int `json:"rows_total"`
	RowsParsed  int `json:"rows_parsed"`
	RowsSkipped int `json:"rows_skipped"`
	CTRComputed int `json:"ctr_computed"`
}

// Column spellings accepted for each metric. Upload sources disagree on
// naming, so matching is case-insensitive over the whole set.
var metricColumns = map[string][]string{
	"conversions":  {"conversions", "conv", "total_conversions"},
	"revenue":      {"revenue", "rev", "total_revenue"},
	"impressions":  {"impressions", "imps", "impr"},
	"clicks":       {"clicks", "total_clicks"},
	"ctr":          {"ctr", "click_through_rate", "click-through rate"},
	"viewability":  {"viewability", "viewable_rate"},
	"scroll_depth": {"scroll_depth", "scroll depth", "scroll"},
	"fill_rate":    {"fill_rate", "fill rate"},
	"time_on_page": {"time_on_page", "time on page", "top", "avg_time_on_page"},
}

var urlColumns = []string{"url", "page_url", "page url", "link", "article_url"}

// Parse reads an attribution CSV and returns one record per URL row.
//
// Rows without a URL are skipped, not fatal. When the uploaded CTR cell is
// missing, blank, or zero but clicks and impressions are both present with
// impressions > 0, CTR is recomputed as clicks/impressions*100 — uploads
// routinely carry a dead CTR column next to live click counts.
func Parse(r io.Reader, uploadedAt time.Time) ([]Record, ParseStats, error) {
	stats := ParseStats{}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, stats, errors.New("attribution: empty CSV")
	}
	if err != nil {
		return nil, stats, fmt.Errorf("attribution: read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	urlIdx := matchColumn(header, urlColumns)
	if urlIdx < 0 {
		return nil, stats, ErrNoURLColumn
	}
	metricIdx := map[string]int{}
	for name, variants := range metricColumns {
		if idx := matchColumn(header, variants); idx >= 0 {
			metricIdx[name] = idx
		}
	}

	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			stats.RowsTotal++
			stats.RowsSkipped++
			continue
		}
		stats.RowsTotal++

		url := field(row, urlIdx)
		if url == "" {
			stats.RowsSkipped++
			continue
		}

		rec := Record{URL: url, UploadedAt: uploadedAt}
		rec.Conversions = numAt(row, metricIdx, "conversions")
		rec.Revenue = numAt(row, metricIdx, "revenue")
		rec.Impressions = numAt(row, metricIdx, "impressions")
		rec.Clicks = numAt(row, metricIdx, "clicks")
		rec.CTR = numAt(row, metricIdx, "ctr")
		rec.Viewability = numAt(row, metricIdx, "viewability")
		rec.ScrollDepth = numAt(row, metricIdx, "scroll_depth")
		rec.FillRate = numAt(row, metricIdx, "fill_rate")
		rec.TimeOnPage = numAt(row, metricIdx, "time_on_page")

		if computeCTR(&rec) {
			stats.CTRComputed++
		}

		records = append(records, rec)
		stats.RowsParsed++
	}
	return records, stats, nil
}

// computeCTR backfills a missing or zero CTR from clicks and impressions.
// Reports whether a value was computed.
func computeCTR(rec *Record) bool {
	if rec.CTR != nil && *rec.CTR != 0 {
		return false
	}
	if rec.Clicks == nil || rec.Impressions == nil || *rec.Impressions <= 0 {
		return false
	}
	ctr := *rec.Clicks / *rec.Impressions * 100
	rec.CTR = &ctr
	return true
}

func matchColumn(header []string, candidates []string) int {
	for _, cand := range candidates {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), cand) {
				return i
			}
		}
	}
	return -1
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// numAt parses the named metric cell. Blank cells, absent columns, negative
// values, and junk all yield nil — attribution metrics are non-negative.
func numAt(row []string, metricIdx map[string]int, name string) *float64 {
	idx, ok := metricIdx[name]
	if !ok {
		return nil
	}
	v := field(row, idx)
	if v == "" {
		return nil
	}
	v = strings.TrimSuffix(strings.ReplaceAll(v, ",", ""), "%")
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}
