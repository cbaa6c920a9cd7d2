// Package content defines the merged content-signal row: one classified and
// possibly attributed URL record, joined from the classification and
// attribution datasets by an external merge pass.
package content

import (
	"strings"
	"time"
)

// NotAvailable is the sentinel the classification pipeline emits for a code
// or field it could not determine. Rows carry it verbatim; the filtering
// engine treats it the same as an absent code.
const NotAvailable = "N/A"

// Canonical attribution metric names. KPI thresholds and sort keys refer to
// metrics by these names.
const (
	MetricConversions = "conversions"
	MetricRevenue     = "revenue"
	MetricImpressions = "impressions"
	MetricClicks      = "clicks"
	MetricCTR         = "ctr"
	MetricViewability = "viewability"
	MetricScrollDepth = "scroll_depth"
	MetricFillRate    = "fill_rate"
	MetricTimeOnPage  = "time_on_page"
)

// KnownMetrics lists every attribution metric a row can carry.
func KnownMetrics() []string {
	return []string{
		MetricConversions, MetricRevenue, MetricImpressions, MetricClicks,
		MetricCTR, MetricViewability, MetricScrollDepth, MetricFillRate,
		MetricTimeOnPage,
	}
}

// Row is one classified-and-possibly-attributed URL record. Rows are
// produced by ingestion and merging; the filtering core never mutates one.
type Row struct {
	URL string `json:"url"`

	// Classification code slots, each a taxonomy code, "", or NotAvailable.
	PrimaryCategoryCode      string `json:"primary_category_code,omitempty"`
	PrimarySubcategoryCode   string `json:"primary_subcategory_code,omitempty"`
	SecondaryCategoryCode    string `json:"secondary_category_code,omitempty"`
	SecondarySubcategoryCode string `json:"secondary_subcategory_code,omitempty"`

	// Classification metadata beyond the code slots.
	Tone         string `json:"tone,omitempty"`
	Intent       string `json:"intent,omitempty"`
	Audience     string `json:"audience,omitempty"`
	Keywords     string `json:"keywords,omitempty"`
	BuyingIntent string `json:"buying_intent,omitempty"`

	// Attribution metrics, nil when the metric was never reported.
	Conversions *float64 `json:"conversions,omitempty"`
	Revenue     *float64 `json:"revenue,omitempty"`
	Impressions *float64 `json:"impressions,omitempty"`
	Clicks      *float64 `json:"clicks,omitempty"`
	CTR         *float64 `json:"ctr,omitempty"`
	Viewability *float64 `json:"viewability,omitempty"`
	ScrollDepth *float64 `json:"scroll_depth,omitempty"`
	FillRate    *float64 `json:"fill_rate,omitempty"`
	TimeOnPage  *float64 `json:"time_on_page,omitempty"`

	ClassifiedAt *time.Time `json:"classified_at,omitempty"`
	AttributedAt *time.Time `json:"attributed_at,omitempty"`
}

// Metric returns the named attribution metric and whether the row carries it.
func (r *Row) Metric(name string) (float64, bool) {
	var p *float64
	switch name {
	case MetricConversions:
		p = r.Conversions
	case MetricRevenue:
		p = r.Revenue
	case MetricImpressions:
		p = r.Impressions
	case MetricClicks:
		p = r.Clicks
	case MetricCTR:
		p = r.CTR
	case MetricViewability:
		p = r.Viewability
	case MetricScrollDepth:
		p = r.ScrollDepth
	case MetricFillRate:
		p = r.FillRate
	case MetricTimeOnPage:
		p = r.TimeOnPage
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Codes collects the four classification slots into a de-duplicated set of
// usable codes: trimmed, non-empty, and not the NotAvailable sentinel.
func (r *Row) Codes() []string {
	slots := [4]string{
		r.PrimaryCategoryCode,
		r.PrimarySubcategoryCode,
		r.SecondaryCategoryCode,
		r.SecondarySubcategoryCode,
	}
	var codes []string
	seen := map[string]bool{}
	for _, s := range slots {
		c := strings.TrimSpace(s)
		if c == "" || strings.EqualFold(c, NotAvailable) {
			continue
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		codes = append(codes, c)
	}
	return codes
}

// Timestamp returns the row's best timestamp for date-range filtering:
// attribution time when present, else classification time. ok is false when
// the row has neither, which excludes it from any date-bounded query.
func (r *Row) Timestamp() (time.Time, bool) {
	if r.AttributedAt != nil {
		return *r.AttributedAt, true
	}
	if r.ClassifiedAt != nil {
		return *r.ClassifiedAt, true
	}
	return time.Time{}, false
}
