// Package segment implements the content segmentation core: rule types,
// the row filtering engine, rule validation, and impact estimation. A
// segment is a saved filter over merged content rows — include/exclude
// taxonomy codes, KPI minimums, and an optional date range.
package segment

import (
	"time"

	"github.com/google/uuid"
)

// ==========================================
// RULE TYPES
// ==========================================

// SortOrder is the presentation sort direction for previewed rows.
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// DateRange bounds a rule to rows whose timestamps fall inside [Start, End].
// Both bounds are inclusive; a zero bound is open on that end.
type DateRange struct {
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
}

// IsZero reports whether neither bound is set.
func (d *DateRange) IsZero() bool {
	return d == nil || (d.Start.IsZero() && d.End.IsZero())
}

// SegmentRule is one filter definition, saved or in progress. A rule is
// immutable once built for a preview/export operation; edits construct a
// new rule.
type SegmentRule struct {
	// IncludeCodes selects rows whose classification matches any code,
	// hierarchically. Empty means match everything.
	IncludeCodes []string `json:"include_codes,omitempty"`

	// ExcludeCodes rejects rows whose classification matches any code,
	// hierarchically. Exclude wins over include.
	ExcludeCodes []string `json:"exclude_codes,omitempty"`

	// KPIMinimums maps metric name to an inclusive minimum threshold.
	KPIMinimums map[string]float64 `json:"kpi_minimums,omitempty"`

	DateRange *DateRange `json:"date_range,omitempty"`

	// SortBy / SortOrder order previewed rows for presentation only; they
	// never affect which rows a rule accepts.
	SortBy    string    `json:"sort_by,omitempty"`
	SortOrder SortOrder `json:"sort_order,omitempty"`
}

// Segment is a persisted rule with ownership and naming.
type Segment struct {
	ID          uuid.UUID   `json:"id"`
	OwnerID     string      `json:"owner_id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Rule        SegmentRule `json:"rule"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ==========================================
// VALIDATION & ESTIMATION RESULTS
// ==========================================

// ValidationResult is the outcome of validating a rule. Errors block
// saving or applying the rule; warnings and suggestions are informational.
type ValidationResult struct {
	IsValid     bool     `json:"is_valid"`
	Errors      []string `json:"errors,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Confidence grades an impact estimate by sample size.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ImpactEstimate reports how much of the dataset a rule's category
// selection would match.
type ImpactEstimate struct {
	EstimatedRows     int        `json:"estimated_rows"`
	PercentageOfTotal float64    `json:"percentage_of_total"`
	Confidence        Confidence `json:"confidence"`
	Note              string     `json:"note"`
}
