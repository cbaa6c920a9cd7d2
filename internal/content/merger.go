package content

import (
	"sort"
	"strings"
	"time"

	"github.com/ignite/content-signals/internal/attribution"
	"github.com/ignite/content-signals/internal/classifier"
	"github.com/ignite/content-signals/internal/pkg/logger"
)

// MergeStats tracks the outcome of one merge pass.
type MergeStats struct {
	AttributionRecords    int `json:"total_attribution_records"`
	ClassificationRecords int `json:"total_classification_records"`
	Merged                int `json:"successful_merges"`
	AttributionOnly       int `json:"attribution_only"`
	ClassificationOnly    int `json:"classification_only"`
	Skipped               int `json:"skipped"`
}

// Merge joins attribution records with classification results by URL into
// content rows. Rows that appear in only one dataset are still emitted:
// a classified-but-unattributed URL filters by category, an attributed-but-
// unclassified URL filters by KPI. Output is ordered by URL so repeated
// merges over the same inputs are identical.
func Merge(attrs []attribution.Record, classifications []classifier.Classification) ([]Row, MergeStats) {
	stats := MergeStats{
		AttributionRecords:    len(attrs),
		ClassificationRecords: len(classifications),
	}

	attrByURL := make(map[string]*attribution.Record, len(attrs))
	for i := range attrs {
		if url := strings.TrimSpace(attrs[i].URL); url != "" {
			attrByURL[url] = &attrs[i]
		}
	}
	classByURL := make(map[string]*classifier.Classification, len(classifications))
	for i := range classifications {
		if url := strings.TrimSpace(classifications[i].URL); url != "" {
			classByURL[url] = &classifications[i]
		}
	}

	urls := make([]string, 0, len(attrByURL)+len(classByURL))
	seen := map[string]bool{}
	for url := range attrByURL {
		seen[url] = true
		urls = append(urls, url)
	}
	for url := range classByURL {
		if !seen[url] {
			urls = append(urls, url)
		}
	}
	sort.Strings(urls)

	rows := make([]Row, 0, len(urls))
	for _, url := range urls {
		attr := attrByURL[url]
		class := classByURL[url]
		if attr == nil && class == nil {
			stats.Skipped++
			continue
		}

		rows = append(rows, buildRow(url, attr, class))
		switch {
		case attr != nil && class != nil:
			stats.Merged++
		case attr != nil:
			stats.AttributionOnly++
		default:
			stats.ClassificationOnly++
		}
	}

	logger.Info("attribution-classification merge complete",
		"attribution", stats.AttributionRecords,
		"classification", stats.ClassificationRecords,
		"merged", stats.Merged,
		"attribution_only", stats.AttributionOnly,
		"classification_only", stats.ClassificationOnly)

	return rows, stats
}

func buildRow(url string, attr *attribution.Record, class *classifier.Classification) Row {
	row := Row{URL: url}

	if class != nil {
		row.PrimaryCategoryCode = class.IABCode
		row.PrimarySubcategoryCode = class.IABSubcode
		row.SecondaryCategoryCode = class.SecondaryCode
		row.SecondarySubcategoryCode = class.SecondarySubcode
		row.Tone = class.Tone
		row.Intent = class.Intent
		row.Audience = class.Audience
		row.Keywords = class.Keywords
		row.BuyingIntent = class.BuyingIntent
		if !class.ClassifiedAt.IsZero() {
			t := class.ClassifiedAt
			row.ClassifiedAt = &t
		}
	}

	if attr != nil {
		row.Conversions = attr.Conversions
		row.Revenue = attr.Revenue
		row.Impressions = attr.Impressions
		row.Clicks = attr.Clicks
		row.CTR = attr.CTR
		row.Viewability = attr.Viewability
		row.ScrollDepth = attr.ScrollDepth
		row.FillRate = attr.FillRate
		row.TimeOnPage = attr.TimeOnPage
		if !attr.UploadedAt.IsZero() {
			t := attr.UploadedAt
			row.AttributedAt = &t
		}
	}

	return row
}

// Snapshot is an immutable view of the merged row set taken at a point in
// time. Filtering and estimation operate over a snapshot so concurrent
// ingestion never changes results mid-query.
type Snapshot struct {
	Rows    []Row     `json:"rows"`
	TakenAt time.Time `json:"taken_at"`
}

// NewSnapshot copies the rows into a snapshot.
func NewSnapshot(rows []Row) *Snapshot {
	cp := make([]Row, len(rows))
	copy(cp, rows)
	return &Snapshot{Rows: cp, TakenAt: time.Now().UTC()}
}
