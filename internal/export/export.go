// Package export renders accepted segment rows to CSV or JSON and
// optionally archives exports to S3.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ignite/content-signals/internal/content"
)

// Format selects an export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// csvColumns is the stable CSV header: url first, the code slots, the
// classification metadata, then every metric in canonical order. Columns
// appear whether or not any row carries them, so exports from different
// segments line up.
var csvColumns = []string{
	"url",
	"primary_category_code", "primary_subcategory_code",
	"secondary_category_code", "secondary_subcategory_code",
	"tone", "intent", "audience", "keywords", "buying_intent",
	"conversions", "revenue", "impressions", "clicks", "ctr",
	"viewability", "scroll_depth", "fill_rate", "time_on_page",
	"classified_at", "attributed_at",
}

// WriteCSV renders rows as CSV with the stable column set.
func WriteCSV(w io.Writer, rows []content.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	for i := range rows {
		if err := cw.Write(csvRecord(&rows[i])); err != nil {
			return fmt.Errorf("export: write row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	return nil
}

func csvRecord(row *content.Row) []string {
	rec := []string{
		row.URL,
		row.PrimaryCategoryCode, row.PrimarySubcategoryCode,
		row.SecondaryCategoryCode, row.SecondarySubcategoryCode,
		row.Tone, row.Intent, row.Audience, row.Keywords, row.BuyingIntent,
	}
	for _, metric := range content.KnownMetrics() {
		if v, ok := row.Metric(metric); ok {
			rec = append(rec, strconv.FormatFloat(v, 'f', -1, 64))
		} else {
			rec = append(rec, "")
		}
	}
	rec = append(rec, formatTime(row.ClassifiedAt), formatTime(row.AttributedAt))
	return rec
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// jsonEnvelope wraps exported rows with export metadata.
type jsonEnvelope struct {
	ExportedAt time.Time     `json:"exported_at"`
	RowCount   int           `json:"row_count"`
	Rows       []content.Row `json:"rows"`
}

// WriteJSON renders rows as a JSON document with export metadata.
func WriteJSON(w io.Writer, rows []content.Row) error {
	if rows == nil {
		rows = []content.Row{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonEnvelope{
		ExportedAt: time.Now().UTC(),
		RowCount:   len(rows),
		Rows:       rows,
	}); err != nil {
		return fmt.Errorf("export: encode json: %w", err)
	}
	return nil
}

// Write renders rows in the requested format.
func Write(w io.Writer, format Format, rows []content.Row) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatJSON:
		return WriteJSON(w, rows)
	default:
		return fmt.Errorf("export: unsupported format %q", format)
	}
}

// ContentType returns the MIME type for a format, or "" when unknown.
func ContentType(format Format) string {
	switch format {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	default:
		return ""
	}
}
