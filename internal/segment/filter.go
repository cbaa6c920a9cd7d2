package segment

import (
	"sort"
	"strings"

	"github.com/ignite/content-signals/internal/content"
	"github.com/ignite/content-signals/internal/taxonomy"
)

// ==========================================
// ROW FILTERING ENGINE
// ==========================================

// ExtractCodes returns the usable classification codes on a row: trimmed,
// non-empty, with the pipeline's "N/A" sentinel filtered out.
func ExtractCodes(row *content.Row) []string {
	return row.Codes()
}

// MatchesInclude reports whether the row passes the include set. An empty
// include set matches every row.
func MatchesInclude(row *content.Row, includeCodes []string) bool {
	if len(includeCodes) == 0 {
		return true
	}
	return matchesAny(row.Codes(), includeCodes)
}

// MatchesExclude reports whether the row hits the exclude set. An empty
// exclude set never matches.
func MatchesExclude(row *content.Row, excludeCodes []string) bool {
	if len(excludeCodes) == 0 {
		return false
	}
	return matchesAny(row.Codes(), excludeCodes)
}

func matchesAny(rowCodes, filterCodes []string) bool {
	for _, filter := range filterCodes {
		filter = strings.TrimSpace(filter)
		if filter == "" {
			continue
		}
		for _, code := range rowCodes {
			if taxonomy.IsHierarchicalMatch(filter, code) {
				return true
			}
		}
	}
	return false
}

// Accept reports whether the rule accepts the row. Exclude wins: a row
// matching both an include and an exclude code is always rejected.
func Accept(row *content.Row, rule *SegmentRule) bool {
	if !MatchesInclude(row, rule.IncludeCodes) {
		return false
	}
	if MatchesExclude(row, rule.ExcludeCodes) {
		return false
	}
	if !withinDateRange(row, rule.DateRange) {
		return false
	}
	return meetsAllKPIMinimums(row, rule.KPIMinimums)
}

// withinDateRange checks the row's timestamp against inclusive bounds. A
// row with no usable timestamp is rejected whenever any bound is set.
func withinDateRange(row *content.Row, dr *DateRange) bool {
	if dr.IsZero() {
		return true
	}
	ts, ok := row.Timestamp()
	if !ok {
		return false
	}
	if !dr.Start.IsZero() && ts.Before(dr.Start) {
		return false
	}
	if !dr.End.IsZero() && ts.After(dr.End) {
		return false
	}
	return true
}

// meetsAllKPIMinimums checks every threshold in the rule. A metric absent
// on the row fails its threshold; missing data never satisfies a minimum.
func meetsAllKPIMinimums(row *content.Row, minimums map[string]float64) bool {
	for metric, min := range minimums {
		v, ok := row.Metric(metric)
		if !ok || v < min {
			return false
		}
	}
	return true
}

// Preview filters rows through the rule and returns the accepted subset in
// the input's relative order. The filter is stable and deterministic:
// the same rows and rule always yield the same result.
func Preview(rule *SegmentRule, rows []content.Row) []content.Row {
	accepted := make([]content.Row, 0, len(rows))
	for i := range rows {
		if Accept(&rows[i], rule) {
			accepted = append(accepted, rows[i])
		}
	}
	return accepted
}

// SortRows orders rows by the rule's presentation sort, in place. Rows
// missing the sort metric group after rows that carry it; ties keep input
// order. A rule without a sort key leaves the slice untouched.
func SortRows(rule *SegmentRule, rows []content.Row) {
	if rule.SortBy == "" {
		return
	}
	desc := rule.SortOrder == SortDescending
	sort.SliceStable(rows, func(i, j int) bool {
		vi, oki := rows[i].Metric(rule.SortBy)
		vj, okj := rows[j].Metric(rule.SortBy)
		if oki != okj {
			return oki
		}
		if !oki {
			return false
		}
		if desc {
			return vi > vj
		}
		return vi < vj
	})
}
