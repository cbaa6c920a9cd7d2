package segment

import (
	"fmt"
	"math"

	"github.com/ignite/content-signals/internal/content"
)

// ==========================================
// IMPACT ESTIMATION
// ==========================================

// MaxSampleSize caps how many rows the estimator inspects.
const MaxSampleSize = 1000

// Estimate projects how many rows the rule's category selection would
// match. Only include/exclude codes are applied; KPI and date filters are
// ignored so the estimate isolates category impact. The sample is the head
// of the collection, never random, so repeated calls on the same input
// return the same estimate.
func Estimate(rule *SegmentRule, rows []content.Row) ImpactEstimate {
	total := len(rows)
	if total == 0 {
		return ImpactEstimate{
			Confidence: ConfidenceLow,
			Note:       "no rows available to estimate against",
		}
	}

	sampleSize := total
	if sampleSize > MaxSampleSize {
		sampleSize = MaxSampleSize
	}

	matched := 0
	for i := 0; i < sampleSize; i++ {
		row := &rows[i]
		if MatchesInclude(row, rule.IncludeCodes) && !MatchesExclude(row, rule.ExcludeCodes) {
			matched++
		}
	}

	fraction := float64(matched) / float64(sampleSize)
	estimated := int(math.Round(fraction * float64(total)))

	confidence := ConfidenceLow
	switch {
	case sampleSize >= 500:
		confidence = ConfidenceHigh
	case sampleSize >= 100:
		confidence = ConfidenceMedium
	}

	note := fmt.Sprintf("exact count over all %d rows", total)
	if sampleSize < total {
		note = fmt.Sprintf("extrapolated from the first %d of %d rows", sampleSize, total)
	}

	return ImpactEstimate{
		EstimatedRows:     estimated,
		PercentageOfTotal: math.Round(fraction*1000) / 10,
		Confidence:        confidence,
		Note:              note,
	}
}
