package segment

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ignite/content-signals/internal/content"
)

// estimatorRows builds n rows where every matchEvery-th row carries a
// sports code and the rest carry news.
func estimatorRows(n, matchEvery int) []content.Row {
	rows := make([]content.Row, n)
	for i := range rows {
		code := "IAB12"
		if matchEvery > 0 && i%matchEvery == 0 {
			code = "IAB9-30"
		}
		rows[i] = rowWithCodes(fmt.Sprintf("https://ex.com/%d", i), code)
	}
	return rows
}

func TestEstimateEmptyDataset(t *testing.T) {
	est := Estimate(&SegmentRule{IncludeCodes: []string{"IAB9"}}, nil)

	assert.Equal(t, 0, est.EstimatedRows)
	assert.Equal(t, 0.0, est.PercentageOfTotal)
	assert.Equal(t, ConfidenceLow, est.Confidence)
	assert.NotEmpty(t, est.Note)
}

func TestEstimateExactFullDataset(t *testing.T) {
	// 1000 rows, 300 matching, dataset fits inside the sample cap.
	rows := estimatorRows(1000, 0)
	for i := 0; i < 300; i++ {
		rows[i].PrimaryCategoryCode = "IAB9-30"
	}

	est := Estimate(&SegmentRule{IncludeCodes: []string{"IAB9"}}, rows)

	assert.Equal(t, 300, est.EstimatedRows)
	assert.Equal(t, 30.0, est.PercentageOfTotal)
	assert.Equal(t, ConfidenceHigh, est.Confidence)
	assert.Contains(t, est.Note, "exact")
}

func TestEstimateExtrapolated(t *testing.T) {
	// 2000 rows with every 4th matching. The head sample of 1000 sees the
	// same ratio, so the estimate scales linearly to the full set.
	rows := estimatorRows(2000, 4)

	est := Estimate(&SegmentRule{IncludeCodes: []string{"IAB9"}}, rows)

	assert.Equal(t, 500, est.EstimatedRows)
	assert.Equal(t, 25.0, est.PercentageOfTotal)
	assert.Equal(t, ConfidenceHigh, est.Confidence)
	assert.Contains(t, est.Note, "extrapolated")
}

func TestEstimateIgnoresKPIAndDate(t *testing.T) {
	rows := estimatorRows(10, 1)
	rule := &SegmentRule{
		IncludeCodes: []string{"IAB9"},
		KPIMinimums:  map[string]float64{"ctr": 99},
	}

	est := Estimate(rule, rows)

	assert.Equal(t, 10, est.EstimatedRows, "KPI thresholds do not affect the category estimate")
}

func TestEstimateConfidenceGrades(t *testing.T) {
	tests := []struct {
		rows int
		want Confidence
	}{
		{1500, ConfidenceHigh},
		{500, ConfidenceHigh},
		{499, ConfidenceMedium},
		{100, ConfidenceMedium},
		{99, ConfidenceLow},
		{1, ConfidenceLow},
	}
	for _, tt := range tests {
		est := Estimate(&SegmentRule{}, estimatorRows(tt.rows, 2))
		assert.Equal(t, tt.want, est.Confidence, "rows=%d", tt.rows)
	}
}

func TestEstimateDeterministic(t *testing.T) {
	rows := estimatorRows(1200, 3)
	rule := &SegmentRule{IncludeCodes: []string{"IAB9"}, ExcludeCodes: []string{"IAB9-30-1"}}

	first := Estimate(rule, rows)
	second := Estimate(rule, rows)

	assert.Equal(t, first, second)
}
