package segment

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/content-signals/internal/taxonomy"
)

// newTestValidator initializes a taxonomy service from the bundled dataset.
func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	svc := taxonomy.NewService(nil)
	svc.Initialize(context.Background())
	require.Equal(t, taxonomy.StateReady, svc.State())
	return NewValidator(svc)
}

func TestValidateUninitializedTaxonomy(t *testing.T) {
	v := NewValidator(taxonomy.NewService(nil))

	result := v.Validate(&SegmentRule{IncludeCodes: []string{"IAB9"}})

	assert.False(t, result.IsValid)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "not initialized")
}

func TestValidateCleanRule(t *testing.T) {
	v := newTestValidator(t)

	result := v.Validate(&SegmentRule{
		IncludeCodes: []string{"IAB9-30"},
		ExcludeCodes: []string{"IAB9-30-1"},
	})

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestValidateConflict(t *testing.T) {
	v := newTestValidator(t)

	result := v.Validate(&SegmentRule{
		IncludeCodes: []string{"IAB9-30"},
		ExcludeCodes: []string{"IAB9-30"},
	})

	assert.False(t, result.IsValid)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "both include and exclude")
}

func TestValidateUnknownCodes(t *testing.T) {
	v := newTestValidator(t)

	result := v.Validate(&SegmentRule{
		IncludeCodes: []string{"IAB999"},
		ExcludeCodes: []string{"NOT-A-CODE"},
	})

	assert.False(t, result.IsValid)
	assert.Len(t, result.Errors, 2)
}

func TestValidateRedundancyIsOrderIndependent(t *testing.T) {
	v := newTestValidator(t)

	ancestorFirst := v.Validate(&SegmentRule{IncludeCodes: []string{"IAB9-30", "IAB9-30-1"}})
	descendantFirst := v.Validate(&SegmentRule{IncludeCodes: []string{"IAB9-30-1", "IAB9-30"}})

	require.NotEmpty(t, ancestorFirst.Warnings)
	assert.Equal(t, ancestorFirst.Warnings, descendantFirst.Warnings,
		"selection order must not change the warning set")

	found := false
	for _, w := range ancestorFirst.Warnings {
		if strings.Contains(w, "redundant") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateEmptyRuleWarning(t *testing.T) {
	v := newTestValidator(t)

	result := v.Validate(&SegmentRule{})

	assert.True(t, result.IsValid, "an empty rule is legal, just broad")
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "entire dataset")
	assert.NotEmpty(t, result.Suggestions)
}

func TestValidateBreadthWarnings(t *testing.T) {
	v := newTestValidator(t)

	var includes []string
	for i := 1; i <= 21; i++ {
		includes = append(includes, fmt.Sprintf("IAB9-%d", i))
	}
	var excludes []string
	for i := 1; i <= 11; i++ {
		excludes = append(excludes, fmt.Sprintf("IAB2-%d", i))
	}

	result := v.Validate(&SegmentRule{IncludeCodes: includes, ExcludeCodes: excludes})

	assert.True(t, result.IsValid)
	joined := strings.Join(result.Warnings, "\n")
	assert.Contains(t, joined, "21 include codes")
	assert.Contains(t, joined, "11 exclude codes")
}

func TestValidateTopLevelWarning(t *testing.T) {
	v := newTestValidator(t)

	result := v.Validate(&SegmentRule{IncludeCodes: []string{"IAB9"}})

	assert.True(t, result.IsValid)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "top-level")
}
