package taxonomy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTSV(t *testing.T) {
	tsv := "Code\tName\tTier 1\tTier 2\tTier 3\n" +
		"IAB9\tSports\tSports\t\t\n" +
		"IAB9-30\tRunning/Jogging\tSports\tRunning/Jogging\t\n" +
		"IAB9-30-1\tMarathon\tSports\tRunning/Jogging\tMarathon\n"

	entries, err := ParseTSV(strings.NewReader(tsv))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "IAB9", entries[0].Code)
	assert.Equal(t, []string{"Sports"}, entries[0].Path)
	assert.Equal(t, 1, entries[0].Level)

	assert.Equal(t, []string{"Sports", "Running/Jogging", "Marathon"}, entries[2].Path)
	assert.Equal(t, 3, entries[2].Level)
}

func TestParseTSVHeaderVariants(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"canonical", "Code\tName\tTier 1"},
		{"unique id spelling", "Node ID\tEnglish Name\tTier 1"},
		{"lowercase", "code\tname\ttier 1"},
		{"iab code spelling", "IAB Code\tLabel\tTier1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tsv := tt.header + "\nIAB9\tSports\tSports\n"
			entries, err := ParseTSV(strings.NewReader(tsv))
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, "IAB9", entries[0].Code)
			assert.Equal(t, "Sports", entries[0].Label)
		})
	}
}

func TestParseTSVBOM(t *testing.T) {
	tsv := "\ufeffCode\tName\tTier 1\nIAB9\tSports\tSports\n"

	entries, err := ParseTSV(strings.NewReader(tsv))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "IAB9", entries[0].Code)
}

func TestParseTSVDeDupesAndSkipsMalformed(t *testing.T) {
	tsv := "Code\tName\tTier 1\n" +
		"IAB9\tSports\tSports\n" +
		"IAB9\tDuplicate\tDuplicate\n" +
		"\tNo Code\tNo Code\n" +
		"IAB10\tHome & Garden\tHome & Garden\n"

	entries, err := ParseTSV(strings.NewReader(tsv))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Sports", entries[0].Label, "first occurrence wins")
	assert.Equal(t, "IAB10", entries[1].Code)
}

func TestParseTSVLabelFallbacks(t *testing.T) {
	tsv := "Code\tName\tTier 1\tTier 2\n" +
		"IAB9-30\t\tSports\tRunning/Jogging\n" +
		"IAB99\t\t\t\n"

	entries, err := ParseTSV(strings.NewReader(tsv))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Running/Jogging", entries[0].Label, "deepest tier backs a missing name")
	assert.Equal(t, "IAB99", entries[1].Label, "code backs a fully blank row")
	assert.Equal(t, []string{"IAB99"}, entries[1].Path)
}

func TestParseTSVCollapsedTierCells(t *testing.T) {
	tsv := "Code\tName\tTier 1\n" +
		"IAB9-30\tRunning/Jogging\tSports > Running/Jogging\n"

	entries, err := ParseTSV(strings.NewReader(tsv))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []string{"Running/Jogging"}, entries[0].Path,
		"a combined tier cell keeps only its final segment")
}

func TestParseTSVErrors(t *testing.T) {
	_, err := ParseTSV(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ParseTSV(strings.NewReader("Foo\tBar\nIAB9\tSports\n"))
	assert.Error(t, err, "a header without a code column is fatal")
}
