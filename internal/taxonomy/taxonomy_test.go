package taxonomy

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource tracks how many times Fetch runs.
type countingSource struct {
	entries []Entry
	err     error
	calls   atomic.Int32
}

func (s *countingSource) Fetch(ctx context.Context) ([]Entry, error) {
	s.calls.Add(1)
	return s.entries, s.err
}

func newReadyService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(nil)
	svc.Initialize(context.Background())
	require.Equal(t, StateReady, svc.State())
	return svc
}

func TestInitializeFallsBackWhenPrimaryFails(t *testing.T) {
	src := &countingSource{err: errors.New("boom")}
	svc := NewService(src)

	svc.Initialize(context.Background())

	assert.Equal(t, StateReady, svc.State(), "bundled dataset backs a failing primary")
	assert.GreaterOrEqual(t, svc.Count(), MinViableEntries)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestInitializeFallsBackWhenPrimaryUndersized(t *testing.T) {
	src := &countingSource{entries: []Entry{{Code: "IAB1", Label: "Arts"}}}
	svc := NewService(src)

	svc.Initialize(context.Background())

	assert.Equal(t, StateReady, svc.State())
	assert.GreaterOrEqual(t, svc.Count(), MinViableEntries, "an undersized primary is treated as corrupt")
}

func TestInitializeSingleFlight(t *testing.T) {
	src := &countingSource{err: errors.New("boom")}
	svc := NewService(src)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Initialize(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load(), "concurrent Initialize must not double-fetch")
	assert.Equal(t, StateReady, svc.State())

	svc.Initialize(context.Background())
	assert.Equal(t, int32(1), src.calls.Load(), "a later Initialize never re-fetches")
}

func TestLookupsBeforeInitialize(t *testing.T) {
	svc := NewService(nil)

	assert.Equal(t, StateUninitialized, svc.State())
	assert.False(t, svc.Initialized())
	assert.False(t, svc.HasCode("IAB9"))
	assert.Equal(t, "", svc.Label("IAB9"))
	assert.Equal(t, "", svc.FullPath("IAB9"))
}

func TestHasCode(t *testing.T) {
	svc := newReadyService(t)

	assert.True(t, svc.HasCode("IAB9"))
	assert.True(t, svc.HasCode("  IAB9-30  "), "whitespace is trimmed")
	assert.False(t, svc.HasCode("IAB999"))
	assert.False(t, svc.HasCode(""))
	assert.False(t, svc.HasCode("   "))
}

func TestLabelAndFullPath(t *testing.T) {
	svc := newReadyService(t)

	assert.Equal(t, "Sports", svc.Label("IAB9"))
	assert.Equal(t, "Running/Jogging", svc.Label("IAB9-30"))
	assert.Equal(t, "Sports > Running/Jogging", svc.FullPath("IAB9-30"))
	assert.Equal(t, "Sports > Running/Jogging > Marathon", svc.FullPath("IAB9-30-1"))

	assert.Equal(t, "", svc.Label("IAB999"), "unknown codes yield empty strings, never errors")
	assert.Equal(t, "", svc.FullPath("IAB999"))
}

func TestParentDerivation(t *testing.T) {
	svc := newReadyService(t)

	e, ok := svc.Entry("IAB9-30-1")
	require.True(t, ok)
	assert.Equal(t, "IAB9-30", e.Parent)

	top, ok := svc.Entry("IAB9")
	require.True(t, ok)
	assert.Equal(t, "", top.Parent)

	// No dangling parents anywhere in the loaded table.
	for _, opt := range svc.AllOptions(false) {
		e, ok := svc.Entry(opt.Code)
		require.True(t, ok)
		if e.Parent != "" {
			assert.True(t, svc.HasCode(e.Parent), "parent of %s must exist", e.Code)
		}
	}
}

func TestDisplayString(t *testing.T) {
	svc := newReadyService(t)

	tests := []struct {
		name string
		code string
		opts DisplayOptions
		want string
	}{
		{"standard", "IAB9-30", DefaultDisplayOptions(), "Running/Jogging (IAB9-30)"},
		{"standard without code", "IAB9-30", DisplayOptions{Format: FormatStandard}, "Running/Jogging"},
		{"standard with path", "IAB9-30", DisplayOptions{Format: FormatStandard, ShowPath: true, ShowCode: true}, "Sports > Running/Jogging (IAB9-30)"},
		{"code only", "IAB9-30", DisplayOptions{Format: FormatCodeOnly}, "IAB9-30"},
		{"code only round-trips unknown codes", "IAB999", DisplayOptions{Format: FormatCodeOnly}, "IAB999"},
		{"label only", "IAB9-30", DisplayOptions{Format: FormatLabelOnly}, "Running/Jogging"},
		{"path only", "IAB9-30-1", DisplayOptions{Format: FormatPathOnly}, "Sports > Running/Jogging > Marathon"},
		{"unknown code degrades to raw code", "IAB999", DefaultDisplayOptions(), "IAB999"},
		{"trimmed input", "  IAB9  ", DisplayOptions{Format: FormatCodeOnly}, "IAB9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.DisplayString(tt.code, tt.opts))
		})
	}
}

func TestAllOptionsSorted(t *testing.T) {
	svc := newReadyService(t)

	opts := svc.AllOptions(false)
	require.Equal(t, svc.Count(), len(opts))

	for i := 1; i < len(opts); i++ {
		c := CompareCodes(opts[i-1].Code, opts[i].Code)
		assert.LessOrEqual(t, c, 0, "%s must not sort after %s", opts[i-1].Code, opts[i].Code)
	}

	// IAB2 precedes IAB2-1 precedes IAB10 in the full list.
	pos := map[string]int{}
	for i, o := range opts {
		pos[o.Code] = i
	}
	assert.Less(t, pos["IAB2"], pos["IAB2-1"])
	assert.Less(t, pos["IAB2-1"], pos["IAB10"])
}

func TestAllOptionsDisplay(t *testing.T) {
	svc := newReadyService(t)

	flat := svc.AllOptions(false)
	withHierarchy := svc.AllOptions(true)

	find := func(opts []Option, code string) Option {
		for _, o := range opts {
			if o.Code == code {
				return o
			}
		}
		t.Fatalf("code %s not in options", code)
		return Option{}
	}

	assert.Equal(t, "Running/Jogging (IAB9-30)", find(flat, "IAB9-30").Display)
	assert.Equal(t, "Sports > Running/Jogging (IAB9-30)", find(withHierarchy, "IAB9-30").Display)
	assert.Equal(t, 2, find(flat, "IAB9-30").Level)
}
