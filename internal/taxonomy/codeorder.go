package taxonomy

import (
	"strconv"
	"strings"
)

// Code ordering: strip the IAB prefix, split on "-", and compare the numeric
// components lexicographically. Missing trailing components use a sentinel
// below zero so a prefix code sorts before any of its descendants, and the
// comparison is numeric per component — "IAB9" precedes "IAB10".

// sentinelMissing pads short code sequences; it must sort before every real
// component, which are non-negative.
const sentinelMissing = -1

// non-numeric components (malformed codes) sort after everything numeric.
const componentJunk = 1 << 30

// codeKey parses a code into its numeric component sequence.
func codeKey(code string) []int {
	code = strings.TrimSpace(code)
	core := strings.TrimPrefix(strings.ToUpper(code), "IAB")
	if core == "" {
		return nil
	}
	parts := strings.Split(core, "-")
	key := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			key[i] = componentJunk
			continue
		}
		key[i] = n
	}
	return key
}

// CompareCodes is a total order over taxonomy codes: negative when a sorts
// before b, zero when their component sequences are equal.
func CompareCodes(a, b string) int {
	ka, kb := codeKey(a), codeKey(b)
	n := len(ka)
	if len(kb) > n {
		n = len(kb)
	}
	for i := 0; i < n; i++ {
		va, vb := sentinelMissing, sentinelMissing
		if i < len(ka) {
			va = ka[i]
		}
		if i < len(kb) {
			vb = kb[i]
		}
		if va != vb {
			if va < vb {
				return -1
			}
			return 1
		}
	}
	return 0
}
