package taxonomy

import "strings"

// IsHierarchicalMatch reports whether a filter code matches a data code:
// exact equality, or the filter is a strict ancestor of the data code
// (dataCode begins with filterCode + "-"). Empty input never matches.
//
// The relation is intentionally asymmetric. A filter of "IAB9" matches data
// coded "IAB9-2" because the row is confirmed to sit somewhere under IAB9,
// but a filter of "IAB9-2" does not match data coded merely "IAB9" — the row
// was never confirmed to belong to that specific subcategory. Every
// include/exclude decision in the filtering engine rests on this direction;
// it must not be widened to bidirectional matching.
func IsHierarchicalMatch(filterCode, dataCode string) bool {
	filterCode = strings.TrimSpace(filterCode)
	dataCode = strings.TrimSpace(dataCode)
	if filterCode == "" || dataCode == "" {
		return false
	}
	if filterCode == dataCode {
		return true
	}
	return strings.HasPrefix(dataCode, filterCode+"-")
}

// IsTopLevel reports whether a code names a tier-1 category (no hyphen).
// Selecting one silently pulls in every descendant, which the validator
// warns about.
func IsTopLevel(code string) bool {
	code = strings.TrimSpace(code)
	return code != "" && !strings.Contains(code, "-")
}
