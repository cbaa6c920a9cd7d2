package segment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ignite/content-signals/internal/taxonomy"
)

// ==========================================
// RULE VALIDATION
// ==========================================

const (
	maxIncludeCodes = 20
	maxExcludeCodes = 10
)

// Validator checks segment rules against the taxonomy.
type Validator struct {
	taxonomy *taxonomy.Service
}

// NewValidator creates a rule validator backed by the taxonomy service.
func NewValidator(svc *taxonomy.Service) *Validator {
	return &Validator{taxonomy: svc}
}

// Validate checks a rule for conflicts, unknown codes, redundancy, and
// over-breadth. Errors block saving the rule; warnings inform. Validate
// never mutates or silently corrects the rule.
func (v *Validator) Validate(rule *SegmentRule) ValidationResult {
	result := ValidationResult{IsValid: true}

	if v.taxonomy.State() == taxonomy.StateUninitialized {
		result.IsValid = false
		result.Errors = append(result.Errors, "taxonomy not initialized; cannot validate codes")
		return result
	}

	include := normalizeCodes(rule.IncludeCodes)
	exclude := normalizeCodes(rule.ExcludeCodes)

	// Conflicts: a code in both sets can never take effect sensibly.
	for _, code := range include {
		if containsCode(exclude, code) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("code %s appears in both include and exclude sets", code))
		}
	}

	for _, code := range include {
		if !v.taxonomy.HasCode(code) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("unknown include code: %s", code))
		}
	}
	for _, code := range exclude {
		if !v.taxonomy.HasCode(code) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("unknown exclude code: %s", code))
		}
	}

	if len(include) == 0 && len(exclude) == 0 {
		result.Warnings = append(result.Warnings,
			"rule has no include or exclude codes and will match the entire dataset")
		result.Suggestions = append(result.Suggestions,
			"add at least one include code to narrow the segment")
	}

	// Redundancy: an include ancestor already covers its descendants.
	// Checked over all ordered pairs so entry order never changes the
	// warning set.
	for _, ancestor := range include {
		for _, descendant := range include {
			if ancestor == descendant {
				continue
			}
			if strings.HasPrefix(descendant, ancestor+"-") {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("include code %s is redundant: %s already covers it", descendant, ancestor))
				result.Suggestions = append(result.Suggestions,
					fmt.Sprintf("remove %s or narrow %s", descendant, ancestor))
			}
		}
	}

	if len(include) > maxIncludeCodes {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d include codes selected; segments this broad are hard to reason about", len(include)))
		result.Suggestions = append(result.Suggestions,
			fmt.Sprintf("consider selecting parent categories instead of more than %d individual codes", maxIncludeCodes))
	}
	if len(exclude) > maxExcludeCodes {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d exclude codes selected; consider restructuring the include set instead", len(exclude)))
	}

	for _, code := range append(append([]string{}, include...), exclude...) {
		if taxonomy.IsTopLevel(code) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s is a top-level category and matches every code under it", code))
		}
	}

	if len(result.Errors) > 0 {
		result.IsValid = false
	}
	return result
}

// normalizeCodes trims, drops empties, de-duplicates, and sorts so the
// validation output is stable regardless of selection order.
func normalizeCodes(codes []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return taxonomy.CompareCodes(out[i], out[j]) < 0
	})
	return out
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
