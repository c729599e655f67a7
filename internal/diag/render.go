package diag

import (
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Render formats a diagnostic Rust/Clang-style: a location line, a source
// line, and a caret pointing at the offending column. file and source are
// resolved by the caller via the preprocessor's translate_position (spec
// section 4.10) — Diagnostic itself only carries a translation-unit span.
func Render(d Diagnostic, file string, line, column int, sourceLine string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", d.Kind.String(), d.Message())
	fmt.Fprintf(&b, "  --> %s:%d:%d\n", file, line, column)
	b.WriteString("   |\n")
	fmt.Fprintf(&b, "%2d | %s\n", line, sourceLine)
	b.WriteString("   | ")
	if column > 0 && column <= len(sourceLine)+1 {
		b.WriteString(strings.Repeat(" ", column-1) + "^")
	}
	return b.String()
}

// Suggest finds the closest name to target among candidates by normalized
// Levenshtein distance, returning "" if nothing is close enough to be worth
// showing (SPEC_FULL.md 4.11). Only candidates that contain target's
// characters in order (case-insensitively) are ranked at all; a candidate
// that is a near miss by edits alone, such as a swapped letter, is never
// suggested. The threshold is deliberately tight: a wrong
// suggestion is worse than no suggestion.
func Suggest(target string, candidates []string) string {
	best := ""
	bestRank := -1
	for _, c := range candidates {
		rank := fuzzy.RankMatchNormalizedFold(target, c)
		if rank < 0 {
			continue
		}
		if bestRank == -1 || rank < bestRank {
			bestRank = rank
			best = c
		}
	}
	if bestRank < 0 || bestRank > maxSuggestDistance(target) {
		return ""
	}
	return best
}

// maxSuggestDistance scales the acceptable edit distance with the target's
// length: len/3+1 edits, capped at 4 (2 for a 3-letter name, 4 for a name
// of 9 letters or more).
func maxSuggestDistance(target string) int {
	n := len(target)/3 + 1
	if n > 4 {
		return 4
	}
	return n
}
