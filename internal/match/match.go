// Package match provides pure string-matching helpers for song resolution:
// a normalized edit-distance similarity and a unicode-aware tokenizer. No I/O,
// no logging - callers wire the scores into their own fallback logic.
package match

import (
	"strings"
	"unicode"
)

// Similarity returns a normalized title similarity in [0,1] based on the
// Levenshtein distance between the lowercased inputs. Two empty strings score 1.
func Similarity(a, b string) float64 {
	s1 := []rune(strings.ToLower(a))
	s2 := []rune(strings.ToLower(b))

	maxLen := len(s1)
	if len(s2) > maxLen {
		maxLen = len(s2)
	}
	if maxLen == 0 {
		return 1
	}

	// Single-row dynamic programming over the edit-distance matrix.
	costs := make([]int, len(s2)+1)
	for j := range costs {
		costs[j] = j
	}
	for i := 1; i <= len(s1); i++ {
		prev := costs[0]
		costs[0] = i
		for j := 1; j <= len(s2); j++ {
			cur := costs[j]
			if s1[i-1] == s2[j-1] {
				costs[j] = prev
			} else {
				costs[j] = min(min(prev, cur), costs[j-1]) + 1
			}
			prev = cur
		}
	}

	return 1 - float64(costs[len(s2)])/float64(maxLen)
}

// ContainsFold reports whether needle occurs in haystack, case-insensitively.
// An empty needle never matches: an absent artist must not pass the artist
// containment check.
func ContainsFold(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// Tokenize splits s into lowercased keyword tokens on any non-letter,
// non-digit rune. Used to build catalog keyword sets.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
