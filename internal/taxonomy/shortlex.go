// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package taxonomy

import "sort"

// Compare orders two ShortLex codes: shorter codes first, then
// lexicographic within equal length. The order is total; distinct
// codes never compare equal.
func Compare(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// SortCodes sorts codes in ShortLex order in place.
func SortCodes(codes []string) {
	sort.Slice(codes, func(i, j int) bool {
		return Compare(codes[i], codes[j]) < 0
	})
}

// ParentOf returns the parent code of a ShortLex code, or "" for a
// root. Child codes append "." and an ordinal to the parent code.
func ParentOf(code string) string {
	for i := len(code) - 1; i >= 0; i-- {
		if code[i] == '.' {
			return code[:i]
		}
	}
	return ""
}

// DepthOf returns the code's depth: 0 for roots, parent depth + 1 for
// children.
func DepthOf(code string) int {
	depth := 0
	for i := 0; i < len(code); i++ {
		if code[i] == '.' {
			depth++
		}
	}
	return depth
}
