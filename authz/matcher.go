package authz

import "strings"

// MatchPattern reports whether pattern grants required. Both are
// "resource:action" strings; "*" matches any resource or action and a bare
// "*" matches everything.
func MatchPattern(pattern, required string) bool {
	if pattern == required || pattern == "*" {
		return true
	}
	patRes, patAct, patOK := strings.Cut(pattern, ":")
	reqRes, reqAct, reqOK := strings.Cut(required, ":")
	if !patOK || !reqOK {
		return false
	}
	return wildcard(patRes, reqRes) && wildcard(patAct, reqAct)
}

// MatchAny reports whether any pattern grants required.
func MatchAny(patterns []string, required string) bool {
	for _, p := range patterns {
		if MatchPattern(p, required) {
			return true
		}
	}
	return false
}

func wildcard(pattern, value string) bool {
	return pattern == "*" || pattern == value
}
