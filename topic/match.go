// Package topic implements MQTT 3.1.1 subscription-filter matching and a
// bounded per-topic memoization cache, adapted from the exact/wildcard
// cache split in the teacher's bus_sub.Sublist.
package topic

import "strings"

// Match reports whether filter matches topic per MQTT 3.1.1 semantics:
// '/'-delimited levels, '+' matches exactly one level, '#' matches zero
// or more trailing levels and must be the final level. Topics beginning
// with '$' never match a leading '+' or '#'.
func Match(filter, top string) bool {
	fLevels := strings.Split(filter, "/")
	tLevels := strings.Split(top, "/")

	if len(tLevels) > 0 && strings.HasPrefix(tLevels[0], "$") {
		if len(fLevels) > 0 && (fLevels[0] == "+" || fLevels[0] == "#") {
			return false
		}
	}

	for i, fl := range fLevels {
		if fl == "#" {
			// '#' must be the final level; a well-formed filter only ever
			// reaches here when it is, since callers configure filters once.
			return i == len(fLevels)-1
		}
		if i >= len(tLevels) {
			return false
		}
		if fl == "+" {
			continue
		}
		if fl != tLevels[i] {
			return false
		}
	}
	return len(fLevels) == len(tLevels)
}

// IsWildcard reports whether filter contains '+' or '#'.
func IsWildcard(filter string) bool {
	return strings.ContainsAny(filter, "+#")
}

// Levels returns the number of '/'-separated levels in filter.
func Levels(filter string) int {
	return strings.Count(filter, "/") + 1
}
