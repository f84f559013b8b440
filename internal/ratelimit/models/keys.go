package models

import "strings"

// SanitizeKeySegment escapes delimiter characters in rate limit key segments
// to prevent key collision attacks where user-controlled identifiers
// containing ':' could manipulate adjacent counters.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// CounterKey builds the (identity, route class) counter key.
func CounterKey(identifier string, class RouteClass) string {
	return "rl:" + SanitizeKeySegment(identifier) + ":" + string(class)
}
