package rabbitmq

import (
	"fmt"
	"strings"
)

// MatchRoutingKey reports whether key matches a topic exchange pattern.
// "*" matches exactly one segment and "#" matches zero or more segments.
func MatchRoutingKey(pattern, key string) bool {
	return matchSegments(strings.Split(pattern, "."), strings.Split(key, "."))
}

func matchSegments(pattern, key []string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case "#":
			// collapse consecutive hashes
			rest := pattern[1:]
			for len(rest) > 0 && rest[0] == "#" {
				rest = rest[1:]
			}
			if len(rest) == 0 {
				return true
			}
			for i := 0; i <= len(key); i++ {
				if matchSegments(rest, key[i:]) {
					return true
				}
			}
			return false
		case "*":
			if len(key) == 0 {
				return false
			}
		default:
			if len(key) == 0 || key[0] != pattern[0] {
				return false
			}
		}
		pattern = pattern[1:]
		key = key[1:]
	}
	return len(key) == 0
}

// ValidatePattern rejects empty patterns and wildcards embedded in words,
// e.g. "part.cre*".
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("routing pattern is empty")
	}
	for _, seg := range strings.Split(pattern, ".") {
		if seg == "*" || seg == "#" {
			continue
		}
		if strings.ContainsAny(seg, "*#") {
			return fmt.Errorf("routing pattern %q: wildcard must be a whole segment", pattern)
		}
	}
	return nil
}
