package common

import (
	"strings"
)

// Splits a comma separated string, e.g. "host1, host2,,host3", into its
// non-empty trimmed elements.
func SplitCommaSep(commaSepString string) []string {
	parts := []string{}
	for _, p := range strings.Split(commaSepString, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
