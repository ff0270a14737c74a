// Package rules implements keyword based auto-categorization of
// transactions.
package rules

import (
	"strings"

	"fintrack/internal/core"
)

// Match returns the category of the best rule whose keyword occurs in the
// description, or "" when nothing matches. Matching is case-insensitive
// substring containment. The longest matching keyword wins; among equal
// lengths the lexicographically smallest keyword wins, so the outcome
// never depends on rule insertion order.
func Match(description string, ruleset []core.SmartRule) string {
	desc := strings.ToLower(strings.TrimSpace(description))
	if desc == "" {
		return ""
	}

	var (
		bestKeyword  string
		bestCategory string
	)
	for _, rule := range ruleset {
		keyword := strings.ToLower(strings.TrimSpace(rule.Keyword))
		if keyword == "" || !strings.Contains(desc, keyword) {
			continue
		}
		if better(keyword, bestKeyword) {
			bestKeyword = keyword
			bestCategory = rule.Category
		}
	}
	return bestCategory
}

func better(candidate, current string) bool {
	if current == "" {
		return true
	}
	if len(candidate) != len(current) {
		return len(candidate) > len(current)
	}
	return candidate < current
}
