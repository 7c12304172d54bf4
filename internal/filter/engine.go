// Package filter decides which feed entries are notified.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"feed_notifier/internal/model"
)

// regexPrefix marks a configured rule value as a regular expression.
const regexPrefix = "re:"

// ParseRules converts configured include/exclude values into rules.
// Values prefixed with "re:" become regex rules and are validated.
func ParseRules(include, exclude []string) ([]model.Rule, error) {
	var rules []model.Rule
	add := func(values []string, word, re model.RuleKind) error {
		for _, v := range values {
			if p, ok := strings.CutPrefix(v, regexPrefix); ok {
				if err := ValidateRegex(p); err != nil {
					return fmt.Errorf("rule %q: %w", v, err)
				}
				rules = append(rules, model.Rule{Kind: re, Value: p})
				continue
			}
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("empty %s rule", word)
			}
			rules = append(rules, model.Rule{Kind: word, Value: v})
		}
		return nil
	}
	if err := add(include, model.RuleInclude, model.RuleIncludeRe); err != nil {
		return nil, err
	}
	if err := add(exclude, model.RuleExclude, model.RuleExcludeRe); err != nil {
		return nil, err
	}
	return rules, nil
}

// Match checks whether an entry passes the given set of rules.
// If no rules are provided, the entry always passes.
// Include rules use OR logic (at least one must match).
// Exclude rules use AND logic (none must match).
func Match(entry model.Entry, rules []model.Rule) bool {
	if len(rules) == 0 {
		return true
	}

	text := strings.ToLower(entry.Title + " " + entry.Summary)
	hasIncludes := false
	anyIncludeMatched := false

	for _, r := range rules {
		switch r.Kind {
		case model.RuleInclude, model.RuleIncludeRe:
			hasIncludes = true
			if matchesRule(text, r) {
				anyIncludeMatched = true
			}
		case model.RuleExclude, model.RuleExcludeRe:
			if matchesRule(text, r) {
				return false
			}
		}
	}

	return !hasIncludes || anyIncludeMatched
}

func matchesRule(text string, r model.Rule) bool {
	switch r.Kind {
	case model.RuleInclude, model.RuleExclude:
		return strings.Contains(text, strings.ToLower(r.Value))
	case model.RuleIncludeRe, model.RuleExcludeRe:
		re, err := regexp.Compile("(?i)" + r.Value)
		if err != nil {
			return false
		}
		return re.MatchString(text)
	}
	return false
}

// ValidateRegex checks whether a pattern is a valid regular expression.
func ValidateRegex(pattern string) error {
	_, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	return nil
}
