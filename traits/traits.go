// Package traits derives (name, value) annotations from test titles using
// configurable regular expression rules.
package traits

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum-optimism/infra/op-reporter/types"
)

// Trait is a metadata pair attached to a test case
type Trait struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type compiledRule struct {
	re      *regexp.Regexp
	name    string
	replace string
}

// Extractor applies an ordered list of rules to test titles.
// It is immutable after construction and safe for concurrent use.
type Extractor struct {
	rules []compiledRule
}

// Compile validates and compiles the rules, preserving their order
func Compile(rules []types.TraitRule) (*Extractor, error) {
	e := &Extractor{rules: make([]compiledRule, 0, len(rules))}
	for i, rule := range rules {
		if rule.Name == "" {
			return nil, fmt.Errorf("trait rule %d: name is required", i)
		}
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("trait rule %d (%s): invalid pattern %q: %w", i, rule.Name, rule.Pattern, err)
		}
		e.rules = append(e.rules, compiledRule{re: re, name: rule.Name, replace: rule.Replace})
	}
	return e, nil
}

// Len returns the number of compiled rules
func (e *Extractor) Len() int {
	if e == nil {
		return 0
	}
	return len(e.rules)
}

// Extract returns one trait per rule whose pattern matches the title, in rule order.
// The value is the title with its first match replaced by the rule template, trimmed.
func (e *Extractor) Extract(title string) []Trait {
	if e == nil || len(e.rules) == 0 {
		return []Trait{}
	}

	result := make([]Trait, 0, len(e.rules))
	for _, rule := range e.rules {
		loc := rule.re.FindStringSubmatchIndex(title)
		if loc == nil {
			continue
		}

		var value strings.Builder
		value.WriteString(title[:loc[0]])
		value.Write(rule.re.ExpandString(nil, rule.replace, title, loc))
		value.WriteString(title[loc[1]:])

		result = append(result, Trait{
			Name:  rule.name,
			Value: strings.TrimSpace(value.String()),
		})
	}
	return result
}

// ParseRule parses the flag form "name=pattern=>template".
// The template may be omitted ("name=pattern"), in which case the matched text is removed.
func ParseRule(s string) (types.TraitRule, error) {
	name, rest, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return types.TraitRule{}, fmt.Errorf("trait rule %q: expected name=pattern=>template", s)
	}
	pattern, replace, _ := strings.Cut(rest, "=>")
	if pattern == "" {
		return types.TraitRule{}, fmt.Errorf("trait rule %q: pattern is empty", s)
	}
	return types.TraitRule{
		Name:    strings.TrimSpace(name),
		Pattern: pattern,
		Replace: replace,
	}, nil
}
