package selector

import (
	"regexp"
	"strings"
)

// projectKeyPattern matches a Jira-style project key mention, e.g. "ABC"
// or "ABC_1" (spec §4.1 step 2).
var projectKeyPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9_]{1,15}\b`)

// directIntentRule is one entry of the small keyword rule table used for
// direct-intent and entity-mention matching (spec §4.1 steps 2-3),
// grounded on the original tool_selector.py keyword tables.
type directIntentRule struct {
	tools     []string
	keywords  []string
	requireAll bool // all keywords must match, not just one
	extraCheck func(query string) bool
	exclusive bool // stop evaluating further rules once matched (help keyword)
}

var rules = []directIntentRule{
	{
		tools:     []string{"help"},
		keywords:  []string{"help", "what can you do", "commands"},
		exclusive: true,
	},
	{
		tools:    []string{"repo_list"},
		keywords: []string{"repo", "repos", "repository", "repositories"},
		extraCheck: func(query string) bool {
			return containsAny(query, []string{"list", "show", "what"})
		},
	},
	{
		tools:    []string{"user_issues"},
		keywords: []string{"my tickets", "my issues", "assigned to me"},
	},
	{
		tools:    []string{"project_issues"},
		keywords: []string{"project", "ticket", "tickets", "issue", "issues"},
		extraCheck: func(query string) bool {
			return projectKeyPattern.MatchString(query)
		},
	},
	{
		tools:    []string{"code_search", "web_search"},
		keywords: []string{"code", "function", "search the web", "google", "find online"},
	},
}

// MatchDirectIntent returns the tool names the direct-intent rule set
// yields for query (spec §4.1 step 2). A match against the "help" rule
// short-circuits every other rule.
func MatchDirectIntent(query string) []string {
	lower := strings.ToLower(query)
	var matched []string
	for _, rule := range rules {
		if !ruleMatches(rule, query, lower) {
			continue
		}
		matched = append(matched, rule.tools...)
		if rule.exclusive {
			return rule.tools
		}
	}
	return dedupStrings(matched)
}

// MatchEntityMentions is the "boost" expansion of the same rule set,
// permitted to surface tools beyond what direct intent already found
// (spec §4.1 step 3). In this rule table every rule is entity-eligible,
// so entity mentions reuse the same matcher; callers union the result
// with the direct-intent set rather than replacing it.
func MatchEntityMentions(query string) []string {
	return MatchDirectIntent(query)
}

func ruleMatches(rule directIntentRule, rawQuery, lowerQuery string) bool {
	if len(rule.keywords) > 0 {
		if rule.requireAll {
			for _, kw := range rule.keywords {
				if !strings.Contains(lowerQuery, kw) {
					return false
				}
			}
		} else if !containsAny(lowerQuery, rule.keywords) {
			return false
		}
	}
	if rule.extraCheck != nil && !rule.extraCheck(rawQuery) {
		return false
	}
	return true
}

func containsAny(haystack string, needles []string) bool {
	lower := strings.ToLower(haystack)
	for _, n := range needles {
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

func dedupStrings(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
