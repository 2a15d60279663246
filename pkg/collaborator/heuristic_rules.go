package collaborator

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jakechorley/data-curator/pkg/core/fields"
	"github.com/jakechorley/data-curator/pkg/core/model"
	"github.com/jakechorley/data-curator/pkg/core/rules"
)

var (
	taskRefPattern   = regexp.MustCompile(`\bT\d+\b`)
	groupRefPattern  = regexp.MustCompile(`\bGroup[A-Za-z0-9]+\b`)
	numberPattern    = regexp.MustCompile(`\b\d+\b`)
	phaseExprPattern = regexp.MustCompile(`(?i)\bphases?\s+(\[[\d,\s]*\]|\d+\s*-\s*\d+|\d+(?:\s*,\s*\d+)*)`)
	quotedPattern    = regexp.MustCompile(`"([^"]+)"|/([^/]+)/`)
)

// maxListedPhases bounds how many phases a suggestion spells out. Wider
// ranges stay valid cell values but are not expanded into rules or corrections.
const maxListedPhases = 1000

// ParseRule recognises a handful of phrasings for each rule type by keyword and
// identifier shape. Text it cannot place becomes a freeForm rule.
func (h *Heuristic) ParseRule(_ context.Context, text string, _ RuleContext) (rules.Rule, error) {
	return parseRuleText(text), nil
}

func parseRuleText(text string) rules.Rule {
	lower := strings.ToLower(text)
	tasks := uniqueMatches(taskRefPattern, text)
	groups := uniqueMatches(groupRefPattern, text)
	number, hasNumber := firstNumber(text)

	describe := func(r rules.Rule) rules.Rule {
		r.Description = strings.TrimSpace(text)
		return r
	}

	switch {
	case len(tasks) >= 2 && containsAny(lower, "together", "co-run", "corun", "same time", "alongside"):
		return describe(rules.Rule{Type: rules.TypeCoRun, Tasks: tasks})

	case len(tasks) == 1 && phaseExprPattern.MatchString(text):
		expr := phaseExprPattern.FindStringSubmatch(text)[1]
		if allowed, ok := fields.ParsePhaseSet(expr); ok && allowed.Len() <= maxListedPhases {
			return describe(rules.Rule{Type: rules.TypePhaseWindow, TaskID: tasks[0], AllowedPhases: allowed.Phases()})
		}

	case len(groups) == 1 && hasNumber && containsAny(lower, "common slot", "shared slot", "share"):
		return describe(rules.Rule{Type: rules.TypeSlotRestriction, Group: groups[0], MinCommonSlots: number})

	case len(groups) == 1 && hasNumber && containsAny(lower, "limit", "at most", "no more than", "max"):
		return describe(rules.Rule{Type: rules.TypeLoadLimit, Group: groups[0], MaxSlotsPerPhase: number})

	case hasNumber && containsAny(lower, "precedence", "override", "priority"):
		return describe(rules.Rule{Type: rules.TypePrecedenceOverride, Priority: number, Overrides: tasks})

	case containsAny(lower, "match", "pattern", "regex"):
		if m := quotedPattern.FindStringSubmatch(text); m != nil {
			return describe(rules.Rule{Type: rules.TypePatternMatch, Regex: m[1] + m[2]})
		}
	}

	return rules.FreeForm(text)
}

func containsAny(s string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}

func uniqueMatches(pattern *regexp.Regexp, text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, match := range pattern.FindAllString(text, -1) {
		if !seen[match] {
			seen[match] = true
			out = append(out, match)
		}
	}
	return out
}

// firstNumber returns the first standalone number that is not part of a task or group identifier
func firstNumber(text string) (int, bool) {
	stripped := taskRefPattern.ReplaceAllString(text, " ")
	stripped = groupRefPattern.ReplaceAllString(stripped, " ")

	match := numberPattern.FindString(stripped)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	return n, err == nil
}

// RecommendRules looks for two patterns: task pairs requested together by
// several clients (coRun), and worker groups whose members take on more load per
// phase than they have slots (loadLimit).
func (h *Heuristic) RecommendRules(_ context.Context, tables model.Tables) ([]RuleSuggestion, error) {
	suggestions := make([]RuleSuggestion, 0)
	suggestions = append(suggestions, coRequestedPairs(tables.Clients)...)
	suggestions = append(suggestions, overloadedGroups(tables.Workers)...)
	return suggestions, nil
}

// minPairRequests is how many clients must request a pair before coRun is suggested
const minPairRequests = 2

func coRequestedPairs(clients model.Table) []RuleSuggestion {
	type pair struct{ a, b string }
	counts := make(map[pair]int)

	for _, client := range clients {
		tasks := uniqueStrings(fields.SplitTags(fields.CellString(client[model.ColRequestedTaskIDs])))
		sort.Strings(tasks)
		for i := 0; i < len(tasks); i++ {
			for j := i + 1; j < len(tasks); j++ {
				counts[pair{tasks[i], tasks[j]}]++
			}
		}
	}

	pairs := make([]pair, 0, len(counts))
	for p, n := range counts {
		if n >= minPairRequests {
			pairs = append(pairs, p)
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if counts[pairs[i]] != counts[pairs[j]] {
			return counts[pairs[i]] > counts[pairs[j]]
		}
		if pairs[i].a != pairs[j].a {
			return pairs[i].a < pairs[j].a
		}
		return pairs[i].b < pairs[j].b
	})

	suggestions := make([]RuleSuggestion, 0, len(pairs))
	for _, p := range pairs {
		suggestions = append(suggestions, RuleSuggestion{
			Rule:   rules.Rule{Type: rules.TypeCoRun, Tasks: []string{p.a, p.b}},
			Reason: fmt.Sprintf("Tasks %s and %s are requested together by %d clients", p.a, p.b, counts[p]),
		})
	}
	return suggestions
}

func overloadedGroups(workers model.Table) []RuleSuggestion {
	type groupLoad struct {
		overloaded int
		minSlots   int
	}
	groups := make(map[string]*groupLoad)

	for _, worker := range workers {
		group := strings.TrimSpace(fields.CellString(worker[model.ColWorkerGroup]))
		if group == "" {
			continue
		}
		maxLoad, ok := fields.CellInt(worker[model.ColMaxLoadPerPhase])
		if !ok {
			continue
		}
		slots, err := fields.ParseSlotArray(fields.CellString(worker[model.ColAvailableSlots]))
		if err != nil || maxLoad <= len(slots) {
			continue
		}

		g, exists := groups[group]
		if !exists {
			g = &groupLoad{minSlots: len(slots)}
			groups[group] = g
		}
		g.overloaded++
		if len(slots) < g.minSlots {
			g.minSlots = len(slots)
		}
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	suggestions := make([]RuleSuggestion, 0, len(names))
	for _, name := range names {
		g := groups[name]
		limit := g.minSlots
		if limit < 1 {
			limit = 1
		}
		suggestions = append(suggestions, RuleSuggestion{
			Rule:   rules.Rule{Type: rules.TypeLoadLimit, Group: name, MaxSlotsPerPhase: limit},
			Reason: fmt.Sprintf("%d worker(s) in %s have a MaxLoadPerPhase above their available slots", g.overloaded, name),
		})
	}
	return suggestions
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
