package rules

import (
	"fmt"
	"strings"
	"time"
)

// Type identifies the kind of an allocation rule
type Type string

const (
	TypeCoRun              Type = "coRun"
	TypeSlotRestriction    Type = "slotRestriction"
	TypeLoadLimit          Type = "loadLimit"
	TypePhaseWindow        Type = "phaseWindow"
	TypePatternMatch       Type = "patternMatch"
	TypePrecedenceOverride Type = "precedenceOverride"
	TypeFreeForm           Type = "freeForm"
)

// Types lists every rule kind
var Types = []Type{
	TypeCoRun,
	TypeSlotRestriction,
	TypeLoadLimit,
	TypePhaseWindow,
	TypePatternMatch,
	TypePrecedenceOverride,
	TypeFreeForm,
}

func (t Type) IsValid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Rule is a user-defined allocation rule. Type selects which of the
// parameter fields are meaningful; the rest are left empty.
type Rule struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type" validate:"required,oneof=coRun slotRestriction loadLimit phaseWindow patternMatch precedenceOverride freeForm"`
	CreatedAt time.Time `json:"createdAt"`

	// coRun: tasks that must run together
	Tasks []string `json:"tasks,omitempty"`

	// slotRestriction and loadLimit: the client or worker group the rule applies to
	Group string `json:"group,omitempty"`

	// slotRestriction
	MinCommonSlots int `json:"minCommonSlots,omitempty"`

	// loadLimit
	MaxSlotsPerPhase int `json:"maxSlotsPerPhase,omitempty"`

	// phaseWindow
	TaskID        string `json:"taskId,omitempty"`
	AllowedPhases []int  `json:"allowedPhases,omitempty"`

	// patternMatch
	Regex    string            `json:"regex,omitempty"`
	Template string            `json:"template,omitempty"`
	Params   map[string]string `json:"params,omitempty"`

	// precedenceOverride
	Overrides []string `json:"overrides,omitempty"`
	Priority  int      `json:"priority,omitempty"`

	// freeForm, and an optional note on any other kind
	Description string `json:"description,omitempty"`
}

// FreeForm wraps raw text that could not be turned into a typed rule
func FreeForm(text string) Rule {
	return Rule{Type: TypeFreeForm, Description: strings.TrimSpace(text)}
}

// Summary renders a one-line description of the rule for listings
func (r Rule) Summary() string {
	switch r.Type {
	case TypeCoRun:
		return fmt.Sprintf("co-run %s", strings.Join(r.Tasks, ", "))
	case TypeSlotRestriction:
		return fmt.Sprintf("group %s needs at least %d common slots", r.Group, r.MinCommonSlots)
	case TypeLoadLimit:
		return fmt.Sprintf("group %s limited to %d slots per phase", r.Group, r.MaxSlotsPerPhase)
	case TypePhaseWindow:
		return fmt.Sprintf("task %s restricted to phases %v", r.TaskID, r.AllowedPhases)
	case TypePatternMatch:
		return fmt.Sprintf("pattern %q applies template %s", r.Regex, r.Template)
	case TypePrecedenceOverride:
		return fmt.Sprintf("priority %d overrides %s", r.Priority, strings.Join(r.Overrides, ", "))
	case TypeFreeForm:
		return r.Description
	}
	return string(r.Type)
}
