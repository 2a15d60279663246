package fields

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrSlotsNotJSON indicates an AvailableSlots cell that is not valid JSON
	ErrSlotsNotJSON = errors.New("slots are not valid JSON")

	// ErrSlotsNotArray indicates an AvailableSlots cell that decodes to something other than an array
	ErrSlotsNotArray = errors.New("slots are not a JSON array")

	// ErrSlotsNonPositive indicates an AvailableSlots array with an element that is not a positive whole number
	ErrSlotsNonPositive = errors.New("slots contain a non-positive value")

	// ErrInvalidJSON indicates a JSON blob that fails to parse
	ErrInvalidJSON = errors.New("invalid JSON")
)

var phaseRangePattern = regexp.MustCompile(`^(\d+)\s*-\s*(\d+)$`)

// PhaseSet is a set of positive phase numbers. A range keeps only its
// bounds, so "1-1000000" costs the same as "1-3". The zero value is empty.
type PhaseSet struct {
	explicit   []int
	start, end int
}

// Contains reports whether phase is in the set
func (s PhaseSet) Contains(phase int) bool {
	if s.explicit != nil {
		i := sort.SearchInts(s.explicit, phase)
		return i < len(s.explicit) && s.explicit[i] == phase
	}
	return phase >= s.start && phase <= s.end && s.end > 0
}

// Len is the number of phases in the set
func (s PhaseSet) Len() int {
	if s.explicit != nil {
		return len(s.explicit)
	}
	if s.end == 0 {
		return 0
	}
	return s.end - s.start + 1
}

// Phases lists the set in ascending order. Ranges are expanded, so callers
// holding untrusted input should check Len first.
func (s PhaseSet) Phases() []int {
	if s.explicit != nil {
		return append([]int(nil), s.explicit...)
	}
	phases := make([]int, 0, s.Len())
	for p := s.start; p <= s.end && s.end > 0; p++ {
		phases = append(phases, p)
	}
	return phases
}

// ParsePhaseSet decodes a PreferredPhases cell into a set of positive phase numbers.
//
// Accepted shapes, tried in order:
//   - a JSON array of numbers; non-positive and non-whole elements are dropped
//   - a range "a-b" with 1 <= a <= b, inclusive
//   - a comma list of integers, valid only if every token is a positive integer
//
// Duplicates collapse. The boolean is false when nothing usable was found,
// which callers report as a parse failure.
func ParsePhaseSet(raw string) (PhaseSet, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return PhaseSet{}, false
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
		if arr, ok := decoded.([]any); ok {
			set := make(map[int]bool)
			for _, element := range arr {
				if phase, ok := positiveWhole(element); ok {
					set[phase] = true
				}
			}
			return explicitSet(set)
		}
	}

	if m := phaseRangePattern.FindStringSubmatch(trimmed); m != nil {
		start, errStart := strconv.Atoi(m[1])
		end, errEnd := strconv.Atoi(m[2])
		if errStart != nil || errEnd != nil || start < 1 || start > end {
			return PhaseSet{}, false
		}
		return PhaseSet{start: start, end: end}, true
	}

	set := make(map[int]bool)
	for _, token := range strings.Split(trimmed, ",") {
		phase, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil || phase <= 0 {
			return PhaseSet{}, false
		}
		set[phase] = true
	}
	return explicitSet(set)
}

func explicitSet(set map[int]bool) (PhaseSet, bool) {
	if len(set) == 0 {
		return PhaseSet{}, false
	}
	return PhaseSet{explicit: sortedKeys(set)}, true
}

// ParseSlotArray decodes an AvailableSlots cell. The cell must be valid JSON,
// must be an array, and every element must be a positive whole number.
// An empty array is valid.
func ParseSlotArray(raw string) ([]int, error) {
	var decoded any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &decoded); err != nil {
		return nil, ErrSlotsNotJSON
	}

	arr, ok := decoded.([]any)
	if !ok {
		return nil, ErrSlotsNotArray
	}

	slots := make([]int, 0, len(arr))
	for _, element := range arr {
		slot, ok := positiveWhole(element)
		if !ok {
			return nil, ErrSlotsNonPositive
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// ParseJSONBlob checks that raw is syntactically valid JSON. The decoded value is discarded.
func ParseJSONBlob(raw string) error {
	if !json.Valid([]byte(raw)) {
		return ErrInvalidJSON
	}
	return nil
}

// SplitTags splits a comma separated cell into trimmed, non-empty tags, keeping order
func SplitTags(raw string) []string {
	tags := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// TagSet builds a lookup set from a comma separated cell
func TagSet(raw string) map[string]bool {
	set := make(map[string]bool)
	for _, tag := range SplitTags(raw) {
		set[tag] = true
	}
	return set
}

// ContainsAll reports whether every tag in required is present in have.
// An empty requirement is always satisfied.
func ContainsAll(have map[string]bool, required []string) bool {
	for _, tag := range required {
		if !have[tag] {
			return false
		}
	}
	return true
}

func positiveWhole(element any) (int, bool) {
	f, ok := element.(float64)
	if !ok || f <= 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func sortedKeys(set map[int]bool) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
