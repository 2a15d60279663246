package phases

import (
	"sort"

	"github.com/jakechorley/data-curator/pkg/core/fields"
	"github.com/jakechorley/data-curator/pkg/core/model"
)

// Load is the demand and capacity of a single phase
type Load struct {
	Phase int `json:"phase"`
	// Demand is the total Duration of tasks preferring the phase
	Demand int `json:"demand"`
	// Capacity is the total MaxLoadPerPhase of workers available in the phase
	Capacity int `json:"capacity"`
}

func (l Load) Saturated() bool {
	return l.Demand > l.Capacity
}

// Loads computes demand and capacity for every phase that appears in at
// least one worker's AvailableSlots, in ascending phase order.
// Rows whose slots or phases do not parse are left out, as are non-positive
// durations and loads.
func Loads(tables model.Tables) []Load {
	type worker struct {
		slots   map[int]bool
		maxLoad int
	}
	type task struct {
		phases   fields.PhaseSet
		duration int
	}

	phaseSet := make(map[int]bool)
	workers := make([]worker, 0, len(tables.Workers))
	for _, row := range tables.Workers {
		slots, err := fields.ParseSlotArray(fields.CellString(row[model.ColAvailableSlots]))
		if err != nil {
			continue
		}
		w := worker{slots: make(map[int]bool, len(slots))}
		for _, slot := range slots {
			w.slots[slot] = true
			phaseSet[slot] = true
		}
		if maxLoad, ok := fields.CellInt(row[model.ColMaxLoadPerPhase]); ok && maxLoad > 0 {
			w.maxLoad = maxLoad
		}
		workers = append(workers, w)
	}

	tasks := make([]task, 0, len(tables.Tasks))
	for _, row := range tables.Tasks {
		preferred, ok := fields.ParsePhaseSet(fields.CellString(row[model.ColPreferredPhases]))
		if !ok {
			continue
		}
		t := task{phases: preferred}
		if duration, ok := fields.CellInt(row[model.ColDuration]); ok && duration > 0 {
			t.duration = duration
		}
		tasks = append(tasks, t)
	}

	phases := make([]int, 0, len(phaseSet))
	for phase := range phaseSet {
		phases = append(phases, phase)
	}
	sort.Ints(phases)

	loads := make([]Load, 0, len(phases))
	for _, phase := range phases {
		load := Load{Phase: phase}
		for _, t := range tasks {
			if t.phases.Contains(phase) {
				load.Demand += t.duration
			}
		}
		for _, w := range workers {
			if w.slots[phase] {
				load.Capacity += w.maxLoad
			}
		}
		loads = append(loads, load)
	}
	return loads
}
