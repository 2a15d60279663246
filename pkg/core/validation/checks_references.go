package validation

import (
	"fmt"
	"strings"

	"github.com/jakechorley/data-curator/pkg/core/fields"
	"github.com/jakechorley/data-curator/pkg/core/model"
	"github.com/jakechorley/data-curator/pkg/core/phases"
)

// RequestedTaskExistsCheck reports every RequestedTaskIDs reference with no matching task,
// one issue per missing reference
type RequestedTaskExistsCheck struct{}

func (c *RequestedTaskExistsCheck) Name() string { return "RequestedTaskExists" }
func (c *RequestedTaskExistsCheck) Entity() model.EntityKind { return model.EntityClients }

func (c *RequestedTaskExistsCheck) Run(tables model.Tables) []model.ValidationIssue {
	taskIDs := idSet(tables.Tasks, model.EntityTasks)

	var issues []model.ValidationIssue
	for i, client := range tables.Clients {
		for _, ref := range fields.SplitTags(cellString(client, model.ColRequestedTaskIDs)) {
			if !taskIDs[ref] {
				issues = append(issues, rowIssue(model.EntityClients, i, model.ColRequestedTaskIDs, fmt.Sprintf(msgUnknownTask, ref), model.SeverityError))
			}
		}
	}
	return issues
}

// RequestedTaskFormatCheck reports RequestedTaskIDs references that are not shaped like task IDs.
// It is independent of RequestedTaskExistsCheck: a malformed reference is usually reported by both.
type RequestedTaskFormatCheck struct{}

func (c *RequestedTaskFormatCheck) Name() string { return "RequestedTaskFormat" }
func (c *RequestedTaskFormatCheck) Entity() model.EntityKind { return model.EntityClients }

func (c *RequestedTaskFormatCheck) Run(tables model.Tables) []model.ValidationIssue {
	pattern := idPatterns[model.EntityTasks]

	var issues []model.ValidationIssue
	for i, client := range tables.Clients {
		for _, ref := range fields.SplitTags(cellString(client, model.ColRequestedTaskIDs)) {
			if !pattern.MatchString(ref) {
				issues = append(issues, rowIssue(model.EntityClients, i, model.ColRequestedTaskIDs, fmt.Sprintf(msgInvalidTaskRef, ref), model.SeverityError))
			}
		}
	}
	return issues
}

// SkillCoverageCheck requires every required skill of a task to be held by at least one worker.
// All uncovered skills of a task are listed in a single issue.
type SkillCoverageCheck struct{}

func (c *SkillCoverageCheck) Name() string { return "SkillCoverage" }
func (c *SkillCoverageCheck) Entity() model.EntityKind { return model.EntityTasks }

func (c *SkillCoverageCheck) Run(tables model.Tables) []model.ValidationIssue {
	available := make(map[string]bool)
	for _, skills := range workerSkillSets(tables.Workers) {
		for skill := range skills {
			available[skill] = true
		}
	}

	var issues []model.ValidationIssue
	for i, task := range tables.Tasks {
		var uncovered []string
		listed := make(map[string]bool)
		for _, skill := range fields.SplitTags(cellString(task, model.ColRequiredSkills)) {
			if available[skill] || listed[skill] {
				continue
			}
			listed[skill] = true
			uncovered = append(uncovered, skill)
		}

		if len(uncovered) > 0 {
			msg := fmt.Sprintf(msgUncoveredSkills, strings.Join(uncovered, ", "))
			issues = append(issues, rowIssue(model.EntityTasks, i, model.ColRequiredSkills, msg, model.SeverityError))
		}
	}
	return issues
}

// MaxConcurrencyCheck warns when a task allows more simultaneous assignments
// than there are qualified workers. Availability is not considered.
type MaxConcurrencyCheck struct{}

func (c *MaxConcurrencyCheck) Name() string { return "MaxConcurrency" }
func (c *MaxConcurrencyCheck) Entity() model.EntityKind { return model.EntityTasks }

func (c *MaxConcurrencyCheck) Run(tables model.Tables) []model.ValidationIssue {
	skillSets := workerSkillSets(tables.Workers)

	var issues []model.ValidationIssue
	for i, task := range tables.Tasks {
		maxConcurrent, ok := fields.CellInt(task[model.ColMaxConcurrent])
		if !ok {
			continue
		}

		required := fields.SplitTags(cellString(task, model.ColRequiredSkills))
		qualified := 0
		for _, skills := range skillSets {
			if fields.ContainsAll(skills, required) {
				qualified++
			}
		}

		if maxConcurrent > qualified {
			msg := fmt.Sprintf(msgMaxConcurrent, maxConcurrent, qualified)
			issues = append(issues, rowIssue(model.EntityTasks, i, model.ColMaxConcurrent, msg, model.SeverityWarning))
		}
	}
	return issues
}

// OverloadedWorkerCheck warns when a worker's per-phase load exceeds the
// number of slots they are available in. This is a plain count comparison.
type OverloadedWorkerCheck struct{}

func (c *OverloadedWorkerCheck) Name() string { return "OverloadedWorker" }
func (c *OverloadedWorkerCheck) Entity() model.EntityKind { return model.EntityWorkers }

func (c *OverloadedWorkerCheck) Run(tables model.Tables) []model.ValidationIssue {
	var issues []model.ValidationIssue
	for i, worker := range tables.Workers {
		maxLoad, ok := fields.CellInt(worker[model.ColMaxLoadPerPhase])
		if !ok {
			continue
		}
		slots, err := fields.ParseSlotArray(cellString(worker, model.ColAvailableSlots))
		if err != nil {
			continue
		}

		if maxLoad > len(slots) {
			msg := fmt.Sprintf(msgOverloadedWorker, maxLoad, len(slots))
			issues = append(issues, rowIssue(model.EntityWorkers, i, model.ColMaxLoadPerPhase, msg, model.SeverityWarning))
		}
	}
	return issues
}

// PhaseSaturationCheck compares, for every phase any worker is available in,
// the total duration of tasks preferring that phase with the total per-phase
// load of workers available in it. Each saturated phase yields one table-level warning.
type PhaseSaturationCheck struct{}

func (c *PhaseSaturationCheck) Name() string { return "PhaseSaturation" }
func (c *PhaseSaturationCheck) Entity() model.EntityKind { return model.EntityTasks }

func (c *PhaseSaturationCheck) Run(tables model.Tables) []model.ValidationIssue {
	var issues []model.ValidationIssue
	for _, load := range phases.Loads(tables) {
		if load.Saturated() {
			msg := fmt.Sprintf(msgPhaseSaturated, load.Phase, load.Demand, load.Capacity)
			issues = append(issues, tableIssue(model.EntityTasks, "", msg, model.SeverityWarning))
		}
	}
	return issues
}
