package allocator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jakechorley/data-curator/pkg/core/fields"
	"github.com/jakechorley/data-curator/pkg/core/model"
)

// MaxCandidates caps the ranked list returned by Score
const MaxCandidates = 20

// Term labels, in the order they appear in a candidate's reason
const (
	TermPriority = "Priority"
	TermFairness = "Fairness"
	TermWorkload = "Workload"
	TermCost     = "Cost"
)

const (
	noteInvalidSlots         = "invalid slots"
	noteInvalidQualification = "invalid qualification"
)

// Term is one weighted contribution to a candidate's score
type Term struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Note  string  `json:"note,omitempty"`
}

func (t Term) String() string {
	if t.Note != "" {
		return fmt.Sprintf("%s: %.2f (%s)", t.Label, t.Value, t.Note)
	}
	return fmt.Sprintf("%s: %.2f", t.Label, t.Value)
}

// Candidate is one scored (client, task, worker) triple
type Candidate struct {
	ClientID   string  `json:"clientId"`
	ClientName string  `json:"clientName"`
	TaskID     string  `json:"taskId"`
	TaskName   string  `json:"taskName"`
	WorkerID   string  `json:"workerId"`
	WorkerName string  `json:"workerName"`
	Score      float64 `json:"score"`
	Reason     string  `json:"reason"`
	Breakdown  []Term  `json:"breakdown"`
}

// worker is the scorer's parsed view of a worker row
type worker struct {
	id            string
	name          string
	skills        map[string]bool
	slotCount     int
	slotsValid    bool
	qualification int
}

// Score enumerates every client, each of its requested tasks that resolves to
// a task row, and every worker qualified for that task. Each triple receives
// an additive score of four weighted terms. Candidates are ranked by score,
// highest first, with ties kept in enumeration order, and capped at MaxCandidates.
//
// Fairness depends on enumeration order: a worker's fairness term shrinks with
// every candidate already produced for them during this call.
//
// References that cannot be resolved (unknown tasks, rows without an ID) are
// skipped rather than reported; the validation engine covers those.
func Score(tables model.Tables, weights Weights) []Candidate {
	tasks := indexTasks(tables.Tasks)
	workers := parseWorkers(tables.Workers)

	assigned := make(map[string]int)
	var candidates []Candidate

	for _, client := range tables.Clients {
		clientID := strings.TrimSpace(fields.CellString(client[model.ColClientID]))
		if clientID == "" {
			continue
		}
		// A non-numeric priority scores as zero
		priority, _ := fields.CellInt(client[model.ColPriorityLevel])

		for _, taskID := range fields.SplitTags(fields.CellString(client[model.ColRequestedTaskIDs])) {
			task, ok := tasks[taskID]
			if !ok {
				continue
			}
			required := fields.SplitTags(fields.CellString(task[model.ColRequiredSkills]))

			for _, w := range workers {
				if !fields.ContainsAll(w.skills, required) {
					continue
				}

				breakdown := []Term{
					priorityTerm(priority, weights),
					fairnessTerm(assigned[w.id], weights),
					workloadTerm(w, weights),
					costTerm(w, weights),
				}

				candidates = append(candidates, Candidate{
					ClientID:   clientID,
					ClientName: fields.CellString(client[model.ColClientName]),
					TaskID:     taskID,
					TaskName:   fields.CellString(task[model.ColTaskName]),
					WorkerID:   w.id,
					WorkerName: w.name,
					Score:      total(breakdown),
					Reason:     reason(breakdown),
					Breakdown:  breakdown,
				})
				assigned[w.id]++
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if len(candidates) > MaxCandidates {
		candidates = candidates[:MaxCandidates]
	}
	return candidates
}

func priorityTerm(priority int, weights Weights) Term {
	return Term{Label: TermPriority, Value: float64(priority) * percent(weights.PriorityLevel)}
}

func fairnessTerm(assignedSoFar int, weights Weights) Term {
	return Term{Label: TermFairness, Value: 1 / float64(assignedSoFar+1) * percent(weights.Fairness)}
}

func workloadTerm(w worker, weights Weights) Term {
	if !w.slotsValid {
		return Term{Label: TermWorkload, Value: 0, Note: noteInvalidSlots}
	}
	return Term{Label: TermWorkload, Value: float64(w.slotCount) / 10 * percent(weights.Workload)}
}

func costTerm(w worker, weights Weights) Term {
	if w.qualification <= 0 {
		return Term{Label: TermCost, Value: 0, Note: noteInvalidQualification}
	}
	return Term{Label: TermCost, Value: 1 / float64(w.qualification) * percent(weights.Cost)}
}

func total(terms []Term) float64 {
	sum := 0.0
	for _, term := range terms {
		sum += term.Value
	}
	return sum
}

func reason(terms []Term) string {
	parts := make([]string, len(terms))
	for i, term := range terms {
		parts[i] = term.String()
	}
	return strings.Join(parts, ", ")
}

// indexTasks maps each TaskID to its first row
func indexTasks(table model.Table) map[string]model.Row {
	index := make(map[string]model.Row, len(table))
	for _, task := range table {
		id := strings.TrimSpace(fields.CellString(task[model.ColTaskID]))
		if id == "" {
			continue
		}
		if _, exists := index[id]; !exists {
			index[id] = task
		}
	}
	return index
}

// parseWorkers decodes each worker row once, in table order.
// Rows without a WorkerID cannot be referenced by a candidate and are dropped.
func parseWorkers(table model.Table) []worker {
	workers := make([]worker, 0, len(table))
	for _, row := range table {
		id := strings.TrimSpace(fields.CellString(row[model.ColWorkerID]))
		if id == "" {
			continue
		}

		w := worker{
			id:     id,
			name:   fields.CellString(row[model.ColWorkerName]),
			skills: fields.TagSet(fields.CellString(row[model.ColSkills])),
		}
		if slots, err := fields.ParseSlotArray(fields.CellString(row[model.ColAvailableSlots])); err == nil {
			w.slotCount = len(slots)
			w.slotsValid = true
		}
		w.qualification, _ = fields.CellInt(row[model.ColQualificationLevel])
		workers = append(workers, w)
	}
	return workers
}
