package services

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/data-curator/pkg/core/model"
	"github.com/jakechorley/data-curator/pkg/core/phases"
)

// PhaseLoad is a phase's demand and capacity, dated when a calendar is available
type PhaseLoad struct {
	phases.Load
	Saturated bool       `json:"saturated"`
	Date      *time.Time `json:"date,omitempty"`
}

// PhaseReport lists the load of every phase workers are available in.
// A nil calendar leaves every Date unset.
func PhaseReport(tables model.Tables, calendar *phases.Calendar, logger *zap.Logger) ([]PhaseLoad, error) {
	loads := phases.Loads(tables)
	logger.Debug("Computed phase loads", zap.Int("phases", len(loads)))

	var dates []time.Time
	if calendar != nil && len(loads) > 0 {
		// Loads are sorted, so the last phase bounds the walk
		last := loads[len(loads)-1].Phase
		var err error
		dates, err = calendar.Dates(last)
		if err != nil {
			return nil, fmt.Errorf("failed to date phases: %w", err)
		}
	}

	report := make([]PhaseLoad, 0, len(loads))
	saturated := 0
	for _, load := range loads {
		entry := PhaseLoad{Load: load, Saturated: load.Saturated()}
		if dates != nil {
			date := dates[load.Phase-1]
			entry.Date = &date
		}
		if entry.Saturated {
			saturated++
		}
		report = append(report, entry)
	}

	logger.Info("Phase report ready", zap.Int("phases", len(report)), zap.Int("saturated", saturated))

	return report, nil
}
