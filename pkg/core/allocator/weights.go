package allocator

import (
	"errors"
	"fmt"
	"math"
)

// Weight keys as they appear in exported configs and on the API
const (
	KeyPriorityLevel            = "priorityLevel"
	KeyRequestedTaskFulfillment = "requestedTaskFulfillment"
	KeyFairness                 = "fairness"
	KeyCost                     = "cost"
	KeyWorkload                 = "workload"
)

// WeightKeys lists every weight key in display order
var WeightKeys = []string{
	KeyPriorityLevel,
	KeyRequestedTaskFulfillment,
	KeyFairness,
	KeyCost,
	KeyWorkload,
}

var (
	ErrUnknownWeight  = errors.New("unknown weight")
	ErrNegativeWeight = errors.New("weight must not be negative")
	ErrInvalidWeight  = errors.New("weight must be a finite number")
)

// Weights are the user-controlled scoring dials. Each is a percentage, so a
// weight of 100 applies a term at full strength and 0 switches it off.
type Weights struct {
	// PriorityLevel scales the client's PriorityLevel (1-5)
	PriorityLevel float64 `json:"priorityLevel" yaml:"priorityLevel" validate:"gte=0"`

	// RequestedTaskFulfillment is carried through exports and the API but does not
	// contribute to the score.
	RequestedTaskFulfillment float64 `json:"requestedTaskFulfillment" yaml:"requestedTaskFulfillment" validate:"gte=0"`

	// Fairness favours workers with fewer candidates earlier in the same scoring pass
	Fairness float64 `json:"fairness" yaml:"fairness" validate:"gte=0"`

	// Cost favours workers with a lower QualificationLevel
	Cost float64 `json:"cost" yaml:"cost" validate:"gte=0"`

	// Workload favours workers with more available slots
	Workload float64 `json:"workload" yaml:"workload" validate:"gte=0"`
}

// DefaultWeights returns the weights used when no configuration overrides them
func DefaultWeights() Weights {
	return Weights{
		PriorityLevel:            50,
		RequestedTaskFulfillment: 50,
		Fairness:                 30,
		Cost:                     20,
		Workload:                 20,
	}
}

// Get returns the weight stored under key
func (w Weights) Get(key string) (float64, error) {
	switch key {
	case KeyPriorityLevel:
		return w.PriorityLevel, nil
	case KeyRequestedTaskFulfillment:
		return w.RequestedTaskFulfillment, nil
	case KeyFairness:
		return w.Fairness, nil
	case KeyCost:
		return w.Cost, nil
	case KeyWorkload:
		return w.Workload, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownWeight, key)
}

// CheckValue rejects NaN, infinities and negative values for the weight under key
func CheckValue(key string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %s=%g", ErrInvalidWeight, key, value)
	}
	if value < 0 {
		return fmt.Errorf("%w: %s=%g", ErrNegativeWeight, key, value)
	}
	return nil
}

// Validate checks every weight with CheckValue
func (w Weights) Validate() error {
	for _, key := range WeightKeys {
		value, _ := w.Get(key)
		if err := CheckValue(key, value); err != nil {
			return err
		}
	}
	return nil
}

// With returns a copy of w with the single weight under key replaced
func (w Weights) With(key string, value float64) (Weights, error) {
	if err := CheckValue(key, value); err != nil {
		return w, err
	}

	switch key {
	case KeyPriorityLevel:
		w.PriorityLevel = value
	case KeyRequestedTaskFulfillment:
		w.RequestedTaskFulfillment = value
	case KeyFairness:
		w.Fairness = value
	case KeyCost:
		w.Cost = value
	case KeyWorkload:
		w.Workload = value
	default:
		return w, fmt.Errorf("%w: %q", ErrUnknownWeight, key)
	}
	return w, nil
}

// AsMap returns the weights keyed by their exported names
func (w Weights) AsMap() map[string]float64 {
	return map[string]float64{
		KeyPriorityLevel:            w.PriorityLevel,
		KeyRequestedTaskFulfillment: w.RequestedTaskFulfillment,
		KeyFairness:                 w.Fairness,
		KeyCost:                     w.Cost,
		KeyWorkload:                 w.Workload,
	}
}

func percent(weight float64) float64 {
	return weight / 100
}
