package collaborator

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnavailable indicates the model backend could not be reached or refused the request
	ErrUnavailable = errors.New("collaborator backend unavailable")

	// ErrTimeout indicates the call exceeded its deadline
	ErrTimeout = errors.New("collaborator request timed out")

	// ErrInvalidOutput indicates the response could not be turned into the expected shape
	ErrInvalidOutput = errors.New("invalid collaborator output")
)

// classify maps a backend error onto one of the sentinel errors
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnavailable) || errors.Is(err, ErrInvalidOutput) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
