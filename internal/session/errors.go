package session

import (
	"errors"
	"fmt"
)

// ErrInfeasible is returned when a backend proves the model has no solution.
var ErrInfeasible = errors.New("model is infeasible")

// Phase names a step of the solve protocol.
type Phase string

const (
	PhaseProbe  Phase = "probe"
	PhaseCommit Phase = "commit"
)

// PhaseError reports which phase failed and why.
type PhaseError struct {
	Phase   Phase
	Backend string
	Err     error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s phase failed (backend %s): %v", e.Phase, e.Backend, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}
