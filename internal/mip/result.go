package mip

import (
	"fmt"
	"time"
)

// Status is the termination reason reported by a backend.
type Status int

const (
	StatusUnknown Status = iota
	StatusOptimal
	StatusTimeLimit
	StatusNodeLimit
	StatusInfeasible
	StatusInterrupted
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusOptimal:
		return "optimal"
	case StatusTimeLimit:
		return "time limit"
	case StatusNodeLimit:
		return "node limit"
	case StatusInfeasible:
		return "infeasible"
	case StatusInterrupted:
		return "interrupted"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is what a backend returns from a solve.
type Result struct {
	Status        Status
	Values        []float64
	Objective     float64
	Nodes         int
	Elapsed       time.Duration
	StartAccepted bool
}

// HasSolution reports whether Values hold a candidate assignment.
func (r *Result) HasSolution() bool {
	return r != nil && len(r.Values) > 0
}
