package mip

import (
	"context"
	"fmt"
	"time"
)

// Emphasis selects the search strategy of a backend. The numbering follows
// the conventional MIP emphasis switch.
type Emphasis int

const (
	EmphasisBalanced Emphasis = iota
	EmphasisFeasibility
	EmphasisOptimality
	EmphasisBestBound
	EmphasisHiddenFeasibility
)

func (e Emphasis) String() string {
	switch e {
	case EmphasisBalanced:
		return "balanced"
	case EmphasisFeasibility:
		return "feasibility"
	case EmphasisOptimality:
		return "optimality"
	case EmphasisBestBound:
		return "bestbound"
	case EmphasisHiddenFeasibility:
		return "hiddenfeasibility"
	default:
		return fmt.Sprintf("Emphasis(%d)", int(e))
	}
}

// Valid reports whether e is one of the known emphasis settings.
func (e Emphasis) Valid() bool {
	return e >= EmphasisBalanced && e <= EmphasisHiddenFeasibility
}

// Params are tuning parameters handed to a backend untouched.
// Zero limits mean "no limit".
type Params struct {
	Emphasis  Emphasis
	TimeLimit time.Duration
	NodeLimit int
	WorkDir   string
}

// TimeBudget is the smaller of TimeLimit and the time left before the ctx
// deadline; zero means unlimited. ok is false once the deadline has passed,
// in which case the solve must not start.
func (p Params) TimeBudget(ctx context.Context) (limit time.Duration, ok bool) {
	limit = p.TimeLimit
	deadline, has := ctx.Deadline()
	if !has {
		return limit, true
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return 0, false
	}
	if limit == 0 || remaining < limit {
		limit = remaining
	}
	return limit, true
}

// Start is a warm-start hint: one value per model column.
// A nil Start means no hint.
type Start []float64
