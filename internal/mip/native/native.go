// Package native is a small exact branch-and-bound backend for pure-integer
// models. It propagates bounds through every row after each branching
// decision and prunes nodes whose objective bound cannot beat the incumbent.
// It is meant for modest instances and for running without a native solver
// library; large models should go to a dedicated engine.
package native

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/eugenenazirov/binpack/internal/mip"
)

// Name is the registry key of this backend.
const Name = "native"

const eps = 1e-9

// ErrUnsupportedModel is returned for models with continuous or unbounded columns.
var ErrUnsupportedModel = errors.New("native backend supports bounded integer columns only")

// Backend implements mip.Backend.
type Backend struct{}

// New creates the native backend.
func New() *Backend {
	return &Backend{}
}

func init() {
	mip.Register(Name, func() mip.Backend { return New() })
}

// Name implements mip.Backend.
func (b *Backend) Name() string {
	return Name
}

// Solve implements mip.Backend. Emphasis and WorkDir are accepted but have no
// effect on this search.
func (b *Backend) Solve(ctx context.Context, m *mip.Model, start mip.Start, p mip.Params) (*mip.Result, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if start != nil && len(start) != len(m.Vars) {
		return nil, fmt.Errorf("%w: got %d values for %d columns", mip.ErrStartShape, len(start), len(m.Vars))
	}

	s, err := newSearch(ctx, m, p)
	if err != nil {
		return nil, err
	}

	began := time.Now()
	accepted := false
	if start != nil && m.Feasible(start, 1e-6) {
		s.offer(roundAll(start))
		accepted = true
	}

	s.run()

	res := &mip.Result{
		Status:        s.status(),
		Nodes:         s.nodes,
		Elapsed:       time.Since(began),
		StartAccepted: accepted,
	}
	if s.best != nil {
		res.Values = append([]float64(nil), s.best...)
		res.Objective = s.bestObj
	}
	return res, nil
}

func roundAll(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Round(v)
	}
	return out
}
