// Package lpsolve solves models with lp_solve through github.com/draffensperger/golp.
// Linking requires liblpsolve55.
package lpsolve

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/draffensperger/golp"

	"github.com/eugenenazirov/binpack/internal/mip"
)

// Name is the registry key of this backend.
const Name = "lpsolve"

const feasibilityTol = 1e-6

// Backend implements mip.Backend on top of lp_solve.
// The binding exposes neither a time nor a node limit, so both are ignored.
type Backend struct{}

// New creates an lp_solve backend.
func New() *Backend {
	return &Backend{}
}

// Register makes the backend available to mip.Lookup.
func Register() {
	mip.Register(Name, func() mip.Backend { return New() })
}

// Name implements mip.Backend.
func (b *Backend) Name() string {
	return Name
}

// Solve implements mip.Backend.
func (b *Backend) Solve(ctx context.Context, m *mip.Model, start mip.Start, p mip.Params) (*mip.Result, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if start != nil && len(start) != len(m.Vars) {
		return nil, fmt.Errorf("%w: got %d values for %d columns", mip.ErrStartShape, len(start), len(m.Vars))
	}
	if err := ctx.Err(); err != nil {
		return &mip.Result{Status: mip.StatusInterrupted}, nil
	}

	lp, err := toLP(m)
	if err != nil {
		return nil, err
	}

	began := time.Now()
	kind := lp.Solve()
	res := &mip.Result{
		Status:  mapStatus(kind),
		Elapsed: time.Since(began),
	}
	if kind != golp.OPTIMAL && kind != golp.SUBOPTIMAL {
		return res, nil
	}

	x := lp.Variables()
	for j := range x {
		if m.Vars[j].Integer {
			x[j] = math.Round(x[j])
		}
	}
	if m.Feasible(x, feasibilityTol) {
		res.Values = x
		res.Objective = m.Objective(x)
	}
	return res, nil
}

func toLP(m *mip.Model) (*golp.LP, error) {
	lp := golp.NewLP(0, len(m.Vars))

	costs := make([]float64, len(m.Vars))
	for j, v := range m.Vars {
		costs[j] = v.Cost
		lp.SetInt(j, v.Integer)
		lp.SetBounds(j, v.Lower, v.Upper)
	}
	lp.SetObjFn(costs)

	for r, row := range m.Rows {
		entries := make([]golp.Entry, len(row.Terms))
		for k, t := range row.Terms {
			entries[k] = golp.Entry{Col: t.Col, Val: t.Coef}
		}
		if err := lp.AddConstraintSparse(entries, constraintType(row.Sense), row.RHS); err != nil {
			return nil, fmt.Errorf("add row %d (%s): %w", r, row.Name, err)
		}
	}
	return lp, nil
}

func constraintType(s mip.Sense) golp.ConstraintType {
	switch s {
	case mip.GE:
		return golp.GE
	case mip.EQ:
		return golp.EQ
	default:
		return golp.LE
	}
}

func mapStatus(kind golp.SolutionType) mip.Status {
	switch kind {
	case golp.OPTIMAL:
		return mip.StatusOptimal
	case golp.INFEASIBLE:
		return mip.StatusInfeasible
	default:
		return mip.StatusUnknown
	}
}
