// Package highs solves models with the HiGHS engine through github.com/lanl/highs.
// Linking requires the HiGHS shared library.
package highs

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/lanl/highs"

	"github.com/eugenenazirov/binpack/internal/mip"
)

// Name is the registry key of this backend.
const Name = "highs"

const feasibilityTol = 1e-6

// Backend implements mip.Backend on top of HiGHS.
type Backend struct {
	// Output enables the solver log on stdout.
	Output bool
}

// New creates a HiGHS backend with solver output disabled.
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

// Solve implements mip.Backend. HiGHS takes no MIP start through this binding,
// so start is only checked for shape.
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
	limit, ok := p.TimeBudget(ctx)
	if !ok {
		return &mip.Result{Status: mip.StatusInterrupted}, nil
	}

	raw, err := toHighs(m).ToRawModel()
	if err != nil {
		return nil, fmt.Errorf("convert model: %w", err)
	}
	if err := b.applyParams(raw, limit, p); err != nil {
		return nil, err
	}

	began := time.Now()
	sol, err := raw.Solve()
	if err != nil {
		return nil, fmt.Errorf("highs solve: %w", err)
	}

	res := &mip.Result{
		Status:  mapStatus(sol.Status, p),
		Elapsed: time.Since(began),
	}
	if len(sol.ColumnPrimal) == len(m.Vars) {
		x := make([]float64, len(sol.ColumnPrimal))
		for j, v := range sol.ColumnPrimal {
			x[j] = v
			if m.Vars[j].Integer {
				x[j] = math.Round(v)
			}
		}
		if m.Feasible(x, feasibilityTol) {
			res.Values = x
			res.Objective = m.Objective(x)
		}
	}
	return res, nil
}

func (b *Backend) applyParams(raw *highs.RawModel, limit time.Duration, p mip.Params) error {
	if err := raw.SetBoolOption("output_flag", b.Output); err != nil {
		return fmt.Errorf("set output_flag: %w", err)
	}

	if limit > 0 {
		if err := raw.SetFloatOption("time_limit", limit.Seconds()); err != nil {
			return fmt.Errorf("set time_limit: %w", err)
		}
	}
	if p.NodeLimit > 0 {
		if err := raw.SetIntOption("mip_max_nodes", p.NodeLimit); err != nil {
			return fmt.Errorf("set mip_max_nodes: %w", err)
		}
	}
	if err := raw.SetFloatOption("mip_heuristic_effort", heuristicEffort(p.Emphasis)); err != nil {
		return fmt.Errorf("set mip_heuristic_effort: %w", err)
	}
	return nil
}

// heuristicEffort maps the emphasis switch onto the share of MIP time HiGHS
// spends in primal heuristics.
func heuristicEffort(e mip.Emphasis) float64 {
	switch e {
	case mip.EmphasisFeasibility, mip.EmphasisHiddenFeasibility:
		return 0.3
	case mip.EmphasisOptimality, mip.EmphasisBestBound:
		return 0.01
	default:
		return 0.05
	}
}

func toHighs(m *mip.Model) *highs.Model {
	n := len(m.Vars)
	lp := &highs.Model{
		ColCosts: make([]float64, n),
		ColLower: make([]float64, n),
		ColUpper: make([]float64, n),
		VarTypes: make([]highs.VariableType, n),
	}
	for j, v := range m.Vars {
		lp.ColCosts[j] = v.Cost
		lp.ColLower[j] = v.Lower
		lp.ColUpper[j] = v.Upper
		if v.Integer {
			lp.VarTypes[j] = highs.IntegerType
		} else {
			lp.VarTypes[j] = highs.ContinuousType
		}
	}

	lp.RowLower, lp.RowUpper = m.RowBounds()
	for r, row := range m.Rows {
		for _, t := range row.Terms {
			lp.ConstMatrix = append(lp.ConstMatrix, highs.Nonzero{Row: r, Col: t.Col, Val: t.Coef})
		}
	}
	return lp
}

func mapStatus(s highs.ModelStatus, p mip.Params) mip.Status {
	switch s {
	case highs.Optimal:
		return mip.StatusOptimal
	case highs.Infeasible:
		return mip.StatusInfeasible
	case highs.TimeLimit:
		return mip.StatusTimeLimit
	}
	if p.NodeLimit > 0 {
		return mip.StatusNodeLimit
	}
	return mip.StatusUnknown
}
