package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/binpack/internal/mip"
	"github.com/eugenenazirov/binpack/internal/packing"
)

// Stats is what the probe phase reports.
type Stats struct {
	mip.Stats
	Status        mip.Status
	HasSolution   bool
	Objective     float64
	Nodes         int
	Elapsed       time.Duration
	StartAccepted bool
}

// Outcome bundles the results of both phases.
type Outcome struct {
	Stats    Stats
	Solution *packing.Solution
}

// Runner executes the probe and commit phases against one backend.
type Runner struct {
	backend mip.Backend
	logger  *zap.Logger
}

// NewRunner creates a Runner.
func NewRunner(backend mip.Backend, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{backend: backend, logger: logger}
}

// Backend returns the name of the backend in use.
func (r *Runner) Backend() string {
	return r.backend.Name()
}

// Run probes and then commits. Nothing from the commit phase runs if the
// probe fails.
func (r *Runner) Run(ctx context.Context, m *packing.Model, warm *packing.Assignment, probe, commit mip.Params) (*Outcome, error) {
	stats, err := r.Probe(ctx, m, warm, probe)
	if err != nil {
		return nil, err
	}
	sol, err := r.Commit(ctx, m, warm, commit)
	if err != nil {
		return nil, err
	}
	return &Outcome{Stats: stats, Solution: sol}, nil
}

// Probe runs a limited solve and reports model size and probe status.
// Hitting a limit is not a failure; an error or proven infeasibility is.
func (r *Runner) Probe(ctx context.Context, m *packing.Model, warm *packing.Assignment, p mip.Params) (Stats, error) {
	res, err := r.solve(ctx, PhaseProbe, m, warm, p)
	if err != nil {
		return Stats{}, err
	}
	if res.Status == mip.StatusInfeasible {
		return Stats{}, r.fail(PhaseProbe, ErrInfeasible)
	}

	stats := Stats{
		Stats:         m.Stats(),
		Status:        res.Status,
		HasSolution:   res.HasSolution(),
		Objective:     res.Objective,
		Nodes:         res.Nodes,
		Elapsed:       res.Elapsed,
		StartAccepted: res.StartAccepted,
	}
	r.logger.Info("probe finished",
		zap.Int("rows", stats.Rows),
		zap.Int("cols", stats.Cols),
		zap.Int("quadratic_constraints", stats.QuadraticConstraints),
		zap.Stringer("status", stats.Status),
		zap.Float64("objective", stats.Objective),
		zap.Int("nodes", stats.Nodes),
		zap.Duration("elapsed", stats.Elapsed),
	)
	return stats, nil
}

// Commit runs the solve whose result is used and returns the verified solution.
func (r *Runner) Commit(ctx context.Context, m *packing.Model, warm *packing.Assignment, p mip.Params) (*packing.Solution, error) {
	res, err := r.solve(ctx, PhaseCommit, m, warm, p)
	if err != nil {
		return nil, err
	}
	if res.Status == mip.StatusInfeasible {
		return nil, r.fail(PhaseCommit, ErrInfeasible)
	}
	if !res.HasSolution() {
		return nil, r.fail(PhaseCommit, fmt.Errorf("%w (status %s)", packing.ErrNoSolution, res.Status))
	}

	sol, err := m.Decode(res)
	if err != nil {
		return nil, r.fail(PhaseCommit, err)
	}
	if err := m.Verify(sol); err != nil {
		return nil, r.fail(PhaseCommit, err)
	}

	r.logger.Info("commit finished",
		zap.Stringer("status", sol.Status),
		zap.Int("bins_used", sol.BinsUsed),
		zap.Int("lower_bound", m.LowerBound()),
		zap.Int("nodes", res.Nodes),
		zap.Duration("elapsed", res.Elapsed),
	)
	return sol, nil
}

func (r *Runner) solve(ctx context.Context, phase Phase, m *packing.Model, warm *packing.Assignment, p mip.Params) (*mip.Result, error) {
	start, err := m.Start(warm)
	if err != nil {
		return nil, r.fail(phase, err)
	}

	r.logger.Debug("solve started",
		zap.String("phase", string(phase)),
		zap.String("backend", r.backend.Name()),
		zap.Stringer("emphasis", p.Emphasis),
		zap.Duration("time_limit", p.TimeLimit),
		zap.Int("node_limit", p.NodeLimit),
		zap.Bool("warm_start", start != nil),
	)

	res, err := r.backend.Solve(ctx, m.MIP, start, p)
	if err != nil {
		return nil, r.fail(phase, err)
	}
	if start != nil && !res.StartAccepted {
		r.logger.Debug("warm start not used", zap.String("phase", string(phase)))
	}

	if p.WorkDir != "" {
		if err := writeArtifacts(p.WorkDir, phase, r.backend.Name(), m, res); err != nil {
			return nil, r.fail(phase, err)
		}
	}
	return res, nil
}

func (r *Runner) fail(phase Phase, err error) error {
	r.logger.Error("solve phase failed",
		zap.String("phase", string(phase)),
		zap.String("backend", r.backend.Name()),
		zap.Error(err),
	)
	return &PhaseError{Phase: phase, Backend: r.backend.Name(), Err: err}
}
