package native

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/eugenenazirov/binpack/internal/mip"
)

// linear is a row normalised to sum(terms) <= rhs.
type linear struct {
	terms []mip.Term
	rhs   float64
}

type change struct {
	col    int
	lo, hi float64
}

type search struct {
	ctx      context.Context
	model    *mip.Model
	rows     []linear
	colRows  [][]int
	lo, hi   []float64
	trail    []change
	queue    []int
	queued   []bool
	integral bool

	nodeLimit int
	deadline  time.Time

	nodes   int
	halt    mip.Status
	best    []float64
	bestObj float64

	bound   float64
	bounded bool
}

func newSearch(ctx context.Context, m *mip.Model, p mip.Params) (*search, error) {
	n := len(m.Vars)
	s := &search{
		ctx:       ctx,
		model:     m,
		colRows:   make([][]int, n),
		lo:        make([]float64, n),
		hi:        make([]float64, n),
		integral:  true,
		nodeLimit: p.NodeLimit,
	}
	s.bound, s.bounded = m.ObjectiveBound()
	if p.TimeLimit > 0 {
		s.deadline = time.Now().Add(p.TimeLimit)
	}

	for j, v := range m.Vars {
		if !v.Integer || math.IsInf(v.Lower, 0) || math.IsInf(v.Upper, 0) {
			return nil, fmt.Errorf("%w: column %d (%s)", ErrUnsupportedModel, j, v.Name)
		}
		s.lo[j] = math.Ceil(v.Lower - eps)
		s.hi[j] = math.Floor(v.Upper + eps)
		if v.Cost != math.Trunc(v.Cost) {
			s.integral = false
		}
	}

	for _, row := range m.Rows {
		switch row.Sense {
		case mip.LE:
			s.addLinear(row.Terms, row.RHS)
		case mip.GE:
			s.addLinear(negate(row.Terms), -row.RHS)
		case mip.EQ:
			s.addLinear(row.Terms, row.RHS)
			s.addLinear(negate(row.Terms), -row.RHS)
		}
	}
	s.queued = make([]bool, len(s.rows))
	return s, nil
}

func negate(terms []mip.Term) []mip.Term {
	out := make([]mip.Term, len(terms))
	for i, t := range terms {
		out[i] = mip.Term{Col: t.Col, Coef: -t.Coef}
	}
	return out
}

func (s *search) addLinear(terms []mip.Term, rhs float64) {
	r := len(s.rows)
	s.rows = append(s.rows, linear{terms: terms, rhs: rhs})
	for _, t := range terms {
		s.colRows[t.Col] = append(s.colRows[t.Col], r)
	}
}

func (s *search) run() {
	for r := range s.rows {
		s.enqueue(r)
	}
	if !s.propagate() {
		return
	}
	s.dfs()
}

func (s *search) status() mip.Status {
	if s.halt != mip.StatusUnknown {
		return s.halt
	}
	if s.best != nil {
		return mip.StatusOptimal
	}
	return mip.StatusInfeasible
}

func (s *search) dfs() {
	if s.halted() {
		return
	}
	s.nodes++
	if s.dominated() {
		return
	}

	col := s.branchColumn()
	if col < 0 {
		x := append([]float64(nil), s.lo...)
		if s.model.Feasible(x, 1e-6) {
			s.offer(x)
		}
		return
	}

	for _, v := range s.branchValues(col) {
		mark := len(s.trail)
		if s.fix(col, v, v) && s.propagate() {
			s.dfs()
		}
		s.undo(mark)
		if s.halt != mip.StatusUnknown {
			return
		}
	}
}

func (s *search) halted() bool {
	if s.halt != mip.StatusUnknown {
		return true
	}
	switch {
	case s.nodeLimit > 0 && s.nodes >= s.nodeLimit:
		s.halt = mip.StatusNodeLimit
	case s.ctx.Err() != nil:
		s.halt = mip.StatusInterrupted
	case !s.deadline.IsZero() && time.Now().After(s.deadline):
		s.halt = mip.StatusTimeLimit
	}
	return s.halt != mip.StatusUnknown
}

// dominated reports whether no completion of the current node can improve
// on the incumbent.
func (s *search) dominated() bool {
	if s.best == nil {
		return false
	}
	bound := 0.0
	for j, v := range s.model.Vars {
		if v.Cost > 0 {
			bound += v.Cost * s.lo[j]
		} else {
			bound += v.Cost * s.hi[j]
		}
	}
	if s.integral {
		bound = math.Ceil(bound - eps)
	}
	return bound >= s.bestObj-eps
}

func (s *search) branchColumn() int {
	for j := range s.lo {
		if s.lo[j] < s.hi[j] {
			return j
		}
	}
	return -1
}

// branchValues orders the domain of col so the cheaper direction comes first;
// free columns are tried at their upper bound first.
func (s *search) branchValues(col int) []float64 {
	lo, hi := s.lo[col], s.hi[col]
	values := make([]float64, 0, int(hi-lo)+1)
	if s.model.Vars[col].Cost > 0 {
		for v := lo; v <= hi; v++ {
			values = append(values, v)
		}
	} else {
		for v := hi; v >= lo; v-- {
			values = append(values, v)
		}
	}
	return values
}

func (s *search) offer(x []float64) {
	obj := s.model.Objective(x)
	if s.best == nil || obj < s.bestObj-eps {
		s.best = x
		s.bestObj = obj
	}
	// nothing can beat an incumbent that meets the model bound
	if s.bounded && s.bestObj <= s.bound+eps {
		s.halt = mip.StatusOptimal
	}
}

func (s *search) fix(col int, lo, hi float64) bool {
	if lo > s.lo[col] || hi < s.hi[col] {
		s.trail = append(s.trail, change{col: col, lo: s.lo[col], hi: s.hi[col]})
		s.lo[col] = math.Max(lo, s.lo[col])
		s.hi[col] = math.Min(hi, s.hi[col])
		for _, r := range s.colRows[col] {
			s.enqueue(r)
		}
	}
	return s.lo[col] <= s.hi[col]
}

func (s *search) undo(mark int) {
	for len(s.trail) > mark {
		c := s.trail[len(s.trail)-1]
		s.trail = s.trail[:len(s.trail)-1]
		s.lo[c.col] = c.lo
		s.hi[c.col] = c.hi
	}
}

func (s *search) enqueue(r int) {
	if !s.queued[r] {
		s.queued[r] = true
		s.queue = append(s.queue, r)
	}
}

func (s *search) drain() {
	for _, r := range s.queue {
		s.queued[r] = false
	}
	s.queue = s.queue[:0]
}

// propagate tightens column bounds until every queued row is consistent.
// It returns false as soon as some row cannot be satisfied.
func (s *search) propagate() bool {
	for len(s.queue) > 0 {
		r := s.queue[0]
		s.queue = s.queue[1:]
		s.queued[r] = false

		row := s.rows[r]
		minAct := 0.0
		for _, t := range row.terms {
			if t.Coef > 0 {
				minAct += t.Coef * s.lo[t.Col]
			} else {
				minAct += t.Coef * s.hi[t.Col]
			}
		}
		slack := row.rhs - minAct
		if slack < -eps {
			s.drain()
			return false
		}

		for _, t := range row.terms {
			var ok bool
			if t.Coef > 0 {
				limit := math.Floor(s.lo[t.Col] + slack/t.Coef + eps)
				ok = s.fix(t.Col, s.lo[t.Col], limit)
			} else {
				limit := math.Ceil(s.hi[t.Col] + slack/t.Coef - eps)
				ok = s.fix(t.Col, limit, s.hi[t.Col])
			}
			if !ok {
				s.drain()
				return false
			}
		}
	}
	return true
}
