package mip

import (
	"fmt"
	"math"
)

// Sense is the comparison operator of a row.
type Sense int

const (
	LE Sense = iota
	GE
	EQ
)

func (s Sense) String() string {
	switch s {
	case LE:
		return "<="
	case GE:
		return ">="
	case EQ:
		return "="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// Var is a single model column.
type Var struct {
	Name    string
	Lower   float64
	Upper   float64
	Integer bool
	Cost    float64
}

// Binary reports whether the column is a 0/1 integer.
func (v Var) Binary() bool {
	return v.Integer && v.Lower == 0 && v.Upper == 1
}

// Term is one non-zero coefficient of a row.
type Term struct {
	Col  int
	Coef float64
}

// Row is a linear constraint: sum(Terms) Sense RHS.
type Row struct {
	Name  string
	Sense Sense
	RHS   float64
	Terms []Term
}

// Model is a minimization problem over Vars subject to Rows.
type Model struct {
	Name string
	Vars []Var
	Rows []Row

	bound   float64
	bounded bool
}

// Stats summarises the size of a model.
type Stats struct {
	Rows                 int
	Cols                 int
	QuadraticConstraints int
	NonZeros             int
}

// SetObjectiveBound records a proven lower bound on the objective. A backend
// may stop as soon as its incumbent reaches it.
func (m *Model) SetObjectiveBound(v float64) {
	m.bound = v
	m.bounded = true
}

// ObjectiveBound returns the bound set by SetObjectiveBound, if any.
func (m *Model) ObjectiveBound() (float64, bool) {
	return m.bound, m.bounded
}

// AddVar appends a column and returns its index.
func (m *Model) AddVar(v Var) int {
	m.Vars = append(m.Vars, v)
	return len(m.Vars) - 1
}

// AddBinary appends a 0/1 column with the given objective cost.
func (m *Model) AddBinary(name string, cost float64) int {
	return m.AddVar(Var{Name: name, Lower: 0, Upper: 1, Integer: true, Cost: cost})
}

// AddRow appends a constraint and returns its index. Zero coefficients are dropped.
func (m *Model) AddRow(name string, terms []Term, sense Sense, rhs float64) int {
	filtered := make([]Term, 0, len(terms))
	for _, t := range terms {
		if t.Coef != 0 {
			filtered = append(filtered, t)
		}
	}
	m.Rows = append(m.Rows, Row{Name: name, Sense: sense, RHS: rhs, Terms: filtered})
	return len(m.Rows) - 1
}

// Stats returns the row, column and non-zero counts of the model.
// Models built here are linear, so QuadraticConstraints is always zero.
func (m *Model) Stats() Stats {
	nz := 0
	for _, r := range m.Rows {
		nz += len(r.Terms)
	}
	return Stats{
		Rows:     len(m.Rows),
		Cols:     len(m.Vars),
		NonZeros: nz,
	}
}

// Objective evaluates the objective at x.
func (m *Model) Objective(x []float64) float64 {
	total := 0.0
	for j, v := range m.Vars {
		if j < len(x) {
			total += v.Cost * x[j]
		}
	}
	return total
}

// Activity evaluates the left-hand side of row r at x.
func (m *Model) Activity(r int, x []float64) float64 {
	total := 0.0
	for _, t := range m.Rows[r].Terms {
		total += t.Coef * x[t.Col]
	}
	return total
}

// Feasible reports whether x satisfies every bound, integrality requirement
// and row of the model within tol.
func (m *Model) Feasible(x []float64, tol float64) bool {
	if len(x) != len(m.Vars) {
		return false
	}
	for j, v := range m.Vars {
		if x[j] < v.Lower-tol || x[j] > v.Upper+tol {
			return false
		}
		if v.Integer && math.Abs(x[j]-math.Round(x[j])) > tol {
			return false
		}
	}
	for r, row := range m.Rows {
		act := m.Activity(r, x)
		switch row.Sense {
		case LE:
			if act > row.RHS+tol {
				return false
			}
		case GE:
			if act < row.RHS-tol {
				return false
			}
		case EQ:
			if math.Abs(act-row.RHS) > tol {
				return false
			}
		}
	}
	return true
}

// Validate checks that all terms reference existing columns and that bounds are ordered.
func (m *Model) Validate() error {
	for j, v := range m.Vars {
		if v.Lower > v.Upper {
			return fmt.Errorf("%w: column %d (%s) has lower bound %g above upper bound %g",
				ErrInvalidModel, j, v.Name, v.Lower, v.Upper)
		}
	}
	for r, row := range m.Rows {
		for _, t := range row.Terms {
			if t.Col < 0 || t.Col >= len(m.Vars) {
				return fmt.Errorf("%w: row %d (%s) references column %d of %d",
					ErrInvalidModel, r, row.Name, t.Col, len(m.Vars))
			}
		}
	}
	return nil
}

// RowBounds expresses every row as lower <= activity <= upper, using
// infinities for the open side.
func (m *Model) RowBounds() (lower, upper []float64) {
	lower = make([]float64, len(m.Rows))
	upper = make([]float64, len(m.Rows))
	for r, row := range m.Rows {
		switch row.Sense {
		case LE:
			lower[r], upper[r] = math.Inf(-1), row.RHS
		case GE:
			lower[r], upper[r] = row.RHS, math.Inf(1)
		case EQ:
			lower[r], upper[r] = row.RHS, row.RHS
		}
	}
	return lower, upper
}
