package packing

import (
	"fmt"

	"github.com/eugenenazirov/binpack/internal/mip"
)

// Model is the MIP encoding of one bin-packing instance together with the
// instance data needed to decode a solution.
type Model struct {
	MIP      *mip.Model
	Sizes    []int
	Capacity int
	BigM     int
	NumItems int
	NumBins  int
}

// BuildOption configures Build.
type BuildOption func(*buildConfig)

type buildConfig struct {
	capacity  int
	tightBigM bool
}

// WithCapacity sets the bin capacity. Without it the capacity is the largest item size.
func WithCapacity(capacity int) BuildOption {
	return func(cfg *buildConfig) {
		cfg.capacity = capacity
	}
}

// WithTightBigM bounds the linkage rows by the bin capacity instead of the
// total size of all items.
func WithTightBigM(enabled bool) BuildOption {
	return func(cfg *buildConfig) {
		cfg.tightBigM = enabled
	}
}

// Build validates the sizes and constructs the assignment formulation.
func Build(sizes []int, opts ...BuildOption) (*Model, error) {
	var cfg buildConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	capacity, err := ResolveCapacity(sizes, cfg.capacity)
	if err != nil {
		return nil, err
	}

	n := len(sizes)
	m := &Model{
		Sizes:    append([]int(nil), sizes...),
		Capacity: capacity,
		BigM:     total(sizes),
		NumItems: n,
		NumBins:  n,
		MIP:      &mip.Model{Name: fmt.Sprintf("binpacking_%d_items", n)},
	}
	if cfg.tightBigM {
		m.BigM = capacity
	}

	for i := 0; i < m.NumItems; i++ {
		for b := 0; b < m.NumBins; b++ {
			m.MIP.AddBinary(fmt.Sprintf("assign_%d_%d", i, b), 0)
		}
	}
	for b := 0; b < m.NumBins; b++ {
		m.MIP.AddBinary(fmt.Sprintf("used_%d", b), 1)
	}

	for b := 0; b < m.NumBins; b++ {
		load := m.loadTerms(b)
		m.MIP.AddRow(fmt.Sprintf("capacity_%d", b), load, mip.LE, float64(capacity))

		upper := append(append([]mip.Term(nil), load...), mip.Term{Col: m.UsedCol(b), Coef: -float64(m.BigM)})
		m.MIP.AddRow(fmt.Sprintf("link_upper_%d", b), upper, mip.LE, 0)

		lower := []mip.Term{{Col: m.UsedCol(b), Coef: 1}}
		for _, t := range load {
			lower = append(lower, mip.Term{Col: t.Col, Coef: -t.Coef})
		}
		m.MIP.AddRow(fmt.Sprintf("link_lower_%d", b), lower, mip.LE, 0)
	}

	for i := 0; i < m.NumItems; i++ {
		terms := make([]mip.Term, m.NumBins)
		for b := range terms {
			terms[b] = mip.Term{Col: m.AssignCol(i, b), Coef: 1}
		}
		m.MIP.AddRow(fmt.Sprintf("partition_%d", i), terms, mip.EQ, 1)
	}
	m.MIP.SetObjectiveBound(float64(m.LowerBound()))

	return m, nil
}

// ResolveCapacity validates sizes and returns the effective bin capacity:
// capacity itself, or the largest size when capacity is zero.
func ResolveCapacity(sizes []int, capacity int) (int, error) {
	if len(sizes) == 0 {
		return 0, ErrEmptySizes
	}
	for i, size := range sizes {
		if size <= 0 {
			return 0, fmt.Errorf("%w: item %d has size %d", ErrNonPositiveSize, i, size)
		}
	}
	if capacity == 0 {
		return largest(sizes), nil
	}
	if capacity < 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	for i, size := range sizes {
		if size > capacity {
			return 0, fmt.Errorf("%w: item %d has size %d, capacity is %d", ErrOversizedItem, i, size, capacity)
		}
	}
	return capacity, nil
}

func (m *Model) loadTerms(b int) []mip.Term {
	terms := make([]mip.Term, m.NumItems)
	for i, size := range m.Sizes {
		terms[i] = mip.Term{Col: m.AssignCol(i, b), Coef: float64(size)}
	}
	return terms
}

// AssignCol is the column index of assign[i][b].
func (m *Model) AssignCol(i, b int) int {
	return i*m.NumBins + b
}

// UsedCol is the column index of used[b].
func (m *Model) UsedCol(b int) int {
	return m.NumItems*m.NumBins + b
}

// Stats returns the size of the underlying MIP.
func (m *Model) Stats() mip.Stats {
	return m.MIP.Stats()
}

// TotalSize is the sum of all item sizes.
func (m *Model) TotalSize() int {
	return total(m.Sizes)
}

// LowerBound is the trivial bound ceil(total size / capacity) on the number of bins.
func (m *Model) LowerBound() int {
	return (m.TotalSize() + m.Capacity - 1) / m.Capacity
}

// Start converts a warm-start assignment into a backend start vector.
// used[b] is derived from the assignment.
func (m *Model) Start(a *Assignment) (mip.Start, error) {
	if a == nil {
		return nil, nil
	}
	if items, bins := a.Dims(); items != m.NumItems || bins != m.NumBins {
		return nil, fmt.Errorf("%w: got %dx%d, model is %dx%d", ErrWarmStartShape, items, bins, m.NumItems, m.NumBins)
	}

	start := make(mip.Start, len(m.MIP.Vars))
	for i := 0; i < m.NumItems; i++ {
		for b := 0; b < m.NumBins; b++ {
			if a.Assigned(i, b) {
				start[m.AssignCol(i, b)] = 1
				start[m.UsedCol(b)] = 1
			}
		}
	}
	return start, nil
}
