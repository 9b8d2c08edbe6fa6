package packing

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// Pair places one item into one bin.
type Pair struct {
	Item int `json:"item" yaml:"item"`
	Bin  int `json:"bin" yaml:"bin"`
}

// Assignment is an items x bins 0/1 matrix.
type Assignment struct {
	m *mat.Dense
}

// NewAssignment returns an empty assignment. Both dimensions must be positive.
func NewAssignment(items, bins int) *Assignment {
	return &Assignment{m: mat.NewDense(items, bins, nil)}
}

// AssignmentFromPairs builds an assignment from (item, bin) pairs.
func AssignmentFromPairs(items, bins int, pairs []Pair) (*Assignment, error) {
	if items <= 0 || bins <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrWarmStartShape, items, bins)
	}
	a := NewAssignment(items, bins)
	for _, p := range pairs {
		if p.Item < 0 || p.Item >= items || p.Bin < 0 || p.Bin >= bins {
			return nil, fmt.Errorf("%w: pair (%d, %d) outside %dx%d", ErrWarmStartShape, p.Item, p.Bin, items, bins)
		}
		a.Set(p.Item, p.Bin)
	}
	return a, nil
}

// Dims returns the number of items and bins.
func (a *Assignment) Dims() (items, bins int) {
	return a.m.Dims()
}

// Set places item i into bin b.
func (a *Assignment) Set(i, b int) {
	a.m.Set(i, b, 1)
}

// Assigned reports whether item i sits in bin b.
func (a *Assignment) Assigned(i, b int) bool {
	return a.m.At(i, b) > 0.5
}

// Matrix exposes the assignment as a read-only matrix.
func (a *Assignment) Matrix() mat.Matrix {
	return a.m
}

// BinCounts returns the number of items placed in each bin.
func (a *Assignment) BinCounts() []int {
	items, bins := a.Dims()
	counts := make([]int, bins)
	for b := 0; b < bins; b++ {
		col := mat.Col(nil, b, a.m)
		for i := 0; i < items; i++ {
			if col[i] > 0.5 {
				counts[b]++
			}
		}
	}
	return counts
}

// Pairs lists the non-zero entries in item-major order.
func (a *Assignment) Pairs() []Pair {
	items, bins := a.Dims()
	var pairs []Pair
	for i := 0; i < items; i++ {
		for b := 0; b < bins; b++ {
			if a.Assigned(i, b) {
				pairs = append(pairs, Pair{Item: i, Bin: b})
			}
		}
	}
	return pairs
}

type assignmentFile struct {
	Pairs [][]int `yaml:"pairs"`
}

// ReadAssignment decodes a YAML warm start of the form
//
//	pairs:
//	  - [20, 8]
//	  - [32, 8]
func ReadAssignment(r io.Reader, items, bins int) (*Assignment, error) {
	var file assignmentFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode warm start: %w", err)
	}
	pairs := make([]Pair, 0, len(file.Pairs))
	for k, p := range file.Pairs {
		if len(p) != 2 {
			return nil, fmt.Errorf("%w: entry %d has %d values, want [item, bin]", ErrWarmStartShape, k, len(p))
		}
		pairs = append(pairs, Pair{Item: p[0], Bin: p[1]})
	}
	return AssignmentFromPairs(items, bins, pairs)
}

// WriteAssignment encodes a in the format read by ReadAssignment.
func WriteAssignment(w io.Writer, a *Assignment) error {
	var file assignmentFile
	for _, p := range a.Pairs() {
		file.Pairs = append(file.Pairs, []int{p.Item, p.Bin})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return fmt.Errorf("encode warm start: %w", err)
	}
	return enc.Close()
}
