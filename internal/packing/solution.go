package packing

import (
	"fmt"

	"github.com/eugenenazirov/binpack/internal/mip"
)

// Solution is a decoded solver result.
type Solution struct {
	Assign   *Assignment
	Used     []int
	BinsUsed int
	Status   mip.Status
}

// Decode reads assign and used values out of a backend result, rounding at 0.5.
func (m *Model) Decode(res *mip.Result) (*Solution, error) {
	if !res.HasSolution() {
		return nil, ErrNoSolution
	}
	if len(res.Values) != len(m.MIP.Vars) {
		return nil, fmt.Errorf("%w: got %d values for %d columns", ErrNoSolution, len(res.Values), len(m.MIP.Vars))
	}

	s := &Solution{
		Assign: NewAssignment(m.NumItems, m.NumBins),
		Used:   make([]int, m.NumBins),
		Status: res.Status,
	}
	for i := 0; i < m.NumItems; i++ {
		for b := 0; b < m.NumBins; b++ {
			if res.Values[m.AssignCol(i, b)] > 0.5 {
				s.Assign.Set(i, b)
			}
		}
	}
	for b := 0; b < m.NumBins; b++ {
		if res.Values[m.UsedCol(b)] > 0.5 {
			s.Used[b] = 1
			s.BinsUsed++
		}
	}
	return s, nil
}

// Load is the total size held by bin b.
func (m *Model) Load(s *Solution, b int) int {
	load := 0
	for i, size := range m.Sizes {
		if s.Assign.Assigned(i, b) {
			load += size
		}
	}
	return load
}

// ItemsIn lists the items placed in bin b in index order.
func (s *Solution) ItemsIn(b int) []int {
	items, _ := s.Assign.Dims()
	var out []int
	for i := 0; i < items; i++ {
		if s.Assign.Assigned(i, b) {
			out = append(out, i)
		}
	}
	return out
}

// Verify checks the partition, capacity and linkage invariants of s.
func (m *Model) Verify(s *Solution) error {
	if items, bins := s.Assign.Dims(); items != m.NumItems || bins != m.NumBins || len(s.Used) != m.NumBins {
		return fmt.Errorf("%w: solution is %dx%d", ErrWarmStartShape, items, bins)
	}
	for i := 0; i < m.NumItems; i++ {
		count := 0
		for b := 0; b < m.NumBins; b++ {
			if s.Assign.Assigned(i, b) {
				count++
			}
		}
		if count != 1 {
			return fmt.Errorf("%w: item %d is in %d bins", ErrPartitionViolated, i, count)
		}
	}
	counts := s.Assign.BinCounts()
	for b := 0; b < m.NumBins; b++ {
		if load := m.Load(s, b); load > m.Capacity {
			return fmt.Errorf("%w: bin %d holds %d of %d", ErrCapacityExceeded, b, load, m.Capacity)
		}
		if occupied := counts[b] > 0; occupied != (s.Used[b] == 1) {
			return fmt.Errorf("%w: bin %d has %d items, used=%d", ErrLinkageViolated, b, counts[b], s.Used[b])
		}
	}
	return nil
}
