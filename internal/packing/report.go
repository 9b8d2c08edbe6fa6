package packing

import (
	"fmt"
	"strings"

	"github.com/eugenenazirov/binpack/internal/mip"
)

// Report renders every bin with its load and items, followed by one line per
// assign[i,b] = 1. The assign lines are bin-major: the outer loop runs over
// bins, the inner over items. It does not modify s.
func Report(m *Model, s *Solution) string {
	var sb strings.Builder

	for b := 0; b < m.NumBins; b++ {
		fmt.Fprintf(&sb, "\nIn bin %d\n", b)
		fmt.Fprintf(&sb, "Total size: %d\n", m.Load(s, b))
		items := s.ItemsIn(b)
		for _, i := range items {
			fmt.Fprintf(&sb, " Item %d with size %d", i, m.Sizes[i])
		}
		if len(items) > 0 {
			sb.WriteByte('\n')
		}
	}

	sb.WriteByte('\n')
	for b := 0; b < m.NumBins; b++ {
		for i := 0; i < m.NumItems; i++ {
			if s.Assign.Assigned(i, b) {
				fmt.Fprintf(&sb, "assign[%d,%d] = 1\n", i, b)
			}
		}
	}
	return sb.String()
}

// Summary renders the model statistics, the used vector and the number of bins used.
func Summary(stats mip.Stats, s *Solution) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Number of constraints: %d\n", stats.Rows)
	fmt.Fprintf(&sb, "Number of variables: %d\n", stats.Cols)
	fmt.Fprintf(&sb, "Number of quadratic constraints: %d\n", stats.QuadraticConstraints)
	fmt.Fprintf(&sb, "%v\n", s.Used)
	fmt.Fprintf(&sb, "%d\n", s.BinsUsed)
	return sb.String()
}
