package packing

import (
	"gopkg.in/dnaeon/go-priorityqueue.v1"
)

// FirstFitDecreasing packs items largest first into the first bin with room.
// Ties are broken by item index so the result is deterministic.
func FirstFitDecreasing(sizes []int, capacity int) (*Assignment, error) {
	capacity, err := ResolveCapacity(sizes, capacity)
	if err != nil {
		return nil, err
	}

	n := len(sizes)
	pq := priorityqueue.New[int, int64](priorityqueue.MaxHeap)
	for i, size := range sizes {
		pq.Put(i, int64(size)*int64(n)+int64(n-1-i))
	}

	a := NewAssignment(n, n)
	loads := make([]int, 0, n)
	for pq.Len() > 0 {
		i := pq.Get().Value
		placed := false
		for b := range loads {
			if loads[b]+sizes[i] <= capacity {
				loads[b] += sizes[i]
				a.Set(i, b)
				placed = true
				break
			}
		}
		if !placed {
			loads = append(loads, sizes[i])
			a.Set(i, len(loads)-1)
		}
	}
	return a, nil
}
