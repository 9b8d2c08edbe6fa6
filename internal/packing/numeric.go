package packing

import "golang.org/x/exp/constraints"

func total[T constraints.Integer | constraints.Float](xs []T) T {
	var sum T
	for _, x := range xs {
		sum += x
	}
	return sum
}

func largest[T constraints.Ordered](xs []T) T {
	var best T
	for i, x := range xs {
		if i == 0 || x > best {
			best = x
		}
	}
	return best
}
