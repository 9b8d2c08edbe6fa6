package storage

import (
	"slices"

	"github.com/eugenenazirov/binpack/internal/packing"
)

var defaultSizes = []int{
	1, 4, 3, 2, 1, 3, 4, 1, 4, 5, 2, 5, 6, 2, 8, 4, 3, 4, 1, 1, 1, 2,
	7, 6, 5, 5, 3, 2, 2, 1, 6, 5, 7, 5, 4, 3, 3, 2, 2, 1, 2, 3,
}

// defaultWarmStart packs defaultSizes into 18 bins of capacity 8.
var defaultWarmStart = []packing.Pair{
	{Item: 20, Bin: 8}, {Item: 32, Bin: 8},
	{Item: 30, Bin: 9}, {Item: 38, Bin: 9},
	{Item: 11, Bin: 11}, {Item: 26, Bin: 11},
	{Item: 0, Bin: 14}, {Item: 4, Bin: 14}, {Item: 7, Bin: 14}, {Item: 29, Bin: 14}, {Item: 39, Bin: 14}, {Item: 41, Bin: 14},
	{Item: 1, Bin: 17}, {Item: 37, Bin: 17}, {Item: 40, Bin: 17},
	{Item: 15, Bin: 19}, {Item: 34, Bin: 19},
	{Item: 3, Bin: 20}, {Item: 10, Bin: 20}, {Item: 17, Bin: 20},
	{Item: 21, Bin: 22}, {Item: 23, Bin: 22},
	{Item: 5, Bin: 25}, {Item: 33, Bin: 25},
	{Item: 9, Bin: 27}, {Item: 28, Bin: 27},
	{Item: 6, Bin: 29}, {Item: 13, Bin: 29}, {Item: 27, Bin: 29},
	{Item: 12, Bin: 33}, {Item: 18, Bin: 33}, {Item: 19, Bin: 33},
	{Item: 31, Bin: 34}, {Item: 36, Bin: 34},
	{Item: 2, Bin: 35}, {Item: 24, Bin: 35},
	{Item: 25, Bin: 36}, {Item: 35, Bin: 36},
	{Item: 22, Bin: 37},
	{Item: 14, Bin: 38},
	{Item: 8, Bin: 39}, {Item: 16, Bin: 39},
}

// DefaultSizes returns a copy of the default item sizes.
func DefaultSizes() []int {
	return slices.Clone(defaultSizes)
}

// DefaultWarmStart returns a copy of the default warm start.
func DefaultWarmStart() []packing.Pair {
	return slices.Clone(defaultWarmStart)
}

// DefaultInstance is the 42-item reference instance with its warm start.
func DefaultInstance() Instance {
	return Instance{
		Sizes:     DefaultSizes(),
		WarmStart: DefaultWarmStart(),
	}
}
