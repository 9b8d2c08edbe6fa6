package packing

import "errors"

var (
	// ErrEmptySizes is returned when no item sizes are supplied.
	ErrEmptySizes = errors.New("item sizes must not be empty")
	// ErrNonPositiveSize is returned when an item size is zero or negative.
	ErrNonPositiveSize = errors.New("item sizes must be positive integers")
	// ErrInvalidCapacity is returned for a non-positive bin capacity.
	ErrInvalidCapacity = errors.New("bin capacity must be a positive integer")
	// ErrOversizedItem is returned when an item does not fit into an empty bin.
	ErrOversizedItem = errors.New("item is larger than the bin capacity")
	// ErrWarmStartShape is returned when a warm start does not match the model dimensions.
	ErrWarmStartShape = errors.New("warm start does not match the model dimensions")
	// ErrNoSolution is returned when a solver result carries no assignment.
	ErrNoSolution = errors.New("solver returned no solution")
	// ErrPartitionViolated is returned when an item is not in exactly one bin.
	ErrPartitionViolated = errors.New("item is not assigned to exactly one bin")
	// ErrCapacityExceeded is returned when a bin holds more than its capacity.
	ErrCapacityExceeded = errors.New("bin load exceeds capacity")
	// ErrLinkageViolated is returned when used[b] disagrees with the contents of bin b.
	ErrLinkageViolated = errors.New("bin usage flag disagrees with bin contents")
)
