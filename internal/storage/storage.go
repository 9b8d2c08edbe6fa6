package storage

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/eugenenazirov/binpack/internal/packing"
)

// MaxItems caps the number of items; the model grows with its square.
const MaxItems = 200

var (
	// ErrInvalidInstance indicates the provided instance violates validation rules.
	ErrInvalidInstance = errors.New("invalid packing instance")
)

// Instance is a packing problem: item sizes, an optional bin capacity
// (zero means the largest size) and an optional warm start.
type Instance struct {
	Sizes     []int
	Capacity  int
	WarmStart []packing.Pair
}

// EffectiveCapacity is the capacity the model will be built with.
func (i Instance) EffectiveCapacity() int {
	capacity, err := packing.ResolveCapacity(i.Sizes, i.Capacity)
	if err != nil {
		return 0
	}
	return capacity
}

// Storage provides access to the instance solved by default.
type Storage interface {
	GetInstance() (Instance, error)
	SetInstance(inst Instance) error
}

// MemoryStorage keeps the instance in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu       sync.RWMutex
	instance Instance
}

// NewMemoryStorage initialises storage with a copy of the default instance.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		instance: DefaultInstance(),
	}
}

// GetInstance returns a defensive copy of the stored instance.
func (s *MemoryStorage) GetInstance() (Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneInstance(s.instance), nil
}

// SetInstance validates and stores the provided instance.
func (s *MemoryStorage) SetInstance(inst Instance) error {
	if err := Validate(inst); err != nil {
		return err
	}

	s.mu.Lock()
	s.instance = cloneInstance(inst)
	s.mu.Unlock()

	return nil
}

// Validate checks sizes, capacity and warm-start pairs of inst.
func Validate(inst Instance) error {
	if len(inst.Sizes) > MaxItems {
		return fmt.Errorf("%w: %d items exceed the limit of %d", ErrInvalidInstance, len(inst.Sizes), MaxItems)
	}
	if _, err := packing.ResolveCapacity(inst.Sizes, inst.Capacity); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInstance, err)
	}
	if len(inst.WarmStart) > 0 {
		n := len(inst.Sizes)
		if _, err := packing.AssignmentFromPairs(n, n, inst.WarmStart); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInstance, err)
		}
	}
	return nil
}

// WarmStartAssignment converts the stored pairs into an assignment,
// or returns nil when the instance has no warm start.
func (i Instance) WarmStartAssignment() (*packing.Assignment, error) {
	if len(i.WarmStart) == 0 {
		return nil, nil
	}
	n := len(i.Sizes)
	return packing.AssignmentFromPairs(n, n, i.WarmStart)
}

func cloneInstance(src Instance) Instance {
	return Instance{
		Sizes:     slices.Clone(src.Sizes),
		Capacity:  src.Capacity,
		WarmStart: slices.Clone(src.WarmStart),
	}
}
