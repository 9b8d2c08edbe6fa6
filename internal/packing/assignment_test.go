package packing

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestAssignmentFromPairsRejectsOutOfRange(t *testing.T) {
	t.Parallel()

	if _, err := AssignmentFromPairs(2, 2, []Pair{{Item: 2, Bin: 0}}); !errors.Is(err, ErrWarmStartShape) {
		t.Fatalf("expected ErrWarmStartShape, got %v", err)
	}
	if _, err := AssignmentFromPairs(0, 2, nil); !errors.Is(err, ErrWarmStartShape) {
		t.Fatalf("expected ErrWarmStartShape for empty shape, got %v", err)
	}
}

func TestAssignmentPairsAndCounts(t *testing.T) {
	t.Parallel()

	a, err := AssignmentFromPairs(3, 3, []Pair{{Item: 2, Bin: 0}, {Item: 0, Bin: 1}, {Item: 1, Bin: 0}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []Pair{{Item: 0, Bin: 1}, {Item: 1, Bin: 0}, {Item: 2, Bin: 0}}
	if got := a.Pairs(); !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got := a.BinCounts(); !slices.Equal(got, []int{2, 1, 0}) {
		t.Fatalf("unexpected bin counts %v", got)
	}
}

func TestReadAssignment(t *testing.T) {
	t.Parallel()

	doc := "pairs:\n  - [0, 1]\n  - [1, 1]\n"
	a, err := ReadAssignment(strings.NewReader(doc), 2, 2)
	if err != nil {
		t.Fatalf("ReadAssignment returned error: %v", err)
	}
	if !a.Assigned(0, 1) || !a.Assigned(1, 1) || a.Assigned(0, 0) {
		t.Fatalf("unexpected assignment %v", a.Pairs())
	}

	if _, err := ReadAssignment(strings.NewReader("pairs:\n  - [0, 1, 2]\n"), 2, 2); !errors.Is(err, ErrWarmStartShape) {
		t.Fatalf("expected ErrWarmStartShape for triple, got %v", err)
	}
	if _, err := ReadAssignment(strings.NewReader("pairs: {"), 2, 2); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestWriteAssignmentIsReadable(t *testing.T) {
	t.Parallel()

	a, err := AssignmentFromPairs(3, 3, []Pair{{Item: 0, Bin: 2}, {Item: 1, Bin: 0}, {Item: 2, Bin: 2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteAssignment(&buf, a); err != nil {
		t.Fatalf("WriteAssignment returned error: %v", err)
	}
	back, err := ReadAssignment(&buf, 3, 3)
	if err != nil {
		t.Fatalf("ReadAssignment returned error: %v", err)
	}
	if !slices.Equal(back.Pairs(), a.Pairs()) {
		t.Fatalf("expected %v, got %v", a.Pairs(), back.Pairs())
	}
}

func TestFirstFitDecreasing(t *testing.T) {
	t.Parallel()

	sizes := []int{2, 5, 3, 4, 1}
	a, err := FirstFitDecreasing(sizes, 6)
	if err != nil {
		t.Fatalf("FirstFitDecreasing returned error: %v", err)
	}

	// 5+1, 4+2, 3
	want := []Pair{{Item: 0, Bin: 1}, {Item: 1, Bin: 0}, {Item: 2, Bin: 2}, {Item: 3, Bin: 1}, {Item: 4, Bin: 0}}
	if got := a.Pairs(); !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	m, err := Build(sizes, WithCapacity(6))
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	start, err := m.Start(a)
	if err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if !m.MIP.Feasible(start, 1e-9) {
		t.Fatalf("expected FFD start to be feasible")
	}
}

func TestFirstFitDecreasingBreaksTiesByIndex(t *testing.T) {
	t.Parallel()

	a, err := FirstFitDecreasing([]int{1, 1, 1}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Pair{{Item: 0, Bin: 0}, {Item: 1, Bin: 1}, {Item: 2, Bin: 2}}
	if got := a.Pairs(); !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFirstFitDecreasingLargeSizes(t *testing.T) {
	t.Parallel()

	const unit = 1 << 40
	a, err := FirstFitDecreasing([]int{unit, 2 * unit, unit}, 3*unit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// the larger item opens bin 0, then ties go by index
	want := []Pair{{Item: 0, Bin: 0}, {Item: 1, Bin: 0}, {Item: 2, Bin: 1}}
	if got := a.Pairs(); !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFirstFitDecreasingValidates(t *testing.T) {
	t.Parallel()

	if _, err := FirstFitDecreasing(nil, 0); !errors.Is(err, ErrEmptySizes) {
		t.Fatalf("expected ErrEmptySizes, got %v", err)
	}
}
