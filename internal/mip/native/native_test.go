package native

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eugenenazirov/binpack/internal/mip"
)

func binaryKnapsack() *mip.Model {
	m := &mip.Model{Name: "knapsack"}
	x := m.AddBinary("x", -3)
	y := m.AddBinary("y", -2)
	m.AddRow("cap", []mip.Term{{Col: x, Coef: 2}, {Col: y, Coef: 2}}, mip.LE, 3)
	return m
}

func TestSolveFindsOptimum(t *testing.T) {
	res, err := New().Solve(context.Background(), binaryKnapsack(), nil, mip.Params{})
	require.NoError(t, err)

	assert.Equal(t, mip.StatusOptimal, res.Status)
	assert.Equal(t, []float64{1, 0}, res.Values)
	assert.InDelta(t, -3, res.Objective, 1e-9)
	assert.Positive(t, res.Nodes)
	assert.False(t, res.StartAccepted)
}

func TestSolveEqualityAndGreaterRows(t *testing.T) {
	m := &mip.Model{}
	x := m.AddBinary("x", 1)
	y := m.AddBinary("y", 1)
	z := m.AddBinary("z", 1)
	m.AddRow("pick2", []mip.Term{{Col: x, Coef: 1}, {Col: y, Coef: 1}, {Col: z, Coef: 1}}, mip.EQ, 2)
	m.AddRow("xy", []mip.Term{{Col: x, Coef: 1}, {Col: y, Coef: -1}}, mip.GE, 0)
	m.AddRow("noz", []mip.Term{{Col: z, Coef: 1}}, mip.LE, 0)

	res, err := New().Solve(context.Background(), m, nil, mip.Params{})
	require.NoError(t, err)

	assert.Equal(t, mip.StatusOptimal, res.Status)
	assert.Equal(t, []float64{1, 1, 0}, res.Values)
	assert.InDelta(t, 2, res.Objective, 1e-9)
}

func TestSolveGeneralInteger(t *testing.T) {
	m := &mip.Model{}
	x := m.AddVar(mip.Var{Name: "x", Lower: 0, Upper: 5, Integer: true, Cost: -1})
	m.AddRow("cap", []mip.Term{{Col: x, Coef: 3}}, mip.LE, 7)

	res, err := New().Solve(context.Background(), m, nil, mip.Params{})
	require.NoError(t, err)

	assert.Equal(t, mip.StatusOptimal, res.Status)
	assert.Equal(t, []float64{2}, res.Values)
}

func TestSolveInfeasible(t *testing.T) {
	m := &mip.Model{}
	x := m.AddBinary("x", 1)
	y := m.AddBinary("y", 1)
	m.AddRow("too-many", []mip.Term{{Col: x, Coef: 1}, {Col: y, Coef: 1}}, mip.GE, 3)

	res, err := New().Solve(context.Background(), m, nil, mip.Params{})
	require.NoError(t, err)

	assert.Equal(t, mip.StatusInfeasible, res.Status)
	assert.False(t, res.HasSolution())
}

func TestSolveNodeLimitKeepsStart(t *testing.T) {
	start := mip.Start{0, 1}

	res, err := New().Solve(context.Background(), binaryKnapsack(), start, mip.Params{NodeLimit: 1})
	require.NoError(t, err)

	assert.Equal(t, mip.StatusNodeLimit, res.Status)
	assert.True(t, res.StartAccepted)
	assert.Equal(t, []float64{0, 1}, res.Values)
	assert.InDelta(t, -2, res.Objective, 1e-9)
}

func TestSolveStopsAtObjectiveBound(t *testing.T) {
	m := &mip.Model{}
	x := m.AddBinary("x", 1)
	y := m.AddBinary("y", 1)
	m.AddRow("one", []mip.Term{{Col: x, Coef: 1}, {Col: y, Coef: 1}}, mip.GE, 1)
	m.SetObjectiveBound(1)

	res, err := New().Solve(context.Background(), m, mip.Start{0, 1}, mip.Params{NodeLimit: 1})
	require.NoError(t, err)

	assert.Equal(t, mip.StatusOptimal, res.Status)
	assert.True(t, res.StartAccepted)
	assert.Equal(t, []float64{0, 1}, res.Values)
	assert.Zero(t, res.Nodes)
}

func TestSolveSearchesPastStartAboveBound(t *testing.T) {
	m := &mip.Model{}
	x := m.AddBinary("x", 1)
	y := m.AddBinary("y", 1)
	m.AddRow("one", []mip.Term{{Col: x, Coef: 1}, {Col: y, Coef: 1}}, mip.GE, 1)
	m.SetObjectiveBound(1)

	res, err := New().Solve(context.Background(), m, mip.Start{1, 1}, mip.Params{})
	require.NoError(t, err)

	assert.Equal(t, mip.StatusOptimal, res.Status)
	assert.InDelta(t, 1, res.Objective, 1e-9)
	assert.Positive(t, res.Nodes)
}

func TestSolveIgnoresInfeasibleStart(t *testing.T) {
	res, err := New().Solve(context.Background(), binaryKnapsack(), mip.Start{1, 1}, mip.Params{})
	require.NoError(t, err)

	assert.False(t, res.StartAccepted)
	assert.Equal(t, mip.StatusOptimal, res.Status)
	assert.Equal(t, []float64{1, 0}, res.Values)
}

func TestSolveRejectsStartOfWrongShape(t *testing.T) {
	_, err := New().Solve(context.Background(), binaryKnapsack(), mip.Start{1}, mip.Params{})
	require.ErrorIs(t, err, mip.ErrStartShape)
}

func TestSolveRejectsContinuousColumns(t *testing.T) {
	m := &mip.Model{}
	m.AddVar(mip.Var{Name: "c", Lower: 0, Upper: 1})

	_, err := New().Solve(context.Background(), m, nil, mip.Params{})
	require.ErrorIs(t, err, ErrUnsupportedModel)
}

func TestSolveRejectsInvalidModel(t *testing.T) {
	m := binaryKnapsack()
	m.Rows[0].Terms = append(m.Rows[0].Terms, mip.Term{Col: 9, Coef: 1})

	_, err := New().Solve(context.Background(), m, nil, mip.Params{})
	require.ErrorIs(t, err, mip.ErrInvalidModel)
}

func TestSolveHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := New().Solve(ctx, binaryKnapsack(), mip.Start{0, 1}, mip.Params{})
	require.NoError(t, err)

	assert.Equal(t, mip.StatusInterrupted, res.Status)
	assert.Equal(t, []float64{0, 1}, res.Values)
}

func TestRegisteredUnderName(t *testing.T) {
	b, err := mip.Lookup(Name)
	require.NoError(t, err)
	assert.Equal(t, Name, b.Name())
}
