package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSolver = SolverConfig{Solver: "lbfgs", MaxIterations: 100, Tolerance: 1e-7}

func TestCoordinateConstruction(t *testing.T) {
	fixed := NewFixedEffect(testSolver, L2Regularization(), 2.0)
	assert.Equal(t, FixedEffectType, fixed.Type)
	assert.Equal(t, 2.0, fixed.Weight)

	random := NewRandomEffect(testSolver, ElasticNetRegularization(0.5), 4.0)
	assert.Equal(t, RandomEffectType, random.Type)
	assert.Equal(t, ElasticNet, random.Regularization.Type)

	// Non-positive weights are rejected at construction.
	assert.Panics(t, func() { NewFixedEffect(testSolver, L2Regularization(), 0) })
	assert.Panics(t, func() { NewRandomEffect(testSolver, L2Regularization(), -1.0) })
	assert.Panics(t, func() { fixed.WithWeight(0) })
}

func TestWithWeight(t *testing.T) {
	reg := ElasticNetRegularization(0.3)
	cc := NewRandomEffect(testSolver, reg, 4.0)
	updated := cc.WithWeight(0.25)
	assert.Equal(t, 0.25, updated.Weight)
	// Everything but the weight is carried over untouched.
	assert.Equal(t, cc.Type, updated.Type)
	assert.Equal(t, cc.Solver, updated.Solver)
	assert.Equal(t, cc.Regularization, updated.Regularization)
	// The original is a value, not aliased.
	assert.Equal(t, 4.0, cc.Weight)
}

func TestConfigOrder(t *testing.T) {
	cfg := NewConfig().
		Add("global", NewFixedEffect(testSolver, L2Regularization(), 10.0)).
		Add("per-user", NewRandomEffect(testSolver, L2Regularization(), 1.0)).
		Add("per-item", NewRandomEffect(testSolver, L2Regularization(), 0.5))
	require.Equal(t, 3, cfg.Len())
	assert.Equal(t, []string{"global", "per-user", "per-item"}, cfg.Names())

	name, cc := cfg.At(1)
	assert.Equal(t, "per-user", name)
	assert.Equal(t, RandomEffectType, cc.Type)

	_, found := cfg.Get("per-cookie")
	assert.False(t, found)

	assert.Panics(t, func() { cfg.Add("global", NewFixedEffect(testSolver, L2Regularization(), 1.0)) })
}

func TestConfigCloneAndEqual(t *testing.T) {
	cfg := NewConfig().
		Add("a", NewFixedEffect(testSolver, L2Regularization(), 2.0)).
		Add("b", NewRandomEffect(testSolver, L2Regularization(), 4.0))
	clone := cfg.Clone()
	assert.True(t, cfg.Equal(clone))

	// Same contents in a different insertion order are not equal.
	swapped := NewConfig().
		Add("b", NewRandomEffect(testSolver, L2Regularization(), 4.0)).
		Add("a", NewFixedEffect(testSolver, L2Regularization(), 2.0))
	assert.False(t, cfg.Equal(swapped))

	// A differing weight breaks equality.
	reweighted := NewConfig().
		Add("a", NewFixedEffect(testSolver, L2Regularization(), 2.0)).
		Add("b", NewRandomEffect(testSolver, L2Regularization(), 8.0))
	assert.False(t, cfg.Equal(reweighted))
}
