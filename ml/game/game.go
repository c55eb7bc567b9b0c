// Package game defines the optimization configuration of a GAME model
// (generalized additive mixed-effects model).
//
// A GAME model is a sum of named sub-models, called coordinates. Each
// coordinate is either a fixed-effect or a random-effect, and carries its own
// solver configuration, regularization shape and regularization weight.
//
// A Config is an ordered mapping from coordinate name to CoordinateConfig.
// The insertion order is significant: it defines the layout of the
// hyperparameter vector built by the tuning package, so a Config is a value
// object built once (with chained Add calls) and treated as immutable
// afterwards.
package game

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
)

// CoordinateType discriminates the two structurally distinct coordinate
// configurations of a GAME model.
type CoordinateType int

const (
	// FixedEffectType is a coordinate whose coefficients are shared across all
	// entities.
	FixedEffectType CoordinateType = iota

	// RandomEffectType is a coordinate with per-entity coefficients.
	RandomEffectType
)

// String implements fmt.Stringer.
func (t CoordinateType) String() string {
	switch t {
	case FixedEffectType:
		return "fixed-effect"
	case RandomEffectType:
		return "random-effect"
	}
	return fmt.Sprintf("CoordinateType(%d)", int(t))
}

// RegularizationType selects the shape of the regularization penalty.
type RegularizationType int

const (
	// L2 penalizes the squared norm of the coefficients.
	L2 RegularizationType = iota

	// ElasticNet mixes L1 and L2 penalties, weighted by Alpha.
	ElasticNet
)

// String implements fmt.Stringer.
func (t RegularizationType) String() string {
	switch t {
	case L2:
		return "l2"
	case ElasticNet:
		return "elastic-net"
	}
	return fmt.Sprintf("RegularizationType(%d)", int(t))
}

// RegularizationContext describes the shape of a coordinate's regularization
// penalty. It is carried through configuration/vector conversions unmodified:
// only the regularization weight is ever rewritten by tuning.
type RegularizationContext struct {
	Type RegularizationType

	// Alpha is the ElasticNet mixing parameter in [0, 1]; ignored for L2.
	Alpha float64
}

// L2Regularization returns a pure L2 RegularizationContext.
func L2Regularization() RegularizationContext {
	return RegularizationContext{Type: L2}
}

// ElasticNetRegularization returns an ElasticNet RegularizationContext with
// the given L1/L2 mixing parameter alpha.
func ElasticNetRegularization(alpha float64) RegularizationContext {
	return RegularizationContext{Type: ElasticNet, Alpha: alpha}
}

// SolverConfig is the opaque description of the solver used to fit one
// coordinate. It is passed through to the training subsystem unmodified.
type SolverConfig struct {
	// Solver name, e.g. "lbfgs" or "tron". Interpreted by the trainer.
	Solver string

	MaxIterations int
	Tolerance     float64
}

// CoordinateConfig is the regularization setting of one named coordinate:
// its variant (fixed-effect or random-effect), its solver, its regularization
// shape and a strictly positive regularization weight.
//
// Build values with NewFixedEffect or NewRandomEffect, which enforce the
// weight positivity at construction.
type CoordinateConfig struct {
	Type           CoordinateType
	Solver         SolverConfig
	Regularization RegularizationContext
	Weight         float64
}

func newCoordinate(cType CoordinateType, solver SolverConfig, reg RegularizationContext, weight float64) CoordinateConfig {
	if !(weight > 0) {
		exceptions.Panicf("game: %s coordinate requires a strictly positive regularization weight, got %g", cType, weight)
	}
	return CoordinateConfig{Type: cType, Solver: solver, Regularization: reg, Weight: weight}
}

// NewFixedEffect returns a fixed-effect CoordinateConfig.
// It panics if weight is not strictly positive.
func NewFixedEffect(solver SolverConfig, reg RegularizationContext, weight float64) CoordinateConfig {
	return newCoordinate(FixedEffectType, solver, reg, weight)
}

// NewRandomEffect returns a random-effect CoordinateConfig.
// It panics if weight is not strictly positive.
func NewRandomEffect(solver SolverConfig, reg RegularizationContext, weight float64) CoordinateConfig {
	return newCoordinate(RandomEffectType, solver, reg, weight)
}

// WithWeight returns a copy of cc with only the regularization weight
// replaced. Solver and regularization context are carried over untouched.
// It panics if weight is not strictly positive.
func (cc CoordinateConfig) WithWeight(weight float64) CoordinateConfig {
	return newCoordinate(cc.Type, cc.Solver, cc.Regularization, weight)
}

// Config is an ordered mapping from coordinate name to CoordinateConfig.
//
// Iteration order is insertion order, always. Once built, a Config is treated
// as an immutable value: tuning produces new Config values (see Clone and
// CoordinateConfig.WithWeight) instead of mutating existing ones.
type Config struct {
	names  []string
	coords map[string]CoordinateConfig
}

// NewConfig returns an empty Config. Populate it with chained Add calls:
//
//	cfg := game.NewConfig().
//		Add("global", game.NewFixedEffect(solver, game.L2Regularization(), 10.0)).
//		Add("per-user", game.NewRandomEffect(solver, game.L2Regularization(), 1.0))
func NewConfig() *Config {
	return &Config{coords: make(map[string]CoordinateConfig)}
}

// Add inserts a named coordinate at the end of the iteration order and
// returns the updated Config, so calls can be cascaded.
// It panics if the name was already added.
func (c *Config) Add(name string, cc CoordinateConfig) *Config {
	if _, found := c.coords[name]; found {
		exceptions.Panicf("game: coordinate %q added twice to Config", name)
	}
	c.names = append(c.names, name)
	c.coords[name] = cc
	return c
}

// Len returns the number of coordinates.
func (c *Config) Len() int { return len(c.names) }

// Names returns the coordinate names in insertion order.
// The returned slice is owned by the caller.
func (c *Config) Names() []string {
	names := make([]string, len(c.names))
	copy(names, c.names)
	return names
}

// Get returns the configuration of the named coordinate, and whether the
// coordinate exists.
func (c *Config) Get(name string) (CoordinateConfig, bool) {
	cc, found := c.coords[name]
	return cc, found
}

// At returns the i-th coordinate name and configuration, in insertion order.
func (c *Config) At(i int) (string, CoordinateConfig) {
	name := c.names[i]
	return name, c.coords[name]
}

// Clone returns a deep copy of the Config, preserving order.
func (c *Config) Clone() *Config {
	clone := NewConfig()
	for i := range c.names {
		clone.Add(c.At(i))
	}
	return clone
}

// Equal returns whether both configurations have the same coordinates, in the
// same order, with identical per-coordinate values.
func (c *Config) Equal(other *Config) bool {
	if c.Len() != other.Len() {
		return false
	}
	for i, name := range c.names {
		if other.names[i] != name || other.coords[name] != c.coords[name] {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer, listing coordinates in insertion order.
func (c *Config) String() string {
	parts := make([]string, 0, c.Len())
	for _, name := range c.names {
		cc := c.coords[name]
		parts = append(parts, fmt.Sprintf("%s: %s(weight=%g)", name, cc.Type, cc.Weight))
	}
	return "game.Config{" + strings.Join(parts, ", ") + "}"
}
