// Package tuning bridges GAME model configurations and the flat real vectors
// consumed by black-box hyperparameter optimizers.
//
// The bridge is VectorTransformer: it holds a template game.Config whose
// coordinate order defines the vector layout, and converts between
// configurations and vectors of log regularization weights. Conversions are
// pure, deterministic and dimensionally exact: any structural divergence from
// the template panics immediately instead of producing a wrong vector.
//
// Session is a thin search loop exercising that contract end to end
// (propose, train, evaluate, keep best); sophisticated search strategies are
// expected to live outside this package and consume the same contract.
package tuning

import (
	"math"

	"github.com/gomlx/exceptions"

	"github.com/gomlx/gametuner/ml/data"
	"github.com/gomlx/gametuner/ml/game"
	"github.com/gomlx/gametuner/types"
)

// Model is a trained GAME model, reduced to what evaluation needs: its
// per-sample scores on the validation data.
type Model interface {
	// Scores returns the model's score per sample UID.
	Scores() map[data.UID]float64
}

// Trainer produces a trained model from a candidate configuration. It is the
// opaque estimator collaborator: training itself is not this package's
// concern.
type Trainer interface {
	Train(cfg *game.Config) (Model, error)
}

// VectorTransformer converts between game.Config values and flat
// hyperparameter vectors, using a fixed template configuration as the
// reference for coordinate order and per-coordinate variants.
//
// Each vector component is the natural log of the corresponding coordinate's
// regularization weight: weights are strictly positive and searched over
// orders of magnitude, and in log-space an unconstrained optimizer needs no
// positivity constraint, with ln/exp a monotone bijection guaranteeing exact
// round-trips.
//
// The template is read-only; both conversions are pure and safe to call
// concurrently.
type VectorTransformer struct {
	trainer  Trainer
	template *game.Config

	// Opaque dataset handles, passed through to the training subsystem.
	trainingData, validationData any
}

// NewVectorTransformer creates a VectorTransformer around the given template
// configuration. The trainer and the dataset handles are opaque
// collaborators, only forwarded to training.
// It panics if the template has no coordinates.
func NewVectorTransformer(trainer Trainer, template *game.Config, trainingData, validationData any) *VectorTransformer {
	if template == nil || template.Len() == 0 {
		exceptions.Panicf("tuning: template configuration must have at least one coordinate")
	}
	return &VectorTransformer{
		trainer:        trainer,
		template:       template,
		trainingData:   trainingData,
		validationData: validationData,
	}
}

// Template returns the template configuration. It must be treated as
// read-only.
func (t *VectorTransformer) Template() *game.Config { return t.template }

// Trainer returns the trainer collaborator.
func (t *VectorTransformer) Trainer() Trainer { return t.trainer }

// TrainingData returns the opaque training dataset handle.
func (t *VectorTransformer) TrainingData() any { return t.trainingData }

// ValidationData returns the opaque validation dataset handle.
func (t *VectorTransformer) ValidationData() any { return t.validationData }

// ConfigurationToVector converts cfg to its hyperparameter vector: one
// ln(weight) per coordinate, in the template's iteration order.
//
// cfg must be structurally identical to the template (same coordinate count,
// same names in the same order, same per-coordinate variant); any divergence
// panics with a "dissimilar configuration" error naming the mismatch.
func (t *VectorTransformer) ConfigurationToVector(cfg *game.Config) []float64 {
	t.checkSimilar(cfg)
	hypers := make([]float64, t.template.Len())
	for i := range hypers {
		name, _ := t.template.At(i)
		cc, _ := cfg.Get(name)
		hypers[i] = math.Log(cc.Weight)
	}
	return hypers
}

// VectorToConfiguration converts a hyperparameter vector back to a full
// configuration: coordinate i of the result has the template's name, variant,
// solver and regularization context, with weight exp(hypers[i]).
//
// exp is defined on all reals and always strictly positive, so any real
// vector of the right dimension yields a valid configuration; no further
// bounds are checked here. It panics if len(hypers) differs from the
// template's coordinate count.
func (t *VectorTransformer) VectorToConfiguration(hypers []float64) *game.Config {
	if len(hypers) != t.template.Len() {
		exceptions.Panicf("tuning: hyperparameter vector has dimension %d, but the template configuration has %d coordinates",
			len(hypers), t.template.Len())
	}
	cfg := game.NewConfig()
	for i, h := range hypers {
		name, cc := t.template.At(i)
		cfg.Add(name, cc.WithWeight(math.Exp(h)))
	}
	return cfg
}

// checkSimilar panics unless cfg has the template's exact coordinate
// structure. The three failure shapes (coordinate count, coordinate names,
// coordinate variant) are distinguished in the message.
func (t *VectorTransformer) checkSimilar(cfg *game.Config) {
	if cfg == nil {
		exceptions.Panicf("tuning: dissimilar configuration: got nil, template has %d coordinates", t.template.Len())
	}
	if cfg.Len() != t.template.Len() {
		exceptions.Panicf("tuning: dissimilar configuration: it has %d coordinates, the template has %d",
			cfg.Len(), t.template.Len())
	}
	templateNames := t.template.Names()
	cfgNames := cfg.Names()
	for i, name := range templateNames {
		if cfgNames[i] == name {
			continue
		}
		templateSet := types.SetWith(templateNames...)
		cfgSet := types.SetWith(cfgNames...)
		if templateSet.Equal(cfgSet) {
			exceptions.Panicf("tuning: dissimilar configuration: same coordinate names but in a different order, %v vs template %v",
				cfgNames, templateNames)
		}
		exceptions.Panicf("tuning: dissimilar configuration: coordinate names differ from the template, missing %v, unexpected %v",
			templateSet.Sub(cfgSet).Keys(), cfgSet.Sub(templateSet).Keys())
	}
	for i, name := range templateNames {
		_, templateCC := t.template.At(i)
		cc, _ := cfg.Get(name)
		if cc.Type != templateCC.Type {
			exceptions.Panicf("tuning: dissimilar configuration: coordinate %q is %s, but the template has %s",
				name, cc.Type, templateCC.Type)
		}
	}
}
