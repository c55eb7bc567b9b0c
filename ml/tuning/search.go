package tuning

import (
	"context"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/exp/rand"
	"k8s.io/klog/v2"

	"github.com/gomlx/gametuner/ml/evaluation"
	"github.com/gomlx/gametuner/ml/game"
)

// Result is the best candidate found by a Session.
type Result struct {
	// Config is the best candidate configuration.
	Config *game.Config

	// Vector is Config's hyperparameter vector.
	Vector []float64

	// Metric is the evaluator's value for Config. Compare it to other values
	// only through the evaluator's BetterThan.
	Metric float64
}

// Session repeatedly proposes hyperparameter vectors around the template,
// trains the corresponding configurations and keeps the best candidate per
// the evaluator's metric.
//
// The proposal strategy is deliberately simple (Gaussian perturbations in
// log-space): Session exists to drive the VectorTransformer/Evaluator
// contract end to end, and external optimizers plug into the same contract
// for anything smarter.
type Session struct {
	transformer *VectorTransformer
	evaluator   *evaluation.Evaluator

	iterations  int
	stdDev      float64
	rng         *rand.Rand
	progressBar bool
}

// NewSession creates a tuning session. Configure it with the chained With*
// setters and start it with Run.
func NewSession(transformer *VectorTransformer, evaluator *evaluation.Evaluator) *Session {
	return &Session{
		transformer: transformer,
		evaluator:   evaluator,
		iterations:  20,
		stdDev:      1.0,
		rng:         rand.New(rand.NewSource(42)),
	}
}

// WithIterations sets how many candidates to try after the template itself.
// It returns the updated Session, so calls can be cascaded.
func (s *Session) WithIterations(n int) *Session {
	s.iterations = n
	return s
}

// WithStdDev sets the standard deviation of the log-space Gaussian
// perturbation applied to the template's vector when proposing candidates.
// It returns the updated Session, so calls can be cascaded.
func (s *Session) WithStdDev(stdDev float64) *Session {
	s.stdDev = stdDev
	return s
}

// WithSeed re-seeds the proposal RNG, making the session deterministic.
// It returns the updated Session, so calls can be cascaded.
func (s *Session) WithSeed(seed uint64) *Session {
	s.rng = rand.New(rand.NewSource(seed))
	return s
}

// WithProgressBar enables a command-line progress bar over the iterations.
// It returns the updated Session, so calls can be cascaded.
func (s *Session) WithProgressBar(enabled bool) *Session {
	s.progressBar = enabled
	return s
}

// Run executes the session: the template configuration is evaluated first as
// the baseline, then `iterations` perturbed candidates. It returns the best
// candidate seen.
//
// Run blocks on training and on the distributed evaluations; ctx is checked
// between candidates, and training/evaluation errors abort the session.
func (s *Session) Run(ctx context.Context) (Result, error) {
	var bar *progressbar.ProgressBar
	if s.progressBar {
		bar = progressbar.NewOptions(s.iterations+1,
			progressbar.OptionSetDescription("Tuning: "),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("candidates"),
		)
	}

	center := s.transformer.ConfigurationToVector(s.transformer.Template())
	var best Result
	for i := 0; i <= s.iterations; i++ {
		if err := ctx.Err(); err != nil {
			return best, err
		}
		vector := make([]float64, len(center))
		copy(vector, center)
		if i > 0 { // Iteration 0 is the template itself.
			for d := range vector {
				vector[d] += s.rng.NormFloat64() * s.stdDev
			}
		}
		cfg := s.transformer.VectorToConfiguration(vector)

		model, err := s.transformer.Trainer().Train(cfg)
		if err != nil {
			return best, errors.Wrapf(err, "tuning: training candidate %d (%s)", i, cfg)
		}
		value, err := s.evaluator.Evaluate(model.Scores())
		if err != nil {
			return best, errors.Wrapf(err, "tuning: evaluating candidate %d (%s)", i, cfg)
		}
		klog.V(1).Infof("tuning: candidate %d: %s=%g %s", i, s.evaluator.Metric().Name(), value, cfg)

		if i == 0 || s.evaluator.BetterThan(value, best.Metric) {
			best = Result{Config: cfg, Vector: vector, Metric: value}
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	klog.V(1).Infof("tuning: best %s=%g with %s", s.evaluator.Metric().Name(), best.Metric, best.Config)
	return best, nil
}
