package tuning

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/gametuner/ml/data"
	"github.com/gomlx/gametuner/ml/evaluation"
	"github.com/gomlx/gametuner/ml/game"
)

type fakeModel map[data.UID]float64

func (m fakeModel) Scores() map[data.UID]float64 { return m }

// weightTrainer "trains" a model whose every score is coordinate "a"'s
// regularization weight, and records the configurations it saw.
type weightTrainer struct {
	seen []*game.Config
	err  error
}

func (tr *weightTrainer) Train(cfg *game.Config) (Model, error) {
	if tr.err != nil {
		return nil, tr.err
	}
	tr.seen = append(tr.seen, cfg)
	cc, _ := cfg.Get("a")
	return fakeModel{1: cc.Weight, 2: cc.Weight}, nil
}

// meanScore scores a model by the weighted mean of its scores.
type meanScore struct {
	higherIsBetter bool
}

func (m meanScore) Name() string { return "mean-score" }

func (m meanScore) BetterThan(a, b float64) bool {
	if m.higherIsBetter {
		return a > b
	}
	return a < b
}

func (m meanScore) EvaluateWithScoresAndLabelsAndWeights(rows data.Table[data.EvaluationRow]) (float64, error) {
	sums := make([]float64, rows.NumPartitions())
	weights := make([]float64, rows.NumPartitions())
	err := rows.ScanPartitions(func(part int, rows map[data.UID]data.EvaluationRow) error {
		for _, row := range rows {
			sums[part] += row.Weight * row.Score
			weights[part] += row.Weight
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	var sum, sumW float64
	for part := range sums {
		sum += sums[part]
		sumW += weights[part]
	}
	return sum / sumW, nil
}

func testLabels() data.Table[data.LabeledRow] {
	return data.NewMemTable(map[data.UID]data.LabeledRow{
		1: {Label: 1, Weight: 1},
		2: {Label: 0, Weight: 1},
	}, 2)
}

func newSearchFixture(higherIsBetter bool) (*weightTrainer, *Session) {
	template := game.NewConfig().
		Add("a", game.NewFixedEffect(testSolver, game.L2Regularization(), 2.0)).
		Add("b", game.NewRandomEffect(testSolver, game.L2Regularization(), 4.0))
	trainer := &weightTrainer{}
	transformer := NewVectorTransformer(trainer, template, "train-handle", "validation-handle")
	evaluator := evaluation.NewEvaluator(meanScore{higherIsBetter: higherIsBetter}, testLabels())
	return trainer, NewSession(transformer, evaluator).WithIterations(10).WithSeed(17)
}

func TestSessionKeepsBestPerMetricOrdering(t *testing.T) {
	for _, higherIsBetter := range []bool{true, false} {
		trainer, session := newSearchFixture(higherIsBetter)
		result, err := session.Run(context.Background())
		require.NoError(t, err)
		require.NotNil(t, result.Config)
		require.Len(t, trainer.seen, 11, "template plus 10 candidates")

		// The best candidate is exactly the extreme of what the trainer saw,
		// per the metric's own ordering.
		best := -1.0
		for i, cfg := range trainer.seen {
			cc, _ := cfg.Get("a")
			if i == 0 || (higherIsBetter && cc.Weight > best) || (!higherIsBetter && cc.Weight < best) {
				best = cc.Weight
			}
		}
		assert.InDelta(t, best, result.Metric, 1e-12, "higherIsBetter=%v", higherIsBetter)

		// Every candidate preserved the template's structure.
		for _, cfg := range trainer.seen {
			assert.Equal(t, []string{"a", "b"}, cfg.Names())
			cc, _ := cfg.Get("b")
			assert.Equal(t, game.RandomEffectType, cc.Type)
			assert.Greater(t, cc.Weight, 0.0)
		}
	}
}

func TestSessionDeterministicWithSeed(t *testing.T) {
	_, sessionA := newSearchFixture(true)
	resultA, err := sessionA.Run(context.Background())
	require.NoError(t, err)

	_, sessionB := newSearchFixture(true)
	resultB, err := sessionB.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, resultA.Vector, resultB.Vector)
	assert.Equal(t, resultA.Metric, resultB.Metric)
}

func TestSessionPropagatesTrainingError(t *testing.T) {
	trainer, session := newSearchFixture(true)
	trainer.err = errors.New("solver diverged")
	_, err := session.Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "solver diverged")
}

func TestSessionHonorsContext(t *testing.T) {
	_, session := newSearchFixture(true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := session.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
