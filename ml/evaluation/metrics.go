package evaluation

import (
	"cmp"
	"math"
	"slices"

	"github.com/gomlx/gametuner/ml/data"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Metric computes one scalar quality value from a joined evaluation dataset.
//
// Which direction is "better" depends on the metric (AUC is
// higher-is-better, RMSE is lower-is-better), so every Metric carries its own
// BetterThan and callers must never assume a universal ordering.
//
// The scan over rows runs across partitions with no ordering guarantee, so
// implementations aggregate with associative and commutative partials only.
type Metric interface {
	// Name of the metric, e.g. "auc".
	Name() string

	// EvaluateWithScoresAndLabelsAndWeights computes the metric over the
	// joined (score, label, weight) rows. Errors from the underlying Table
	// propagate as-is.
	EvaluateWithScoresAndLabelsAndWeights(rows data.Table[data.EvaluationRow]) (float64, error)

	// BetterThan reports whether metric value a is better than b.
	BetterThan(a, b float64) bool
}

// baseMetric provides the name and ordering plumbing shared by all metrics.
type baseMetric struct {
	name           string
	higherIsBetter bool
}

func (m baseMetric) Name() string { return m.name }

func (m baseMetric) BetterThan(a, b float64) bool {
	if m.higherIsBetter {
		return a > b
	}
	return a < b
}

// aucMetric computes the area under the ROC curve. Higher is better.
type aucMetric struct {
	baseMetric
}

// NewAUC returns the area-under-the-ROC-curve metric for binary labels
// (label > 0.5 is the positive class). Higher values are better.
func NewAUC() Metric {
	return aucMetric{baseMetric{name: "auc", higherIsBetter: true}}
}

func (m aucMetric) EvaluateWithScoresAndLabelsAndWeights(rows data.Table[data.EvaluationRow]) (float64, error) {
	type point struct {
		score, weight float64
		positive      bool
	}
	// Collect per partition, merge, then sort: the final sort makes the
	// result independent of partition order.
	partials := make([][]point, rows.NumPartitions())
	err := rows.ScanPartitions(func(part int, rows map[data.UID]data.EvaluationRow) error {
		points := make([]point, 0, len(rows))
		for _, row := range rows {
			points = append(points, point{score: row.Score, weight: row.Weight, positive: row.Label > 0.5})
		}
		partials[part] = points
		return nil
	})
	if err != nil {
		return 0, err
	}
	var points []point
	for _, p := range partials {
		points = append(points, p...)
	}
	if len(points) == 0 {
		return 0, errors.Errorf("metric %q: no rows to evaluate", m.name)
	}
	slices.SortFunc(points, func(a, b point) int {
		return cmp.Compare(a.score, b.score)
	})

	y := make([]float64, len(points))
	classes := make([]bool, len(points))
	weights := make([]float64, len(points))
	numPositive := 0
	for i, p := range points {
		y[i] = p.score
		classes[i] = p.positive
		weights[i] = p.weight
		if p.positive {
			numPositive++
		}
	}
	if numPositive == 0 || numPositive == len(points) {
		return 0, errors.Errorf("metric %q undefined: all %d rows belong to a single class", m.name, len(points))
	}
	tpr, fpr, _ := stat.ROC(nil, y, classes, weights)
	return integrate.Trapezoidal(fpr, tpr), nil
}

// rmseMetric computes the weighted root-mean-squared error. Lower is better.
type rmseMetric struct {
	baseMetric
}

// NewRMSE returns the weighted root-mean-squared-error metric. Lower values
// are better.
func NewRMSE() Metric {
	return rmseMetric{baseMetric{name: "rmse", higherIsBetter: false}}
}

func (m rmseMetric) EvaluateWithScoresAndLabelsAndWeights(rows data.Table[data.EvaluationRow]) (float64, error) {
	sqSums := make([]float64, rows.NumPartitions())
	weightSums := make([]float64, rows.NumPartitions())
	err := rows.ScanPartitions(func(part int, rows map[data.UID]data.EvaluationRow) error {
		var sumSq, sumW float64
		for _, row := range rows {
			residual := row.Score - row.Label
			sumSq += row.Weight * residual * residual
			sumW += row.Weight
		}
		sqSums[part] = sumSq
		weightSums[part] = sumW
		return nil
	})
	if err != nil {
		return 0, err
	}
	totalWeight := floats.Sum(weightSums)
	if totalWeight <= 0 {
		return 0, errors.Errorf("metric %q: total example weight is %g, nothing to evaluate", m.name, totalWeight)
	}
	return math.Sqrt(floats.Sum(sqSums) / totalWeight), nil
}

// logLossMetric computes the weighted logistic loss of raw-margin scores
// against labels in [0, 1]. Lower is better.
type logLossMetric struct {
	baseMetric
}

// NewLogLoss returns the weighted logistic-loss metric. Scores are taken as
// raw margins (log-odds), labels must be in [0, 1]. Lower values are better.
func NewLogLoss() Metric {
	return logLossMetric{baseMetric{name: "logloss", higherIsBetter: false}}
}

func (m logLossMetric) EvaluateWithScoresAndLabelsAndWeights(rows data.Table[data.EvaluationRow]) (float64, error) {
	lossSums := make([]float64, rows.NumPartitions())
	weightSums := make([]float64, rows.NumPartitions())
	err := rows.ScanPartitions(func(part int, rows map[data.UID]data.EvaluationRow) error {
		var sumLoss, sumW float64
		for _, row := range rows {
			sumLoss += row.Weight * (softplus(row.Score) - row.Label*row.Score)
			sumW += row.Weight
		}
		lossSums[part] = sumLoss
		weightSums[part] = sumW
		return nil
	})
	if err != nil {
		return 0, err
	}
	totalWeight := floats.Sum(weightSums)
	if totalWeight <= 0 {
		return 0, errors.Errorf("metric %q: total example weight is %g, nothing to evaluate", m.name, totalWeight)
	}
	return floats.Sum(lossSums) / totalWeight, nil
}

// softplus returns log(1+e^x) without overflowing for large |x|.
func softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}
