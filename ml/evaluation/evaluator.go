// Package evaluation scores trained GAME models against held-out ground
// truth.
//
// An Evaluator is built once, from an immutable label/offset/weight dataset
// and a Metric, and then reused for any number of Evaluate calls: each call
// joins a map of per-sample scores against the ground truth (missing scores
// take a configurable default) and hands the joined rows to the metric.
//
// Because "better" is metric-dependent, comparison of two metric values goes
// through Evaluator.BetterThan (or Metric.BetterThan), never through a
// direct < or >.
package evaluation

import (
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/gomlx/gametuner/ml/data"
)

// Evaluator computes one quality metric for per-sample scores against a
// fixed ground-truth dataset.
//
// The ground truth is captured at construction and never mutated; an
// Evaluator is safe for concurrent Evaluate calls.
type Evaluator struct {
	metric       Metric
	labels       data.Table[data.LabeledRow]
	defaultScore float64

	// id tags dispatch log lines, since many evaluators (train/validation)
	// usually coexist.
	id string
}

// NewEvaluator creates an Evaluator for the given metric over the given
// ground truth. The default score for samples missing from Evaluate's input
// is 0; change it with WithDefaultScore.
func NewEvaluator(metric Metric, labels data.Table[data.LabeledRow]) *Evaluator {
	return &Evaluator{
		metric: metric,
		labels: labels,
		id:     uuid.NewString(),
	}
}

// WithDefaultScore sets the score substituted for samples the model did not
// score. It returns the updated Evaluator, so calls can be cascaded; call it
// before the first Evaluate.
func (e *Evaluator) WithDefaultScore(score float64) *Evaluator {
	e.defaultScore = score
	return e
}

// Metric returns the metric this evaluator computes.
func (e *Evaluator) Metric() Metric { return e.metric }

// Evaluate joins scores against the ground truth and computes the metric.
//
// Every sample known to the ground truth produces exactly one joined row:
// samples absent from scores take the configured default score. The per-row
// offset is added to the (possibly defaulted) score before the metric runs.
//
// The call blocks until the underlying partitioned computation completes.
// Errors from the execution engine propagate as-is.
func (e *Evaluator) Evaluate(scores map[data.UID]float64) (float64, error) {
	if klog.V(1).Enabled() {
		klog.Infof("evaluation[%s]: dispatching %s metric over %s rows",
			e.id, e.metric.Name(), humanize.Comma(int64(e.labels.Len())))
	}
	joined, err := data.JoinScores(e.labels, scores, e.defaultScore)
	if err != nil {
		return 0, err
	}
	value, err := e.metric.EvaluateWithScoresAndLabelsAndWeights(joined)
	if err != nil {
		return 0, err
	}
	klog.V(2).Infof("evaluation[%s]: %s=%g", e.id, e.metric.Name(), value)
	return value, nil
}

// BetterThan reports whether metric value a is better than b, according to
// this evaluator's metric.
func (e *Evaluator) BetterThan(a, b float64) bool {
	return e.metric.BetterThan(a, b)
}

// Equal reports whether both evaluators compute the same metric over the
// same ground truth, compared by value. Scores previously evaluated play no
// part in equality.
func (e *Evaluator) Equal(other *Evaluator) bool {
	if other == nil {
		return false
	}
	if e.metric.Name() != other.metric.Name() {
		return false
	}
	return labelsEqual(e.labels, other.labels)
}

func labelsEqual(a, b data.Table[data.LabeledRow]) bool {
	if a.Len() != b.Len() {
		return false
	}
	rowsOf := func(t data.Table[data.LabeledRow]) map[data.UID]data.LabeledRow {
		if mt, ok := t.(*data.MemTable[data.LabeledRow]); ok {
			return mt.Rows()
		}
		all := make(map[data.UID]data.LabeledRow, t.Len())
		partials := make([]map[data.UID]data.LabeledRow, t.NumPartitions())
		_ = t.ScanPartitions(func(part int, rows map[data.UID]data.LabeledRow) error {
			copied := make(map[data.UID]data.LabeledRow, len(rows))
			for id, row := range rows {
				copied[id] = row
			}
			partials[part] = copied
			return nil
		})
		for _, rows := range partials {
			for id, row := range rows {
				all[id] = row
			}
		}
		return all
	}
	rowsA, rowsB := rowsOf(a), rowsOf(b)
	for id, rowA := range rowsA {
		rowB, found := rowsB[id]
		if !found || rowA != rowB {
			return false
		}
	}
	return true
}
