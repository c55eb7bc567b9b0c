package data

import (
	"github.com/dustin/go-humanize"
	"k8s.io/klog/v2"
)

// JoinScores right-outer-joins model scores against ground truth: every UID
// present in labels produces exactly one EvaluationRow, even if absent from
// scores, in which case defaultScore substitutes. The per-row Offset is added
// to the (possibly defaulted) score.
//
// Scored UIDs with no ground truth are dropped: the label table defines the
// evaluation population. Missing labels are never defaulted.
//
// The join runs in parallel over the label partitions and the result keeps
// the label table's partitioning. Errors from the underlying Table propagate
// as-is.
func JoinScores(labels Table[LabeledRow], scores map[UID]float64, defaultScore float64) (Table[EvaluationRow], error) {
	numPartitions := labels.NumPartitions()
	if klog.V(1).Enabled() {
		klog.Infof("data.JoinScores: %s labeled rows, %s scores, %d partitions",
			humanize.Comma(int64(labels.Len())), humanize.Comma(int64(len(scores))), numPartitions)
	}

	joined := &MemTable[EvaluationRow]{
		partitions: make([]map[UID]EvaluationRow, numPartitions),
		size:       labels.Len(),
	}
	err := labels.ScanPartitions(func(part int, rows map[UID]LabeledRow) error {
		out := make(map[UID]EvaluationRow, len(rows))
		for id, row := range rows {
			score, found := scores[id]
			if !found {
				score = defaultScore
			}
			out[id] = EvaluationRow{
				Score:  score + row.Offset,
				Label:  row.Label,
				Weight: row.Weight,
			}
		}
		joined.partitions[part] = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	for part, rows := range joined.partitions {
		if rows == nil {
			joined.partitions[part] = map[UID]EvaluationRow{}
		}
	}
	return joined, nil
}
