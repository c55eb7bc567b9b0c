// Package data provides the partitioned key-value collections consumed by the
// evaluation package.
//
// The real training pipeline runs on a distributed execution engine; this
// package defines the narrow Table interface that engine must satisfy, plus
// MemTable, an in-memory implementation that executes partition scans on
// parallel goroutines. MemTable is what tests and single-machine runs use.
package data

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// UID uniquely identifies one sample across score and label
// collections.
type UID int64

// LabeledRow is the immutable ground truth of one sample: its label, an
// additive score offset and an example weight. LabeledRow collections are
// supplied once, at evaluator construction, and never mutated.
type LabeledRow struct {
	Label  float64
	Offset float64
	Weight float64
}

// ScoredRow is one model score, produced by a trained model.
type ScoredRow struct {
	Score float64
}

// EvaluationRow is the result of joining a score against its ground truth:
// the offset-adjusted score, the label and the example weight.
type EvaluationRow struct {
	Score  float64
	Label  float64
	Weight float64
}

// Table is a partitioned, read-only collection of rows keyed by UID.
//
// A distributed execution engine provides its own implementation; MemTable is
// the in-memory one. Implementations must allow any number of concurrent
// scans: a Table is shared, immutable state.
type Table[V any] interface {
	// NumPartitions returns the number of partitions the rows are spread over.
	NumPartitions() int

	// Len returns the total number of rows.
	Len() int

	// ScanPartitions calls fn exactly once per partition, concurrently, with
	// part in [0, NumPartitions). Rows within a partition are visited in
	// undefined order, and there is no ordering
	// between partitions, so anything fn aggregates must be associative and
	// commutative. The first error returned by fn aborts the scan and is
	// returned as-is.
	ScanPartitions(fn func(part int, rows map[UID]V) error) error
}

// MemTable is an in-memory Table implementation. Rows are hash-partitioned by
// UID at construction and each partition is scanned on its own goroutine.
type MemTable[V any] struct {
	partitions []map[UID]V
	size       int
}

// NewMemTable builds a MemTable from rows, spread over numPartitions
// partitions. If numPartitions is 0 it defaults to the number of cores plus 1,
// like the parallel pipelines elsewhere in gomlx.
func NewMemTable[V any](rows map[UID]V, numPartitions int) *MemTable[V] {
	if numPartitions <= 0 {
		numPartitions = runtime.NumCPU() + 1
	}
	t := &MemTable[V]{
		partitions: make([]map[UID]V, numPartitions),
		size:       len(rows),
	}
	for p := range t.partitions {
		t.partitions[p] = make(map[UID]V, len(rows)/numPartitions+1)
	}
	for id, row := range rows {
		t.partitions[t.partitionOf(id)][id] = row
	}
	return t
}

func (t *MemTable[V]) partitionOf(id UID) int {
	p := int(id) % len(t.partitions)
	if p < 0 {
		p += len(t.partitions)
	}
	return p
}

// NumPartitions implements Table.
func (t *MemTable[V]) NumPartitions() int { return len(t.partitions) }

// Len implements Table.
func (t *MemTable[V]) Len() int { return t.size }

// ScanPartitions implements Table: one goroutine per partition, first error
// aborts and is returned untranslated.
func (t *MemTable[V]) ScanPartitions(fn func(part int, rows map[UID]V) error) error {
	var group errgroup.Group
	for part, rows := range t.partitions {
		part, rows := part, rows
		group.Go(func() error {
			return fn(part, rows)
		})
	}
	return group.Wait()
}

// Get returns the row for id, and whether it exists. Meant for tests and
// spot-checks; bulk access should go through ScanPartitions.
func (t *MemTable[V]) Get(id UID) (V, bool) {
	row, found := t.partitions[t.partitionOf(id)][id]
	return row, found
}

// Rows returns all rows collected into a single map. Meant for tests.
func (t *MemTable[V]) Rows() map[UID]V {
	all := make(map[UID]V, t.size)
	for _, rows := range t.partitions {
		for id, row := range rows {
			all[id] = row
		}
	}
	return all
}
