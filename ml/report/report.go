// Package report converts logical tuning reports into physical
// representations for downstream sinks.
//
// It is a thin adapter layer: a Transformer is a single polymorphic
// Transform method over a (logical, physical) report pair, and holds no
// state.
package report

import (
	"strconv"

	"github.com/gomlx/gametuner/ml/game"
)

// Transformer converts a logical report L into its physical representation P.
type Transformer[L, P any] interface {
	Transform(logical L) (P, error)
}

// LogicalEvaluationReport is the logical summary of one evaluated candidate:
// the metric and the per-coordinate regularization weights that produced it.
type LogicalEvaluationReport struct {
	MetricName  string
	MetricValue float64
	Coordinates []CoordinateWeight
}

// CoordinateWeight is one coordinate's contribution to a logical report.
type CoordinateWeight struct {
	Name   string
	Type   game.CoordinateType
	Weight float64
}

// NewLogicalEvaluationReport builds the logical report for one evaluated
// configuration, with coordinates in the configuration's order.
func NewLogicalEvaluationReport(metricName string, metricValue float64, cfg *game.Config) LogicalEvaluationReport {
	logical := LogicalEvaluationReport{
		MetricName:  metricName,
		MetricValue: metricValue,
		Coordinates: make([]CoordinateWeight, 0, cfg.Len()),
	}
	for i := 0; i < cfg.Len(); i++ {
		name, cc := cfg.At(i)
		logical.Coordinates = append(logical.Coordinates, CoordinateWeight{
			Name:   name,
			Type:   cc.Type,
			Weight: cc.Weight,
		})
	}
	return logical
}

// PhysicalRow is one flat key/value row of a physical report.
type PhysicalRow struct {
	Kind  string
	Key   string
	Value string
}

// Row kinds produced by EvaluationReportTransformer.
const (
	MetricRowKind           = "metric"
	CoordinateWeightRowKind = "coordinate-weight"
)

// EvaluationReportTransformer flattens a LogicalEvaluationReport into
// physical rows: one metric row followed by one row per coordinate, in the
// logical report's order.
type EvaluationReportTransformer struct{}

// Transform implements Transformer.
func (EvaluationReportTransformer) Transform(logical LogicalEvaluationReport) ([]PhysicalRow, error) {
	rows := make([]PhysicalRow, 0, 1+len(logical.Coordinates))
	rows = append(rows, PhysicalRow{
		Kind:  MetricRowKind,
		Key:   logical.MetricName,
		Value: strconv.FormatFloat(logical.MetricValue, 'g', -1, 64),
	})
	for _, coordinate := range logical.Coordinates {
		rows = append(rows, PhysicalRow{
			Kind:  CoordinateWeightRowKind,
			Key:   coordinate.Name + "/" + coordinate.Type.String(),
			Value: strconv.FormatFloat(coordinate.Weight, 'g', -1, 64),
		})
	}
	return rows, nil
}
