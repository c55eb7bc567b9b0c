package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/gametuner/ml/game"
)

func TestEvaluationReportTransform(t *testing.T) {
	solver := game.SolverConfig{Solver: "lbfgs"}
	cfg := game.NewConfig().
		Add("global", game.NewFixedEffect(solver, game.L2Regularization(), 2.0)).
		Add("per-user", game.NewRandomEffect(solver, game.L2Regularization(), 0.5))
	logical := NewLogicalEvaluationReport("auc", 0.75, cfg)

	require.Len(t, logical.Coordinates, 2)
	assert.Equal(t, "global", logical.Coordinates[0].Name)

	var transformer Transformer[LogicalEvaluationReport, []PhysicalRow] = EvaluationReportTransformer{}
	rows, err := transformer.Transform(logical)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, PhysicalRow{Kind: MetricRowKind, Key: "auc", Value: "0.75"}, rows[0])
	assert.Equal(t, PhysicalRow{Kind: CoordinateWeightRowKind, Key: "global/fixed-effect", Value: "2"}, rows[1])
	assert.Equal(t, PhysicalRow{Kind: CoordinateWeightRowKind, Key: "per-user/random-effect", Value: "0.5"}, rows[2])
}
