package overlay

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1212s/spqrel-navigation/costfield"
	"github.com/l1212s/spqrel-navigation/distancemap"
	"github.com/l1212s/spqrel-navigation/grid"
)

func emptyMap(t *testing.T, rows, cols int) *grid.OccupancyMap {
	t.Helper()
	m, err := grid.NewOccupancyMap(make([]byte, rows*cols), rows, cols, grid.Params{
		Resolution: 1, Origin: grid.NewPose2D(0, 0, 0),
		OccupiedThreshold: 0.65, FreeThreshold: 0.2,
	})
	require.NoError(t, err)
	return m
}

func TestOverlayStampsAndRestores(t *testing.T) {
	occ := emptyMap(t, 30, 30)
	p := costfield.Params{Resolution: 1, RobotRadius: 1, SafetyRegion: 3, MinCost: 0, MaxCost: 100}
	dm := distancemap.Build(occ, costfield.MaxDistanceCells(p))
	cf := costfield.Build(dm, p)

	ov := New(dm, cf, costfield.MaxDistanceCells(p), p)

	target := grid.Cell{Row: 15, Col: 15}
	before := ov.CostField().Cost(target)
	assert.Equal(t, 0.0, before)

	out := ov.Apply(occ, grid.NewPose2D(0, 0, 0), []Point2{{X: 15, Y: 15}})
	assert.True(t, math.IsInf(out.Cost(target), 1))

	// static layer itself must be untouched
	assert.Equal(t, 0.0, cf.Cost(target))

	// next tick with no laser points restores the stamped cell
	out2 := ov.Apply(occ, grid.NewPose2D(0, 0, 0), nil)
	assert.Equal(t, 0.0, out2.Cost(target))
}

func TestOverlayDropsOutOfBoundsPoints(t *testing.T) {
	occ := emptyMap(t, 10, 10)
	p := costfield.Params{Resolution: 1, RobotRadius: 1, SafetyRegion: 1, MinCost: 0, MaxCost: 50}
	dm := distancemap.Build(occ, costfield.MaxDistanceCells(p))
	cf := costfield.Build(dm, p)
	ov := New(dm, cf, costfield.MaxDistanceCells(p), p)

	out := ov.Apply(occ, grid.NewPose2D(0, 0, 0), []Point2{{X: 1000, Y: 1000}})
	assert.Equal(t, cf, out) // unchanged, no valid seeds
}
