package control

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1212s/spqrel-navigation/costfield"
	"github.com/l1212s/spqrel-navigation/distancemap"
	"github.com/l1212s/spqrel-navigation/grid"
)

func straightCorridor(t *testing.T, rows, cols int) (*grid.OccupancyMap, *costfield.CostField) {
	t.Helper()
	m, err := grid.NewOccupancyMap(make([]byte, rows*cols), rows, cols, grid.Params{
		Resolution: 0.05, Origin: grid.NewPose2D(0, 0, 0),
		OccupiedThreshold: 0.65, FreeThreshold: 0.2,
	})
	require.NoError(t, err)
	p := costfield.Params{Resolution: 0.05, RobotRadius: 0.1, SafetyRegion: 0.1, MinCost: 0, MaxCost: 10}
	dm := distancemap.Build(m, costfield.MaxDistanceCells(p))
	return m, costfield.Build(dm, p)
}

func defaultParams() Params {
	return Params{
		Limits:     Limits{MaxLinearVel: 0.5, MaxAngularVel: 1.0, MaxLinearAcc: 10, MaxAngularAcc: 10},
		Tolerances: Tolerances{GoalTranslation: 0.05, GoalRotation: 0.1},
		Gains:      Gains{Kv: 1, Kw: 1, TurnThreshold: 0.5},
		LookAhead:  0.2,
		Resolution: 0.05,
	}
}

func straightPath(occ *grid.OccupancyMap, fromCol, toCol, row int) []grid.Cell {
	var path []grid.Cell
	if fromCol <= toCol {
		for c := fromCol; c <= toCol; c++ {
			path = append(path, grid.Cell{Row: row, Col: c})
		}
	} else {
		for c := fromCol; c >= toCol; c-- {
			path = append(path, grid.Cell{Row: row, Col: c})
		}
	}
	return path
}

func TestVelocityBoundsRespected(t *testing.T) {
	occ, cf := straightCorridor(t, 10, 200)
	ctl := New(defaultParams())
	robotPose := grid.NewPose2D(0.05, 0.25, 0)
	path := straightPath(occ, 1, 150, 5)
	goal := grid.NewPose2D(7.5, 0.25, 0)

	for i := 0; i < 20; i++ {
		cmd, status := ctl.Next(cf, occ, robotPose, path, goal, false, 100*time.Millisecond)
		require.Equal(t, StatusTracking, status)
		assert.LessOrEqual(t, math.Abs(cmd.V), defaultParams().MaxLinearVel+1e-9)
		assert.LessOrEqual(t, math.Abs(cmd.Omega), defaultParams().MaxAngularVel+1e-9)
		robotPose.X += cmd.V * 0.1
		robotPose.Theta += cmd.Omega * 0.1
	}
}

func TestGoalReachedWithHeading(t *testing.T) {
	occ, cf := straightCorridor(t, 10, 200)
	ctl := New(defaultParams())
	goal := grid.NewPose2D(1.0, 0.25, math.Pi/2)

	robotPose := grid.NewPose2D(1.0, 0.25, math.Pi/2)
	cmd, status := ctl.Next(cf, occ, robotPose, straightPath(occ, 20, 20, 5), goal, true, 100*time.Millisecond)
	assert.Equal(t, StatusGoalReached, status)
	assert.Equal(t, Command{}, cmd)
}

func TestGoalNotReachedWithoutHeadingAlignment(t *testing.T) {
	occ, cf := straightCorridor(t, 10, 200)
	ctl := New(defaultParams())
	goal := grid.NewPose2D(1.0, 0.25, math.Pi/2)

	robotPose := grid.NewPose2D(1.0, 0.25, 0) // right position, wrong heading
	_, status := ctl.Next(cf, occ, robotPose, straightPath(occ, 20, 20, 5), goal, true, 100*time.Millisecond)
	assert.NotEqual(t, StatusGoalReached, status)
}

func TestAccelerationClamp(t *testing.T) {
	occ, cf := straightCorridor(t, 10, 200)
	params := defaultParams()
	params.MaxLinearAcc = 0.5 // m/s^2, tight clamp
	ctl := New(params)
	robotPose := grid.NewPose2D(0.05, 0.25, 0)
	path := straightPath(occ, 1, 150, 5)
	goal := grid.NewPose2D(7.5, 0.25, 0)

	cmd1, _ := ctl.Next(cf, occ, robotPose, path, goal, false, 100*time.Millisecond)
	assert.LessOrEqual(t, math.Abs(cmd1.V), 0.5*0.1+1e-9)
}

func TestStalledWithEmptyPath(t *testing.T) {
	occ, cf := straightCorridor(t, 10, 200)
	ctl := New(defaultParams())
	_, status := ctl.Next(cf, occ, grid.NewPose2D(0, 0, 0), nil, grid.NewPose2D(5, 5, 0), false, 100*time.Millisecond)
	assert.Equal(t, StatusStalled, status)
}
