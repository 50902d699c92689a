package pathsearch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1212s/spqrel-navigation/costfield"
	"github.com/l1212s/spqrel-navigation/distancemap"
	"github.com/l1212s/spqrel-navigation/grid"
)

func openMap(t *testing.T, rows, cols int, occupiedCells []grid.Cell) *grid.OccupancyMap {
	t.Helper()
	pixel := make([]byte, rows*cols)
	for _, c := range occupiedCells {
		pixel[c.Row*cols+c.Col] = 255
	}
	m, err := grid.NewOccupancyMap(pixel, rows, cols, grid.Params{
		Resolution: 1, Origin: grid.NewPose2D(0, 0, 0),
		OccupiedThreshold: 0.65, FreeThreshold: 0.2,
	})
	require.NoError(t, err)
	return m
}

func buildCostField(t *testing.T, occ *grid.OccupancyMap) (*costfield.CostField, costfield.Params) {
	t.Helper()
	p := costfield.Params{Resolution: 1, RobotRadius: 0, SafetyRegion: 0, MinCost: 0, MaxCost: 0}
	dm := distancemap.Build(occ, costfield.MaxDistanceCells(p))
	return costfield.Build(dm, p), p
}

func TestPathValidityAndOptimality(t *testing.T) {
	occ := openMap(t, 10, 10, nil)
	cf, _ := buildCostField(t, occ)

	goal := grid.Cell{Row: 9, Col: 9}
	robot := grid.Cell{Row: 0, Col: 0}
	pm := Search(cf, goal)
	path, err := ExtractPath(pm, robot)
	require.NoError(t, err)

	assert.Equal(t, robot, path[0])
	assert.Equal(t, goal, path[len(path)-1])
	for i := 0; i < len(path)-1; i++ {
		d := grid.EuclideanCells(path[i], path[i+1])
		assert.True(t, d <= math.Sqrt2+1e-9, "cells %v and %v are not 8-neighbors", path[i], path[i+1])
		assert.False(t, math.IsInf(cf.Cost(path[i]), 1))
	}

	var sum float64
	for i := 0; i < len(path)-1; i++ {
		step := grid.EuclideanCells(path[i], path[i+1])
		sum += step * 0.5 * (cf.Cost(path[i]) + cf.Cost(path[i+1]))
	}
	assert.InDelta(t, pm.CumulativeCost(robot), sum, 1e-6)
}

func TestPathNotFoundWhenWalledOff(t *testing.T) {
	rows, cols := 10, 10
	var wall []grid.Cell
	for col := 0; col < cols; col++ {
		wall = append(wall, grid.Cell{Row: 5, Col: col})
	}
	occ := openMap(t, rows, cols, wall)
	p := costfield.Params{Resolution: 1, RobotRadius: 0.5, SafetyRegion: 0, MinCost: 0, MaxCost: 10}
	dm := distancemap.Build(occ, costfield.MaxDistanceCells(p))
	cf := costfield.Build(dm, p)

	pm := Search(cf, grid.Cell{Row: 0, Col: 0})
	_, err := ExtractPath(pm, grid.Cell{Row: 9, Col: 9})
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestPathRoutesAroundObstacle(t *testing.T) {
	rows, cols := 50, 50
	var column []grid.Cell
	for row := 0; row < 40; row++ {
		column = append(column, grid.Cell{Row: row, Col: 30})
	}
	occ := openMap(t, rows, cols, column)
	p := costfield.Params{Resolution: 1, RobotRadius: 1, SafetyRegion: 2, MinCost: 0, MaxCost: 100}
	dm := distancemap.Build(occ, costfield.MaxDistanceCells(p))
	cf := costfield.Build(dm, p)

	goal := grid.Cell{Row: 10, Col: 49}
	pm := Search(cf, goal)
	path, err := ExtractPath(pm, grid.Cell{Row: 10, Col: 0})
	require.NoError(t, err)

	for _, c := range path {
		assert.False(t, math.IsInf(cf.Cost(c), 1))
	}
}
