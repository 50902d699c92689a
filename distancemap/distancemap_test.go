package distancemap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l1212s/spqrel-navigation/grid"
)

func buildMap(t *testing.T, rows, cols int, occupied []grid.Cell) *grid.OccupancyMap {
	t.Helper()
	pixel := make([]byte, rows*cols)
	for _, c := range occupied {
		pixel[c.Row*cols+c.Col] = 255
	}
	m, err := grid.NewOccupancyMap(pixel, rows, cols, grid.Params{
		Resolution: 1, Origin: grid.NewPose2D(0, 0, 0),
		OccupiedThreshold: 0.65, FreeThreshold: 0.2,
	})
	require.NoError(t, err)
	return m
}

func TestDistanceMapCorrectness(t *testing.T) {
	occ := []grid.Cell{{Row: 5, Col: 5}}
	m := buildMap(t, 20, 20, occ)
	dm := Build(m, 50)

	for row := 0; row < 20; row++ {
		for col := 0; col < 20; col++ {
			c := grid.Cell{Row: row, Col: col}
			want := grid.EuclideanCells(c, occ[0])
			got := dm.Distance(c)
			assert.InDelta(t, want, got, 1e-9, "cell %v", c)
		}
	}
}

func TestDistanceMapMultiSourceTakesNearest(t *testing.T) {
	occ := []grid.Cell{{Row: 0, Col: 0}, {Row: 9, Col: 9}}
	m := buildMap(t, 10, 10, occ)
	dm := Build(m, 50)

	c := grid.Cell{Row: 1, Col: 1}
	got := dm.Distance(c)
	assert.InDelta(t, math.Sqrt(2), got, 1e-9)

	c2 := grid.Cell{Row: 8, Col: 8}
	assert.InDelta(t, math.Sqrt(2), dm.Distance(c2), 1e-9)
}

func TestDistanceMapTruncation(t *testing.T) {
	occ := []grid.Cell{{Row: 0, Col: 0}}
	m := buildMap(t, 30, 30, occ)
	dm := Build(m, 5)

	far := grid.Cell{Row: 20, Col: 20}
	_, ok := dm.Parent(far)
	assert.False(t, ok)
	assert.True(t, math.IsInf(dm.Distance(far), 1))

	near := grid.Cell{Row: 3, Col: 0}
	_, ok = dm.Parent(near)
	assert.True(t, ok)
}

func TestDistanceMapEmptyOccupancySet(t *testing.T) {
	m := buildMap(t, 5, 5, nil)
	dm := Build(m, 10)
	for row := 0; row < 5; row++ {
		for col := 0; col < 5; col++ {
			assert.True(t, math.IsInf(dm.Distance(grid.Cell{Row: row, Col: col}), 1))
		}
	}
}

func TestPropagateOnCloneLeavesStaticMapUntouched(t *testing.T) {
	occ := []grid.Cell{{Row: 0, Col: 0}}
	m := buildMap(t, 10, 10, occ)
	static := Build(m, 50)

	dynamic := static.Clone()
	Propagate(dynamic, []grid.Cell{{Row: 9, Col: 9}}, 3)

	// the static map is unaffected by mutating the clone
	assert.InDelta(t, grid.EuclideanCells(grid.Cell{Row: 9, Col: 9}, grid.Cell{Row: 0, Col: 0}), static.Distance(grid.Cell{Row: 9, Col: 9}), 1e-9)
	// the dynamic clone now sees the new seed as closer
	assert.InDelta(t, 0, dynamic.Distance(grid.Cell{Row: 9, Col: 9}), 1e-9)
}
