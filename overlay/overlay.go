// Package overlay implements the dynamic obstacle overlay: a per-tick
// scratch cost layer that stamps live laser points as transient
// obstacles on top of the cached static layer, re-inflating only the
// neighborhood that changed. It never mutates the static layer it was
// built from.
package overlay

import (
	"github.com/l1212s/spqrel-navigation/costfield"
	"github.com/l1212s/spqrel-navigation/distancemap"
	"github.com/l1212s/spqrel-navigation/grid"
)

// Point2 is a 2D point in the robot's sensor frame (metres).
type Point2 struct{ X, Y float64 }

// Overlay owns a scratch distance map and cost field seeded from the
// static layers, plus the bookkeeping needed to cheaply undo last
// tick's stamped obstacles before applying this tick's.
type Overlay struct {
	staticDist *distancemap.DistanceMap
	staticCost *costfield.CostField

	dynamicDist *distancemap.DistanceMap
	dynamicCost *costfield.CostField

	touched      []grid.Cell
	maxRangeCells float64

	costParams costfield.Params
}

// New builds an Overlay bound to the given static layers. maxRangeCells
// is the safety-region radius in cells: laser stamps are re-inflated
// only within that radius, matching the bound the static layer was
// itself built with.
func New(staticDist *distancemap.DistanceMap, staticCost *costfield.CostField, maxRangeCells float64, costParams costfield.Params) *Overlay {
	return &Overlay{
		staticDist:    staticDist,
		staticCost:    staticCost,
		dynamicDist:   staticDist.Clone(),
		dynamicCost:   staticCost.Clone(),
		maxRangeCells: maxRangeCells,
		costParams:    costParams,
	}
}

// Rebase replaces the static layers backing the overlay (called when
// the engine loads a new map) and resets the dynamic scratch layers to
// match, discarding any previously stamped obstacles.
func (o *Overlay) Rebase(staticDist *distancemap.DistanceMap, staticCost *costfield.CostField, maxRangeCells float64, costParams costfield.Params) {
	o.staticDist = staticDist
	o.staticCost = staticCost
	o.dynamicDist.CopyFrom(staticDist)
	o.dynamicCost.CopyFrom(staticCost)
	o.maxRangeCells = maxRangeCells
	o.costParams = costParams
	o.touched = o.touched[:0]
}

func (o *Overlay) restorePreviousTouched() {
	for _, c := range o.touched {
		o.dynamicDist.RestoreCell(c, o.staticDist)
		o.dynamicCost.RestoreCell(c, o.staticCost)
	}
	o.touched = o.touched[:0]
}

// Apply restores the previous tick's stamped cells, projects laser
// points (in the sensor frame, assumed coincident with the robot
// frame) into grid space using robotPose, drops points that fall
// outside the map or on unknown cells, and stamps the rest as new
// obstacles before re-inflating locally. It returns the resulting
// cost field, valid until the next call to Apply or Rebase.
func (o *Overlay) Apply(occ *grid.OccupancyMap, robotPose grid.Pose2D, laserPoints []Point2) *costfield.CostField {
	o.restorePreviousTouched()

	robotT := grid.NewTransform(robotPose)
	seeds := make([]grid.Cell, 0, len(laserPoints))
	for _, pt := range laserPoints {
		wx, wy := robotT.Apply(pt.X, pt.Y)
		c := occ.World2Grid(wx, wy)
		if !occ.InBounds(c) {
			continue
		}
		if occ.State(c) == grid.Unknown {
			continue
		}
		seeds = append(seeds, c)
	}
	if len(seeds) == 0 {
		return o.dynamicCost
	}

	touched := distancemap.PropagateTracked(o.dynamicDist, seeds, o.maxRangeCells)
	costfield.RefreshCells(o.dynamicCost, o.dynamicDist, touched, o.costParams)
	o.touched = touched
	return o.dynamicCost
}

// CostField returns the current scratch cost field without applying
// new laser points; used by callers that need to read the overlay's
// output without a fresh tick.
func (o *Overlay) CostField() *costfield.CostField { return o.dynamicCost }
