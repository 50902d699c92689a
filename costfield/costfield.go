// Package costfield encodes a distance field into a traversal cost
// field using the robot radius and a soft safety region, per the
// monotone decay law described by the planner design. The decay shape
// itself is pluggable (Curve) since the source this core is modeled on
// hard-codes a linear ramp with no stated justification for linearity.
package costfield

import (
	"math"

	"github.com/l1212s/spqrel-navigation/distancemap"
	"github.com/l1212s/spqrel-navigation/grid"
)

// Curve shapes the decay from MaxCost down to MinCost across the
// safety annulus. t is normalized progress from the robot-radius
// boundary (t=1) to the safety-region boundary (t=0); implementations
// must be monotone non-decreasing in t over [0,1] so cost never rises
// as the robot gets farther from an obstacle.
type Curve interface {
	Shape(t float64) float64
}

// Linear is the default decay curve: cost ramps linearly between the
// robot-radius and safety-region boundaries.
type Linear struct{}

// Shape returns t unchanged.
func (Linear) Shape(t float64) float64 { return t }

// Params bundles the geometry and cost-range policy used to encode a
// distance field into a cost field.
type Params struct {
	Resolution               float64
	RobotRadius, SafetyRegion float64
	MinCost, MaxCost         float64
	Curve                    Curve // nil defaults to Linear
}

// CostField is a per-cell traversal cost: +Inf inside the robot
// radius, decaying from MaxCost to MinCost across the safety region,
// 0 beyond it (MinCost everywhere when the map has no obstacle).
type CostField struct {
	rows, cols int
	cost       []float64
}

func (c *CostField) index(cell grid.Cell) int { return cell.Row*c.cols + cell.Col }

// Rows and Cols report the field dimensions.
func (c *CostField) Rows() int { return c.rows }
func (c *CostField) Cols() int { return c.cols }

// Cost returns the traversal cost of a cell.
func (c *CostField) Cost(cell grid.Cell) float64 { return c.cost[c.index(cell)] }

// set patches a single cell in place; Build and RefreshCells (the
// overlay's entry point) use it to avoid reallocating the whole field.
func (c *CostField) set(cell grid.Cell, v float64) { c.cost[c.index(cell)] = v }

// RestoreCell copies a single cell's cost from src into c, the
// cost-field counterpart of DistanceMap.RestoreCell.
func (c *CostField) RestoreCell(cell grid.Cell, src *CostField) {
	c.cost[c.index(cell)] = src.cost[c.index(cell)]
}

// Clone returns a deep copy, used to snapshot the static layer before
// the dynamic overlay stamps transient obstacles onto a scratch copy.
func (c *CostField) Clone() *CostField {
	return &CostField{rows: c.rows, cols: c.cols, cost: append([]float64(nil), c.cost...)}
}

// CopyFrom overwrites c's contents with src's, reusing the backing
// array when sized correctly.
func (c *CostField) CopyFrom(src *CostField) {
	c.rows, c.cols = src.rows, src.cols
	if cap(c.cost) < len(src.cost) {
		c.cost = make([]float64, len(src.cost))
	}
	c.cost = c.cost[:len(src.cost)]
	copy(c.cost, src.cost)
}

// boundaries derives the robot-radius and safety-region radii in cell
// units from the metric parameters.
func boundaries(p Params) (rRobot, rSafe float64) {
	return p.RobotRadius / p.Resolution, (p.RobotRadius + p.SafetyRegion) / p.Resolution
}

// MaxDistanceCells returns the truncation radius the distance map
// builder should use to support this cost field: nothing beyond the
// safety-region boundary affects cost, so the wavefront need not
// propagate further.
func MaxDistanceCells(p Params) float64 {
	_, rSafe := boundaries(p)
	return rSafe
}

func encode(d float64, rRobot, rSafe float64, p Params) float64 {
	switch {
	case d <= rRobot:
		return math.Inf(1)
	case d >= rSafe:
		return 0
	case rSafe <= rRobot:
		// degenerate: zero-width safety region, no ramp to evaluate.
		return 0
	default:
		curve := p.Curve
		if curve == nil {
			curve = Linear{}
		}
		t := clamp((rSafe-d)/(rSafe-rRobot), 0, 1)
		return p.MinCost + (p.MaxCost-p.MinCost)*curve.Shape(t)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Build encodes dm into a fresh cost field. This is the static layer:
// it is a pure function of (dm, p), so calling Build twice with
// equivalent inputs yields identical fields (see idempotence tests).
// A distance map with no obstacle at all (every distance infinite)
// encodes to MinCost in every cell.
func Build(dm *distancemap.DistanceMap, p Params) *CostField {
	rRobot, rSafe := boundaries(p)
	cf := &CostField{rows: dm.Rows(), cols: dm.Cols(), cost: make([]float64, dm.Rows()*dm.Cols())}
	empty := true
	for row := 0; row < dm.Rows(); row++ {
		for col := 0; col < dm.Cols(); col++ {
			c := grid.Cell{Row: row, Col: col}
			d := dm.Distance(c)
			if !math.IsInf(d, 1) {
				empty = false
			}
			cf.set(c, encode(d, rRobot, rSafe, p))
		}
	}
	if empty {
		for i := range cf.cost {
			cf.cost[i] = p.MinCost
		}
	}
	return cf
}

// RefreshCells recomputes cost only for the given cells from dm,
// patching cf in place. Used by the dynamic overlay after a bounded
// local distance re-propagation, so the whole field is not re-encoded
// every tick.
func RefreshCells(cf *CostField, dm *distancemap.DistanceMap, cells []grid.Cell, p Params) {
	rRobot, rSafe := boundaries(p)
	for _, c := range cells {
		cf.set(c, encode(dm.Distance(c), rRobot, rSafe, p))
	}
}
