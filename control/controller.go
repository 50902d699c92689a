// Package control implements the reactive waypoint-following motion
// controller: given the current pose, a path in grid cells, and
// kinematic limits, it produces a bounded linear/angular velocity
// command toward the next clear waypoint, detects goal arrival, and
// enforces per-tick acceleration clamps. The shape of Controller
// mirrors the rest of this codebase's control blocks — configuration
// struct in, mutex-guarded state, a single Next step per tick — scaled
// down from a full block-diagram pipeline to the one loop this core
// needs.
package control

import (
	"math"
	"sync"
	"time"

	"github.com/l1212s/spqrel-navigation/costfield"
	"github.com/l1212s/spqrel-navigation/grid"
)

// Limits bounds the commands the controller may produce.
type Limits struct {
	MaxLinearVel, MaxAngularVel float64
	MaxLinearAcc, MaxAngularAcc float64
}

// Tolerances controls when a goal counts as reached.
type Tolerances struct {
	GoalTranslation float64
	GoalRotation    float64
}

// Gains tunes the reactive velocity law.
type Gains struct {
	Kv, Kw        float64
	TurnThreshold float64 // |Δθ| beyond which the controller rotates in place
}

// Params bundles everything Next needs beyond the live pose/path.
type Params struct {
	Limits
	Tolerances
	Gains
	LookAhead  float64 // metres; §9 default is max(2r, 0.2m), computed by the caller
	Resolution float64 // metres/cell, needed to convert LookAhead to cells
}

// Status classifies the outcome of a Next call.
type Status int

const (
	// StatusTracking means a normal waypoint-following command was produced.
	StatusTracking Status = iota
	// StatusGoalReached means the robot is within tolerance of the goal.
	StatusGoalReached
	// StatusStalled means no safe command could be produced.
	StatusStalled
)

// Controller is the stateful waypoint-following motion generator. Its
// only persistent state across ticks is the previously commanded
// velocity, needed to enforce acceleration limits.
type Controller struct {
	mu     sync.Mutex
	params Params
	prevV, prevOmega float64
}

// New constructs a Controller from static parameters.
func New(params Params) *Controller {
	return &Controller{params: params}
}

// SetParams replaces the controller's tuning parameters, e.g. when the
// map resolution changes on a reload.
func (c *Controller) SetParams(params Params) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = params
}

// Reset zeroes the controller's acceleration-limiting memory. Callers
// invoke this on cancelGoal/reset and whenever a new goal is accepted,
// so the first command toward a new goal is not artificially limited
// by the velocity commanded toward the previous one.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prevV, c.prevOmega = 0, 0
}

// Command is the bounded linear/angular velocity produced by Next.
type Command struct {
	V, Omega float64
}

// Next computes one control step. path must be ordered from the robot
// cell to the goal cell (as returned by pathsearch.ExtractPath). goal
// is the final target pose; hasGoalHeading indicates whether angular
// alignment should gate goal-reached detection.
func (c *Controller) Next(
	cf *costfield.CostField,
	occ *grid.OccupancyMap,
	robotPose grid.Pose2D,
	path []grid.Cell,
	goalPose grid.Pose2D,
	hasGoalHeading bool,
	dt time.Duration,
) (Command, Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if reached := c.goalReached(robotPose, goalPose, hasGoalHeading); reached {
		c.prevV, c.prevOmega = 0, 0
		return Command{}, StatusGoalReached
	}

	if len(path) == 0 {
		return Command{}, StatusStalled
	}

	wx, wy, ok := c.selectWaypoint(occ, cf, robotPose, path)
	if !ok {
		return Command{}, StatusStalled
	}

	dx, dy := wx-robotPose.X, wy-robotPose.Y
	deltaS := math.Hypot(dx, dy)
	deltaTheta := grid.NormalizeAngle(math.Atan2(dy, dx) - robotPose.Theta)

	var v, omega float64
	if math.Abs(deltaTheta) > c.params.TurnThreshold {
		omega = sign(deltaTheta) * math.Min(c.params.MaxAngularVel, c.params.Kw*math.Abs(deltaTheta))
	} else {
		v = math.Min(c.params.MaxLinearVel, c.params.Kv*deltaS) * math.Cos(deltaTheta)
		omega = c.params.Kw * deltaTheta
	}

	v = clampAccel(v, c.prevV, c.params.MaxLinearAcc, dt)
	omega = clampAccel(omega, c.prevOmega, c.params.MaxAngularAcc, dt)
	v = clampAbs(v, c.params.MaxLinearVel)
	omega = clampAbs(omega, c.params.MaxAngularVel)

	c.prevV, c.prevOmega = v, omega
	return Command{V: v, Omega: omega}, StatusTracking
}

func (c *Controller) goalReached(robotPose, goalPose grid.Pose2D, hasGoalHeading bool) bool {
	if !grid.PoseAlmostEqual(robotPose, goalPose, c.params.GoalTranslation, math.Pi) {
		return false
	}
	if !hasGoalHeading {
		return true
	}
	return math.Abs(grid.NormalizeAngle(goalPose.Theta-robotPose.Theta)) <= c.params.GoalRotation
}

// selectWaypoint picks the furthest path cell within LookAhead whose
// straight-line segment from the robot is clear in the cost field,
// falling back to the nearest path cell ahead of the robot when no
// such cell exists.
func (c *Controller) selectWaypoint(occ *grid.OccupancyMap, cf *costfield.CostField, robotPose grid.Pose2D, path []grid.Cell) (float64, float64, bool) {
	robotCell := occ.World2Grid(robotPose.X, robotPose.Y)
	lookAheadCells := c.params.LookAhead / c.params.Resolution

	bestIdx := -1
	for i, cell := range path {
		if grid.EuclideanCells(robotCell, cell) > lookAheadCells {
			break
		}
		if segmentClear(cf, robotCell, cell) {
			bestIdx = i
		}
	}
	if bestIdx == -1 {
		// fall back to the nearest path cell strictly ahead of the robot
		for i, cell := range path {
			if cell != robotCell {
				bestIdx = i
				break
			}
		}
	}
	if bestIdx == -1 {
		return 0, 0, false
	}
	x, y := occ.Grid2World(path[bestIdx])
	return x, y, true
}

// segmentClear walks the Bresenham line between a and b (lineCells)
// and reports whether every cell on it lies in the field and has
// finite cost.
func segmentClear(cf *costfield.CostField, a, b grid.Cell) bool {
	for _, c := range lineCells(a, b) {
		if c.Row < 0 || c.Row >= cf.Rows() || c.Col < 0 || c.Col >= cf.Cols() {
			return false
		}
		if math.IsInf(cf.Cost(c), 1) {
			return false
		}
	}
	return true
}

// lineCells enumerates the grid cells on a Bresenham line from a to b,
// inclusive of both endpoints.
func lineCells(a, b grid.Cell) []grid.Cell {
	x0, y0, x1, y1 := a.Col, a.Row, b.Col, b.Row
	dx := abs(x1 - x0)
	dy := abs(y1 - y0)
	sx, sy := 1, 1
	if x1 < x0 {
		sx = -1
	}
	if y1 < y0 {
		sy = -1
	}
	x, y := x0, y0
	err := dx - dy
	var out []grid.Cell
	for {
		out = append(out, grid.Cell{Row: y, Col: x})
		if x == x1 && y == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func clampAbs(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

func clampAccel(desired, prev, maxAcc float64, dt time.Duration) float64 {
	if maxAcc <= 0 {
		return desired
	}
	maxDelta := maxAcc * dt.Seconds()
	delta := desired - prev
	if delta > maxDelta {
		delta = maxDelta
	} else if delta < -maxDelta {
		delta = -maxDelta
	}
	return prev + delta
}
