// Package planner coordinates the grid, distancemap, costfield,
// overlay, pathsearch, and control packages into the planner state
// machine described by the design: a single logical engine driven by
// an external periodic tick (Step), fed by asynchronous setters and
// read by asynchronous getters, both guarded by one mutex. The engine
// itself never names a transport — ROS/NAOqi-style bridges call the
// setters and read the getters from whatever threads they run on.
package planner

import (
	"math"
	"sync"

	"github.com/l1212s/spqrel-navigation/control"
	"github.com/l1212s/spqrel-navigation/costfield"
	"github.com/l1212s/spqrel-navigation/distancemap"
	"github.com/l1212s/spqrel-navigation/grid"
	"github.com/l1212s/spqrel-navigation/logging"
	"github.com/l1212s/spqrel-navigation/overlay"
	"github.com/l1212s/spqrel-navigation/pathsearch"
)

// OccupancyImage is the map input the engine consumes: a raster
// already oriented with row 0 at the bottom (see grid.NewOccupancyMap
// and the mapconfig package, which produces this from a persisted
// image+YAML pair).
type OccupancyImage struct {
	Pixel      []byte
	Rows, Cols int
	Resolution float64
	Origin     grid.Pose2D
	OccupiedThreshold, FreeThreshold float64
}

// Sink is an optional observer notified after each tick that passes
// the consistency gate (no-op ticks do not notify), outside the
// engine's lock — e.g. an optional debug GUI reading snapshots, per
// the design's GUI-collaborator note. It is not part of the core and
// may be left nil in headless builds.
type Sink interface {
	OnUpdate(status ExecutionStatus, cmd control.Command, path []grid.Pose2D)
}

// Config bundles the static tuning parameters the engine is built
// with: cost-field geometry/policy, controller limits, gains and
// tolerances. LookAhead of 0 selects the documented default of
// max(2*resolution, 0.2m), recomputed whenever a map of a different
// resolution loads.
type Config struct {
	RobotRadius, SafetyRegion float64
	MinCost, MaxCost          float64
	Curve                     costfield.Curve

	Limits     control.Limits
	Tolerances control.Tolerances
	Gains      control.Gains
	LookAhead  float64

	Logger logging.Logger
}

// Engine is the planner core. logger, cfg and controller are fixed at
// construction; controller additionally guards its own internal state
// with its own lock. Every field from mu down is the mutable snapshot
// (map, pose, goal, laser, state, sink) guarded by mu.
type Engine struct {
	logger     logging.Logger
	cfg        Config
	controller *control.Controller

	mu   sync.Mutex
	sink Sink

	occ           *grid.OccupancyMap
	staticDist    *distancemap.DistanceMap
	staticCost    *costfield.CostField
	overlay       *overlay.Overlay
	maxRangeCells float64

	havePose bool
	pose     grid.Pose2D

	haveGoal       bool
	goal           grid.Pose2D
	goalHasHeading bool

	laser []overlay.Point2

	state      State
	velocities control.Command
	gridPath   []grid.Cell
	pathMap    *pathsearch.PathMap

	generation int

	outOfMapLogged map[string]bool
}

// New constructs an Engine in the WaitingForMap state.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewLogger("planner")
	}
	return &Engine{
		logger:         logger,
		cfg:            cfg,
		controller:     control.New(control.Params{Limits: cfg.Limits, Tolerances: cfg.Tolerances, Gains: cfg.Gains}),
		state:          WaitingForMap,
		outOfMapLogged: make(map[string]bool),
	}
}

// SetSink attaches (or clears, with nil) the optional post-tick observer.
func (e *Engine) SetSink(sink Sink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sink = sink
}

func (e *Engine) costParams(resolution float64) costfield.Params {
	return costfield.Params{
		Resolution:  resolution,
		RobotRadius: e.cfg.RobotRadius, SafetyRegion: e.cfg.SafetyRegion,
		MinCost: e.cfg.MinCost, MaxCost: e.cfg.MaxCost,
		Curve: e.cfg.Curve,
	}
}

func (e *Engine) lookAhead(resolution float64) float64 {
	if e.cfg.LookAhead > 0 {
		return e.cfg.LookAhead
	}
	return math.Max(2*resolution, 0.2)
}

// SetMap loads a new occupancy map, rebuilding the static distance map
// and cost layer. Structural failures (bad resolution, inverted
// thresholds, empty raster) leave the previously loaded map intact, as
// MalformedMap errors must fail the load operation without disturbing
// prior state.
func (e *Engine) SetMap(img OccupancyImage) error {
	occ, err := grid.NewOccupancyMap(img.Pixel, img.Rows, img.Cols, grid.Params{
		Resolution: img.Resolution, Origin: img.Origin,
		OccupiedThreshold: img.OccupiedThreshold, FreeThreshold: img.FreeThreshold,
	})
	if err != nil {
		return NewMalformedMapError(err.Error())
	}

	cp := e.costParams(img.Resolution)
	maxRangeCells := costfield.MaxDistanceCells(cp)
	staticDist := distancemap.Build(occ, maxRangeCells)
	staticCost := costfield.Build(staticDist, cp)
	ov := overlay.New(staticDist, staticCost, maxRangeCells, cp)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.occ, e.staticDist, e.staticCost, e.overlay, e.maxRangeCells = occ, staticDist, staticCost, ov, maxRangeCells
	e.controller.SetParams(control.Params{
		Limits: e.cfg.Limits, Tolerances: e.cfg.Tolerances, Gains: e.cfg.Gains,
		LookAhead: e.lookAhead(img.Resolution), Resolution: img.Resolution,
	})
	e.controller.Reset()
	e.state = WaitingForGoal
	e.haveGoal = false
	e.gridPath = nil
	e.pathMap = nil
	e.velocities = control.Command{}
	e.generation++
	e.outOfMapLogged = make(map[string]bool)
	return nil
}

// SetRobotPose records the live robot pose. Observed by the next tick
// boundary onward, per the engine's ordering guarantee.
func (e *Engine) SetRobotPose(pose grid.Pose2D) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.havePose = true
	e.pose = pose
}

// SetGoal accepts a new goal. If a map is already loaded, the engine
// transitions to GoalAccepted and clears any previous path; otherwise
// the goal is recorded but the engine remains WaitingForMap. Loading a
// map (SetMap) discards any recorded goal and moves to WaitingForGoal.
func (e *Engine) SetGoal(goal grid.Pose2D, hasHeading bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.haveGoal = true
	e.goal = goal
	e.goalHasHeading = hasHeading
	e.controller.Reset()
	e.gridPath = nil
	e.pathMap = nil
	e.generation++
	if e.state != WaitingForMap {
		e.state = GoalAccepted
	}
}

// SetLaserPoints records the latest scan, in the robot's sensor frame.
func (e *Engine) SetLaserPoints(pts []overlay.Point2) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.laser = pts
}

// CancelGoal transitions to WaitingForGoal from any state, zeroes the
// velocity command, and clears the path. Takes effect at the next
// setter-lock release, per the engine's cancellation guarantee.
func (e *Engine) CancelGoal() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.haveGoal = false
	e.gridPath = nil
	e.pathMap = nil
	e.velocities = control.Command{}
	e.state = WaitingForGoal
	e.controller.Reset()
	e.generation++
}

// Reset clears everything but the engine's static configuration and
// returns to WaitingForMap.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.occ, e.staticDist, e.staticCost, e.overlay = nil, nil, nil, nil
	e.havePose, e.haveGoal = false, false
	e.laser = nil
	e.gridPath, e.pathMap = nil, nil
	e.velocities = control.Command{}
	e.state = WaitingForMap
	e.controller.Reset()
	e.generation++
	e.outOfMapLogged = make(map[string]bool)
}
