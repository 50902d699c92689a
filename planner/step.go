package planner

import (
	"fmt"
	"math"
	"time"

	"github.com/l1212s/spqrel-navigation/control"
	"github.com/l1212s/spqrel-navigation/grid"
	"github.com/l1212s/spqrel-navigation/overlay"
	"github.com/l1212s/spqrel-navigation/pathsearch"
)

// tickSnapshot is the copied-in view of mutable state a tick computes
// against, taken once under lock at Step's entry so the controller
// never observes a pose/goal pair drawn from different snapshots.
type tickSnapshot struct {
	occ           *grid.OccupancyMap
	ov            *overlay.Overlay
	maxRangeCells float64
	pose          grid.Pose2D
	goal          grid.Pose2D
	goalHasHeading bool
	laser         []overlay.Point2
	generation    int
}

// Step runs one planner tick: if inputs are consistent, it rebuilds
// the dynamic cost layer from the latest scan, re-runs the shortest
// path search, extracts a path, and asks the controller for a
// velocity command. It returns MapUnavailable if no map has been
// loaded; all other transient outcomes (PathNotFound,
// ControllerStalled) are reported through State, not the return error.
func (e *Engine) Step(dt time.Duration) error {
	snap, ok, err := e.enter()
	if err != nil {
		return err
	}
	if !ok {
		return nil // consistency gate: no-op tick
	}

	newState, cmd, gridPath, pm := e.compute(snap, dt)
	e.exit(snap.generation, newState, cmd, gridPath, pm)
	e.notifySink()
	return nil
}

// enter copies in the snapshot under lock and evaluates the
// consistency gate: a tick is a no-op if the map, pose, or goal is
// absent, or if either pose or goal lies off the map.
func (e *Engine) enter() (tickSnapshot, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.occ == nil {
		return tickSnapshot{}, false, NewMapUnavailableError()
	}
	if !e.havePose || !e.haveGoal {
		return tickSnapshot{}, false, nil
	}
	if !e.occ.InBounds(e.occ.World2Grid(e.pose.X, e.pose.Y)) {
		e.logOutOfMapOnce("robot", e.pose.X, e.pose.Y)
		return tickSnapshot{}, false, nil
	}
	if !e.occ.InBounds(e.occ.World2Grid(e.goal.X, e.goal.Y)) {
		e.logOutOfMapOnce("goal", e.goal.X, e.goal.Y)
		return tickSnapshot{}, false, nil
	}

	return tickSnapshot{
		occ: e.occ, ov: e.overlay, maxRangeCells: e.maxRangeCells,
		pose: e.pose, goal: e.goal, goalHasHeading: e.goalHasHeading,
		laser: e.laser, generation: e.generation,
	}, true, nil
}

func (e *Engine) logOutOfMapOnce(what string, x, y float64) {
	key := fmt.Sprintf("%s:%.3f:%.3f", what, x, y)
	if e.outOfMapLogged[key] {
		return
	}
	e.outOfMapLogged[key] = true
	e.logger.Warnw("input lies outside the map, treating as absent", "what", what, "x", x, "y", y)
}

// compute does the heavy, unlocked work: dynamic overlay, Dijkstra
// search, path extraction, and one controller step.
func (e *Engine) compute(snap tickSnapshot, dt time.Duration) (State, control.Command, []grid.Cell, *pathsearch.PathMap) {
	cf := snap.ov.Apply(snap.occ, snap.pose, snap.laser)

	goalCell := snap.occ.World2Grid(snap.goal.X, snap.goal.Y)
	robotCell := snap.occ.World2Grid(snap.pose.X, snap.pose.Y)

	pm := pathsearch.Search(cf, goalCell)
	gridPath, err := pathsearch.ExtractPath(pm, robotCell)
	if err != nil {
		e.controller.Reset()
		return PathNotFound, control.Command{}, nil, pm
	}

	cmd, status := e.controller.Next(cf, snap.occ, snap.pose, gridPath, snap.goal, snap.goalHasHeading, dt)
	switch status {
	case control.StatusGoalReached:
		return GoalReached, cmd, gridPath, pm
	case control.StatusStalled:
		return PathNotFound, control.Command{}, gridPath, pm
	default:
		return PathFound, cmd, gridPath, pm
	}
}

// exit writes the tick's result back under lock, but only if no
// setter has advanced the generation counter since enter — otherwise
// the computation is stale (a cancelGoal/reset/new goal/new map
// happened mid-tick) and is discarded.
func (e *Engine) exit(generation int, newState State, cmd control.Command, gridPath []grid.Cell, pm *pathsearch.PathMap) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.generation != generation {
		return
	}
	e.state = newState
	e.velocities = cmd
	e.gridPath = gridPath
	e.pathMap = pm
}

func (e *Engine) notifySink() {
	e.mu.Lock()
	sink := e.sink
	status := e.executionStatusLocked()
	cmd := e.velocities
	path := e.pathLocked()
	e.mu.Unlock()

	if sink != nil {
		sink.OnUpdate(status, cmd, path)
	}
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Velocities returns the last commanded (v, ω), valid only when State
// is PathFound or GoalReached; (0,0) otherwise.
func (e *Engine) Velocities() control.Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != PathFound && e.state != GoalReached {
		return control.Command{}
	}
	return e.velocities
}

// Path returns the current path in world metres, robot cell first.
func (e *Engine) Path() []grid.Pose2D {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pathLocked()
}

func (e *Engine) pathLocked() []grid.Pose2D {
	if e.occ == nil || len(e.gridPath) == 0 {
		return nil
	}
	out := make([]grid.Pose2D, len(e.gridPath))
	for i, c := range e.gridPath {
		x, y := e.occ.Grid2World(c)
		out[i] = grid.NewPose2D(x, y, 0)
	}
	return out
}

// ExecutionStatus reports the current state plus remaining path
// length in metres.
func (e *Engine) ExecutionStatus() ExecutionStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.executionStatusLocked()
}

func (e *Engine) executionStatusLocked() ExecutionStatus {
	remaining := 0.0
	if e.occ != nil {
		resolution := e.occ.Resolution()
		for i := 0; i < len(e.gridPath)-1; i++ {
			remaining += grid.EuclideanCells(e.gridPath[i], e.gridPath[i+1]) * resolution
		}
	}
	if math.IsNaN(remaining) {
		remaining = 0
	}
	return ExecutionStatus{State: e.state, ProgressMetric: remaining}
}
