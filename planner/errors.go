package planner

import "github.com/pkg/errors"

// Kind classifies a planner error so callers can branch on it without
// string matching.
type Kind int

const (
	// KindMapUnavailable means plannerStep ran before any map was loaded.
	KindMapUnavailable Kind = iota
	// KindInputOutOfMap means a pose or goal fell outside the grid bounds.
	KindInputOutOfMap
	// KindPathNotFound means Dijkstra left the robot cell unreachable.
	KindPathNotFound
	// KindControllerStalled means the controller could not produce a safe command.
	KindControllerStalled
	// KindMalformedMap means the map metadata or raster failed validation.
	KindMalformedMap
)

func (k Kind) String() string {
	switch k {
	case KindMapUnavailable:
		return "MapUnavailable"
	case KindInputOutOfMap:
		return "InputOutOfMap"
	case KindPathNotFound:
		return "PathNotFound"
	case KindControllerStalled:
		return "ControllerStalled"
	case KindMalformedMap:
		return "MalformedMap"
	default:
		return "Unknown"
	}
}

// Error is the structured error type surfaced by the planner core.
type Error struct {
	kind Kind
	err  error
}

func (e *Error) Error() string { return e.err.Error() }

// Kind returns the classified error kind.
func (e *Error) Kind() Kind { return e.kind }

func newErr(kind Kind, msg string) *Error {
	return &Error{kind: kind, err: errors.New(msg)}
}

func newErrf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, err: errors.Errorf(format, args...)}
}

// NewMapUnavailableError is used when a tick runs before a map is loaded.
func NewMapUnavailableError() error {
	return newErr(KindMapUnavailable, "no map has been loaded")
}

// NewInputOutOfMapError is used when a pose or goal falls outside the grid.
func NewInputOutOfMapError(what string, x, y float64) error {
	return newErrf(KindInputOutOfMap, "%s (%.3f, %.3f) lies outside the map", what, x, y)
}

// NewPathNotFoundError is used when the robot cell has no finite cumulative cost.
func NewPathNotFoundError() error {
	return newErr(KindPathNotFound, "no path exists from robot to goal in the current cost field")
}

// NewControllerStalledError is used when the controller cannot produce a safe command.
func NewControllerStalledError(reason string) error {
	return newErrf(KindControllerStalled, "controller stalled: %s", reason)
}

// NewMalformedMapError is used when map metadata or raster validation fails.
func NewMalformedMapError(reason string) error {
	return newErrf(KindMalformedMap, "malformed map: %s", reason)
}

// Is reports whether err is a planner Error of the given kind.
func Is(err error, kind Kind) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.kind == kind
	}
	return false
}
