package grid

import "math"

// CellState is the tri-state classification of a cell's occupancy.
type CellState int

const (
	// Free cells are known to be clear of obstacles.
	Free CellState = iota
	// Occupied cells carry an obstacle. Unknown cells are treated like
	// them for safety (see OccupancyMap.OccupiedOrUnknown).
	Occupied
	// Unknown cells have never been observed.
	Unknown
)

// OccupancyMap is a rectangular raster of occupancy probabilities plus
// the metadata needed to convert between world metres and grid cells.
// It is immutable once built: reloading a map builds a fresh value
// rather than mutating this one, so callers may safely retain pointers
// to earlier maps.
type OccupancyMap struct {
	rows, cols int
	resolution float64
	invRes     float64
	origin     Pose2D
	originT    Transform
	originTInv Transform

	// pixel holds raw intensities in [0,255], row-major with row 0 at
	// the bottom of the map, matching the map-origin convention: the
	// origin pose names the world pose of the bottom-left cell.
	pixel []byte

	occThreshold, freeThreshold byte
}

// Params bundles the metadata that, together with the raster, the
// static cost layer is a pure function of (see CostField invariants).
type Params struct {
	Resolution                  float64
	Origin                      Pose2D
	OccupiedThreshold, FreeThreshold float64 // in [0,1]
}

// NewOccupancyMap builds an OccupancyMap from a row-major byte raster
// already oriented with row 0 at the bottom (the map-origin
// convention). Image loaders that read top-down rasters must flip rows
// before calling this constructor; see mapconfig.Load.
func NewOccupancyMap(pixel []byte, rows, cols int, p Params) (*OccupancyMap, error) {
	if rows <= 0 || cols <= 0 || len(pixel) != rows*cols {
		return nil, errMalformed("empty or inconsistent raster")
	}
	if p.Resolution <= 0 {
		return nil, errMalformed("resolution must be positive")
	}
	if p.OccupiedThreshold < 0 || p.OccupiedThreshold > 1 || p.FreeThreshold < 0 || p.FreeThreshold > 1 {
		return nil, errMalformed("thresholds must lie in [0,1]")
	}
	if p.OccupiedThreshold < p.FreeThreshold {
		return nil, errMalformed("occupied threshold must not be below free threshold")
	}
	originT := NewTransform(p.Origin)
	return &OccupancyMap{
		rows: rows, cols: cols,
		resolution: p.Resolution, invRes: 1 / p.Resolution,
		origin: p.Origin, originT: originT, originTInv: originT.Inverse(),
		pixel:          pixel,
		occThreshold:   scale255(p.OccupiedThreshold),
		freeThreshold:  scale255(p.FreeThreshold),
	}, nil
}

func scale255(v float64) byte {
	return byte(math.Round(v * 255))
}

// errMalformed is a small indirection so this package does not import
// the planner package (which would create an import cycle); the
// planner wraps these as MalformedMap errors at the load boundary.
type MalformedMapError struct{ Reason string }

func (e *MalformedMapError) Error() string { return "malformed map: " + e.Reason }

func errMalformed(reason string) error { return &MalformedMapError{Reason: reason} }

// Rows and Cols report the raster dimensions.
func (m *OccupancyMap) Rows() int { return m.rows }
func (m *OccupancyMap) Cols() int { return m.cols }

// Resolution returns the metres-per-cell scale.
func (m *OccupancyMap) Resolution() float64 { return m.resolution }

// Origin returns the world pose of the bottom-left cell.
func (m *OccupancyMap) Origin() Pose2D { return m.origin }

// InBounds reports whether a cell lies within the raster.
func (m *OccupancyMap) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < m.rows && c.Col >= 0 && c.Col < m.cols
}

func (m *OccupancyMap) index(c Cell) int { return c.Row*m.cols + c.Col }

// Intensity returns the raw [0,255] occupancy byte at c. Panics if c is
// out of bounds; callers must check InBounds first.
func (m *OccupancyMap) Intensity(c Cell) byte { return m.pixel[m.index(c)] }

// State classifies a cell as Free, Occupied, or Unknown using the
// configured thresholds. Unknown is folded into Occupied by callers
// that need a binary seed set for the distance transform (see
// Occupied-or-unknown below); State itself still reports the
// three-way classification for diagnostics.
func (m *OccupancyMap) State(c Cell) CellState {
	v := m.Intensity(c)
	switch {
	case v >= m.occThreshold:
		return Occupied
	case v <= m.freeThreshold:
		return Free
	default:
		return Unknown
	}
}

// OccupiedOrUnknown reports whether a cell should seed the distance
// transform: true occupancy or missing information, both treated as
// obstacles per the conservative interpretation of §3/§9.
func (m *OccupancyMap) OccupiedOrUnknown(c Cell) bool {
	return m.State(c) != Free
}

// World2Grid converts a world-frame point to its containing cell,
// using the map-origin transform (bottom-left convention).
func (m *OccupancyMap) World2Grid(x, y float64) Cell {
	lx, ly := m.originTInv.Apply(x, y)
	return Cell{
		Row: int(math.Round(ly * m.invRes)),
		Col: int(math.Round(lx * m.invRes)),
	}
}

// Grid2World converts a cell to the world-frame coordinate of its
// center.
func (m *OccupancyMap) Grid2World(c Cell) (float64, float64) {
	lx := float64(c.Col) * m.resolution
	ly := float64(c.Row) * m.resolution
	return m.originT.Apply(lx, ly)
}

// Neighbors8 returns all 8 8-connected neighbors of c along with the
// Euclidean step length in cell units (1 or √2). Neighbors are not
// bounds-checked; callers filter cells outside their raster.
func Neighbors8(c Cell) []struct {
	Cell Cell
	Step float64
} {
	const sqrt2 = math.Sqrt2
	deltas := [8]struct {
		dr, dc int
		step   float64
	}{
		{-1, 0, 1}, {1, 0, 1}, {0, -1, 1}, {0, 1, 1},
		{-1, -1, sqrt2}, {-1, 1, sqrt2}, {1, -1, sqrt2}, {1, 1, sqrt2},
	}
	out := make([]struct {
		Cell Cell
		Step float64
	}, 0, 8)
	for _, d := range deltas {
		out = append(out, struct {
			Cell Cell
			Step float64
		}{Cell{c.Row + d.dr, c.Col + d.dc}, d.step})
	}
	return out
}

// EuclideanCells returns the Euclidean distance between two cells, in
// cell units.
func EuclideanCells(a, b Cell) float64 {
	dr := float64(a.Row - b.Row)
	dc := float64(a.Col - b.Col)
	return math.Hypot(dr, dc)
}
