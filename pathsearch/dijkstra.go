// Package pathsearch runs a Dijkstra-style wavefront over a cost
// field, seeded at the goal, and extracts a waypoint path back to the
// robot cell. The priority queue is a standard container/heap with a
// monotonically increasing insertion sequence as a secondary key, so
// that equal-cost ties resolve to the earlier-inserted neighbor and
// searches are reproducible.
package pathsearch

import (
	"container/heap"
	"errors"
	"math"

	"github.com/l1212s/spqrel-navigation/costfield"
	"github.com/l1212s/spqrel-navigation/grid"
)

// ErrUnreachable is returned by ExtractPath when the robot cell has no
// finite cumulative cost in the PathMap.
var ErrUnreachable = errors.New("pathsearch: robot cell is unreachable from goal")

// PathMap is the Dijkstra result: per-cell parent pointer and
// cumulative cost to the seeded goal cell.
type PathMap struct {
	rows, cols int
	cumCost    []float64
	parent     []int
	goal       grid.Cell
}

const noParent = -1

func (pm *PathMap) index(c grid.Cell) int { return c.Row*pm.cols + c.Col }

// CumulativeCost returns the accumulated edge cost from c to the goal,
// or +Inf if c is unreachable.
func (pm *PathMap) CumulativeCost(c grid.Cell) float64 { return pm.cumCost[pm.index(c)] }

// Parent returns the next cell on the shortest path from c toward the
// goal, and whether c is reachable at all.
func (pm *PathMap) Parent(c grid.Cell) (grid.Cell, bool) {
	p := pm.parent[pm.index(c)]
	if p == noParent {
		return grid.Cell{}, false
	}
	return grid.Cell{Row: p / pm.cols, Col: p % pm.cols}, true
}

// Goal returns the cell the search was seeded from.
func (pm *PathMap) Goal() grid.Cell { return pm.goal }

type pqEntry struct {
	idx  int
	cost float64
	seq  int
}

type priorityQueue []pqEntry

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].cost != pq[j].cost {
		return pq[i].cost < pq[j].cost
	}
	return pq[i].seq < pq[j].seq
}
func (pq priorityQueue) Swap(i, j int)      { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(pqEntry)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// Search runs Dijkstra over cf seeded at goal and returns the full
// PathMap of cumulative costs and parent pointers.
func Search(cf *costfield.CostField, goal grid.Cell) *PathMap {
	rows, cols := cf.Rows(), cf.Cols()
	pm := &PathMap{
		rows: rows, cols: cols, goal: goal,
		cumCost: make([]float64, rows*cols),
		parent:  make([]int, rows*cols),
	}
	for i := range pm.cumCost {
		pm.cumCost[i] = math.Inf(1)
		pm.parent[i] = noParent
	}

	goalIdx := pm.index(goal)
	pm.cumCost[goalIdx] = 0
	pm.parent[goalIdx] = goalIdx

	visited := make([]bool, rows*cols)
	pq := &priorityQueue{{idx: goalIdx, cost: 0, seq: 0}}
	heap.Init(pq)
	seq := 1

	for pq.Len() > 0 {
		top := heap.Pop(pq).(pqEntry)
		if visited[top.idx] {
			continue
		}
		if top.cost > pm.cumCost[top.idx] {
			continue // stale entry superseded by a cheaper relax
		}
		visited[top.idx] = true

		row, col := top.idx/cols, top.idx%cols
		cCell := grid.Cell{Row: row, Col: col}
		costC := cf.Cost(cCell)

		for _, n := range grid.Neighbors8(cCell) {
			if n.Cell.Row < 0 || n.Cell.Row >= rows || n.Cell.Col < 0 || n.Cell.Col >= cols {
				continue
			}
			nIdx := pm.index(n.Cell)
			if visited[nIdx] {
				continue
			}
			edge := n.Step * 0.5 * (costC + cf.Cost(n.Cell))
			if math.IsInf(edge, 1) {
				continue
			}
			newCost := pm.cumCost[top.idx] + edge
			if newCost < pm.cumCost[nIdx] {
				pm.cumCost[nIdx] = newCost
				pm.parent[nIdx] = top.idx
				heap.Push(pq, pqEntry{idx: nIdx, cost: newCost, seq: seq})
				seq++
			}
		}
	}
	return pm
}

// ExtractPath walks parent pointers from robot to the goal; since each
// parent is the next cell toward the goal, the cells come out already
// in robot-to-goal order. Returns
// ErrUnreachable if robot has no finite cumulative cost.
func ExtractPath(pm *PathMap, robot grid.Cell) ([]grid.Cell, error) {
	if math.IsInf(pm.CumulativeCost(robot), 1) {
		return nil, ErrUnreachable
	}
	path := []grid.Cell{robot}
	cur := robot
	for cur != pm.goal {
		next, ok := pm.Parent(cur)
		if !ok {
			return nil, ErrUnreachable
		}
		path = append(path, next)
		cur = next
	}
	return path, nil
}
