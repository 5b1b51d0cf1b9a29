package nav

import (
	"container/heap"
	"math"

	"github.com/pthm-cable/hordenav/geom"
)

// PathGraph is the full-fidelity waypoint layer: an A* search over
// marker nodes linked by line-of-sight edges. It is independent of the
// flow field; the CPU motion controller follows its waypoints while
// the batched kernel follows the field.
type PathGraph struct {
	grid  *Grid
	nodes []geom.Vec3
	links [][]int32 // adjacency, symmetric

	// Reusable search state, cleared between searches.
	openHeap  *pathHeap
	cameFrom  map[int32]int32
	gScore    map[int32]float32
	maxLinkSq float32
}

type pathNode struct {
	id    int32
	f     float32
	index int
}

type pathHeap []*pathNode

func (h pathHeap) Len() int           { return len(h) }
func (h pathHeap) Less(i, j int) bool { return h[i].f < h[j].f }
func (h pathHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *pathHeap) Push(x any) {
	n := x.(*pathNode)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *pathHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*h = old[0 : n-1]
	return node
}

// NewPathGraph links the given waypoint positions over the walkable
// grid. Two waypoints are linked when they are within maxLink of each
// other and have grid line-of-sight.
func NewPathGraph(grid *Grid, waypoints []geom.Vec3, maxLink float32) *PathGraph {
	pg := &PathGraph{
		grid:      grid,
		nodes:     append([]geom.Vec3(nil), waypoints...),
		links:     make([][]int32, len(waypoints)),
		openHeap:  &pathHeap{},
		cameFrom:  make(map[int32]int32, 64),
		gScore:    make(map[int32]float32, 64),
		maxLinkSq: maxLink * maxLink,
	}

	for i := range pg.nodes {
		for j := i + 1; j < len(pg.nodes); j++ {
			if geom.GroundDistSq(pg.nodes[i], pg.nodes[j]) > pg.maxLinkSq {
				continue
			}
			if !pg.HasLineOfSight(pg.nodes[i], pg.nodes[j]) {
				continue
			}
			pg.links[i] = append(pg.links[i], int32(j))
			pg.links[j] = append(pg.links[j], int32(i))
		}
	}
	return pg
}

// NodeCount returns the number of waypoint nodes.
func (pg *PathGraph) NodeCount() int { return len(pg.nodes) }

// FindPath returns an ordered sequence of intermediate points from
// start to goal, or nil when no route exists. Directly visible goals
// short-circuit to a single-hop path.
func (pg *PathGraph) FindPath(start, goal geom.Vec3) []geom.Vec3 {
	if pg.HasLineOfSight(start, goal) {
		return []geom.Vec3{goal}
	}
	if len(pg.nodes) == 0 {
		return nil
	}

	startID := pg.nearestVisible(start)
	goalID := pg.nearestVisible(goal)
	if startID < 0 || goalID < 0 {
		return nil
	}

	ids := pg.search(startID, goalID)
	if ids == nil {
		return nil
	}

	path := make([]geom.Vec3, 0, len(ids)+1)
	for _, id := range ids {
		path = append(path, pg.nodes[id])
	}
	path = append(path, goal)
	return pg.simplify(start, path)
}

// search runs A* over the node graph and returns node ids start..goal.
func (pg *PathGraph) search(startID, goalID int32) []int32 {
	*pg.openHeap = (*pg.openHeap)[:0]
	for k := range pg.cameFrom {
		delete(pg.cameFrom, k)
	}
	for k := range pg.gScore {
		delete(pg.gScore, k)
	}

	pg.gScore[startID] = 0
	heap.Push(pg.openHeap, &pathNode{id: startID, f: pg.heuristic(startID, goalID)})

	maxIterations := len(pg.nodes) * 4
	for pg.openHeap.Len() > 0 && maxIterations > 0 {
		maxIterations--
		current := heap.Pop(pg.openHeap).(*pathNode)
		if current.id == goalID {
			return pg.reconstruct(startID, goalID)
		}

		for _, nb := range pg.links[current.id] {
			tentative := pg.gScore[current.id] + pg.heuristic(current.id, nb)
			existing, seen := pg.gScore[nb]
			if seen && tentative >= existing {
				continue
			}
			pg.cameFrom[nb] = current.id
			pg.gScore[nb] = tentative
			heap.Push(pg.openHeap, &pathNode{id: nb, f: tentative + pg.heuristic(nb, goalID)})
		}
	}
	return nil
}

func (pg *PathGraph) reconstruct(startID, goalID int32) []int32 {
	var rev []int32
	cur := goalID
	for cur != startID {
		rev = append(rev, cur)
		next, ok := pg.cameFrom[cur]
		if !ok {
			break
		}
		cur = next
	}
	rev = append(rev, startID)

	ids := make([]int32, len(rev))
	for i := range rev {
		ids[i] = rev[len(rev)-1-i]
	}
	return ids
}

func (pg *PathGraph) heuristic(a, b int32) float32 {
	return float32(math.Sqrt(float64(geom.GroundDistSq(pg.nodes[a], pg.nodes[b]))))
}

// nearestVisible finds the closest node with line-of-sight to pos.
func (pg *PathGraph) nearestVisible(pos geom.Vec3) int32 {
	best := int32(-1)
	bestSq := float32(math.MaxFloat32)
	for i := range pg.nodes {
		d := geom.GroundDistSq(pos, pg.nodes[i])
		if d >= bestSq {
			continue
		}
		if !pg.HasLineOfSight(pos, pg.nodes[i]) {
			continue
		}
		best = int32(i)
		bestSq = d
	}
	return best
}

// simplify removes waypoints that the follower can skip with a direct
// line, keeping turns only where geometry forces them.
func (pg *PathGraph) simplify(start geom.Vec3, path []geom.Vec3) []geom.Vec3 {
	if len(path) <= 1 {
		return path
	}
	out := make([]geom.Vec3, 0, len(path))
	anchor := start
	for i := 0; i < len(path)-1; i++ {
		if pg.HasLineOfSight(anchor, path[i+1]) {
			continue // skip path[i]
		}
		out = append(out, path[i])
		anchor = path[i]
	}
	out = append(out, path[len(path)-1])
	return out
}

// HasLineOfSight steps along the segment at half-cell resolution and
// fails on the first blocked cell.
func (pg *PathGraph) HasLineOfSight(a, b geom.Vec3) bool {
	dx := b.X - a.X
	dz := b.Z - a.Z
	dist := float32(math.Sqrt(float64(dx*dx + dz*dz)))
	if dist < 0.01 {
		return true
	}

	stepSize := pg.grid.cellSize * 0.5
	steps := int(dist/stepSize) + 1
	dx /= dist
	dz /= dist

	for i := 0; i <= steps; i++ {
		d := float32(i) * stepSize
		if d > dist {
			d = dist
		}
		p := geom.Vec3{X: a.X + dx*d, Z: a.Z + dz*d}
		if !pg.grid.WalkableAt(p) {
			return false
		}
	}
	return true
}
