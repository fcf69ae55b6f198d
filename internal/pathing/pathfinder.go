package pathing

import "github.com/annel0/voxel-pathing/internal/world"

// Graph описывает то, что поиску нужно от сетки
type Graph interface {
	DirectionEdgeSet(c world.MapCoordinate) uint32
	EdgeCost(c world.MapCoordinate, d world.Direction) float64
}

// DefaultInflation множитель основной эвристики. Делает поиск жадным:
// путь находится быстрее, но может быть чуть дороже оптимального.
const DefaultInflation = 1.1

// PathfinderOption настраивает Pathfinder
type PathfinderOption func(*Pathfinder)

// WithInflation задаёт множитель основной эвристики (1 означает обычный A*)
func WithInflation(k float64) PathfinderOption {
	return func(p *Pathfinder) {
		if k > 0 {
			p.inflation = k
		}
	}
}

// WithHeuristics заменяет основную и вторичную эвристики
func WithHeuristics(primary, tieBreak Heuristic) PathfinderOption {
	return func(p *Pathfinder) {
		if primary != nil {
			p.primary = primary
		}
		if tieBreak != nil {
			p.tieBreak = tieBreak
		}
	}
}

// SearchStats счётчики одного поиска
type SearchStats struct {
	Expanded   int `json:"expanded"`
	Duplicates int `json:"duplicates"`
	Generated  int `json:"generated"`
	Visited    int `json:"visited"`
}

// Pathfinder выполняет поиск пути best-first с бюджетом раскрытий.
// Экземпляр не потокобезопасен: один поиск на горутину.
type Pathfinder struct {
	graph     Graph
	primary   Heuristic
	tieBreak  Heuristic
	inflation float64

	pool    *NodePool
	fringe  fringe
	visited map[world.MapCoordinate]struct{}

	start   world.MapCoordinate
	goal    world.MapCoordinate
	current NodeRef // цель либо последний раскрытый узел

	ready     bool
	found     bool
	exhausted bool
	final     *searchResult
	stats     SearchStats
}

type searchResult struct {
	coords     []world.MapCoordinate
	directions []world.Direction
	cost       float64
	complete   bool
}

// NewPathfinder создаёт поиск по графу. Перед Advance нужно вызвать Reset.
func NewPathfinder(graph Graph, opts ...PathfinderOption) *Pathfinder {
	p := &Pathfinder{
		graph:     graph,
		primary:   OctileHeuristic,
		tieBreak:  EuclideanHeuristic,
		inflation: DefaultInflation,
		visited:   make(map[world.MapCoordinate]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Reset начинает новый поиск от start к goal
func (p *Pathfinder) Reset(start, goal world.MapCoordinate) {
	if p.pool == nil {
		p.pool = borrowNodePool()
	}
	p.pool.Release()
	p.fringe.reset(p.pool)
	clear(p.visited)

	p.start, p.goal = start, goal
	p.current = NodeRef{}
	p.ready = true
	p.found = false
	p.exhausted = false
	p.final = nil
	p.stats = SearchStats{}

	ref := p.pool.Provide()
	node, _ := p.pool.Node(ref)
	*node = PathingNode{
		Coord:     start,
		Direction: world.DirectionNone,
		Heuristic: p.primary(start, goal) * p.inflation,
		TieBreak:  p.tieBreak(start, goal),
	}
	p.fringe.pushFront(ref)
	p.stats.Generated++
}

// Advance раскрывает до budget узлов (budget <= 0 означает без ограничения).
// Возвращает true, если цель достигнута.
func (p *Pathfinder) Advance(budget int) bool {
	if !p.ready || p.found || p.exhausted {
		return p.found
	}

	for step := 0; budget <= 0 || step < budget; step++ {
		ref, ok := p.fringe.pop()
		if !ok {
			p.exhausted = true
			return false
		}
		if p.expand(ref) {
			p.found = true
			return true
		}
	}
	return false
}

// expand обрабатывает один узел; true, если узел является целью
func (p *Pathfinder) expand(ref NodeRef) bool {
	n, ok := p.pool.Node(ref)
	if !ok {
		return false
	}
	node := *n

	if _, seen := p.visited[node.Coord]; seen {
		p.stats.Duplicates++
		return false
	}
	p.stats.Expanded++
	p.current = ref

	if node.Coord == p.goal {
		return true
	}
	p.visited[node.Coord] = struct{}{}

	mask := p.graph.DirectionEdgeSet(node.Coord)
	back := node.Direction.Invert()
	for _, d := range world.AngularDirections {
		if mask&d.Bit() == 0 || d == back {
			continue
		}
		next := node.Coord.Translate(d)
		if _, seen := p.visited[next]; seen {
			continue
		}
		cost := p.graph.EdgeCost(node.Coord, d)
		if cost < 0 {
			continue
		}

		child := p.pool.Provide()
		c, _ := p.pool.Node(child)
		*c = PathingNode{
			Coord:     next,
			Parent:    ref,
			Direction: d,
			PathCost:  node.PathCost + cost,
			Heuristic: p.primary(next, p.goal) * p.inflation,
			TieBreak:  p.tieBreak(next, p.goal),
		}
		p.fringe.pushFront(child)
		p.stats.Generated++
	}

	p.fringe.rebalance()
	return false
}

// Found возвращает true, если цель достигнута
func (p *Pathfinder) Found() bool { return p.found }

// Exhausted возвращает true, если открытый список исчерпан без достижения цели
func (p *Pathfinder) Exhausted() bool { return p.exhausted }

// Start возвращает стартовую ячейку текущего поиска
func (p *Pathfinder) Start() world.MapCoordinate { return p.start }

// Goal возвращает целевую ячейку текущего поиска
func (p *Pathfinder) Goal() world.MapCoordinate { return p.goal }

// Stats возвращает счётчики текущего поиска
func (p *Pathfinder) Stats() SearchStats {
	s := p.stats
	s.Visited = len(p.visited)
	return s
}

// extract восстанавливает цепочку родителей от текущего узла.
// Для завершённого поиска результат запоминается, а узлы возвращаются в пул.
func (p *Pathfinder) extract() *searchResult {
	if p.final != nil {
		return p.final
	}
	if !p.ready {
		return nil
	}

	var chain []PathingNode
	for ref := p.current; !ref.IsNil(); {
		n, ok := p.pool.Node(ref)
		if !ok {
			break
		}
		chain = append(chain, *n)
		ref = n.Parent
	}

	res := &searchResult{complete: p.found}
	if len(chain) == 0 {
		res.coords = []world.MapCoordinate{p.start}
	} else {
		res.cost = chain[0].PathCost
		res.coords = make([]world.MapCoordinate, len(chain))
		res.directions = make([]world.Direction, 0, len(chain)-1)
		for i := range chain {
			node := chain[len(chain)-1-i]
			res.coords[i] = node.Coord
			if i > 0 {
				res.directions = append(res.directions, node.Direction)
			}
		}
	}

	if p.found || p.exhausted {
		p.final = res
		p.pool.Release()
		p.fringe.reset(p.pool)
	}
	return res
}

// ExtractCoordinatePath возвращает маршрут в виде ячеек.
// До Reset возвращает nil.
func (p *Pathfinder) ExtractCoordinatePath() *CoordinatePath {
	res := p.extract()
	if res == nil {
		return nil
	}
	return &CoordinatePath{
		Coordinates: append([]world.MapCoordinate(nil), res.coords...),
		Cost:        res.cost,
		Complete:    res.complete,
	}
}

// ExtractVectorPath возвращает маршрут в виде направлений от старта.
// До Reset возвращает nil.
func (p *Pathfinder) ExtractVectorPath() *VectorPath {
	res := p.extract()
	if res == nil {
		return nil
	}
	return &VectorPath{
		Start:      p.start,
		Goal:       p.goal,
		Directions: append([]world.Direction(nil), res.directions...),
		Cost:       res.cost,
		Complete:   res.complete,
	}
}

// Close возвращает арену узлов в общий пул. После Close поиск можно
// начать заново через Reset.
func (p *Pathfinder) Close() {
	if p.pool == nil {
		return
	}
	returnNodePool(p.pool)
	p.pool = nil
	p.fringe.reset(nil)
	p.ready = false
}
