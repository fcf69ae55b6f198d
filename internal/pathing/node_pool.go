package pathing

import (
	"sync"

	"github.com/annel0/voxel-pathing/internal/world"
)

// PathingNode хранит состояние поиска для одной ячейки
type PathingNode struct {
	Coord     world.MapCoordinate
	Parent    NodeRef
	Direction world.Direction // направление шага от родителя
	PathCost  float64         // стоимость пути от старта
	Heuristic float64         // увеличенная основная оценка до цели
	TieBreak  float64         // вторичная оценка для равных узлов
}

// Total возвращает приоритет узла в открытом списке
func (n *PathingNode) Total() float64 {
	return n.PathCost + n.Heuristic
}

// better сравнивает узлы по приоритету, при равенстве по вторичной оценке
func better(a, b *PathingNode) bool {
	if ta, tb := a.Total(), b.Total(); ta != tb {
		return ta < tb
	}
	return a.TieBreak < b.TieBreak
}

// NodeRef ссылается на узел в пуле. Ссылка действительна только до
// ближайшего Release: поколение пула при этом меняется.
type NodeRef struct {
	index      uint32
	generation uint32
}

// IsNil возвращает true для пустой ссылки
func (r NodeRef) IsNil() bool {
	return r.generation == 0
}

// NodePool представляет арену узлов одного поиска. Освобождается целиком.
type NodePool struct {
	nodes      []PathingNode
	generation uint32
}

// NewNodePool создаёт пул с заданной начальной ёмкостью
func NewNodePool(capacity int) *NodePool {
	return &NodePool{
		nodes:      make([]PathingNode, 0, capacity),
		generation: 1,
	}
}

// Provide выделяет новый обнулённый узел.
// Указатели, полученные через Node, после Provide могут стать недействительными.
func (p *NodePool) Provide() NodeRef {
	p.nodes = append(p.nodes, PathingNode{})
	return NodeRef{index: uint32(len(p.nodes) - 1), generation: p.generation}
}

// Node возвращает узел по ссылке; false для пустой или устаревшей ссылки
func (p *NodePool) Node(ref NodeRef) (*PathingNode, bool) {
	if ref.generation != p.generation || int(ref.index) >= len(p.nodes) {
		return nil, false
	}
	return &p.nodes[ref.index], true
}

// Release освобождает все узлы и делает выданные ссылки недействительными
func (p *NodePool) Release() {
	p.nodes = p.nodes[:0]
	p.generation++
	if p.generation == 0 {
		p.generation = 1
	}
}

// Len возвращает количество выделенных узлов
func (p *NodePool) Len() int {
	return len(p.nodes)
}

// Арены переиспользуются между поисками
var nodePools = sync.Pool{
	New: func() interface{} {
		return NewNodePool(256)
	},
}

func borrowNodePool() *NodePool {
	return nodePools.Get().(*NodePool)
}

func returnNodePool(p *NodePool) {
	p.Release()
	nodePools.Put(p)
}
