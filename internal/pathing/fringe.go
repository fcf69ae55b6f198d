package pathing

import "container/heap"

// fringe представляет открытый список из двух уровней: дек для только что найденных
// узлов и куча для остальных. Из-за увеличенной эвристики лучшим обычно
// оказывается последний найденный сосед, и он обходит кучу стороной.
// Передний конец дека соответствует концу среза.
type fringe struct {
	pool  *NodePool
	deque []NodeRef
	heap  nodeHeap
}

func (f *fringe) reset(pool *NodePool) {
	f.pool = pool
	f.deque = f.deque[:0]
	f.heap = nodeHeap{refs: f.heap.refs[:0], pool: pool}
}

func (f *fringe) len() int {
	return len(f.deque) + len(f.heap.refs)
}

func (f *fringe) pushFront(ref NodeRef) {
	f.deque = append(f.deque, ref)
}

// pop берёт узел с переднего конца дека, а если дек пуст, то из кучи
func (f *fringe) pop() (NodeRef, bool) {
	if n := len(f.deque); n > 0 {
		ref := f.deque[n-1]
		f.deque = f.deque[:n-1]
		return ref, true
	}
	if len(f.heap.refs) > 0 {
		return heap.Pop(&f.heap).(NodeRef), true
	}
	return NodeRef{}, false
}

// rebalance оставляет в деке только передний узел, остальные уходят в кучу.
// Если лучший узел кучи лучше переднего, в кучу уходит и он.
func (f *fringe) rebalance() {
	n := len(f.deque)
	if n == 0 {
		return
	}
	for _, ref := range f.deque[:n-1] {
		heap.Push(&f.heap, ref)
	}
	f.deque[0] = f.deque[n-1]
	f.deque = f.deque[:1]

	if len(f.heap.refs) == 0 {
		return
	}
	front, _ := f.pool.Node(f.deque[0])
	best, _ := f.pool.Node(f.heap.refs[0])
	if better(best, front) {
		heap.Push(&f.heap, f.deque[0])
		f.deque = f.deque[:0]
	}
}

// nodeHeap реализует heap.Interface над ссылками пула
type nodeHeap struct {
	refs []NodeRef
	pool *NodePool
}

func (h nodeHeap) Len() int { return len(h.refs) }

func (h nodeHeap) Less(i, j int) bool {
	a, _ := h.pool.Node(h.refs[i])
	b, _ := h.pool.Node(h.refs[j])
	return better(a, b)
}

func (h nodeHeap) Swap(i, j int) { h.refs[i], h.refs[j] = h.refs[j], h.refs[i] }

func (h *nodeHeap) Push(x interface{}) {
	h.refs = append(h.refs, x.(NodeRef))
}

func (h *nodeHeap) Pop() interface{} {
	n := len(h.refs)
	ref := h.refs[n-1]
	h.refs = h.refs[:n-1]
	return ref
}
