package pathing

import (
	"sort"
	"sync"
)

// ZoneTable хранит связи между зонами связности и классы их эквивалентности.
//
// Счётчик связи двух зон равен числу рёбер между ними и хранится
// симметрично. Эквивалентность поддерживается системой непересекающихся
// множеств: объединения применяются сразу, а разрывы (счётчик упал до нуля)
// помечают эквивалентность устаревшей до следующего Rebuild.
type ZoneTable struct {
	mu sync.RWMutex

	next      uint32
	adjacency map[uint32]map[uint32]int

	parent []uint32
	rank   []uint8
	min    []uint32

	stale bool
}

// NewZoneTable создаёт пустую таблицу; первая выданная зона имеет номер 1
func NewZoneTable() *ZoneTable {
	t := &ZoneTable{}
	t.resetLocked()
	return t
}

func (t *ZoneTable) resetLocked() {
	t.next = 1
	t.adjacency = make(map[uint32]map[uint32]int)
	// Индекс 0 зарезервирован за "нет зоны"
	t.parent = []uint32{0}
	t.rank = []uint8{0}
	t.min = []uint32{0}
	t.stale = false
}

// Reset удаляет все зоны и связи
func (t *ZoneTable) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetLocked()
}

// NewZone выделяет новую зону
func (t *ZoneTable) NewZone() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	z := t.next
	t.next++
	t.parent = append(t.parent, z)
	t.rank = append(t.rank, 0)
	t.min = append(t.min, z)
	return z
}

// Count возвращает число зон, выданных с последнего Reset
func (t *ZoneTable) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return int(t.next - 1)
}

// Connect учитывает одно ребро между зонами a и b
func (t *ZoneTable) Connect(a, b uint32) {
	if a == b || a == 0 || b == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.addLocked(a, b, 1)
	t.addLocked(b, a, 1)
	t.unionLocked(a, b)
}

// Disconnect снимает одно ребро между зонами a и b.
// Возвращает false, если связи между зонами не было.
func (t *ZoneTable) Disconnect(a, b uint32) bool {
	if a == b || a == 0 || b == 0 {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.adjacency[a][b] <= 0 {
		return false
	}
	t.addLocked(a, b, -1)
	t.addLocked(b, a, -1)
	if t.adjacency[a][b] == 0 {
		t.stale = true
	}
	return true
}

func (t *ZoneTable) addLocked(a, b uint32, delta int) {
	m, ok := t.adjacency[a]
	if !ok {
		m = make(map[uint32]int)
		t.adjacency[a] = m
	}
	m[b] += delta
	if m[b] <= 0 {
		delete(m, b)
		if len(m) == 0 {
			delete(t.adjacency, a)
		}
	}
}

// Connection возвращает число рёбер между зонами a и b
func (t *ZoneTable) Connection(a, b uint32) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.adjacency[a][b]
}

// Neighbors возвращает зоны, связанные с z, в порядке возрастания
func (t *ZoneTable) Neighbors(z uint32) []uint32 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]uint32, 0, len(t.adjacency[z]))
	for n := range t.adjacency[z] {
		result = append(result, n)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// Stale возвращает true, если после разрыва связи эквивалентность не перестроена
func (t *ZoneTable) Stale() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.stale
}

// Equivalent возвращает канонический номер класса зоны z (наименьшая зона класса).
// Для z = 0 и неизвестных зон возвращает 0.
func (t *ZoneTable) Equivalent(z uint32) uint32 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if z == 0 || int(z) >= len(t.parent) {
		return 0
	}
	return t.min[t.findLocked(z)]
}

// Rebuild заново вычисляет классы эквивалентности по таблице связей
func (t *ZoneTable) Rebuild() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for z := range t.parent {
		t.parent[z] = uint32(z)
		t.rank[z] = 0
		t.min[z] = uint32(z)
	}
	for a, m := range t.adjacency {
		for b := range m {
			t.unionLocked(a, b)
		}
	}
	t.stale = false
}

// findLocked не сжимает пути: вызывается и под блокировкой чтения.
// Объединение по рангу ограничивает глубину логарифмом.
func (t *ZoneTable) findLocked(z uint32) uint32 {
	for t.parent[z] != z {
		z = t.parent[z]
	}
	return z
}

func (t *ZoneTable) unionLocked(a, b uint32) {
	ra := t.compressLocked(a)
	rb := t.compressLocked(b)
	if ra == rb {
		return
	}
	if t.rank[ra] < t.rank[rb] {
		ra, rb = rb, ra
	}
	t.parent[rb] = ra
	if t.rank[ra] == t.rank[rb] {
		t.rank[ra]++
	}
	if t.min[rb] < t.min[ra] {
		t.min[ra] = t.min[rb]
	}
}

func (t *ZoneTable) compressLocked(z uint32) uint32 {
	root := t.findLocked(z)
	for t.parent[z] != root {
		next := t.parent[z]
		t.parent[z] = root
		z = next
	}
	return root
}
