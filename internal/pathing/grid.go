package pathing

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/voxel-pathing/internal/logging"
	"github.com/annel0/voxel-pathing/internal/world"
	"golang.org/x/sync/errgroup"
)

var logger = logging.Component("pathing")

// RefreshNotifier получает сигнал о том, что визуализация проходимости
// чанка устарела. Вызов не должен блокироваться.
type RefreshNotifier interface {
	MarkPathingDirty(coords world.ChunkCoord)
}

type noopRefresh struct{}

func (noopRefresh) MarkPathingDirty(world.ChunkCoord) {}

// GridOption настраивает Grid
type GridOption func(*Grid)

// WithRefreshNotifier задаёт получателя сигналов обновления визуализации
func WithRefreshNotifier(n RefreshNotifier) GridOption {
	return func(g *Grid) {
		if n != nil {
			g.refresh = n
		}
	}
}

// WithRefreshNotifierFor создаёт отдельного получателя сигналов для сетки
// каждого способа передвижения
func WithRefreshNotifierFor(factory func(Modality) RefreshNotifier) GridOption {
	return func(g *Grid) {
		if factory == nil {
			return
		}
		if n := factory(g.modality); n != nil {
			g.refresh = n
		}
	}
}

// WithBuildWorkers ограничивает число горутин классификации при Build
func WithBuildWorkers(n int) GridOption {
	return func(g *Grid) {
		if n > 0 {
			g.workers = n
		}
	}
}

// Grid представляет граф связности мира для одного способа передвижения.
//
// Для каждой ячейки хранится маска проходимых направлений и зона связности.
// Чтения рёбер идут под блокировками чанков и могут выполняться параллельно;
// изменения (Build, DirtyCoordinates, RebuildZones) выполняются одним
// писателем под writeMu. Запросы зон берут zoneMu на чтение и не видят
// промежуточного состояния проходов писателя.
type Grid struct {
	oracle   world.ShapeOracle
	modality Modality
	rule     EdgeRule
	refresh  RefreshNotifier
	workers  int

	chunksMu sync.RWMutex
	chunks   map[world.ChunkCoord]*GridChunk

	zones *ZoneTable

	writeMu    sync.Mutex
	zoneMu     sync.RWMutex
	zonesStale atomic.Bool
	version    atomic.Uint64

	// Состояние текущего прохода писателя, под writeMu
	writing bool
	splits  []splitSeed
}

// splitSeed указывает ячейку зоны, внутри которой было удалено ребро
type splitSeed struct {
	zone uint32
	cell world.MapCoordinate
}

// NewGrid создаёт пустую сетку. Для заполнения вызовите Build или Restore.
func NewGrid(oracle world.ShapeOracle, modality Modality, opts ...GridOption) *Grid {
	g := &Grid{
		oracle:   oracle,
		modality: modality,
		rule:     modality.Rule(),
		refresh:  noopRefresh{},
		workers:  runtime.GOMAXPROCS(0),
		chunks:   make(map[world.ChunkCoord]*GridChunk),
		zones:    NewZoneTable(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Modality возвращает способ передвижения сетки
func (g *Grid) Modality() Modality { return g.modality }

// Version увеличивается в начале и в конце каждого изменения рёбер.
// Нечётное значение означает, что изменение ещё идёт.
func (g *Grid) Version() uint64 { return g.version.Load() }

// StableVersion возвращает true, если версия получена вне прохода писателя
func StableVersion(v uint64) bool { return v&1 == 0 }

// Zones возвращает таблицу связей зон
func (g *Grid) Zones() *ZoneTable { return g.zones }

// Build полностью строит сетку по оракулу форм. Чанки классифицируются
// параллельно, зоны назначаются одним детерминированным проходом.
func (g *Grid) Build(ctx context.Context) error {
	start := time.Now()

	// Изменения мира во время постройки дождутся её окончания
	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	coords := g.oracle.Chunks()
	masks := make([]map[world.BlockIndex]uint32, len(coords))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i, cc := range coords {
		i, cc := i, cc
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			masks[i] = g.classifyChunk(cc)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("build %s grid: %w", g.modality, err)
	}

	chunks := make(map[world.ChunkCoord]*GridChunk, len(coords))
	for i, cc := range coords {
		gc := newGridChunk(cc)
		gc.edges = masks[i]
		chunks[cc] = gc
	}
	g.replaceChunksLocked(chunks)

	elapsed := time.Since(start)
	gridBuildDuration.WithLabelValues(g.modality.String()).Observe(elapsed.Seconds())
	logger.Info("🧭 Сетка %s построена: %d чанков, %d зон за %v", g.modality, len(coords), g.zones.Count(), elapsed)
	return nil
}

// replaceChunksLocked подменяет все чанки сетки и назначает зоны заново
func (g *Grid) replaceChunksLocked(chunks map[world.ChunkCoord]*GridChunk) {
	g.zoneMu.Lock()
	defer g.zoneMu.Unlock()

	g.version.Add(1)
	g.chunksMu.Lock()
	g.chunks = chunks
	g.chunksMu.Unlock()

	g.assignZonesLocked()
	g.version.Add(1)
}

func (g *Grid) classifyChunk(cc world.ChunkCoord) map[world.BlockIndex]uint32 {
	result := make(map[world.BlockIndex]uint32)
	for z := 0; z < world.ChunkEdge; z++ {
		for y := 0; y < world.ChunkEdge; y++ {
			for x := 0; x < world.ChunkEdge; x++ {
				b := world.NewBlockIndex(x, y, z)
				if mask := g.classify(world.MapCoordinate{Chunk: cc, Block: b}); mask != 0 {
					result[b] = mask
				}
			}
		}
	}
	return result
}

// classify вычисляет маску рёбер ячейки по текущим формам блоков
func (g *Grid) classify(c world.MapCoordinate) uint32 {
	if !g.rule.Passable(g.oracle.Shape(c)) {
		return 0
	}
	headroom := g.rule.NeedsHeadroom()
	roomHere := !headroom || g.hasHeadroom(c)

	var mask uint32
	for _, d := range world.AngularDirections {
		n := c.Translate(d)
		if !g.rule.Passable(g.oracle.Shape(n)) {
			continue
		}
		if headroom && d.IsVertical() && (!roomHere || !g.hasHeadroom(n)) {
			continue
		}
		mask |= d.Bit()
	}
	return mask
}

func (g *Grid) hasHeadroom(c world.MapCoordinate) bool {
	return !g.oracle.Shape(c.Translate(world.DirectionUp)).IsSolid()
}

func (g *Grid) chunk(cc world.ChunkCoord) *GridChunk {
	g.chunksMu.RLock()
	defer g.chunksMu.RUnlock()

	return g.chunks[cc]
}

func (g *Grid) getOrCreateChunk(cc world.ChunkCoord) *GridChunk {
	if gc := g.chunk(cc); gc != nil {
		return gc
	}

	g.chunksMu.Lock()
	defer g.chunksMu.Unlock()

	gc, exists := g.chunks[cc]
	if !exists {
		gc = newGridChunk(cc)
		g.chunks[cc] = gc
	}
	return gc
}

func (g *Grid) sortedChunks() []*GridChunk {
	g.chunksMu.RLock()
	result := make([]*GridChunk, 0, len(g.chunks))
	for _, gc := range g.chunks {
		result = append(result, gc)
	}
	g.chunksMu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].Coords.Less(result[j].Coords) })
	return result
}

// DirectionEdgeSet возвращает маску проходимых направлений из ячейки
func (g *Grid) DirectionEdgeSet(c world.MapCoordinate) uint32 {
	gc := g.chunk(c.Chunk)
	if gc == nil {
		return 0
	}
	return gc.Edges(c.Block)
}

// IsEdge проверяет, проходимо ли направление d из ячейки c
func (g *Grid) IsEdge(c world.MapCoordinate, d world.Direction) bool {
	return d.IsAngular() && g.DirectionEdgeSet(c)&d.Bit() != 0
}

// EdgeCost возвращает стоимость шага из c в направлении d или NoEdge
func (g *Grid) EdgeCost(c world.MapCoordinate, d world.Direction) float64 {
	if d == world.DirectionNone {
		return 0
	}
	if !g.IsEdge(c, d) {
		return NoEdge
	}
	return DirectionCost(d)
}

// Contains возвращает true, если из ячейки есть хотя бы одно ребро
func (g *Grid) Contains(c world.MapCoordinate) bool {
	return g.DirectionEdgeSet(c) != 0
}

func (g *Grid) zoneOf(c world.MapCoordinate) uint32 {
	gc := g.chunk(c.Chunk)
	if gc == nil {
		return 0
	}
	return gc.Zone(c.Block)
}

// ConnectivityZone возвращает зону связности ячейки (0, если зоны нет)
func (g *Grid) ConnectivityZone(c world.MapCoordinate) (zone uint32) {
	g.readZones(func() { zone = g.zoneOf(c) })
	return zone
}

// ZoneEquivalence возвращает канонический номер компоненты связности ячейки
func (g *Grid) ZoneEquivalence(c world.MapCoordinate) (class uint32) {
	g.readZones(func() { class = g.zones.Equivalent(g.zoneOf(c)) })
	return class
}

// IsPathPossible проверяет, лежат ли ячейки в одной компоненте связности.
// Ячейки без зоны недостижимы.
func (g *Grid) IsPathPossible(a, b world.MapCoordinate) (possible bool) {
	g.readZones(func() {
		za, zb := g.zoneOf(a), g.zoneOf(b)
		if za == 0 || zb == 0 {
			return
		}
		possible = za == zb || g.zones.Equivalent(za) == g.zones.Equivalent(zb)
	})
	return possible
}

// PassableCoordinates возвращает все ячейки с рёбрами в порядке обхода
func (g *Grid) PassableCoordinates() []world.MapCoordinate {
	var result []world.MapCoordinate
	for _, gc := range g.sortedChunks() {
		for _, b := range gc.Blocks() {
			result = append(result, world.MapCoordinate{Chunk: gc.Coords, Block: b})
		}
	}
	return result
}

// readZones выполняет fn под блокировкой зон на чтение, предварительно
// применив отложенные перестроения
func (g *Grid) readZones(fn func()) {
	for {
		g.zoneMu.RLock()
		if !g.zonesStale.Load() && !g.zones.Stale() {
			fn()
			g.zoneMu.RUnlock()
			return
		}
		g.zoneMu.RUnlock()
		g.ensureZones()
	}
}

// ensureZones применяет отложенные перестроения перед запросом связности
func (g *Grid) ensureZones() {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	g.zoneMu.Lock()
	defer g.zoneMu.Unlock()

	switch {
	case g.zonesStale.Load():
		g.assignZonesLocked()
	case g.zones.Stale():
		g.zones.Rebuild()
		zoneRebuilds.WithLabelValues(g.modality.String(), "equivalence").Inc()
	}
}

// RebuildZones заново назначает зоны всем ячейкам и перестраивает классы.
// Без изменений мира между вызовами результат одинаков.
func (g *Grid) RebuildZones() {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	g.zoneMu.Lock()
	defer g.zoneMu.Unlock()

	g.assignZonesLocked()
}

// assignZonesLocked выполняет проход назначения зон: ячейки обходятся
// в порядке чанков и индексов блоков, зона распространяется на соседей
// без зоны, а каждое ребро между разными зонами учитывается один раз,
// со стороны меньшей координаты. Вызывается под writeMu и zoneMu.
func (g *Grid) assignZonesLocked() {
	g.zones.Reset()
	chunks := g.sortedChunks()
	for _, gc := range chunks {
		gc.clearZones()
	}

	for _, gc := range chunks {
		for _, b := range gc.Blocks() {
			c := world.MapCoordinate{Chunk: gc.Coords, Block: b}
			mask := gc.Edges(b)

			zone := gc.Zone(b)
			if zone == 0 {
				zone = g.zones.NewZone()
				gc.setZone(b, zone)
			}

			for _, d := range world.AngularDirections {
				if mask&d.Bit() == 0 {
					continue
				}
				n := c.Translate(d)
				nz := g.zoneOf(n)
				switch {
				case nz == 0:
					g.getOrCreateChunk(n.Chunk).setZone(n.Block, zone)
				case nz != zone && c.Less(n):
					g.zones.Connect(zone, nz)
				}
			}
		}
	}

	g.zones.Rebuild()
	g.zonesStale.Store(false)
	zoneRebuilds.WithLabelValues(g.modality.String(), "full").Inc()
}

// DirtyCoordinates пересчитывает рёбра изменившихся ячеек.
// Координаты обрабатываются по очереди в порядке поступления, повторы пропускаются.
func (g *Grid) DirtyCoordinates(coords ...world.MapCoordinate) {
	if len(coords) == 0 {
		return
	}

	g.writeMu.Lock()
	g.zoneMu.Lock()

	seen := make(map[world.MapCoordinate]struct{}, len(coords))
	refresh := make(map[world.ChunkCoord]struct{})
	changed := 0
	for _, c := range coords {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}

		touched := g.update(c)
		if len(touched) > 0 {
			changed++
		}
		for _, cc := range touched {
			refresh[cc] = struct{}{}
		}
	}
	g.resolveSplitsLocked()
	if g.writing {
		g.writing = false
		g.version.Add(1)
	}
	g.zoneMu.Unlock()
	g.writeMu.Unlock()

	dirtyCoordinates.WithLabelValues(g.modality.String()).Add(float64(len(seen)))
	if changed > 0 {
		logger.Debug("Сетка %s: изменено %d из %d ячеек, версия %d", g.modality, changed, len(seen), g.Version())
	}

	for cc := range refresh {
		g.refresh.MarkPathingDirty(cc)
	}
}

// update пересчитывает маску одной ячейки и зеркалит изменения на соседей.
// Возвращает чанки, в которых изменились маски.
func (g *Grid) update(c world.MapCoordinate) []world.ChunkCoord {
	old := g.DirectionEdgeSet(c)
	mask := g.classify(c)
	if old == mask {
		return nil
	}
	if !g.writing {
		g.writing = true
		g.version.Add(1)
	}
	changed := old ^ mask
	created := mask &^ old

	// Блокируем чанк ячейки и чанки изменившихся соседей в порядке обхода
	touched := map[world.ChunkCoord]*GridChunk{c.Chunk: g.getOrCreateChunk(c.Chunk)}
	for _, d := range world.AngularDirections {
		if changed&d.Bit() == 0 {
			continue
		}
		cc := c.Translate(d).Chunk
		if _, ok := touched[cc]; !ok {
			touched[cc] = g.getOrCreateChunk(cc)
		}
	}
	locked := make([]*GridChunk, 0, len(touched))
	for _, gc := range touched {
		locked = append(locked, gc)
	}
	sort.Slice(locked, func(i, j int) bool { return locked[i].Coords.Less(locked[j].Coords) })
	for _, gc := range locked {
		gc.mu.Lock()
	}

	here := touched[c.Chunk]
	zone := here.zones[c.Block]
	if mask != 0 && zone == 0 {
		for _, d := range world.AngularDirections {
			if created&d.Bit() == 0 {
				continue
			}
			n := c.Translate(d)
			if nz := touched[n.Chunk].zones[n.Block]; nz != 0 {
				zone = nz
				break
			}
		}
		if zone == 0 {
			zone = g.zones.NewZone()
		}
		here.setZoneLocked(c.Block, zone)
	}
	here.setEdgesLocked(c.Block, mask)

	for _, d := range world.AngularDirections {
		bit := d.Bit()
		if changed&bit == 0 {
			continue
		}
		n := c.Translate(d)
		there := touched[n.Chunk]
		inverse := d.Invert().Bit()
		nz := there.zones[n.Block]

		if mask&bit != 0 {
			there.setEdgesLocked(n.Block, there.edges[n.Block]|inverse)
			switch {
			case nz == 0:
				there.setZoneLocked(n.Block, zone)
			case nz != zone:
				g.zones.Connect(zone, nz)
			}
			continue
		}

		rest := there.edges[n.Block] &^ inverse
		there.setEdgesLocked(n.Block, rest)
		switch {
		case nz == zone:
			// Ребро внутри зоны могло быть единственной связью её частей
			if mask != 0 {
				g.splits = append(g.splits, splitSeed{zone: zone, cell: c})
			}
			if rest != 0 {
				g.splits = append(g.splits, splitSeed{zone: zone, cell: n})
			}
		case !g.zones.Disconnect(zone, nz):
			g.reportViolation("missing_connection", "нет связи между зонами %d и %d для ребра %s→%s", zone, nz, c, n)
			g.zonesStale.Store(true)
		}
		if rest == 0 {
			there.setZoneLocked(n.Block, 0)
		}
	}
	if mask == 0 {
		here.setZoneLocked(c.Block, 0)
	}

	for _, gc := range locked {
		gc.mu.Unlock()
	}

	result := make([]world.ChunkCoord, len(locked))
	for i, gc := range locked {
		result[i] = gc.Coords
	}
	return result
}

// resolveSplitsLocked проверяет зоны, внутри которых удалялись рёбра.
// Для каждой пары затравок одной зоны встречные обходы в ширину идут
// по очереди, пока не встретятся или пока одна сторона не исчерпается.
// Исчерпанная сторона получает новую зону, так что работа ограничена
// меньшей из отделившихся частей.
func (g *Grid) resolveSplitsLocked() {
	if len(g.splits) == 0 {
		return
	}

	var order []uint32
	groups := make(map[uint32][]world.MapCoordinate)
	for _, s := range g.splits {
		if _, ok := groups[s.zone]; !ok {
			order = append(order, s.zone)
		}
		groups[s.zone] = append(groups[s.zone], s.cell)
	}
	g.splits = g.splits[:0]

	for _, zone := range order {
		var anchor world.MapCoordinate
		hasAnchor := false
		for _, c := range groups[zone] {
			if g.zoneOf(c) != zone {
				continue
			}
			if !hasAnchor {
				anchor, hasAnchor = c, true
				continue
			}
			part, anchorSide := g.separate(zone, anchor, c)
			if part == nil {
				continue
			}
			g.relabel(zone, g.zones.NewZone(), part)
			if anchorSide {
				anchor = c
			}
		}
	}
}

// separate ищет разрыв зоны между a и b. Возвращает ячейки меньшей части
// и признак того, что это часть a; nil, если ячейки по-прежнему связаны.
func (g *Grid) separate(zone uint32, a, b world.MapCoordinate) ([]world.MapCoordinate, bool) {
	if a == b {
		return nil, false
	}
	sides := [2]*flood{newFlood(a), newFlood(b)}
	for {
		for i, side := range sides {
			other := sides[1-i]
			c, ok := side.next()
			if !ok {
				return side.queue, i == 0
			}
			mask := g.DirectionEdgeSet(c)
			for _, d := range world.AngularDirections {
				if mask&d.Bit() == 0 {
					continue
				}
				n := c.Translate(d)
				if g.zoneOf(n) != zone {
					continue
				}
				if other.has(n) {
					return nil, false
				}
				side.push(n)
			}
		}
	}
}

// relabel переносит ячейки part из зоны old в новую зону и переносит
// счётчики их рёбер с соседними зонами
func (g *Grid) relabel(old, zone uint32, part []world.MapCoordinate) {
	for _, c := range part {
		g.chunk(c.Chunk).setZone(c.Block, zone)
	}
	for _, c := range part {
		mask := g.DirectionEdgeSet(c)
		for _, d := range world.AngularDirections {
			if mask&d.Bit() == 0 {
				continue
			}
			n := c.Translate(d)
			nz := g.zoneOf(n)
			if nz == zone {
				continue
			}
			if !g.zones.Disconnect(old, nz) {
				g.reportViolation("missing_connection", "нет связи между зонами %d и %d для ребра %s→%s", old, nz, c, n)
				g.zonesStale.Store(true)
			}
			g.zones.Connect(zone, nz)
		}
	}
	zoneRebuilds.WithLabelValues(g.modality.String(), "split").Inc()
	logger.Debug("Сетка %s: зона %d разделена, %d ячеек перенесены в зону %d", g.modality, old, len(part), zone)
}

// flood описывает одну сторону встречного обхода в ширину
type flood struct {
	queue []world.MapCoordinate
	head  int
	seen  map[world.MapCoordinate]struct{}
}

func newFlood(start world.MapCoordinate) *flood {
	return &flood{
		queue: []world.MapCoordinate{start},
		seen:  map[world.MapCoordinate]struct{}{start: {}},
	}
}

func (f *flood) next() (world.MapCoordinate, bool) {
	if f.head == len(f.queue) {
		return world.MapCoordinate{}, false
	}
	c := f.queue[f.head]
	f.head++
	return c, true
}

func (f *flood) has(c world.MapCoordinate) bool {
	_, ok := f.seen[c]
	return ok
}

func (f *flood) push(c world.MapCoordinate) {
	if !f.has(c) {
		f.seen[c] = struct{}{}
		f.queue = append(f.queue, c)
	}
}

func (g *Grid) reportViolation(kind, format string, args ...interface{}) {
	invariantViolations.WithLabelValues(g.modality.String(), kind).Inc()
	logger.Error("Сетка %s: нарушен инвариант (%s): "+format, append([]interface{}{g.modality, kind}, args...)...)
}

// Snapshot возвращает снимок масок чанка
func (g *Grid) Snapshot(cc world.ChunkCoord) (ChunkSnapshot, bool) {
	gc := g.chunk(cc)
	if gc == nil {
		return ChunkSnapshot{}, false
	}
	return gc.Snapshot(), true
}

// Snapshots возвращает снимки всех непустых чанков в порядке обхода
func (g *Grid) Snapshots() []ChunkSnapshot {
	var result []ChunkSnapshot
	for _, gc := range g.sortedChunks() {
		if gc.Len() > 0 {
			result = append(result, gc.Snapshot())
		}
	}
	return result
}

// Restore заменяет маски сетки сохранёнными снимками и назначает зоны заново
func (g *Grid) Restore(snapshots []ChunkSnapshot) error {
	chunks := make(map[world.ChunkCoord]*GridChunk, len(snapshots))
	for _, snap := range snapshots {
		if len(snap.Blocks) != len(snap.Masks) {
			return fmt.Errorf("restore %s grid: chunk %s has %d blocks and %d masks",
				g.modality, snap.Coords, len(snap.Blocks), len(snap.Masks))
		}
		gc := newGridChunk(snap.Coords)
		for i, b := range snap.Blocks {
			gc.setEdgesLocked(b, snap.Masks[i])
		}
		chunks[snap.Coords] = gc
	}

	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	g.replaceChunksLocked(chunks)
	logger.Info("🧭 Сетка %s восстановлена из %d снимков", g.modality, len(snapshots))
	return nil
}

// GridStats содержит сводку состояния сетки
type GridStats struct {
	Modality   string `json:"modality"`
	Chunks     int    `json:"chunks"`
	Passable   int    `json:"passable"`
	Zones      int    `json:"zones"`
	Components int    `json:"components"`
	Version    uint64 `json:"version"`
}

// Stats собирает сводку по сетке
func (g *Grid) Stats() GridStats {
	stats := GridStats{Modality: g.modality.String()}
	g.readZones(func() {
		stats.Zones = g.zones.Count()
		stats.Version = g.Version()
		components := make(map[uint32]struct{})
		for _, gc := range g.sortedChunks() {
			stats.Chunks++
			for _, b := range gc.Blocks() {
				stats.Passable++
				if z := gc.Zone(b); z != 0 {
					components[g.zones.Equivalent(z)] = struct{}{}
				}
			}
		}
		stats.Components = len(components)
	})
	return stats
}
