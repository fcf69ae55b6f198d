package eventbus

import (
	"context"
	"sync"

	"github.com/annel0/voxel-pathing/internal/world"
)

// ChunkRefresh полезная нагрузка события EventChunkRefresh
type ChunkRefresh struct {
	Modality string           `json:"modality"`
	Chunk    world.ChunkCoord `json:"chunk"`
}

// RefreshPriority ставит сигналы обновления выше порога вытеснения,
// чтобы при заполненной шине они ждали места, а не пропадали
const RefreshPriority = 5

// ChunkMarker принимает сигнал об устаревшей визуализации проходимости чанка.
// Ему удовлетворяют и сетка-получатель, и world.VoxelMap.
type ChunkMarker interface {
	MarkPathingDirty(coords world.ChunkCoord)
}

// RefreshPublisher публикует сигналы обновления визуализации в шину.
// MarkPathingDirty не блокируется: чанки копятся и схлопываются,
// а публикацию выполняет отдельная горутина Run.
type RefreshPublisher struct {
	bus      EventBus
	source   string
	modality string

	mu      sync.Mutex
	pending map[world.ChunkCoord]struct{}
	order   []world.ChunkCoord
	signal  chan struct{}
}

// NewRefreshPublisher создаёт публикатор для сетки заданного способа передвижения
func NewRefreshPublisher(bus EventBus, source, modality string) *RefreshPublisher {
	return &RefreshPublisher{
		bus:      bus,
		source:   source,
		modality: modality,
		pending:  make(map[world.ChunkCoord]struct{}),
		signal:   make(chan struct{}, 1),
	}
}

// MarkPathingDirty ставит чанк в очередь на публикацию
func (p *RefreshPublisher) MarkPathingDirty(coords world.ChunkCoord) {
	p.mu.Lock()
	if _, ok := p.pending[coords]; !ok {
		p.pending[coords] = struct{}{}
		p.order = append(p.order, coords)
	}
	p.mu.Unlock()

	select {
	case p.signal <- struct{}{}:
	default:
	}
}

// Pending возвращает число чанков, ожидающих публикации
func (p *RefreshPublisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.order)
}

// Run публикует накопленные сигналы до отмены контекста.
// Оставшиеся чанки публикуются перед выходом.
func (p *RefreshPublisher) Run(ctx context.Context) {
	for {
		select {
		case <-p.signal:
			p.Flush(ctx)
		case <-ctx.Done():
			p.Flush(context.Background())
			return
		}
	}
}

// Flush публикует все накопленные чанки в порядке поступления
func (p *RefreshPublisher) Flush(ctx context.Context) int {
	p.mu.Lock()
	batch := p.order
	p.order = nil
	p.pending = make(map[world.ChunkCoord]struct{}, len(batch))
	p.mu.Unlock()

	published := 0
	for _, cc := range batch {
		ev, err := NewEnvelope(EventChunkRefresh, p.source, ChunkRefresh{Modality: p.modality, Chunk: cc})
		if err != nil {
			logger.Error("RefreshPublisher: %v", err)
			continue
		}
		ev.Priority = RefreshPriority
		if err := p.bus.Publish(ctx, ev); err != nil {
			logger.Warn("RefreshPublisher: чанк %s не опубликован: %v", cc, err)
			continue
		}
		published++
	}
	return published
}

// StartRefreshListener подписывается на события ChunkRefresh и передаёт
// их получателю, например world.VoxelMap для флагов визуализации.
func StartRefreshListener(ctx context.Context, bus EventBus, sink ChunkMarker) (Subscription, error) {
	return bus.Subscribe(ctx, Filter{Types: []string{EventChunkRefresh}}, func(ctx context.Context, ev *Envelope) {
		var payload ChunkRefresh
		if err := ev.Decode(&payload); err != nil {
			logger.Warn("RefreshListener: %v", err)
			return
		}
		sink.MarkPathingDirty(payload.Chunk)
	})
}
