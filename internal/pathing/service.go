package pathing

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/voxel-pathing/internal/world"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrServiceStopped возвращается при обращении к остановленному сервису
var ErrServiceStopped = errors.New("pathing: service stopped")

var errAlreadyRunning = errors.New("pathing: service already running")

// Status итог запроса пути
type Status string

const (
	StatusFound     Status = "found"
	StatusNoPath    Status = "no_path"
	StatusCancelled Status = "cancelled"
)

// Request запрос пути для агента
type Request struct {
	ID       string
	Modality Modality
	Start    world.MapCoordinate
	Goal     world.MapCoordinate
}

// Result ответ на запрос пути. Path заполнен только при StatusFound.
type Result struct {
	RequestID string
	Modality  Modality
	Status    Status
	Path      *VectorPath
	Stats     SearchStats
	Restarts  int
	Elapsed   time.Duration
	Err       error
}

// ServiceConfig параметры планировщика поисков
type ServiceConfig struct {
	Workers     int     // число параллельных поисков
	NodeBudget  int     // раскрытий узлов за один квант
	QueueSize   int     // ёмкость очереди запросов
	Inflation   float64 // множитель основной эвристики
	MaxRestarts int     // перезапусков при изменении сетки, затем поиск доводится как есть
}

// DefaultServiceConfig возвращает параметры по умолчанию
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Workers:     runtime.GOMAXPROCS(0),
		NodeBudget:  256,
		QueueSize:   1024,
		Inflation:   DefaultInflation,
		MaxRestarts: 8,
	}
}

type job struct {
	ctx context.Context
	req Request
	out chan Result
}

// Service выполняет запросы пути на пуле воркеров. Каждый поиск идёт
// квантами по NodeBudget раскрытий; между квантами воркер уступает
// процессор и проверяет отмену. Если сетка изменилась во время поиска,
// поиск начинается заново.
type Service struct {
	grids  *GridSet
	cfg    ServiceConfig
	tracer trace.Tracer

	queue    chan *job
	done     chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	mu      sync.RWMutex
	stopped bool
}

// NewService создаёт сервис. Нулевые поля конфигурации заменяются значениями по умолчанию.
func NewService(grids *GridSet, cfg ServiceConfig) *Service {
	def := DefaultServiceConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.NodeBudget <= 0 {
		cfg.NodeBudget = def.NodeBudget
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.Inflation <= 0 {
		cfg.Inflation = def.Inflation
	}
	if cfg.MaxRestarts < 0 {
		cfg.MaxRestarts = def.MaxRestarts
	}

	return &Service{
		grids:  grids,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/annel0/voxel-pathing/internal/pathing"),
		queue:  make(chan *job, cfg.QueueSize),
		done:   make(chan struct{}),
	}
}

// Grids возвращает набор сеток сервиса
func (s *Service) Grids() *GridSet { return s.grids }

// Run запускает воркеры и блокируется до отмены ctx.
// Запросы, оставшиеся в очереди, завершаются с ErrServiceStopped.
func (s *Service) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errAlreadyRunning
	}

	logger.Info("🚀 Сервис поиска пути запущен: %d воркеров, бюджет %d узлов", s.cfg.Workers, s.cfg.NodeBudget)

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx)
		}()
	}

	<-ctx.Done()
	s.stopOnce.Do(func() { close(s.done) })
	wg.Wait()

	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	for {
		select {
		case j := <-s.queue:
			j.out <- Result{RequestID: j.req.ID, Modality: j.req.Modality, Status: StatusCancelled, Err: ErrServiceStopped}
		default:
			logger.Info("🛑 Сервис поиска пути остановлен")
			return nil
		}
	}
}

// Submit ставит запрос в очередь. Результат придёт в возвращённый канал ровно один раз.
func (s *Service) Submit(ctx context.Context, req Request) (<-chan Result, error) {
	if _, err := s.grids.Grid(req.Modality); err != nil {
		return nil, err
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	j := &job{ctx: ctx, req: req, out: make(chan Result, 1)}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.stopped {
		return nil, ErrServiceStopped
	}
	select {
	case s.queue <- j:
		return j.out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrServiceStopped
	}
}

// FindPath ставит запрос в очередь и ждёт результат
func (s *Service) FindPath(ctx context.Context, req Request) (Result, error) {
	out, err := s.Submit(ctx, req)
	if err != nil {
		return Result{}, err
	}
	select {
	case res := <-out:
		return res, res.Err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			j.out <- s.process(ctx, j)
		}
	}
}

// process выполняет один запрос: проверка зон, затем поиск квантами
func (s *Service) process(ctx context.Context, j *job) (res Result) {
	start := time.Now()
	req := j.req
	res = Result{RequestID: req.ID, Modality: req.Modality}

	spanCtx, span := s.tracer.Start(j.ctx, "pathing.FindPath", trace.WithAttributes(
		attribute.String("pathing.request_id", req.ID),
		attribute.String("pathing.modality", req.Modality.String()),
		attribute.String("pathing.start", req.Start.String()),
		attribute.String("pathing.goal", req.Goal.String()),
	))
	defer span.End()

	defer func() {
		res.Elapsed = time.Since(start)
		modality := req.Modality.String()
		searchesTotal.WithLabelValues(modality, string(res.Status)).Inc()
		searchDuration.WithLabelValues(modality).Observe(res.Elapsed.Seconds())
		searchExpandedNodes.WithLabelValues(modality).Observe(float64(res.Stats.Expanded))
		span.SetAttributes(
			attribute.String("pathing.status", string(res.Status)),
			attribute.Int("pathing.expanded", res.Stats.Expanded),
			attribute.Int("pathing.restarts", res.Restarts),
		)
		if res.Err != nil {
			span.SetStatus(codes.Error, res.Err.Error())
		}
	}()

	grid, err := s.grids.Grid(req.Modality)
	if err != nil {
		res.Status = StatusNoPath
		res.Err = err
		return res
	}

	// Версия читается до проверки зон: изменение между ними заметит цикл поиска
	version := grid.Version()
	if !grid.IsPathPossible(req.Start, req.Goal) {
		res.Status = StatusNoPath
		logger.Debug("Путь %s→%s (%s) невозможен по зонам", req.Start, req.Goal, req.Modality)
		return res
	}

	pf := NewPathfinder(grid, WithInflation(s.cfg.Inflation))
	defer pf.Close()
	pf.Reset(req.Start, req.Goal)

	for {
		if err := spanCtx.Err(); err != nil {
			res.Status, res.Err = StatusCancelled, err
			break
		}
		if ctx.Err() != nil {
			res.Status, res.Err = StatusCancelled, ErrServiceStopped
			break
		}

		found := pf.Advance(s.cfg.NodeBudget)

		if v := grid.Version(); v != version && res.Restarts < s.cfg.MaxRestarts {
			version = v
			res.Restarts++
			searchRestarts.WithLabelValues(req.Modality.String()).Inc()
			span.AddEvent("grid changed, restarting search")
			if !grid.IsPathPossible(req.Start, req.Goal) {
				res.Status = StatusNoPath
				break
			}
			pf.Reset(req.Start, req.Goal)
			continue
		}

		if found {
			res.Status = StatusFound
			res.Path = pf.ExtractVectorPath()
			break
		}
		if pf.Exhausted() {
			res.Status = StatusNoPath
			if StableVersion(version) && grid.Version() == version {
				grid.reportViolation("fringe_exhausted", "поиск %s→%s исчерпан при положительной проверке зон (%d узлов)",
					req.Start, req.Goal, pf.Stats().Expanded)
			}
			break
		}

		runtime.Gosched()
	}

	res.Stats = pf.Stats()
	return res
}
