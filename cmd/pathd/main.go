package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxel-pathing/internal/api"
	"github.com/annel0/voxel-pathing/internal/config"
	"github.com/annel0/voxel-pathing/internal/eventbus"
	"github.com/annel0/voxel-pathing/internal/logging"
	"github.com/annel0/voxel-pathing/internal/observability"
	"github.com/annel0/voxel-pathing/internal/pathing"
	"github.com/annel0/voxel-pathing/internal/storage"
	"github.com/annel0/voxel-pathing/internal/world"
	_ "github.com/annel0/voxel-pathing/internal/world/block/implementations"
	"golang.org/x/sync/errgroup"
)

const serviceName = "pathd"

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию $PATHING_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if cfg.Logging.ToFile {
		if err := logging.InitDefaultLogger(serviceName); err != nil {
			log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
		}
	}
	logging.SetDefaultLevels(logging.ParseLevel(cfg.Logging.ConsoleLevel), logging.ParseLevel(cfg.Logging.FileLevel))
	logging.ConfigureComponents(cfg.Logging.Components)

	code := 0
	if err := run(cfg); err != nil {
		logging.Error("❌ %v", err)
		code = 1
	}

	logging.CloseDefaultLogger()
	os.Exit(code)
}

func run(cfg *config.Config) error {
	logging.Info("🧭 Запуск сервиса поиска пути %s", serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === ТЕЛЕМЕТРИЯ ===
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, observability.Options{
			ServiceName: cfg.Telemetry.ServiceName,
			Endpoint:    cfg.Telemetry.GetEndpoint(),
			Insecure:    true,
		})
		if err != nil {
			logging.Warn("OpenTelemetry не инициализирован: %v", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logging.Warn("Ошибка остановки OpenTelemetry: %v", err)
				}
			}()
		}
	}

	// === ШИНА СОБЫТИЙ ===
	bus, err := newEventBus(cfg.EventBus)
	if err != nil {
		return err
	}
	defer bus.Close()
	eventbus.Init(bus)
	defer eventbus.Init(nil)

	if _, err := eventbus.StartLoggingListener(ctx, bus); err != nil {
		return fmt.Errorf("logging listener: %w", err)
	}
	exporter := eventbus.NewMetricsExporter(bus, nil)
	exporter.Start()
	defer exporter.Stop()

	// === МИР ===
	voxels := world.NewVoxelMap()
	regionMin := chunkCoord(cfg.World.RegionMin)
	regionMax := chunkCoord(cfg.World.RegionMax)
	world.NewWorldGenerator(cfg.World.Seed).GenerateRegion(voxels, regionMin, regionMax)
	logging.Info("🌍 Мир сгенерирован: seed=%d, чанки %s..%s", cfg.World.Seed, regionMin, regionMax)

	// Сигналы обновления визуализации проходят через шину и возвращаются в мир
	if _, err := eventbus.StartRefreshListener(ctx, bus, voxels); err != nil {
		return fmt.Errorf("refresh listener: %w", err)
	}

	// === СЕТКИ ===
	modalities, err := parseModalities(cfg.Pathing.Modalities)
	if err != nil {
		return err
	}
	var publishers []*eventbus.RefreshPublisher
	grids := pathing.NewGridSet(voxels, modalities,
		pathing.WithRefreshNotifierFor(func(m pathing.Modality) pathing.RefreshNotifier {
			p := eventbus.NewRefreshPublisher(bus, serviceName, m.String())
			publishers = append(publishers, p)
			return p
		}),
		pathing.WithBuildWorkers(cfg.Pathing.BuildWorkers),
	)

	store, err := storage.NewGridStore(cfg.Storage.DataPath)
	if err != nil {
		return err
	}
	defer store.Close()

	fingerprint := fmt.Sprintf("seed=%d region=%s..%s", cfg.World.Seed, regionMin, regionMax)
	if err := prepareGrids(ctx, cfg.Storage.WarmStart, store, grids, fingerprint); err != nil {
		return err
	}
	voxels.AddListener(grids)

	// === ПЛАНИРОВЩИК И API ===
	svc := pathing.NewService(grids, pathing.ServiceConfig{
		Workers:     cfg.Pathing.GetWorkers(),
		NodeBudget:  cfg.Pathing.GetNodeBudget(),
		QueueSize:   cfg.Pathing.QueueSize,
		Inflation:   cfg.Pathing.Inflation,
		MaxRestarts: cfg.Pathing.MaxRestarts,
	})

	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	server := api.NewRestServer(api.Config{
		Port:    restPort,
		Service: svc,
		World:   voxels,
		Logger:  logging.Component("api"),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(gctx) })
	for _, p := range publishers {
		p := p
		g.Go(func() error {
			p.Run(gctx)
			return nil
		})
	}
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Stop(shutdownCtx)
	})

	logging.Info("✅ Сервис запущен")
	logging.Info("   🌐 REST API: http://localhost%s/api", restPort)
	logging.Info("   ❤️  Health check: http://localhost%s/health", restPort)
	logging.Info("   📈 Метрики: http://localhost%s/metrics", restPort)

	err = g.Wait()
	logging.Info("👋 Сервис остановлен")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// newEventBus выбирает JetStream при заданном URL, иначе in-memory шину
func newEventBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	url := cfg.GetURL()
	if url == "" {
		logging.Info("📨 Используется in-memory шина событий")
		return eventbus.NewMemoryBus(cfg.Buffer), nil
	}

	bus, err := eventbus.NewJetStreamBus(url, cfg.Stream, cfg.RetentionDuration())
	if err != nil {
		return nil, err
	}
	logging.Info("📨 Подключена шина NATS JetStream %s", url)
	return bus, nil
}

// prepareGrids восстанавливает сетки из снимков, если отпечаток мира совпадает,
// иначе строит их заново и сохраняет снимки
func prepareGrids(ctx context.Context, warmStart bool, store *storage.GridStore, grids *pathing.GridSet, fingerprint string) error {
	if warmStart {
		saved, found, err := store.Meta("fingerprint")
		if err != nil {
			return err
		}
		if found && saved == fingerprint {
			restored := 0
			for _, m := range grids.Modalities() {
				g, err := grids.Grid(m)
				if err != nil {
					return err
				}
				ok, err := store.RestoreGrid(g)
				if err != nil {
					logging.Warn("Снимки сетки %s не восстановлены: %v", m, err)
					break
				}
				if !ok {
					break
				}
				restored++
			}
			if restored == len(grids.Modalities()) {
				logging.Info("♻️ Сетки восстановлены из снимков (%s)", fingerprint)
				return nil
			}
		}
	}

	start := time.Now()
	if err := grids.Build(ctx); err != nil {
		return err
	}
	logging.Info("🧱 Сетки построены за %s", time.Since(start))

	for _, m := range grids.Modalities() {
		g, err := grids.Grid(m)
		if err != nil {
			return err
		}
		if _, err := store.SaveGrid(g); err != nil {
			return err
		}
	}
	return store.SetMeta("fingerprint", fingerprint)
}

func parseModalities(names []string) ([]pathing.Modality, error) {
	result := make([]pathing.Modality, 0, len(names))
	for _, name := range names {
		m, err := pathing.ParseModality(name)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, nil
}

func chunkCoord(v [3]int32) world.ChunkCoord {
	return world.ChunkCoord{X: v[0], Y: v[1], Z: v[2]}
}
