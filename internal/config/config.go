package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации сервиса поиска пути.
type Config struct {
	Pathing   PathingConfig   `yaml:"pathing"`
	World     WorldConfig     `yaml:"world"`
	Storage   StorageConfig   `yaml:"storage"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// PathingConfig содержит параметры сеток и планировщика запросов
type PathingConfig struct {
	Modalities   []string `yaml:"modalities"`    // Пусто: все способы передвижения
	Workers      int      `yaml:"workers"`       // 0: по числу GOMAXPROCS
	NodeBudget   int      `yaml:"node_budget"`   // Раскрытий за один квант поиска
	QueueSize    int      `yaml:"queue_size"`
	Inflation    float64  `yaml:"inflation"`     // Множитель эвристики
	MaxRestarts  int      `yaml:"max_restarts"`  // Перезапусков при изменении мира
	BuildWorkers int      `yaml:"build_workers"` // Параллелизм полной постройки сетки
}

// WorldConfig содержит параметры генерации демонстрационного мира
type WorldConfig struct {
	Seed      int64    `yaml:"seed"`
	RegionMin [3]int32 `yaml:"region_min"` // Чанки, включительно
	RegionMax [3]int32 `yaml:"region_max"`
}

// StorageConfig задаёт каталог снимков сетки. Снимки построенных сеток
// сгенерированного мира переиспользуются, пока не изменились сид и регион.
type StorageConfig struct {
	DataPath  string `yaml:"data_path"`
	WarmStart bool   `yaml:"warm_start"`
}

// EventBusConfig настраивает шину событий. Пустой URL включает in-memory шину.
type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Buffer    int    `yaml:"buffer"`
}

type ServerConfig struct {
	RESTPort int `yaml:"rest_port"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"` // host:port OTLP HTTP
}

type LoggingConfig struct {
	ConsoleLevel string            `yaml:"console_level"`
	FileLevel    string            `yaml:"file_level"`
	ToFile       bool              `yaml:"to_file"`
	Components   map[string]string `yaml:"components"` // Уровни компонентов: pathing, storage, eventbus, api
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Pathing: PathingConfig{
			NodeBudget:  256,
			QueueSize:   1024,
			Inflation:   1.1,
			MaxRestarts: 8,
		},
		World: WorldConfig{
			Seed:      42,
			RegionMin: [3]int32{-2, -2, 0},
			RegionMax: [3]int32{1, 1, 1},
		},
		Storage: StorageConfig{
			DataPath:  "data",
			WarmStart: true,
		},
		EventBus: EventBusConfig{
			Stream:    "PATHING",
			Retention: 24,
			Buffer:    1024,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "pathd",
		},
		Logging: LoggingConfig{
			ConsoleLevel: "INFO",
			FileLevel:    "DEBUG",
		},
	}
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getIntWithEnvFallback(s.RESTPort, "PATHING_REST_PORT", 8088)
}

// GetURL возвращает адрес NATS: config -> env NATS_URL -> пусто (in-memory шина)
func (e *EventBusConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	return os.Getenv("NATS_URL")
}

// RetentionDuration возвращает срок хранения событий в стриме
func (e *EventBusConfig) RetentionDuration() time.Duration {
	return time.Duration(getIntWithEnvFallback(e.Retention, "PATHING_EVENT_RETENTION_HOURS", 24)) * time.Hour
}

// GetWorkers возвращает число воркеров планировщика (0: решает сервис)
func (p *PathingConfig) GetWorkers() int {
	return getIntWithEnvFallback(p.Workers, "PATHING_WORKERS", 0)
}

// GetNodeBudget возвращает квант раскрытий с поддержкой fallback значений
func (p *PathingConfig) GetNodeBudget() int {
	return getIntWithEnvFallback(p.NodeBudget, "PATHING_NODE_BUDGET", 256)
}

// GetEndpoint возвращает адрес OTLP-коллектора: config -> env -> localhost:4318
func (t *TelemetryConfig) GetEndpoint() string {
	if t.Endpoint != "" {
		return t.Endpoint
	}
	if env := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); env != "" {
		return env
	}
	return "localhost:4318"
}

// getIntWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getIntWithEnvFallback(configValue int, envVar string, defaultValue int) int {
	if configValue > 0 {
		return configValue
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if v, err := strconv.Atoi(envVal); err == nil && v > 0 {
			return v
		}
	}

	return defaultValue
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV PATHING_CONFIG или возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("PATHING_CONFIG")
		if path == "" {
			return cfg, nil // конфиг не задан — используем дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}

	return cfg, nil
}
