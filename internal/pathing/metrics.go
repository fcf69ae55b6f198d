package pathing

import "github.com/prometheus/client_golang/prometheus"

// Метрики поиска пути и сопровождения сеток. Регистрируются один раз
// в глобальном регистре Prometheus.
var (
	searchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pathing",
		Name:      "searches_total",
		Help:      "Число завершённых запросов пути по результату.",
	}, []string{"modality", "result"})

	searchExpandedNodes = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pathing",
		Name:      "search_expanded_nodes",
		Help:      "Количество раскрытых узлов за один поиск.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	}, []string{"modality"})

	searchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pathing",
		Name:      "search_duration_seconds",
		Help:      "Длительность обработки запроса пути.",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"modality"})

	searchRestarts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pathing",
		Name:      "search_restarts_total",
		Help:      "Поиски, перезапущенные из-за изменения сетки.",
	}, []string{"modality"})

	invariantViolations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pathing",
		Name:      "invariant_violations_total",
		Help:      "Нарушения согласованности зон и рёбер сетки.",
	}, []string{"modality", "kind"})

	dirtyCoordinates = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pathing",
		Name:      "dirty_coordinates_total",
		Help:      "Обработанные грязные координаты.",
	}, []string{"modality"})

	zoneRebuilds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pathing",
		Name:      "zone_rebuilds_total",
		Help:      "Перестроения зон по видам: full, split, equivalence.",
	}, []string{"modality", "kind"})

	gridBuildDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pathing",
		Name:      "grid_build_duration_seconds",
		Help:      "Длительность полной постройки сетки.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"modality"})
)

func init() {
	prometheus.MustRegister(
		searchesTotal,
		searchExpandedNodes,
		searchDuration,
		searchRestarts,
		invariantViolations,
		dirtyCoordinates,
		zoneRebuilds,
		gridBuildDuration,
	)
}
