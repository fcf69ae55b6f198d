package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/annel0/voxel-pathing/internal/eventbus"
	"github.com/annel0/voxel-pathing/internal/logging"
	"github.com/annel0/voxel-pathing/internal/middleware"
	"github.com/annel0/voxel-pathing/internal/pathing"
	"github.com/annel0/voxel-pathing/internal/world"
	"github.com/annel0/voxel-pathing/internal/world/block"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// eventSource имя источника событий REST API
const eventSource = "pathd-api"

// WorldEditor описывает операции с миром, доступные через API
type WorldEditor interface {
	GetBlock(c world.MapCoordinate) (block.BlockID, bool)
	SetBlock(c world.MapCoordinate, id block.BlockID) bool
	Dig(c world.MapCoordinate) bool
	TakePathingDirtyChunks() []world.ChunkCoord
}

// RestServer представляет REST API сервиса поиска пути
type RestServer struct {
	router  *gin.Engine
	httpSrv *http.Server
	service *pathing.Service
	world   WorldEditor
	metrics *ServerMetrics
	logger  *logging.Logger
	port    string
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port     string               // адрес для запуска сервера, например ":8088"
	Service  *pathing.Service     // планировщик запросов пути
	World    WorldEditor          // редактируемый мир
	Registry *prometheus.Registry // регистр HTTP-метрик; nil: глобальный
	Logger   *logging.Logger      // логгер запросов; nil: глобальный
}

// Point содержит координаты ячейки в запросах и ответах
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (p Point) coordinate() world.MapCoordinate {
	return world.At(p.X, p.Y, p.Z)
}

func pointOf(c world.MapCoordinate) Point {
	v := c.Vec3()
	return Point{X: v.X, Y: v.Y, Z: v.Z}
}

// PathRequest структура запроса пути
type PathRequest struct {
	ID       string `json:"id"`
	Modality string `json:"modality"`
	Start    Point  `json:"start"`
	Goal     Point  `json:"goal"`
}

// PathResponse содержит найденный путь или причина его отсутствия
type PathResponse struct {
	RequestID   string              `json:"request_id"`
	Modality    string              `json:"modality"`
	Status      pathing.Status      `json:"status"`
	Complete    bool                `json:"complete"`
	Cost        float64             `json:"cost"`
	Directions  []string            `json:"directions,omitempty"`
	Coordinates []Point             `json:"coordinates,omitempty"`
	Stats       pathing.SearchStats `json:"stats"`
	Restarts    int                 `json:"restarts"`
	ElapsedMS   float64             `json:"elapsed_ms"`
}

// ZoneResponse содержит сведения о ячейке сетки
type ZoneResponse struct {
	Modality    string   `json:"modality"`
	Cell        Point    `json:"cell"`
	Zone        uint32   `json:"zone"`
	Equivalence uint32   `json:"equivalence"`
	Directions  []string `json:"directions"`
}

// BlockRequest описывает изменение блока мира
type BlockRequest struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z"`
	Block string `json:"block"`
}

// BlockChanged полезная нагрузка события EventBlockChanged
type BlockChanged struct {
	Cell  Point  `json:"cell"`
	Block string `json:"block"`
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	// === Observability middleware ===
	router.Use(otelgin.Middleware("pathd"))
	router.Use(middleware.NewRequestLogger(config.Logger).Handler())

	promMw := middleware.NewPrometheusMiddleware("pathd", config.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:  router,
		service: config.Service,
		world:   config.World,
		metrics: NewServerMetrics(),
		logger:  config.Logger,
		port:    config.Port,
	}
	server.httpSrv = &http.Server{
		Addr:              config.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	server.setupRoutes()
	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	{
		api.POST("/path", rs.handleFindPath)
		api.GET("/zone", rs.handleZone)
		api.GET("/reachable", rs.handleReachable)
		api.GET("/stats", rs.handleStats)
	}

	worldGroup := api.Group("/world")
	{
		worldGroup.POST("/dig", rs.handleDig)
		worldGroup.POST("/build", rs.handleBuild)
		worldGroup.GET("/refresh", rs.handleRefresh)
	}
}

// Handler возвращает HTTP-обработчик сервера
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

func (rs *RestServer) fail(c *gin.Context, status int, format string, args ...interface{}) {
	c.JSON(status, GenericResponse{Success: false, Message: fmt.Sprintf(format, args...)})
}

// grid возвращает сетку способа передвижения из параметра запроса
func (rs *RestServer) grid(name string) (*pathing.Grid, error) {
	modality, err := pathing.ParseModality(name)
	if err != nil {
		return nil, err
	}
	return rs.service.Grids().Grid(modality)
}

// handleFindPath выполняет поиск пути через планировщик
func (rs *RestServer) handleFindPath(c *gin.Context) {
	var req PathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		rs.fail(c, http.StatusBadRequest, "Неверный JSON: %v", err)
		return
	}

	modality, err := pathing.ParseModality(req.Modality)
	if err != nil {
		rs.fail(c, http.StatusBadRequest, "%v", err)
		return
	}

	res, err := rs.service.FindPath(c.Request.Context(), pathing.Request{
		ID:       req.ID,
		Modality: modality,
		Start:    req.Start.coordinate(),
		Goal:     req.Goal.coordinate(),
	})
	switch {
	case errors.Is(err, pathing.ErrUnknownModality):
		rs.fail(c, http.StatusBadRequest, "%v", err)
		return
	case errors.Is(err, pathing.ErrServiceStopped):
		rs.fail(c, http.StatusServiceUnavailable, "Сервис остановлен")
		return
	case err != nil:
		rs.fail(c, http.StatusRequestTimeout, "Запрос прерван: %v", err)
		return
	}

	resp := newPathResponse(res)
	rs.publish(c.Request.Context(), eventbus.EventPathComputed, res.RequestID, resp)

	if res.Status == pathing.StatusCancelled {
		rs.fail(c, http.StatusRequestTimeout, "Запрос отменён")
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: string(res.Status),
		Data:    resp,
	})
}

func newPathResponse(res pathing.Result) PathResponse {
	resp := PathResponse{
		RequestID: res.RequestID,
		Modality:  res.Modality.String(),
		Status:    res.Status,
		Stats:     res.Stats,
		Restarts:  res.Restarts,
		ElapsedMS: float64(res.Elapsed.Microseconds()) / 1000,
	}
	if res.Path != nil {
		resp.Complete = res.Path.Complete
		resp.Cost = res.Path.Cost
		resp.Directions = make([]string, len(res.Path.Directions))
		for i, d := range res.Path.Directions {
			resp.Directions[i] = d.String()
		}
		for _, coord := range res.Path.Coordinates() {
			resp.Coordinates = append(resp.Coordinates, pointOf(coord))
		}
	}
	return resp
}

// handleZone возвращает зону и рёбра ячейки
func (rs *RestServer) handleZone(c *gin.Context) {
	g, err := rs.grid(c.Query("modality"))
	if err != nil {
		rs.fail(c, http.StatusBadRequest, "%v", err)
		return
	}
	p, err := queryPoint(c)
	if err != nil {
		rs.fail(c, http.StatusBadRequest, "%v", err)
		return
	}

	cell := p.coordinate()
	mask := g.DirectionEdgeSet(cell)
	dirs := make([]string, 0)
	for _, d := range world.AngularDirections {
		if mask&d.Bit() != 0 {
			dirs = append(dirs, d.String())
		}
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Зона ячейки",
		Data: ZoneResponse{
			Modality:    g.Modality().String(),
			Cell:        p,
			Zone:        g.ConnectivityZone(cell),
			Equivalence: g.ZoneEquivalence(cell),
			Directions:  dirs,
		},
	})
}

// handleReachable проверяет связность двух ячеек без поиска пути
func (rs *RestServer) handleReachable(c *gin.Context) {
	g, err := rs.grid(c.Query("modality"))
	if err != nil {
		rs.fail(c, http.StatusBadRequest, "%v", err)
		return
	}
	from, err := parsePoint(c.Query("from"))
	if err != nil {
		rs.fail(c, http.StatusBadRequest, "from: %v", err)
		return
	}
	to, err := parsePoint(c.Query("to"))
	if err != nil {
		rs.fail(c, http.StatusBadRequest, "to: %v", err)
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Проверка связности",
		Data: gin.H{
			"modality": g.Modality().String(),
			"possible": g.IsPathPossible(from.coordinate(), to.coordinate()),
		},
	})
}

// handleDig выкапывает блок
func (rs *RestServer) handleDig(c *gin.Context) {
	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		rs.fail(c, http.StatusBadRequest, "Неверный JSON: %v", err)
		return
	}

	p := Point{X: req.X, Y: req.Y, Z: req.Z}
	if !rs.world.Dig(p.coordinate()) {
		rs.fail(c, http.StatusConflict, "Блок %v нельзя выкопать", p)
		return
	}

	rs.publish(c.Request.Context(), eventbus.EventBlockChanged, "", BlockChanged{Cell: p, Block: "Air"})
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Блок выкопан", Data: p})
}

// handleBuild ставит блок
func (rs *RestServer) handleBuild(c *gin.Context) {
	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		rs.fail(c, http.StatusBadRequest, "Неверный JSON: %v", err)
		return
	}

	id, ok := block.Lookup(req.Block)
	if !ok {
		rs.fail(c, http.StatusBadRequest, "Неизвестный блок %q", req.Block)
		return
	}

	p := Point{X: req.X, Y: req.Y, Z: req.Z}
	if !rs.world.SetBlock(p.coordinate(), id) {
		rs.fail(c, http.StatusConflict, "Блок %v не изменён: чанк не загружен или блок уже стоит", p)
		return
	}

	rs.publish(c.Request.Context(), eventbus.EventBlockChanged, "", BlockChanged{Cell: p, Block: req.Block})
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Блок установлен", Data: p})
}

// handleRefresh отдаёт и сбрасывает чанки с устаревшей визуализацией проходимости
func (rs *RestServer) handleRefresh(c *gin.Context) {
	chunks := rs.world.TakePathingDirtyChunks()
	if chunks == nil {
		chunks = []world.ChunkCoord{}
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Чанки для обновления",
		Data:    gin.H{"chunks": chunks},
	})
}

// handleStats возвращает статистику сеток и процесса
func (rs *RestServer) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data: gin.H{
			"grids":   rs.service.Grids().Stats(),
			"process": rs.metrics.Snapshot(),
		},
	})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
		"uptime": rs.metrics.Uptime().String(),
	})
}

func (rs *RestServer) publish(ctx context.Context, eventType, correlationID string, payload any) {
	ev, err := eventbus.NewEnvelope(eventType, eventSource, payload)
	if err != nil {
		rs.logError("Ошибка события %s: %v", eventType, err)
		return
	}
	ev.CorrelationID = correlationID
	if err := eventbus.Publish(ctx, ev); err != nil {
		rs.logError("Событие %s не опубликовано: %v", eventType, err)
	}
}

func (rs *RestServer) logError(format string, args ...interface{}) {
	if rs.logger != nil {
		rs.logger.Error(format, args...)
		return
	}
	logging.Error(format, args...)
}

// queryPoint читает координаты из параметров x, y, z
func queryPoint(c *gin.Context) (Point, error) {
	var p Point
	for _, f := range []struct {
		name string
		dst  *int
	}{{"x", &p.X}, {"y", &p.Y}, {"z", &p.Z}} {
		v, err := strconv.Atoi(c.Query(f.name))
		if err != nil {
			return Point{}, fmt.Errorf("параметр %s: %w", f.name, err)
		}
		*f.dst = v
	}
	return p, nil
}

// parsePoint разбирает координаты вида "x,y,z"
func parsePoint(s string) (Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Point{}, fmt.Errorf("ожидается x,y,z, получено %q", s)
	}
	var vals [3]int
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Point{}, fmt.Errorf("координата %q: %w", part, err)
		}
		vals[i] = v
	}
	return Point{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

// Start запускает REST сервер и блокируется до его остановки
func (rs *RestServer) Start() error {
	logging.Info("🌐 REST API запущен на %s", rs.port)
	if err := rs.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("REST сервер: %w", err)
	}
	return nil
}

// Stop плавно останавливает REST сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.httpSrv.Shutdown(ctx)
}
