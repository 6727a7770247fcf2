// Package api HTTP-инспектор ландшафта: чтение и правка слотов, просмотр чанков и мешей.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/voxel-terrain/internal/logging"
	"github.com/annel0/voxel-terrain/internal/middleware"
	"github.com/annel0/voxel-terrain/internal/protocol"
	"github.com/annel0/voxel-terrain/internal/scene"
	"github.com/annel0/voxel-terrain/internal/sim"
	"github.com/annel0/voxel-terrain/internal/vec"
	"github.com/annel0/voxel-terrain/internal/world"
	"github.com/annel0/voxel-terrain/internal/world/tile"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// InspectorServer HTTP-инспектор поверх цикла мешера
type InspectorServer struct {
	router  *gin.Engine
	server  *http.Server
	loop    *sim.Loop
	codec   *protocol.GeometryCodec
	scene   *scene.Scene
	process *ProcessMetrics
	logger  *logging.Logger

	jwtSecret      []byte
	allowedOrigins []string
}

// Config содержит конфигурацию инспектора
type Config struct {
	Addr        string                  // адрес, например ":8088"
	Loop        *sim.Loop               // единственный путь к ландшафту
	Codec       *protocol.GeometryCodec // для ?format=zstd; без него бинарный экспорт недоступен
	Scene       *scene.Scene            // необязательно, для статистики мешей
	Registry    *prometheus.Registry    // метрики HTTP и /metrics
	Logger      *logging.Logger
	ServiceName string

	// JWTSecret подписывает токены правки; пустой секрет отключает правку
	JWTSecret      []byte
	AllowedOrigins []string // CORS: точные значения заголовка Origin
}

// GenericResponse общий формат ответа
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// TileRequest тело PUT /api/tiles/:x/:y/:z. Пустой kind очищает слот.
type TileRequest struct {
	Kind  string `json:"kind"`
	Color int    `json:"color"`
}

// TileResponse содержимое слота
type TileResponse struct {
	Position [3]int64 `json:"position"`
	Chunk    vec.Vec3 `json:"chunk"`
	Local    [3]uint8 `json:"local"`
	Kind     string   `json:"kind"`
	Color    *int     `json:"color,omitempty"`
	Empty    bool     `json:"empty"`
	Dirty    bool     `json:"dirty"`
}

// ChunkInfo сводка по чанку
type ChunkInfo struct {
	Chunk    vec.Vec3 `json:"chunk"`
	Occupied int      `json:"occupied"`
	Dirty    bool     `json:"dirty"`
	HasMesh  bool     `json:"has_mesh"`
}

// MeshInfo сводка по мешу без геометрии
type MeshInfo struct {
	ID          string        `json:"id"`
	Chunk       vec.Vec3      `json:"chunk"`
	Placement   vec.Vec3Float `json:"placement"`
	Vertices    int           `json:"vertices"`
	Triangles   int           `json:"triangles"`
	Bounds      world.AABB    `json:"bounds"`
	WorldBounds world.AABB    `json:"world_bounds"`
}

// TerrainStats сводка по ландшафту и процессу
type TerrainStats struct {
	Tick          uint64       `json:"tick"`
	Policy        string       `json:"policy"`
	Chunks        int          `json:"chunks"`
	DirtyChunks   int          `json:"dirty_chunks"`
	Meshes        int          `json:"meshes"`
	Vertices      int          `json:"vertices"`
	MeshesSpawned uint64       `json:"meshes_spawned"`
	MeshesDropped uint64       `json:"meshes_dropped"`
	Process       ProcessStats `json:"process"`
	ServerTime    int64        `json:"server_time"`
}

// NewInspectorServer создаёт инспектор и настраивает маршруты
func NewInspectorServer(config Config) *InspectorServer {
	if config.Addr == "" {
		config.Addr = ":8088"
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}
	if config.Logger == nil {
		config.Logger = logging.GetInspectorLogger()
	}
	if config.ServiceName == "" {
		config.ServiceName = "voxel-terrain"
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(middleware.NewRequestLogger().WithLogger(config.Logger).Handler())
	router.Use(otelgin.Middleware(config.ServiceName))

	promMw := middleware.NewPrometheusMiddleware("inspector", config.Registry)
	router.Use(promMw.Handler())
	middleware.RegisterMetricsEndpoint(router, config.Registry)

	s := &InspectorServer{
		router:  router,
		loop:    config.Loop,
		codec:   config.Codec,
		scene:   config.Scene,
		process: NewProcessMetrics(),
		logger:  config.Logger,

		jwtSecret:      config.JWTSecret,
		allowedOrigins: config.AllowedOrigins,
	}
	s.server = &http.Server{
		Addr:              config.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.setupRoutes()
	return s
}

// Handler http.Handler инспектора
func (s *InspectorServer) Handler() http.Handler {
	return s.router
}

// setupRoutes настраивает маршруты инспектора
func (s *InspectorServer) setupRoutes() {
	s.router.Use(s.corsMiddleware())

	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/tiles/:x/:y/:z", s.handleGetTile)
		api.GET("/chunks", s.handleChunks)
		api.GET("/meshes", s.handleMeshes)
		api.GET("/meshes/:cx/:cy/:cz", s.handleMesh)
		api.GET("/stats", s.handleStats)
	}

	// Правка ландшафта (требует JWT с правом правки)
	edit := api.Group("/")
	edit.Use(s.jwtMiddleware(), s.editorMiddleware())
	{
		edit.PUT("/tiles/:x/:y/:z", s.handlePutTile)
		edit.DELETE("/tiles/:x/:y/:z", s.handleDeleteTile)
		edit.POST("/terrain/clear", s.handleClear)
	}
}

// === СЛОТЫ ===

func parsePosition(c *gin.Context) (world.GlobalPos, error) {
	var xyz [3]int64
	for i, name := range []string{"x", "y", "z"} {
		v, err := strconv.ParseInt(c.Param(name), 10, 64)
		if err != nil {
			return world.GlobalPos{}, fmt.Errorf("координата %s: %w", name, err)
		}
		xyz[i] = v
	}
	return world.GlobalPosFromXYZ(xyz[0], xyz[1], xyz[2]), nil
}

func parseChunk(c *gin.Context) (vec.Vec3, error) {
	var xyz [3]int32
	for i, name := range []string{"cx", "cy", "cz"} {
		v, err := strconv.ParseInt(c.Param(name), 10, 32)
		if err != nil {
			return vec.Vec3{}, fmt.Errorf("координата %s: %w", name, err)
		}
		xyz[i] = int32(v)
	}
	return vec.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: err.Error()})
}

func describeTile(t *world.Terrain, pos world.GlobalPos) TileResponse {
	resp := TileResponse{
		Position: pos.XYZ(),
		Chunk:    pos.Chunk,
		Local:    pos.Local.XYZ(),
		Kind:     tile.KindEmpty.String(),
		Empty:    true,
		Dirty:    t.IsDirty(pos.Chunk),
	}
	if value, ok := t.Get(pos); ok {
		color := value.Color.Index()
		resp.Kind = value.Kind.String()
		resp.Color = &color
		resp.Empty = false
	}
	return resp
}

// handleGetTile возвращает содержимое слота
func (s *InspectorServer) handleGetTile(c *gin.Context) {
	pos, err := parsePosition(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	var resp TileResponse
	s.loop.Read(func(t *world.Terrain) {
		resp = describeTile(t, pos)
	})
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Слот прочитан", Data: resp})
}

func parseTile(req TileRequest) (tile.Tile, error) {
	if req.Kind == "" {
		return tile.Empty, nil
	}
	kind, ok := tile.ParseKind(req.Kind)
	if !ok {
		return tile.Empty, fmt.Errorf("неизвестный вид тайла %q", req.Kind)
	}
	if kind == tile.KindEmpty {
		return tile.Empty, nil
	}
	color, ok := tile.NewIndexedColor(req.Color)
	if !ok {
		return tile.Empty, fmt.Errorf("цвет %d вне палитры 0..%d", req.Color, tile.MaxColorIndex)
	}
	return tile.Tile{Kind: kind, Color: color}, nil
}

// handlePutTile записывает слот; пустой тайл удаляет содержимое
func (s *InspectorServer) handlePutTile(c *gin.Context) {
	pos, err := parsePosition(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	var req TileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, fmt.Errorf("неверное тело запроса: %w", err))
		return
	}
	value, err := parseTile(req)
	if err != nil {
		badRequest(c, err)
		return
	}

	var resp TileResponse
	s.loop.Edit(func(t *world.Terrain) {
		t.SetSlot(pos, value)
		resp = describeTile(t, pos)
	})
	s.logger.Debug("Слот %s <- %s (%s)", pos, value, c.GetString("subject"))
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Слот записан", Data: resp})
}

// handleDeleteTile очищает слот
func (s *InspectorServer) handleDeleteTile(c *gin.Context) {
	pos, err := parsePosition(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	var resp TileResponse
	s.loop.Edit(func(t *world.Terrain) {
		t.Remove(pos)
		resp = describeTile(t, pos)
	})
	s.logger.Debug("Слот %s очищен (%s)", pos, c.GetString("subject"))
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Слот очищен", Data: resp})
}

// === ЧАНКИ И МЕШИ ===

// handleChunks список существующих чанков
func (s *InspectorServer) handleChunks(c *gin.Context) {
	var chunks []ChunkInfo
	s.loop.Read(func(t *world.Terrain) {
		coords := t.ChunkCoords()
		chunks = make([]ChunkInfo, 0, len(coords))
		for _, cc := range coords {
			chunk, _ := t.Chunk(cc)
			_, hasMesh := t.Mesh(cc)
			chunks = append(chunks, ChunkInfo{
				Chunk:    cc,
				Occupied: chunk.Occupied(),
				Dirty:    t.IsDirty(cc),
				HasMesh:  hasMesh,
			})
		}
	})

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Список чанков получен",
		Data: map[string]interface{}{
			"chunks": chunks,
			"total":  len(chunks),
		},
	})
}

func describeMesh(m *world.Mesh) MeshInfo {
	return MeshInfo{
		ID:          m.ID.String(),
		Chunk:       m.Chunk,
		Placement:   m.Placement,
		Vertices:    m.Geometry.VertexCount(),
		Triangles:   m.Geometry.TriangleCount(),
		Bounds:      m.Bounds,
		WorldBounds: m.WorldBounds(),
	}
}

// handleMeshes список мешей без геометрии
func (s *InspectorServer) handleMeshes(c *gin.Context) {
	var meshes []MeshInfo
	s.loop.Read(func(t *world.Terrain) {
		coords := t.MeshCoords()
		meshes = make([]MeshInfo, 0, len(coords))
		for _, cc := range coords {
			m, _ := t.Mesh(cc)
			meshes = append(meshes, describeMesh(m))
		}
	})

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Список мешей получен",
		Data: map[string]interface{}{
			"meshes": meshes,
			"total":  len(meshes),
		},
	})
}

var errNoCodec = errors.New("бинарный экспорт недоступен: кодек не настроен")

// handleMesh меш чанка с геометрией: JSON или ?format=zstd
func (s *InspectorServer) handleMesh(c *gin.Context) {
	coords, err := parseChunk(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	compressed := c.Query("format") == "zstd"
	if compressed && s.codec == nil {
		c.JSON(http.StatusNotImplemented, GenericResponse{Success: false, Message: errNoCodec.Error()})
		return
	}

	// Следующий проход переиспользует буферы геометрии: кодируем под блокировкой
	var (
		body   []byte
		found  bool
		encErr error
	)
	s.loop.Read(func(t *world.Terrain) {
		m, ok := t.Mesh(coords)
		if !ok {
			return
		}
		found = true
		if compressed {
			body, encErr = s.codec.Encode(&m.Geometry)
			return
		}
		body, encErr = json.Marshal(GenericResponse{Success: true, Message: "Меш получен", Data: m})
	})

	if !found {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: fmt.Sprintf("меш чанка (%d, %d, %d) не найден", coords.X, coords.Y, coords.Z),
		})
		return
	}
	if encErr != nil {
		s.logger.Error("Не удалось закодировать меш %v: %v", coords, encErr)
		c.JSON(http.StatusInternalServerError, GenericResponse{Success: false, Message: encErr.Error()})
		return
	}

	if compressed {
		c.Data(http.StatusOK, "application/zstd", body)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// === УПРАВЛЕНИЕ ===

// handleClear очищает ландшафт
func (s *InspectorServer) handleClear(c *gin.Context) {
	s.loop.Clear(c.Request.Context())
	s.logger.Info("🧹 Ландшафт очищен (%s)", c.GetString("subject"))
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Ландшафт очищен"})
}

// handleStats возвращает статистику ландшафта и процесса
func (s *InspectorServer) handleStats(c *gin.Context) {
	stats := TerrainStats{
		Tick:       s.loop.TickCount(),
		Policy:     s.loop.Policy(),
		ServerTime: time.Now().Unix(),
	}
	s.loop.Read(func(t *world.Terrain) {
		stats.Chunks = t.ChunkCount()
		stats.DirtyChunks = t.DirtyCount()
		stats.Meshes = t.MeshCount()
		for _, cc := range t.MeshCoords() {
			m, _ := t.Mesh(cc)
			stats.Vertices += m.Geometry.VertexCount()
		}
	})
	if s.scene != nil {
		stats.MeshesSpawned, stats.MeshesDropped = s.scene.Stats()
	}
	stats.Process = s.process.Snapshot()

	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Статистика получена", Data: stats})
}

// handleHealth проверка живости
func (s *InspectorServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// Start запускает инспектор и блокируется до Stop
func (s *InspectorServer) Start() error {
	s.logger.Info("🔎 Инспектор слушает %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("inspector listen %s: %w", s.server.Addr, err)
	}
	return nil
}

// Stop корректно останавливает инспектор
func (s *InspectorServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
