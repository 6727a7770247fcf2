package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxel-terrain/internal/api"
	"github.com/annel0/voxel-terrain/internal/config"
	"github.com/annel0/voxel-terrain/internal/eventbus"
	"github.com/annel0/voxel-terrain/internal/logging"
	"github.com/annel0/voxel-terrain/internal/middleware"
	"github.com/annel0/voxel-terrain/internal/observability"
	"github.com/annel0/voxel-terrain/internal/protocol"
	"github.com/annel0/voxel-terrain/internal/scene"
	"github.com/annel0/voxel-terrain/internal/sim"
	"github.com/annel0/voxel-terrain/internal/world"
	"github.com/annel0/voxel-terrain/internal/world/tile"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (иначе VOXEL_CONFIG)")
	issueToken := flag.String("issue-token", "", "выпустить токен правки для субъекта и выйти")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "срок действия выпускаемого токена")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if *issueToken != "" {
		token, err := api.IssueToken(cfg.Server.GetJWTSecret(), *issueToken, true, *tokenTTL)
		if err != nil {
			log.Fatalf("❌ Ошибка выпуска токена: %v", err)
		}
		fmt.Println(token)
		return
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("❌ Ошибка конфигурации логирования: %v", err)
	}
	if cfg.Logging.File {
		if err := logging.InitDefaultLogger("server", level); err != nil {
			log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
		}
	} else {
		logging.SetDefaultLogger(logging.NewWriterLogger("server", os.Stdout, level))
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	if err := run(cfg, level); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
	logging.Info("👋 Сервер успешно остановлен")
}

// componentLogger логгер компонента: с файлом под logs/ или только консоль
func componentLogger(cfg *config.Config, level logging.LogLevel, component string) *logging.Logger {
	if !cfg.Logging.File {
		return logging.NewWriterLogger(component, os.Stdout, level)
	}
	manager := logging.GetLoggerManager()
	logger := manager.MustGetLogger(component)
	if err := manager.SetLogLevel(component, level, logging.TRACE); err != nil {
		logging.Warn("Не удалось выставить уровень логгера %s: %v", component, err)
	}
	return logger
}

func run(cfg *config.Config, level logging.LogLevel) error {
	logging.Info("🧱 Запуск сервера воксельного ландшафта...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === ТЕЛЕМЕТРИЯ ===
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, cfg.Telemetry.ServiceName)
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logging.Warn("Ошибка остановки телеметрии: %v", err)
			}
		}()
	}

	policy, err := tile.ParseOcclusionPolicy(cfg.Terrain.Occlusion)
	if err != nil {
		return fmt.Errorf("terrain.occlusion: %w", err)
	}

	// === ЛАНДШАФТ ===
	terrain := world.NewTerrain()
	if cfg.Generator.Enabled {
		gen := world.NewWorldGenerator(cfg.Generator.Seed)
		gen.BaseHeight = cfg.Generator.BaseHeight
		gen.Amplitude = cfg.Generator.Amplitude
		if cfg.Generator.NoiseScale > 0 {
			gen.NoiseScale = cfg.Generator.NoiseScale
		}
		start := time.Now()
		written := gen.GenerateArea(terrain, cfg.Generator.Radius)
		logging.Info("🌄 Сгенерировано %d тайлов в %d чанках за %v (сид %d)",
			written, terrain.ChunkCount(), time.Since(start), gen.Seed)
	}

	// === МЕТРИКИ ===
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// === ШИНА СОБЫТИЙ ===
	bus, err := newEventBus(cfg.EventBus)
	if err != nil {
		return err
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Warn("Ошибка закрытия шины событий: %v", err)
		}
	}()

	listener, err := eventbus.StartLoggingListener(ctx, bus)
	if err != nil {
		return fmt.Errorf("logging listener: %w", err)
	}
	defer listener.Unsubscribe()

	exporter := eventbus.NewMetricsExporter(bus, registry)
	go exporter.Run(ctx)

	codec, err := protocol.NewGeometryCodec()
	if err != nil {
		return err
	}
	defer codec.Close()

	// === ЦИКЛ МЕШЕРА ===
	meshScene := scene.New()
	loop := sim.NewLoop(sim.Options{
		Logger:   componentLogger(cfg, level, "mesher"),
		Terrain:  terrain,
		Mesher:   world.NewMesher(policy),
		Factory:  meshScene,
		Bus:      bus,
		Codec:    codec,
		Metrics:  sim.NewMetrics(registry),
		Interval: cfg.Sim.TickInterval(),
	})
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		loop.Run(ctx)
	}()

	// === HTTP ===
	gin.SetMode(gin.ReleaseMode)
	restAddr := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	jwtSecret := cfg.Server.GetJWTSecret()
	if len(jwtSecret) == 0 {
		logging.Warn("⚠️ server.jwt_secret не задан: правка через инспектор отключена")
	}
	inspector := api.NewInspectorServer(api.Config{
		Addr:        restAddr,
		Loop:        loop,
		Codec:       codec,
		Scene:       meshScene,
		Registry:    registry,
		Logger:      componentLogger(cfg, level, "inspector"),
		ServiceName: cfg.Telemetry.ServiceName,

		JWTSecret:      jwtSecret,
		AllowedOrigins: cfg.Server.CORSOrigins,
	})

	metricsAddr := fmt.Sprintf(":%d", cfg.Server.GetMetricsPort())
	metricsRouter := gin.New()
	metricsRouter.Use(gin.Recovery())
	middleware.RegisterMetricsEndpoint(metricsRouter, registry)
	metricsServer := &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- inspector.Start()
	}()
	go func() {
		logging.Info("📊 Prometheus метрики: http://localhost%s/metrics", metricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics listen %s: %w", metricsAddr, err)
			return
		}
		errCh <- nil
	}()

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🔎 Инспектор: http://localhost%s/api/stats", restAddr)
	logging.Info("   ❤️  Health check: http://localhost%s/health", restAddr)
	logging.Info("   ⏱️ Тиков в секунду: %d, политика граней: %s", cfg.Sim.TickRate, policy)

	var runErr error
	select {
	case <-ctx.Done():
		logging.Info("📡 Получен сигнал завершения, останавливаем сервисы...")
	case runErr = <-errCh:
		stop()
	}

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := inspector.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки инспектора: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки сервера метрик: %v", err)
	}
	<-loopDone
	<-exporter.Done()

	return runErr
}

func newEventBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	if cfg.URL == "" {
		logging.Info("🚌 Шина событий в памяти (буфер %d)", cfg.Buffer)
		return eventbus.NewMemoryBus(cfg.Buffer), nil
	}

	retention := time.Duration(cfg.Retention) * time.Hour
	bus, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, retention)
	if err != nil {
		return nil, fmt.Errorf("event bus %s: %w", cfg.URL, err)
	}
	logging.Info("🚌 JetStream шина %s, стрим %s", cfg.URL, cfg.Stream)
	return bus, nil
}
