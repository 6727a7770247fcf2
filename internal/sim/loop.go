// Package sim запускает тиковый цикл: раз в тик грязные чанки перестраиваются
// и результаты публикуются в шину событий.
package sim

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/annel0/voxel-terrain/internal/eventbus"
	"github.com/annel0/voxel-terrain/internal/logging"
	"github.com/annel0/voxel-terrain/internal/observability"
	"github.com/annel0/voxel-terrain/internal/protocol"
	"github.com/annel0/voxel-terrain/internal/protocol/events"
	"github.com/annel0/voxel-terrain/internal/world"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Options зависимости цикла. Bus, Codec, Metrics, Tracer и Logger необязательны.
type Options struct {
	Logger   *logging.Logger
	Terrain  *world.Terrain
	Mesher   *world.Mesher
	Factory  world.MeshFactory
	Bus      eventbus.EventBus
	Codec    *protocol.GeometryCodec
	Metrics  *Metrics
	Tracer   trace.Tracer
	Interval time.Duration
}

// Loop единственный писатель ландшафта. Внешние читатели и редакторы
// проходят через Read/Edit, которые берут общий RWMutex.
type Loop struct {
	mu      sync.RWMutex
	terrain *world.Terrain
	mesher  *world.Mesher
	factory world.MeshFactory

	bus      eventbus.EventBus
	codec    *protocol.GeometryCodec
	metrics  *Metrics
	tracer   trace.Tracer
	interval time.Duration
	logger   *logging.Logger

	tick uint64
}

// NewLoop создаёт цикл
func NewLoop(opts Options) *Loop {
	if opts.Tracer == nil {
		opts.Tracer = observability.Tracer()
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second / 20
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetMesherLogger()
	}
	return &Loop{
		terrain:  opts.Terrain,
		mesher:   opts.Mesher,
		factory:  opts.Factory,
		bus:      opts.Bus,
		codec:    opts.Codec,
		metrics:  opts.Metrics,
		tracer:   opts.Tracer,
		interval: opts.Interval,
		logger:   opts.Logger,
	}
}

// Run выполняет тики до отмены контекста
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Info("⏱️ Цикл мешера запущен (интервал %v, политика %s)", l.interval, l.mesher.Policy())
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Цикл мешера остановлен на тике %d", l.TickCount())
			return
		case <-ticker.C:
			l.Tick(ctx)
		}
	}
}

// Edit выполняет fn с эксклюзивным доступом к ландшафту
func (l *Loop) Edit(fn func(t *world.Terrain)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.terrain)
}

// Read выполняет fn с доступом только на чтение. fn не должна менять ландшафт.
func (l *Loop) Read(fn func(t *world.Terrain)) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn(l.terrain)
}

// TickCount номер последнего тика
func (l *Loop) TickCount() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tick
}

// Policy политика перекрытия граней мешера
func (l *Loop) Policy() string {
	return l.mesher.Policy().String()
}

// Clear очищает ландшафт; старые меши уберёт следующий проход
func (l *Loop) Clear(ctx context.Context) {
	var tick uint64
	l.Edit(func(t *world.Terrain) {
		t.Clear()
		tick = l.tick
	})
	l.logger.Info("🧹 Ландшафт очищен")
	l.publish(ctx, events.EventTypeTerrainCleared, tick, 6, []byte("{}"))
}

// Tick выполняет один проход мешера и публикует его результаты
func (l *Loop) Tick(ctx context.Context) []world.MeshEvent {
	ctx, span := l.tracer.Start(ctx, "terrain.mesh_pass")
	defer span.End()

	start := time.Now()

	l.mu.Lock()
	l.tick++
	tick := l.tick
	dirty := l.terrain.DirtyCount()
	meshEvents := l.mesher.Pass(l.terrain, l.factory)
	chunks, meshes := l.terrain.ChunkCount(), l.terrain.MeshCount()
	// Геометрия кодируется под блокировкой: следующий проход переиспользует буферы
	payloads := l.buildPayloads(tick, meshEvents)
	l.mu.Unlock()

	elapsed := time.Since(start)
	span.SetAttributes(
		attribute.Int64("terrain.tick", int64(tick)),
		attribute.Int("terrain.dirty_chunks", dirty),
		attribute.Int("terrain.mesh_events", len(meshEvents)),
		attribute.Int("terrain.chunks", chunks),
	)
	if l.metrics != nil {
		l.metrics.ObservePass(elapsed, meshEvents, chunks, meshes)
	}
	if len(meshEvents) > 0 {
		l.logger.Debug("Тик %d: %d грязных чанков, %d событий мешей за %v", tick, dirty, len(meshEvents), elapsed)
	}

	for i, e := range meshEvents {
		if payloads[i] == nil {
			continue
		}
		priority := 3
		if e.Kind == world.MeshRemoved {
			priority = 6 // Удаление нельзя терять
		}
		if err := l.publish(ctx, events.TypeFor(e.Kind), tick, priority, payloads[i]); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "publish failed")
		}
	}
	return meshEvents
}

func (l *Loop) buildPayloads(tick uint64, meshEvents []world.MeshEvent) [][]byte {
	if l.bus == nil {
		return make([][]byte, len(meshEvents))
	}
	payloads := make([][]byte, len(meshEvents))
	for i, e := range meshEvents {
		msg := events.MeshEvent{
			Tick:      tick,
			Chunk:     e.Chunk,
			MeshID:    e.Mesh.ID.String(),
			Placement: e.Mesh.Placement,
		}
		if e.Kind == world.MeshUpdated {
			msg.Vertices = e.Mesh.Geometry.VertexCount()
			msg.Bounds = e.Mesh.Bounds
			if l.codec != nil {
				data, err := l.codec.Encode(&e.Mesh.Geometry)
				if err != nil {
					l.logger.Error("Не удалось закодировать геометрию чанка %v: %v", e.Chunk, err)
				} else {
					msg.Geometry = data
				}
			}
		}
		data, err := json.Marshal(msg)
		if err != nil {
			l.logger.Error("Не удалось сериализовать событие чанка %v: %v", e.Chunk, err)
			continue
		}
		payloads[i] = data
	}
	return payloads
}

func (l *Loop) publish(ctx context.Context, eventType events.EventType, tick uint64, priority int, payload []byte) error {
	if l.bus == nil {
		return nil
	}
	ev := eventbus.NewEnvelope(events.Source, string(eventType), events.SchemaVersion, payload)
	ev.CorrelationID = strconv.FormatUint(tick, 10)
	ev.Priority = priority
	if err := l.bus.Publish(ctx, ev); err != nil {
		l.logger.Warn("Не удалось опубликовать %s: %v", eventType, err)
		return err
	}
	return nil
}
