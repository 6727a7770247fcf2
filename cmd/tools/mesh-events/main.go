package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"slices"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/annel0/voxel-terrain/internal/eventbus"
	"github.com/annel0/voxel-terrain/internal/logging"
	"github.com/annel0/voxel-terrain/internal/protocol"
	"github.com/annel0/voxel-terrain/internal/protocol/events"
	"github.com/annel0/voxel-terrain/internal/vec"
)

const (
	defaultNatsURL = "nats://127.0.0.1:4222"
	timeFormat     = "15:04:05.000"
)

func main() {
	var (
		natsURL    = flag.String("nats", defaultNatsURL, "NATS server URL")
		stream     = flag.String("stream", "TERRAIN_EVENTS", "JetStream stream name")
		command    = flag.String("cmd", "tail", "Command: tail, stats")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		duration   = flag.Duration("duration", 10*time.Second, "How long stats collects events")
		limit      = flag.Int("limit", 0, "Stop tail after N events (0 = unlimited)")
		decode     = flag.Bool("decode", false, "Decode geometry payloads and verify vertex counts")
	)
	flag.Parse()

	if *command != "tail" && *command != "stats" {
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, stats")
		os.Exit(1)
	}

	bus, err := eventbus.NewJetStreamBus(*natsURL, *stream, 0)
	if err != nil {
		log.Fatalf("❌ Failed to connect to NATS: %v", err)
	}
	defer bus.Close()

	var codec *protocol.GeometryCodec
	if *decode {
		codec, err = protocol.NewGeometryCodec()
		if err != nil {
			log.Fatalf("❌ Failed to create codec: %v", err)
		}
		defer codec.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	filter := eventbus.Filter{Types: parseStringList(*eventTypes), Sources: []string{events.Source}}

	switch *command {
	case "tail":
		err = tailEvents(ctx, bus, filter, os.Stdout, codec, *limit)
	case "stats":
		err = collectStats(ctx, bus, filter, os.Stdout, *duration)
	}
	if err != nil {
		log.Fatalf("❌ %s failed: %v", *command, err)
	}
}

// tailEvents печатает события до сигнала или лимита
func tailEvents(ctx context.Context, bus eventbus.EventBus, filter eventbus.Filter, out io.Writer, codec *protocol.GeometryCodec, limit int) error {
	fmt.Fprintf(out, "🎬 Tailing terrain events (limit: %d)\n", limit)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu    sync.Mutex
		count int
	)
	sub, err := bus.Subscribe(ctx, filter, func(_ context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		defer mu.Unlock()
		if limit > 0 && count >= limit {
			return
		}
		printEvent(out, ev, codec)
		count++
		if limit > 0 && count >= limit {
			cancel()
		}
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, "\n📊 Total events: %d\n", count)
	return nil
}

// eventStats агрегаты по событиям за окно наблюдения
type eventStats struct {
	mu       sync.Mutex
	byType   map[string]int
	byChunk  map[vec.Vec3]int
	vertices int
}

func newEventStats() *eventStats {
	return &eventStats{byType: make(map[string]int), byChunk: make(map[vec.Vec3]int)}
}

func (s *eventStats) add(ev *eventbus.Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byType[ev.EventType]++

	if ev.EventType == string(events.EventTypeTerrainCleared) {
		return
	}
	var msg events.MeshEvent
	if err := json.Unmarshal(ev.Payload, &msg); err != nil {
		return
	}
	s.byChunk[msg.Chunk]++
	s.vertices += msg.Vertices
}

func (s *eventStats) print(out io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	types := make([]string, 0, len(s.byType))
	for t, n := range s.byType {
		types = append(types, t)
		total += n
	}
	slices.Sort(types)

	fmt.Fprintf(out, "Total events: %d\n", total)
	fmt.Fprintln(out, "\nBy event type:")
	for _, t := range types {
		fmt.Fprintf(out, "  %s: %d events\n", t, s.byType[t])
	}

	chunks := make([]vec.Vec3, 0, len(s.byChunk))
	for c := range s.byChunk {
		chunks = append(chunks, c)
	}
	slices.SortFunc(chunks, vec.Vec3.Compare)

	fmt.Fprintf(out, "\nChunks touched: %d, vertices meshed: %d\n", len(chunks), s.vertices)
	for _, c := range chunks {
		fmt.Fprintf(out, "  (%d, %d, %d): %d\n", c.X, c.Y, c.Z, s.byChunk[c])
	}
}

// collectStats считает события в течение window и печатает сводку
func collectStats(ctx context.Context, bus eventbus.EventBus, filter eventbus.Filter, out io.Writer, window time.Duration) error {
	fmt.Fprintf(out, "📊 Collecting terrain events for %v\n", window)

	stats := newEventStats()
	sub, err := bus.Subscribe(ctx, filter, func(_ context.Context, ev *eventbus.Envelope) {
		stats.add(ev)
	})
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-time.After(window):
	}
	sub.Unsubscribe()

	stats.print(out)
	return nil
}

// printEvent выводит событие в читаемом формате
func printEvent(out io.Writer, ev *eventbus.Envelope, codec *protocol.GeometryCodec) {
	fmt.Fprintf(out, "[%s] %s tick=%s [%s] %s\n",
		ev.Timestamp.Format(timeFormat),
		ev.Source,
		ev.CorrelationID,
		ev.EventType,
		ev.ID)

	if ev.EventType == string(events.EventTypeTerrainCleared) {
		return
	}

	var msg events.MeshEvent
	if err := json.Unmarshal(ev.Payload, &msg); err != nil {
		fmt.Fprintf(out, "  ⚠️ bad payload: %v\n", err)
		return
	}
	fmt.Fprintf(out, "  Chunk: (%d,%d,%d) Mesh: %s\n", msg.Chunk.X, msg.Chunk.Y, msg.Chunk.Z, msg.MeshID)
	if ev.EventType != string(events.EventTypeChunkMeshed) {
		return
	}
	fmt.Fprintf(out, "  Vertices: %d Bounds: %v..%v Payload: %dB\n",
		msg.Vertices, msg.Bounds.Min, msg.Bounds.Max, len(msg.Geometry))

	if codec == nil || len(msg.Geometry) == 0 {
		return
	}
	geometry, err := codec.Decode(msg.Geometry)
	switch {
	case err != nil:
		fmt.Fprintf(out, "  ⚠️ geometry decode failed: %v\n%s", err, logging.HexDump(msg.Geometry))
	case geometry.VertexCount() != msg.Vertices:
		fmt.Fprintf(out, "  ⚠️ vertex count mismatch: payload %d, geometry %d\n", msg.Vertices, geometry.VertexCount())
	default:
		fmt.Fprintf(out, "  Geometry OK: %d triangles\n", geometry.TriangleCount())
	}
}

// parseStringList парсит строку с разделителями-запятыми
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
