package sim

import (
	"time"

	"github.com/annel0/voxel-terrain/internal/world"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics Prometheus-метрики прохода мешера
type Metrics struct {
	passes       prometheus.Counter
	remeshed     prometheus.Counter
	removed      prometheus.Counter
	passDuration prometheus.Histogram
	chunks       prometheus.Gauge
	meshes       prometheus.Gauge
	vertices     prometheus.Gauge
}

// NewMetrics создаёт метрики и регистрирует их в reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "terrain",
			Name:      "mesh_passes_total",
			Help:      "Количество проходов мешера.",
		}),
		remeshed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "terrain",
			Name:      "chunks_remeshed_total",
			Help:      "Чанков, геометрия которых была перестроена.",
		}),
		removed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "terrain",
			Name:      "chunks_mesh_removed_total",
			Help:      "Мешей, удалённых после опустения или очистки чанков.",
		}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "terrain",
			Name:      "mesh_pass_duration_seconds",
			Help:      "Длительность прохода мешера.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		chunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "terrain",
			Name:      "chunks",
			Help:      "Чанков в разреженной карте.",
		}),
		meshes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "terrain",
			Name:      "meshes",
			Help:      "Мешей в кэше ландшафта.",
		}),
		vertices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "terrain",
			Name:      "last_pass_vertices",
			Help:      "Вершин, сгенерированных последним проходом.",
		}),
	}

	reg.MustRegister(m.passes, m.remeshed, m.removed, m.passDuration, m.chunks, m.meshes, m.vertices)
	return m
}

// ObservePass записывает результат одного прохода
func (m *Metrics) ObservePass(d time.Duration, events []world.MeshEvent, chunks, meshes int) {
	m.passes.Inc()
	m.passDuration.Observe(d.Seconds())

	vertices := 0
	for _, e := range events {
		if e.Kind == world.MeshRemoved {
			m.removed.Inc()
			continue
		}
		m.remeshed.Inc()
		vertices += e.Mesh.Geometry.VertexCount()
	}
	m.vertices.Set(float64(vertices))
	m.chunks.Set(float64(chunks))
	m.meshes.Set(float64(meshes))
}
