package reducer

import (
	"github.com/prometheus/client_golang/prometheus"

	"pdf_reducer/pdf"
)

// Metrics collects per-run counters. A run is a batch job, so the registry is written to a
// textfile once at the end instead of being served.
type Metrics struct {
	registry *prometheus.Registry

	chunksTotal  *prometheus.CounterVec
	batchesTotal *prometheus.CounterVec
	pages        *prometheus.GaugeVec
	bytes        *prometheus.GaugeVec
	toolDuration prometheus.Histogram
	runDuration  prometheus.Gauge
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	chunksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfreduce",
			Name:      "chunks_total",
			Help:      "Chunks processed by compression outcome.",
		},
		[]string{"status"},
	)
	batchesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfreduce",
			Name:      "batches_total",
			Help:      "Merge batches by outcome.",
		},
		[]string{"status"},
	)
	pages := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pdfreduce",
			Name:      "pages",
			Help:      "Page counts of the source and output documents.",
		},
		[]string{"kind"},
	)
	bytes := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pdfreduce",
			Name:      "bytes",
			Help:      "File sizes of the source and output documents.",
		},
		[]string{"kind"},
	)
	toolDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pdfreduce",
			Name:      "tool_duration_seconds",
			Help:      "Wall-clock time of each compression tool invocation.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
	)
	runDuration := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pdfreduce",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock time of the whole run.",
		},
	)

	registry.MustRegister(chunksTotal, batchesTotal, pages, bytes, toolDuration, runDuration)

	return &Metrics{
		registry:     registry,
		chunksTotal:  chunksTotal,
		batchesTotal: batchesTotal,
		pages:        pages,
		bytes:        bytes,
		toolDuration: toolDuration,
		runDuration:  runDuration,
	}
}

func (m *Metrics) ObserveChunk(res pdf.ChunkResult) {
	m.chunksTotal.WithLabelValues(res.Status.String()).Inc()
	if res.Status != pdf.ChunkSkipped {
		m.toolDuration.Observe(res.Tool.Duration.Seconds())
	}
}

func (m *Metrics) ObserveBatch(b pdf.BatchResult) {
	status := "merged"
	if b.Err != nil {
		status = "failed"
	}
	m.batchesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveSummary(s *Summary) {
	m.pages.WithLabelValues("source").Set(float64(s.SourcePages))
	m.pages.WithLabelValues("output").Set(float64(s.OutputPages))
	m.bytes.WithLabelValues("source").Set(float64(s.InputBytes))
	m.bytes.WithLabelValues("output").Set(float64(s.OutputBytes))
	m.runDuration.Set(s.Duration.Seconds())
}

// WriteFile writes the registry in the text exposition format, atomically.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// Gatherer exposes the registry, mainly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
