package reducer

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"pdf_reducer/pdf"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics()

	m.ObserveChunk(pdf.ChunkResult{Status: pdf.ChunkCompressed, Tool: pdf.ToolResult{Duration: time.Second}})
	m.ObserveChunk(pdf.ChunkResult{Status: pdf.ChunkCompressed, Tool: pdf.ToolResult{Duration: 2 * time.Second}})
	m.ObserveChunk(pdf.ChunkResult{Status: pdf.ChunkTimedOut})
	m.ObserveChunk(pdf.ChunkResult{Status: pdf.ChunkSkipped})
	m.ObserveBatch(pdf.BatchResult{Index: 0})
	m.ObserveBatch(pdf.BatchResult{Index: 1, Err: errors.New("boom")})
	m.ObserveSummary(&Summary{SourcePages: 30, OutputPages: 20, InputBytes: 1000, OutputBytes: 400, Duration: 3 * time.Second})

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"compressed", testutil.ToFloat64(m.chunksTotal.WithLabelValues("compressed")), 2},
		{"timed out", testutil.ToFloat64(m.chunksTotal.WithLabelValues("timed_out")), 1},
		{"skipped", testutil.ToFloat64(m.chunksTotal.WithLabelValues("skipped")), 1},
		{"merged batches", testutil.ToFloat64(m.batchesTotal.WithLabelValues("merged")), 1},
		{"failed batches", testutil.ToFloat64(m.batchesTotal.WithLabelValues("failed")), 1},
		{"source pages", testutil.ToFloat64(m.pages.WithLabelValues("source")), 30},
		{"output bytes", testutil.ToFloat64(m.bytes.WithLabelValues("output")), 400},
		{"run duration", testutil.ToFloat64(m.runDuration), 3},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	families, err := m.Gatherer().Gather()
	if err != nil {
		t.Fatal(err)
	}
	var samples uint64
	for _, f := range families {
		if f.GetName() == "pdfreduce_tool_duration_seconds" {
			samples = f.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	// Skipped chunks never ran the tool.
	if samples != 3 {
		t.Errorf("tool duration samples = %d, want 3", samples)
	}
}
