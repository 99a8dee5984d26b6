package reducer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"pdf_reducer/pdf"
)

func TestMain(m *testing.M) {
	api.DisableConfigDir()
	os.Exit(m.Run())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// copyCompressor stands in for ghostscript: it copies each chunk to its compressed path and
// deletes the input, failing for the sequence numbers in fail.
type copyCompressor struct {
	fail map[int]bool

	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
	// corrupt writes unreadable compressed chunks.
	corrupt bool
}

func (c *copyCompressor) CompressChunk(_ context.Context, chunk pdf.Chunk, ns pdf.Namespace) pdf.ChunkResult {
	c.calls.Add(1)
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		m := c.maxSeen.Load()
		if n <= m || c.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	if c.delay > 0 {
		time.Sleep(c.delay)
	}

	res := pdf.ChunkResult{Chunk: chunk}
	if c.fail[chunk.Seq] {
		res.Status = pdf.ChunkFailed
		res.Tool = pdf.ToolResult{Status: pdf.ToolFailed, ExitCode: 1}
		res.Err = fmt.Errorf("compress %s: exit status 1", chunk.Path)
		return res
	}

	data, err := os.ReadFile(chunk.Path)
	if err != nil {
		res.Status = pdf.ChunkFailed
		res.Err = err
		return res
	}
	if c.corrupt {
		data = []byte("garbage")
	}
	out := pdf.CompressedPath(ns, chunk.Path)
	if err := os.WriteFile(out, data, 0o644); err != nil {
		res.Status = pdf.ChunkFailed
		res.Err = err
		return res
	}
	os.Remove(chunk.Path)
	res.Status = pdf.ChunkCompressed
	res.Output = out
	return res
}

// pageWidths returns the MediaBox width of every page of the PDF at path.
func pageWidths(t *testing.T, path string) []float64 {
	t.Helper()
	dims, err := api.PageDimsFile(path)
	if err != nil {
		t.Fatalf("page dims of %s: %v", path, err)
	}
	widths := make([]float64, len(dims))
	for i, d := range dims {
		widths[i] = d.Width
	}
	return widths
}

// leftovers lists files in dir that carry the namespace.
func leftovers(t *testing.T, dir string, ns pdf.Namespace) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, string(ns)+"_*"))
	if err != nil {
		t.Fatal(err)
	}
	return matches
}
