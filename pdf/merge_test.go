package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"pdf_reducer/pdf/pdftest"
)

// writeChunks writes one PDF per entry of sizes, named like compressed chunks, with page
// widths continuing across files. It returns the paths in sequence order.
func writeChunks(t *testing.T, dir string, ns Namespace, sizes []int) []string {
	t.Helper()
	width := SequenceWidth(len(sizes))
	paths := make([]string, len(sizes))
	first := 1
	for i, n := range sizes {
		chunk := filepath.Join(dir, ChunkName(ns, i, width))
		paths[i] = pdftest.Write(t, CompressedPath(ns, chunk), pdftest.Options{Pages: n, FirstPage: first})
		first += n
	}
	return paths
}

func assertPageOrder(t *testing.T, path string, pages []int) {
	t.Helper()
	widths := pageWidths(t, path)
	if len(widths) != len(pages) {
		t.Fatalf("%s has %d pages, want %d", path, len(widths), len(pages))
	}
	for i, p := range pages {
		if widths[i] != pdftest.WidthOfPage(p) {
			t.Fatalf("%s: position %d holds page width %v, want page %d", path, i, widths[i], p)
		}
	}
}

func seq(from, to int) []int {
	var out []int
	for p := from; p <= to; p++ {
		out = append(out, p)
	}
	return out
}

func TestMerge_SingleBatchWithMetadata(t *testing.T) {
	dir := t.TempDir()
	inputs := writeChunks(t, dir, "abcd1234", []int{10, 10, 5})
	output := filepath.Join(dir, "out.pdf")
	meta := Metadata{"Title": "Annual Report", "Author": "Finance", "Keywords": "pdf, reduce"}

	var progress []string
	m := &Merger{
		Dir:       dir,
		Namespace: "abcd1234",
		Progress: func(batch, batches, done, total int) {
			progress = append(progress, fmt.Sprintf("%d/%d %d/%d", batch, batches, done, total))
		},
	}
	res, err := m.Merge(context.Background(), inputs, output, meta)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.Pages != 25 {
		t.Errorf("pages = %d, want 25", res.Pages)
	}
	if len(res.Batches) != 1 || res.FailedBatches() != 0 {
		t.Errorf("unexpected batches %+v", res.Batches)
	}
	if len(progress) != 1 || progress[0] != "1/1 3/3" {
		t.Errorf("unexpected progress %v", progress)
	}
	assertPageOrder(t, output, seq(1, 25))

	got, err := ReadMetadata(output)
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range meta {
		if got[k] != v {
			t.Errorf("metadata %s = %q, want %q", k, got[k], v)
		}
	}

	if _, err := os.Stat(StagingPath("abcd1234", output)); !os.IsNotExist(err) {
		t.Errorf("staging file left behind: %v", err)
	}
}

func TestMerge_BatchesOfFifty(t *testing.T) {
	dir := t.TempDir()
	sizes := make([]int, 120)
	for i := range sizes {
		sizes[i] = 1
	}
	inputs := writeChunks(t, dir, "abcd1234", sizes)
	output := filepath.Join(dir, "out.pdf")

	var done []int
	m := &Merger{
		BatchSize: 50,
		Dir:       dir,
		Namespace: "abcd1234",
		Progress:  func(_, _, n, _ int) { done = append(done, n) },
	}
	res, err := m.Merge(context.Background(), inputs, output, nil)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	wantSizes := []int{50, 50, 20}
	if len(res.Batches) != len(wantSizes) {
		t.Fatalf("got %d batches, want %d", len(res.Batches), len(wantSizes))
	}
	for i, b := range res.Batches {
		if b.Index != i || len(b.Inputs) != wantSizes[i] {
			t.Errorf("batch %d: index %d with %d inputs", i, b.Index, len(b.Inputs))
		}
		if want := filepath.Join(dir, BatchName("abcd1234", i)); b.Path != want {
			t.Errorf("batch %d path %q, want %q", i, b.Path, want)
		}
	}
	if fmt.Sprint(done) != "[50 100 120]" {
		t.Errorf("unexpected progress %v", done)
	}
	assertPageOrder(t, output, seq(1, 120))
}

func TestMerge_SortsInputsByName(t *testing.T) {
	dir := t.TempDir()
	inputs := writeChunks(t, dir, "abcd1234", []int{2, 3, 1})
	shuffled := []string{inputs[2], inputs[0], inputs[1]}
	output := filepath.Join(dir, "out.pdf")

	m := &Merger{BatchSize: 2, Dir: dir, Namespace: "abcd1234"}
	if _, err := m.Merge(context.Background(), shuffled, output, nil); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	assertPageOrder(t, output, seq(1, 6))
}

func TestMerge_NothingToCombine(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out.pdf")

	m := &Merger{Dir: dir, Namespace: "abcd1234"}
	_, err := m.Merge(context.Background(), nil, output, Metadata{"Title": "x"})
	if !errors.Is(err, ErrNothingToCombine) {
		t.Fatalf("expected ErrNothingToCombine, got %v", err)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Errorf("output should not exist: %v", err)
	}
}

func TestMerge_FailedBatchIsSkipped(t *testing.T) {
	dir := t.TempDir()
	inputs := writeChunks(t, dir, "abcd1234", []int{1, 1, 1, 1, 1, 1})
	// Corrupt a chunk of the second batch.
	if err := os.WriteFile(inputs[3], []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "out.pdf")

	var done []int
	m := &Merger{
		BatchSize: 2,
		Dir:       dir,
		Namespace: "abcd1234",
		Progress:  func(_, _, n, _ int) { done = append(done, n) },
	}
	res, err := m.Merge(context.Background(), inputs, output, nil)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(done) != 2 || done[0] != 2 || done[1] != 6 {
		t.Errorf("progress should skip the failed batch, got %v", done)
	}
	if res.FailedBatches() != 1 || res.Batches[1].Err == nil {
		t.Fatalf("expected batch 1 to fail, got %+v", res.Batches)
	}
	if _, err := os.Stat(res.Batches[1].Path); !os.IsNotExist(err) {
		t.Errorf("failed batch file should be removed: %v", err)
	}
	assertPageOrder(t, output, []int{1, 2, 5, 6})
}

func TestMerge_EveryBatchFails(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "abcd1234_reduced_abcd1234_page_0000.pdf")
	other := filepath.Join(dir, "abcd1234_reduced_abcd1234_page_0001.pdf")
	for _, p := range []string{bad, other} {
		if err := os.WriteFile(p, []byte("garbage"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	output := filepath.Join(dir, "out.pdf")

	progressed := false
	m := &Merger{Dir: dir, Namespace: "abcd1234", Progress: func(_, _, _, _ int) { progressed = true }}
	res, err := m.Merge(context.Background(), []string{bad, other}, output, nil)
	if !errors.Is(err, ErrNoBatchMerged) {
		t.Fatalf("expected ErrNoBatchMerged, got %v", err)
	}
	if res.FailedBatches() != 1 {
		t.Errorf("failed batches = %d, want 1", res.FailedBatches())
	}
	if progressed {
		t.Error("progress reported for a failed batch")
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Errorf("output should not exist: %v", err)
	}
}
