package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var (
	// ErrNothingToCombine is returned when the merger receives no compressed chunks.
	ErrNothingToCombine = errors.New("nothing to combine")
	// ErrNoBatchMerged is returned when every batch failed, so there is no final document.
	ErrNoBatchMerged = errors.New("no batch could be merged")
)

// BatchResult reports the merge of one batch of compressed chunks.
type BatchResult struct {
	Index  int
	Inputs []string
	Path   string
	Err    error
}

// MergeResult describes a merge run. Created lists every temporary file the merger wrote,
// including those of failed batches, so the caller can remove them.
type MergeResult struct {
	Batches []BatchResult
	Created []string
	Output  string
	Pages   int
}

// FailedBatches counts batches excluded from the final document.
func (r *MergeResult) FailedBatches() int {
	n := 0
	for _, b := range r.Batches {
		if b.Err != nil {
			n++
		}
	}
	return n
}

// ProgressFunc is called after each successfully merged batch with the number of input
// files handled so far.
type ProgressFunc func(batch, batches, done, total int)

// Merger combines compressed chunks into one document in bounded-size batches.
type Merger struct {
	BatchSize int
	Dir       string
	Namespace Namespace
	Progress  ProgressFunc
	Logger    *slog.Logger
}

// Merge combines inputs, in file name order, into output and applies meta to the result.
// The output is written to a staging file first and renamed into place, so a failed final
// merge leaves no partial output behind.
func (m *Merger) Merge(ctx context.Context, inputs []string, output string, meta Metadata) (*MergeResult, error) {
	res := &MergeResult{}
	if len(inputs) == 0 {
		return res, ErrNothingToCombine
	}

	log := m.Logger
	if log == nil {
		log = slog.Default()
	}
	size := m.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	files := append([]string(nil), inputs...)
	sort.Strings(files)

	total := len(files)
	batches := (total + size - 1) / size
	var merged []string

	for i := 0; i < total; i += size {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		idx := i / size
		batch := BatchResult{
			Index:  idx,
			Inputs: files[i:min(i+size, total)],
			Path:   filepath.Join(m.Dir, BatchName(m.Namespace, idx)),
		}
		res.Created = append(res.Created, batch.Path)

		if err := mergeFiles(batch.Inputs, batch.Path); err != nil {
			batch.Err = fmt.Errorf("merge batch %d: %w", idx, err)
			log.Error("batch merge failed", "batch", idx, "files", len(batch.Inputs), "error", err)
			os.Remove(batch.Path)
			res.Batches = append(res.Batches, batch)
			continue
		}
		merged = append(merged, batch.Path)
		res.Batches = append(res.Batches, batch)

		if m.Progress != nil {
			m.Progress(idx+1, batches, min(i+size, total), total)
		}
	}

	if len(merged) == 0 {
		return res, ErrNoBatchMerged
	}

	staging := StagingPath(m.Namespace, output)
	res.Created = append(res.Created, staging)

	pages, err := writeFinal(merged, staging, meta)
	if err != nil {
		os.Remove(staging)
		return res, fmt.Errorf("merge %s: %w", output, err)
	}
	if err := os.Rename(staging, output); err != nil {
		os.Remove(staging)
		return res, fmt.Errorf("move %s to %s: %w", staging, output, err)
	}

	res.Output = output
	res.Pages = pages
	return res, nil
}

// mergeFiles concatenates the pages of paths into out.
func mergeFiles(paths []string, out string) error {
	f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, FileMode)
	if err != nil {
		return err
	}
	if err := mergeInto(paths, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func mergeInto(paths []string, w io.Writer) error {
	if len(paths) == 1 {
		f, err := os.Open(paths[0])
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	}

	readers := make([]io.ReadSeeker, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeAll(readers)
			return err
		}
		readers = append(readers, f)
	}
	defer closeAll(readers)

	return api.MergeRaw(readers, w, false, newConfiguration())
}

func closeAll(readers []io.ReadSeeker) {
	for _, r := range readers {
		if c, ok := r.(io.Closer); ok {
			c.Close()
		}
	}
}

// writeFinal merges the batch files, applies the preserved part of meta and writes the
// result to path.
// It returns the page count of the written document.
func writeFinal(batches []string, path string, meta Metadata) (int, error) {
	var buf bytes.Buffer
	if err := mergeInto(batches, &buf); err != nil {
		return 0, err
	}

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(buf.Bytes()), newConfiguration())
	if err != nil {
		return 0, fmt.Errorf("reread merged document: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, err
	}
	if err := applyInfo(ctx, meta.Preserved()); err != nil {
		return 0, err
	}

	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, FileMode)
	if err != nil {
		return 0, err
	}
	if err := api.WriteContext(ctx, out); err != nil {
		out.Close()
		return 0, err
	}
	if err := out.Close(); err != nil {
		return 0, err
	}
	return ctx.PageCount, nil
}
