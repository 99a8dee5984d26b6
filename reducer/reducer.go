package reducer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pdf_reducer/pdf"
)

// Reducer runs the split, compress and merge pipeline for one input file at a time.
type Reducer struct {
	cfg        Config
	log        *slog.Logger
	compressor ChunkCompressor
	report     *Reporter
	metrics    *Metrics
}

// Option customises a Reducer.
type Option func(*Reducer)

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Reducer) { r.log = log }
}

// WithCompressor replaces the ghostscript compressor.
func WithCompressor(c ChunkCompressor) Option {
	return func(r *Reducer) { r.compressor = c }
}

// WithProgress sets where operator progress is printed.
func WithProgress(w io.Writer) Option {
	return func(r *Reducer) { r.report = NewReporter(w) }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(r *Reducer) { r.metrics = m }
}

// New validates cfg and builds a Reducer.
func New(cfg Config, opts ...Option) (*Reducer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Reducer{
		cfg:     cfg,
		log:     slog.Default(),
		report:  NewReporter(os.Stdout),
		metrics: NewMetrics(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.compressor == nil {
		r.compressor = &pdf.Compressor{
			Binary:   cfg.Ghostscript.Binary,
			Timeout:  cfg.Ghostscript.Timeout(),
			Settings: cfg.Ghostscript.Settings(),
		}
	}
	if cfg.Breaker.Enabled {
		r.compressor = newBreakerCompressor(r.compressor, cfg.Breaker, r.log)
	}
	return r, nil
}

// Config returns the validated configuration.
func (r *Reducer) Config() Config { return r.cfg }

// Run reduces input into the configured output. Chunk and batch failures are recorded in
// the summary and do not fail the run; a missing or unreadable input, or a failed final
// merge, does. Temporary files are removed in every case.
func (r *Reducer) Run(ctx context.Context, input string) (*Summary, error) {
	start := time.Now()
	sum := &Summary{
		RunID: uuid.NewString(),
		Input: input,
	}

	if err := validateInput(input); err != nil {
		if errors.Is(err, ErrInputMissing) {
			r.report.Printf("Error: file '%s' does not exist.\n", input)
		} else {
			r.report.Printf("Error: %v\n", err)
		}
		return sum, err
	}
	if info, err := os.Stat(input); err == nil {
		sum.InputBytes = info.Size()
	}

	ns, err := pdf.NewNamespace(r.cfg.NamespaceLength)
	if err != nil {
		return sum, err
	}
	sum.Namespace = ns
	log := r.log.With("run_id", sum.RunID, "namespace", string(ns))

	if err := os.MkdirAll(r.cfg.WorkDir, DefaultDirPermissions); err != nil {
		return sum, fmt.Errorf("create work dir %s: %w", r.cfg.WorkDir, err)
	}

	log.Info("run started", "input", input, "output", r.cfg.Output,
		"chunk_size", r.cfg.ChunkSize, "processes", r.cfg.Processes)

	m := newManifest()
	runErr := r.run(ctx, log, ns, input, m, sum)

	sum.Cleanup = cleanup(log, m, ns, r.cfg.WorkDir, filepath.Dir(r.cfg.Output))
	sum.Duration = time.Since(start)

	r.metrics.ObserveSummary(sum)
	if r.cfg.MetricsFile != "" {
		if err := r.metrics.WriteFile(r.cfg.MetricsFile); err != nil {
			log.Warn("could not write metrics", "path", r.cfg.MetricsFile, "error", err)
		}
	}

	if runErr != nil {
		log.Error("run failed", "error", runErr, "duration", sum.Duration)
		return sum, runErr
	}
	log.Info("run finished",
		"output", sum.Output,
		"source_pages", sum.SourcePages,
		"output_pages", sum.OutputPages,
		"chunks_failed", sum.ChunksFailed(),
		"batches_failed", sum.BatchesFailed(),
		"removed", sum.Cleanup.Removed,
		"duration", sum.Duration)
	return sum, nil
}

func (r *Reducer) run(ctx context.Context, log *slog.Logger, ns pdf.Namespace, input string, m *manifest, sum *Summary) error {
	split, err := pdf.SplitPDF(ctx, input, pdf.SplitOptions{
		ChunkSize: r.cfg.ChunkSize,
		Dir:       r.cfg.WorkDir,
		Namespace: ns,
	})
	if split != nil {
		for _, c := range split.Chunks {
			m.add(c.Path)
		}
		sum.SourcePages = split.PageCount
	}
	if err != nil {
		r.report.Printf("Error splitting PDF file: %v\n", err)
		return fmt.Errorf("split: %w", err)
	}
	log.Info("split complete", "pages", split.PageCount, "chunks", len(split.Chunks))

	sum.Chunks = r.compressAll(ctx, log, ns, split.Chunks)

	var inputs []string
	for _, res := range sum.Chunks {
		r.metrics.ObserveChunk(res)
		if res.Status == pdf.ChunkCompressed {
			m.add(res.Output)
			inputs = append(inputs, res.Output)
			continue
		}
		if !r.cfg.FallbackUncompressed {
			continue
		}
		// Promote the original chunk into its compressed slot so name order stays page order.
		slot := pdf.CompressedPath(ns, res.Chunk.Path)
		m.add(slot)
		if err := os.Rename(res.Chunk.Path, slot); err != nil {
			log.Warn("fallback failed", "chunk", res.Chunk.Path, "error", err)
			continue
		}
		inputs = append(inputs, slot)
		sum.Fallback = append(sum.Fallback, res.Chunk.Seq)
	}

	if len(inputs) > 0 {
		r.report.Printf("Combining %d files...\n", len(inputs))
	}
	merger := &pdf.Merger{
		BatchSize: r.cfg.BatchSize,
		Dir:       r.cfg.WorkDir,
		Namespace: ns,
		Logger:    log,
		Progress: func(batch, batches, done, total int) {
			r.report.Printf("\nProcessing batch %d/%d\n", batch, batches)
			r.report.Printf("Progress: %d/%d files processed\n", done, total)
		},
	}
	res, err := merger.Merge(ctx, inputs, r.cfg.Output, split.Metadata)
	if res != nil {
		m.add(res.Created...)
		sum.Batches = res.Batches
		for _, b := range res.Batches {
			r.metrics.ObserveBatch(b)
			if b.Err != nil {
				r.report.Printf("Error in batch %d: %v\n", b.Index+1, b.Err)
			}
		}
	}
	if errors.Is(err, pdf.ErrNothingToCombine) {
		sum.NothingToCombine = true
		log.Warn("no compressed chunks to combine", "chunks", len(sum.Chunks))
		r.report.Printf("No PDF files to combine.\n")
		return nil
	}
	if errors.Is(err, pdf.ErrNoBatchMerged) {
		sum.NothingToCombine = true
		log.Warn("every merge batch failed", "batches", len(sum.Batches))
		r.report.Printf("No batch could be merged; nothing to combine.\n")
		return nil
	}
	if err != nil {
		r.report.Printf("Error combining PDF files: %v\n", err)
		return fmt.Errorf("merge: %w", err)
	}

	sum.Output = res.Output
	sum.OutputPages = res.Pages
	if info, err := os.Stat(res.Output); err == nil {
		sum.OutputBytes = info.Size()
	}
	r.report.Printf("Combination completed successfully.\n")

	if missing := sum.MissingPages(); missing > 0 {
		log.Warn("output is missing pages", "missing", missing, "source_pages", sum.SourcePages)
		r.report.Printf("Warning: %d of %d pages are missing from the output because their chunks could not be processed.\n",
			missing, sum.SourcePages)
	}
	r.report.Printf("Process complete. Reduced file saved as: %s\n", sum.Output)
	return nil
}

// compressAll runs the compressor over chunks with at most Processes concurrent tool
// processes and waits for every one of them. Results are indexed like chunks.
func (r *Reducer) compressAll(ctx context.Context, log *slog.Logger, ns pdf.Namespace, chunks []pdf.Chunk) []pdf.ChunkResult {
	results := make([]pdf.ChunkResult, len(chunks))

	var g errgroup.Group
	g.SetLimit(r.cfg.Processes)
	for i, chunk := range chunks {
		g.Go(func() error {
			res := r.compressor.CompressChunk(ctx, chunk, ns)
			results[i] = res

			if res.Status == pdf.ChunkCompressed {
				log.Debug("chunk compressed", "chunk", chunk.Path, "pages", chunk.Pages.String(),
					"duration", res.Tool.Duration)
				return nil
			}
			log.Error("chunk compression failed", "chunk", chunk.Path, "pages", chunk.Pages.String(),
				"status", res.Status.String(), "exit_code", res.Tool.ExitCode, "error", res.Err)
			r.report.Printf("Error processing %s: %v\n", filepath.Base(chunk.Path), res.Err)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
