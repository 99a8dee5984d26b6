package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/spf13/cobra"

	"pdf_reducer/logging"
	"pdf_reducer/pdf"
	"pdf_reducer/reducer"
)

// flagValues holds the raw command line values. Only flags the operator actually set
// override the file and environment configuration.
type flagValues struct {
	configPath  string
	output      string
	chunkSize   int
	processes   int
	batchSize   int
	workDir     string
	ghostscript string
	timeout     time.Duration
	logLevel    string
	logFormat   string
	metricsFile string
	fallback    bool
}

func newRootCommand() *cobra.Command {
	var fv flagValues

	cmd := &cobra.Command{
		Use:   "pdfreduce <input.pdf>",
		Short: "Reduce the size of a PDF by compressing it in page chunks",
		Long: `Splits the input into chunks of pages, compresses every chunk with ghostscript
in parallel and merges the results back into one file, keeping the document metadata.
Pages of chunks that fail to compress are left out unless --fallback-uncompressed is set.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, fv)
			if err != nil {
				return err
			}
			return runReduce(cmd, cfg, args[0])
		},
	}

	bindFlags(cmd, &fv)
	return cmd
}

func bindFlags(cmd *cobra.Command, fv *flagValues) {
	def := reducer.Defaults()
	flags := cmd.Flags()
	flags.StringVar(&fv.configPath, "config", "", "YAML configuration file (env PDFREDUCE_CONFIG)")
	flags.StringVarP(&fv.output, "output", "o", def.Output, "Output file")
	flags.IntVarP(&fv.chunkSize, "chunk-size", "c", def.ChunkSize, "Pages per chunk")
	flags.IntVarP(&fv.processes, "processes", "p", def.Processes, "Concurrent compression processes")
	flags.IntVarP(&fv.batchSize, "batch-size", "b", def.BatchSize, "Compressed chunks merged per batch")
	flags.StringVar(&fv.workDir, "work-dir", def.WorkDir, "Directory for temporary chunk and batch files")
	flags.StringVar(&fv.ghostscript, "gs", def.Ghostscript.Binary, "Ghostscript executable")
	flags.DurationVar(&fv.timeout, "timeout", def.Ghostscript.Timeout(), "Per-chunk compression timeout")
	flags.StringVar(&fv.logLevel, "log-level", def.LogLevel, "Log level: debug, info, warn, error")
	flags.StringVar(&fv.logFormat, "log-format", def.LogFormat, "Log format: text or json")
	flags.StringVar(&fv.metricsFile, "metrics-file", "", "Write prometheus metrics to this textfile")
	flags.BoolVar(&fv.fallback, "fallback-uncompressed", false, "Keep uncompressed pages of chunks that fail to compress")
}

// resolveConfig layers defaults, the YAML file, PDFREDUCE_* variables and explicitly set
// flags, in that order.
func resolveConfig(cmd *cobra.Command, fv flagValues) (reducer.Config, error) {
	cfg := reducer.Defaults()
	flags := cmd.Flags()

	// Zero means unset in the file and environment, but not on the command line.
	for name, v := range map[string]int{
		"chunk-size": fv.chunkSize,
		"processes":  fv.processes,
		"batch-size": fv.batchSize,
	} {
		if flags.Changed(name) && v <= 0 {
			return cfg, fmt.Errorf("invalid configuration: --%s must be positive, got %d", name, v)
		}
	}
	if flags.Changed("timeout") && fv.timeout < time.Second {
		return cfg, fmt.Errorf("invalid configuration: --timeout must be at least 1s, got %v", fv.timeout)
	}

	path := os.Getenv("PDFREDUCE_CONFIG")
	if flags.Changed("config") {
		path = fv.configPath
	}
	if path != "" {
		var err error
		if cfg, err = reducer.LoadFile(cfg, path); err != nil {
			return cfg, err
		}
	}
	cfg = reducer.ApplyEnv(cfg)

	if flags.Changed("output") {
		cfg.Output = fv.output
	}
	if flags.Changed("chunk-size") {
		cfg.ChunkSize = fv.chunkSize
	}
	if flags.Changed("processes") {
		cfg.Processes = fv.processes
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize = fv.batchSize
	}
	if flags.Changed("work-dir") {
		cfg.WorkDir = fv.workDir
	}
	if flags.Changed("gs") {
		cfg.Ghostscript.Binary = fv.ghostscript
	}
	if flags.Changed("timeout") {
		cfg.Ghostscript.TimeoutSeconds = int((fv.timeout + time.Second - 1) / time.Second)
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = fv.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = fv.logFormat
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = fv.metricsFile
	}
	if flags.Changed("fallback-uncompressed") {
		cfg.FallbackUncompressed = fv.fallback
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runReduce(cmd *cobra.Command, cfg reducer.Config, input string) error {
	ctx := cmd.Context()
	logger := logging.New(cmd.ErrOrStderr(), cfg.LogFormat, cfg.LogLevel)

	// Check ghostscript availability on startup
	if err := pdf.CheckTool(ctx, cfg.Ghostscript.Binary, "--version"); err != nil {
		return fmt.Errorf("ghostscript not available: %w. Please install ghostscript to continue", err)
	}
	logger.Debug("ghostscript is available", "binary", cfg.Ghostscript.Binary)

	r, err := reducer.New(cfg,
		reducer.WithLogger(logger),
		reducer.WithProgress(cmd.OutOrStdout()),
	)
	if err != nil {
		return err
	}

	sum, err := r.Run(ctx, input)
	if err != nil {
		return err
	}
	if sum.Written() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s → %s (%.1f%% smaller, %d/%d pages)\n",
			humanSize(sum.InputBytes), humanSize(sum.OutputBytes), sum.Reduction()*100,
			sum.OutputPages, sum.SourcePages)
	}
	return nil
}

func humanSize(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

func main() {
	api.DisableConfigDir()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
