package pdf

import (
	"context"
	"fmt"
	"os"
	"time"
)

// CompressionSettings are the ghostscript options that trade quality for size.
type CompressionSettings struct {
	Preset             string
	Resolution         int
	CompatibilityLevel string
}

// ScreenSettings reproduces ghostscript's screen-quality output at 72 DPI.
func ScreenSettings() CompressionSettings {
	return CompressionSettings{
		Preset:             DefaultPreset,
		Resolution:         DefaultImageResolution,
		CompatibilityLevel: DefaultCompatibilityLevel,
	}
}

// Args builds the ghostscript command line that compresses in into out.
func (s CompressionSettings) Args(in, out string) []string {
	res := s.Resolution
	if res <= 0 {
		res = DefaultImageResolution
	}
	preset := s.Preset
	if preset == "" {
		preset = DefaultPreset
	}
	level := s.CompatibilityLevel
	if level == "" {
		level = DefaultCompatibilityLevel
	}

	return []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=" + level,
		"-dPDFSETTINGS=" + preset,
		"-dNOPAUSE",
		"-dBATCH",
		"-dQUIET",
		"-dMaxBitmap=10000000",
		"-dBufferSpace=64M",
		fmt.Sprintf("-dColorImageResolution=%d", res),
		fmt.Sprintf("-dGrayImageResolution=%d", res),
		fmt.Sprintf("-dMonoImageResolution=%d", res),
		"-dAutoRotatePages=/None",
		"-dOptimize=true",
		"-sOutputFile=" + out,
		in,
	}
}

// ChunkStatus is the outcome of compressing one chunk.
type ChunkStatus int

const (
	ChunkCompressed ChunkStatus = iota
	ChunkFailed
	ChunkTimedOut
	ChunkSkipped
)

func (s ChunkStatus) String() string {
	switch s {
	case ChunkCompressed:
		return "compressed"
	case ChunkFailed:
		return "failed"
	case ChunkTimedOut:
		return "timed_out"
	case ChunkSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// ChunkResult reports what happened to one chunk. Output is empty unless Status is ChunkCompressed.
type ChunkResult struct {
	Chunk  Chunk
	Status ChunkStatus
	Output string
	Tool   ToolResult
	Err    error
}

// Compressor runs ghostscript on chunk files. It holds no mutable state and is safe for
// concurrent use on distinct chunks.
type Compressor struct {
	Binary   string
	Timeout  time.Duration
	Settings CompressionSettings
}

// CompressChunk writes the compressed sibling of chunk.Path. The uncompressed chunk is
// deleted on success and left in place on failure.
func (c *Compressor) CompressChunk(ctx context.Context, chunk Chunk, ns Namespace) ChunkResult {
	res := ChunkResult{Chunk: chunk}
	out := CompressedPath(ns, chunk.Path)

	binary := c.Binary
	if binary == "" {
		binary = DefaultGhostscript
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultCLITimeout
	}

	res.Tool = runTool(ctx, timeout, binary, c.Settings.Args(chunk.Path, out)...)
	switch res.Tool.Status {
	case ToolSucceeded:
	case ToolTimedOut:
		os.Remove(out)
		res.Status = ChunkTimedOut
		res.Err = fmt.Errorf("compress %s: %w", chunk.Path, res.Tool.Err)
		return res
	default:
		os.Remove(out)
		res.Status = ChunkFailed
		res.Err = fmt.Errorf("compress %s (exit %d): %w", chunk.Path, res.Tool.ExitCode, res.Tool.Err)
		return res
	}

	if _, err := os.Stat(out); err != nil {
		res.Status = ChunkFailed
		res.Err = fmt.Errorf("compress %s: tool did not produce output: %w", chunk.Path, err)
		return res
	}

	if err := os.Remove(chunk.Path); err != nil && !os.IsNotExist(err) {
		// The compressed chunk is usable; the leftover input is swept at cleanup.
		res.Err = fmt.Errorf("remove %s: %w", chunk.Path, err)
	}
	res.Status = ChunkCompressed
	res.Output = out
	return res
}
