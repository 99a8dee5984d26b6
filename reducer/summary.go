package reducer

import (
	"time"

	"pdf_reducer/pdf"
)

// Summary is the outcome of one run.
type Summary struct {
	RunID     string
	Namespace pdf.Namespace
	Input     string
	Output    string

	SourcePages int
	OutputPages int
	InputBytes  int64
	OutputBytes int64

	Chunks  []pdf.ChunkResult
	Batches []pdf.BatchResult
	// Fallback lists the sequence numbers of chunks merged uncompressed.
	Fallback []int

	// NothingToCombine is set when no chunk or batch survived to build an output from.
	NothingToCombine bool
	Cleanup          CleanupReport
	Duration         time.Duration
}

// ChunksCompressed counts chunks that went through the compressor successfully.
func (s *Summary) ChunksCompressed() int {
	n := 0
	for _, c := range s.Chunks {
		if c.Status == pdf.ChunkCompressed {
			n++
		}
	}
	return n
}

// ChunksFailed counts chunks that failed, timed out or were skipped.
func (s *Summary) ChunksFailed() int {
	return len(s.Chunks) - s.ChunksCompressed()
}

// BatchesFailed counts batches excluded from the final merge.
func (s *Summary) BatchesFailed() int {
	n := 0
	for _, b := range s.Batches {
		if b.Err != nil {
			n++
		}
	}
	return n
}

// MissingPages is the number of source pages absent from the output.
func (s *Summary) MissingPages() int {
	return s.SourcePages - s.OutputPages
}

// Written reports whether an output file was produced.
func (s *Summary) Written() bool {
	return s.OutputPages > 0
}

// Reduction is the fraction of the input size saved, or 0 when nothing was written.
func (s *Summary) Reduction() float64 {
	if s.InputBytes == 0 || s.OutputBytes == 0 {
		return 0
	}
	return 1 - float64(s.OutputBytes)/float64(s.InputBytes)
}
