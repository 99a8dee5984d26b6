package reducer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"pdf_reducer/pdf"
)

// breakerOpenTimeout keeps the breaker open for the rest of a typical run once it trips.
const breakerOpenTimeout = 10 * time.Minute

// ChunkCompressor compresses one chunk file. Implementations must be safe for concurrent
// use on distinct chunks.
type ChunkCompressor interface {
	CompressChunk(ctx context.Context, chunk pdf.Chunk, ns pdf.Namespace) pdf.ChunkResult
}

// breakerCompressor stops spawning the tool after repeated consecutive failures, which
// usually means it is missing or broken rather than that individual chunks are bad.
type breakerCompressor struct {
	next ChunkCompressor
	cb   *gobreaker.CircuitBreaker[pdf.ChunkResult]
}

func newBreakerCompressor(next ChunkCompressor, cfg BreakerConfig, log *slog.Logger) *breakerCompressor {
	settings := gobreaker.Settings{
		Name:        "compressor",
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
		},
	}
	return &breakerCompressor{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[pdf.ChunkResult](settings),
	}
}

func (b *breakerCompressor) CompressChunk(ctx context.Context, chunk pdf.Chunk, ns pdf.Namespace) pdf.ChunkResult {
	res, err := b.cb.Execute(func() (pdf.ChunkResult, error) {
		r := b.next.CompressChunk(ctx, chunk, ns)
		if r.Status != pdf.ChunkCompressed {
			return r, r.Err
		}
		return r, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return pdf.ChunkResult{
			Chunk:  chunk,
			Status: pdf.ChunkSkipped,
			Err:    fmt.Errorf("compress %s: %w", chunk.Path, err),
		}
	}
	return res
}
