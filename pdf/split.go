package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Chunk is one page range of the source written as its own document.
type Chunk struct {
	Seq   int
	Pages PageRange
	Path  string
}

// SplitOptions control how a source document is partitioned.
type SplitOptions struct {
	ChunkSize int
	Dir       string
	Namespace Namespace
}

// SplitResult lists the chunks written, in page order, and the source metadata.
type SplitResult struct {
	PageCount int
	Chunks    []Chunk
	Metadata  Metadata
}

// SplitPDF writes every ChunkSize pages of inFile to a separate chunk file.
// On error the chunks already written are still returned so the caller can remove them.
func SplitPDF(ctx context.Context, inFile string, opts SplitOptions) (*SplitResult, error) {
	if opts.ChunkSize == 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	res := &SplitResult{}

	f, err := os.Open(inFile)
	if err != nil {
		return res, fmt.Errorf("open %s: %w", inFile, err)
	}
	defer f.Close()

	src, err := api.ReadValidateAndOptimize(f, newConfiguration())
	if err != nil {
		return res, fmt.Errorf("read %s: %w", inFile, err)
	}
	if err := src.EnsurePageCount(); err != nil {
		return res, fmt.Errorf("count pages of %s: %w", inFile, err)
	}
	res.PageCount = src.PageCount

	meta, err := readInfo(src)
	if err != nil {
		return res, fmt.Errorf("read metadata of %s: %w", inFile, err)
	}
	res.Metadata = meta

	ranges, err := ChunkRanges(src.PageCount, opts.ChunkSize)
	if err != nil {
		return res, fmt.Errorf("split %s: %w", inFile, err)
	}

	width := SequenceWidth(len(ranges))
	for seq, r := range ranges {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := ValidatePageRange(r, src.PageCount); err != nil {
			return res, fmt.Errorf("split %s: %w", inFile, err)
		}

		chunk := Chunk{
			Seq:   seq,
			Pages: r,
			Path:  filepath.Join(opts.Dir, ChunkName(opts.Namespace, seq, width)),
		}
		if err := writeChunk(src, chunk); err != nil {
			return res, fmt.Errorf("write pages %s of %s: %w", r, inFile, err)
		}
		res.Chunks = append(res.Chunks, chunk)
	}

	return res, nil
}

func writeChunk(src *model.Context, chunk Chunk) error {
	dst, err := pdfcpu.ExtractPages(src, chunk.Pages.Pages(), false)
	if err != nil {
		return err
	}

	out, err := os.OpenFile(chunk.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, FileMode)
	if err != nil {
		return err
	}
	if err := api.WriteContext(dst, out); err != nil {
		out.Close()
		os.Remove(chunk.Path)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(chunk.Path)
		return err
	}
	return nil
}
