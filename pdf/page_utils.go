package pdf

import (
	"errors"
	"fmt"
)

// ErrEmptyDocument is returned for documents without pages.
var ErrEmptyDocument = errors.New("document has no pages")

// PageRange is an inclusive, 1-based range of pages.
type PageRange struct {
	First int
	Last  int
}

// Len returns the number of pages in the range.
func (r PageRange) Len() int { return r.Last - r.First + 1 }

// Pages lists the page numbers of the range in order.
func (r PageRange) Pages() []int {
	pages := make([]int, 0, r.Len())
	for p := r.First; p <= r.Last; p++ {
		pages = append(pages, p)
	}
	return pages
}

func (r PageRange) String() string {
	if r.First == r.Last {
		return fmt.Sprintf("%d", r.First)
	}
	return fmt.Sprintf("%d-%d", r.First, r.Last)
}

// ChunkRanges partitions pageCount pages into contiguous ranges of chunkSize pages.
// The last range holds the remainder.
func ChunkRanges(pageCount, chunkSize int) ([]PageRange, error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if pageCount < 1 {
		return nil, ErrEmptyDocument
	}

	ranges := make([]PageRange, 0, (pageCount+chunkSize-1)/chunkSize)
	for first := 1; first <= pageCount; first += chunkSize {
		ranges = append(ranges, PageRange{
			First: first,
			Last:  min(first+chunkSize-1, pageCount),
		})
	}
	return ranges, nil
}

// ValidatePageRange checks that r lies within a document of totalPages pages.
func ValidatePageRange(r PageRange, totalPages int) error {
	if r.First < 1 {
		return fmt.Errorf("page numbers must be positive, got %d", r.First)
	}
	if r.Last < r.First {
		return fmt.Errorf("invalid range: start > end (%d > %d)", r.First, r.Last)
	}
	if r.Last > totalPages {
		return fmt.Errorf("page %d exceeds total pages (%d)", r.Last, totalPages)
	}
	return nil
}
