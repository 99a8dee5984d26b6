package pdf

import (
	"fmt"
	"path/filepath"
	"strconv"
)

// SequenceWidth returns the zero-padded width for chunk sequence numbers of a run with
// chunkCount chunks. Every name in one run uses the same width, so sorting names sorts pages.
func SequenceWidth(chunkCount int) int {
	if chunkCount <= 1 {
		return MinSequenceWidth
	}
	if w := len(strconv.Itoa(chunkCount - 1)); w > MinSequenceWidth {
		return w
	}
	return MinSequenceWidth
}

// ChunkName is the file name of the page chunk with the given sequence number.
func ChunkName(ns Namespace, seq, width int) string {
	return fmt.Sprintf("%s_page_%0*d.pdf", ns, width, seq)
}

// CompressedPath is the compressed sibling of a page chunk.
func CompressedPath(ns Namespace, chunkPath string) string {
	dir, base := filepath.Split(chunkPath)
	return filepath.Join(dir, fmt.Sprintf("%s_reduced_%s", ns, base))
}

// BatchName is the file name of an intermediate batch merge.
func BatchName(ns Namespace, index int) string {
	return fmt.Sprintf("%s_temp_batch_%d.pdf", ns, index)
}

// StagingPath is where the final document is written before it is renamed onto output.
func StagingPath(ns Namespace, output string) string {
	return filepath.Join(filepath.Dir(output), fmt.Sprintf("%s_final.pdf", ns))
}

// SweepPatterns lists glob patterns matching every temporary file a run may leave in dir.
func SweepPatterns(ns Namespace, dir string) []string {
	return []string{
		filepath.Join(dir, string(ns)+"_page_*.pdf"),
		filepath.Join(dir, string(ns)+"_reduced_*.pdf"),
		filepath.Join(dir, string(ns)+"_temp_batch_*.pdf"),
		filepath.Join(dir, string(ns)+"_final.pdf"),
	}
}
