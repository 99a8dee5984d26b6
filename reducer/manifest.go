package reducer

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"pdf_reducer/pdf"
)

// manifest records every temporary file a run creates. It is owned by the coordinator
// goroutine; workers report paths through their results instead of writing here.
type manifest struct {
	paths []string
	seen  map[string]bool
}

func newManifest() *manifest {
	return &manifest{seen: make(map[string]bool)}
}

func (m *manifest) add(paths ...string) {
	for _, p := range paths {
		if p == "" || m.seen[p] {
			continue
		}
		m.seen[p] = true
		m.paths = append(m.paths, p)
	}
}

func (m *manifest) list() []string {
	return append([]string(nil), m.paths...)
}

// CleanupReport summarises temporary file removal. Failures never change the run outcome.
type CleanupReport struct {
	Removed int
	Errors  []error
}

// cleanup removes every manifest entry, then sweeps dirs for anything else carrying the
// namespace. Both passes tolerate files that are already gone, so running it twice is harmless.
func cleanup(log *slog.Logger, m *manifest, ns pdf.Namespace, dirs ...string) CleanupReport {
	var report CleanupReport
	remove := func(path string) {
		err := os.Remove(path)
		switch {
		case err == nil:
			report.Removed++
		case errors.Is(err, fs.ErrNotExist):
		default:
			log.Warn("could not remove temporary file", "path", path, "error", err)
			report.Errors = append(report.Errors, err)
		}
	}

	for _, p := range m.list() {
		remove(p)
	}

	swept := make(map[string]bool)
	for _, dir := range dirs {
		if swept[dir] {
			continue
		}
		swept[dir] = true
		for _, pattern := range pdf.SweepPatterns(ns, dir) {
			matches, err := filepath.Glob(pattern)
			if err != nil {
				log.Warn("bad sweep pattern", "pattern", pattern, "error", err)
				continue
			}
			for _, p := range matches {
				remove(p)
			}
		}
	}
	return report
}
