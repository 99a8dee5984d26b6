// Package pdftest writes small, valid PDF documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// BaseWidth is the MediaBox width of page 1. Page n is BaseWidth+n-1 points wide, so the
// page order of any derived document can be read back from page dimensions.
const BaseWidth = 200

// Height is the MediaBox height of every page.
const Height = 300

// Options describe the document to write.
type Options struct {
	Pages int
	// FirstPage offsets page widths, for documents that stand in for a slice of a larger one.
	FirstPage int
	Info      map[string]string
	// HexInfo entries are written as hex strings holding the raw bytes of the value.
	HexInfo map[string]string
}

// WidthOfPage returns the MediaBox width Write gives to page n (1-based).
func WidthOfPage(n int) float64 {
	return float64(BaseWidth + n - 1)
}

// Write creates a PDF at path and returns path.
func Write(tb testing.TB, path string, opts Options) string {
	tb.Helper()
	if err := os.WriteFile(path, Build(opts), 0o644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteTemp creates a PDF named name inside a fresh temporary directory.
func WriteTemp(tb testing.TB, name string, opts Options) string {
	tb.Helper()
	return Write(tb, filepath.Join(tb.TempDir(), name), opts)
}

// Build renders the document bytes.
func Build(opts Options) []byte {
	first := opts.FirstPage
	if first < 1 {
		first = 1
	}

	// Object layout: 1 catalog, 2 page tree, then a page and a content stream per page,
	// then the optional info dictionary.
	var objects []string
	kids := make([]string, opts.Pages)
	for i := 0; i < opts.Pages; i++ {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), opts.Pages),
	)
	for i := 0; i < opts.Pages; i++ {
		page := first + i
		content := fmt.Sprintf("0 0 m %d %d l S", BaseWidth, page)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %d] /Resources << >> /Contents %d 0 R >>",
				WidthOfPage(page), Height, 4+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	infoRef := 0
	if len(opts.Info)+len(opts.HexInfo) > 0 {
		var sb strings.Builder
		sb.WriteString("<<")
		for _, k := range sortedKeys(opts.Info) {
			fmt.Fprintf(&sb, " /%s (%s)", k, escape(opts.Info[k]))
		}
		for _, k := range sortedKeys(opts.HexInfo) {
			fmt.Fprintf(&sb, " /%s <%X>", k, opts.HexInfo[k])
		}
		sb.WriteString(" >>")
		objects = append(objects, sb.String())
		infoRef = len(objects)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R", len(objects)+1)
	if infoRef > 0 {
		fmt.Fprintf(&buf, " /Info %d 0 R", infoRef)
	}
	fmt.Fprintf(&buf, " >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
