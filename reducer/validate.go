package reducer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

var (
	// ErrInputMissing is returned when the input path does not exist.
	ErrInputMissing = errors.New("input file does not exist")
	// ErrInputNotPDF is returned when the input is not a regular file starting with %PDF.
	ErrInputNotPDF = errors.New("input is not a PDF file")
)

// validateInput checks that path is a regular file with a PDF header.
func validateInput(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrInputMissing, path)
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrInputNotPDF, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	buffer := make([]byte, len(pdfHeader))
	n, err := io.ReadFull(f, buffer)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read file header: %w", err)
	}
	if n < len(pdfHeader) || string(buffer) != pdfHeader {
		return fmt.Errorf("%w: %s: header does not match", ErrInputNotPDF, path)
	}
	return nil
}
