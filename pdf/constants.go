package pdf

const (
	// DefaultChunkSize is the number of pages written to each chunk file
	DefaultChunkSize = 10

	// DefaultBatchSize is the maximum number of compressed chunks merged into one batch file
	DefaultBatchSize = 50

	// MinSequenceWidth is the minimum zero-padded width of chunk sequence numbers
	MinSequenceWidth = 4

	// DefaultNamespaceLength is the length of the random token prefixing temporary files
	DefaultNamespaceLength = 24

	// MinNamespaceLength is the shortest namespace accepted
	MinNamespaceLength = 8

	// DefaultImageResolution is the DPI used for color, gray and mono images
	DefaultImageResolution = 72

	// DefaultCompatibilityLevel pins the PDF revision written by ghostscript
	DefaultCompatibilityLevel = "1.4"

	// DefaultPreset is the ghostscript -dPDFSETTINGS preset
	DefaultPreset = "/screen"

	// DefaultGhostscript is the ghostscript executable looked up in PATH
	DefaultGhostscript = "gs"

	// FileMode for chunk, batch and output files
	FileMode = 0o644

	// maxStderrTail bounds how much captured tool stderr ends up in error messages
	maxStderrTail = 512
)
