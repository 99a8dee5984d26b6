package reducer

const (
	// DefaultDirPermissions for work directory creation
	DefaultDirPermissions = 0o755

	// pdfHeader is the magic prefix every PDF file starts with
	pdfHeader = "%PDF"
)
