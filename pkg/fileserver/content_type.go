package fileserver

import (
	"path/filepath"
	"strings"
)

// DefaultContentType is served for any extension missing from the table.
const DefaultContentType = "application/octet-stream"

// contentTypes maps extensions to the types the legacy client expects.
var contentTypes = map[string]string{
	".txt": "text/plain",
	".xml": "application/xml",
	".xz":  "application/x-xz",
	".exe": "application/x-msdownload",
}

// ContentType returns the content type for a file name. The bytes of the file
// are never inspected.
func ContentType(name string) string {
	if ct, ok := contentTypes[Extension(name)]; ok {
		return ct
	}
	return DefaultContentType
}

// Extension returns the extension of the base name, including the dot, with
// its case preserved. Leading dots do not start an extension: ".xz" has none.
//
// Lookups are case-sensitive, so "CONFIG.XML" falls back to DefaultContentType.
func Extension(name string) string {
	base := strings.TrimLeft(filepath.Base(name), ".")
	return filepath.Ext(base)
}
