// Package uri builds file URIs for collected paths.
package uri

import (
	"net/url"
	"path/filepath"
	"strings"
)

// FileURI generates a file URI for a path relative to root.
// Uses the absolute path format: file:///absolute/path/to/file
func FileURI(root, relPath string) string {
	cleanPath := filepath.ToSlash(relPath)
	cleanPath = strings.TrimPrefix(cleanPath, "/")

	absolutePath := strings.TrimSuffix(filepath.ToSlash(root), "/") + "/" + cleanPath

	// URI encode the path, but keep slashes as slashes
	parts := strings.Split(absolutePath, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	encodedPath := strings.Join(parts, "/")

	// Windows drive paths have no leading slash
	encodedPath = strings.TrimPrefix(encodedPath, "/")

	return "file:///" + encodedPath
}
