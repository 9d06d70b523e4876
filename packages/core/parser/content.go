package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const fileReferencePrefix = "<"

// ResolveContent classifies a part body. An empty body is empty text, a body
// starting with "<" names a file relative to baseDir, anything else is taken
// as bytes. A referenced file is opened here and owned by the returned
// content until it is closed.
func ResolveContent(body, baseDir string) (PartContent, error) {
	switch {
	case body == "":
		return TextContent(""), nil
	case strings.HasPrefix(body, fileReferencePrefix):
		path := strings.TrimSpace(strings.TrimPrefix(body, fileReferencePrefix))
		return openFileContent(filepath.Join(baseDir, path))
	default:
		return BytesContent(body), nil
	}
}

func openFileContent(path string) (*FileContent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file reference %q: %w", path, err)
	}
	return &FileContent{Path: path, file: f}, nil
}
