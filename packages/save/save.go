// Package save writes response bodies to disk.
//
// Without an explicit target, files are named after the time and status code
// of the exchange (2006-01-02T150405.200.json) and stored in
// .idea/httpRequests when the working directory belongs to an IntelliJ
// project, so the IDE's request history picks them up.
package save

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/httper/httper/packages/http"
)

const (
	ideaDir        = ".idea"
	ideaHistoryDir = ".idea/httpRequests"
	fallbackExt    = ".txt"
	timeLayout     = "2006-01-02T150405"
	maxAttempts    = 100
)

type Saver struct {
	dir string
	now func() time.Time
}

// NewSaver returns a Saver writing into dir.
func NewSaver(dir string) *Saver {
	return &Saver{dir: dir, now: time.Now}
}

func (s *Saver) Dir() string {
	return s.dir
}

// ResolveDir picks the directory for saved responses: the IntelliJ history
// directory when workDir contains .idea, else configured, else workDir.
func ResolveDir(workDir, configured string) string {
	if info, err := os.Stat(filepath.Join(workDir, ideaDir)); err == nil && info.IsDir() {
		return filepath.Join(workDir, ideaHistoryDir)
	}
	if configured != "" {
		return configured
	}
	return workDir
}

// Save writes the body of resp under a generated name and returns its path.
func (s *Saver) Save(resp *http.Response) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating dir: %w", err)
	}

	base := fmt.Sprintf("%s.%d", s.now().Format(timeLayout), resp.StatusCode)
	ext := Extension(resp)

	for i := 0; i < maxAttempts; i++ {
		name := base + ext
		if i > 0 {
			name = fmt.Sprintf("%s-%d%s", base, i, ext)
		}
		path := filepath.Join(s.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating file: %w", err)
		}
		return path, writeAndClose(f, resp.Body)
	}

	return "", fmt.Errorf("no free file name for %s%s in %s", base, ext, s.dir)
}

// SaveTo writes the body of resp to path, replacing any existing file.
func SaveTo(path string, resp *http.Response) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	return writeAndClose(f, resp.Body)
}

func writeAndClose(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing response body: %w", err)
	}
	return f.Close()
}

// Extension guesses a file extension for the response body. Content sniffing
// wins over the declared Content-Type.
func Extension(resp *http.Response) string {
	if ext := mimetype.Detect(resp.Body).Extension(); ext != "" {
		return ext
	}

	mediaType, _, _ := strings.Cut(resp.ContentType(), ";")
	exts, err := mime.ExtensionsByType(strings.TrimSpace(mediaType))
	if err == nil && len(exts) > 0 {
		sort.Sort(sort.Reverse(sort.StringSlice(exts)))
		return exts[0]
	}

	return fallbackExt
}
