package session

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DefaultExportLength is the least amount of audio ExportFile writes.
const DefaultExportLength = 2 * time.Second

var invalidFilenameChars = regexp.MustCompile(`[\\/:*?"<>|]`)

// SanitizeFilename strips characters invalid in filenames and trims
// whitespace. Falls back to "sketch" if nothing is left.
func SanitizeFilename(name string) string {
	name = invalidFilenameChars.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)
	if name == "" {
		return "sketch"
	}
	return name
}

// ExportFile writes the loop into dir as "<title> <duration>.wav" and
// returns the path. An existing file is never overwritten.
func (s *Session) ExportFile(dir, title string, least time.Duration) (string, error) {
	name := fmt.Sprintf("%s %s.wav", SanitizeFilename(title), s.Duration())
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("file %q already exists", name)
		}
		return "", err
	}
	if err := s.Export(f, least); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
