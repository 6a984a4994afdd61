package media

import (
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// Title names a sketch source. MP3 clips use their ID3v2 title and artist;
// everything else falls back to the file name.
func Title(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		if t := id3Title(path); t != "" {
			return t
		}
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func id3Title(path string) string {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return ""
	}
	defer tag.Close()

	title := strings.TrimSpace(tag.Title())
	artist := strings.TrimSpace(tag.Artist())
	switch {
	case title == "":
		return ""
	case artist == "":
		return title
	default:
		return artist + " - " + title
	}
}
