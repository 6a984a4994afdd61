package media

import (
	"path/filepath"
	"strings"
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

var clipExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
}

// IsImageExt returns true if the extension is a decodable bitmap format.
func IsImageExt(ext string) bool {
	return imageExts[strings.ToLower(ext)]
}

// IsClipExt returns true if the extension is an importable audio clip.
func IsClipExt(ext string) bool {
	return clipExts[strings.ToLower(ext)]
}

// IsSupportedExt returns true if the extension can be opened as a sketch.
func IsSupportedExt(ext string) bool {
	return IsImageExt(ext) || IsClipExt(ext)
}

// IsSupportedPath checks the extension of path.
func IsSupportedPath(path string) bool {
	return IsSupportedExt(filepath.Ext(path))
}

// SupportedExtsList returns a human-readable list of supported formats.
func SupportedExtsList() string {
	return ".png, .jpg, .gif, .bmp, .tiff, .webp, .wav, .mp3, .ogg, .flac"
}
