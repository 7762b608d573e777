package mediatypes

import (
	"path/filepath"
	"strconv"
	"strings"
)

// FileType classifies a filesystem entry by what the catalog can do with it.
type FileType string

const (
	// FileTypeVideo represents a recognized video asset.
	FileTypeVideo FileType = "video"
	// FileTypeImage represents a recognized image asset.
	FileTypeImage FileType = "image"
	// FileTypeOther represents anything the scanner skips.
	FileTypeOther FileType = "other"
)

// VideoExtensions maps file extensions to whether they are indexed as videos.
var VideoExtensions = map[string]bool{
	".mp4": true,
	".mkv": true,
	".avi": true,
	".mov": true,
}

// ImageExtensions maps file extensions to whether they are indexed as images.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",

	".mp4": "video/mp4",
	".mkv": "video/x-matroska",
	".avi": "video/x-msvideo",
	".mov": "video/quicktime",

	".vtt": "text/vtt",
}

// Classify returns the FileType for a path based on its extension.
// Classification is pure: it never touches the filesystem.
func Classify(path string) FileType {
	ext := strings.ToLower(filepath.Ext(path))
	if VideoExtensions[ext] {
		return FileTypeVideo
	}
	if ImageExtensions[ext] {
		return FileTypeImage
	}
	return FileTypeOther
}

// GetMimeType returns the MIME type for a path's extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsMediaFile returns true if the path classifies as a video or image.
func IsMediaFile(path string) bool {
	return Classify(path) != FileTypeOther
}

// ParseTitle derives a human title from a media filename.
// Separators ('-', '_') become spaces and surrounding whitespace is trimmed.
// If the trailing token is a 4-digit year it is split off and returned
// separately; year is 0 when the filename carries none.
func ParseTitle(filename string) (title string, year int) {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")

	fields := strings.Fields(base)
	if len(fields) > 1 {
		last := fields[len(fields)-1]
		if len(last) == 4 {
			if y, err := strconv.Atoi(last); err == nil {
				return strings.Join(fields[:len(fields)-1], " "), y
			}
		}
	}
	return base, 0
}

// Slugify converts a library name into a stable URL-safe slug.
// Runs of non-alphanumeric characters collapse into single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
