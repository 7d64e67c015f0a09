package constants

import "strings"

// Format is the coarse input kind a document is handled as.
type Format string

const (
	PDF   Format = "PDF"
	IMAGE Format = "IMAGE"
)

// FileTypes holds the formats the input adapter understands.
var FileTypes = []string{string(PDF), string(IMAGE)}

// AllowedExtensions holds the default extensions picked up by directory ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"heic": {},
	"heif": {},
}

const (
	// ImageConfidenceThreshold is the prep confidence under which page images are attached to the extraction request.
	ImageConfidenceThreshold float32 = 0.6
	// MaxVisionMBDefault caps the size of a single attached image.
	MaxVisionMBDefault = 8
	// MaxVisionPages caps how many rasterized pages are attached.
	MaxVisionPages = 4
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToFormat returns the format for a file extension, or "" if unsupported.
func MapExtToFormat(ext string) Format {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png", "heic", "heif":
		return IMAGE
	default:
		return ""
	}
}

func IsHEICExt(ext string) bool {
	switch NormalizeExt(ext) {
	case "heic", "heif", "heics", "heifs":
		return true
	}
	return false
}
