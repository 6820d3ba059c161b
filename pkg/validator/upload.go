// Package validator holds the pure upload validation rules: content
// sniffing against declared MIME types, per-kind allow-lists, and size
// ceilings. Nothing here performs I/O.
package validator

import (
	"bytes"
	"fmt"
	"strings"
)

// Size ceilings. Sizes are checked against the declared length before the
// request body is read in full, so an oversized upload is rejected cheaply.
const (
	MaxResourceFileSize = 50 * 1024 * 1024 // 50 MiB
	MaxPreviewFileSize  = 5 * 1024 * 1024  // 5 MiB
)

// ResourceKind is the seller-declared kind of a teaching resource. Each
// kind accepts a closed set of MIME types; unknown kinds are rejected.
type ResourceKind string

const (
	KindPDF        ResourceKind = "pdf"
	KindWord       ResourceKind = "word"
	KindPowerPoint ResourceKind = "powerpoint"
	KindExcel      ResourceKind = "excel"
	KindImage      ResourceKind = "image"
	KindArchive    ResourceKind = "archive"
	KindAudio      ResourceKind = "audio"
	KindVideo      ResourceKind = "video"
)

var resourceTypesByKind = map[ResourceKind][]string{
	KindPDF: {"application/pdf"},
	KindWord: {
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	},
	KindPowerPoint: {
		"application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	},
	KindExcel: {
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	},
	KindImage: {"image/jpeg", "image/png", "image/gif", "image/webp"},
	KindArchive: {
		"application/zip",
		"application/x-zip-compressed",
	},
	KindAudio: {"audio/mpeg", "audio/wav"},
	KindVideo: {"video/mp4", "video/webm"},
}

var allowedPreviewTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

// IsAllowedResourceType reports whether mime is acceptable for the declared
// resource kind. Unknown kinds never pass.
func IsAllowedResourceType(mime string, kind ResourceKind) bool {
	allowed, ok := resourceTypesByKind[kind]
	if !ok {
		return false
	}
	normalized := NormalizeMIME(mime)
	for _, t := range allowed {
		if normalized == t {
			return true
		}
	}
	return false
}

// IsAllowedPreviewType reports whether mime is acceptable for a preview image.
func IsAllowedPreviewType(mime string) bool {
	return allowedPreviewTypes[NormalizeMIME(mime)]
}

// KnownKind reports whether kind is part of the closed kind vocabulary.
func KnownKind(kind ResourceKind) bool {
	_, ok := resourceTypesByKind[kind]
	return ok
}

// ValidateResourceSize checks the main file size against its ceiling.
func ValidateResourceSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("file is empty")
	}
	if size > MaxResourceFileSize {
		return fmt.Errorf("file too large: maximum resource file size is %d MB", MaxResourceFileSize/(1024*1024))
	}
	return nil
}

// ValidatePreviewSize checks a preview image size against its ceiling.
func ValidatePreviewSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("preview file is empty")
	}
	if size > MaxPreviewFileSize {
		return fmt.Errorf("file too large: maximum preview file size is %d MB", MaxPreviewFileSize/(1024*1024))
	}
	return nil
}

// sigPart is one fragment of a file signature at a fixed offset.
type sigPart struct {
	offset  int
	pattern []byte
}

// signature is a complete alternative; all parts must match.
type signature []sigPart

// magicTable maps a normalized MIME type onto its known signatures. A type
// matches when any one alternative matches. Types without an entry carry
// no reliable signature (plain text and friends) and are not sniffed.
var magicTable = map[string][]signature{
	"application/pdf": {
		{{0, []byte("%PDF")}},
	},
	"image/png": {
		{{0, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}}},
	},
	"image/jpeg": {
		{{0, []byte{0xFF, 0xD8, 0xFF}}},
	},
	"image/gif": {
		{{0, []byte("GIF87a")}},
		{{0, []byte("GIF89a")}},
	},
	"image/webp": {
		{{0, []byte("RIFF")}, {8, []byte("WEBP")}},
	},
	"application/zip": {
		{{0, []byte{0x50, 0x4B, 0x03, 0x04}}},
		{{0, []byte{0x50, 0x4B, 0x05, 0x06}}},
	},
	"application/x-zip-compressed": {
		{{0, []byte{0x50, 0x4B, 0x03, 0x04}}},
		{{0, []byte{0x50, 0x4B, 0x05, 0x06}}},
	},
	// OOXML documents are ZIP containers.
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {
		{{0, []byte{0x50, 0x4B, 0x03, 0x04}}},
	},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {
		{{0, []byte{0x50, 0x4B, 0x03, 0x04}}},
	},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {
		{{0, []byte{0x50, 0x4B, 0x03, 0x04}}},
	},
	// Legacy Office formats share the OLE compound file header.
	"application/msword": {
		{{0, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}}},
	},
	"application/vnd.ms-excel": {
		{{0, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}}},
	},
	"application/vnd.ms-powerpoint": {
		{{0, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}}},
	},
	"audio/mpeg": {
		{{0, []byte("ID3")}},
		{{0, []byte{0xFF, 0xFB}}},
		{{0, []byte{0xFF, 0xF3}}},
		{{0, []byte{0xFF, 0xF2}}},
	},
	"audio/wav": {
		{{0, []byte("RIFF")}, {8, []byte("WAVE")}},
	},
	"video/mp4": {
		{{4, []byte("ftyp")}},
	},
	"video/webm": {
		{{0, []byte{0x1A, 0x45, 0xDF, 0xA3}}},
	},
}

// ValidateMagicBytes checks the buffer's leading bytes against the known
// signatures for the declared MIME type. A mismatch means the file content
// does not match its label (an executable renamed to .pdf and the like)
// and is rejected outright; the type is never reinterpreted.
func ValidateMagicBytes(data []byte, declaredMIME string) error {
	sigs, ok := magicTable[NormalizeMIME(declaredMIME)]
	if !ok {
		return nil
	}
	for _, sig := range sigs {
		if matchSignature(data, sig) {
			return nil
		}
	}
	return fmt.Errorf("file content does not match declared type %s", NormalizeMIME(declaredMIME))
}

func matchSignature(data []byte, sig signature) bool {
	for _, part := range sig {
		end := part.offset + len(part.pattern)
		if len(data) < end {
			return false
		}
		if !bytes.Equal(data[part.offset:end], part.pattern) {
			return false
		}
	}
	return true
}

// extensionByMIME maps every allowed MIME type to its canonical extension.
var extensionByMIME = map[string]string{
	"application/pdf":    ".pdf",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"application/vnd.ms-excel": ".xls",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         ".xlsx",
	"application/vnd.ms-powerpoint":                                             ".ppt",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": ".pptx",
	"image/jpeg":                   ".jpg",
	"image/png":                    ".png",
	"image/gif":                    ".gif",
	"image/webp":                   ".webp",
	"application/zip":              ".zip",
	"application/x-zip-compressed": ".zip",
	"audio/mpeg":                   ".mp3",
	"audio/wav":                    ".wav",
	"video/mp4":                    ".mp4",
	"video/webm":                   ".webm",
}

// ExtensionForMIME returns the canonical extension for a MIME type. The
// second return is false when the type has no canonical extension; every
// type in the allow-lists has one.
func ExtensionForMIME(mime string) (string, bool) {
	ext, ok := extensionByMIME[NormalizeMIME(mime)]
	return ext, ok
}

// NormalizeMIME lowercases a MIME type and strips parameters such as
// "; charset=utf-8".
func NormalizeMIME(mime string) string {
	normalized := strings.ToLower(strings.TrimSpace(mime))
	if idx := strings.Index(normalized, ";"); idx > 0 {
		normalized = strings.TrimSpace(normalized[:idx])
	}
	return normalized
}
