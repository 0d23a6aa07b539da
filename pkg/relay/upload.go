package relay

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// HEICError marks a rejected HEIC/HEIF upload; these get a dedicated
// user-actionable message since server-side decoding is unsupported
type HEICError struct{}

func (e *HEICError) Error() string {
	return "HEIC/HEIF not supported on server. Please use the camera capture button (JPEG) or upload a JPG/PNG/WebP."
}

// UnsupportedFormatError marks an upload outside the configured allow-list
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return "Unsupported file type. Please upload an image (JPG/PNG/WebP)."
}

// heicBrands are the ISO-BMFF ftyp brands of the HEIC/HEIF family
var heicBrands = []string{"heic", "heix", "hevc", "hevx", "heif", "mif1", "msf1"}

// DetectFormat determines the image format of an upload from its content,
// falling back to the declared type, and checks it against the allow-list.
// HEIC/HEIF is always rejected regardless of the list.
func DetectFormat(header *multipart.FileHeader, data []byte, allowed []string) (string, error) {
	if isHEIC(header, data) {
		return "", &HEICError{}
	}

	format := sniffFormat(data)
	if format == "" {
		format = declaredFormat(header)
	}

	for _, a := range allowed {
		if format == a {
			return format, nil
		}
	}

	return "", &UnsupportedFormatError{Format: format}
}

// isHEIC checks the declared type, the extension and the ftyp box
func isHEIC(header *multipart.FileHeader, data []byte) bool {
	mime := strings.ToLower(header.Header.Get("Content-Type"))
	ext := strings.ToLower(filepath.Ext(header.Filename))

	if strings.Contains(mime, "heic") || strings.Contains(mime, "heif") {
		return true
	}
	if ext == ".heic" || ext == ".heif" {
		return true
	}

	// ISO-BMFF: bytes 4-8 are "ftyp", 8-12 the major brand
	if len(data) >= 12 && string(data[4:8]) == "ftyp" {
		brand := strings.ToLower(string(data[8:12]))
		for _, b := range heicBrands {
			if brand == b {
				return true
			}
		}
	}

	return false
}

// sniffFormat identifies the format from magic bytes
func sniffFormat(data []byte) string {
	switch {
	case len(data) >= 3 && bytes.Equal(data[:3], []byte{0xff, 0xd8, 0xff}):
		return "jpeg"
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}):
		return "png"
	case len(data) >= 6 && (bytes.Equal(data[:6], []byte("GIF87a")) || bytes.Equal(data[:6], []byte("GIF89a"))):
		return "gif"
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "webp"
	case len(data) >= 2 && bytes.Equal(data[:2], []byte("BM")):
		return "bmp"
	}
	return ""
}

// declaredFormat extracts a format name from the declared content type
// or, failing that, the file extension
func declaredFormat(header *multipart.FileHeader) string {
	mime := strings.ToLower(header.Header.Get("Content-Type"))
	if strings.HasPrefix(mime, "image/") {
		format := strings.TrimPrefix(mime, "image/")
		if format == "jpg" {
			format = "jpeg"
		}
		return format
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	if ext == "jpg" {
		ext = "jpeg"
	}
	if ext == "" {
		return fmt.Sprintf("unknown(%s)", mime)
	}
	return ext
}
