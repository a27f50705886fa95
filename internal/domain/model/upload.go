//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"path/filepath"
	"strings"
)

// MaxBRDUploadBytes caps a single BRD upload.
const MaxBRDUploadBytes int64 = 10 << 20

const pdfContentType = "application/pdf"

var (
	// ErrUploadNotPDF rejects anything but a PDF.
	ErrUploadNotPDF = errors.New("please upload a PDF file")
	// ErrUploadTooLarge rejects files of MaxBRDUploadBytes or more.
	ErrUploadTooLarge = errors.New("file size must be less than 10MB")
	// ErrUploadEmpty rejects a missing or zero-byte file.
	ErrUploadEmpty = errors.New("file is empty")
)

// BRDUpload describes a file offered for upload before any bytes are sent to the backend.
type BRDUpload struct {
	Filename    string
	ContentType string
	Size        int64
}

// ValidateBRDUpload accepts PDFs strictly smaller than MaxBRDUploadBytes.
// A missing content type falls back to the file extension.
func ValidateBRDUpload(u BRDUpload) error {
	if u.Size <= 0 {
		return ErrUploadEmpty
	}
	if !isPDF(u) {
		return ErrUploadNotPDF
	}
	if u.Size >= MaxBRDUploadBytes {
		return ErrUploadTooLarge
	}
	return nil
}

func isPDF(u BRDUpload) bool {
	ct := strings.ToLower(strings.TrimSpace(u.ContentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch ct {
	case pdfContentType:
		return true
	case "", "application/octet-stream":
		return strings.EqualFold(filepath.Ext(u.Filename), ".pdf")
	default:
		return false
	}
}
