package file

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Object is a stored upload.
type Object struct {
	Filename    string
	Path        string // storage-relative path, stable across backends
	Size        int64  // actual bytes stored
	ContentType string
}

// Entry is a file or directory entry in a listing.
type Entry struct {
	Name  string
	Path  string
	IsDir bool
	Size  int64
}

// Storage abstracts the upload backend. Implementations stream the reader to
// the backing store and report the actual byte count, so size limits hold
// even when the client lies about Content-Length.
type Storage interface {
	// Save stores the reader's content at path and returns the object
	// metadata. The content type is detected from the stream.
	Save(ctx context.Context, p string, r io.Reader) (*Object, error)
	// Delete removes a single object.
	Delete(ctx context.Context, p string) error
	// DeleteDir removes a prefix and everything under it. Removing an
	// absent prefix is a no-op.
	DeleteDir(ctx context.Context, dir string) error
	// Exists reports whether an object exists at path.
	Exists(ctx context.Context, p string) bool
	// List returns the entries directly under dir.
	List(ctx context.Context, dir string) ([]Entry, error)
	// URL returns the public URL for a stored object.
	URL(p string) string
}

// Content types case processing accepts. Denial letters arrive as PDFs or
// scans, payment ledgers as CSV exports (detected as text/plain).
var allowedUploadTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"image/tiff",
	"text/plain",
	"text/csv",
	"text/plain; charset=utf-8",
}

// TenantDir returns the storage prefix holding everything a tenant uploaded.
// The retention purge deletes this prefix wholesale.
func TenantDir(tenantID uuid.UUID) string {
	return path.Join("tenants", tenantID.String())
}

// CaseDir returns the storage prefix for a single case's uploads.
func CaseDir(tenantID, caseID uuid.UUID) string {
	return path.Join(TenantDir(tenantID), "cases", caseID.String())
}

// CasePath returns the full storage path for one upload within a case.
func CasePath(tenantID, caseID uuid.UUID, filename string) string {
	return path.Join(CaseDir(tenantID, caseID), SanitizeFilename(filename))
}

// DetectContentType sniffs the content type from the head of an upload using
// the standard magic-byte detection. head should hold up to the first 512
// bytes.
func DetectContentType(head []byte) string {
	return http.DetectContentType(head)
}

// ValidateContentType checks a detected content type against the formats
// case processing accepts.
func ValidateContentType(contentType string) error {
	base := contentType
	if i := strings.IndexByte(base, ';'); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}
	if slices.Contains(allowedUploadTypes, contentType) || slices.Contains(allowedUploadTypes, base) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrContentTypeNotAllowed, contentType)
}

// ValidateSize checks an upload's declared size against the tenant's plan
// limit. Storage backends re-check the streamed byte count on save.
func ValidateSize(size, maxBytes int64) error {
	if maxBytes > 0 && size > maxBytes {
		return fmt.Errorf("file size %d bytes exceeds %d bytes limit: %w", size, maxBytes, ErrFileTooLarge)
	}
	return nil
}

// SanitizeFilename strips path components and NUL bytes from a client
// filename so it can never escape its case directory.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = filepath.Base(filename)
	filename = strings.ReplaceAll(filename, "\x00", "")

	if filename == "." || filename == ".." || filename == "" || filename == "/" {
		filename = "unnamed"
	}
	return filename
}

// cleanPath normalizes a storage path and rejects traversal attempts.
func cleanPath(p string) (string, error) {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	if p == "" || p == "." || strings.Contains(p, "..") {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, p)
	}
	return p, nil
}
