package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage keeps uploads on the local filesystem, confined to baseDir.
// Meant for development and single-node deployments; production uses S3.
type LocalStorage struct {
	baseDir       string
	baseURL       string
	maxBytes      int64
	uploadTimeout time.Duration
}

// LocalOption configures LocalStorage.
type LocalOption func(*LocalStorage)

// WithLocalMaxBytes caps the streamed size of a single upload. Zero means
// no backend-side cap; plan limits still apply upstream.
func WithLocalMaxBytes(n int64) LocalOption {
	return func(s *LocalStorage) {
		s.maxBytes = n
	}
}

// WithLocalUploadTimeout bounds how long a single save may run.
func WithLocalUploadTimeout(timeout time.Duration) LocalOption {
	return func(s *LocalStorage) {
		s.uploadTimeout = timeout
	}
}

// NewLocalStorage creates a filesystem storage rooted at baseDir, creating
// the directory if needed. baseURL is the public prefix for URL.
func NewLocalStorage(baseDir, baseURL string, opts ...LocalOption) (*LocalStorage, error) {
	if baseDir == "" {
		return nil, ErrInvalidConfig
	}

	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := os.MkdirAll(absBaseDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateDirectory, err)
	}

	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	s := &LocalStorage{
		baseDir: absBaseDir,
		baseURL: baseURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Save streams r to the file at p. Partial files are removed on error or
// cancellation.
func (s *LocalStorage) Save(ctx context.Context, p string, r io.Reader) (*Object, error) {
	if s.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
	}
	if r == nil {
		return nil, ErrNilReader
	}

	rel, err := cleanPath(p)
	if err != nil {
		return nil, err
	}
	absPath, err := s.resolvePath(rel)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToCreateDirectory, err)
	}

	dst, err := os.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}
	defer func() { _ = dst.Close() }()

	fail := func(err error) (*Object, error) {
		_ = dst.Close()
		_ = os.Remove(absPath)
		return nil, err
	}

	var (
		written int64
		head    []byte
	)
	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			return fail(ctx.Err())
		default:
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			if len(head) < 512 {
				head = append(head, buf[:min(n, 512-len(head))]...)
			}
			nw, writeErr := dst.Write(buf[:n])
			if writeErr != nil {
				return fail(fmt.Errorf("%w: %v", ErrFailedToWriteFile, writeErr))
			}
			written += int64(nw)
			if s.maxBytes > 0 && written > s.maxBytes {
				return fail(fmt.Errorf("%w: limit %d bytes", ErrFileTooLarge, s.maxBytes))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fail(fmt.Errorf("%w: %v", ErrFailedToReadFile, readErr))
		}
	}

	return &Object{
		Filename:    filepath.Base(rel),
		Path:        rel,
		Size:        written,
		ContentType: DetectContentType(head),
	}, nil
}

// Delete removes a single file. Refuses directories.
func (s *LocalStorage) Delete(ctx context.Context, p string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	rel, err := cleanPath(p)
	if err != nil {
		return err
	}
	absPath, err := s.resolvePath(rel)
	if err != nil {
		return err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, rel)
		}
		return fmt.Errorf("%w: %v", ErrFailedToStatPath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s, use DeleteDir instead", ErrIsDirectory, rel)
	}

	if err := os.Remove(absPath); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToDeleteFile, err)
	}
	return nil
}

// DeleteDir removes a directory tree. A missing directory is a no-op so the
// retention purge can be retried safely.
func (s *LocalStorage) DeleteDir(ctx context.Context, dir string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	rel, err := cleanPath(dir)
	if err != nil {
		return err
	}
	absPath, err := s.resolvePath(rel)
	if err != nil {
		return err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrFailedToStatPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, rel)
	}

	if err := os.RemoveAll(absPath); err != nil {
		return fmt.Errorf("%w: %v", ErrFailedToDeleteDirectory, err)
	}
	return nil
}

// Exists reports whether a file or directory exists at p.
func (s *LocalStorage) Exists(ctx context.Context, p string) bool {
	select {
	case <-ctx.Done():
		return false
	default:
	}

	rel, err := cleanPath(p)
	if err != nil {
		return false
	}
	absPath, err := s.resolvePath(rel)
	if err != nil {
		return false
	}

	_, err = os.Stat(absPath)
	return err == nil
}

// List returns the entries directly under dir.
func (s *LocalStorage) List(ctx context.Context, dir string) ([]Entry, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	rel, err := cleanPath(dir)
	if err != nil {
		return nil, err
	}
	absPath, err := s.resolvePath(rel)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, rel)
		}
		return nil, fmt.Errorf("%w: %v", ErrFailedToStatPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, rel)
	}

	dirEntries, err := os.ReadDir(absPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToReadDirectory, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		entry := Entry{
			Name:  de.Name(),
			Path:  filepath.ToSlash(filepath.Join(rel, de.Name())),
			IsDir: de.IsDir(),
		}
		if !de.IsDir() {
			if fi, err := de.Info(); err == nil {
				entry.Size = fi.Size()
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// URL returns the public URL for a stored object.
func (s *LocalStorage) URL(p string) string {
	p = filepath.ToSlash(filepath.Clean(p))
	if strings.HasPrefix(p, "/") {
		return p
	}
	return s.baseURL + p
}

// resolvePath confines a cleaned relative path to baseDir.
func (s *LocalStorage) resolvePath(rel string) (string, error) {
	absPath := filepath.Join(s.baseDir, filepath.FromSlash(rel))
	if !strings.HasPrefix(absPath, s.baseDir+string(filepath.Separator)) && absPath != s.baseDir {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, rel)
	}
	return absPath, nil
}
