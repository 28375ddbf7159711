package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"netwatch/internal/domain"
)

// FileLog is the plain text connection log
type FileLog struct {
	path string
}

// NewFileLog creates a log at path. The file is created on first append.
func NewFileLog(path string) *FileLog {
	return &FileLog{path: path}
}

// Location returns the file path
func (l *FileLog) Location() string {
	return l.path
}

// Append opens the file for appending, writes one line and closes it again,
// so every accepted connection is on disk before Append returns
func (l *FileLog) Append(ctx context.Context, a, b string) error {
	line, err := FormatRecord(a, b)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("%w: open %s for writing: %w", domain.ErrStoreIO, l.path, err)
	}

	if _, err := io.WriteString(f, line); err != nil {
		f.Close()
		return fmt.Errorf("%w: write %s: %w", domain.ErrStoreIO, l.path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", domain.ErrStoreIO, l.path, err)
	}
	return nil
}

// Replay reads the file line by line. Malformed lines are skipped.
func (l *FileLog) Replay(ctx context.Context, sink Sink) (int, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: open %s: %w", domain.ErrStoreIO, l.path, err)
	}
	defer f.Close()

	parsed, err := ReadRecords(ctx, f, sink)
	if err != nil && ctx.Err() == nil {
		return parsed, fmt.Errorf("%w: read %s: %w", domain.ErrStoreIO, l.path, err)
	}
	return parsed, err
}

// WriteTo copies the raw file to w. A missing file writes nothing.
func (l *FileLog) WriteTo(w io.Writer) (int64, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: open %s: %w", domain.ErrStoreIO, l.path, err)
	}
	defer f.Close()

	return io.Copy(w, f)
}

// Close is a no-op; the file is only held open during a call
func (l *FileLog) Close() error {
	return nil
}
