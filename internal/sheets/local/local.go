// Package local reads workbooks from a directory on disk.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"spendtrack/internal/sheets"
	"spendtrack/internal/sheets/xlsx"
)

// Reader resolves WorkbookRef.LocalPath under a base directory.
type Reader struct {
	dir string
}

var _ sheets.Reader = (*Reader)(nil)

func New(dir string) *Reader {
	return &Reader{dir: dir}
}

func (r *Reader) Name() string { return "local" }

// Path returns where ref is read from.
func (r *Reader) Path(ref sheets.WorkbookRef) string {
	if filepath.IsAbs(ref.LocalPath) {
		return ref.LocalPath
	}
	return filepath.Join(r.dir, ref.LocalPath)
}

func (r *Reader) Read(ctx context.Context, ref sheets.WorkbookRef) (sheets.Table, error) {
	if ref.LocalPath == "" {
		return sheets.Table{}, fmt.Errorf("no local path for %s: %w", ref.Dataset, sheets.ErrNotFound)
	}
	if err := ctx.Err(); err != nil {
		return sheets.Table{}, err
	}
	path := r.Path(ref)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return sheets.Table{}, fmt.Errorf("%s: %w", path, sheets.ErrNotFound)
	}
	if err != nil {
		return sheets.Table{}, fmt.Errorf("read %s: %w", path, err)
	}
	return xlsx.Decode(path, data, ref.Sheet)
}

// Write stores t as an xlsx workbook at ref's local path, creating
// directories as needed.
func (r *Reader) Write(ref sheets.WorkbookRef, t sheets.Table) error {
	if ref.LocalPath == "" {
		return fmt.Errorf("no local path for %s", ref.Dataset)
	}
	data, err := xlsx.Encode(ref.Sheet, t)
	if err != nil {
		return err
	}
	path := r.Path(ref)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
