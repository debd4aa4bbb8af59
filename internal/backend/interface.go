// Package backend assembles the sheets.Reader selected by DATA_BACKEND.
package backend

import (
	"context"

	"spendtrack/internal/sheets"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result is the reader built for a Config and its optional cleanup.
type Result struct {
	Reader  sheets.Reader
	Cleanup CleanupFunc
}

// Factory creates readers based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Type names a backend.
type Type string

const (
	// DriveBackend reads Google Drive and falls back to the local directory.
	DriveBackend Type = "drive"
	// LocalBackend reads workbooks from the data directory.
	LocalBackend Type = "local"
	// MemoryBackend serves generated demo data.
	MemoryBackend Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case DriveBackend, LocalBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Types returns all valid backend types.
func Types() []Type {
	return []Type{DriveBackend, LocalBackend, MemoryBackend}
}
