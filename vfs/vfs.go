// Package vfs defines the virtual filesystem boundary the render-graph
// core reads and writes through: the shader cache, the on-disk
// pipeline-state blob cache, the render-library generator's emitted
// outputs, and material asset loading all go through a FileSystem
// rather than touching the OS directly.
package vfs

import (
	"io"
	"os"
)

// OpenMode selects read, write, or read-write access when opening a path.
type OpenMode uint8

const (
	ModeRead OpenMode = iota
	ModeWrite
	ModeReadWrite
)

// File is a seekable, sizeable stream. Concrete implementations wrap an
// os.File, an in-memory buffer, or an archive entry.
type File interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer
	Size() (int64, error)
}

// FileSystem abstracts the storage backing every path this module reads
// or writes. Implementations need not support every OpenMode; Open
// returns an error for an unsupported combination.
type FileSystem interface {
	Open(path string, mode OpenMode) (File, error)
	Exists(path string) bool
}

// OS is a thin FileSystem wrapper over the real filesystem, used by
// command-line tools; library code never imports it directly.
type OS struct{}

func osFlags(mode OpenMode) int {
	switch mode {
	case ModeWrite:
		return os.O_CREATE | os.O_TRUNC | os.O_WRONLY
	case ModeReadWrite:
		return os.O_CREATE | os.O_RDWR
	default:
		return os.O_RDONLY
	}
}

// Open opens path against the real filesystem with the given mode.
func (OS) Open(path string, mode OpenMode) (File, error) {
	f, err := os.OpenFile(path, osFlags(mode), 0o644)
	if err != nil {
		return nil, err
	}
	return osFile{f}, nil
}

// Exists reports whether path exists on the real filesystem.
func (OS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

type osFile struct{ *os.File }

func (f osFile) Size() (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
