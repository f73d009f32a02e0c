package osal

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/govetachun/shiftfile/pkg/utils"
)

// osFile is the OS-backed File implementation: a real file mapped with
// mmap. Grounded on btree/disk.go's mmapInit/extendMmap/extendFile
// trio, rebuilt on golang.org/x/sys/unix instead of the lower-level
// syscall package.
type osFile struct {
	fp     *os.File
	mapped []byte
}

// NewOSFile returns a File backed by a real path on disk.
func NewOSFile() File { return &osFile{} }

func (f *osFile) Open(name string, mode Mode) error {
	flags := os.O_RDWR
	switch mode {
	case CreateOrWipe:
		flags |= os.O_CREATE | os.O_TRUNC
	case OpenExistingOrFail:
		// no extra flags: os.OpenFile fails if the path is missing.
	}
	fp, err := os.OpenFile(name, flags, 0o644)
	if err != nil {
		return fmt.Errorf("osal: open %q: %w", name, err)
	}
	f.fp = fp
	return nil
}

func (f *osFile) Close() error {
	if f.fp == nil {
		return nil
	}
	err := f.fp.Close()
	f.fp = nil
	return err
}

func (f *osFile) Size() (uint32, error) {
	fi, err := f.fp.Stat()
	if err != nil {
		return 0, fmt.Errorf("osal: stat: %w", err)
	}
	return uint32(fi.Size()), nil
}

func (f *osFile) Resize(n uint32) error {
	// Fallocate reserves disk space when growing (not every filesystem
	// supports it, so its error is ignored); Truncate then sets the exact
	// size, which is the only way to shorten the file.
	_ = unix.Fallocate(int(f.fp.Fd()), 0, 0, int64(n))
	if err := f.fp.Truncate(int64(n)); err != nil {
		return fmt.Errorf("osal: resize to %d: %w", n, err)
	}
	return nil
}

func (f *osFile) Map() ([]byte, error) {
	utils.Assert(f.mapped == nil, "osal: file already mapped")
	size, err := f.Size()
	if err != nil {
		return nil, err
	}
	data, err := unix.Mmap(int(f.fp.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("osal: mmap: %w", err)
	}
	f.mapped = data
	return data, nil
}

func (f *osFile) Unmap() error {
	if f.mapped == nil {
		return nil
	}
	err := unix.Munmap(f.mapped)
	f.mapped = nil
	if err != nil {
		return fmt.Errorf("osal: munmap: %w", err)
	}
	return nil
}
