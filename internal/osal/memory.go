package osal

import "github.com/govetachun/shiftfile/pkg/utils"

// memFile is the in-memory File implementation: spec.md §6's
// virtual_file. Its contents vanish on Close and it must be opened with
// an empty name and CreateOrWipe, matching the OSAL contract.
type memFile struct {
	buf    []byte
	mapped bool
}

// NewMemFile returns a File backed by a plain in-process byte buffer. Its
// contents never touch disk and are discarded on Close.
func NewMemFile() File { return &memFile{} }

func (f *memFile) Open(name string, mode Mode) error {
	utils.Assert(name == "", "osal: virtual_file requires an empty name")
	utils.Assert(mode == CreateOrWipe, "osal: virtual_file requires create_or_wipe")
	f.buf = nil
	f.mapped = false
	return nil
}

func (f *memFile) Close() error {
	f.buf = nil
	f.mapped = false
	return nil
}

func (f *memFile) Size() (uint32, error) {
	return uint32(len(f.buf)), nil
}

func (f *memFile) Resize(n uint32) error {
	switch {
	case int(n) == len(f.buf):
		// no-op
	case int(n) < len(f.buf):
		f.buf = f.buf[:n]
	default:
		grown := make([]byte, n)
		copy(grown, f.buf)
		f.buf = grown
	}
	return nil
}

func (f *memFile) Map() ([]byte, error) {
	utils.Assert(!f.mapped, "osal: virtual file already mapped")
	f.mapped = true
	return f.buf, nil
}

func (f *memFile) Unmap() error {
	f.mapped = false
	return nil
}
