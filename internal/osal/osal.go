// Package osal is the storage map abstraction: the only place in this
// module where interface polymorphism is used, per spec.md §9. It exposes
// the capability contract spec.md §6 calls the OSAL — open/close/size/
// resize/map/unmap — over two backing stores, an OS file and an in-memory
// buffer, mirroring btree/disk.go's split between on-disk and staged pages.
package osal

// Mode selects how Open treats an existing path.
type Mode int

const (
	// CreateOrWipe creates the backing store, truncating any existing
	// contents.
	CreateOrWipe Mode = iota
	// OpenExistingOrFail opens an existing backing store and fails if it
	// does not exist.
	OpenExistingOrFail
)

// File is the capability interface every backing store must satisfy.
// Implementations: *osFile (OS-backed, see file.go) and *memFile
// (in-memory, see memory.go).
type File interface {
	// Open prepares the backing store for mapping. name is ignored by
	// in-memory implementations, which require it to be empty.
	Open(name string, mode Mode) error
	// Close releases any OS resources. It does not unmap; callers must
	// call Unmap first if a mapping is active.
	Close() error
	// Size returns the current size of the backing store in bytes.
	Size() (uint32, error)
	// Resize truncates or extends the backing store to exactly n bytes.
	Resize(n uint32) error
	// Map returns a byte slice covering the whole backing store. The
	// returned slice is only valid until the next Resize/Unmap call.
	Map() ([]byte, error)
	// Unmap releases the mapping returned by Map.
	Unmap() error
}
