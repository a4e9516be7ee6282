// Package stage defines the contract between the arena allocator and the
// backing memory it allocates from.
//
// A stage is one fixed-size segment of memory holding a contiguous block of
// element slots. Stages are created on demand as the arena grows, are never
// moved or resized once attached, and may outlive the process when the
// provider backs them with files or shared memory.
//
// Providers:
//
//   - stage/mem:  process-heap segments, for tests and non-persistent arenas
//   - stage/file: one mmap'd file per stage, reattachable by path
//   - stage/shm:  System V shared memory segments, reattachable by key
//
// The arena derives each stage's key deterministically from its configured
// base key and the stage's index, so the same stage resolves to the same
// backing storage after a restart.
package stage

// Provider supplies the backing memory for arena stages.
//
// Implementations must guarantee that the same key always resolves to the
// same backing storage for the lifetime of that storage, and that the
// returned buffer is stable: its base never changes while attached.
type Provider interface {
	// CreateOrAttach returns a buffer of exactly size bytes backed by the
	// segment identified by key, creating the segment if it does not exist.
	// Failures wrap ErrCreate or ErrAttach so callers can tell the two apart.
	CreateOrAttach(key uint32, size uint32) ([]byte, error)

	// Detach releases this process's mapping of the segment identified by
	// key. The segment's contents survive if the backing storage persists.
	// Failures wrap ErrDetach.
	Detach(key uint32) error
}
