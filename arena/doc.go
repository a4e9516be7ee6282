// Package arena implements a fixed-element-size allocator that hands out
// stable handles instead of raw addresses.
//
// # Overview
//
// An arena carves its storage out of a growable sequence of fixed-size
// stages obtained from a stage.Provider. Stages are never moved or resized
// once attached, so a handle - the packed (stage id, element id) pair - can
// be resolved to the same bytes for the arena's entire lifetime, including
// across process restarts when the provider backs stages with files or
// System V shared memory. This makes the arena suitable for the in-memory
// index structures of a storage engine, where large numbers of fixed-size
// records hold long-lived references to one another.
//
// # Allocation strategy
//
// Alloc first pops the free list (LIFO: the most recently freed slot is
// reused next). When the free list is empty it bump-allocates at the cursor,
// attaching a new stage when the current one is exhausted. Free pushes the
// slot onto the free list, threading the link through the freed slot's own
// memory. There is no compaction and no automatic reclamation; freed slots
// are recycled, never relocated.
//
// # Usage Example
//
//	ctrl := make([]byte, arena.Sizeof())
//	a := arena.Init(ctrl, mem.New(), 0xAE00, 64, 1024, 4,
//		arena.FlagBigLock|arena.FlagZeroOnAlloc)
//
//	h, err := a.Alloc()
//	if err != nil {
//	    return err // resource exhaustion, h is arena.Null
//	}
//
//	buf, _ := a.Resolve(h)
//	copy(buf, record)
//
//	// Later, return the slot.
//	err = a.Free(h)
//
// # Persistence
//
// The control block (see Sizeof) and the attached stages together form the
// arena's persisted state. Every mutation is mirrored into the control block
// under the same critical section that performs it, so a process that finds
// an arena in file- or shm-backed memory can pick it up with Resume. Stage
// base addresses are re-derived through the provider on Resume; they are
// never persisted.
//
// # Thread Safety
//
// With FlagBigLock, Alloc and Free serialize on one coarse mutex covering
// the free-list head, the bump cursor and stage growth. Without the flag the
// caller provides equivalent synchronization. Resolve is always lock-free;
// ownership of a live handle is the caller's concern.
//
// # Related Packages
//
//   - github.com/joshuapare/arenakit/stage: backing-segment providers
//   - github.com/joshuapare/arenakit/internal/layout: control block format
package arena
