package arena

import (
	"fmt"

	"github.com/joshuapare/arenakit/internal/layout"
)

// While a slot sits on the free list its first bytes are reinterpreted as a
// free record: a corruption-detection tag followed by the next free handle.
// The overlay is only meaningful between Free and the Alloc that reuses the
// slot; afterwards the bytes are caller-owned payload again.
const (
	freeMagic = 0xff1234ff

	freeMagicOffset = 0
	freeNextOffset  = 4
	freeRecordSize  = freeNextOffset + 8
)

// MinElementSize is the smallest element size Init accepts: a slot must be
// large enough to hold the free record overlay.
const MinElementSize = freeRecordSize

// Alloc returns a handle to an element slot. Freed slots are reused first,
// most recently freed first; otherwise the bump cursor advances, growing the
// stage table when the current stage is exhausted.
//
// On resource exhaustion - stage creation or attachment failed, or the stage
// table is full - Alloc returns the null handle and an error describing the
// failure. The caller decides whether to retry, back off, or propagate.
func (a *Arena) Alloc() (Handle, error) {
	a.lock()

	var h Handle

	// Check free list first.
	if a.freeHead != Null {
		h = a.freeHead
		slot, err := a.slot(h)
		if err != nil {
			a.unlock()
			return Null, err
		}
		a.freeHead = Handle(layout.ReadU64(slot, freeNextOffset))
		a.counters.Reused++
	} else {
		// Otherwise keep end-allocating.
		if a.atElementID >= a.stageCapacity {
			if err := a.addStage(); err != nil {
				a.unlock()
				return Null, err
			}
			a.atStageID++
			a.atElementID = 0
		}
		h = makeHandle(a.atStageID, a.atElementID)
		a.atElementID++
	}

	a.counters.Allocs++
	a.syncCtrl()
	a.unlock()

	if a.flags&FlagZeroOnAlloc != 0 {
		// The slot is exclusively owned by the caller already; clearing it
		// outside the lock keeps the critical section small.
		slot, err := a.slot(h)
		if err != nil {
			return Null, err
		}
		clear(slot)
	}

	return h, nil
}

// Free returns a slot to the arena. The slot's bytes are overlaid with a free
// record and pushed onto the free list; the most recently freed handle is the
// next one Alloc reuses. Freeing is always explicit - the arena never
// reclaims slots on its own.
func (a *Arena) Free(h Handle) error {
	if h == Null {
		return fmt.Errorf("arena: free of null handle: %w", ErrBadHandle)
	}
	slot, err := a.slot(h)
	if err != nil {
		return err
	}

	a.lock()
	layout.PutU32(slot, freeMagicOffset, freeMagic)
	layout.PutU64(slot, freeNextOffset, uint64(a.freeHead))
	a.freeHead = h
	a.counters.Frees++
	a.syncCtrl()
	a.unlock()

	return nil
}

// Resolve converts a handle to the slot's bytes. The returned slice is
// exactly the element size and stays valid for the arena's lifetime: stages
// are never moved or resized.
//
// Resolve takes no lock and has no side effects. It is safe to call
// concurrently with Alloc and Free on other handles; resolving a handle
// another goroutine concurrently frees and reuses is a caller-level race the
// arena does not arbitrate.
func (a *Arena) Resolve(h Handle) ([]byte, error) {
	return a.slot(h)
}

// slot bounds-checks a handle against the live stage table and returns its
// byte window. An out-of-range handle is a reported error, never an
// out-of-bounds access.
func (a *Arena) slot(h Handle) ([]byte, error) {
	stageID := h.StageID()
	elementID := h.ElementID()

	if stageID >= a.stageCount.Load() {
		return nil, fmt.Errorf("arena: handle %#x: stage %d not attached: %w",
			uint64(h), stageID, ErrBadHandle)
	}
	if elementID >= a.stageCapacity {
		return nil, fmt.Errorf("arena: handle %#x: element %d beyond capacity %d: %w",
			uint64(h), elementID, a.stageCapacity, ErrBadHandle)
	}

	off := int(elementID) * int(a.elementSize)
	end := off + int(a.elementSize)
	return a.stages[stageID][off:end:end], nil
}
