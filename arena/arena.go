package arena

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/joshuapare/arenakit/internal/layout"
	"github.com/joshuapare/arenakit/stage"
)

// Runtime debug flag for stage growth logging - controlled by ARENA_LOG_ALLOC env var.
var logAlloc = os.Getenv("ARENA_LOG_ALLOC") != ""

// Flag bits accepted by Init.
const (
	// FlagBigLock serializes Alloc and Free with an internal mutex. Without
	// it the caller must provide equivalent external synchronization.
	FlagBigLock uint32 = 1 << 0

	// FlagZeroOnAlloc clears each slot's bytes before Alloc returns it. The
	// clear happens outside the lock; the slot is already exclusively owned
	// by the caller at that point.
	FlagZeroOnAlloc uint32 = 1 << 1
)

// Configuration ceilings. The element id field of a handle is 28 bits wide,
// which bounds the per-stage capacity; the stage table is a fixed-capacity
// array bounded by MaxStages.
const (
	MaxStageCapacity = 1 << elementIDBits
	MaxStages        = 256

	// maxStageSize keeps stage byte counts within 32 bits so the persisted
	// control block stays compact and portable across address widths.
	maxStageSize = 0xFFFFFFFF
)

// Arena is a fixed-element-size allocator handing out relocation-proof
// handles instead of addresses. Storage comes from a growable sequence of
// never-moved stages obtained through a stage.Provider; the arena's own
// control state lives in an owner-provided byte region of Sizeof() bytes and
// is kept current on every mutation, so an arena whose control block and
// stages sit in persistent memory can be picked up again with Resume.
type Arena struct {
	keyBase       uint32
	elementSize   uint32
	stageCapacity uint32
	maxStages     uint32
	flags         uint32
	stageSize     uint32

	provider stage.Provider
	ctrl     []byte

	mu sync.Mutex

	// Guarded by mu when FlagBigLock is set, else by the caller.
	freeHead    Handle
	atStageID   uint32
	atElementID uint32
	counters    Counters

	// stageCount publishes stage table growth so Resolve can stay lock-free:
	// stages[i] is written before the count covering i is stored.
	stageCount atomic.Uint32
	stages     [][]byte
}

// Counters are cheap operation counts maintained under the arena lock.
type Counters struct {
	Allocs uint64 // successful Alloc calls
	Reused uint64 // allocations served from the free list
	Frees  uint64 // Free calls
	Grows  uint64 // stages attached, the first included
}

// Stats is a point-in-time snapshot of arena state.
type Stats struct {
	ElementSize   uint32
	StageCapacity uint32
	MaxStages     uint32
	StageCount    uint32
	AtStageID     uint32
	AtElementID   uint32
	FreeHead      Handle
	Counters      Counters
}

// Sizeof returns the control block size an owner must reserve before calling
// Init. The value is fixed: it does not depend on how many stages end up
// attached.
func Sizeof() int { return layout.CtrlSize }

// Init creates an arena in the owner-provided control region and attaches the
// first stage. It must be called exactly once per fresh arena; use Resume to
// pick up an arena initialized by an earlier process.
//
// A stageCapacity or maxStages of 0 selects the maximum allowed value.
//
// Init panics on setup defects: out-of-bounds geometry, an element size too
// small to hold the free-list record, a short control region, or failure to
// build the very first stage. A zero-stage arena is unusable, so none of
// these can be continued past.
func Init(ctrl []byte, p stage.Provider, keyBase, elementSize, stageCapacity, maxStages, flags uint32) *Arena {
	if p == nil {
		panic("arena: nil stage provider")
	}
	if len(ctrl) < layout.CtrlSize {
		panic(fmt.Sprintf("arena: control region %d bytes, need %d", len(ctrl), layout.CtrlSize))
	}
	if elementSize < MinElementSize {
		panic(fmt.Sprintf("arena: element size %d too small (min %d)", elementSize, MinElementSize))
	}

	if stageCapacity > MaxStageCapacity {
		panic(fmt.Sprintf("arena: stage capacity %d too large (max %d)", stageCapacity, MaxStageCapacity))
	}
	if maxStages > MaxStages {
		panic(fmt.Sprintf("arena: max stages %d too large (max %d)", maxStages, MaxStages))
	}
	stageCapacity, maxStages = defaultGeometry(stageCapacity, maxStages)

	stageSize := uint64(stageCapacity) * uint64(elementSize)
	if stageSize > maxStageSize {
		panic(fmt.Sprintf("arena: stage size %d too large (max %d)", stageSize, uint64(maxStageSize)))
	}

	a := &Arena{
		keyBase:       keyBase,
		elementSize:   elementSize,
		stageCapacity: stageCapacity,
		maxStages:     maxStages,
		flags:         flags,
		stageSize:     uint32(stageSize),
		provider:      p,
		ctrl:          ctrl,

		freeHead: Null,

		// Skip (0,0) so the null handle is never issued.
		atStageID:   0,
		atElementID: 1,

		stages: make([][]byte, maxStages),
	}

	layout.Stamp(ctrl, layout.Header{
		Version:       layout.Version,
		KeyBase:       keyBase,
		ElementSize:   elementSize,
		StageCapacity: stageCapacity,
		MaxStages:     maxStages,
		Flags:         flags,
		StageSize:     a.stageSize,
		FreeHead:      uint64(Null),
		AtStageID:     0,
		AtElementID:   1,
		StageCount:    0,
	})

	if err := a.addStage(); err != nil {
		panic(fmt.Sprintf("arena: failed to add first stage: %v", err))
	}
	a.syncCtrl()

	// Clear the null element - allocation bypasses it, but it may be read.
	clear(a.stages[0][:elementSize])

	return a
}

// Resume reattaches to an arena a previous process left in ctrl. The supplied
// geometry must match the persisted one after the same zero-defaulting Init
// applies; any mismatch is rejected rather than silently adopted. Stages
// 0..stage count-1 are reattached through the provider, which must resolve
// the same keys to the same storage as the creating process.
func Resume(ctrl []byte, p stage.Provider, keyBase, elementSize, stageCapacity, maxStages, flags uint32) (*Arena, error) {
	if p == nil {
		return nil, fmt.Errorf("nil stage provider: %w", ErrBadParam)
	}

	h, err := layout.Parse(ctrl)
	if err != nil {
		return nil, err
	}
	if err := h.ValidateSanity(); err != nil {
		return nil, err
	}

	stageCapacity, maxStages = defaultGeometry(stageCapacity, maxStages)
	if h.KeyBase != keyBase || h.ElementSize != elementSize ||
		h.StageCapacity != stageCapacity || h.MaxStages != maxStages {
		return nil, fmt.Errorf(
			"arena: persisted geometry (key %#x, element %d, capacity %d, stages %d) does not match supplied (key %#x, element %d, capacity %d, stages %d): %w",
			h.KeyBase, h.ElementSize, h.StageCapacity, h.MaxStages,
			keyBase, elementSize, stageCapacity, maxStages, ErrBadParam)
	}

	a := &Arena{
		keyBase:       h.KeyBase,
		elementSize:   h.ElementSize,
		stageCapacity: h.StageCapacity,
		maxStages:     h.MaxStages,
		flags:         flags,
		stageSize:     h.StageSize,
		provider:      p,
		ctrl:          ctrl,

		freeHead:    Handle(h.FreeHead),
		atStageID:   h.AtStageID,
		atElementID: h.AtElementID,

		stages: make([][]byte, h.MaxStages),
	}

	for i := uint32(0); i < h.StageCount; i++ {
		base, attachErr := p.CreateOrAttach(a.stageKey(i), a.stageSize)
		if attachErr != nil {
			return nil, fmt.Errorf("arena: reattach stage %d: %w", i, attachErr)
		}
		if uint32(len(base)) != a.stageSize {
			return nil, fmt.Errorf("arena: reattach stage %d: got %d bytes, want %d: %w",
				i, len(base), a.stageSize, stage.ErrSizeMismatch)
		}
		a.stages[i] = base
	}
	a.stageCount.Store(h.StageCount)

	// Flags are a process-local concern (locking, zero-fill); re-stamp so the
	// block reflects the owning process.
	layout.PutU32(ctrl, layout.FlagsOffset, flags)

	return a, nil
}

// Detach releases every attached stage through the provider. The arena must
// not be used afterwards; its persisted control block and stages survive for
// a later Resume if the provider's backing storage does.
func (a *Arena) Detach() error {
	a.lock()
	defer a.unlock()

	var firstErr error
	count := a.stageCount.Load()
	for i := uint32(0); i < count; i++ {
		if err := a.provider.Detach(a.stageKey(i)); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("arena: detach stage %d: %w", i, err)
		}
		a.stages[i] = nil
	}
	// Later resolves fail fast instead of touching released memory.
	a.stageCount.Store(0)
	return firstErr
}

// Stats returns a snapshot of the arena's cursor, free list head and
// operation counters.
func (a *Arena) Stats() Stats {
	a.lock()
	defer a.unlock()
	return Stats{
		ElementSize:   a.elementSize,
		StageCapacity: a.stageCapacity,
		MaxStages:     a.maxStages,
		StageCount:    a.stageCount.Load(),
		AtStageID:     a.atStageID,
		AtElementID:   a.atElementID,
		FreeHead:      a.freeHead,
		Counters:      a.counters,
	}
}

// ElementSize returns the fixed byte size of every slot.
func (a *Arena) ElementSize() uint32 { return a.elementSize }

// StageCount returns the number of currently attached stages.
func (a *Arena) StageCount() uint32 { return a.stageCount.Load() }

func (a *Arena) stageKey(id uint32) uint32 { return a.keyBase + id }

// defaultGeometry substitutes the maximum allowed value for a zero stage
// capacity or zero stage count bound.
func defaultGeometry(stageCapacity, maxStages uint32) (uint32, uint32) {
	if stageCapacity == 0 {
		stageCapacity = MaxStageCapacity
	}
	if maxStages == 0 {
		maxStages = MaxStages
	}
	return stageCapacity, maxStages
}

func (a *Arena) lock() {
	if a.flags&FlagBigLock != 0 {
		a.mu.Lock()
	}
}

func (a *Arena) unlock() {
	if a.flags&FlagBigLock != 0 {
		a.mu.Unlock()
	}
}

// syncCtrl mirrors the mutable fields into the control block. Called with the
// lock held so the persisted view never tears.
func (a *Arena) syncCtrl() {
	layout.PutU64(a.ctrl, layout.FreeHeadOffset, uint64(a.freeHead))
	layout.PutU32(a.ctrl, layout.AtStageIDOffset, a.atStageID)
	layout.PutU32(a.ctrl, layout.AtElementIDOffset, a.atElementID)
	layout.PutU32(a.ctrl, layout.StageCountOffset, a.stageCount.Load())
}

// addStage attaches one more backing segment of exactly stageSize bytes,
// keyed by the base key plus the new stage's index. Called with the lock held
// (or from Init before the arena is shared).
func (a *Arena) addStage() error {
	count := a.stageCount.Load()
	if count >= a.maxStages {
		return fmt.Errorf("arena: %d stages attached: %w", count, ErrStageLimit)
	}

	base, err := a.provider.CreateOrAttach(a.stageKey(count), a.stageSize)
	if err != nil {
		return fmt.Errorf("arena: stage %d: %w", count, err)
	}
	if uint32(len(base)) != a.stageSize {
		return fmt.Errorf("arena: stage %d: got %d bytes, want %d: %w",
			count, len(base), a.stageSize, stage.ErrSizeMismatch)
	}

	if logAlloc {
		fmt.Fprintf(os.Stderr, "[ARENA] stage %d attached (key %#x, %d bytes)\n",
			count, a.stageKey(count), a.stageSize)
	}

	a.stages[count] = base
	a.stageCount.Store(count + 1)
	a.counters.Grows++
	return nil
}
