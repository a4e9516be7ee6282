package arena

// Handle is an opaque identifier for one element slot. It packs the slot's
// element id into the low bits and its stage id into the remaining high bits,
// so a handle stays valid across process restarts and shared-memory
// reattachment where a raw address would not.
//
// Layout (64 bits):
//
//	bits  0..27  element id within the stage
//	bits 28..63  stage id
type Handle uint64

const (
	elementIDBits = 28
	elementIDMask = (Handle(1) << elementIDBits) - 1
)

// Null is the reserved handle value. It is never issued by Alloc and always
// resolves to the zero-filled first slot of stage 0.
const Null Handle = 0

func makeHandle(stageID, elementID uint32) Handle {
	return Handle(stageID)<<elementIDBits | Handle(elementID)
}

// StageID returns the stage index encoded in the handle.
func (h Handle) StageID() uint32 { return uint32(h >> elementIDBits) }

// ElementID returns the element offset within the stage encoded in the handle.
func (h Handle) ElementID() uint32 { return uint32(h & elementIDMask) }

// IsNull reports whether h is the reserved null handle.
func (h Handle) IsNull() bool { return h == Null }
