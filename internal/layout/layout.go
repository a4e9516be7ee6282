// Package layout houses the low-level byte layout of the arena control block.
// The goal is to keep the encoding focused and independent from the public
// API so higher-level packages can orchestrate the data in a more ergonomic
// form. The control block is the only persisted structure the allocator owns;
// its layout must remain stable so a later process can reattach to an arena
// left behind in shared or file-backed memory.
package layout

import (
	"bytes"
	"fmt"
)

// Signature is the four-byte magic at the start of every arena control block.
// Layout (little-endian):
//
//	0x00  'a' 'r' 'n' 'x'
var Signature = []byte{'a', 'r', 'n', 'x'}

const (
	// SignatureSize is the length of the control block magic.
	SignatureSize = 4

	// Version is the current control block layout version.
	Version = 1

	// CtrlSize is the total size of the control block in bytes. It is fixed:
	// stage base addresses are process-local and never persisted, so the size
	// does not depend on how many stages are attached.
	CtrlSize = 0x40

	// Field offsets within the control block. All fields are little-endian.
	VersionOffset       = 0x04
	KeyBaseOffset       = 0x08
	ElementSizeOffset   = 0x0C
	StageCapacityOffset = 0x10
	MaxStagesOffset     = 0x14
	FlagsOffset         = 0x18
	StageSizeOffset     = 0x1C
	FreeHeadOffset      = 0x20 // uint64
	AtStageIDOffset     = 0x28
	AtElementIDOffset   = 0x2C
	StageCountOffset    = 0x30

	// ReservedOffset marks the start of the zero-filled tail of the block.
	ReservedOffset = 0x34
)

// Header captures the decoded fields of an arena control block.
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x00    4    'a' 'r' 'n' 'x'
//	 0x04    4    Layout version
//	 0x08    4    Base key for stage derivation
//	 0x0C    4    Element size in bytes
//	 0x10    4    Elements per stage
//	 0x14    4    Maximum number of stages
//	 0x18    4    Flag bits
//	 0x1C    4    Stage size in bytes (capacity * element size)
//	 0x20    8    Free list head handle (0 = empty)
//	 0x28    4    Bump cursor stage id
//	 0x2C    4    Bump cursor element id
//	 0x30    4    Number of attached stages
//	 0x34   12    Reserved, must be zero
type Header struct {
	Version       uint32
	KeyBase       uint32
	ElementSize   uint32
	StageCapacity uint32
	MaxStages     uint32
	Flags         uint32
	StageSize     uint32
	FreeHead      uint64
	AtStageID     uint32
	AtElementID   uint32
	StageCount    uint32
}

// Parse validates and extracts the fields of a control block.
func Parse(b []byte) (Header, error) {
	if len(b) < CtrlSize {
		return Header{}, fmt.Errorf("arena control block: %w", ErrTruncated)
	}
	if !bytes.Equal(b[:SignatureSize], Signature) {
		return Header{}, fmt.Errorf("arena control block: %w", ErrSignatureMismatch)
	}
	h := Header{
		Version:       ReadU32(b, VersionOffset),
		KeyBase:       ReadU32(b, KeyBaseOffset),
		ElementSize:   ReadU32(b, ElementSizeOffset),
		StageCapacity: ReadU32(b, StageCapacityOffset),
		MaxStages:     ReadU32(b, MaxStagesOffset),
		Flags:         ReadU32(b, FlagsOffset),
		StageSize:     ReadU32(b, StageSizeOffset),
		FreeHead:      ReadU64(b, FreeHeadOffset),
		AtStageID:     ReadU32(b, AtStageIDOffset),
		AtElementID:   ReadU32(b, AtElementIDOffset),
		StageCount:    ReadU32(b, StageCountOffset),
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("arena control block: version %d: %w", h.Version, ErrUnsupported)
	}
	return h, nil
}

// ValidateSanity cross-checks decoded fields against each other. It catches
// blocks that parse cleanly but describe an impossible arena.
func (h Header) ValidateSanity() error {
	if h.ElementSize == 0 {
		return fmt.Errorf("element size 0: %w", ErrCorrupt)
	}
	if h.StageCapacity == 0 || h.MaxStages == 0 {
		return fmt.Errorf("zero geometry: %w", ErrCorrupt)
	}
	if uint64(h.StageCapacity)*uint64(h.ElementSize) != uint64(h.StageSize) {
		return fmt.Errorf("stage size %d does not match capacity %d * element size %d: %w",
			h.StageSize, h.StageCapacity, h.ElementSize, ErrCorrupt)
	}
	if h.StageCount > h.MaxStages {
		return fmt.Errorf("stage count %d exceeds max stages %d: %w",
			h.StageCount, h.MaxStages, ErrCorrupt)
	}
	if h.AtStageID >= h.StageCount && h.StageCount > 0 {
		return fmt.Errorf("cursor stage %d beyond attached stages %d: %w",
			h.AtStageID, h.StageCount, ErrCorrupt)
	}
	if h.AtElementID > h.StageCapacity {
		return fmt.Errorf("cursor element %d beyond stage capacity %d: %w",
			h.AtElementID, h.StageCapacity, ErrCorrupt)
	}
	return nil
}

// Stamp writes a full control block for a fresh arena. The reserved tail is
// zeroed so future layout versions can rely on it.
func Stamp(b []byte, h Header) {
	copy(b[:SignatureSize], Signature)
	PutU32(b, VersionOffset, h.Version)
	PutU32(b, KeyBaseOffset, h.KeyBase)
	PutU32(b, ElementSizeOffset, h.ElementSize)
	PutU32(b, StageCapacityOffset, h.StageCapacity)
	PutU32(b, MaxStagesOffset, h.MaxStages)
	PutU32(b, FlagsOffset, h.Flags)
	PutU32(b, StageSizeOffset, h.StageSize)
	PutU64(b, FreeHeadOffset, h.FreeHead)
	PutU32(b, AtStageIDOffset, h.AtStageID)
	PutU32(b, AtElementIDOffset, h.AtElementID)
	PutU32(b, StageCountOffset, h.StageCount)
	for i := ReservedOffset; i < CtrlSize; i++ {
		b[i] = 0
	}
}
