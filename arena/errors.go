package arena

import (
	"errors"

	"github.com/joshuapare/arenakit/stage"
)

// Code is the closed set of condition codes the arena reports. Codes are
// stable values suitable for persistence and cross-process diagnostics; the
// richer error values returned by the Go API wrap the sentinels below and map
// onto codes via CodeOf.
type Code uint32

const (
	CodeOK Code = iota
	CodeBadParam
	CodeStageCreate
	CodeStageAttach
	CodeStageDetach
	CodeUnknown
)

// Must stay in sync with the Code constants.
var codeStrings = [...]string{
	"ok",
	"bad parameter",
	"error creating stage",
	"error attaching stage",
	"error detaching stage",
	"unknown error",
}

// Errstr converts a Code to a meaningful string. Out-of-range codes clamp to
// "unknown error" so diagnostic paths cannot fault on a corrupted value.
func Errstr(c Code) string {
	if c > CodeUnknown {
		c = CodeUnknown
	}
	return codeStrings[c]
}

func (c Code) String() string { return Errstr(c) }

var (
	// ErrBadHandle indicates a handle that does not decode to an attached
	// stage and in-range element.
	ErrBadHandle = errors.New("arena: bad handle")

	// ErrBadParam indicates a parameter outside the arena's configured bounds.
	ErrBadParam = errors.New("arena: bad parameter")

	// ErrStageLimit indicates the stage table has reached max stages; the
	// arena is full and allocation cannot proceed.
	ErrStageLimit = errors.New("arena: stage table full")
)

// CodeOf maps an error returned by this package onto the closed code set.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrBadHandle), errors.Is(err, ErrBadParam),
		errors.Is(err, ErrStageLimit), errors.Is(err, stage.ErrSizeMismatch):
		return CodeBadParam
	case errors.Is(err, stage.ErrCreate):
		return CodeStageCreate
	case errors.Is(err, stage.ErrAttach):
		return CodeStageAttach
	case errors.Is(err, stage.ErrDetach):
		return CodeStageDetach
	default:
		return CodeUnknown
	}
}
