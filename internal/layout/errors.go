package layout

import "errors"

var (
	// ErrSignatureMismatch indicates the control block had an unexpected magic.
	ErrSignatureMismatch = errors.New("layout: signature mismatch")
	// ErrTruncated indicates the buffer lacked the bytes required for a control block.
	ErrTruncated = errors.New("layout: truncated buffer")
	// ErrUnsupported indicates the control block layout version is not supported.
	ErrUnsupported = errors.New("layout: unsupported version")
	// ErrCorrupt indicates decoded fields contradict each other.
	ErrCorrupt = errors.New("layout: corrupt control block")
)
