package stage

import "errors"

var (
	// ErrCreate indicates the backing segment could not be created.
	ErrCreate = errors.New("stage: create failed")

	// ErrAttach indicates an existing segment could not be attached.
	ErrAttach = errors.New("stage: attach failed")

	// ErrDetach indicates a mapped segment could not be detached.
	ErrDetach = errors.New("stage: detach failed")

	// ErrSizeMismatch indicates an existing segment does not have the
	// requested size. Stages are never resized, so this points at a
	// configuration mismatch between the creating and attaching process.
	ErrSizeMismatch = errors.New("stage: size mismatch")

	// ErrUnsupported indicates the provider is not available on this platform.
	ErrUnsupported = errors.New("stage: unsupported on this platform")
)
