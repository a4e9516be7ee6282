//go:build !unix

package file

import (
	"fmt"

	"github.com/joshuapare/arenakit/stage"
)

// CreateOrAttach is unavailable without mmap support.
func (p *Provider) CreateOrAttach(key uint32, size uint32) ([]byte, error) {
	return nil, fmt.Errorf("file: stage %#x: %w", key, stage.ErrUnsupported)
}

// Detach is unavailable without mmap support.
func (p *Provider) Detach(key uint32) error {
	return fmt.Errorf("file: stage %#x: %w", key, stage.ErrUnsupported)
}

// Flush is unavailable without mmap support.
func (p *Provider) Flush(key uint32) error {
	return fmt.Errorf("file: stage %#x: %w", key, stage.ErrUnsupported)
}

var _ stage.Provider = (*Provider)(nil)
