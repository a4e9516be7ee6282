//go:build !linux && !(darwin && !ios)

package shm

import (
	"fmt"

	"github.com/joshuapare/arenakit/stage"
)

// CreateOrAttach is unavailable without System V shared memory support.
func (p *Provider) CreateOrAttach(key uint32, size uint32) ([]byte, error) {
	return nil, fmt.Errorf("shm: segment %#x: %w", key, stage.ErrUnsupported)
}

// Detach is unavailable without System V shared memory support.
func (p *Provider) Detach(key uint32) error {
	return fmt.Errorf("shm: segment %#x: %w", key, stage.ErrUnsupported)
}

var _ stage.Provider = (*Provider)(nil)
