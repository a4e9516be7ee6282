// Package mem provides a process-heap stage provider. Segments live only as
// long as the provider, so arenas built on it are not persistent. It is the
// default choice for tests and for embedders that want handle-based
// allocation without shared or file-backed memory.
package mem

import (
	"fmt"
	"sync"

	"github.com/joshuapare/arenakit/stage"
)

// Provider hands out heap-allocated segments keyed by stage key.
// CreateOrAttach is idempotent: attaching an existing key returns the same
// buffer, mirroring the reattach semantics of the persistent providers.
type Provider struct {
	mu       sync.Mutex
	segments map[uint32][]byte
}

// New returns an empty in-memory provider.
func New() *Provider {
	return &Provider{segments: make(map[uint32][]byte)}
}

// CreateOrAttach returns the segment for key, allocating it on first use.
func (p *Provider) CreateOrAttach(key uint32, size uint32) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if seg, ok := p.segments[key]; ok {
		if uint32(len(seg)) != size {
			return nil, fmt.Errorf("mem: segment %#x has %d bytes, want %d: %w",
				key, len(seg), size, stage.ErrSizeMismatch)
		}
		return seg, nil
	}

	seg := make([]byte, size)
	p.segments[key] = seg
	return seg, nil
}

// Detach drops the segment for key. Unknown keys report ErrDetach; the heap
// backing has no existence outside this provider, so detaching destroys it.
func (p *Provider) Detach(key uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.segments[key]; !ok {
		return fmt.Errorf("mem: segment %#x not attached: %w", key, stage.ErrDetach)
	}
	delete(p.segments, key)
	return nil
}

var _ stage.Provider = (*Provider)(nil)
