//go:build linux || (darwin && !ios)

package shm

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/arenakit/stage"
)

// CreateOrAttach obtains the shared memory segment for key, creating it with
// exactly size bytes when it does not exist, and attaches it read-write.
func (p *Provider) CreateOrAttach(key uint32, size uint32) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if data, ok := p.maps[key]; ok {
		if uint32(len(data)) != size {
			return nil, fmt.Errorf("shm: segment %#x attached with %d bytes, want %d: %w",
				key, len(data), size, stage.ErrSizeMismatch)
		}
		return data, nil
	}

	id, err := unix.SysvShmGet(int(int32(key)), int(size), unix.IPC_CREAT|p.perm)
	if err != nil {
		return nil, fmt.Errorf("shm: shmget key %#x size %d: %v: %w",
			key, size, err, stage.ErrCreate)
	}

	// An existing segment satisfies shmget as long as it is at least size
	// bytes. Stages are exact-size, so verify before handing it out.
	var desc unix.SysvShmDesc
	if _, err := unix.SysvShmCtl(id, unix.IPC_STAT, &desc); err != nil {
		return nil, fmt.Errorf("shm: shmctl stat id %d: %v: %w", id, err, stage.ErrAttach)
	}
	if uint64(desc.Segsz) != uint64(size) {
		return nil, fmt.Errorf("shm: segment %#x has %d bytes, want %d: %w",
			key, desc.Segsz, size, stage.ErrSizeMismatch)
	}

	data, err := unix.SysvShmAttach(id, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("shm: shmat key %#x: %v: %w", key, err, stage.ErrAttach)
	}
	if uint32(len(data)) != size {
		_ = unix.SysvShmDetach(data)
		return nil, fmt.Errorf("shm: segment %#x mapped %d bytes, want %d: %w",
			key, len(data), size, stage.ErrSizeMismatch)
	}

	p.maps[key] = data
	return data, nil
}

// Detach unmaps the segment for key. The segment itself stays in the kernel
// until removed with ipcrm or shmctl(IPC_RMID).
func (p *Provider) Detach(key uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, ok := p.maps[key]
	if !ok {
		return fmt.Errorf("shm: segment %#x not attached: %w", key, stage.ErrDetach)
	}
	delete(p.maps, key)

	if err := unix.SysvShmDetach(data); err != nil {
		return fmt.Errorf("shm: shmdt segment %#x: %v: %w", key, err, stage.ErrDetach)
	}
	return nil
}

var _ stage.Provider = (*Provider)(nil)
