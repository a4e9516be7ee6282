//go:build unix

package file

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/arenakit/stage"
)

// CreateOrAttach opens (or creates) the stage file for key, sizes it to
// exactly size bytes on creation, and mmaps it read-write shared. The file
// descriptor is closed after mapping; the mapping keeps the pages alive.
func (p *Provider) CreateOrAttach(key uint32, size uint32) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if data, ok := p.maps[key]; ok {
		if uint32(len(data)) != size {
			return nil, fmt.Errorf("file: stage %#x mapped with %d bytes, want %d: %w",
				key, len(data), size, stage.ErrSizeMismatch)
		}
		return data, nil
	}

	path := p.Path(key)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("file: open %s: %v: %w", path, err, stage.ErrCreate)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("file: stat %s: %v: %w", path, err, stage.ErrCreate)
	}

	switch st.Size() {
	case 0:
		// Fresh stage file. Extending with Truncate zero-fills it.
		if err := f.Truncate(int64(size)); err != nil {
			_ = os.Remove(path)
			return nil, fmt.Errorf("file: size %s to %d: %v: %w", path, size, err, stage.ErrCreate)
		}
	case int64(size):
		// Existing stage, reattach.
	default:
		return nil, fmt.Errorf("file: stage %s has %d bytes, want %d: %w",
			path, st.Size(), size, stage.ErrSizeMismatch)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("file: mmap %s: %v: %w", path, err, stage.ErrAttach)
	}

	p.maps[key] = data
	return data, nil
}

// Detach unmaps the stage for key. The backing file stays on disk so the
// stage can be reattached later.
func (p *Provider) Detach(key uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, ok := p.maps[key]
	if !ok {
		return fmt.Errorf("file: stage %#x not attached: %w", key, stage.ErrDetach)
	}
	delete(p.maps, key)

	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("file: munmap stage %#x: %v: %w", key, err, stage.ErrDetach)
	}
	return nil
}

// Flush synchronously writes the stage's dirty pages back to its file.
func (p *Provider) Flush(key uint32) error {
	p.mu.Lock()
	data, ok := p.maps[key]
	p.mu.Unlock()

	if !ok {
		return fmt.Errorf("file: stage %#x not attached: %w", key, stage.ErrDetach)
	}
	return unix.Msync(data, unix.MS_SYNC)
}

var _ stage.Provider = (*Provider)(nil)
