package arena

import (
	"testing"

	"github.com/joshuapare/arenakit/stage"
	"github.com/joshuapare/arenakit/stage/mem"
)

func newTestArena(t *testing.T, elementSize, capacity, maxStages, flags uint32) *Arena {
	t.Helper()
	ctrl := make([]byte, Sizeof())
	return Init(ctrl, mem.New(), 0xA000, elementSize, capacity, maxStages, flags)
}

// dirtyProvider pre-fills fresh segments with a pattern so tests can see
// exactly which bytes the arena clears. Reattach returns segments untouched.
type dirtyProvider struct {
	inner *mem.Provider
	fill  byte
	seen  map[uint32]bool
}

func newDirtyProvider(fill byte) *dirtyProvider {
	return &dirtyProvider{inner: mem.New(), fill: fill, seen: make(map[uint32]bool)}
}

func (d *dirtyProvider) CreateOrAttach(key uint32, size uint32) ([]byte, error) {
	seg, err := d.inner.CreateOrAttach(key, size)
	if err != nil {
		return nil, err
	}
	if !d.seen[key] {
		for i := range seg {
			seg[i] = d.fill
		}
		d.seen[key] = true
	}
	return seg, nil
}

func (d *dirtyProvider) Detach(key uint32) error { return d.inner.Detach(key) }

// failProvider delegates to an inner provider for the first allow calls, then
// fails every CreateOrAttach with err.
type failProvider struct {
	inner stage.Provider
	allow int
	err   error

	calls int
}

func (f *failProvider) CreateOrAttach(key uint32, size uint32) ([]byte, error) {
	f.calls++
	if f.calls > f.allow {
		return nil, f.err
	}
	return f.inner.CreateOrAttach(key, size)
}

func (f *failProvider) Detach(key uint32) error { return f.inner.Detach(key) }
