//go:build unix

package arena_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/arenakit/arena"
	"github.com/joshuapare/arenakit/stage/file"
)

// TestArena_SurvivesReattach walks the full persistence story: build an
// arena over file-backed stages, write through a handle, tear the process
// state down, and resume from the persisted control block in a fresh
// provider. The handle must resolve to the same bytes.
func TestArena_SurvivesReattach(t *testing.T) {
	dir := t.TempDir()
	ctlPath := filepath.Join(dir, "arena.ctl")
	const keyBase = 0x100

	p := file.New(dir)
	ctrl := make([]byte, arena.Sizeof())
	a := arena.Init(ctrl, p, keyBase, 32, 16, 4, 0)

	h, err := a.Alloc()
	require.NoError(t, err)
	buf, err := a.Resolve(h)
	require.NoError(t, err)
	copy(buf, "durable record")

	// Force growth so resume has more than one stage to reattach.
	var last arena.Handle
	for i := 0; i < 20; i++ {
		last, err = a.Alloc()
		require.NoError(t, err)
	}
	require.Greater(t, a.StageCount(), uint32(1))
	require.NoError(t, a.Free(last))

	require.NoError(t, p.Flush(keyBase))
	require.NoError(t, a.Detach())
	require.NoError(t, os.WriteFile(ctlPath, ctrl, 0o644))

	// "Next process": fresh provider over the same directory.
	ctrl2, err := os.ReadFile(ctlPath)
	require.NoError(t, err)
	q := file.New(dir)
	b, err := arena.Resume(ctrl2, q, keyBase, 32, 16, 4, 0)
	require.NoError(t, err)

	got, err := b.Resolve(h)
	require.NoError(t, err)
	assert.Equal(t, "durable record", string(got[:14]))

	// The free list survived too: the freed slot is handed out first.
	reused, err := b.Alloc()
	require.NoError(t, err)
	assert.Equal(t, last, reused)
}
