package mem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/arenakit/stage"
)

func TestCreateOrAttach_Idempotent(t *testing.T) {
	p := New()

	a, err := p.CreateOrAttach(1, 64)
	require.NoError(t, err)
	require.Len(t, a, 64)

	a[0] = 0x42
	b, err := p.CreateOrAttach(1, 64)
	require.NoError(t, err)
	assert.Equal(t, byte(0x42), b[0], "reattach must return the same segment")
}

func TestCreateOrAttach_DistinctKeys(t *testing.T) {
	p := New()

	a, err := p.CreateOrAttach(1, 32)
	require.NoError(t, err)
	b, err := p.CreateOrAttach(2, 32)
	require.NoError(t, err)

	a[0] = 1
	assert.Zero(t, b[0], "segments for distinct keys must not alias")
}

func TestCreateOrAttach_SizeMismatch(t *testing.T) {
	p := New()

	_, err := p.CreateOrAttach(1, 64)
	require.NoError(t, err)

	_, err = p.CreateOrAttach(1, 128)
	require.ErrorIs(t, err, stage.ErrSizeMismatch)
}

func TestDetach(t *testing.T) {
	p := New()

	_, err := p.CreateOrAttach(1, 64)
	require.NoError(t, err)
	require.NoError(t, p.Detach(1))

	// Heap segments do not survive detach; the key is simply free again.
	seg, err := p.CreateOrAttach(1, 64)
	require.NoError(t, err)
	assert.Zero(t, seg[0])

	assert.ErrorIs(t, p.Detach(99), stage.ErrDetach)
}
