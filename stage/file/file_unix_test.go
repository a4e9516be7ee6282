//go:build unix

package file

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/arenakit/stage"
)

func TestCreateOrAttach_CreatesSizedFile(t *testing.T) {
	p := New(t.TempDir())

	data, err := p.CreateOrAttach(7, 4096)
	require.NoError(t, err)
	require.Len(t, data, 4096)
	defer func() { require.NoError(t, p.Detach(7)) }()

	st, err := os.Stat(p.Path(7))
	require.NoError(t, err)
	assert.Equal(t, int64(4096), st.Size())
}

// TestCreateOrAttach_SurvivesDetach is the reattachment contract: the same
// key resolves to the same bytes after the mapping is dropped.
func TestCreateOrAttach_SurvivesDetach(t *testing.T) {
	p := New(t.TempDir())

	data, err := p.CreateOrAttach(7, 4096)
	require.NoError(t, err)
	copy(data, "persisted bytes")
	require.NoError(t, p.Flush(7))
	require.NoError(t, p.Detach(7))

	again, err := p.CreateOrAttach(7, 4096)
	require.NoError(t, err)
	defer func() { require.NoError(t, p.Detach(7)) }()
	assert.Equal(t, "persisted bytes", string(again[:15]))
}

func TestCreateOrAttach_SizeMismatch(t *testing.T) {
	dir := t.TempDir()
	p := New(dir)

	_, err := p.CreateOrAttach(7, 4096)
	require.NoError(t, err)
	require.NoError(t, p.Detach(7))

	// A second provider over the same directory sees the existing file.
	q := New(dir)
	_, err = q.CreateOrAttach(7, 8192)
	require.ErrorIs(t, err, stage.ErrSizeMismatch)
}

func TestCreateOrAttach_MissingDir(t *testing.T) {
	p := New("/nonexistent/arena/dir")

	_, err := p.CreateOrAttach(1, 4096)
	require.ErrorIs(t, err, stage.ErrCreate)
}

func TestDetach_NotAttached(t *testing.T) {
	p := New(t.TempDir())
	assert.ErrorIs(t, p.Detach(3), stage.ErrDetach)
	assert.ErrorIs(t, p.Flush(3), stage.ErrDetach)
}
