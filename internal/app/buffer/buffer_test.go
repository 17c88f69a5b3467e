package buffer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coredb/internal/app/buffer"
	"coredb/internal/app/file"
	"coredb/internal/app/log"
)

func newTestBuffer(t *testing.T) (*file.Manager, *log.Manager, *buffer.Buffer) {
	t.Helper()
	fm, err := file.NewManager(t.TempDir(), 400)
	require.NoError(t, err)
	t.Cleanup(func() { fm.Close() })

	lm, err := log.NewManager(fm, "test.log")
	require.NoError(t, err)

	return fm, lm, buffer.NewBuffer(fm, lm)
}

func TestBufferAssignToBlockLoadsContents(t *testing.T) {
	fm, _, buff := newTestBuffer(t)

	block, err := fm.Append("data.tbl")
	require.NoError(t, err)

	page := file.NewPage(400)
	page.SetInt(0, 55)
	require.NoError(t, fm.Write(block, page))

	require.NoError(t, buff.AssignToBlock(block))
	require.Equal(t, int32(55), buff.Contents().GetInt(0))

	gotBlock, has := buff.Block()
	require.True(t, has)
	require.Equal(t, block, gotBlock)
}

func TestBufferFlushIsNoOpWhenClean(t *testing.T) {
	_, _, buff := newTestBuffer(t)
	require.Equal(t, -1, buff.ModifyingTx())
	require.NoError(t, buff.Flush())
}

func TestBufferFlushWritesDirtyContentsAndClearsModifyingTx(t *testing.T) {
	fm, lm, buff := newTestBuffer(t)

	block, err := fm.Append("data.tbl")
	require.NoError(t, err)
	require.NoError(t, buff.AssignToBlock(block))

	buff.Contents().SetInt(0, 77)
	lsn, err := lm.Append([]byte("dummy record"))
	require.NoError(t, err)
	buff.SetModified(1, lsn)

	require.Equal(t, 1, buff.ModifyingTx())
	require.NoError(t, buff.Flush())
	require.Equal(t, -1, buff.ModifyingTx())

	readBack := file.NewPage(400)
	require.NoError(t, fm.Read(block, readBack))
	require.Equal(t, int32(77), readBack.GetInt(0))
}

func TestBufferPinUnpinTracksPinCount(t *testing.T) {
	_, _, buff := newTestBuffer(t)
	require.False(t, buff.IsPinned())

	buff.Pin()
	require.True(t, buff.IsPinned())

	buff.Pin()
	buff.Unpin()
	require.True(t, buff.IsPinned())

	buff.Unpin()
	require.False(t, buff.IsPinned())
}
