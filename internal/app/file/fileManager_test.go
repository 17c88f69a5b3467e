package file_test

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"coredb/internal/app/file"
)

func TestNewManager_CreatesDirectory(t *testing.T) {
	dbDir := filepath.Join(t.TempDir(), "fresh")

	fm, err := file.NewManager(dbDir, 400)
	require.NoError(t, err)
	defer fm.Close()

	require.True(t, fm.IsNew())
	require.Equal(t, 400, fm.BlockSize())
}

func TestNewManager_RecognizesExistingDirectory(t *testing.T) {
	dbDir := t.TempDir()

	fm1, err := file.NewManager(dbDir, 400)
	require.NoError(t, err)
	require.True(t, fm1.IsNew())
	require.NoError(t, fm1.Close())

	fm2, err := file.NewManager(dbDir, 400)
	require.NoError(t, err)
	defer fm2.Close()
	require.False(t, fm2.IsNew())
}

func TestManager_ReadWriteRoundTrip(t *testing.T) {
	fm, err := file.NewManager(t.TempDir(), 400)
	require.NoError(t, err)
	defer fm.Close()

	block := file.NewBlockID("test.db", 0)
	page := file.NewPage(400)
	page.SetInt(0, 123)
	page.SetString(4, "hello")

	require.NoError(t, fm.Write(block, page))

	readBack := file.NewPage(400)
	require.NoError(t, fm.Read(block, readBack))
	require.Equal(t, int32(123), readBack.GetInt(0))
	require.Equal(t, "hello", readBack.GetString(4))
}

func TestManager_ReadPastEndOfFileZeroFills(t *testing.T) {
	fm, err := file.NewManager(t.TempDir(), 400)
	require.NoError(t, err)
	defer fm.Close()

	block := file.NewBlockID("nonexistent.db", 5)
	page := file.NewPage(400)
	page.SetInt(0, 999)

	require.NoError(t, fm.Read(block, page))
	require.Equal(t, int32(0), page.GetInt(0))
}

func TestManager_AppendGrowsFileByOneBlock(t *testing.T) {
	fm, err := file.NewManager(t.TempDir(), 400)
	require.NoError(t, err)
	defer fm.Close()

	for i := 0; i < 3; i++ {
		block, err := fm.Append("growing.db")
		require.NoError(t, err)
		require.Equal(t, i, block.Number())
	}

	length, err := fm.Length("growing.db")
	require.NoError(t, err)
	require.Equal(t, 3, length)
}

func TestManager_LengthOfUntouchedFileIsZero(t *testing.T) {
	fm, err := file.NewManager(t.TempDir(), 400)
	require.NoError(t, err)
	defer fm.Close()

	length, err := fm.Length("never-written.db")
	require.NoError(t, err)
	require.Equal(t, 0, length)
}

func TestManager_ConcurrentAppendsAcrossFiles(t *testing.T) {
	fm, err := file.NewManager(t.TempDir(), 400)
	require.NoError(t, err)
	defer fm.Close()

	const numFiles = 10
	var wg sync.WaitGroup
	errs := make([]error, numFiles)

	for i := 0; i < numFiles; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = fm.Append(fmt.Sprintf("concurrent%d.db", n))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
}
