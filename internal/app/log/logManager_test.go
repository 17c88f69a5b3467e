package log_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coredb/internal/app/file"
	"coredb/internal/app/log"
)

func newTestManager(t *testing.T) (*file.Manager, *log.Manager) {
	t.Helper()
	fm, err := file.NewManager(t.TempDir(), 400)
	require.NoError(t, err)
	t.Cleanup(func() { fm.Close() })

	lm, err := log.NewManager(fm, "test.log")
	require.NoError(t, err)
	return fm, lm
}

func TestManagerAppendAssignsIncreasingLSNs(t *testing.T) {
	_, lm := newTestManager(t)

	lsn1, err := lm.Append([]byte("record one"))
	require.NoError(t, err)
	lsn2, err := lm.Append([]byte("record two"))
	require.NoError(t, err)

	require.Less(t, lsn1, lsn2)
}

func TestManagerIteratorReturnsRecordsNewestFirst(t *testing.T) {
	_, lm := newTestManager(t)

	records := [][]byte{[]byte("first"), []byte("second"), []byte("third")}
	for _, r := range records {
		_, err := lm.Append(r)
		require.NoError(t, err)
	}

	iter, err := lm.Iterator()
	require.NoError(t, err)

	var got [][]byte
	for iter.HasNext() {
		rec, err := iter.Next()
		require.NoError(t, err)
		got = append(got, rec)
	}

	require.Equal(t, [][]byte{[]byte("third"), []byte("second"), []byte("first")}, got)
}

func TestManagerFlushUpdatesLastSavedLSN(t *testing.T) {
	_, lm := newTestManager(t)

	lsn, err := lm.Append([]byte("durable me"))
	require.NoError(t, err)

	require.Equal(t, 0, lm.LastSavedLSN())
	require.NoError(t, lm.Flush(lsn))
	require.Equal(t, lsn, lm.LastSavedLSN())
}

func TestManagerSurvivesManyRecordsAcrossBlocks(t *testing.T) {
	_, lm := newTestManager(t)

	payload := make([]byte, 100)
	for i := 0; i < 50; i++ {
		_, err := lm.Append(payload)
		require.NoError(t, err)
	}

	iter, err := lm.Iterator()
	require.NoError(t, err)

	count := 0
	for iter.HasNext() {
		_, err := iter.Next()
		require.NoError(t, err)
		count++
	}
	require.Equal(t, 50, count)
}

func TestManagerReopensExistingLog(t *testing.T) {
	fm, lm := newTestManager(t)

	_, err := lm.Append([]byte("persisted"))
	require.NoError(t, err)
	require.NoError(t, lm.Flush(1))

	lm2, err := log.NewManager(fm, "test.log")
	require.NoError(t, err)

	iter, err := lm2.Iterator()
	require.NoError(t, err)
	require.True(t, iter.HasNext())
	rec, err := iter.Next()
	require.NoError(t, err)
	require.Equal(t, []byte("persisted"), rec)
}
