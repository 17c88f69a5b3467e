package tx_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"coredb/internal/app/buffer"
	"coredb/internal/app/file"
	"coredb/internal/app/log"
	"coredb/internal/app/tx"
)

type testDB struct {
	fm *file.Manager
	lm *log.Manager
	bm *buffer.Manager
	lt *tx.LockTable
}

func newTestDB(t *testing.T) *testDB {
	t.Helper()
	dbDir := t.TempDir()

	fm, err := file.NewManager(dbDir, 400)
	require.NoError(t, err)
	t.Cleanup(func() { fm.Close() })

	lm, err := log.NewManager(fm, "test.log")
	require.NoError(t, err)

	bm := buffer.NewManager(fm, lm, 8)
	lt := tx.NewLockTable()

	return &testDB{fm: fm, lm: lm, bm: bm, lt: lt}
}

func (db *testDB) newTx(t *testing.T) *tx.Transaction {
	t.Helper()
	transaction, err := tx.NewTransaction(db.fm, db.lm, db.bm, db.lt)
	require.NoError(t, err)
	return transaction
}

func TestTransactionCommitMakesWritesDurable(t *testing.T) {
	db := newTestDB(t)

	tx1 := db.newTx(t)
	block, err := tx1.Append("data.tbl")
	require.NoError(t, err)
	require.NoError(t, tx1.Pin(block))
	require.NoError(t, tx1.SetInt(block, 0, 123, true))
	require.NoError(t, tx1.SetString(block, 4, "hello", true))
	require.NoError(t, tx1.Commit())

	tx2 := db.newTx(t)
	require.NoError(t, tx2.Pin(block))
	v, err := tx2.GetInt(block, 0)
	require.NoError(t, err)
	require.Equal(t, int32(123), v)
	s, err := tx2.GetString(block, 4)
	require.NoError(t, err)
	require.Equal(t, "hello", s)
	require.NoError(t, tx2.Commit())
}

func TestTransactionRollbackUndoesWrites(t *testing.T) {
	db := newTestDB(t)

	setup := db.newTx(t)
	block, err := setup.Append("data.tbl")
	require.NoError(t, err)
	require.NoError(t, setup.Pin(block))
	require.NoError(t, setup.SetInt(block, 0, 1, true))
	require.NoError(t, setup.Commit())

	tx1 := db.newTx(t)
	require.NoError(t, tx1.Pin(block))
	require.NoError(t, tx1.SetInt(block, 0, 999, true))
	require.NoError(t, tx1.Rollback())

	tx2 := db.newTx(t)
	require.NoError(t, tx2.Pin(block))
	v, err := tx2.GetInt(block, 0)
	require.NoError(t, err)
	require.Equal(t, int32(1), v)
	require.NoError(t, tx2.Commit())
}

func TestTransactionRecoverUndoesUncommittedWrites(t *testing.T) {
	db := newTestDB(t)

	setup := db.newTx(t)
	block, err := setup.Append("data.tbl")
	require.NoError(t, err)
	require.NoError(t, setup.Pin(block))
	require.NoError(t, setup.SetInt(block, 0, 1, true))
	require.NoError(t, setup.Commit())

	crashed := db.newTx(t)
	require.NoError(t, crashed.Pin(block))
	require.NoError(t, crashed.SetInt(block, 0, 999, true))
	// Simulates a crash: no Commit/Rollback ever runs for crashed, and the
	// lock table it held locks in is gone, as it would be after a process
	// restart.
	db.lt = tx.NewLockTable()

	recovery := db.newTx(t)
	require.NoError(t, recovery.Recover())
	require.NoError(t, recovery.Commit())

	check := db.newTx(t)
	require.NoError(t, check.Pin(block))
	v, err := check.GetInt(block, 0)
	require.NoError(t, err)
	require.Equal(t, int32(1), v)
	require.NoError(t, check.Commit())
}

func TestTransactionSLockAllowsConcurrentReaders(t *testing.T) {
	db := newTestDB(t)

	setup := db.newTx(t)
	block, err := setup.Append("data.tbl")
	require.NoError(t, err)
	require.NoError(t, setup.Pin(block))
	require.NoError(t, setup.SetInt(block, 0, 5, true))
	require.NoError(t, setup.Commit())

	tx1 := db.newTx(t)
	tx2 := db.newTx(t)
	require.NoError(t, tx1.Pin(block))
	require.NoError(t, tx2.Pin(block))

	_, err = tx1.GetInt(block, 0)
	require.NoError(t, err)
	_, err = tx2.GetInt(block, 0)
	require.NoError(t, err)

	require.NoError(t, tx1.Commit())
	require.NoError(t, tx2.Commit())
}

func TestTransactionSizeAndAppendSerializeOnDummyBlock(t *testing.T) {
	db := newTestDB(t)
	tx1 := db.newTx(t)

	size, err := tx1.Size("data.tbl")
	require.NoError(t, err)
	require.Equal(t, 0, size)

	block, err := tx1.Append("data.tbl")
	require.NoError(t, err)
	require.Equal(t, 0, block.Number())

	size, err = tx1.Size("data.tbl")
	require.NoError(t, err)
	require.Equal(t, 1, size)

	require.NoError(t, tx1.Commit())
}
