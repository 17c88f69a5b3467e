package record

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"coredb/internal/app/buffer"
	"coredb/internal/app/coreerrors"
	"coredb/internal/app/file"
	"coredb/internal/app/log"
	"coredb/internal/app/tx"
)

func newInternalTestTx(t *testing.T) *tx.Transaction {
	t.Helper()
	fm, err := file.NewManager(t.TempDir(), 400)
	require.NoError(t, err)
	t.Cleanup(func() { fm.Close() })

	lm, err := log.NewManager(fm, "test.log")
	require.NoError(t, err)

	bm := buffer.NewManager(fm, lm, 8)
	lt := tx.NewLockTable()

	transaction, err := tx.NewTransaction(fm, lm, bm, lt)
	require.NoError(t, err)
	return transaction
}

func internalTestSchema() *Schema {
	schema := NewSchema()
	schema.AddIntField("id")
	schema.AddStringField("name", 20)
	return schema
}

func newInternalTestRecordPage(t *testing.T, transaction *tx.Transaction, layout *Layout) *RecordPage {
	t.Helper()
	block, err := transaction.Append("data.tbl")
	require.NoError(t, err)
	rp, err := NewRecordPage(transaction, block, layout)
	require.NoError(t, err)
	require.NoError(t, rp.format())
	return rp
}

func TestRecordPageInsertAndReadBack(t *testing.T) {
	transaction := newInternalTestTx(t)
	layout := NewLayout(internalTestSchema())
	rp := newInternalTestRecordPage(t, transaction, layout)

	slot, err := rp.insertAfter(-1)
	require.NoError(t, err)
	require.GreaterOrEqual(t, slot, 0)

	require.NoError(t, rp.SetInt(slot, "id", 42))
	require.NoError(t, rp.SetString(slot, "name", "alice"))

	v, err := rp.GetInt(slot, "id")
	require.NoError(t, err)
	require.Equal(t, 42, v)

	s, err := rp.GetString(slot, "name")
	require.NoError(t, err)
	require.Equal(t, "alice", s)

	require.NoError(t, transaction.Commit())
}

func TestRecordPageDeleteFreesSlotForReuse(t *testing.T) {
	transaction := newInternalTestTx(t)
	layout := NewLayout(internalTestSchema())
	rp := newInternalTestRecordPage(t, transaction, layout)

	slot, err := rp.insertAfter(-1)
	require.NoError(t, err)
	require.NoError(t, rp.delete(slot))

	next, err := rp.nextAfter(-1)
	require.NoError(t, err)
	require.Equal(t, -1, next)

	reused, err := rp.insertAfter(-1)
	require.NoError(t, err)
	require.Equal(t, slot, reused)

	require.NoError(t, transaction.Commit())
}

func TestRecordPageSetStringRejectsValueOverBudget(t *testing.T) {
	transaction := newInternalTestTx(t)
	layout := NewLayout(internalTestSchema())
	rp := newInternalTestRecordPage(t, transaction, layout)

	slot, err := rp.insertAfter(-1)
	require.NoError(t, err)

	err = rp.SetString(slot, "name", strings.Repeat("x", 21))
	require.ErrorIs(t, err, coreerrors.ErrSchema)

	require.NoError(t, transaction.Commit())
}

func TestRecordPageFormatInitializesEverySlotEmpty(t *testing.T) {
	transaction := newInternalTestTx(t)
	layout := NewLayout(internalTestSchema())
	rp := newInternalTestRecordPage(t, transaction, layout)

	next, err := rp.nextAfter(-1)
	require.NoError(t, err)
	require.Equal(t, -1, next)

	require.NoError(t, transaction.Commit())
}
