package engine_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"coredb/internal/app/config"
	"coredb/internal/app/engine"
	"coredb/internal/app/record"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DBDir:      filepath.Join(t.TempDir(), "db"),
		BlockSize:  400,
		BufferPool: 8,
		LogFile:    "coredb.log",
	}
}

func TestOpenCreatesNewDatabaseAndCatalog(t *testing.T) {
	cfg := testConfig(t)

	eng, err := engine.Open(cfg)
	require.NoError(t, err)
	defer eng.Close()

	require.True(t, eng.WasNew())

	transaction, err := eng.NewTx()
	require.NoError(t, err)
	_, err = eng.TableManager().GetLayout("table_catalog", transaction)
	require.NoError(t, err)
	require.NoError(t, transaction.Commit())
}

func TestOpenRecoversExistingDatabase(t *testing.T) {
	cfg := testConfig(t)

	eng1, err := engine.Open(cfg)
	require.NoError(t, err)

	schema := record.NewSchema()
	schema.AddIntField("id")

	tx1, err := eng1.NewTx()
	require.NoError(t, err)
	require.NoError(t, eng1.TableManager().CreateTable("widgets", schema, tx1))
	require.NoError(t, tx1.Commit())
	require.NoError(t, eng1.Close())

	eng2, err := engine.Open(cfg)
	require.NoError(t, err)
	defer eng2.Close()

	require.False(t, eng2.WasNew())

	tx2, err := eng2.NewTx()
	require.NoError(t, err)
	layout, err := eng2.TableManager().GetLayout("widgets", tx2)
	require.NoError(t, err)
	require.Equal(t, []string{"id"}, layout.Schema().Fields())
	require.NoError(t, tx2.Commit())
}

func TestEngineEndToEndCreateInsertScan(t *testing.T) {
	cfg := testConfig(t)
	eng, err := engine.Open(cfg)
	require.NoError(t, err)
	defer eng.Close()

	schema := record.NewSchema()
	schema.AddIntField("id")
	schema.AddStringField("name", 16)

	tx1, err := eng.NewTx()
	require.NoError(t, err)
	require.NoError(t, eng.TableManager().CreateTable("people", schema, tx1))
	require.NoError(t, tx1.Commit())

	tx2, err := eng.NewTx()
	require.NoError(t, err)
	layout, err := eng.TableManager().GetLayout("people", tx2)
	require.NoError(t, err)

	ts, err := record.NewTableScan(tx2, "people", layout)
	require.NoError(t, err)
	require.NoError(t, ts.Insert())
	require.NoError(t, ts.SetInt("id", 1))
	require.NoError(t, ts.SetString("name", "ada"))
	ts.Close()
	require.NoError(t, tx2.Commit())

	tx3, err := eng.NewTx()
	require.NoError(t, err)
	ts2, err := record.NewTableScan(tx3, "people", layout)
	require.NoError(t, err)
	hasNext, err := ts2.Next()
	require.NoError(t, err)
	require.True(t, hasNext)
	name, err := ts2.GetString("name")
	require.NoError(t, err)
	require.Equal(t, "ada", name)
	ts2.Close()
	require.NoError(t, tx3.Commit())
}
