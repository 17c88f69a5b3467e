// Package engine composes the file, log, buffer, transaction, and catalog
// layers into a single database handle (grounded on
// internal/app/server/centauriDB.go in the teacher repo).
package engine

import (
	"github.com/pkg/errors"

	"coredb/internal/app/buffer"
	"coredb/internal/app/config"
	"coredb/internal/app/file"
	"coredb/internal/app/log"
	"coredb/internal/app/logging"
	"coredb/internal/app/metadata"
	"coredb/internal/app/tx"
)

var engLog = logging.For("engine")

// Engine is a running database: the shared managers every transaction is
// built against, plus the system catalog.
type Engine struct {
	fm     *file.Manager
	lm     *log.Manager
	bm     *buffer.Manager
	lt     *tx.LockTable
	tm     *metadata.TableManager
	wasNew bool
}

// Open creates or recovers the database directory named by cfg.DBDir.
// If the directory already existed, a recovery transaction runs before
// the system catalog is opened.
func Open(cfg *config.Config) (*Engine, error) {
	fm, err := file.NewManager(cfg.DBDir, cfg.BlockSize)
	if err != nil {
		return nil, errors.Wrap(err, "open file manager")
	}

	lm, err := log.NewManager(fm, cfg.LogFile)
	if err != nil {
		return nil, errors.Wrap(err, "open log manager")
	}

	bm := buffer.NewManager(fm, lm, cfg.BufferPool)
	lt := tx.NewLockTable()

	isNew := fm.IsNew()

	eng := &Engine{fm: fm, lm: lm, bm: bm, lt: lt, wasNew: isNew}

	bootstrapTx, err := eng.NewTx()
	if err != nil {
		return nil, errors.Wrap(err, "start bootstrap transaction")
	}

	if isNew {
		engLog.WithField("db_dir", cfg.DBDir).Info("creating new database")
	} else {
		engLog.WithField("db_dir", cfg.DBDir).Info("recovering existing database")
		if err := bootstrapTx.Recover(); err != nil {
			return nil, errors.Wrap(err, "recover database")
		}
		engLog.WithField("db_dir", cfg.DBDir).Info("recovery finished")
	}

	tm, err := metadata.NewTableManager(isNew, bootstrapTx)
	if err != nil {
		return nil, errors.Wrap(err, "open table manager")
	}
	eng.tm = tm

	if err := bootstrapTx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit bootstrap transaction")
	}

	engLog.Info("database opened")
	return eng, nil
}

// NewTx starts a new transaction against the engine's shared managers.
func (e *Engine) NewTx() (*tx.Transaction, error) {
	return tx.NewTransaction(e.fm, e.lm, e.bm, e.lt)
}

func (e *Engine) TableManager() *metadata.TableManager {
	return e.tm
}

func (e *Engine) FileManager() *file.Manager {
	return e.fm
}

func (e *Engine) LogManager() *log.Manager {
	return e.lm
}

func (e *Engine) BufferManager() *buffer.Manager {
	return e.bm
}

// WasNew reports whether Open created a fresh database directory.
func (e *Engine) WasNew() bool {
	return e.wasNew
}

// Close releases the engine's open file handles.
func (e *Engine) Close() error {
	return e.fm.Close()
}
