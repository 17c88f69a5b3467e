package tx

import (
	"github.com/pkg/errors"

	"coredb/internal/app/buffer"
	"coredb/internal/app/coreerrors"
	"coredb/internal/app/log"
	"coredb/internal/app/logging"
)

var recLog = logging.For("tx")

// RecoveryManager gives a single transaction commit, rollback, and undo-only
// crash recovery, all driven by scanning the log backward (spec.md §4.5).
// No redo phase exists: every committed write is flushed from the buffer pool
// to disk before its COMMIT record is written.
type RecoveryManager struct {
	lm    *log.Manager
	bm    *buffer.Manager
	tx    *Transaction
	txnum int
}

// NewRecoveryManager writes a START record for tx and returns a manager
// bound to it.
func NewRecoveryManager(tx *Transaction, txnum int, lm *log.Manager, bm *buffer.Manager) (*RecoveryManager, error) {
	if _, err := logStart(lm, txnum); err != nil {
		return nil, errors.Wrap(err, "log transaction start")
	}
	return &RecoveryManager{lm: lm, bm: bm, tx: tx, txnum: txnum}, nil
}

// Commit flushes every buffer this transaction modified, then writes and
// flushes a COMMIT record. Flushing buffers first is what makes recovery
// undo-only: by the time COMMIT is durable, so is everything it covers.
func (rm *RecoveryManager) Commit() error {
	if err := rm.bm.FlushAll(rm.txnum); err != nil {
		return errors.Wrap(err, "flush buffers before commit")
	}
	lsn, err := logCommit(rm.lm, rm.txnum)
	if err != nil {
		return errors.Wrap(err, "log commit")
	}
	if err := rm.lm.Flush(lsn); err != nil {
		return errors.Wrap(err, "flush commit record")
	}
	recLog.WithField("txnum", rm.txnum).Debug("transaction committed")
	return nil
}

// Rollback undoes every change this transaction made, then flushes buffers
// and writes a ROLLBACK record.
func (rm *RecoveryManager) Rollback() error {
	if err := rm.doRollback(); err != nil {
		return err
	}
	if err := rm.bm.FlushAll(rm.txnum); err != nil {
		return errors.Wrap(err, "flush buffers before rollback record")
	}
	lsn, err := logRollback(rm.lm, rm.txnum)
	if err != nil {
		return errors.Wrap(err, "log rollback")
	}
	return rm.lm.Flush(lsn)
}

// Recover undoes every change made by transactions that were active at
// crash time, then flushes buffers and writes a CHECKPOINT record.
func (rm *RecoveryManager) Recover() error {
	if err := rm.doRecover(); err != nil {
		return err
	}
	if err := rm.bm.FlushAll(rm.txnum); err != nil {
		return errors.Wrap(err, "flush buffers before checkpoint")
	}
	lsn, err := logCheckpoint(rm.lm)
	if err != nil {
		return errors.Wrap(err, "log checkpoint")
	}
	if err := rm.lm.Flush(lsn); err != nil {
		return err
	}
	recLog.WithField("lsn", lsn).Info("checkpoint written")
	return nil
}

// SetInt logs buff's current value at offset before it is overwritten, so
// it can be restored on undo, and returns the new record's LSN.
func (rm *RecoveryManager) SetInt(buff *buffer.Buffer, offset int, newval int) (int, error) {
	oldval := buff.Contents().GetInt(offset)
	block, _ := buff.Block()
	return logSetInt(rm.lm, rm.txnum, block, offset, oldval)
}

// SetString logs buff's current value at offset before it is overwritten.
func (rm *RecoveryManager) SetString(buff *buffer.Buffer, offset int, newval string) (int, error) {
	oldVal := buff.Contents().GetString(offset)
	block, _ := buff.Block()
	return logSetString(rm.lm, rm.txnum, block, offset, oldVal)
}

// doRollback scans the log backward, undoing every record belonging to
// this transaction until its START record is reached.
func (rm *RecoveryManager) doRollback() error {
	iter, err := rm.lm.Iterator()
	if err != nil {
		return errors.Wrap(err, "open log iterator for rollback")
	}

	for iter.HasNext() {
		bytes, err := iter.Next()
		if err != nil {
			return errors.Wrap(err, "read log record during rollback")
		}
		record := CreateLogRecord(bytes)
		if record == nil {
			return errors.Wrapf(coreerrors.ErrLogFormat, "malformed log record during rollback: leading bytes %x", bytes[:min(4, len(bytes))])
		}

		if record.TxNumber() != rm.txnum {
			continue
		}
		if record.Op() == START {
			return nil
		}
		if err := record.Undo(rm.tx); err != nil {
			return errors.Wrap(err, "undo log record during rollback")
		}
	}
	return nil
}

// doRecover scans the log backward, undoing every record belonging to a
// transaction that neither committed nor rolled back, stopping at the
// most recent checkpoint.
func (rm *RecoveryManager) doRecover() error {
	finished := make(map[int]struct{})

	iter, err := rm.lm.Iterator()
	if err != nil {
		return errors.Wrap(err, "open log iterator for recovery")
	}

	for iter.HasNext() {
		bytes, err := iter.Next()
		if err != nil {
			return errors.Wrap(err, "read log record during recovery")
		}
		record := CreateLogRecord(bytes)
		if record == nil {
			return errors.Wrapf(coreerrors.ErrLogFormat, "malformed log record during recovery: leading bytes %x", bytes[:min(4, len(bytes))])
		}

		switch record.Op() {
		case CHECKPOINT:
			return nil
		case COMMIT, ROLLBACK:
			finished[record.TxNumber()] = struct{}{}
		default:
			if _, done := finished[record.TxNumber()]; !done {
				if err := record.Undo(rm.tx); err != nil {
					return errors.Wrap(err, "undo log record during recovery")
				}
			}
		}
	}
	return nil
}
