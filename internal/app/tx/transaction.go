package tx

import (
	"sync/atomic"

	"github.com/pkg/errors"

	"coredb/internal/app/buffer"
	"coredb/internal/app/file"
	"coredb/internal/app/log"
	"coredb/internal/app/logging"
)

var txLog = logging.For("tx")
var nextTxNum atomic.Int64

// Transaction is the unit of work the rest of the engine operates through:
// every block access goes through Pin/GetInt/SetInt/etc. so that locking
// and undo logging happen automatically (spec.md §4.6).
type Transaction struct {
	rm        *RecoveryManager
	cm        *ConcurrencyManager
	bm        *buffer.Manager
	fm        *file.Manager
	lm        *log.Manager
	txnum     int
	myBuffers *BufferList
}

// NewTransaction begins a new transaction against the given file, log, and
// buffer managers, sharing lt with every other concurrently active
// transaction.
func NewTransaction(fm *file.Manager, lm *log.Manager, bm *buffer.Manager, lt *LockTable) (*Transaction, error) {
	txNum := int(nextTxNum.Add(1))

	tx := &Transaction{
		fm:        fm,
		lm:        lm,
		bm:        bm,
		txnum:     txNum,
		cm:        NewConcurrencyManager(lt),
		myBuffers: NewBufferList(bm),
	}

	rm, err := NewRecoveryManager(tx, txNum, lm, bm)
	if err != nil {
		return nil, errors.Wrapf(err, "start transaction %d", txNum)
	}
	tx.rm = rm

	txLog.WithField("txnum", txNum).Debug("transaction started")
	return tx, nil
}

// Commit durably commits the transaction's changes, releases its locks, and
// unpins its buffers.
func (tx *Transaction) Commit() error {
	if err := tx.rm.Commit(); err != nil {
		return errors.Wrapf(err, "commit transaction %d", tx.txnum)
	}
	tx.cm.Release()
	tx.myBuffers.UnpinAll()
	txLog.WithField("txnum", tx.txnum).Debug("transaction committed")
	return nil
}

// Rollback undoes the transaction's changes, releases its locks, and
// unpins its buffers. The transaction must not be used again afterward.
func (tx *Transaction) Rollback() error {
	if err := tx.rm.Rollback(); err != nil {
		return errors.Wrapf(err, "roll back transaction %d", tx.txnum)
	}
	tx.cm.Release()
	tx.myBuffers.UnpinAll()
	txLog.WithField("txnum", tx.txnum).Debug("transaction rolled back")
	return nil
}

// Recover runs undo-only crash recovery on behalf of this transaction,
// which must be the only transaction active when called (spec.md §4.5).
func (tx *Transaction) Recover() error {
	if err := tx.bm.FlushAll(tx.txnum); err != nil {
		return errors.Wrap(err, "flush buffers before recovery")
	}
	return tx.rm.Recover()
}

// Pin ensures block's contents are resident in the buffer pool and pinned
// against eviction for the rest of this transaction (or until Unpin).
func (tx *Transaction) Pin(block file.BlockID) error {
	return tx.myBuffers.Pin(block)
}

// Unpin releases one pin this transaction holds on block.
func (tx *Transaction) Unpin(block file.BlockID) {
	tx.myBuffers.Unpin(block)
}

// GetInt returns the int at offset in block, after acquiring a shared lock.
func (tx *Transaction) GetInt(block file.BlockID, offset int) (int32, error) {
	if err := tx.cm.SLock(block); err != nil {
		return 0, err
	}
	buff, err := tx.myBuffers.GetBuffer(block)
	if err != nil {
		return 0, err
	}
	return buff.Contents().GetInt(offset), nil
}

// GetString returns the string at offset in block, after acquiring a
// shared lock.
func (tx *Transaction) GetString(block file.BlockID, offset int) (string, error) {
	if err := tx.cm.SLock(block); err != nil {
		return "", err
	}
	buff, err := tx.myBuffers.GetBuffer(block)
	if err != nil {
		return "", err
	}
	return buff.Contents().GetString(offset), nil
}

// SetInt writes val at offset in block, after acquiring an exclusive lock.
// If okToLog is true, the prior value is logged first so it can be undone.
func (tx *Transaction) SetInt(block file.BlockID, offset int, val int, okToLog bool) error {
	if err := tx.cm.XLock(block); err != nil {
		return err
	}
	buff, err := tx.myBuffers.GetBuffer(block)
	if err != nil {
		return err
	}

	lsn := -1
	if okToLog {
		lsn, err = tx.rm.SetInt(buff, offset, val)
		if err != nil {
			return errors.Wrap(err, "log set int")
		}
	}

	buff.Contents().SetInt(offset, int32(val))
	buff.SetModified(tx.txnum, lsn)
	return nil
}

// SetString writes val at offset in block, after acquiring an exclusive
// lock. If okToLog is true, the prior value is logged first.
func (tx *Transaction) SetString(block file.BlockID, offset int, val string, okToLog bool) error {
	if err := tx.cm.XLock(block); err != nil {
		return err
	}
	buff, err := tx.myBuffers.GetBuffer(block)
	if err != nil {
		return err
	}

	lsn := -1
	if okToLog {
		lsn, err = tx.rm.SetString(buff, offset, val)
		if err != nil {
			return errors.Wrap(err, "log set string")
		}
	}

	buff.Contents().SetString(offset, val)
	buff.SetModified(tx.txnum, lsn)
	return nil
}

// Size returns filename's length in blocks, after acquiring a shared lock
// on the end-of-file sentinel block so concurrent appends serialize
// against it.
func (tx *Transaction) Size(filename string) (int, error) {
	dummyBlock := file.NewBlockID(filename, file.EndOfFile)
	if err := tx.cm.SLock(dummyBlock); err != nil {
		return 0, err
	}
	return tx.fm.Length(filename)
}

// Append extends filename by one block, after acquiring an exclusive lock
// on the end-of-file sentinel block.
func (tx *Transaction) Append(filename string) (file.BlockID, error) {
	dummyBlock := file.NewBlockID(filename, file.EndOfFile)
	if err := tx.cm.XLock(dummyBlock); err != nil {
		return file.BlockID{}, err
	}
	return tx.fm.Append(filename)
}

// BlockSize returns the engine's fixed block size in bytes.
func (tx *Transaction) BlockSize() int {
	return tx.fm.BlockSize()
}

// AvailableBuffers returns the number of currently unpinned buffers.
func (tx *Transaction) AvailableBuffers() int {
	return tx.bm.Available()
}
