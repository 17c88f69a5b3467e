package tx

import (
	"coredb/internal/app/file"
)

// Lock kinds a ConcurrencyManager records locally against the blocks it
// has locked in the shared LockTable.
const (
	shared    = "S"
	exclusive = "X"
)

// ConcurrencyManager is a single transaction's view of which locks it
// holds. It is not safe for concurrent use: like BufferList, it belongs
// to exactly one transaction and is only ever touched by that
// transaction's own goroutine, so no mutex guards its map.
//
// Requesting the same lock twice from the shared LockTable would be
// wasteful (and, for XLock, would re-run the S-then-X upgrade dance), so
// this local map exists purely to make SLock/XLock idempotent per block.
type ConcurrencyManager struct {
	locks     map[file.BlockID]string
	locktable *LockTable
}

func NewConcurrencyManager(lt *LockTable) *ConcurrencyManager {
	return &ConcurrencyManager{
		locks:     make(map[file.BlockID]string),
		locktable: lt,
	}
}

// SLock acquires a shared lock on block from the global lock table, if
// this transaction does not already hold some lock on it.
func (cm *ConcurrencyManager) SLock(block file.BlockID) error {
	if _, held := cm.locks[block]; held {
		return nil
	}
	if err := cm.locktable.SLock(block); err != nil {
		return err
	}
	cm.locks[block] = shared
	return nil
}

// XLock acquires an exclusive lock on block, first taking a shared lock
// if this transaction holds none yet. Taking the shared lock first,
// then upgrading, is the lock table's own upgrade protocol (see
// LockTable.XLock) — skipping straight to an exclusive request would
// violate the invariant it relies on.
func (cm *ConcurrencyManager) XLock(block file.BlockID) error {
	if cm.hasXLock(block) {
		return nil
	}
	if err := cm.SLock(block); err != nil {
		return err
	}
	if err := cm.locktable.XLock(block); err != nil {
		return err
	}
	cm.locks[block] = exclusive
	return nil
}

// Release gives up every lock this transaction holds. Called once, on
// commit or rollback.
func (cm *ConcurrencyManager) Release() {
	for block := range cm.locks {
		cm.locktable.Unlock(block)
	}
	clear(cm.locks)
}

func (cm *ConcurrencyManager) hasXLock(block file.BlockID) bool {
	lockType, held := cm.locks[block]
	return held && lockType == exclusive
}
