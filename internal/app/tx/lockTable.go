package tx

import (
	"sync"
	"time"

	"coredb/internal/app/coreerrors"
	"coredb/internal/app/file"
)

// maxLockWait is how long SLock/XLock wait for a conflicting lock to clear
// before giving up, per spec.md §4.4's deadlock-avoidance policy.
const maxLockWait = 10 * time.Second

// LockTable is the single global table of locks on blocks, shared by every
// transaction's ConcurrencyManager. A positive value is a shared-lock count;
// -1 marks an exclusive lock; absence means unlocked.
type LockTable struct {
	mu    sync.Mutex
	cond  *sync.Cond
	locks map[file.BlockID]int
}

// NewLockTable returns an empty lock table.
func NewLockTable() *LockTable {
	lt := &LockTable{
		locks: make(map[file.BlockID]int),
	}
	lt.cond = sync.NewCond(&lt.mu)
	return lt
}

// SLock blocks the caller until a shared lock on block can be granted (i.e.
// no transaction holds an exclusive lock on it), or returns
// coreerrors.ErrLockAbort after maxLockWait.
func (lt *LockTable) SLock(block file.BlockID) error {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	deadline := time.Now().Add(maxLockWait)
	for lt.hasXLock(block) {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			txLog.WithField("block", block.String()).Warn("timed out waiting for shared lock")
			return coreerrors.ErrLockAbort
		}
		waitFor(lt.cond, remaining)
	}

	lt.locks[block]++
	return nil
}

// XLock blocks the caller until an exclusive lock on block can be granted
// (i.e. no other transaction holds a lock on it), or returns
// coreerrors.ErrLockAbort after maxLockWait. Callers are expected to already
// hold a shared lock on block, per the usual lock-upgrade protocol.
func (lt *LockTable) XLock(block file.BlockID) error {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	deadline := time.Now().Add(maxLockWait)
	for lt.hasOtherSLocks(block) {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			txLog.WithField("block", block.String()).Warn("timed out waiting for exclusive lock")
			return coreerrors.ErrLockAbort
		}
		waitFor(lt.cond, remaining)
	}

	lt.locks[block] = -1
	return nil
}

// Unlock releases one lock on block. If the block becomes fully unlocked,
// waiters are woken to retry.
func (lt *LockTable) Unlock(block file.BlockID) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	val := lt.locks[block]
	switch {
	case val > 1:
		lt.locks[block] = val - 1
	default:
		delete(lt.locks, block)
		lt.cond.Broadcast()
	}
}

func (lt *LockTable) hasXLock(block file.BlockID) bool {
	return lt.locks[block] < 0
}

// hasOtherSLocks reports whether more than one shared lock remains on block; since the
// caller of XLock already holds one shared lock itself, more than one
// outstanding lock means a different transaction is still holding it.
func (lt *LockTable) hasOtherSLocks(block file.BlockID) bool {
	return lt.locks[block] > 1
}

// waitFor blocks on cond (lock held on entry and exit) until either a
// Broadcast arrives or timeout elapses. The caller re-checks its condition
// and remaining time afterward, so a spurious or timeout-driven wake is
// harmless.
func waitFor(cond *sync.Cond, timeout time.Duration) {
	timer := time.AfterFunc(timeout, func() {
		cond.L.Lock()
		cond.Broadcast()
		cond.L.Unlock()
	})
	defer timer.Stop()
	cond.Wait()
}
