package buffer

import (
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"coredb/internal/app/coreerrors"
	"coredb/internal/app/file"
	"coredb/internal/app/log"
	"coredb/internal/app/logging"
)

var bufLog = logging.For("buffer")

// maxWaitTime is how long Pin waits for a buffer to free up before giving
// up and reporting ErrBufferAbort, per spec.md §4.3.
const maxWaitTime = 10 * time.Second

// Manager coordinates a fixed-size pool of buffers, pinning blocks into
// them on demand and evicting unpinned buffers to make room for new ones.
// Waiters are released by condition variable broadcast rather than polling.
type Manager struct {
	bufferPool   []*Buffer
	numAvailable int
	mu           sync.Mutex
	cond         *sync.Cond
}

// NewManager allocates numBuffs buffers backed by fm and lm.
func NewManager(fm *file.Manager, lm *log.Manager, numBuffs int) *Manager {
	bm := &Manager{
		bufferPool:   make([]*Buffer, numBuffs),
		numAvailable: numBuffs,
	}
	bm.cond = sync.NewCond(&bm.mu)

	for i := 0; i < numBuffs; i++ {
		bm.bufferPool[i] = NewBuffer(fm, lm)
	}

	return bm
}

// Available returns the number of currently unpinned buffers.
func (bm *Manager) Available() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	return bm.numAvailable
}

// FlushAll flushes every buffer modified by txNum, concurrently.
func (bm *Manager) FlushAll(txNum int) error {
	bm.mu.Lock()
	dirty := make([]*Buffer, 0)
	for _, buff := range bm.bufferPool {
		if buff.ModifyingTx() == txNum {
			dirty = append(dirty, buff)
		}
	}
	bm.mu.Unlock()

	var g errgroup.Group
	for _, buff := range dirty {
		buff := buff
		g.Go(buff.Flush)
	}
	return g.Wait()
}

// Unpin releases one pin on buff. If the buffer becomes fully unpinned,
// waiters blocked in Pin are woken to retry.
func (bm *Manager) Unpin(buff *Buffer) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	buff.Unpin()
	if !buff.IsPinned() {
		bm.numAvailable++
		bm.cond.Broadcast()
	}
}

// Pin assigns block to a buffer, waiting for one to become available if the
// pool is fully pinned. If no buffer frees up within maxWaitTime, it returns
// coreerrors.ErrBufferAbort and the caller must roll back its transaction.
func (bm *Manager) Pin(block file.BlockID) (*Buffer, error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	buff, err := bm.tryToPin(block)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(maxWaitTime)
	for buff == nil {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			bufLog.WithField("block", block.String()).Warn("timed out waiting for buffer")
			return nil, coreerrors.ErrBufferAbort
		}

		timedOut := waitWithTimeout(bm.cond, remaining)
		if timedOut {
			bufLog.WithField("block", block.String()).Warn("timed out waiting for buffer")
			return nil, coreerrors.ErrBufferAbort
		}

		buff, err = bm.tryToPin(block)
		if err != nil {
			return nil, err
		}
	}

	return buff, nil
}

// waitWithTimeout blocks on cond.Wait (lock must be held on entry) until
// either a Broadcast arrives or timeout elapses, returning true on timeout.
func waitWithTimeout(cond *sync.Cond, timeout time.Duration) bool {
	timer := time.AfterFunc(timeout, func() {
		cond.L.Lock()
		cond.Broadcast()
		cond.L.Unlock()
	})
	cond.Wait()
	return !timer.Stop()
}

func (bm *Manager) tryToPin(block file.BlockID) (*Buffer, error) {
	buff := bm.findExistingBuffer(block)

	if buff == nil {
		buff = bm.chooseUnpinnedBuffer()
		if buff == nil {
			return nil, nil
		}
		if err := buff.AssignToBlock(block); err != nil {
			return nil, err
		}
	}

	if !buff.IsPinned() {
		bm.numAvailable--
	}

	buff.Pin()
	return buff, nil
}

func (bm *Manager) findExistingBuffer(block file.BlockID) *Buffer {
	for _, buff := range bm.bufferPool {
		if b, ok := buff.Block(); ok && b == block {
			return buff
		}
	}
	return nil
}

func (bm *Manager) chooseUnpinnedBuffer() *Buffer {
	for _, buff := range bm.bufferPool {
		if !buff.IsPinned() {
			return buff
		}
	}
	return nil
}
