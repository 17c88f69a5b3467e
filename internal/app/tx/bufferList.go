package tx

import (
	"github.com/pkg/errors"

	"coredb/internal/app/buffer"
	"coredb/internal/app/file"
)

// BufferList tracks the buffers a single transaction currently has pinned,
// so its buffers can all be released together on commit/rollback.
type BufferList struct {
	buffers map[file.BlockID]*buffer.Buffer
	pins    []file.BlockID
	bm      *buffer.Manager
}

func NewBufferList(bm *buffer.Manager) *BufferList {
	return &BufferList{
		buffers: make(map[file.BlockID]*buffer.Buffer),
		bm:      bm,
	}
}

// GetBuffer returns the buffer currently pinned for block.
func (bl *BufferList) GetBuffer(block file.BlockID) (*buffer.Buffer, error) {
	buff, exists := bl.buffers[block]
	if !exists {
		return nil, errors.Errorf("no pinned buffer for block %s", block)
	}
	return buff, nil
}

// Pin pins block and records it against this transaction.
func (bl *BufferList) Pin(block file.BlockID) error {
	buff, err := bl.bm.Pin(block)
	if err != nil {
		return errors.Wrapf(err, "pin block %s", block)
	}

	bl.buffers[block] = buff
	bl.pins = append(bl.pins, block)
	return nil
}

// Unpin releases one pin on block held by this transaction.
func (bl *BufferList) Unpin(block file.BlockID) {
	buff, exists := bl.buffers[block]
	if !exists {
		return
	}

	bl.bm.Unpin(buff)

	for i, pinned := range bl.pins {
		if pinned == block {
			bl.pins[i] = bl.pins[len(bl.pins)-1]
			bl.pins = bl.pins[:len(bl.pins)-1]
			break
		}
	}

	stillPinned := false
	for _, pinned := range bl.pins {
		if pinned == block {
			stillPinned = true
			break
		}
	}
	if !stillPinned {
		delete(bl.buffers, block)
	}
}

// UnpinAll releases every buffer this transaction currently holds pinned.
func (bl *BufferList) UnpinAll() {
	for _, block := range bl.pins {
		if buff, exists := bl.buffers[block]; exists {
			bl.bm.Unpin(buff)
		}
	}
	bl.buffers = make(map[file.BlockID]*buffer.Buffer)
	bl.pins = bl.pins[:0]
}
