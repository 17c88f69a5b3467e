package buffer

import (
	"github.com/pkg/errors"

	"coredb/internal/app/file"
	"coredb/internal/app/log"
)

// Buffer wraps a page with the bookkeeping the pool needs to decide when a
// page can be evicted: its assigned block, pin count, and (if dirty) the id
// of the modifying transaction and the LSN of the log record that justifies
// the modification (spec.md §4.3).
type Buffer struct {
	fm       *file.Manager
	lm       *log.Manager
	contents *file.Page
	block    file.BlockID
	hasBlock bool
	pins     int
	txnum    int // -1 indicates not modified
	lsn      int // -1 indicates no corresponding log record
}

// NewBuffer creates an unassigned buffer backed by the given file and log
// managers.
func NewBuffer(fm *file.Manager, lm *log.Manager) *Buffer {
	return &Buffer{
		fm:       fm,
		lm:       lm,
		contents: file.NewPage(fm.BlockSize()),
		txnum:    -1,
		lsn:      -1,
	}
}

func (b *Buffer) Contents() *file.Page {
	return b.contents
}

// Block returns the buffer's assigned block and whether one is assigned.
func (b *Buffer) Block() (file.BlockID, bool) {
	return b.block, b.hasBlock
}

// SetModified records that txnum modified this buffer, producing the log
// record at lsn. A negative lsn means the modification was not logged
// (e.g. an empty new block), so the LSN is left unchanged.
func (b *Buffer) SetModified(txnum, lsn int) {
	b.txnum = txnum
	if lsn >= 0 {
		b.lsn = lsn
	}
}

func (b *Buffer) IsPinned() bool {
	return b.pins > 0
}

// ModifyingTx returns the id of the transaction that last modified this
// buffer, or -1 if it is clean.
func (b *Buffer) ModifyingTx() int {
	return b.txnum
}

// AssignToBlock flushes any dirty contents to their previous block, then
// loads block's contents into the buffer and resets its pin count.
func (b *Buffer) AssignToBlock(block file.BlockID) error {
	if err := b.Flush(); err != nil {
		return err
	}
	b.block = block
	b.hasBlock = true
	if err := b.fm.Read(block, b.contents); err != nil {
		return errors.Wrapf(err, "assign buffer to block %s", block)
	}
	b.pins = 0
	return nil
}

// Flush writes the buffer to its disk block if it has been modified since
// the last flush, first forcing the log up to the modifying LSN per the
// write-ahead logging invariant.
func (b *Buffer) Flush() error {
	if b.txnum < 0 {
		return nil
	}
	if err := b.lm.Flush(b.lsn); err != nil {
		return errors.Wrap(err, "flush log before buffer")
	}
	if err := b.fm.Write(b.block, b.contents); err != nil {
		return errors.Wrapf(err, "flush buffer for block %s", b.block)
	}
	b.txnum = -1
	return nil
}

func (b *Buffer) Pin() {
	b.pins++
}

func (b *Buffer) Unpin() {
	b.pins--
}
