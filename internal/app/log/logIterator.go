package log

import (
	"github.com/pkg/errors"

	"coredb/internal/app/file"
)

// Iterator walks log records from the most recently appended back to the
// oldest, which is the order a rollback or recovery pass needs (spec.md §4.2).
type Iterator struct {
	fm           *file.Manager
	currentBlock file.BlockID
	page         *file.Page
	currentPos   int
	boundary     int
}

func newIterator(fm *file.Manager, blk file.BlockID) (*Iterator, error) {
	it := &Iterator{
		fm:           fm,
		currentBlock: blk,
		page:         file.NewPage(fm.BlockSize()),
	}

	if err := fm.Read(it.currentBlock, it.page); err != nil {
		return nil, errors.Wrap(err, "read iterator start block")
	}

	it.boundary = int(it.page.GetInt(0))
	it.currentPos = it.boundary
	return it, nil
}

// HasNext reports whether another record remains to be read.
func (it *Iterator) HasNext() bool {
	return it.currentPos < it.fm.BlockSize() || it.currentBlock.Number() > 0
}

// Next returns the next record and advances the iterator. It must not be
// called once HasNext reports false.
func (it *Iterator) Next() ([]byte, error) {
	if it.currentPos == it.fm.BlockSize() {
		block := file.NewBlockID(it.currentBlock.FileName(), it.currentBlock.Number()-1)
		if err := it.moveToBlock(block); err != nil {
			return nil, err
		}
	}

	rec := it.page.GetBytes(it.currentPos)
	it.currentPos += 4 + len(rec)
	return rec, nil
}

func (it *Iterator) moveToBlock(block file.BlockID) error {
	if err := it.fm.Read(block, it.page); err != nil {
		return errors.Wrapf(err, "read log block %s", block)
	}
	it.currentBlock = block
	it.boundary = int(it.page.GetInt(0))
	it.currentPos = it.boundary
	return nil
}
