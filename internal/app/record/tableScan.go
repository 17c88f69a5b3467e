package record

import (
	"github.com/pkg/errors"

	"coredb/internal/app/file"
	"coredb/internal/app/tx"
)

// TableScan is a cursor over a table's records, moving block-by-block
// through the table's file and slot-by-slot within each block. It
// implements the read/update scan operations tables need (spec.md §6).
type TableScan struct {
	tx          *tx.Transaction
	layout      *Layout
	rp          *RecordPage
	filename    string
	currentSlot int
}

// NewTableScan opens a scan over tableName, creating its first block if
// the table is empty.
func NewTableScan(transaction *tx.Transaction, tableName string, layout *Layout) (*TableScan, error) {
	ts := &TableScan{
		tx:          transaction,
		layout:      layout,
		filename:    tableName + ".tbl",
		currentSlot: -1,
	}

	size, err := transaction.Size(ts.filename)
	if err != nil {
		return nil, errors.Wrapf(err, "size table %s", tableName)
	}

	if size == 0 {
		if err := ts.moveToNewBlock(); err != nil {
			return nil, err
		}
	} else if err := ts.moveToBlock(0); err != nil {
		return nil, err
	}

	return ts, nil
}

// BeforeFirst resets the scan to just before the table's first record.
func (ts *TableScan) BeforeFirst() error {
	return ts.moveToBlock(0)
}

// Next advances to the next record, returning false once the table is
// exhausted.
func (ts *TableScan) Next() (bool, error) {
	slot, err := ts.rp.nextAfter(ts.currentSlot)
	if err != nil {
		return false, err
	}
	ts.currentSlot = slot

	for ts.currentSlot < 0 {
		atLast, err := ts.atLastBlock()
		if err != nil {
			return false, err
		}
		if atLast {
			return false, nil
		}
		if err := ts.moveToBlock(ts.rp.Block().Number() + 1); err != nil {
			return false, err
		}
		slot, err := ts.rp.nextAfter(ts.currentSlot)
		if err != nil {
			return false, err
		}
		ts.currentSlot = slot
	}
	return true, nil
}

func (ts *TableScan) GetInt(fieldname string) (int, error) {
	return ts.rp.GetInt(ts.currentSlot, fieldname)
}

func (ts *TableScan) GetString(fieldname string) (string, error) {
	return ts.rp.GetString(ts.currentSlot, fieldname)
}

// Close unpins the scan's current block, if any.
func (ts *TableScan) Close() {
	if ts.rp != nil {
		ts.tx.Unpin(ts.rp.Block())
	}
}

func (ts *TableScan) moveToBlock(blockNum int) error {
	ts.Close()
	block := file.NewBlockID(ts.filename, blockNum)
	rp, err := NewRecordPage(ts.tx, block, ts.layout)
	if err != nil {
		return err
	}
	ts.rp = rp
	ts.currentSlot = -1
	return nil
}

func (ts *TableScan) moveToNewBlock() error {
	ts.Close()
	block, err := ts.tx.Append(ts.filename)
	if err != nil {
		return errors.Wrap(err, "append new table block")
	}
	rp, err := NewRecordPage(ts.tx, block, ts.layout)
	if err != nil {
		return err
	}
	ts.rp = rp
	ts.currentSlot = -1
	return ts.rp.format()
}

func (ts *TableScan) SetInt(fieldname string, val int) error {
	return ts.rp.SetInt(ts.currentSlot, fieldname, val)
}

func (ts *TableScan) SetString(fieldname string, val string) error {
	return ts.rp.SetString(ts.currentSlot, fieldname, val)
}

// Insert positions the scan at a newly allocated slot, extending the table
// with a fresh block if every existing block is full.
func (ts *TableScan) Insert() error {
	slot, err := ts.rp.insertAfter(ts.currentSlot)
	if err != nil {
		return err
	}
	ts.currentSlot = slot

	for ts.currentSlot < 0 {
		atLast, err := ts.atLastBlock()
		if err != nil {
			return err
		}
		if atLast {
			if err := ts.moveToNewBlock(); err != nil {
				return err
			}
		} else if err := ts.moveToBlock(ts.rp.Block().Number() + 1); err != nil {
			return err
		}

		slot, err := ts.rp.insertAfter(ts.currentSlot)
		if err != nil {
			return err
		}
		ts.currentSlot = slot
	}
	return nil
}

func (ts *TableScan) Delete() error {
	return ts.rp.delete(ts.currentSlot)
}

// HasField reports whether the table's schema defines fieldname.
func (ts *TableScan) HasField(fieldname string) bool {
	return ts.layout.Schema().HasField(fieldname)
}

// MoveToRID positions the scan directly at rid.
func (ts *TableScan) MoveToRID(rid RID) error {
	ts.Close()
	block := file.NewBlockID(ts.filename, rid.BlockNumber())
	rp, err := NewRecordPage(ts.tx, block, ts.layout)
	if err != nil {
		return err
	}
	ts.rp = rp
	ts.currentSlot = rid.Slot()
	return nil
}

func (ts *TableScan) GetRID() RID {
	return NewRID(ts.rp.Block().Number(), ts.currentSlot)
}

func (ts *TableScan) atLastBlock() (bool, error) {
	size, err := ts.tx.Size(ts.filename)
	if err != nil {
		return false, err
	}
	return ts.rp.Block().Number() == size-1, nil
}
