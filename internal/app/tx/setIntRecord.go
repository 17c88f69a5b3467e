package tx

import (
	"fmt"

	"coredb/internal/app/file"
	"coredb/internal/app/log"
)

// SetIntRecord records the previous value of an int field so it can be
// restored on undo. Layout: tag(4) txnum(4) filename(var) blocknum(4)
// offset(4) oldval(4).
type SetIntRecord struct {
	txNum  int
	block  file.BlockID
	offset int
	val    int32
}

func newSetIntRecord(p *file.Page) *SetIntRecord {
	tPos := 4
	txNum := p.GetInt(tPos)

	fPos := tPos + 4
	fileName := p.GetString(fPos)

	bPos := fPos + file.MaxLength(len(fileName))
	blockNum := p.GetInt(bPos)

	oPos := bPos + 4
	offset := p.GetInt(oPos)

	vPos := oPos + 4
	val := p.GetInt(vPos)

	return &SetIntRecord{
		txNum:  int(txNum),
		block:  file.NewBlockID(fileName, int(blockNum)),
		offset: int(offset),
		val:    val,
	}
}

func (r *SetIntRecord) Op() LogRecordType {
	return SETINT
}

func (r *SetIntRecord) TxNumber() int {
	return r.txNum
}

func (r *SetIntRecord) String() string {
	return fmt.Sprintf("<SETINT %d %s %d %d>", r.txNum, r.block, r.offset, r.val)
}

// Undo restores the int field's prior value without generating a new log
// record, preventing an infinite undo chain.
func (r *SetIntRecord) Undo(tx *Transaction) error {
	if err := tx.Pin(r.block); err != nil {
		return err
	}
	defer tx.Unpin(r.block)
	return tx.SetInt(r.block, r.offset, int(r.val), false)
}

func logSetInt(lm *log.Manager, txNum int, block file.BlockID, offset int, val int32) (int, error) {
	tPos := 4
	fPos := tPos + 4
	bPos := fPos + file.MaxLength(len(block.FileName()))
	oPos := bPos + 4
	vPos := oPos + 4

	rec := make([]byte, vPos+4)
	p := file.NewPageFromBytes(rec)

	p.SetInt(0, int32(SETINT))
	p.SetInt(tPos, int32(txNum))
	p.SetString(fPos, block.FileName())
	p.SetInt(bPos, int32(block.Number()))
	p.SetInt(oPos, int32(offset))
	p.SetInt(vPos, val)

	return lm.Append(rec)
}
