package tx

import (
	"fmt"

	"coredb/internal/app/file"
	"coredb/internal/app/log"
)

// SetStringRecord records the previous value of a string field so it can
// be restored on undo. Layout: tag(4) txnum(4) filename(var) blocknum(4)
// offset(4) oldval(var).
type SetStringRecord struct {
	txNum  int
	block  file.BlockID
	offset int
	val    string
}

func newSetStringRecord(p *file.Page) *SetStringRecord {
	tPos := 4
	txNum := p.GetInt(tPos)

	fPos := tPos + 4
	fileName := p.GetString(fPos)

	bPos := fPos + file.MaxLength(len(fileName))
	blockNum := p.GetInt(bPos)

	oPos := bPos + 4
	offset := p.GetInt(oPos)

	vPos := oPos + 4
	val := p.GetString(vPos)

	return &SetStringRecord{
		txNum:  int(txNum),
		block:  file.NewBlockID(fileName, int(blockNum)),
		offset: int(offset),
		val:    val,
	}
}

func (r *SetStringRecord) Op() LogRecordType {
	return SETSTRING
}

func (r *SetStringRecord) TxNumber() int {
	return r.txNum
}

func (r *SetStringRecord) String() string {
	return fmt.Sprintf("<SETSTRING %d %s %d %s>", r.txNum, r.block, r.offset, r.val)
}

// Undo restores the string field's prior value without generating a new
// log record, preventing an infinite undo chain.
func (r *SetStringRecord) Undo(tx *Transaction) error {
	if err := tx.Pin(r.block); err != nil {
		return err
	}
	defer tx.Unpin(r.block)
	return tx.SetString(r.block, r.offset, r.val, false)
}

func logSetString(lm *log.Manager, txNum int, block file.BlockID, offset int, val string) (int, error) {
	tPos := 4
	fPos := tPos + 4
	bPos := fPos + file.MaxLength(len(block.FileName()))
	oPos := bPos + 4
	vPos := oPos + 4

	rec := make([]byte, vPos+file.MaxLength(len(val)))
	p := file.NewPageFromBytes(rec)

	p.SetInt(0, int32(SETSTRING))
	p.SetInt(tPos, int32(txNum))
	p.SetString(fPos, block.FileName())
	p.SetInt(bPos, int32(block.Number()))
	p.SetInt(oPos, int32(offset))
	p.SetString(vPos, val)

	return lm.Append(rec)
}
