package tx

import (
	"fmt"

	"coredb/internal/app/file"
	"coredb/internal/app/log"
)

// RollbackRecord marks that a transaction rolled back; it carries no undo
// information.
type RollbackRecord struct {
	txNum int
}

func newRollbackRecord(p *file.Page) *RollbackRecord {
	return &RollbackRecord{txNum: int(p.GetInt(4))}
}

func (r *RollbackRecord) Op() LogRecordType {
	return ROLLBACK
}

func (r *RollbackRecord) TxNumber() int {
	return r.txNum
}

func (r *RollbackRecord) Undo(tx *Transaction) error {
	return nil
}

func (r *RollbackRecord) String() string {
	return fmt.Sprintf("<ROLLBACK %d>", r.txNum)
}

func logRollback(lm *log.Manager, txNum int) (int, error) {
	rec := make([]byte, 8)
	p := file.NewPageFromBytes(rec)
	p.SetInt(0, int32(ROLLBACK))
	p.SetInt(4, int32(txNum))
	return lm.Append(rec)
}
