package tx

import (
	"fmt"

	"coredb/internal/app/file"
	"coredb/internal/app/log"
)

// StartRecord marks the beginning of a transaction in the log. It carries
// no undo information; its only role is to bound how far back rollback
// needs to scan for a given transaction.
type StartRecord struct {
	txNum int
}

func newStartRecord(p *file.Page) *StartRecord {
	return &StartRecord{txNum: int(p.GetInt(4))}
}

func (r *StartRecord) Op() LogRecordType {
	return START
}

func (r *StartRecord) TxNumber() int {
	return r.txNum
}

func (r *StartRecord) Undo(tx *Transaction) error {
	return nil
}

func (r *StartRecord) String() string {
	return fmt.Sprintf("<START %d>", r.txNum)
}

// logStart appends a START record for txNum and returns its LSN.
func logStart(lm *log.Manager, txNum int) (int, error) {
	rec := make([]byte, 8)
	p := file.NewPageFromBytes(rec)
	p.SetInt(0, int32(START))
	p.SetInt(4, int32(txNum))
	return lm.Append(rec)
}
