package tx

import (
	"fmt"

	"coredb/internal/app/file"
	"coredb/internal/app/log"
)

// CommitRecord marks that a transaction committed; it carries no undo
// information.
type CommitRecord struct {
	txNum int
}

func newCommitRecord(p *file.Page) *CommitRecord {
	return &CommitRecord{txNum: int(p.GetInt(4))}
}

func (r *CommitRecord) Op() LogRecordType {
	return COMMIT
}

func (r *CommitRecord) TxNumber() int {
	return r.txNum
}

func (r *CommitRecord) Undo(tx *Transaction) error {
	return nil
}

func (r *CommitRecord) String() string {
	return fmt.Sprintf("<COMMIT %d>", r.txNum)
}

func logCommit(lm *log.Manager, txNum int) (int, error) {
	rec := make([]byte, 8)
	p := file.NewPageFromBytes(rec)
	p.SetInt(0, int32(COMMIT))
	p.SetInt(4, int32(txNum))
	return lm.Append(rec)
}
