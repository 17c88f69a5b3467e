package tx

import (
	"coredb/internal/app/file"
	"coredb/internal/app/log"
)

// CheckpointRecord marks a point in the log before which recovery never
// needs to look, since every transaction active at that point has either
// finished by then or will be undone starting from it.
type CheckpointRecord struct{}

func newCheckpointRecord() *CheckpointRecord {
	return &CheckpointRecord{}
}

func (r *CheckpointRecord) Op() LogRecordType {
	return CHECKPOINT
}

// TxNumber returns a dummy negative id; checkpoint records belong to no
// transaction.
func (r *CheckpointRecord) TxNumber() int {
	return -1
}

func (r *CheckpointRecord) Undo(tx *Transaction) error {
	return nil
}

func (r *CheckpointRecord) String() string {
	return "<CHECKPOINT>"
}

func logCheckpoint(lm *log.Manager) (int, error) {
	rec := make([]byte, 4)
	p := file.NewPageFromBytes(rec)
	p.SetInt(0, int32(CHECKPOINT))
	return lm.Append(rec)
}
