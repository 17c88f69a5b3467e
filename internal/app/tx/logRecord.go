package tx

import (
	"coredb/internal/app/file"
)

// LogRecordType tags the kind of operation a log record describes.
type LogRecordType int32

const (
	CHECKPOINT LogRecordType = iota
	START
	COMMIT
	ROLLBACK
	SETINT
	SETSTRING
)

// LogRecord is the common interface every log record variant implements.
// Undo reverses the record's effect on tx without writing a new log record,
// which is how rollback and recovery avoid an infinite undo chain.
type LogRecord interface {
	Op() LogRecordType
	TxNumber() int
	Undo(tx *Transaction) error
}

// CreateLogRecord decodes bytes (as read from the log) into the concrete
// LogRecord variant its leading tag identifies.
func CreateLogRecord(bytes []byte) LogRecord {
	p := file.NewPageFromBytes(bytes)
	switch LogRecordType(p.GetInt(0)) {
	case CHECKPOINT:
		return newCheckpointRecord()
	case START:
		return newStartRecord(p)
	case COMMIT:
		return newCommitRecord(p)
	case ROLLBACK:
		return newRollbackRecord(p)
	case SETINT:
		return newSetIntRecord(p)
	case SETSTRING:
		return newSetStringRecord(p)
	default:
		return nil
	}
}
