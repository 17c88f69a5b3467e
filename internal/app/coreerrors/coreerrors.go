// Package coreerrors defines the engine's error taxonomy (spec.md §7).
// Each kind is a sentinel tested with errors.Is; call sites wrap it with
// github.com/pkg/errors so the message keeps call-site context while
// errors.Cause still recovers the sentinel.
package coreerrors

import "errors"

var (
	// ErrIO indicates an underlying file/disk operation failed. Fatal to
	// the operation in progress; propagated to the caller.
	ErrIO = errors.New("io error")

	// ErrBufferAbort indicates the buffer pool stayed saturated beyond the
	// wait timeout. The caller must roll back the transaction.
	ErrBufferAbort = errors.New("buffer pool exhausted")

	// ErrLockAbort indicates a lock wait exceeded the timeout, or the
	// waiter lost a race on wakeup. The caller must roll back.
	ErrLockAbort = errors.New("lock wait timed out")

	// ErrLogFormat indicates log record decoding hit an unknown tag or a
	// truncated payload. Fatal to the rollback/recover pass in progress.
	ErrLogFormat = errors.New("malformed log record")

	// ErrSchema indicates an unknown field name or a type/length mismatch
	// at the record layer.
	ErrSchema = errors.New("schema error")
)
