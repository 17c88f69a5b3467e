package log

import (
	"sync"

	"github.com/pkg/errors"

	"coredb/internal/app/file"
	"coredb/internal/app/logging"
)

var log = logging.For("log")

// Manager appends records to, and flushes, the database's single log file.
// The log grows only by appending: records are written back-to-front within
// a block, so the block's leading int is the offset of the most recently
// written record (spec.md §4.2).
type Manager struct {
	fm           *file.Manager
	logfile      string
	logpage      *file.Page
	currentBlock file.BlockID
	latestLSN    int
	lastSavedLSN int
	mu           sync.Mutex
}

// NewManager opens logfile, creating its first block if the file is empty,
// or loading the existing last block otherwise.
func NewManager(fm *file.Manager, logfile string) (*Manager, error) {
	lm := &Manager{
		fm:      fm,
		logfile: logfile,
		logpage: file.NewPage(fm.BlockSize()),
	}

	logSize, err := fm.Length(logfile)
	if err != nil {
		return nil, errors.Wrap(err, "check log size")
	}

	if logSize == 0 {
		block, err := lm.appendNewBlock()
		if err != nil {
			return nil, errors.Wrap(err, "append initial log block")
		}
		lm.currentBlock = block
	} else {
		lm.currentBlock = file.NewBlockID(logfile, logSize-1)
		if err := fm.Read(lm.currentBlock, lm.logpage); err != nil {
			return nil, errors.Wrap(err, "read last log block")
		}
	}

	return lm, nil
}

// Append adds logrec to the log and returns its assigned LSN. The record is
// not guaranteed durable until Flush is called with an LSN at or after the
// one returned here.
func (lm *Manager) Append(logrec []byte) (int, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	boundary := int(lm.logpage.GetInt(0))
	bytesNeeded := len(logrec) + 4

	if boundary-bytesNeeded < 4 {
		if err := lm.flush(); err != nil {
			return 0, err
		}
		block, err := lm.appendNewBlock()
		if err != nil {
			return 0, errors.Wrap(err, "append new log block")
		}
		lm.currentBlock = block
		boundary = int(lm.logpage.GetInt(0))
	}

	recpos := boundary - bytesNeeded
	lm.logpage.SetBytes(recpos, logrec)
	lm.logpage.SetInt(0, int32(recpos))

	lm.latestLSN++
	return lm.latestLSN, nil
}

func (lm *Manager) appendNewBlock() (file.BlockID, error) {
	block, err := lm.fm.Append(lm.logfile)
	if err != nil {
		return file.BlockID{}, errors.Wrap(err, "append log block")
	}

	lm.logpage.SetInt(0, int32(lm.fm.BlockSize()))
	if err := lm.fm.Write(block, lm.logpage); err != nil {
		return file.BlockID{}, errors.Wrap(err, "write new log block")
	}

	return block, nil
}

// Flush forces every log record up to and including lsn to disk. Records
// with a smaller LSN may already be durable from a previous flush.
func (lm *Manager) Flush(lsn int) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if lsn >= lm.lastSavedLSN {
		return lm.flush()
	}
	return nil
}

func (lm *Manager) flush() error {
	if err := lm.fm.Write(lm.currentBlock, lm.logpage); err != nil {
		return errors.Wrap(err, "flush log page")
	}
	lm.lastSavedLSN = lm.latestLSN
	log.WithField("lsn", lm.lastSavedLSN).Debug("flushed log")
	return nil
}

// LatestLSN returns the most recently assigned LSN.
func (lm *Manager) LatestLSN() int {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.latestLSN
}

// LastSavedLSN returns the highest LSN known to be durable on disk.
func (lm *Manager) LastSavedLSN() int {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.lastSavedLSN
}

// Iterator flushes the log and returns an iterator that walks records from
// most-recent to oldest, which is the order recovery needs.
func (lm *Manager) Iterator() (*Iterator, error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if err := lm.flush(); err != nil {
		return nil, err
	}

	return newIterator(lm.fm, lm.currentBlock)
}
