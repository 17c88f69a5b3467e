package file

import "fmt"

// EndOfFile is the distinguished block number used as a lock target when
// growing a file. It is never read or written as a page; it exists purely
// as a lock key (spec.md §3, §9).
const EndOfFile = -1

// BlockID identifies a block within a file by name and block number.
// Block numbers are 0-based and dense within a file. BlockID is a plain
// value type so it can be compared with == and used directly as a map key,
// which the lock table and buffer pool both rely on.
type BlockID struct {
	filename    string
	blockNumber int
}

// NewBlockID returns a BlockID for the given file and block number.
func NewBlockID(filename string, blockNumber int) BlockID {
	return BlockID{filename: filename, blockNumber: blockNumber}
}

func (b BlockID) FileName() string {
	return b.filename
}

func (b BlockID) Number() int {
	return b.blockNumber
}

// String renders the BlockID the way the rest of the engine logs it.
func (b BlockID) String() string {
	return fmt.Sprintf("[file %s, block %d]", b.filename, b.blockNumber)
}
