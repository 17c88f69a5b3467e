package record

import "fmt"

// RID (record identifier) locates a record by the block it lives in and
// its slot within that block.
type RID struct {
	blockNum int
	slot     int
}

func NewRID(blocknum, slot int) RID {
	return RID{blockNum: blocknum, slot: slot}
}

func (rid RID) BlockNumber() int {
	return rid.blockNum
}

func (rid RID) Slot() int {
	return rid.slot
}

func (rid RID) String() string {
	return fmt.Sprintf("[%d, %d]", rid.blockNum, rid.slot)
}
