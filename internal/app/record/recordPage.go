package record

import (
	"golang.org/x/text/unicode/norm"

	"github.com/pkg/errors"

	"coredb/internal/app/coreerrors"
	"coredb/internal/app/file"
	"coredb/internal/app/tx"
)

// Slot flags.
const (
	empty = 0
	used  = 1
)

// RecordPage manages the slotted records stored in a single block: each
// slot is a fixed-size in-use flag followed by the record's fields in
// schema order (spec.md §5).
type RecordPage struct {
	tx     *tx.Transaction
	block  file.BlockID
	layout *Layout
}

// NewRecordPage pins block for the life of the returned RecordPage.
func NewRecordPage(transaction *tx.Transaction, block file.BlockID, layout *Layout) (*RecordPage, error) {
	if err := transaction.Pin(block); err != nil {
		return nil, err
	}
	return &RecordPage{tx: transaction, block: block, layout: layout}, nil
}

func (rp *RecordPage) Block() file.BlockID {
	return rp.block
}

// GetInt returns the int stored for fieldname at slot.
func (rp *RecordPage) GetInt(slot int, fieldname string) (int, error) {
	fieldPos := rp.offset(slot) + rp.layout.Offset(fieldname)
	value, err := rp.tx.GetInt(rp.block, fieldPos)
	return int(value), err
}

// GetString returns the string stored for fieldname at slot.
func (rp *RecordPage) GetString(slot int, fieldname string) (string, error) {
	fieldPos := rp.offset(slot) + rp.layout.Offset(fieldname)
	return rp.tx.GetString(rp.block, fieldPos)
}

// SetInt stores val for fieldname at slot.
func (rp *RecordPage) SetInt(slot int, fieldname string, val int) error {
	fieldPos := rp.offset(slot) + rp.layout.Offset(fieldname)
	return rp.tx.SetInt(rp.block, fieldPos, val, true)
}

// SetString stores val for fieldname at slot, after verifying that its
// NFKC-normalized byte length fits the field's declared budget.
func (rp *RecordPage) SetString(slot int, fieldname string, val string) error {
	normalized, err := validateStringField(rp.layout.Schema(), fieldname, val)
	if err != nil {
		return err
	}
	fieldPos := rp.offset(slot) + rp.layout.Offset(fieldname)
	return rp.tx.SetString(rp.block, fieldPos, normalized, true)
}

// validateStringField normalizes val to NFKC and checks it fits within
// fieldname's declared byte budget, matching the width file.MaxLength
// reserved for it at layout time (SPEC_FULL.md §B.1).
func validateStringField(schema *Schema, fieldname, val string) (string, error) {
	normalized := norm.NFKC.String(val)
	budget := schema.Length(fieldname)
	if len(normalized) > budget {
		return "", errors.Wrapf(coreerrors.ErrSchema,
			"field %s: value %d bytes after normalization exceeds budget of %d", fieldname, len(normalized), budget)
	}
	return normalized, nil
}

// format initializes every slot in the block to empty with zeroed fields.
// It is called once, when the block is first allocated.
func (rp *RecordPage) format() error {
	schema := rp.layout.Schema()
	for slot := 0; rp.isValidSlot(slot); slot++ {
		if err := rp.tx.SetInt(rp.block, rp.offset(slot), empty, false); err != nil {
			return err
		}
		for _, fieldname := range schema.Fields() {
			fieldPos := rp.offset(slot) + rp.layout.Offset(fieldname)
			if schema.DataType(fieldname) == INTEGER {
				if err := rp.tx.SetInt(rp.block, fieldPos, 0, false); err != nil {
					return err
				}
			} else {
				if err := rp.tx.SetString(rp.block, fieldPos, "", false); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (rp *RecordPage) delete(slot int) error {
	return rp.setFlag(slot, empty)
}

// nextAfter returns the next in-use slot after slot, or -1 if none remains.
func (rp *RecordPage) nextAfter(slot int) (int, error) {
	return rp.searchAfter(slot, used)
}

// insertAfter finds the next empty slot after slot and marks it in-use.
func (rp *RecordPage) insertAfter(slot int) (int, error) {
	newSlot, err := rp.searchAfter(slot, empty)
	if err != nil {
		return -1, err
	}
	if newSlot >= 0 {
		if err := rp.setFlag(newSlot, used); err != nil {
			return -1, err
		}
	}
	return newSlot, nil
}

func (rp *RecordPage) offset(slot int) int {
	return slot * rp.layout.slotSize
}

func (rp *RecordPage) isValidSlot(slot int) bool {
	return rp.offset(slot+1) <= rp.tx.BlockSize()
}

func (rp *RecordPage) setFlag(slot, flag int) error {
	return rp.tx.SetInt(rp.block, rp.offset(slot), flag, true)
}

func (rp *RecordPage) searchAfter(slot, flag int) (int, error) {
	slot++
	for rp.isValidSlot(slot) {
		slotFlag, err := rp.tx.GetInt(rp.block, rp.offset(slot))
		if err != nil {
			return -1, err
		}
		if int(slotFlag) == flag {
			return slot, nil
		}
		slot++
	}
	return -1, nil
}
