package record

import (
	"coredb/internal/app/file"
)

// intBytes is the on-disk width of an integer field; page.go's GetInt/SetInt
// are fixed at 4 bytes regardless of host word size.
const intBytes = 4

// Layout derives the physical position of each field within a record slot
// from a Schema: a leading in-use flag, followed by each field in schema
// order (spec.md §5).
type Layout struct {
	schema   *Schema
	offsets  map[string]int
	slotSize int
}

// NewLayout computes a fresh layout from schema, used when a table is
// first created.
func NewLayout(schema *Schema) *Layout {
	offsets := make(map[string]int)
	pos := intBytes // space for the in-use flag

	for _, fieldName := range schema.Fields() {
		offsets[fieldName] = pos
		pos += lengthInBytes(schema, fieldName)
	}

	return &Layout{
		schema:   schema,
		offsets:  offsets,
		slotSize: pos,
	}
}

// NewLayoutWithOffsets reconstructs a layout from metadata already
// recorded in the catalog.
func NewLayoutWithOffsets(schema *Schema, offsets map[string]int, slotSize int) *Layout {
	return &Layout{
		schema:   schema,
		offsets:  offsets,
		slotSize: slotSize,
	}
}

func (l *Layout) Schema() *Schema {
	return l.schema
}

// Offset returns the byte offset of fieldname within a slot, or -1 if the
// field is unknown.
func (l *Layout) Offset(fieldname string) int {
	offset, exists := l.offsets[fieldname]
	if !exists {
		return -1
	}
	return offset
}

// SlotSize returns the number of bytes a single record slot occupies.
func (l *Layout) SlotSize() int {
	return l.slotSize
}

func lengthInBytes(schema *Schema, fieldname string) int {
	if schema.DataType(fieldname) == INTEGER {
		return intBytes
	}
	return file.MaxLength(schema.Length(fieldname))
}
