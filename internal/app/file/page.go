package file

import (
	"encoding/binary"
)

// Page is the in-memory image of a block: a fixed-size byte buffer with
// typed accessors at caller-specified offsets. Callers are responsible for
// not overrunning the page's size (spec.md §3).
type Page struct {
	contents []byte
}

// NewPage allocates a zero-filled page of the given block size.
func NewPage(blockSize int) *Page {
	return &Page{contents: make([]byte, blockSize)}
}

// NewPageFromBytes wraps an existing byte slice as a page without copying.
// Used to decode a log record that has already been extracted from a page.
func NewPageFromBytes(b []byte) *Page {
	return &Page{contents: b}
}

// GetInt reads a 32-bit big-endian signed integer at offset.
func (p *Page) GetInt(offset int) int32 {
	return int32(binary.BigEndian.Uint32(p.contents[offset : offset+4]))
}

// GetBytes reads a length-prefixed opaque blob at offset.
func (p *Page) GetBytes(offset int) []byte {
	length := int(binary.BigEndian.Uint32(p.contents[offset : offset+4]))
	b := make([]byte, length)
	copy(b, p.contents[offset+4:offset+4+length])
	return b
}

// GetString reads a length-prefixed UTF-8 string at offset.
func (p *Page) GetString(offset int) string {
	return string(p.GetBytes(offset))
}

// SetInt writes a 32-bit big-endian signed integer at offset.
func (p *Page) SetInt(offset int, n int32) {
	binary.BigEndian.PutUint32(p.contents[offset:offset+4], uint32(n))
}

// SetBytes writes a length-prefixed opaque blob at offset.
func (p *Page) SetBytes(offset int, b []byte) {
	binary.BigEndian.PutUint32(p.contents[offset:offset+4], uint32(len(b)))
	copy(p.contents[offset+4:offset+4+len(b)], b)
}

// SetString writes a length-prefixed UTF-8 string at offset.
func (p *Page) SetString(offset int, s string) {
	p.SetBytes(offset, []byte(s))
}

// Contents returns the page's underlying byte buffer.
func (p *Page) Contents() []byte {
	return p.contents
}

// MaxLength returns the number of bytes needed to store a string of up to
// maxByteLen encoded bytes: a 4-byte length prefix plus the byte budget
// itself. Schema string fields carry their length as a byte budget directly
// (spec.md §3), so this is the bound Layout uses for slot sizing.
func MaxLength(maxByteLen int) int {
	return 4 + maxByteLen
}
