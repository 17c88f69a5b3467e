package record

// Schema is the name, type, and (for strings) byte budget of every field
// in a table, in declaration order (spec.md §5).
type Schema struct {
	fields []string
	info   map[string]FieldInfo
}

type FieldType int

const (
	INTEGER FieldType = 1
	VARCHAR FieldType = 2
)

// FieldInfo is a single field's type and, for VARCHAR fields, its declared
// byte budget. length is meaningless for INTEGER fields.
type FieldInfo struct {
	dataType FieldType
	length   int
}

func NewSchema() *Schema {
	return &Schema{
		fields: make([]string, 0),
		info:   make(map[string]FieldInfo),
	}
}

// AddField appends fieldname to the schema with the given type and byte
// budget. length is ignored for INTEGER fields.
func (s *Schema) AddField(fieldname string, dataType FieldType, length int) {
	s.fields = append(s.fields, fieldname)
	s.info[fieldname] = FieldInfo{dataType: dataType, length: length}
}

func (s *Schema) AddIntField(fieldname string) {
	s.AddField(fieldname, INTEGER, 0)
}

// AddStringField appends a VARCHAR field with a byte budget of length —
// e.g. a field declared varchar(8) is added with length 8.
func (s *Schema) AddStringField(fieldname string, length int) {
	s.AddField(fieldname, VARCHAR, length)
}

// Add copies fieldname's type and length from another schema.
func (s *Schema) Add(fieldname string, schema *Schema) {
	s.AddField(fieldname, schema.DataType(fieldname), schema.Length(fieldname))
}

// AddAll copies every field of schema into s, preserving order.
func (s *Schema) AddAll(schema *Schema) {
	for _, fieldname := range schema.Fields() {
		s.Add(fieldname, schema)
	}
}

// Fields returns the schema's field names in declaration order.
func (s *Schema) Fields() []string {
	return s.fields
}

// HasField reports whether fieldname exists in the schema.
func (s *Schema) HasField(fieldname string) bool {
	for _, name := range s.fields {
		if name == fieldname {
			return true
		}
	}
	return false
}

// DataType returns fieldname's type, or -1 if the field is unknown.
func (s *Schema) DataType(fieldname string) FieldType {
	info, ok := s.info[fieldname]
	if !ok {
		return -1
	}
	return info.dataType
}

// Length returns fieldname's declared byte budget, or -1 if the field is
// unknown. Undefined for INTEGER fields.
func (s *Schema) Length(fieldname string) int {
	info, ok := s.info[fieldname]
	if !ok {
		return -1
	}
	return info.length
}
