package metadata

import (
	"fmt"
	"strings"
)

// FieldType names how a metadata column is parsed and canonicalized.
type FieldType string

const (
	TypeString   FieldType = "string"
	TypeInt      FieldType = "int"
	TypeUInt64   FieldType = "uint64"
	TypeUFix64   FieldType = "ufix64"
	TypeBool     FieldType = "bool"
	TypeHTTPFile FieldType = "http-file"
	TypeIPFSFile FieldType = "ipfs-file"
)

// ValidFieldTypes defines the allowed field types.
var ValidFieldTypes = map[FieldType]bool{
	TypeString:   true,
	TypeInt:      true,
	TypeUInt64:   true,
	TypeUFix64:   true,
	TypeBool:     true,
	TypeHTTPFile: true,
	TypeIPFSFile: true,
}

// ReservedPrefix marks output columns owned by the minter (_id, _edition_id, ...).
const ReservedPrefix = "_"

// EditionSizeField is the input column holding an edition's limit.
// It is consumed by the minter and never part of the schema.
const EditionSizeField = "edition_size"

// Field is a single named, typed metadata field.
type Field struct {
	Name string    `yaml:"name" json:"name"`
	Type FieldType `yaml:"type" json:"type"`
}

// Schema is the ordered list of fields every edition carries.
type Schema struct {
	Fields []Field `yaml:"fields" json:"fields"`
}

// NewSchema creates a schema from fields.
func NewSchema(fields ...Field) Schema {
	return Schema{Fields: fields}
}

// FieldNames returns field names in schema order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Validate checks that the schema is non-empty, field names are unique and
// do not collide with reserved columns, and every type is known.
func (s Schema) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema must declare at least one field")
	}

	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		switch {
		case f.Name == "":
			return fmt.Errorf("field %d: name is required", i)
		case strings.HasPrefix(f.Name, ReservedPrefix):
			return fmt.Errorf("field %q: names starting with %q are reserved", f.Name, ReservedPrefix)
		case f.Name == EditionSizeField:
			return fmt.Errorf("field %q: name is reserved for the edition size column", f.Name)
		case seen[f.Name]:
			return fmt.Errorf("field %q: declared more than once", f.Name)
		case !ValidFieldTypes[f.Type]:
			return fmt.Errorf("field %q: unknown type %q", f.Name, f.Type)
		}
		seen[f.Name] = true
	}
	return nil
}
