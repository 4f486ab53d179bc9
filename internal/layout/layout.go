// Package layout describes the memory shape of monomorphized values.
// Layouts are produced by the type checker and are immutable; code
// generation only queries them.
package layout

import "strings"

// Layout is the interface implemented by all layouts.
type Layout interface {
	// String returns the canonical representation of the layout.
	// Two layouts are structurally equal iff their strings are equal.
	String() string

	// aLayout is a marker method to restrict implementations to this package.
	aLayout()
}

// layout is a base struct for all layout implementations.
type layout struct{}

func (layout) aLayout() {}

// BuiltinKind describes the kind of builtin layout.
type BuiltinKind int

const (
	Invalid BuiltinKind = iota // invalid layout

	Bool

	// Signed integers
	I8
	I16
	I32
	I64
	I128

	// Unsigned integers
	U8
	U16
	U32
	U64
	U128

	// Floats
	F32
	F64

	// Heap-backed
	Str
	EmptyList
	EmptyDict
)

// Builtin represents a scalar, string, or empty-collection layout.
type Builtin struct {
	layout
	kind BuiltinKind
	name string
}

// Kind returns the kind of the builtin layout.
func (b *Builtin) Kind() BuiltinKind {
	return b.kind
}

// String implements Layout.
func (b *Builtin) String() string {
	return b.name
}

// IsInteger reports whether b is a signed or unsigned integer.
func (b *Builtin) IsInteger() bool {
	return b.kind >= I8 && b.kind <= U128
}

// IsFloat reports whether b is a floating-point number.
func (b *Builtin) IsFloat() bool {
	return b.kind == F32 || b.kind == F64
}

// Typ holds the builtin layouts, indexed by BuiltinKind.
// Typ[Invalid] is nil.
var Typ = []*Builtin{
	Invalid:   nil,
	Bool:      {kind: Bool, name: "bool"},
	I8:        {kind: I8, name: "i8"},
	I16:       {kind: I16, name: "i16"},
	I32:       {kind: I32, name: "i32"},
	I64:       {kind: I64, name: "i64"},
	I128:      {kind: I128, name: "i128"},
	U8:        {kind: U8, name: "u8"},
	U16:       {kind: U16, name: "u16"},
	U32:       {kind: U32, name: "u32"},
	U64:       {kind: U64, name: "u64"},
	U128:      {kind: U128, name: "u128"},
	F32:       {kind: F32, name: "f32"},
	F64:       {kind: F64, name: "f64"},
	Str:       {kind: Str, name: "str"},
	EmptyList: {kind: EmptyList, name: "empty_list"},
	EmptyDict: {kind: EmptyDict, name: "empty_dict"},
}

// List represents a list layout list<Elem>.
type List struct {
	layout
	elem Layout
}

// NewList creates a new list layout.
func NewList(elem Layout) *List {
	return &List{elem: elem}
}

// Elem returns the element layout.
func (l *List) Elem() Layout {
	return l.elem
}

// String implements Layout.
func (l *List) String() string {
	return "list<" + l.elem.String() + ">"
}

// Dict represents a dictionary layout dict<Key, Value>.
type Dict struct {
	layout
	key   Layout
	value Layout
}

// NewDict creates a new dictionary layout.
func NewDict(key, value Layout) *Dict {
	return &Dict{key: key, value: value}
}

// Key returns the key layout.
func (d *Dict) Key() Layout {
	return d.key
}

// Value returns the value layout.
func (d *Dict) Value() Layout {
	return d.value
}

// String implements Layout.
func (d *Dict) String() string {
	return "dict<" + d.key.String() + ", " + d.value.String() + ">"
}

// Struct represents an unnamed record layout. Field order is memory order.
type Struct struct {
	layout
	fields []Layout
}

// NewStruct creates a new struct layout with the given fields.
func NewStruct(fields ...Layout) *Struct {
	return &Struct{fields: fields}
}

// NumFields returns the number of fields.
func (s *Struct) NumFields() int {
	return len(s.fields)
}

// Field returns the field at the given index.
func (s *Struct) Field(i int) Layout {
	return s.fields[i]
}

// Fields returns all fields.
func (s *Struct) Fields() []Layout {
	return s.fields
}

// String implements Layout.
func (s *Struct) String() string {
	var buf strings.Builder
	buf.WriteString("{")
	for i, f := range s.fields {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(f.String())
	}
	buf.WriteString("}")
	return buf.String()
}
