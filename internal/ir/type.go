package ir

import (
	"fmt"
	"strings"
)

// Type is a machine-level IR type.
type Type interface {
	// String returns the LLVM spelling of the type. Named structs print
	// as their %name.
	String() string

	aType()
}

type irType struct{}

func (irType) aType() {}

// IntType is an integer type of the given bit width. i1 is the boolean type.
type IntType struct {
	irType
	Bits int
}

func (t *IntType) String() string { return fmt.Sprintf("i%d", t.Bits) }

// FloatType is an IEEE float of 32 or 64 bits.
type FloatType struct {
	irType
	Bits int
}

func (t *FloatType) String() string {
	if t.Bits == 32 {
		return "float"
	}
	return "double"
}

// PtrType is the opaque pointer type.
type PtrType struct{ irType }

func (*PtrType) String() string { return "ptr" }

// VoidType is the result type of functions that return nothing.
type VoidType struct{ irType }

func (*VoidType) String() string { return "void" }

// StructType is a struct type. A StructType with a Name is a named
// (nominal) struct; two named structs with the same fields are still
// distinct types.
type StructType struct {
	irType
	Name   string
	Fields []Type
}

func (t *StructType) String() string {
	if t.Name != "" {
		return "%" + quoteIdent(t.Name)
	}
	return t.Body()
}

// Body returns the literal field list of the struct, e.g. "{ ptr, i64 }".
func (t *StructType) Body() string {
	if len(t.Fields) == 0 {
		return "{}"
	}
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = f.String()
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// FuncType is a function signature.
type FuncType struct {
	irType
	Result Type
	Params []Type
}

func (t *FuncType) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s (%s)", t.Result, strings.Join(parts, ", "))
}

// Predeclared types.
var (
	I1   = &IntType{Bits: 1}
	I8   = &IntType{Bits: 8}
	I16  = &IntType{Bits: 16}
	I32  = &IntType{Bits: 32}
	I64  = &IntType{Bits: 64}
	I128 = &IntType{Bits: 128}
	F32  = &FloatType{Bits: 32}
	F64  = &FloatType{Bits: 64}
	Ptr  = &PtrType{}
	Void = &VoidType{}
)

// IntN returns the predeclared integer type of the given width.
func IntN(bits int) *IntType {
	switch bits {
	case 1:
		return I1
	case 8:
		return I8
	case 16:
		return I16
	case 32:
		return I32
	case 64:
		return I64
	case 128:
		return I128
	}
	return &IntType{Bits: bits}
}

// NewStruct returns an anonymous struct type with the given fields.
func NewStruct(fields ...Type) *StructType {
	return &StructType{Fields: fields}
}

// Identical reports whether x and y are the same IR type. Anonymous
// structs compare structurally; named structs compare by name.
func Identical(x, y Type) bool {
	if x == y {
		return true
	}
	switch x := x.(type) {
	case *IntType:
		y, ok := y.(*IntType)
		return ok && x.Bits == y.Bits
	case *FloatType:
		y, ok := y.(*FloatType)
		return ok && x.Bits == y.Bits
	case *PtrType:
		_, ok := y.(*PtrType)
		return ok
	case *VoidType:
		_, ok := y.(*VoidType)
		return ok
	case *StructType:
		y, ok := y.(*StructType)
		if !ok || x.Name != y.Name {
			return false
		}
		if x.Name != "" {
			return true
		}
		if len(x.Fields) != len(y.Fields) {
			return false
		}
		for i := range x.Fields {
			if !Identical(x.Fields[i], y.Fields[i]) {
				return false
			}
		}
		return true
	case *FuncType:
		y, ok := y.(*FuncType)
		if !ok || !Identical(x.Result, y.Result) || len(x.Params) != len(y.Params) {
			return false
		}
		for i := range x.Params {
			if !Identical(x.Params[i], y.Params[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// quoteIdent quotes an LLVM identifier if it contains characters outside
// [A-Za-z0-9._$-].
func quoteIdent(name string) string {
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.' || c == '_' || c == '$' || c == '-':
		default:
			return fmt.Sprintf("%q", name)
		}
	}
	return name
}

// QuoteIdent is quoteIdent for use by output backends.
func QuoteIdent(name string) string { return quoteIdent(name) }
