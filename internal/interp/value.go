package interp

import (
	"fmt"
	"math"
	"strings"

	"github.com/you-not-fish/kagi/internal/ir"
)

// Value is a runtime value. Scalars use Lo (and Hi for 128-bit integers);
// pointers are addresses in Lo; aggregates use Fields.
type Value struct {
	Lo     uint64
	Hi     uint64
	Fields []Value
}

// Int returns an integer value of up to 64 bits.
func Int(x int64) Value { return Value{Lo: uint64(x)} }

// Uint returns an unsigned integer value.
func Uint(x uint64) Value { return Value{Lo: x} }

// Ptr returns a pointer value.
func Ptr(addr uint64) Value { return Value{Lo: addr} }

// Bool returns an i1 value.
func Bool(b bool) Value {
	if b {
		return Value{Lo: 1}
	}
	return Value{}
}

// Float64 returns a double value.
func Float64(f float64) Value { return Value{Lo: math.Float64bits(f)} }

// Agg returns an aggregate value.
func Agg(fields ...Value) Value { return Value{Fields: fields} }

// AsBool reports whether the low bit is set.
func (v Value) AsBool() bool { return v.Lo&1 != 0 }

// AsInt returns the low 64 bits as a signed integer.
func (v Value) AsInt() int64 { return int64(v.Lo) }

// Field returns field i of an aggregate.
func (v Value) Field(i int) Value { return v.Fields[i] }

func (v Value) String() string {
	if v.Fields != nil {
		parts := make([]string, len(v.Fields))
		for i, f := range v.Fields {
			parts[i] = f.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	if v.Hi != 0 && v.Hi != math.MaxUint64 {
		return fmt.Sprintf("0x%x%016x", v.Hi, v.Lo)
	}
	return fmt.Sprintf("%d", int64(v.Lo))
}

// Equal reports whether v and w hold the same bits.
func (v Value) Equal(w Value) bool {
	if len(v.Fields) != len(w.Fields) {
		return false
	}
	if v.Fields == nil {
		return v.Lo == w.Lo && v.Hi == w.Hi
	}
	for i := range v.Fields {
		if !v.Fields[i].Equal(w.Fields[i]) {
			return false
		}
	}
	return true
}

// zeroValue returns the all-zero value of type t.
func zeroValue(t ir.Type) Value {
	if st, ok := t.(*ir.StructType); ok {
		fields := make([]Value, len(st.Fields))
		for i, f := range st.Fields {
			fields[i] = zeroValue(f)
		}
		return Value{Fields: fields}
	}
	return Value{}
}

// truncate clears the bits above the width of integer type t.
func truncate(v Value, t ir.Type) Value {
	it, ok := t.(*ir.IntType)
	if !ok || it.Bits >= 128 {
		return v
	}
	if it.Bits < 64 {
		v.Lo &= (1 << uint(it.Bits)) - 1
	}
	v.Hi = 0
	return v
}
