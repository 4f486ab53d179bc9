package ir

import "fmt"

// TargetData answers size and alignment queries for IR types, following
// the C layout rules LLVM uses for the configured data layout.
type TargetData struct {
	PtrBytes int64
}

// Sizeof returns the allocation size of t in bytes.
func (td *TargetData) Sizeof(t Type) int64 {
	switch t := t.(type) {
	case *IntType:
		return alignTo(int64(t.Bits+7)/8, td.Alignof(t))
	case *FloatType:
		return int64(t.Bits / 8)
	case *PtrType:
		return td.PtrBytes
	case *StructType:
		size, _ := td.structLayout(t)
		return size
	}
	panic(fmt.Sprintf("ir.Sizeof: unsized type %s", t))
}

// Alignof returns the ABI alignment of t in bytes.
func (td *TargetData) Alignof(t Type) int64 {
	switch t := t.(type) {
	case *IntType:
		switch {
		case t.Bits <= 8:
			return 1
		case t.Bits <= 16:
			return 2
		case t.Bits <= 32:
			return 4
		case t.Bits <= 64:
			return 8
		}
		return 16
	case *FloatType:
		return int64(t.Bits / 8)
	case *PtrType:
		return td.PtrBytes
	case *StructType:
		_, align := td.structLayout(t)
		return align
	}
	panic(fmt.Sprintf("ir.Alignof: unsized type %s", t))
}

// Offsetof returns the byte offset of field i of struct type t.
func (td *TargetData) Offsetof(t *StructType, i int) int64 {
	var offset int64
	for j, f := range t.Fields {
		offset = alignTo(offset, td.Alignof(f))
		if j == i {
			return offset
		}
		offset += td.Sizeof(f)
	}
	panic(fmt.Sprintf("ir.Offsetof: field %d out of range for %s", i, t))
}

func (td *TargetData) structLayout(t *StructType) (size, align int64) {
	align = 1
	for _, f := range t.Fields {
		fa := td.Alignof(f)
		size = alignTo(size, fa) + td.Sizeof(f)
		if fa > align {
			align = fa
		}
	}
	return alignTo(size, align), align
}

func alignTo(x, a int64) int64 {
	return (x + a - 1) &^ (a - 1)
}
