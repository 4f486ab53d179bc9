package layout

import (
	"fmt"

	"github.com/you-not-fish/kagi/internal/rtabi"
)

// Sizes provides size and alignment calculations for layouts on a target
// with the given pointer width.
type Sizes struct {
	PtrBytes int64
}

// DefaultSizes is the Sizes implementation for the default target.
var DefaultSizes = &Sizes{PtrBytes: rtabi.DefaultPtrBytes}

// NewSizes returns a Sizes for a target with ptrBytes-wide pointers.
func NewSizes(ptrBytes int64) *Sizes {
	if ptrBytes != 4 && ptrBytes != 8 {
		panic(fmt.Sprintf("layout.NewSizes: unsupported pointer width %d", ptrBytes))
	}
	return &Sizes{PtrBytes: ptrBytes}
}

// Sizeof returns the stack size of layout l in bytes.
func (s *Sizes) Sizeof(l Layout) int64 {
	switch l := l.(type) {
	case *Builtin:
		return s.builtinSize(l.kind)
	case *List:
		return rtabi.ListNumFields * s.PtrBytes
	case *Dict:
		return rtabi.DictNumFields * s.PtrBytes
	case *Struct:
		size, _, _ := s.structLayout(l)
		return size
	}
	panic(fmt.Sprintf("layout.Sizeof: unhandled layout %T", l))
}

// Alignof returns the alignment of layout l in bytes.
func (s *Sizes) Alignof(l Layout) int64 {
	switch l := l.(type) {
	case *Builtin:
		return s.builtinAlign(l.kind)
	case *List, *Dict:
		return s.PtrBytes
	case *Struct:
		_, align, _ := s.structLayout(l)
		return align
	}
	panic(fmt.Sprintf("layout.Alignof: unhandled layout %T", l))
}

// Offsetof returns the offset of field i in struct layout st.
func (s *Sizes) Offsetof(st *Struct, i int) int64 {
	_, _, offsets := s.structLayout(st)
	return offsets[i]
}

// structLayout computes the size, alignment, and field offsets for a struct.
func (s *Sizes) structLayout(st *Struct) (size, maxAlign int64, offsets []int64) {
	var offset int64
	maxAlign = 1
	offsets = make([]int64, len(st.fields))

	for i, f := range st.fields {
		fieldSize := s.Sizeof(f)
		fieldAlign := s.Alignof(f)

		// Align offset to field alignment
		offset = align(offset, fieldAlign)
		offsets[i] = offset
		offset += fieldSize

		if fieldAlign > maxAlign {
			maxAlign = fieldAlign
		}
	}

	// Add padding at end for struct alignment
	size = align(offset, maxAlign)
	return size, maxAlign, offsets
}

// builtinSize returns the size of a builtin layout in bytes.
func (s *Sizes) builtinSize(kind BuiltinKind) int64 {
	switch kind {
	case Bool, I8, U8:
		return 1
	case I16, U16:
		return 2
	case I32, U32, F32:
		return 4
	case I64, U64, F64:
		return 8
	case I128, U128:
		return 16
	case Str, EmptyList:
		return rtabi.ListNumFields * s.PtrBytes
	case EmptyDict:
		return rtabi.DictNumFields * s.PtrBytes
	}
	panic(fmt.Sprintf("layout.builtinSize: invalid kind %d", kind))
}

// builtinAlign returns the alignment of a builtin layout in bytes.
func (s *Sizes) builtinAlign(kind BuiltinKind) int64 {
	switch kind {
	case Str, EmptyList, EmptyDict:
		return s.PtrBytes
	}
	// Scalars are naturally aligned.
	return s.builtinSize(kind)
}

// align returns x rounded up to a multiple of a.
func align(x, a int64) int64 {
	return (x + a - 1) &^ (a - 1)
}
