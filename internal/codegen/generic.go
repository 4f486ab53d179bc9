package codegen

import (
	"fmt"

	"github.com/you-not-fish/kagi/internal/ir"
	"github.com/you-not-fish/kagi/internal/layout"
	"github.com/you-not-fish/kagi/internal/rtabi"
)

// Generic builds layout-directed hashing, equality, and refcounting at the
// builder's insertion point. Wrappers delegate to it after loading their
// operands.
type Generic interface {
	// Hash returns the i64 hash of v (of layout l) mixed with seed.
	Hash(e *Env, seed, v *ir.Value, l layout.Layout) *ir.Value

	// Equal returns an i1 that is true when a equals b.
	Equal(e *Env, a, b *ir.Value, la, lb layout.Layout) *ir.Value

	// IncRef adds n references to every heap allocation v owns.
	IncRef(e *Env, v *ir.Value, l layout.Layout, n int)

	// DecRef releases one reference to every heap allocation v owns.
	DecRef(e *Env, v *ir.Value, l layout.Layout)
}

// StructuralGeneric implements Generic by walking the layout. Scalars are
// hashed by their bytes and strings by content; structs fold their fields
// left to right. Lists, dicts, and floats cannot be hashed, and lists and
// dicts cannot be compared.
type StructuralGeneric struct{}

var _ Generic = StructuralGeneric{}

func (g StructuralGeneric) Hash(e *Env, seed, v *ir.Value, l layout.Layout) *ir.Value {
	bd := e.Builder
	switch l := l.(type) {
	case *layout.Builtin:
		switch {
		case l.Kind() == layout.Str:
			return bd.Call(e.runtimeFunc(rtabi.FnHashStr), []*ir.Value{seed, v}, "hash")
		case l.Kind() == layout.Bool, l.IsInteger():
			slot := e.spill(v, "hash_bytes")
			size := e.constUsize(e.Sizes.Sizeof(l))
			return bd.Call(e.runtimeFunc(rtabi.FnHashBytes), []*ir.Value{seed, slot, size}, "hash")
		}
	case *layout.Struct:
		h := seed
		for i, f := range l.Fields() {
			h = g.Hash(e, h, bd.ExtractValue(v, i, ""), f)
		}
		return h
	}
	panic(fmt.Sprintf("codegen.Hash: layout %s is not hashable", l))
}

func (g StructuralGeneric) Equal(e *Env, a, b *ir.Value, la, lb layout.Layout) *ir.Value {
	if !layout.Identical(la, lb) {
		panic(fmt.Sprintf("codegen.Equal: comparing %s with %s", la, lb))
	}
	bd := e.Builder
	switch l := la.(type) {
	case *layout.Builtin:
		switch {
		case l.Kind() == layout.Str:
			return bd.Call(e.runtimeFunc(rtabi.FnStrEqual), []*ir.Value{a, b}, "eq")
		case l.IsFloat():
			return bd.FCmpEq(a, b, "eq")
		case l.Kind() == layout.Bool, l.IsInteger():
			return bd.ICmpEq(a, b, "eq")
		}
	case *layout.Struct:
		r := bd.ConstBool(true)
		for i, f := range l.Fields() {
			fa := bd.ExtractValue(a, i, "")
			fb := bd.ExtractValue(b, i, "")
			r = bd.And(r, g.Equal(e, fa, fb, f, f), "eq")
		}
		return r
	}
	panic(fmt.Sprintf("codegen.Equal: layout %s is not comparable", la))
}

func (g StructuralGeneric) IncRef(e *Env, v *ir.Value, l layout.Layout, n int) {
	g.refcount(e, v, l, func(ptr *ir.Value) {
		e.Builder.Call(e.runtimeFunc(rtabi.FnIncref), []*ir.Value{ptr, e.constUsize(int64(n))}, "")
	})
}

func (g StructuralGeneric) DecRef(e *Env, v *ir.Value, l layout.Layout) {
	g.refcount(e, v, l, func(ptr *ir.Value) {
		e.Builder.Call(e.runtimeFunc(rtabi.FnDecref), []*ir.Value{ptr}, "")
	})
}

// refcount calls adjust with the data pointer of every heap allocation v
// owns. Scalars own nothing.
func (g StructuralGeneric) refcount(e *Env, v *ir.Value, l layout.Layout, adjust func(ptr *ir.Value)) {
	if layout.IsHeapBacked(l) {
		// Field 0 of strings, lists and dicts is the data pointer.
		adjust(e.Builder.ExtractValue(v, rtabi.ListFieldData, "data"))
		return
	}
	if s, ok := l.(*layout.Struct); ok {
		for i, f := range s.Fields() {
			if layout.ContainsRefcounted(f) {
				g.refcount(e, e.Builder.ExtractValue(v, i, ""), f, adjust)
			}
		}
	}
}
