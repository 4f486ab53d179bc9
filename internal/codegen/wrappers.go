package codegen

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/you-not-fish/kagi/internal/ir"
	"github.com/you-not-fish/kagi/internal/layout"
)

// Wrapper symbol prefixes. The full name appends the layout's ID.
const (
	symbolHash = "generic_hash"
	symbolEq   = "generic_eq"
	symbolRC   = "generic_rc"
)

// WrapperKind names the family of a synthesized wrapper.
type WrapperKind int

const (
	WrapperHash WrapperKind = iota
	WrapperEq
	WrapperRefcount
)

func (k WrapperKind) String() string {
	switch k {
	case WrapperHash:
		return "hash"
	case WrapperEq:
		return "eq"
	case WrapperRefcount:
		return "rc"
	}
	return fmt.Sprintf("WrapperKind(%d)", int(k))
}

// RefcountMode selects what a refcount wrapper does: add N, or release one.
type RefcountMode struct {
	N   int
	Dec bool
}

// Inc returns the mode that increments by n. n must be positive.
func Inc(n int) RefcountMode {
	if n <= 0 {
		panic(fmt.Sprintf("codegen.Inc: increment must be positive, got %d", n))
	}
	return RefcountMode{N: n}
}

// Dec is the mode that decrements by one.
var Dec = RefcountMode{Dec: true}

func (m RefcountMode) String() string {
	if m.Dec {
		return "dec"
	}
	return fmt.Sprintf("inc_%d", m.N)
}

// WrapperKey identifies a wrapper. Layouts are keyed by their canonical
// string, so structurally equal layouts share a wrapper.
type WrapperKey struct {
	Kind   WrapperKind
	Layout string
	Mode   RefcountMode
}

// HashWrapper returns the function (i64 seed, ptr value) -> i64 that
// hashes a value of layout l.
func (e *Env) HashWrapper(l layout.Layout) *ir.Func {
	key := WrapperKey{Kind: WrapperHash, Layout: l.String()}
	name := e.IDs.Get(symbolHash, l).SymbolString(symbolHash)
	typ := &ir.FuncType{Result: ir.I64, Params: []ir.Type{ir.I64, ir.Ptr}}

	return e.wrapper(key, name, typ, l, func(f *ir.Func) {
		t := e.IRType(l)
		v := e.loadOpaque(f.Param(1), t)
		h := e.Generic.Hash(e, f.Param(0), v, l)
		e.Builder.Ret(h)
	})
}

// EqWrapper returns the function (ptr a, ptr b) -> i1 that compares two
// values of layout l.
func (e *Env) EqWrapper(l layout.Layout) *ir.Func {
	key := WrapperKey{Kind: WrapperEq, Layout: l.String()}
	name := e.IDs.Get(symbolEq, l).SymbolString(symbolEq)
	typ := &ir.FuncType{Result: ir.I1, Params: []ir.Type{ir.Ptr, ir.Ptr}}

	return e.wrapper(key, name, typ, l, func(f *ir.Func) {
		t := e.IRType(l)
		a := e.loadOpaque(f.Param(0), t)
		b := e.loadOpaque(f.Param(1), t)
		r := e.Generic.Equal(e, a, b, l, l)
		e.Builder.Ret(r)
	})
}

// RefcountWrapper returns the function (ptr value) -> void that adjusts
// the refcount of a value of layout l.
func (e *Env) RefcountWrapper(l layout.Layout, mode RefcountMode) *ir.Func {
	key := WrapperKey{Kind: WrapperRefcount, Layout: l.String(), Mode: mode}
	name := e.IDs.Get(symbolRC, l).SymbolString(symbolRC) + "_" + mode.String()
	typ := &ir.FuncType{Result: ir.Void, Params: []ir.Type{ir.Ptr}}

	return e.wrapper(key, name, typ, l, func(f *ir.Func) {
		v := e.loadOpaque(f.Param(0), e.IRType(l))
		if mode.Dec {
			e.Generic.DecRef(e, v, l)
		} else {
			e.Generic.IncRef(e, v, l, mode.N)
		}
		e.Builder.RetVoid()
	})
}

// wrapper returns the cached function for key, or builds it with body.
// The builder's insertion point and debug location are the same on return
// as on entry, whichever path is taken.
func (e *Env) wrapper(key WrapperKey, name string, typ *ir.FuncType, l layout.Layout, body func(f *ir.Func)) *ir.Func {
	if e.Builder.InsertBlock() == nil {
		panic(fmt.Sprintf("codegen.wrapper: %s for %s requested with no insertion point", name, l))
	}
	saved := e.Builder.Save()
	defer e.Builder.Restore(saved)

	if f, ok := e.wrappers[key]; ok {
		e.Log.Debug("wrapper cache hit",
			zap.String("wrapper", f.Name),
			zap.Stringer("layout", l))
		return f
	}

	if other := e.Module.Func(name); other != nil {
		panic(fmt.Sprintf("codegen.wrapper: @%s for %s collides with an existing function", name, l))
	}

	f := e.Module.NewFunc(name, typ)
	f.AlwaysInline = true
	f.Internal = true
	for i, p := range f.Params {
		p.Name = fmt.Sprintf("arg_%d", i+1)
	}
	e.wrappers[key] = f

	e.Builder.PositionAtEnd(f.Entry)
	e.Builder.SetDebugLoc(&ir.DebugLoc{Line: 0, Col: 0, Scope: name})
	body(f)

	e.Log.Debug("wrapper synthesized",
		zap.String("wrapper", name),
		zap.Stringer("kind", key.Kind),
		zap.Stringer("layout", l))
	return f
}

// NumWrappers returns the number of wrappers synthesized so far.
func (e *Env) NumWrappers() int {
	return len(e.wrappers)
}
