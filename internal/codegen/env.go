// Package codegen emits the glue between compiled code and the runtime's
// type-erased dictionary. Each dictionary primitive becomes a call into the
// runtime, passing key/value widths, an alignment class, and pointers to
// small wrapper functions that hash, compare, and refcount values of the
// concrete key and value layouts.
package codegen

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/you-not-fish/kagi/internal/ir"
	"github.com/you-not-fish/kagi/internal/layout"
	"github.com/you-not-fish/kagi/internal/rtabi"
)

// Env is the code generation context for one compilation unit. It owns the
// wrapper cache; a new compilation needs a new Env.
type Env struct {
	Module  *ir.Module
	Builder *ir.Builder
	Sizes   *layout.Sizes
	Target  *ir.TargetData
	IDs     *layout.IDs
	Generic Generic
	Log     *zap.Logger

	wrappers map[WrapperKey]*ir.Func
}

// NewEnv returns an Env building into m. The runtime must already be
// declared in m (see DeclareRuntime).
func NewEnv(m *ir.Module, sizes *layout.Sizes) *Env {
	if m.Target == nil || m.Target.PtrBytes != sizes.PtrBytes {
		panic(fmt.Sprintf("codegen.NewEnv: layout pointer width %d does not match module target", sizes.PtrBytes))
	}
	return &Env{
		Module:   m,
		Builder:  ir.NewBuilder(),
		Sizes:    sizes,
		Target:   m.Target,
		IDs:      layout.NewIDs(),
		Generic:  StructuralGeneric{},
		Log:      Logger(),
		wrappers: make(map[WrapperKey]*ir.Func),
	}
}

// usize returns the pointer-sized integer type.
func (e *Env) usize() *ir.IntType {
	return ir.IntN(int(e.Target.PtrBytes * 8))
}

func (e *Env) constUsize(n int64) *ir.Value {
	return e.Builder.ConstInt(e.usize(), n)
}

// runtimeStruct returns the runtime's named struct type. A module without
// it was not prepared with DeclareRuntime.
func (e *Env) runtimeStruct(name string) *ir.StructType {
	st := e.Module.StructType(name)
	if st == nil {
		panic(fmt.Sprintf("codegen.runtimeStruct: module %s has no %%%s type", e.Module.Name, name))
	}
	return st
}

// runtimeFunc returns a declared runtime entry point.
func (e *Env) runtimeFunc(name string) *ir.Func {
	f := e.Module.Func(name)
	if f == nil {
		panic(fmt.Sprintf("codegen.runtimeFunc: module %s does not declare @%s", e.Module.Name, name))
	}
	return f
}

// DeclareRuntime adds the runtime aggregate types and the declarations of
// every runtime entry point to m.
func DeclareRuntime(m *ir.Module, sizes *layout.Sizes) {
	usize := ir.IntN(int(sizes.PtrBytes * 8))
	m.NewStructType(rtabi.TypeDict, ir.Ptr, usize, usize)
	m.NewStructType(rtabi.TypeList, ir.Ptr, usize)

	abi := func(t rtabi.ABIType) ir.Type {
		switch t {
		case rtabi.Void:
			return ir.Void
		case rtabi.Bool:
			return ir.I1
		case rtabi.U8:
			return ir.I8
		case rtabi.U64:
			return ir.I64
		case rtabi.Usize:
			return usize
		case rtabi.Ptr:
			return ir.Ptr
		case rtabi.Str:
			return ir.NewStruct(ir.Ptr, usize)
		case rtabi.Lookup:
			return ir.NewStruct(ir.Ptr, ir.I1)
		}
		panic(fmt.Sprintf("codegen.DeclareRuntime: unknown ABI type %q", t))
	}

	for _, sig := range rtabi.RuntimeFunctions() {
		params := make([]ir.Type, len(sig.Params))
		for i, p := range sig.Params {
			params[i] = abi(p)
		}
		m.DeclareFunc(sig.Name, &ir.FuncType{Result: abi(sig.Result), Params: params})
	}
}

// IRType returns the native IR type of values with layout l.
func (e *Env) IRType(l layout.Layout) ir.Type {
	return irType(l, e.usize())
}

func irType(l layout.Layout, usize *ir.IntType) ir.Type {
	switch l := l.(type) {
	case *layout.Builtin:
		switch l.Kind() {
		case layout.Bool:
			return ir.I1
		case layout.I8, layout.U8:
			return ir.I8
		case layout.I16, layout.U16:
			return ir.I16
		case layout.I32, layout.U32:
			return ir.I32
		case layout.I64, layout.U64:
			return ir.I64
		case layout.I128, layout.U128:
			return ir.I128
		case layout.F32:
			return ir.F32
		case layout.F64:
			return ir.F64
		case layout.Str, layout.EmptyList:
			return ir.NewStruct(ir.Ptr, usize)
		case layout.EmptyDict:
			return ir.NewStruct(ir.Ptr, usize, usize)
		}
	case *layout.List:
		return ir.NewStruct(ir.Ptr, usize)
	case *layout.Dict:
		return ir.NewStruct(ir.Ptr, usize, usize)
	case *layout.Struct:
		fields := make([]ir.Type, l.NumFields())
		for i, f := range l.Fields() {
			fields[i] = irType(f, usize)
		}
		return ir.NewStruct(fields...)
	}
	panic(fmt.Sprintf("codegen.irType: unhandled layout %v", l))
}

// checkOperand panics unless v has the native type of layout l.
func (e *Env) checkOperand(op, what string, v *ir.Value, l layout.Layout) {
	want := e.IRType(l)
	if !ir.Identical(v.Type, want) {
		panic(fmt.Sprintf("codegen.%s: %s has type %v, want %s for layout %s", op, what, v.Type, want, l))
	}
}

// spill stores v into a fresh stack slot and returns the slot.
func (e *Env) spill(v *ir.Value, name string) *ir.Value {
	slot := e.Builder.Alloca(v.Type, name)
	e.Builder.Store(slot, v)
	return slot
}
