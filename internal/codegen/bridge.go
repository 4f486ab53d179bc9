package codegen

import (
	"fmt"

	"github.com/you-not-fish/kagi/internal/ir"
)

// This file is the only place that reinterprets memory: a value stored at
// one type and reloaded at another. The compiler's container handles are
// anonymous structs; the runtime's are named structs of the same shape.

// toRuntime reinterprets a native container handle as the runtime struct
// named typeName.
func (e *Env) toRuntime(op string, handle *ir.Value, typeName string) *ir.Value {
	rt := e.runtimeStruct(typeName)
	e.checkBitCompatible(op, handle.Type, rt)
	slot := e.Builder.Alloca(handle.Type, "to_runtime")
	e.Builder.Store(slot, handle)
	return e.Builder.Load(rt, slot, "runtime_handle")
}

// toRuntimePtr reinterprets handle as the runtime struct and returns a
// pointer to a stack copy, as runtime entry points take their containers
// by reference.
func (e *Env) toRuntimePtr(op string, handle *ir.Value, typeName string) *ir.Value {
	return e.spill(e.toRuntime(op, handle, typeName), "runtime_arg")
}

// toNative reads back a runtime struct that a runtime call wrote into
// slot, reinterpreted as the native type.
func (e *Env) toNative(op string, slot *ir.Value, typeName string, native ir.Type) *ir.Value {
	rt := e.runtimeStruct(typeName)
	e.checkBitCompatible(op, native, rt)
	return e.Builder.Load(native, slot, "native_handle")
}

// loadOpaque loads a t from an untyped pointer handed out by the runtime.
func (e *Env) loadOpaque(ptr *ir.Value, t ir.Type) *ir.Value {
	return e.Builder.Load(t, ptr, "load_opaque")
}

// checkBitCompatible panics unless native and runtime have identical size
// and alignment under the target data layout.
func (e *Env) checkBitCompatible(op string, native ir.Type, runtime *ir.StructType) {
	if _, ok := native.(*ir.StructType); !ok {
		panic(fmt.Sprintf("codegen.%s: handle of type %v cannot be reinterpreted as %s", op, native, runtime))
	}
	ns, na := e.Target.Sizeof(native), e.Target.Alignof(native)
	rs, ra := e.Target.Sizeof(runtime), e.Target.Alignof(runtime)
	if ns != rs || na != ra {
		panic(fmt.Sprintf("codegen.%s: %s (size %d, align %d) is not bit-compatible with %s %s (size %d, align %d)",
			op, native, ns, na, runtime, runtime.Body(), rs, ra))
	}
}
