package llvm

import (
	"fmt"

	"github.com/you-not-fish/kagi/internal/ir"
)

// llvmType returns the LLVM spelling of t. Named structs are referenced by
// name; their bodies are emitted once at module level.
func llvmType(t ir.Type) string {
	if t == nil {
		return "void"
	}
	return t.String()
}

// zeroLiteral returns the zero constant of t.
func zeroLiteral(t ir.Type) string {
	switch t.(type) {
	case *ir.IntType:
		return "0"
	case *ir.FloatType:
		return "0.0"
	case *ir.PtrType:
		return "null"
	case *ir.StructType:
		return "zeroinitializer"
	}
	panic(fmt.Sprintf("llvm.zeroLiteral: no zero value for %s", t))
}

// intLiteral formats an integer constant of type t.
func intLiteral(t ir.Type, x int64) string {
	if it, ok := t.(*ir.IntType); ok && it.Bits == 1 {
		if x != 0 {
			return "true"
		}
		return "false"
	}
	return fmt.Sprintf("%d", x)
}

// funcResult returns the LLVM result type of a function.
func funcResult(f *ir.Func) string {
	return llvmType(f.Type.Result)
}
