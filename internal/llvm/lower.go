package llvm

import (
	"fmt"
	"strings"

	"github.com/you-not-fish/kagi/internal/ir"
)

// lowerFunc emits the LLVM IR for a single function definition.
func (g *generator) lowerFunc(fn *ir.Func) {
	g.names = make(map[*ir.Value]string, len(fn.Params))
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		name := fmt.Sprintf("%%a%d", i)
		if p.Name != "" {
			name = "%" + ir.QuoteIdent(p.Name)
		}
		g.names[p] = name
		params[i] = fmt.Sprintf("%s %s", llvmType(p.Type), name)
	}

	linkage := ""
	if fn.Internal {
		linkage = "internal "
	}
	attrs := ""
	if fn.AlwaysInline {
		attrs = " #0"
	}

	g.e.emit("define %s%s @%s(%s)%s {", linkage, funcResult(fn), ir.QuoteIdent(fn.Name), strings.Join(params, ", "), attrs)

	for i, b := range fn.Blocks {
		if i > 0 {
			g.e.emitLine()
		}
		g.lowerBlock(b)
	}

	g.e.emit("}")
}

// lowerBlock emits the LLVM IR for a single basic block.
func (g *generator) lowerBlock(b *ir.Block) {
	g.e.emitLabel(blockName(b))

	for _, v := range b.Values {
		g.lowerValue(v)
	}

	g.lowerTerminator(b)
}

// comment returns the debug comment for v, if enabled.
func (g *generator) comment(v *ir.Value) string {
	if !g.opts.DebugComments || v.Loc == nil {
		return ""
	}
	return v.Loc.String()
}

// lowerValue emits the LLVM IR for a single value.
func (g *generator) lowerValue(v *ir.Value) {
	c := g.comment(v)
	switch v.Op {
	// Constants and parameters are inlined at use sites; no instruction emitted.
	case ir.OpArg, ir.OpConstInt, ir.OpConstZero, ir.OpFuncAddr:
		return

	// Memory
	case ir.OpAlloca:
		t := v.AllocType()
		g.e.emitInst(c, "%s = alloca %s, align %d", valueName(v), llvmType(t), g.mod.Target.Alignof(t))
	case ir.OpLoad:
		g.e.emitInst(c, "%s = load %s, ptr %s", valueName(v), llvmType(v.Type), g.operand(v.Args[0]))
	case ir.OpStore:
		val := v.Args[1]
		g.e.emitInst(c, "store %s %s, ptr %s", llvmType(val.Type), g.operand(val), g.operand(v.Args[0]))

	// Aggregates
	case ir.OpExtractValue:
		agg := v.Args[0]
		g.e.emitInst(c, "%s = extractvalue %s %s, %d", valueName(v), llvmType(agg.Type), g.operand(agg), v.AuxInt)
	case ir.OpInsertValue:
		agg, elem := v.Args[0], v.Args[1]
		g.e.emitInst(c, "%s = insertvalue %s %s, %s %s, %d", valueName(v),
			llvmType(agg.Type), g.operand(agg), llvmType(elem.Type), g.operand(elem), v.AuxInt)

	// Calls
	case ir.OpCall:
		g.lowerCall(v, c)

	// SSA
	case ir.OpPhi:
		g.lowerPhi(v, c)

	// Comparison and logic
	case ir.OpICmpEq:
		g.emitBinOp(c, "icmp eq", v)
	case ir.OpFCmpEq:
		g.emitBinOp(c, "fcmp oeq", v)
	case ir.OpAnd:
		g.emitBinOp(c, "and", v)

	default:
		panic(fmt.Sprintf("llvm.lowerValue: unhandled op %s", v.Op))
	}
}

// lowerTerminator emits the block terminator instruction.
func (g *generator) lowerTerminator(b *ir.Block) {
	switch b.Kind {
	case ir.BlockPlain:
		g.e.emitInst("", "br label %%%s", blockName(b.Succs[0]))
	case ir.BlockIf:
		g.e.emitInst("", "br i1 %s, label %%%s, label %%%s",
			g.operand(b.Controls[0]), blockName(b.Succs[0]), blockName(b.Succs[1]))
	case ir.BlockReturn:
		if len(b.Controls) > 0 && b.Controls[0] != nil {
			ret := b.Controls[0]
			g.e.emitInst("", "ret %s %s", llvmType(ret.Type), g.operand(ret))
		} else {
			g.e.emitInst("", "ret void")
		}
	default:
		g.e.emitInst("", "unreachable")
	}
}

// operand returns the LLVM IR operand string for a value.
// Constants are inlined, others use their local name.
func (g *generator) operand(v *ir.Value) string {
	switch v.Op {
	case ir.OpConstInt:
		return intLiteral(v.Type, v.AuxInt)
	case ir.OpConstZero:
		return zeroLiteral(v.Type)
	case ir.OpFuncAddr:
		return "@" + ir.QuoteIdent(v.Callee().Name)
	case ir.OpArg:
		if name, ok := g.names[v]; ok {
			return name
		}
	}
	return valueName(v)
}

// emitBinOp emits a two-operand instruction whose operand type is Args[0]'s.
func (g *generator) emitBinOp(c, inst string, v *ir.Value) {
	x, y := v.Args[0], v.Args[1]
	g.e.emitInst(c, "%s = %s %s %s, %s", valueName(v), inst, llvmType(x.Type), g.operand(x), g.operand(y))
}

// lowerPhi emits a phi node.
func (g *generator) lowerPhi(v *ir.Value, c string) {
	parts := make([]string, len(v.Args))
	for i, arg := range v.Args {
		pred := v.Block.Preds[i]
		parts[i] = fmt.Sprintf("[ %s, %%%s ]", g.operand(arg), blockName(pred))
	}
	g.e.emitInst(c, "%s = phi %s %s", valueName(v), llvmType(v.Type), strings.Join(parts, ", "))
}

// lowerCall emits a direct function call.
func (g *generator) lowerCall(v *ir.Value, c string) {
	callee := v.Callee()
	args := make([]string, len(v.Args))
	for i, arg := range v.Args {
		args[i] = fmt.Sprintf("%s %s", llvmType(callee.Type.Params[i]), g.operand(arg))
	}
	if v.Type == nil {
		g.e.emitInst(c, "call void @%s(%s)", ir.QuoteIdent(callee.Name), strings.Join(args, ", "))
		return
	}
	g.e.emitInst(c, "%s = call %s @%s(%s)", valueName(v), funcResult(callee), ir.QuoteIdent(callee.Name), strings.Join(args, ", "))
}

// valueName returns the LLVM local name for a value: %vN.
func valueName(v *ir.Value) string {
	return fmt.Sprintf("%%v%d", v.ID)
}

// blockName returns the LLVM label for a block.
// The entry block is "entry"; others are "<name>.N" or "bN".
func blockName(b *ir.Block) string {
	if b == b.Func.Entry {
		return "entry"
	}
	if b.Name != "" {
		return ir.QuoteIdent(fmt.Sprintf("%s.%d", b.Name, b.ID))
	}
	return fmt.Sprintf("b%d", b.ID)
}
