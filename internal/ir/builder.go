package ir

import "fmt"

// Builder appends instructions at an insertion point. There is one
// insertion point at a time; code that needs to build elsewhere saves and
// restores it.
type Builder struct {
	b   *Block    // current block (nil = no insertion point)
	loc *DebugLoc // debug location stamped onto new values
}

// NewBuilder returns a builder with no insertion point.
func NewBuilder() *Builder {
	return &Builder{}
}

// InsertPoint is a saved builder position.
type InsertPoint struct {
	Block *Block
	Loc   *DebugLoc
}

// Save captures the current insertion block and debug location.
func (bd *Builder) Save() InsertPoint {
	return InsertPoint{Block: bd.b, Loc: bd.loc}
}

// Restore returns the builder to a position captured by Save.
func (bd *Builder) Restore(ip InsertPoint) {
	bd.b = ip.Block
	bd.loc = ip.Loc
}

// PositionAtEnd moves the insertion point to the end of blk.
func (bd *Builder) PositionAtEnd(blk *Block) {
	bd.b = blk
}

// ClearInsertionPoint leaves the builder without an insertion point.
func (bd *Builder) ClearInsertionPoint() {
	bd.b = nil
}

// InsertBlock returns the current block, or nil.
func (bd *Builder) InsertBlock() *Block {
	return bd.b
}

// Func returns the function containing the insertion point, or nil.
func (bd *Builder) Func() *Func {
	if bd.b == nil {
		return nil
	}
	return bd.b.Func
}

// DebugLoc returns the current debug location.
func (bd *Builder) DebugLoc() *DebugLoc {
	return bd.loc
}

// SetDebugLoc sets the debug location for subsequently built values.
func (bd *Builder) SetDebugLoc(loc *DebugLoc) {
	bd.loc = loc
}

// NewBlock appends a new block to the current function.
func (bd *Builder) NewBlock(name string) *Block {
	return bd.block("NewBlock").Func.NewBlock(name)
}

func (bd *Builder) block(what string) *Block {
	if bd.b == nil {
		panic(fmt.Sprintf("ir.Builder.%s: no insertion point", what))
	}
	if bd.b.Terminated() {
		panic(fmt.Sprintf("ir.Builder.%s: block %s of %s is already terminated", what, bd.b, bd.b.Func.Name))
	}
	return bd.b
}

func (bd *Builder) add(what string, op Op, typ Type, args ...*Value) *Value {
	b := bd.block(what)
	v := b.Func.NewValue(b, op, typ, args...)
	v.Loc = bd.loc
	return v
}

// ConstInt builds an integer constant.
func (bd *Builder) ConstInt(t *IntType, x int64) *Value {
	v := bd.add("ConstInt", OpConstInt, t)
	v.AuxInt = x
	return v
}

// ConstBool builds an i1 constant.
func (bd *Builder) ConstBool(x bool) *Value {
	if x {
		return bd.ConstInt(I1, 1)
	}
	return bd.ConstInt(I1, 0)
}

// ConstZero builds the all-zero constant of t.
func (bd *Builder) ConstZero(t Type) *Value {
	return bd.add("ConstZero", OpConstZero, t)
}

// FuncAddr builds the address of f.
func (bd *Builder) FuncAddr(f *Func) *Value {
	v := bd.add("FuncAddr", OpFuncAddr, Ptr)
	v.Aux = f
	return v
}

// Alloca reserves a stack slot for a t in the entry block of the current
// function.
func (bd *Builder) Alloca(t Type, name string) *Value {
	b := bd.block("Alloca")
	entry := b.Func.Entry
	v := b.Func.NewValue(entry, OpAlloca, Ptr)
	v.Aux = t
	v.Name = name
	v.Loc = bd.loc
	return v
}

// Load builds a load of a t from ptr.
func (bd *Builder) Load(t Type, ptr *Value, name string) *Value {
	v := bd.add("Load", OpLoad, t, ptr)
	v.Name = name
	return v
}

// Store builds a store of val to ptr.
func (bd *Builder) Store(ptr, val *Value) *Value {
	return bd.add("Store", OpStore, nil, ptr, val)
}

// ExtractValue builds agg.field[i].
func (bd *Builder) ExtractValue(agg *Value, i int, name string) *Value {
	st, ok := agg.Type.(*StructType)
	if !ok || i < 0 || i >= len(st.Fields) {
		panic(fmt.Sprintf("ir.Builder.ExtractValue: no field %d in %v", i, agg.Type))
	}
	v := bd.add("ExtractValue", OpExtractValue, st.Fields[i], agg)
	v.AuxInt = int64(i)
	v.Name = name
	return v
}

// InsertValue builds agg with field[i] replaced by elem.
func (bd *Builder) InsertValue(agg, elem *Value, i int, name string) *Value {
	st, ok := agg.Type.(*StructType)
	if !ok || i < 0 || i >= len(st.Fields) {
		panic(fmt.Sprintf("ir.Builder.InsertValue: no field %d in %v", i, agg.Type))
	}
	v := bd.add("InsertValue", OpInsertValue, agg.Type, agg, elem)
	v.AuxInt = int64(i)
	v.Name = name
	return v
}

// Call builds a direct call to f. The result is nil-typed for void callees.
func (bd *Builder) Call(f *Func, args []*Value, name string) *Value {
	if len(args) != len(f.Type.Params) {
		panic(fmt.Sprintf("ir.Builder.Call: @%s takes %d arguments, got %d", f.Name, len(f.Type.Params), len(args)))
	}
	var typ Type
	if _, void := f.Type.Result.(*VoidType); !void {
		typ = f.Type.Result
	}
	v := bd.add("Call", OpCall, typ, args...)
	v.Aux = f
	v.Name = name
	return v
}

// Phi builds a φ of type t. incoming holds one value per predecessor of
// the current block, in Preds order.
func (bd *Builder) Phi(t Type, name string, incoming ...*Value) *Value {
	v := bd.add("Phi", OpPhi, t, incoming...)
	v.Name = name
	return v
}

// ICmpEq builds x == y for integers or pointers.
func (bd *Builder) ICmpEq(x, y *Value, name string) *Value {
	v := bd.add("ICmpEq", OpICmpEq, I1, x, y)
	v.Name = name
	return v
}

// FCmpEq builds an ordered x == y for floats.
func (bd *Builder) FCmpEq(x, y *Value, name string) *Value {
	v := bd.add("FCmpEq", OpFCmpEq, I1, x, y)
	v.Name = name
	return v
}

// And builds x & y.
func (bd *Builder) And(x, y *Value, name string) *Value {
	v := bd.add("And", OpAnd, x.Type, x, y)
	v.Name = name
	return v
}

// Br terminates the current block with a jump to target.
func (bd *Builder) Br(target *Block) {
	b := bd.block("Br")
	b.Kind = BlockPlain
	b.AddSucc(target)
}

// CondBr terminates the current block with a conditional branch.
func (bd *Builder) CondBr(cond *Value, then, els *Block) {
	b := bd.block("CondBr")
	b.Kind = BlockIf
	b.SetControl(cond)
	b.AddSucc(then)
	b.AddSucc(els)
}

// Ret terminates the current block returning v.
func (bd *Builder) Ret(v *Value) {
	b := bd.block("Ret")
	b.Kind = BlockReturn
	b.SetControl(v)
}

// RetVoid terminates the current block with a void return.
func (bd *Builder) RetVoid() {
	b := bd.block("RetVoid")
	b.Kind = BlockReturn
	b.Controls = nil
}

// Unreachable terminates the current block as unreachable.
func (bd *Builder) Unreachable() {
	b := bd.block("Unreachable")
	b.Kind = BlockUnreachable
}
