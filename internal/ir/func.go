package ir

// Func represents an IR function. A Func without blocks is a declaration
// of an external symbol.
type Func struct {
	// Name is the symbol name.
	Name string

	// Type is the function signature.
	Type *FuncType

	// Params holds one OpArg value per parameter. For definitions they
	// live in the entry block.
	Params []*Value

	// Blocks is the list of basic blocks. Blocks[0] is always the entry block.
	Blocks []*Block

	// Entry is the entry block (same as Blocks[0]); nil for declarations.
	Entry *Block

	// AlwaysInline marks the function with the alwaysinline attribute.
	AlwaysInline bool

	// Internal gives the function internal linkage.
	Internal bool

	// Module is the module containing this function.
	Module *Module

	// nextValueID is the next available value ID.
	nextValueID ID

	// nextBlockID is the next available block ID.
	nextBlockID ID
}

// newFunc creates a function. Definitions get an entry block holding the
// parameter values.
func newFunc(name string, typ *FuncType, define bool) *Func {
	f := &Func{Name: name, Type: typ}
	var entry *Block
	if define {
		entry = f.NewBlock("entry")
		f.Entry = entry
	}
	for i, pt := range typ.Params {
		v := &Value{ID: f.nextValueID, Op: OpArg, Type: pt, AuxInt: int64(i), Block: entry}
		f.nextValueID++
		f.Params = append(f.Params, v)
		if entry != nil {
			entry.Values = append(entry.Values, v)
		}
	}
	return f
}

// IsDeclaration reports whether f has no body.
func (f *Func) IsDeclaration() bool {
	return len(f.Blocks) == 0
}

// NewBlock creates a new unterminated block and appends it to the function.
func (f *Func) NewBlock(name string) *Block {
	b := &Block{
		ID:   f.nextBlockID,
		Name: name,
		Func: f,
	}
	f.nextBlockID++
	f.Blocks = append(f.Blocks, b)
	return b
}

// NewValue creates a new Value at the end of block b.
func (f *Func) NewValue(b *Block, op Op, typ Type, args ...*Value) *Value {
	v := &Value{
		ID:    f.nextValueID,
		Op:    op,
		Type:  typ,
		Block: b,
	}
	f.nextValueID++
	for _, arg := range args {
		v.AddArg(arg)
	}
	b.Values = append(b.Values, v)
	return v
}

// Param returns the i'th parameter value.
func (f *Func) Param(i int) *Value { return f.Params[i] }

// NumBlocks returns the number of blocks in the function.
func (f *Func) NumBlocks() int { return len(f.Blocks) }

// NumValues returns the total number of values across all blocks.
func (f *Func) NumValues() int {
	n := 0
	for _, b := range f.Blocks {
		n += len(b.Values)
	}
	return n
}
