package ir

import "fmt"

// ID is a unique identifier for Values and Blocks within a Func.
type ID int32

// DebugLoc is a source location attached to emitted instructions.
// Scope names the function the location belongs to.
type DebugLoc struct {
	Line  int
	Col   int
	Scope string
}

func (l *DebugLoc) String() string {
	if l == nil {
		return "<none>"
	}
	return fmt.Sprintf("%s:%d:%d", l.Scope, l.Line, l.Col)
}

// Value represents a single IR computation.
type Value struct {
	// ID is a unique identifier within the containing Func.
	ID ID

	// Op is the operation this value computes.
	Op Op

	// Type is the result type of this value.
	// Nil for void operations (Store, calls to void functions).
	Type Type

	// Args are the input values to this operation.
	Args []*Value

	// Block is the basic block that contains this value.
	Block *Block

	// AuxInt holds an auxiliary integer (constant value, field index, param index).
	AuxInt int64

	// Aux holds auxiliary data (*Func for calls, Type for allocas).
	Aux interface{}

	// Name is an optional name hint for printing.
	Name string

	// Loc is the debug location active when the value was built.
	Loc *DebugLoc
}

// String returns a short string representation of the value (e.g., "v5").
func (v *Value) String() string {
	return fmt.Sprintf("v%d", v.ID)
}

// LongString returns a detailed string representation including op, type, and args.
func (v *Value) LongString() string {
	return formatValue(v)
}

// AddArg appends a value to the argument list.
func (v *Value) AddArg(arg *Value) {
	v.Args = append(v.Args, arg)
}

// IsConst reports whether v is a constant that backends may inline.
func (v *Value) IsConst() bool {
	switch v.Op {
	case OpConstInt, OpConstZero, OpFuncAddr:
		return true
	}
	return false
}

// Callee returns the called function of an OpCall or OpFuncAddr value.
func (v *Value) Callee() *Func {
	f, _ := v.Aux.(*Func)
	return f
}

// AllocType returns the allocated type of an OpAlloca value.
func (v *Value) AllocType() Type {
	t, _ := v.Aux.(Type)
	return t
}
