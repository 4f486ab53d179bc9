// Package ir implements the low-level intermediate representation that
// dictionary code generation builds into. It models the subset of LLVM IR
// the generator needs: typed values in basic blocks, named struct types,
// function declarations and definitions.
package ir

// Op represents an IR operation code.
type Op int

const (
	OpInvalid Op = iota

	// Parameters and constants
	OpArg       // function parameter; AuxInt = param index
	OpConstInt  // integer constant; AuxInt = value
	OpConstZero // all-zero constant of Type
	OpFuncAddr  // address of a function; Aux = *Func

	// Memory
	OpAlloca // stack slot; Aux = allocated Type; Type = ptr
	OpLoad   // load Type from Args[0]
	OpStore  // store Args[1] to Args[0]; void

	// Aggregates
	OpExtractValue // Args[0].field[AuxInt]
	OpInsertValue  // Args[0] with field[AuxInt] = Args[1]

	// Calls
	OpCall // direct call; Aux = *Func; Args = arguments; Type nil for void

	// SSA
	OpPhi // φ function; Args = one per predecessor

	// Comparison and logic
	OpICmpEq // integer/pointer ==; Type = i1
	OpFCmpEq // ordered float ==; Type = i1
	OpAnd    // bitwise and

	opCount // sentinel; must be last
)

// OpInfo holds metadata about an IR operation.
type OpInfo struct {
	Name   string // human-readable name
	IsPure bool   // true if the op has no side effects
	IsVoid bool   // true if the op never produces a value
}

// opInfoTable maps each Op to its OpInfo.
var opInfoTable = [opCount]OpInfo{
	OpInvalid: {Name: "Invalid"},

	OpArg:       {Name: "Arg", IsPure: true},
	OpConstInt:  {Name: "ConstInt", IsPure: true},
	OpConstZero: {Name: "ConstZero", IsPure: true},
	OpFuncAddr:  {Name: "FuncAddr", IsPure: true},

	OpAlloca: {Name: "Alloca"},
	OpLoad:   {Name: "Load"},
	OpStore:  {Name: "Store", IsVoid: true},

	OpExtractValue: {Name: "ExtractValue", IsPure: true},
	OpInsertValue:  {Name: "InsertValue", IsPure: true},

	OpCall: {Name: "Call"},

	OpPhi: {Name: "Phi", IsPure: true},

	OpICmpEq: {Name: "ICmpEq", IsPure: true},
	OpFCmpEq: {Name: "FCmpEq", IsPure: true},
	OpAnd:    {Name: "And", IsPure: true},
}

// String returns the human-readable name of the op.
func (o Op) String() string {
	return o.Info().Name
}

// Info returns the OpInfo for this op.
func (o Op) Info() OpInfo {
	if o >= 0 && int(o) < len(opInfoTable) {
		return opInfoTable[o]
	}
	return OpInfo{Name: "unknown"}
}

// IsPure returns true if this op has no side effects.
func (o Op) IsPure() bool { return o.Info().IsPure }

// IsVoid returns true if this op produces no value.
func (o Op) IsVoid() bool { return o.Info().IsVoid }
