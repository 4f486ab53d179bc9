package ir

import "fmt"

// BlockKind describes how a basic block terminates.
type BlockKind int

const (
	BlockInvalid     BlockKind = iota // not yet terminated
	BlockPlain                        // unconditional jump to Succs[0]
	BlockIf                           // conditional branch: if Controls[0] then Succs[0] else Succs[1]
	BlockReturn                       // function return; Controls[0] = return value (may be nil)
	BlockUnreachable                  // no successors
)

// blockKindNames maps BlockKind to its string representation.
var blockKindNames = [...]string{
	BlockInvalid:     "invalid",
	BlockPlain:       "plain",
	BlockIf:          "if",
	BlockReturn:      "ret",
	BlockUnreachable: "unreachable",
}

// String returns the string representation of the block kind.
func (k BlockKind) String() string {
	if int(k) < len(blockKindNames) {
		return blockKindNames[k]
	}
	return "unknown"
}

// Block represents a basic block in the control flow graph.
// A block contains a sequence of non-branching Values, followed by
// a terminator indicated by its Kind.
type Block struct {
	// ID is a unique identifier within the containing Func.
	ID ID

	// Name is a label hint ("entry", "found", ...).
	Name string

	// Kind describes how this block terminates.
	Kind BlockKind

	// Controls holds the terminator's operand values.
	// For BlockIf: Controls[0] = branch condition.
	// For BlockReturn: Controls[0] = return value (nil for void return).
	Controls []*Value

	// Succs lists the successor blocks in the CFG.
	// For BlockPlain: Succs[0] = target.
	// For BlockIf: Succs[0] = then, Succs[1] = else.
	Succs []*Block

	// Preds lists the predecessor blocks in the CFG.
	Preds []*Block

	// Values is the ordered list of values computed in this block.
	Values []*Value

	// Func is the function containing this block.
	Func *Func
}

// String returns a short string representation (e.g., "b3").
func (b *Block) String() string {
	return fmt.Sprintf("b%d", b.ID)
}

// AddSucc adds a successor block, updating both Succs and the successor's Preds.
func (b *Block) AddSucc(succ *Block) {
	b.Succs = append(b.Succs, succ)
	succ.Preds = append(succ.Preds, b)
}

// SetControl sets the branch/return control value.
func (b *Block) SetControl(v *Value) {
	b.Controls = []*Value{v}
}

// Terminated reports whether the block already has a terminator.
func (b *Block) Terminated() bool {
	return b.Kind != BlockInvalid
}

// PredIndex returns the index of p in b.Preds, or -1.
func (b *Block) PredIndex(p *Block) int {
	for i, x := range b.Preds {
		if x == p {
			return i
		}
	}
	return -1
}
