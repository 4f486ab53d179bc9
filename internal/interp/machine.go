// Package interp executes IR modules directly. It gives generated code a
// flat little-endian memory, a bump heap with refcount headers, and a
// table of Go functions standing in for external symbols, so dictionary
// glue can be run end to end without a native toolchain.
package interp

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/you-not-fish/kagi/internal/ir"
)

// Trap is a runtime fault raised by executed code or by an extern.
type Trap struct {
	Msg string
}

func (t *Trap) Error() string { return "trap: " + t.Msg }

func trapf(format string, args ...interface{}) error {
	return &Trap{Msg: fmt.Sprintf(format, args...)}
}

// Extern implements an external symbol in Go. A void extern returns the
// zero Value.
type Extern func(m *Machine, args []Value) (Value, error)

// DefaultMaxSteps bounds the number of instructions a single Call runs.
const DefaultMaxSteps = 50_000_000

const maxDepth = 1024

// Machine runs functions of one module.
type Machine struct {
	Module   *ir.Module
	Log      *zap.Logger
	MaxSteps int

	mem     *memory
	target  *ir.TargetData
	externs map[string]Extern
	byAddr  map[uint64]*ir.Func
	addrOf  map[*ir.Func]uint64
	steps   int
	depth   int
}

// New returns a machine for mod. Every function in mod gets an address.
func New(mod *ir.Module) *Machine {
	m := &Machine{
		Module:   mod,
		Log:      zap.NewNop(),
		MaxSteps: DefaultMaxSteps,
		mem:      newMemory(uint64(mod.Target.PtrBytes)),
		target:   mod.Target,
		externs:  make(map[string]Extern),
		byAddr:   make(map[uint64]*ir.Func),
		addrOf:   make(map[*ir.Func]uint64),
	}
	for i, f := range mod.Funcs() {
		addr := uint64(funcBase + i*funcStride)
		m.byAddr[addr] = f
		m.addrOf[f] = addr
	}
	return m
}

// Bind installs fn as the implementation of the declared function name.
func (m *Machine) Bind(name string, fn Extern) {
	m.externs[name] = fn
}

// PtrBytes returns the pointer width of the module's target.
func (m *Machine) PtrBytes() uint64 { return m.mem.ptrBytes }

// FuncAddr returns the address of f.
func (m *Machine) FuncAddr(f *ir.Func) uint64 { return m.addrOf[f] }

// Call runs the function named name.
func (m *Machine) Call(name string, args ...Value) (Value, error) {
	f := m.Module.Func(name)
	if f == nil {
		return Value{}, fmt.Errorf("interp: no function @%s", name)
	}
	m.steps = 0
	return m.call(f, args)
}

// CallAddr runs the function at addr. Externs use it to call back into
// generated code through function pointers.
func (m *Machine) CallAddr(addr uint64, args ...Value) (Value, error) {
	f, ok := m.byAddr[addr]
	if !ok {
		return Value{}, trapf("call through invalid function pointer 0x%x", addr)
	}
	return m.call(f, args)
}

func (m *Machine) call(f *ir.Func, args []Value) (Value, error) {
	if len(args) != len(f.Type.Params) {
		return Value{}, fmt.Errorf("interp: @%s takes %d arguments, got %d", f.Name, len(f.Type.Params), len(args))
	}
	if m.depth >= maxDepth {
		return Value{}, trapf("call depth exceeded at @%s", f.Name)
	}
	m.depth++
	defer func() { m.depth-- }()

	if f.IsDeclaration() {
		ext, ok := m.externs[f.Name]
		if !ok {
			return Value{}, fmt.Errorf("interp: no implementation bound for @%s", f.Name)
		}
		m.Log.Debug("extern call", zap.String("func", f.Name), zap.Int("args", len(args)))
		r, err := ext(m, args)
		if err != nil {
			return Value{}, fmt.Errorf("@%s: %w", f.Name, err)
		}
		return r, nil
	}
	r, err := m.run(f, args)
	if err != nil {
		return Value{}, fmt.Errorf("@%s: %w", f.Name, err)
	}
	return r, nil
}

// frame holds the values computed so far in one activation.
type frame map[*ir.Value]Value

func (m *Machine) run(f *ir.Func, args []Value) (Value, error) {
	fr := make(frame, f.NumValues())
	for i, p := range f.Params {
		fr[p] = args[i]
	}

	var prev *ir.Block
	b := f.Entry
	for {
		if err := m.phis(fr, b, prev); err != nil {
			return Value{}, err
		}
		for _, v := range b.Values {
			if v.Op == ir.OpArg || v.Op == ir.OpPhi {
				continue
			}
			m.steps++
			if m.MaxSteps > 0 && m.steps > m.MaxSteps {
				return Value{}, trapf("step limit %d exceeded", m.MaxSteps)
			}
			r, err := m.eval(fr, v)
			if err != nil {
				return Value{}, fmt.Errorf("%s %s: %w", b, v, err)
			}
			fr[v] = r
		}

		switch b.Kind {
		case ir.BlockPlain:
			prev, b = b, b.Succs[0]
		case ir.BlockIf:
			cond := fr[b.Controls[0]]
			if cond.AsBool() {
				prev, b = b, b.Succs[0]
			} else {
				prev, b = b, b.Succs[1]
			}
		case ir.BlockReturn:
			if len(b.Controls) == 0 {
				return Value{}, nil
			}
			return fr[b.Controls[0]], nil
		case ir.BlockUnreachable:
			return Value{}, trapf("unreachable executed in %s", b)
		default:
			return Value{}, fmt.Errorf("interp: block %s is not terminated", b)
		}
	}
}

// phis assigns every phi of b at once from the edge prev -> b.
func (m *Machine) phis(fr frame, b, prev *ir.Block) error {
	var pending []Value
	var phis []*ir.Value
	for _, v := range b.Values {
		if v.Op != ir.OpPhi {
			continue
		}
		i := b.PredIndex(prev)
		if i < 0 || i >= len(v.Args) {
			return fmt.Errorf("interp: phi %s in %s has no argument for predecessor %v", v, b, prev)
		}
		phis = append(phis, v)
		pending = append(pending, fr[v.Args[i]])
	}
	for i, v := range phis {
		fr[v] = pending[i]
	}
	return nil
}

func (m *Machine) eval(fr frame, v *ir.Value) (Value, error) {
	arg := func(i int) Value { return fr[v.Args[i]] }

	switch v.Op {
	case ir.OpConstInt:
		c := truncate(Int(v.AuxInt), v.Type)
		if it, ok := v.Type.(*ir.IntType); ok && it.Bits > 64 && v.AuxInt < 0 {
			c.Hi = math.MaxUint64
		}
		return c, nil
	case ir.OpConstZero:
		return zeroValue(v.Type), nil
	case ir.OpFuncAddr:
		return Ptr(m.addrOf[v.Callee()]), nil
	case ir.OpAlloca:
		t := v.AllocType()
		return Ptr(m.mem.alloc(uint64(m.target.Sizeof(t)), uint64(m.target.Alignof(t)))), nil
	case ir.OpLoad:
		return m.Load(arg(0).Lo, v.Type)
	case ir.OpStore:
		return Value{}, m.Store(arg(0).Lo, v.Args[1].Type, arg(1))
	case ir.OpExtractValue:
		agg := arg(0)
		if int(v.AuxInt) >= len(agg.Fields) {
			return Value{}, fmt.Errorf("interp: extractvalue %d of %s", v.AuxInt, agg)
		}
		return agg.Fields[v.AuxInt], nil
	case ir.OpInsertValue:
		agg := arg(0)
		fields := make([]Value, len(agg.Fields))
		copy(fields, agg.Fields)
		fields[v.AuxInt] = arg(1)
		return Value{Fields: fields}, nil
	case ir.OpCall:
		args := make([]Value, len(v.Args))
		for i := range v.Args {
			args[i] = arg(i)
		}
		return m.call(v.Callee(), args)
	case ir.OpICmpEq:
		return Bool(arg(0).Equal(arg(1))), nil
	case ir.OpFCmpEq:
		return Bool(floatEqual(arg(0), arg(1), v.Args[0].Type)), nil
	case ir.OpAnd:
		a, b := arg(0), arg(1)
		return Value{Lo: a.Lo & b.Lo, Hi: a.Hi & b.Hi}, nil
	}
	return Value{}, fmt.Errorf("interp: cannot execute %s", v.Op)
}
