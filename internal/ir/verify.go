package ir

import (
	"fmt"
	"strings"
)

// Verify checks the structural and type integrity of a function.
// It returns an error describing all violations found, or nil if valid.
// Declarations are always valid.
func Verify(f *Func) error {
	if f.IsDeclaration() {
		return nil
	}

	var errs []string

	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if f.Entry == nil || f.Blocks[0] != f.Entry {
		add("func %s: Blocks[0] is not the entry block", f.Name)
		return combineErrors(errs)
	}

	// 1. Entry block has no predecessors
	if len(f.Entry.Preds) != 0 {
		add("func %s: entry block %s has %d predecessors, want 0",
			f.Name, f.Entry, len(f.Entry.Preds))
	}

	blockSet := make(map[*Block]bool, len(f.Blocks))
	for _, b := range f.Blocks {
		blockSet[b] = true
	}

	valueSet := make(map[*Value]bool)
	for _, b := range f.Blocks {
		for _, v := range b.Values {
			valueSet[v] = true
		}
	}

	for _, b := range f.Blocks {
		// 2. Every block is terminated
		if b.Kind == BlockInvalid {
			add("func %s, %s: block is not terminated", f.Name, b)
		}

		// 3. Block's Func pointer matches
		if b.Func != f {
			add("func %s, %s: block Func pointer mismatch", f.Name, b)
		}

		seenNonPhi := false
		for _, v := range b.Values {
			// 4. Every Value's Block pointer matches its containing block
			if v.Block != b {
				add("func %s, %s, %s: value Block pointer is %s, want %s",
					f.Name, b, v, v.Block, b)
			}

			// 5. Non-void values must have non-nil Type
			if !v.Op.IsVoid() && v.Type == nil && v.Op != OpCall {
				add("func %s, %s, %s (%s): non-void value has nil Type",
					f.Name, b, v, v.Op)
			}

			// 6. Args are non-nil and belong to this function
			for i, arg := range v.Args {
				if arg == nil {
					add("func %s, %s, %s: arg[%d] is nil", f.Name, b, v, i)
				} else if !valueSet[arg] {
					add("func %s, %s, %s: arg[%d] (%s) not found in function",
						f.Name, b, v, i, arg)
				}
			}

			// 7. Phis come first and have one arg per predecessor
			if v.Op == OpPhi {
				if seenNonPhi {
					add("func %s, %s, %s: phi after non-phi value", f.Name, b, v)
				}
				if len(v.Args) != len(b.Preds) {
					add("func %s, %s, %s: phi has %d args but block has %d preds",
						f.Name, b, v, len(v.Args), len(b.Preds))
				}
			} else if !v.IsConst() && v.Op != OpArg {
				seenNonPhi = true
			}

			verifyValueTypes(f, b, v, add)
		}

		// 8. Terminator checks based on Kind
		switch b.Kind {
		case BlockPlain:
			if len(b.Succs) != 1 {
				add("func %s, %s: plain block has %d succs, want 1",
					f.Name, b, len(b.Succs))
			}
		case BlockIf:
			if len(b.Controls) != 1 || b.Controls[0] == nil {
				add("func %s, %s: if block has no condition", f.Name, b)
			} else if !Identical(b.Controls[0].Type, I1) {
				add("func %s, %s: if condition has type %v, want i1",
					f.Name, b, b.Controls[0].Type)
			}
			if len(b.Succs) != 2 {
				add("func %s, %s: if block has %d succs, want 2",
					f.Name, b, len(b.Succs))
			}
		case BlockReturn:
			if len(b.Succs) != 0 {
				add("func %s, %s: return block has %d succs, want 0",
					f.Name, b, len(b.Succs))
			}
			verifyReturn(f, b, add)
		case BlockUnreachable:
			if len(b.Succs) != 0 {
				add("func %s, %s: unreachable block has %d succs, want 0",
					f.Name, b, len(b.Succs))
			}
		}

		// 9. Succs/Preds edge consistency
		for _, succ := range b.Succs {
			if !blockSet[succ] {
				add("func %s, %s: successor %s not in function", f.Name, b, succ)
				continue
			}
			if succ.PredIndex(b) < 0 {
				add("func %s, %s: successor %s does not have %s as predecessor",
					f.Name, b, succ, b)
			}
		}
		for _, pred := range b.Preds {
			if !blockSet[pred] {
				add("func %s, %s: predecessor %s not in function", f.Name, b, pred)
			}
		}

		// 10. Control values must reference existing values
		for i, c := range b.Controls {
			if c != nil && !valueSet[c] {
				add("func %s, %s: control[%d] (%s) not found in function",
					f.Name, b, i, c)
			}
		}
	}

	if len(errs) == 0 {
		verifyDominance(f, add)
	}
	return combineErrors(errs)
}

// verifyDominance checks that every operand is defined before its use:
// earlier in the same block or in a dominating block. A phi operand must
// dominate the corresponding predecessor. Constants are inlined by the
// backend and may be used anywhere.
func verifyDominance(f *Func, add func(string, ...interface{})) {
	dt := ComputeDom(f)
	pos := make(map[*Value]int)
	for _, b := range f.Blocks {
		for i, v := range b.Values {
			pos[v] = i
		}
	}

	defined := func(def *Value, use *Block, at int) bool {
		if def.IsConst() || def.Op == OpArg {
			return true
		}
		if def.Block == use {
			return pos[def] < at
		}
		return dt.Dominates(def.Block, use)
	}

	for _, b := range f.Blocks {
		if !dt.Reachable(b) {
			continue
		}
		for i, v := range b.Values {
			for j, arg := range v.Args {
				if v.Op == OpPhi {
					pred := b.Preds[j]
					if !defined(arg, pred, len(pred.Values)) {
						add("func %s, %s, %s: phi arg[%d] (%s) does not dominate predecessor %s",
							f.Name, b, v, j, arg, pred)
					}
				} else if !defined(arg, b, i) {
					add("func %s, %s, %s: arg[%d] (%s) does not dominate its use",
						f.Name, b, v, j, arg)
				}
			}
		}
		for i, c := range b.Controls {
			if c != nil && !defined(c, b, len(b.Values)) {
				add("func %s, %s: control[%d] (%s) does not dominate the terminator", f.Name, b, i, c)
			}
		}
	}
}

// verifyValueTypes checks operand types of a single value.
func verifyValueTypes(f *Func, b *Block, v *Value, add func(string, ...interface{})) {
	for _, arg := range v.Args {
		if arg == nil {
			return
		}
	}
	switch v.Op {
	case OpLoad:
		if !Identical(v.Args[0].Type, Ptr) {
			add("func %s, %s, %s: load address has type %v, want ptr", f.Name, b, v, v.Args[0].Type)
		}
	case OpStore:
		if len(v.Args) != 2 || !Identical(v.Args[0].Type, Ptr) {
			add("func %s, %s, %s: malformed store", f.Name, b, v)
		}
	case OpAlloca:
		if v.AllocType() == nil {
			add("func %s, %s, %s: alloca without allocated type", f.Name, b, v)
		}
	case OpCall, OpFuncAddr:
		callee := v.Callee()
		if callee == nil {
			add("func %s, %s, %s: %s without callee", f.Name, b, v, v.Op)
			return
		}
		if callee.Module != f.Module {
			add("func %s, %s, %s: callee @%s is not in this module", f.Name, b, v, callee.Name)
		}
		if v.Op == OpFuncAddr {
			return
		}
		params := callee.Type.Params
		if len(params) != len(v.Args) {
			add("func %s, %s, %s: call to @%s has %d args, want %d",
				f.Name, b, v, callee.Name, len(v.Args), len(params))
			return
		}
		for i, arg := range v.Args {
			if !Identical(arg.Type, params[i]) {
				add("func %s, %s, %s: call to @%s arg[%d] has type %v, want %v",
					f.Name, b, v, callee.Name, i, arg.Type, params[i])
			}
		}
	case OpInsertValue:
		st, ok := v.Args[0].Type.(*StructType)
		if !ok || int(v.AuxInt) >= len(st.Fields) {
			add("func %s, %s, %s: insertvalue index %d out of range", f.Name, b, v, v.AuxInt)
		} else if !Identical(st.Fields[v.AuxInt], v.Args[1].Type) {
			add("func %s, %s, %s: insertvalue field %d has type %v, got %v",
				f.Name, b, v, v.AuxInt, st.Fields[v.AuxInt], v.Args[1].Type)
		}
	case OpPhi, OpICmpEq, OpFCmpEq, OpAnd:
		want := v.Type
		if v.Op == OpICmpEq || v.Op == OpFCmpEq {
			want = v.Args[0].Type
		}
		for i, arg := range v.Args {
			if !Identical(arg.Type, want) {
				add("func %s, %s, %s: %s arg[%d] has type %v, want %v",
					f.Name, b, v, v.Op, i, arg.Type, want)
			}
		}
	}
}

// verifyReturn checks the return value against the function result type.
func verifyReturn(f *Func, b *Block, add func(string, ...interface{})) {
	_, void := f.Type.Result.(*VoidType)
	var ret *Value
	if len(b.Controls) > 0 {
		ret = b.Controls[0]
	}
	switch {
	case void && ret != nil:
		add("func %s, %s: void function returns a value", f.Name, b)
	case !void && ret == nil:
		add("func %s, %s: missing return value of type %s", f.Name, b, f.Type.Result)
	case !void && !Identical(ret.Type, f.Type.Result):
		add("func %s, %s: returns %v, want %s", f.Name, b, ret.Type, f.Type.Result)
	}
}

// VerifyModule verifies every function in m.
func VerifyModule(m *Module) error {
	var msgs []string
	for _, f := range m.Funcs() {
		if err := Verify(f); err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%s", strings.Join(msgs, "\n"))
}

// combineErrors creates an error from a list of error strings, or returns nil.
func combineErrors(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("IR verification failed:\n  %s", strings.Join(errs, "\n  "))
}
