package codegen

import (
	"fmt"

	"github.com/you-not-fish/kagi/internal/ir"
	"github.com/you-not-fish/kagi/internal/layout"
)

// Op names a dictionary primitive that can be exported as an entry point.
type Op string

const (
	OpLen          Op = "len"
	OpEmpty        Op = "empty"
	OpInsert       Op = "insert"
	OpRemove       Op = "remove"
	OpContains     Op = "contains"
	OpGet          Op = "get"
	OpIncElements  Op = "inc_elements"
	OpDecElements  Op = "dec_elements"
	OpKeys         Op = "keys"
	OpValues       Op = "values"
	OpUnion        Op = "union"
	OpIntersection Op = "intersection"
	OpDifference   Op = "difference"
)

// Ops returns every exportable operation in declaration order.
func Ops() []Op {
	return []Op{
		OpLen, OpEmpty, OpInsert, OpRemove, OpContains, OpGet,
		OpIncElements, OpDecElements, OpKeys, OpValues,
		OpUnion, OpIntersection, OpDifference,
	}
}

// ParseOp returns the operation named s.
func ParseOp(s string) (Op, error) {
	for _, op := range Ops() {
		if string(op) == s {
			return op, nil
		}
	}
	return "", fmt.Errorf("unknown dict operation %q", s)
}

// EntryName returns the symbol of the exported function for op on the
// dict called name.
func EntryName(name string, op Op) string {
	return name + "." + string(op)
}

// DefineEntry defines an exported function running op over
// dict<key, value>. Its parameters are the native operands in the order
// the dispatcher takes them:
//
//	len(dict) usize           empty() dict
//	insert(dict, k, v) dict   remove(dict, k) dict
//	contains(dict, k) i1      get(dict, k) { v, i1 }
//	inc_elements(dict)        dec_elements(dict)
//	keys(dict) list           values(dict) list
//	union(d1, d2) dict        intersection(d1, d2) dict
//	difference(d1, d2) dict
func (e *Env) DefineEntry(name string, op Op, key, value layout.Layout) *ir.Func {
	d := e.nativeDict()
	k, v := e.IRType(key), e.IRType(value)
	dl := layout.NewDict(key, value)

	var typ *ir.FuncType
	switch op {
	case OpLen:
		typ = &ir.FuncType{Result: e.usize(), Params: []ir.Type{d}}
	case OpEmpty:
		typ = &ir.FuncType{Result: d}
	case OpInsert:
		typ = &ir.FuncType{Result: d, Params: []ir.Type{d, k, v}}
	case OpRemove:
		typ = &ir.FuncType{Result: d, Params: []ir.Type{d, k}}
	case OpContains:
		typ = &ir.FuncType{Result: ir.I1, Params: []ir.Type{d, k}}
	case OpGet:
		typ = &ir.FuncType{Result: ir.NewStruct(v, ir.I1), Params: []ir.Type{d, k}}
	case OpIncElements, OpDecElements:
		typ = &ir.FuncType{Result: ir.Void, Params: []ir.Type{d}}
	case OpKeys, OpValues:
		typ = &ir.FuncType{Result: e.nativeList(), Params: []ir.Type{d}}
	case OpUnion, OpIntersection, OpDifference:
		typ = &ir.FuncType{Result: d, Params: []ir.Type{d, d}}
	default:
		panic(fmt.Sprintf("codegen.DefineEntry: unknown operation %q", op))
	}

	sym := EntryName(name, op)
	if e.Module.Func(sym) != nil {
		panic(fmt.Sprintf("codegen.DefineEntry: @%s already defined", sym))
	}
	f := e.Module.NewFunc(sym, typ)
	p := f.Params
	paramNames := map[Op][]string{
		OpLen: {"dict"}, OpInsert: {"dict", "key", "value"},
		OpRemove: {"dict", "key"}, OpContains: {"dict", "key"}, OpGet: {"dict", "key"},
		OpIncElements: {"dict"}, OpDecElements: {"dict"},
		OpKeys: {"dict"}, OpValues: {"dict"},
		OpUnion: {"dict1", "dict2"}, OpIntersection: {"dict1", "dict2"}, OpDifference: {"dict1", "dict2"},
	}
	for i, n := range paramNames[op] {
		p[i].Name = n
	}

	saved := e.Builder.Save()
	defer e.Builder.Restore(saved)
	e.Builder.PositionAtEnd(f.Entry)
	e.Builder.SetDebugLoc(&ir.DebugLoc{Line: 1, Col: 1, Scope: sym})

	bd := e.Builder
	switch op {
	case OpLen:
		bd.Ret(e.DictLen(p[0], dl))
	case OpEmpty:
		bd.Ret(e.DictEmpty())
	case OpInsert:
		bd.Ret(e.DictInsert(p[0], p[1], key, p[2], value))
	case OpRemove:
		bd.Ret(e.DictRemove(p[0], p[1], key, value))
	case OpContains:
		bd.Ret(e.DictContains(p[0], p[1], key, value))
	case OpGet:
		bd.Ret(e.DictGet(p[0], p[1], key, value))
	case OpIncElements:
		e.DictElementsRC(p[0], key, value, Inc(1))
		bd.RetVoid()
	case OpDecElements:
		e.DictElementsRC(p[0], key, value, Dec)
		bd.RetVoid()
	case OpKeys:
		bd.Ret(e.DictKeys(p[0], key, value))
	case OpValues:
		bd.Ret(e.DictValues(p[0], key, value))
	case OpUnion:
		bd.Ret(e.DictUnion(p[0], p[1], key, value))
	case OpIntersection:
		bd.Ret(e.DictIntersection(p[0], p[1], key, value))
	case OpDifference:
		bd.Ret(e.DictDifference(p[0], p[1], key, value))
	}
	return f
}
