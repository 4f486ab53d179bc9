package codegen

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/you-not-fish/kagi/internal/ir"
	"github.com/you-not-fish/kagi/internal/layout"
	"github.com/you-not-fish/kagi/internal/rtabi"
)

// nativeDict returns the compiler's dict handle type { ptr, usize, usize }.
func (e *Env) nativeDict() *ir.StructType {
	return ir.NewStruct(ir.Ptr, e.usize(), e.usize())
}

// nativeList returns the compiler's list handle type { ptr, usize }.
func (e *Env) nativeList() *ir.StructType {
	return ir.NewStruct(ir.Ptr, e.usize())
}

// dictCall holds the operands shared by runtime calls over one
// dict<key, value>.
type dictCall struct {
	align  *ir.Value // i8 alignment class
	kw, vw *ir.Value // key and value widths
}

// prepare checks the operands of op and builds the shared call operands.
func (e *Env) prepare(op string, key, value layout.Layout) dictCall {
	class := Classify(e.Sizes, key, value)
	e.Log.Debug("dict op",
		zap.String("op", op),
		zap.Stringer("key", key),
		zap.Stringer("value", value),
		zap.Stringer("align", class))
	return dictCall{
		align: e.Builder.ConstInt(ir.I8, int64(class)),
		kw:    e.constUsize(e.Sizes.Sizeof(key)),
		vw:    e.constUsize(e.Sizes.Sizeof(value)),
	}
}

func (e *Env) fnPtr(f *ir.Func) *ir.Value {
	return e.Builder.FuncAddr(f)
}

// dictResult allocates the slot a runtime call writes a dict into.
func (e *Env) dictResult() *ir.Value {
	return e.Builder.Alloca(e.runtimeStruct(rtabi.TypeDict), "dict_out")
}

// DictLen returns the number of entries of dict as a usize. An empty_dict
// layout is statically empty.
func (e *Env) DictLen(dict *ir.Value, l layout.Layout) *ir.Value {
	switch l := l.(type) {
	case *layout.Builtin:
		if l.Kind() == layout.EmptyDict {
			return e.constUsize(0)
		}
	case *layout.Dict:
		ptr := e.toRuntimePtr("DictLen", dict, rtabi.TypeDict)
		return e.Builder.Call(e.runtimeFunc(rtabi.FnDictLen), []*ir.Value{ptr}, "len")
	}
	panic(fmt.Sprintf("codegen.DictLen: expected a dict layout, got %s", l))
}

// DictEmpty returns a new dict with no entries.
func (e *Env) DictEmpty() *ir.Value {
	out := e.dictResult()
	e.Builder.Call(e.runtimeFunc(rtabi.FnDictEmpty), []*ir.Value{out}, "")
	return e.toNative("DictEmpty", out, rtabi.TypeDict, e.nativeDict())
}

// DictInsert returns dict with key bound to value. The input dict is
// consumed; a displaced key or value is released.
func (e *Env) DictInsert(dict, key *ir.Value, keyLayout layout.Layout, value *ir.Value, valueLayout layout.Layout) *ir.Value {
	e.checkOperand("DictInsert", "key", key, keyLayout)
	e.checkOperand("DictInsert", "value", value, valueLayout)
	c := e.prepare("insert", keyLayout, valueLayout)

	dictPtr := e.toRuntimePtr("DictInsert", dict, rtabi.TypeDict)
	keyPtr := e.spill(key, "key")
	valuePtr := e.spill(value, "value")
	hash := e.fnPtr(e.HashWrapper(keyLayout))
	eq := e.fnPtr(e.EqWrapper(keyLayout))
	decKey := e.fnPtr(e.RefcountWrapper(keyLayout, Dec))
	decValue := e.fnPtr(e.RefcountWrapper(valueLayout, Dec))
	out := e.dictResult()

	e.Builder.Call(e.runtimeFunc(rtabi.FnDictInsert), []*ir.Value{
		dictPtr, c.align, keyPtr, c.kw, valuePtr, c.vw, hash, eq, decKey, decValue, out,
	}, "")
	return e.toNative("DictInsert", out, rtabi.TypeDict, e.nativeDict())
}

// DictRemove returns dict without key. The input dict is consumed; the
// removed entry is released.
func (e *Env) DictRemove(dict, key *ir.Value, keyLayout, valueLayout layout.Layout) *ir.Value {
	e.checkOperand("DictRemove", "key", key, keyLayout)
	c := e.prepare("remove", keyLayout, valueLayout)

	dictPtr := e.toRuntimePtr("DictRemove", dict, rtabi.TypeDict)
	keyPtr := e.spill(key, "key")
	hash := e.fnPtr(e.HashWrapper(keyLayout))
	eq := e.fnPtr(e.EqWrapper(keyLayout))
	decKey := e.fnPtr(e.RefcountWrapper(keyLayout, Dec))
	decValue := e.fnPtr(e.RefcountWrapper(valueLayout, Dec))
	out := e.dictResult()

	e.Builder.Call(e.runtimeFunc(rtabi.FnDictRemove), []*ir.Value{
		dictPtr, c.align, keyPtr, c.kw, c.vw, hash, eq, decKey, decValue, out,
	}, "")
	return e.toNative("DictRemove", out, rtabi.TypeDict, e.nativeDict())
}

// DictContains returns an i1 that is true when dict has key.
func (e *Env) DictContains(dict, key *ir.Value, keyLayout, valueLayout layout.Layout) *ir.Value {
	e.checkOperand("DictContains", "key", key, keyLayout)
	c := e.prepare("contains", keyLayout, valueLayout)

	dictPtr := e.toRuntimePtr("DictContains", dict, rtabi.TypeDict)
	keyPtr := e.spill(key, "key")
	hash := e.fnPtr(e.HashWrapper(keyLayout))
	eq := e.fnPtr(e.EqWrapper(keyLayout))

	return e.Builder.Call(e.runtimeFunc(rtabi.FnDictContains), []*ir.Value{
		dictPtr, c.align, keyPtr, c.kw, c.vw, hash, eq,
	}, "contains")
}

// DictGet looks up key and returns { value, found }. When the key is
// absent the value is all zeros; the runtime's payload pointer is only
// read on the found path. The builder is left in the merge block.
func (e *Env) DictGet(dict, key *ir.Value, keyLayout, valueLayout layout.Layout) *ir.Value {
	e.checkOperand("DictGet", "key", key, keyLayout)
	c := e.prepare("get", keyLayout, valueLayout)
	bd := e.Builder

	dictPtr := e.toRuntimePtr("DictGet", dict, rtabi.TypeDict)
	keyPtr := e.spill(key, "key")
	hash := e.fnPtr(e.HashWrapper(keyLayout))
	eq := e.fnPtr(e.EqWrapper(keyLayout))
	incValue := e.fnPtr(e.RefcountWrapper(valueLayout, Inc(1)))

	lookup := bd.Call(e.runtimeFunc(rtabi.FnDictGet), []*ir.Value{
		dictPtr, c.align, keyPtr, c.kw, c.vw, hash, eq, incValue,
	}, "lookup")
	payload := bd.ExtractValue(lookup, 0, "payload")
	found := bd.ExtractValue(lookup, 1, "found")

	valueType := e.IRType(valueLayout)
	ifFound := bd.NewBlock("if_found")
	ifNotFound := bd.NewBlock("if_not_found")
	cont := bd.NewBlock("cont")
	bd.CondBr(found, ifFound, ifNotFound)

	bd.PositionAtEnd(ifFound)
	loaded := e.loadOpaque(payload, valueType)
	bd.Br(cont)

	bd.PositionAtEnd(ifNotFound)
	zero := bd.ConstZero(valueType)
	bd.Br(cont)

	bd.PositionAtEnd(cont)
	value := bd.Phi(valueType, "value", loaded, zero)

	result := bd.ConstZero(ir.NewStruct(valueType, ir.I1))
	result = bd.InsertValue(result, value, 0, "")
	return bd.InsertValue(result, found, 1, "get_result")
}

// DictElementsRC applies mode to every key and value stored in dict.
func (e *Env) DictElementsRC(dict *ir.Value, keyLayout, valueLayout layout.Layout, mode RefcountMode) {
	c := e.prepare("elements_rc", keyLayout, valueLayout)

	dictPtr := e.toRuntimePtr("DictElementsRC", dict, rtabi.TypeDict)
	rcKey := e.fnPtr(e.RefcountWrapper(keyLayout, mode))
	rcValue := e.fnPtr(e.RefcountWrapper(valueLayout, mode))

	e.Builder.Call(e.runtimeFunc(rtabi.FnDictElementsRC), []*ir.Value{
		dictPtr, c.align, c.kw, c.vw, rcKey, rcValue,
	}, "")
}

// DictKeys returns a new list holding the keys of dict.
func (e *Env) DictKeys(dict *ir.Value, keyLayout, valueLayout layout.Layout) *ir.Value {
	return e.dictToList("DictKeys", rtabi.FnDictKeys, dict, keyLayout, valueLayout, keyLayout)
}

// DictValues returns a new list holding the values of dict.
func (e *Env) DictValues(dict *ir.Value, keyLayout, valueLayout layout.Layout) *ir.Value {
	return e.dictToList("DictValues", rtabi.FnDictValues, dict, keyLayout, valueLayout, valueLayout)
}

// dictToList calls a runtime entry point that copies one side of every
// entry into a new list. elem is the layout of the copied side.
func (e *Env) dictToList(op, fn string, dict *ir.Value, keyLayout, valueLayout, elem layout.Layout) *ir.Value {
	c := e.prepare(op, keyLayout, valueLayout)

	dictPtr := e.toRuntimePtr(op, dict, rtabi.TypeDict)
	inc := e.fnPtr(e.RefcountWrapper(elem, Inc(1)))
	out := e.Builder.Alloca(e.runtimeStruct(rtabi.TypeList), "list_out")

	e.Builder.Call(e.runtimeFunc(fn), []*ir.Value{
		dictPtr, c.align, c.kw, c.vw, inc, out,
	}, "")
	return e.toNative(op, out, rtabi.TypeList, e.nativeList())
}

// DictUnion returns a new dict with the entries of both dicts. When both
// have a key, the entry of dict2 is kept. Neither input is consumed.
func (e *Env) DictUnion(dict1, dict2 *ir.Value, keyLayout, valueLayout layout.Layout) *ir.Value {
	c := e.prepare("union", keyLayout, valueLayout)

	ptr1 := e.toRuntimePtr("DictUnion", dict1, rtabi.TypeDict)
	ptr2 := e.toRuntimePtr("DictUnion", dict2, rtabi.TypeDict)
	hash := e.fnPtr(e.HashWrapper(keyLayout))
	eq := e.fnPtr(e.EqWrapper(keyLayout))
	incKey := e.fnPtr(e.RefcountWrapper(keyLayout, Inc(1)))
	incValue := e.fnPtr(e.RefcountWrapper(valueLayout, Inc(1)))
	out := e.dictResult()

	e.Builder.Call(e.runtimeFunc(rtabi.FnDictUnion), []*ir.Value{
		ptr1, ptr2, c.align, c.kw, c.vw, hash, eq, incKey, incValue, out,
	}, "")
	return e.toNative("DictUnion", out, rtabi.TypeDict, e.nativeDict())
}

// DictIntersection returns the entries of dict1 whose keys are in dict2.
// dict1 is consumed; dropped entries are released.
func (e *Env) DictIntersection(dict1, dict2 *ir.Value, keyLayout, valueLayout layout.Layout) *ir.Value {
	return e.dictSetOp("DictIntersection", rtabi.FnDictIntersection, dict1, dict2, keyLayout, valueLayout)
}

// DictDifference returns the entries of dict1 whose keys are not in
// dict2. dict1 is consumed; dropped entries are released.
func (e *Env) DictDifference(dict1, dict2 *ir.Value, keyLayout, valueLayout layout.Layout) *ir.Value {
	return e.dictSetOp("DictDifference", rtabi.FnDictDifference, dict1, dict2, keyLayout, valueLayout)
}

func (e *Env) dictSetOp(op, fn string, dict1, dict2 *ir.Value, keyLayout, valueLayout layout.Layout) *ir.Value {
	c := e.prepare(op, keyLayout, valueLayout)

	ptr1 := e.toRuntimePtr(op, dict1, rtabi.TypeDict)
	ptr2 := e.toRuntimePtr(op, dict2, rtabi.TypeDict)
	hash := e.fnPtr(e.HashWrapper(keyLayout))
	eq := e.fnPtr(e.EqWrapper(keyLayout))
	decKey := e.fnPtr(e.RefcountWrapper(keyLayout, Dec))
	decValue := e.fnPtr(e.RefcountWrapper(valueLayout, Dec))
	out := e.dictResult()

	e.Builder.Call(e.runtimeFunc(fn), []*ir.Value{
		ptr1, ptr2, c.align, c.kw, c.vw, hash, eq, decKey, decValue, out,
	}, "")
	return e.toNative(op, out, rtabi.TypeDict, e.nativeDict())
}
