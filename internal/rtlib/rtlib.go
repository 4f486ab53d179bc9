// Package rtlib is a reference implementation of the runtime library that
// generated dictionary code links against. It runs inside an interp.Machine:
// every runtime symbol is a Go function over the machine's memory, and
// hashing, equality and refcounting of elements go back through the
// wrapper function pointers the generated code passes in.
package rtlib

import (
	"fmt"

	"github.com/you-not-fish/kagi/internal/interp"
	"github.com/you-not-fish/kagi/internal/rtabi"
)

// Bind installs every runtime entry point into m.
func Bind(m *interp.Machine) {
	for name, fn := range Externs() {
		m.Bind(name, fn)
	}
}

// Externs returns the runtime implementations keyed by symbol name.
func Externs() map[string]interp.Extern {
	return map[string]interp.Extern{
		rtabi.FnDictLen:          dictLen,
		rtabi.FnDictEmpty:        dictEmpty,
		rtabi.FnDictInsert:       dictInsert,
		rtabi.FnDictRemove:       dictRemove,
		rtabi.FnDictContains:     dictContains,
		rtabi.FnDictGet:          dictGet,
		rtabi.FnDictElementsRC:   dictElementsRC,
		rtabi.FnDictKeys:         dictKeys,
		rtabi.FnDictValues:       dictValues,
		rtabi.FnDictUnion:        dictUnion,
		rtabi.FnDictIntersection: dictIntersection,
		rtabi.FnDictDifference:   dictDifference,
		rtabi.FnHashBytes:        hashBytes,
		rtabi.FnHashStr:          hashStr,
		rtabi.FnStrEqual:         strEqual,
		rtabi.FnIncref:           incref,
		rtabi.FnDecref:           decref,
	}
}

// incref adds n to the count of a heap allocation. Null and static data
// are not counted.
func incref(m *interp.Machine, args []interp.Value) (interp.Value, error) {
	ptr, n := args[0].Lo, args[1].Lo
	if ptr == 0 || !m.IsHeap(ptr) {
		return interp.Value{}, nil
	}
	rc, err := m.Refcount(ptr)
	if err != nil {
		return interp.Value{}, err
	}
	return interp.Value{}, m.SetRefcount(ptr, rc+n)
}

func decref(m *interp.Machine, args []interp.Value) (interp.Value, error) {
	ptr := args[0].Lo
	if ptr == 0 || !m.IsHeap(ptr) {
		return interp.Value{}, nil
	}
	return interp.Value{}, release(m, ptr)
}

// release drops one reference to the heap allocation at ptr and frees it
// when none remain.
func release(m *interp.Machine, ptr uint64) error {
	rc, err := m.Refcount(ptr)
	if err != nil {
		return err
	}
	if rc == 0 {
		return &interp.Trap{Msg: fmt.Sprintf("refcount underflow at 0x%x", ptr)}
	}
	if rc == rtabi.RefcountOne {
		return m.Free(ptr)
	}
	return m.SetRefcount(ptr, rc-1)
}
