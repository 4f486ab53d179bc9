package rtlib

import (
	"errors"
	"sort"
	"testing"

	"github.com/you-not-fish/kagi/internal/codegen"
	"github.com/you-not-fish/kagi/internal/interp"
	"github.com/you-not-fish/kagi/internal/ir"
	"github.com/you-not-fish/kagi/internal/layout"
	"github.com/you-not-fish/kagi/internal/rtabi"
)

// harness compiles every entry point for one dict<key, value> and runs
// them on a machine with the runtime bound.
type harness struct {
	t *testing.T
	m *interp.Machine
}

func newHarness(t *testing.T, key, value string) *harness {
	t.Helper()
	mod := ir.NewModule("test", &ir.TargetData{PtrBytes: 8})
	codegen.DeclareRuntime(mod, layout.DefaultSizes)
	env := codegen.NewEnv(mod, layout.DefaultSizes)
	k, v := layout.MustParse(key), layout.MustParse(value)
	for _, op := range codegen.Ops() {
		env.DefineEntry("d", op, k, v)
	}
	if err := ir.VerifyModule(mod); err != nil {
		t.Fatalf("VerifyModule: %v", err)
	}
	m := interp.New(mod)
	Bind(m)
	return &harness{t: t, m: m}
}

func (h *harness) call(op codegen.Op, args ...interp.Value) interp.Value {
	h.t.Helper()
	r, err := h.m.Call(codegen.EntryName("d", op), args...)
	if err != nil {
		h.t.Fatalf("%s: %v", op, err)
	}
	return r
}

func (h *harness) len(d interp.Value) int64 {
	h.t.Helper()
	return h.call(codegen.OpLen, d).AsInt()
}

func (h *harness) str(s string) interp.Value { return NewStr(h.m, s) }

func (h *harness) readStr(v interp.Value) string {
	h.t.Helper()
	s, err := ReadStr(h.m, v)
	if err != nil {
		h.t.Fatal(err)
	}
	return s
}

func (h *harness) refcount(ptr uint64) uint64 {
	h.t.Helper()
	rc, err := h.m.Refcount(ptr)
	if err != nil {
		h.t.Fatal(err)
	}
	return rc
}

// intDict builds a dict<i64, i64> from pairs.
func (h *harness) intDict(pairs ...int64) interp.Value {
	d := h.call(codegen.OpEmpty)
	for i := 0; i < len(pairs); i += 2 {
		d = h.call(codegen.OpInsert, d, interp.Int(pairs[i]), interp.Int(pairs[i+1]))
	}
	return d
}

// strDict builds a dict<i64, str> from keys and values.
func (h *harness) strDict(keys []int64, values []string) interp.Value {
	d := h.call(codegen.OpEmpty)
	for i, k := range keys {
		d = h.call(codegen.OpInsert, d, interp.Int(k), h.str(values[i]))
	}
	return d
}

func TestBindsEveryRuntimeFunction(t *testing.T) {
	ext := Externs()
	for _, sig := range rtabi.RuntimeFunctions() {
		if ext[sig.Name] == nil {
			t.Errorf("no implementation of %s", sig.Name)
		}
	}
	if len(ext) != len(rtabi.RuntimeFunctions()) {
		t.Errorf("Externs() has %d entries, want %d", len(ext), len(rtabi.RuntimeFunctions()))
	}
}

func TestEmpty(t *testing.T) {
	h := newHarness(t, "i64", "i64")
	d := h.call(codegen.OpEmpty)

	if n := h.len(d); n != 0 {
		t.Errorf("len(empty) = %d, want 0", n)
	}
	if h.call(codegen.OpContains, d, interp.Int(1)).AsBool() {
		t.Error("empty dict contains 1")
	}
	r := h.call(codegen.OpGet, d, interp.Int(1))
	if r.Field(1).AsBool() || r.Field(0).AsInt() != 0 {
		t.Errorf("get(empty, 1) = %s, want {0, 0}", r)
	}
	keys := h.call(codegen.OpKeys, d)
	if keys.Field(1).Lo != 0 {
		t.Errorf("keys(empty) has length %d", keys.Field(1).Lo)
	}
	if live := h.m.LiveAllocations(); len(live) != 0 {
		t.Errorf("empty dict allocated %d blocks", len(live))
	}
}

func TestInsertGetRoundTrip(t *testing.T) {
	h := newHarness(t, "i64", "i64")
	d := h.call(codegen.OpEmpty)
	const n = 100
	for k := int64(0); k < n; k++ {
		d = h.call(codegen.OpInsert, d, interp.Int(k*7919), interp.Int(k*k))
	}
	if got := h.len(d); got != n {
		t.Fatalf("len = %d, want %d", got, n)
	}
	for k := int64(0); k < n; k++ {
		r := h.call(codegen.OpGet, d, interp.Int(k*7919))
		if !r.Field(1).AsBool() || r.Field(0).AsInt() != k*k {
			t.Errorf("get(%d) = %s, want {%d, 1}", k*7919, r, k*k)
		}
	}
	r := h.call(codegen.OpGet, d, interp.Int(-1))
	if r.Field(1).AsBool() || r.Field(0).AsInt() != 0 {
		t.Errorf("get(absent) = %s, want {0, 0}", r)
	}

	// Overwriting keeps the length and replaces the value.
	d = h.call(codegen.OpInsert, d, interp.Int(7919), interp.Int(-5))
	if got := h.len(d); got != n {
		t.Errorf("len after overwrite = %d, want %d", got, n)
	}
	if r := h.call(codegen.OpGet, d, interp.Int(7919)); r.Field(0).AsInt() != -5 {
		t.Errorf("get after overwrite = %s, want -5", r)
	}
}

func TestRemove(t *testing.T) {
	h := newHarness(t, "i64", "i64")
	d := h.call(codegen.OpEmpty)
	for k := int64(0); k < 50; k++ {
		d = h.call(codegen.OpInsert, d, interp.Int(k), interp.Int(k+1000))
	}
	for k := int64(0); k < 50; k += 2 {
		d = h.call(codegen.OpRemove, d, interp.Int(k))
	}
	if got := h.len(d); got != 25 {
		t.Fatalf("len = %d, want 25", got)
	}
	for k := int64(0); k < 50; k++ {
		has := h.call(codegen.OpContains, d, interp.Int(k)).AsBool()
		if want := k%2 == 1; has != want {
			t.Errorf("contains(%d) = %v, want %v", k, has, want)
		}
		if k%2 == 1 {
			if r := h.call(codegen.OpGet, d, interp.Int(k)); r.Field(0).AsInt() != k+1000 {
				t.Errorf("get(%d) = %s after removals", k, r)
			}
		}
	}

	d = h.call(codegen.OpRemove, d, interp.Int(1000))
	if got := h.len(d); got != 25 {
		t.Errorf("removing an absent key changed len to %d", got)
	}
}

func TestUnionSecondWins(t *testing.T) {
	h := newHarness(t, "i64", "i64")
	a := h.intDict(1, 10)
	b := h.intDict(1, 20)

	u := h.call(codegen.OpUnion, a, b)
	if got := h.len(u); got != 1 {
		t.Errorf("len(union) = %d, want 1", got)
	}
	if r := h.call(codegen.OpGet, u, interp.Int(1)); r.Field(0).AsInt() != 20 {
		t.Errorf("union[1] = %s, want 20", r)
	}
	// Both inputs are borrowed.
	if r := h.call(codegen.OpGet, a, interp.Int(1)); r.Field(0).AsInt() != 10 {
		t.Errorf("a[1] = %s after union, want 10", r)
	}
	if r := h.call(codegen.OpGet, b, interp.Int(1)); r.Field(0).AsInt() != 20 {
		t.Errorf("b[1] = %s after union, want 20", r)
	}
}

func TestUnionContainsBoth(t *testing.T) {
	h := newHarness(t, "i64", "i64")
	a := h.intDict(1, 1, 2, 2, 3, 3)
	b := h.intDict(3, 30, 4, 40)
	u := h.call(codegen.OpUnion, a, b)

	if got, limit := h.len(u), h.len(a)+h.len(b); got > limit || got != 4 {
		t.Errorf("len(union) = %d, want 4 (<= %d)", got, limit)
	}
	for k := int64(1); k <= 4; k++ {
		if !h.call(codegen.OpContains, u, interp.Int(k)).AsBool() {
			t.Errorf("union missing %d", k)
		}
	}
}

func TestSetOperationScenario(t *testing.T) {
	h := newHarness(t, "i64", "str")
	A := func() interp.Value { return h.strDict([]int64{1}, []string{"x"}) }
	B := func() interp.Value { return h.strDict([]int64{1, 2}, []string{"y", "z"}) }

	get := func(d interp.Value, k int64) (string, bool) {
		r := h.call(codegen.OpGet, d, interp.Int(k))
		if !r.Field(1).AsBool() {
			return "", false
		}
		return h.readStr(r.Field(0)), true
	}

	u := h.call(codegen.OpUnion, A(), B())
	if got := h.len(u); got != 2 {
		t.Errorf("len(union(A, B)) = %d, want 2", got)
	}
	if s, ok := get(u, 2); !ok || s != "z" {
		t.Errorf("union(A, B)[2] = %q, %v, want z", s, ok)
	}
	if s, ok := get(u, 1); !ok || s != "y" {
		t.Errorf("union(A, B)[1] = %q, %v, want y", s, ok)
	}

	i := h.call(codegen.OpIntersection, A(), B())
	if got := h.len(i); got != 1 {
		t.Errorf("len(intersection(A, B)) = %d, want 1", got)
	}
	if s, ok := get(i, 1); !ok || s != "x" {
		t.Errorf("intersection(A, B)[1] = %q, %v, want x", s, ok)
	}

	if got := h.len(h.call(codegen.OpDifference, A(), B())); got != 0 {
		t.Errorf("len(difference(A, B)) = %d, want 0", got)
	}

	d := h.call(codegen.OpDifference, B(), A())
	if got := h.len(d); got != 1 {
		t.Errorf("len(difference(B, A)) = %d, want 1", got)
	}
	if s, ok := get(d, 2); !ok || s != "z" {
		t.Errorf("difference(B, A)[2] = %q, %v, want z", s, ok)
	}
}

func TestIntersectionDifferenceExact(t *testing.T) {
	h := newHarness(t, "i64", "i64")
	var pairs1, pairs2 []int64
	for k := int64(0); k < 40; k++ {
		pairs1 = append(pairs1, k, k)
		if k%3 == 0 {
			pairs2 = append(pairs2, k, -k)
		}
	}

	keysOf := func(d interp.Value) []int64 {
		l := h.call(codegen.OpKeys, d)
		var out []int64
		for i := uint64(0); i < l.Field(1).Lo; i++ {
			x, err := h.m.ReadUint(l.Field(0).Lo+8*i, 8)
			if err != nil {
				t.Fatal(err)
			}
			out = append(out, int64(x))
		}
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
		return out
	}

	inter := keysOf(h.call(codegen.OpIntersection, h.intDict(pairs1...), h.intDict(pairs2...)))
	diff := keysOf(h.call(codegen.OpDifference, h.intDict(pairs1...), h.intDict(pairs2...)))
	for _, k := range inter {
		if k%3 != 0 {
			t.Errorf("intersection has %d", k)
		}
	}
	for _, k := range diff {
		if k%3 == 0 {
			t.Errorf("difference has %d", k)
		}
	}
	if len(inter) != 14 || len(diff) != 26 {
		t.Errorf("intersection has %d keys, difference %d; want 14 and 26", len(inter), len(diff))
	}
}

func TestKeysValues(t *testing.T) {
	h := newHarness(t, "i64", "str")
	d := h.strDict([]int64{3, 1, 2}, []string{"c", "a", "b"})

	keys := h.call(codegen.OpKeys, d)
	values := h.call(codegen.OpValues, d)
	if keys.Field(1).Lo != 3 || values.Field(1).Lo != 3 {
		t.Fatalf("keys/values lengths = %d/%d, want 3", keys.Field(1).Lo, values.Field(1).Lo)
	}

	// Keys and values come out in the same slot order.
	got := map[int64]string{}
	for i := uint64(0); i < 3; i++ {
		k, _ := h.m.ReadUint(keys.Field(0).Lo+8*i, 8)
		v, err := h.m.Load(values.Field(0).Lo+16*i, ir.NewStruct(ir.Ptr, ir.I64))
		if err != nil {
			t.Fatal(err)
		}
		got[int64(k)] = h.readStr(v)
		// One reference from the dict, one from the list.
		if rc := h.refcount(v.Field(0).Lo); rc != 2 {
			t.Errorf("value %q has refcount %d, want 2", h.readStr(v), rc)
		}
	}
	want := map[int64]string{1: "a", 2: "b", 3: "c"}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("entry %d = %q, want %q", k, got[k], v)
		}
	}
}

func TestRefcounts(t *testing.T) {
	h := newHarness(t, "str", "str")
	key := h.str("key")
	value := h.str("value")
	d := h.call(codegen.OpInsert, h.call(codegen.OpEmpty), key, value)

	probe := h.str("key")
	r := h.call(codegen.OpGet, d, probe)
	if !r.Field(1).AsBool() || h.readStr(r.Field(0)) != "value" {
		t.Fatalf("get(key) = %s", r)
	}
	if rc := h.refcount(value.Field(0).Lo); rc != 2 {
		t.Errorf("value refcount after get = %d, want 2", rc)
	}

	h.call(codegen.OpIncElements, d)
	if rc := h.refcount(key.Field(0).Lo); rc != 2 {
		t.Errorf("key refcount after inc_elements = %d, want 2", rc)
	}
	h.call(codegen.OpDecElements, d)
	if rc := h.refcount(key.Field(0).Lo); rc != 1 {
		t.Errorf("key refcount after dec_elements = %d, want 1", rc)
	}

	d = h.call(codegen.OpRemove, d, probe)
	if h.m.IsHeap(key.Field(0).Lo) {
		t.Error("removed key was not freed")
	}
	if rc := h.refcount(value.Field(0).Lo); rc != 1 {
		t.Errorf("value refcount after remove = %d, want 1", rc)
	}
	if n := h.len(d); n != 0 {
		t.Errorf("len after remove = %d, want 0", n)
	}
}

func TestOverwriteReleasesOldEntry(t *testing.T) {
	h := newHarness(t, "str", "str")
	k1, v1 := h.str("k"), h.str("old")
	d := h.call(codegen.OpInsert, h.call(codegen.OpEmpty), k1, v1)
	k2, v2 := h.str("k"), h.str("new")
	d = h.call(codegen.OpInsert, d, k2, v2)

	if h.m.IsHeap(k1.Field(0).Lo) || h.m.IsHeap(v1.Field(0).Lo) {
		t.Error("displaced key or value still allocated")
	}
	r := h.call(codegen.OpGet, d, h.str("k"))
	if got := h.readStr(r.Field(0)); got != "new" {
		t.Errorf("get(k) = %q, want new", got)
	}
}

func TestCopyOnWrite(t *testing.T) {
	h := newHarness(t, "i64", "i64")
	d := h.intDict(1, 1, 2, 2)
	storage := d.Field(0).Lo
	// Another owner shares the storage.
	if err := h.m.SetRefcount(storage, 2); err != nil {
		t.Fatal(err)
	}

	d2 := h.call(codegen.OpInsert, d, interp.Int(3), interp.Int(3))
	if d2.Field(0).Lo == storage {
		t.Fatal("insert into shared storage mutated it in place")
	}
	if rc := h.refcount(storage); rc != 1 {
		t.Errorf("shared storage refcount = %d, want 1", rc)
	}
	if got := h.len(d); got != 2 {
		t.Errorf("original len = %d, want 2", got)
	}
	if h.call(codegen.OpContains, d, interp.Int(3)).AsBool() {
		t.Error("original sees the new key")
	}
	if got := h.len(d2); got != 3 {
		t.Errorf("copy len = %d, want 3", got)
	}

	// A unique dict is updated in place.
	d3 := h.call(codegen.OpInsert, d2, interp.Int(4), interp.Int(4))
	if d3.Field(0).Lo != d2.Field(0).Lo {
		t.Error("insert into unique storage copied it")
	}
}

func TestWideAlignment(t *testing.T) {
	tests := []struct {
		key, value string
		k, v       interp.Value
	}{
		{"i128", "i64", interp.Value{Lo: 5, Hi: 9}, interp.Int(50)},
		{"u8", "i128", interp.Int(7), interp.Value{Lo: 1, Hi: 2}},
		{"{u8, i64}", "bool", interp.Agg(interp.Int(1), interp.Int(2)), interp.Bool(true)},
	}
	for _, tt := range tests {
		t.Run(tt.key+"_"+tt.value, func(t *testing.T) {
			h := newHarness(t, tt.key, tt.value)
			d := h.call(codegen.OpInsert, h.call(codegen.OpEmpty), tt.k, tt.v)
			r := h.call(codegen.OpGet, d, tt.k)
			if !r.Field(1).AsBool() || !r.Field(0).Equal(tt.v) {
				t.Errorf("get = %s, want {%s, 1}", r, tt.v)
			}
		})
	}
}

func TestInvalidAlignmentClassTraps(t *testing.T) {
	m := interp.New(ir.NewModule("empty", &ir.TargetData{PtrBytes: 8}))
	out := m.Alloc(24, 8)
	args := []interp.Value{
		interp.Ptr(out), interp.Uint(7), interp.Uint(8), interp.Uint(8),
		interp.Ptr(0), interp.Ptr(0),
	}
	_, err := dictElementsRC(m, args)
	var trap *interp.Trap
	if !errors.As(err, &trap) {
		t.Errorf("err = %v, want a trap", err)
	}
}
