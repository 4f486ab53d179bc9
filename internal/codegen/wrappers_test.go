package codegen

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/you-not-fish/kagi/internal/ir"
	"github.com/you-not-fish/kagi/internal/layout"
)

func TestWrapperNames(t *testing.T) {
	e, _ := newTestEnv(t)
	i64 := layout.MustParse("i64")
	str := layout.MustParse("str")

	tests := []struct {
		name string
		f    *ir.Func
	}{
		{"generic_hash_0", e.HashWrapper(i64)},
		{"generic_hash_1", e.HashWrapper(str)},
		{"generic_eq_0", e.EqWrapper(str)},
		{"generic_eq_1", e.EqWrapper(i64)},
		{"generic_rc_0_inc_1", e.RefcountWrapper(str, Inc(1))},
		{"generic_rc_0_inc_3", e.RefcountWrapper(str, Inc(3))},
		{"generic_rc_0_dec", e.RefcountWrapper(str, Dec)},
		{"generic_rc_1_dec", e.RefcountWrapper(i64, Dec)},
	}
	for _, tt := range tests {
		if tt.f.Name != tt.name {
			t.Errorf("wrapper name = %s, want %s", tt.f.Name, tt.name)
		}
		if !tt.f.AlwaysInline || !tt.f.Internal {
			t.Errorf("@%s: AlwaysInline = %v, Internal = %v, want both true", tt.f.Name, tt.f.AlwaysInline, tt.f.Internal)
		}
		for i, p := range tt.f.Params {
			if want := []string{"arg_1", "arg_2"}[i]; p.Name != want {
				t.Errorf("@%s param %d named %q, want %q", tt.f.Name, i, p.Name, want)
			}
		}
		if err := ir.Verify(tt.f); err != nil {
			t.Errorf("Verify(@%s): %v", tt.f.Name, err)
		}
	}
	if n := e.NumWrappers(); n != len(tests) {
		t.Errorf("NumWrappers() = %d, want %d", n, len(tests))
	}
}

func TestWrapperIdempotent(t *testing.T) {
	e, _ := newTestEnv(t)
	l := layout.MustParse("{i64, str}")

	if a, b := e.HashWrapper(l), e.HashWrapper(layout.MustParse("{i64, str}")); a != b {
		t.Errorf("HashWrapper returned %s then %s", a.Name, b.Name)
	}
	if a, b := e.EqWrapper(l), e.EqWrapper(l); a != b {
		t.Errorf("EqWrapper returned %s then %s", a.Name, b.Name)
	}
	if a, b := e.RefcountWrapper(l, Inc(2)), e.RefcountWrapper(l, Inc(2)); a != b {
		t.Errorf("RefcountWrapper(inc_2) returned %s then %s", a.Name, b.Name)
	}
	if a, b := e.RefcountWrapper(l, Inc(1)), e.RefcountWrapper(l, Dec); a == b {
		t.Errorf("inc and dec share @%s", a.Name)
	}
	if n := e.NumWrappers(); n != 5 {
		t.Errorf("NumWrappers() = %d, want 5", n)
	}
}

func TestWrapperRestoresCursor(t *testing.T) {
	e, caller := newTestEnv(t)
	loc := &ir.DebugLoc{Line: 12, Col: 7, Scope: "caller"}
	e.Builder.SetDebugLoc(loc)
	l := layout.MustParse("str")

	check := func(what string) {
		t.Helper()
		if b := e.Builder.InsertBlock(); b != caller.Entry {
			t.Errorf("%s: insert block = %v, want %v", what, b, caller.Entry)
		}
		if got := e.Builder.DebugLoc(); got != loc {
			t.Errorf("%s: debug loc = %v, want %v", what, got, loc)
		}
	}

	e.HashWrapper(l)
	check("hash miss")
	e.HashWrapper(l)
	check("hash hit")
	e.EqWrapper(l)
	check("eq miss")
	e.RefcountWrapper(l, Dec)
	check("rc miss")
	e.RefcountWrapper(l, Dec)
	check("rc hit")

	// Nested synthesis: a struct wrapper does not disturb the outer cursor.
	e.HashWrapper(layout.MustParse("{str, {i64, str}}"))
	check("struct miss")
}

func TestWrapperDebugScope(t *testing.T) {
	e, _ := newTestEnv(t)
	f := e.HashWrapper(layout.MustParse("i32"))
	for _, b := range f.Blocks {
		for _, v := range b.Values {
			if v.Op == ir.OpArg {
				continue
			}
			if v.Loc == nil || v.Loc.Scope != f.Name {
				t.Errorf("%s in @%s has location %v, want scope %s", v, f.Name, v.Loc, f.Name)
			}
		}
	}
}

func TestWrapperLogging(t *testing.T) {
	e, _ := newTestEnv(t)
	core, logs := observer.New(zapcore.DebugLevel)
	e.Log = zap.New(core)
	l := layout.MustParse("i64")

	e.EqWrapper(l)
	e.EqWrapper(l)
	e.EqWrapper(l)

	if n := logs.FilterMessage("wrapper synthesized").Len(); n != 1 {
		t.Errorf("synthesized logged %d times, want 1", n)
	}
	hits := logs.FilterMessage("wrapper cache hit").All()
	if len(hits) != 2 {
		t.Fatalf("cache hit logged %d times, want 2", len(hits))
	}
	if got := hits[0].ContextMap()["wrapper"]; got != "generic_eq_0" {
		t.Errorf("cache hit wrapper = %v, want generic_eq_0", got)
	}
	if got := hits[0].ContextMap()["layout"]; got != "i64" {
		t.Errorf("cache hit layout = %v, want i64", got)
	}
}

func TestWrapperPanics(t *testing.T) {
	t.Run("no insertion point", func(t *testing.T) {
		e, _ := newTestEnv(t)
		e.Builder.ClearInsertionPoint()
		expectPanic(t, "no insertion point", func() {
			e.HashWrapper(layout.MustParse("i64"))
		})
	})

	t.Run("name collision", func(t *testing.T) {
		e, _ := newTestEnv(t)
		e.Module.DeclareFunc("generic_eq_0", &ir.FuncType{Result: ir.I1, Params: []ir.Type{ir.Ptr, ir.Ptr}})
		expectPanic(t, "collides", func() {
			e.EqWrapper(layout.MustParse("i64"))
		})
	})

	t.Run("unhashable float", func(t *testing.T) {
		e, _ := newTestEnv(t)
		expectPanic(t, "not hashable", func() {
			e.HashWrapper(layout.MustParse("f64"))
		})
	})

	t.Run("incomparable list", func(t *testing.T) {
		e, _ := newTestEnv(t)
		expectPanic(t, "not comparable", func() {
			e.EqWrapper(layout.MustParse("list<i64>"))
		})
	})

	t.Run("zero increment", func(t *testing.T) {
		expectPanic(t, "must be positive", func() { Inc(0) })
	})
}

func TestRefcountWrapperBodies(t *testing.T) {
	e, _ := newTestEnv(t)

	count := func(f *ir.Func, callee string) int {
		n := 0
		for _, b := range f.Blocks {
			for _, v := range b.Values {
				if v.Op == ir.OpCall && v.Callee().Name == callee {
					n++
				}
			}
		}
		return n
	}

	tests := []struct {
		layout string
		mode   RefcountMode
		callee string
		want   int
	}{
		{"i64", Inc(1), "rt_incref", 0},
		{"str", Inc(1), "rt_incref", 1},
		{"str", Dec, "rt_decref", 1},
		{"{str, i64, list<u8>}", Inc(2), "rt_incref", 2},
		{"{str, {str, bool}}", Dec, "rt_decref", 2},
		{"dict<i64, str>", Dec, "rt_decref", 1},
	}
	for _, tt := range tests {
		t.Run(tt.layout+"_"+tt.mode.String(), func(t *testing.T) {
			f := e.RefcountWrapper(layout.MustParse(tt.layout), tt.mode)
			if got := count(f, tt.callee); got != tt.want {
				t.Errorf("@%s calls @%s %d times, want %d", f.Name, tt.callee, got, tt.want)
			}
			if err := ir.Verify(f); err != nil {
				t.Errorf("Verify: %v", err)
			}
		})
	}
}
