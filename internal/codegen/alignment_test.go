package codegen

import (
	"strings"
	"testing"

	"github.com/you-not-fish/kagi/internal/ir"
	"github.com/you-not-fish/kagi/internal/layout"
)

// newTestEnv returns an Env over a fresh 64-bit module with the runtime
// declared and an insertion point in @caller.
func newTestEnv(t *testing.T) (*Env, *ir.Func) {
	t.Helper()
	m := ir.NewModule("test", &ir.TargetData{PtrBytes: 8})
	DeclareRuntime(m, layout.DefaultSizes)
	e := NewEnv(m, layout.DefaultSizes)
	caller := m.NewFunc("caller", &ir.FuncType{Result: ir.Void})
	e.Builder.PositionAtEnd(caller.Entry)
	return e, caller
}

// expectPanic runs fn and fails unless it panics with a message
// containing want.
func expectPanic(t *testing.T, want string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("did not panic, want %q", want)
		}
		if msg, _ := r.(string); !strings.Contains(msg, want) {
			t.Errorf("panic = %v, want substring %q", r, want)
		}
	}()
	fn()
}

func TestClassify(t *testing.T) {
	tests := []struct {
		key, value string
		want       AlignmentClass
	}{
		{"i64", "i64", Align8KeyFirst},
		{"str", "str", Align8KeyFirst},
		{"i64", "str", Align8KeyFirst},
		{"u8", "i64", Align8ValueFirst},
		{"i64", "u8", Align8KeyFirst},
		{"bool", "f64", Align8ValueFirst},
		{"i128", "i64", Align16KeyFirst},
		{"i64", "i128", Align16ValueFirst},
		{"u128", "u128", Align16KeyFirst},
		{"{u8, i128}", "str", Align16KeyFirst},
		{"u8", "{i32, u128}", Align16ValueFirst},
		{"list<i8>", "i32", Align8KeyFirst},
		{"i32", "dict<i64, i64>", Align8ValueFirst},
	}

	for _, tt := range tests {
		t.Run(tt.key+"_"+tt.value, func(t *testing.T) {
			got := Classify(layout.DefaultSizes, layout.MustParse(tt.key), layout.MustParse(tt.value))
			if got != tt.want {
				t.Errorf("Classify(%s, %s) = %v, want %v", tt.key, tt.value, got, tt.want)
			}
		})
	}
}

func TestClassifySwapsWithOperands(t *testing.T) {
	pairs := [][2]string{
		{"i128", "i64"},
		{"i64", "u8"},
		{"{i128}", "str"},
	}
	for _, p := range pairs {
		k, v := layout.MustParse(p[0]), layout.MustParse(p[1])
		a := Classify(layout.DefaultSizes, k, v)
		b := Classify(layout.DefaultSizes, v, k)
		if a.Align() != b.Align() {
			t.Errorf("%s/%s: align %d vs %d", p[0], p[1], a.Align(), b.Align())
		}
		if a.KeyFirst() == b.KeyFirst() {
			t.Errorf("%s/%s: swapping operands did not swap order (%v, %v)", p[0], p[1], a, b)
		}
	}
}

func TestClassifyUnsupported(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"u8", "u8"},
		{"i32", "i16"},
		{"bool", "{u8, u16}"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"_"+tt.value, func(t *testing.T) {
			expectPanic(t, "unsupported alignment", func() {
				Classify(layout.DefaultSizes, layout.MustParse(tt.key), layout.MustParse(tt.value))
			})
		})
	}
}

func TestClassifyPointerWidth4(t *testing.T) {
	sizes := layout.NewSizes(4)
	if got := Classify(sizes, layout.MustParse("i64"), layout.MustParse("str")); got != Align8KeyFirst {
		t.Errorf("Classify(i64, str) = %v, want Align8KeyFirst", got)
	}
	expectPanic(t, "unsupported alignment 4", func() {
		Classify(sizes, layout.MustParse("str"), layout.MustParse("str"))
	})
}

func TestAlignmentClassString(t *testing.T) {
	tests := []struct {
		c    AlignmentClass
		want string
	}{
		{Align16KeyFirst, "Align16KeyFirst"},
		{Align8ValueFirst, "Align8ValueFirst"},
		{AlignmentClass(9), "AlignmentClass(9)"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
	if Align16KeyFirst != 0 || Align16ValueFirst != 1 || Align8KeyFirst != 2 || Align8ValueFirst != 3 {
		t.Error("alignment class values changed")
	}
}
