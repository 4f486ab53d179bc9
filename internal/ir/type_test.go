package ir

import "testing"

func TestTypeString(t *testing.T) {
	named := &StructType{Name: "rt.Dict", Fields: []Type{Ptr, I64, I64}}
	tests := []struct {
		typ  Type
		want string
	}{
		{I1, "i1"},
		{I128, "i128"},
		{F32, "float"},
		{F64, "double"},
		{Ptr, "ptr"},
		{NewStruct(), "{}"},
		{NewStruct(Ptr, I64), "{ ptr, i64 }"},
		{named, "%rt.Dict"},
		{&StructType{Name: "a b"}, `%"a b"`},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
	if got := named.Body(); got != "{ ptr, i64, i64 }" {
		t.Errorf("Body() = %q, want %q", got, "{ ptr, i64, i64 }")
	}
}

func TestIdentical(t *testing.T) {
	a := NewStruct(Ptr, I64)
	b := NewStruct(Ptr, I64)
	named := &StructType{Name: "rt.List", Fields: []Type{Ptr, I64}}

	tests := []struct {
		x, y Type
		want bool
	}{
		{I64, IntN(64), true},
		{I64, I32, false},
		{a, b, true},
		{a, NewStruct(Ptr, I32), false},
		{a, named, false},
		{named, &StructType{Name: "rt.List"}, true},
		{F64, I64, false},
	}

	for _, tt := range tests {
		if got := Identical(tt.x, tt.y); got != tt.want {
			t.Errorf("Identical(%s, %s) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestTargetData(t *testing.T) {
	td64 := &TargetData{PtrBytes: 8}
	td32 := &TargetData{PtrBytes: 4}

	tests := []struct {
		td    *TargetData
		typ   Type
		size  int64
		align int64
	}{
		{td64, I1, 1, 1},
		{td64, I64, 8, 8},
		{td64, I128, 16, 16},
		{td64, F32, 4, 4},
		{td64, Ptr, 8, 8},
		{td64, NewStruct(Ptr, I64, I64), 24, 8},
		{td64, NewStruct(I8, I128), 32, 16},
		{td64, NewStruct(I64, I1), 16, 8},
		{td32, NewStruct(Ptr, I32, I32), 12, 4},
		{td64, NewStruct(), 0, 1},
	}

	for _, tt := range tests {
		if got := tt.td.Sizeof(tt.typ); got != tt.size {
			t.Errorf("Sizeof(%s) ptr=%d = %d, want %d", tt.typ, tt.td.PtrBytes, got, tt.size)
		}
		if got := tt.td.Alignof(tt.typ); got != tt.align {
			t.Errorf("Alignof(%s) ptr=%d = %d, want %d", tt.typ, tt.td.PtrBytes, got, tt.align)
		}
	}

	st := NewStruct(I8, I32, I64)
	for i, want := range []int64{0, 4, 8} {
		if got := td64.Offsetof(st, i); got != want {
			t.Errorf("Offsetof(%s, %d) = %d, want %d", st, i, got, want)
		}
	}
}
