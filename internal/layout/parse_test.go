package layout

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"i64", "i64"},
		{"  str ", "str"},
		{"empty_dict", "empty_dict"},
		{"list<u8>", "list<u8>"},
		{"dict<str,i64>", "dict<str, i64>"},
		{"dict< str , list<i128> >", "dict<str, list<i128>>"},
		{"{}", "{}"},
		{"{ i64, { str, bool } }", "{i64, {str, bool}}"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			l, err := Parse(tt.src)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.src, err)
			}
			if got := l.String(); got != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

func TestParseBuiltinIdentity(t *testing.T) {
	l := MustParse("f64")
	if l != Typ[F64] {
		t.Errorf("Parse(f64) = %p, want Typ[F64] %p", l, Typ[F64])
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src     string
		wantErr string
	}{
		{"", "expected layout"},
		{"i65", `unknown layout "i65"`},
		{"list<i64", `expected '>'`},
		{"dict<i64>", `expected ','`},
		{"{i64 str}", `expected '}'`},
		{"i64 i64", "unexpected"},
		{"<", "expected layout"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := Parse(tt.src)
			if err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", tt.src)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse(%q) error = %q, want substring %q", tt.src, err, tt.wantErr)
			}
		})
	}
}
