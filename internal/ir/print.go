package ir

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Fprint writes the debug representation of a function to w.
//
// Format:
//
//	func generic_hash_0(i64, ptr) i64 [alwaysinline internal]:
//	  b0: (entry)
//	    v0 = Arg <i64> {arg_1}
//	    v2 = Load <i64> v1
//	    Return v3
func Fprint(w io.Writer, f *Func) {
	params := make([]string, len(f.Type.Params))
	for i, p := range f.Type.Params {
		params[i] = p.String()
	}
	fmt.Fprintf(w, "func %s(%s) %s", f.Name, strings.Join(params, ", "), f.Type.Result)

	var attrs []string
	if f.AlwaysInline {
		attrs = append(attrs, "alwaysinline")
	}
	if f.Internal {
		attrs = append(attrs, "internal")
	}
	if len(attrs) > 0 {
		fmt.Fprintf(w, " [%s]", strings.Join(attrs, " "))
	}
	if f.IsDeclaration() {
		fmt.Fprintf(w, " (declared)\n")
		return
	}
	fmt.Fprintf(w, ":\n")

	for _, b := range f.Blocks {
		fprintBlock(w, b, f)
	}
}

// fprintBlock writes a single block to w.
func fprintBlock(w io.Writer, b *Block, f *Func) {
	label := ""
	if b == f.Entry {
		label = " (entry)"
	} else if b.Name != "" {
		label = " (" + b.Name + ")"
	}

	predsStr := ""
	if len(b.Preds) > 0 {
		preds := make([]string, len(b.Preds))
		for i, p := range b.Preds {
			preds[i] = p.String()
		}
		predsStr = " <- " + strings.Join(preds, " ")
	}

	fmt.Fprintf(w, "  %s:%s%s\n", b, label, predsStr)

	for _, v := range b.Values {
		fmt.Fprintf(w, "    %s\n", formatValue(v))
	}

	fmt.Fprintf(w, "    %s\n", formatTerminator(b))
}

// formatValue formats a value as a string.
func formatValue(v *Value) string {
	var sb strings.Builder

	if v.Op.IsVoid() || (v.Op == OpCall && v.Type == nil) {
		sb.WriteString(v.Op.String())
	} else {
		fmt.Fprintf(&sb, "v%d = %s", v.ID, v.Op)
	}

	if v.Type != nil {
		fmt.Fprintf(&sb, " <%s>", v.Type)
	}

	switch v.Op {
	case OpConstInt, OpExtractValue, OpInsertValue:
		fmt.Fprintf(&sb, " [%d]", v.AuxInt)
	}

	if v.Aux != nil {
		fmt.Fprintf(&sb, " {%s}", formatAux(v.Aux))
	} else if v.Name != "" {
		fmt.Fprintf(&sb, " {%s}", v.Name)
	}

	for _, arg := range v.Args {
		fmt.Fprintf(&sb, " v%d", arg.ID)
	}

	return sb.String()
}

// formatTerminator formats a block terminator.
func formatTerminator(b *Block) string {
	switch b.Kind {
	case BlockPlain:
		return fmt.Sprintf("Plain -> %s", b.Succs[0])
	case BlockIf:
		if len(b.Controls) > 0 && len(b.Succs) >= 2 {
			return fmt.Sprintf("If v%d -> %s %s", b.Controls[0].ID, b.Succs[0], b.Succs[1])
		}
		return "If (malformed)"
	case BlockReturn:
		if len(b.Controls) > 0 && b.Controls[0] != nil {
			return fmt.Sprintf("Return v%d", b.Controls[0].ID)
		}
		return "Return"
	case BlockUnreachable:
		return "Unreachable"
	default:
		return "???"
	}
}

// formatAux formats an Aux value for display.
func formatAux(aux interface{}) string {
	switch a := aux.(type) {
	case *Func:
		return "@" + a.Name
	case Type:
		return a.String()
	default:
		return fmt.Sprintf("%v", aux)
	}
}

// Sprint returns the debug representation of a function as a string.
func Sprint(f *Func) string {
	var sb strings.Builder
	Fprint(&sb, f)
	return sb.String()
}

// FprintModule writes every function of m to w, separated by blank lines.
func FprintModule(w io.Writer, m *Module) {
	for _, st := range m.Structs() {
		fmt.Fprintf(w, "type %s = %s\n", st, st.Body())
	}
	for i, f := range m.Funcs() {
		if i > 0 || len(m.Structs()) > 0 {
			fmt.Fprintln(w)
		}
		Fprint(w, f)
	}
}

// Print writes the debug representation of a function to stdout.
func Print(f *Func) {
	Fprint(os.Stdout, f)
}
