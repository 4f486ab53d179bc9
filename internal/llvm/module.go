// Package llvm writes IR modules as textual LLVM IR.
package llvm

import (
	"io"
	"strings"

	"github.com/you-not-fish/kagi/internal/ir"
)

// Options controls textual output.
type Options struct {
	// DebugComments appends "; scope:line:col" to instructions that carry
	// a debug location.
	DebugComments bool
}

// generator holds the state for writing one module.
type generator struct {
	e    *emitter
	mod  *ir.Module
	opts Options

	// names caches the local name of each parameter of the current function.
	names map[*ir.Value]string
}

// WriteModule writes m to w as LLVM IR text.
func WriteModule(w io.Writer, m *ir.Module, opts Options) error {
	g := &generator{
		e:    &emitter{w: w},
		mod:  m,
		opts: opts,
	}
	g.lowerModule()
	return g.e.err
}

// String returns m as LLVM IR text.
func String(m *ir.Module, opts Options) (string, error) {
	var sb strings.Builder
	err := WriteModule(&sb, m, opts)
	return sb.String(), err
}

func (g *generator) lowerModule() {
	m := g.mod
	g.e.emit("; ModuleID = '%s'", m.Name)
	g.e.emit("source_filename = \"%s\"", m.Name)
	if m.DataLayout != "" {
		g.e.emit("target datalayout = \"%s\"", m.DataLayout)
	}
	if m.Triple != "" {
		g.e.emit("target triple = \"%s\"", m.Triple)
	}

	if len(m.Structs()) > 0 {
		g.e.emitLine()
		for _, st := range m.Structs() {
			g.e.emit("%s = type %s", st, st.Body())
		}
	}

	inline := false
	var decls, defs []*ir.Func
	for _, f := range m.Funcs() {
		if f.IsDeclaration() {
			decls = append(decls, f)
		} else {
			defs = append(defs, f)
		}
		if f.AlwaysInline && !f.IsDeclaration() {
			inline = true
		}
	}

	if len(decls) > 0 {
		g.e.emitLine()
		g.e.emitComment("Runtime declarations")
		for _, f := range decls {
			g.lowerDecl(f)
		}
	}

	for _, f := range defs {
		g.e.emitLine()
		g.lowerFunc(f)
	}

	if inline {
		g.e.emitLine()
		g.e.emit("attributes #0 = { alwaysinline }")
	}
}

// lowerDecl emits a declare line for an external function.
func (g *generator) lowerDecl(f *ir.Func) {
	params := make([]string, len(f.Type.Params))
	for i, p := range f.Type.Params {
		params[i] = llvmType(p)
	}
	g.e.emit("declare %s @%s(%s)", funcResult(f), ir.QuoteIdent(f.Name), strings.Join(params, ", "))
}
