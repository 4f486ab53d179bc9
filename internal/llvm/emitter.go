package llvm

import (
	"fmt"
	"io"
)

// emitter wraps an io.Writer with helpers for emitting LLVM IR text.
type emitter struct {
	w   io.Writer
	err error // first write error
}

// emit writes a formatted line to the output (no indentation).
func (e *emitter) emit(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format+"\n", args...)
}

// emitLine writes a blank line.
func (e *emitter) emitLine() {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintln(e.w)
}

// emitComment writes a comment line.
func (e *emitter) emitComment(text string) {
	e.emit("; %s", text)
}

// emitLabel writes a basic block label.
func (e *emitter) emitLabel(label string) {
	e.emit("%s:", label)
}

// emitInst writes an indented instruction line, with an optional
// trailing comment.
func (e *emitter) emitInst(comment, format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	if comment != "" {
		_, e.err = fmt.Fprintf(e.w, "  "+format+" ; %s\n", append(args, comment)...)
		return
	}
	_, e.err = fmt.Fprintf(e.w, "  "+format+"\n", args...)
}
