package rtlib

import (
	"bytes"

	"github.com/zeebo/xxh3"

	"github.com/you-not-fish/kagi/internal/interp"
)

// NewStr copies s into a fresh heap allocation and returns the string
// handle { ptr, usize }. The empty string has a null pointer.
func NewStr(m *interp.Machine, s string) interp.Value {
	if s == "" {
		return interp.Agg(interp.Ptr(0), interp.Uint(0))
	}
	data := m.AllocRC(uint64(len(s)), 1)
	// A fresh allocation is always in bounds.
	_ = m.WriteBytes(data, []byte(s))
	return interp.Agg(interp.Ptr(data), interp.Uint(uint64(len(s))))
}

// ReadStr returns the contents of the string handle v.
func ReadStr(m *interp.Machine, v interp.Value) (string, error) {
	b, err := strBytes(m, v)
	return string(b), err
}

func strBytes(m *interp.Machine, v interp.Value) ([]byte, error) {
	if len(v.Fields) != 2 {
		return nil, &interp.Trap{Msg: "string handle is not { ptr, usize }"}
	}
	n := v.Fields[1].Lo
	if n == 0 {
		return nil, nil
	}
	return m.ReadBytes(v.Fields[0].Lo, n)
}

func hashBytes(m *interp.Machine, args []interp.Value) (interp.Value, error) {
	seed, ptr, n := args[0].Lo, args[1].Lo, args[2].Lo
	b, err := m.ReadBytes(ptr, n)
	if err != nil {
		return interp.Value{}, err
	}
	return interp.Uint(xxh3.HashSeed(b, seed)), nil
}

func hashStr(m *interp.Machine, args []interp.Value) (interp.Value, error) {
	b, err := strBytes(m, args[1])
	if err != nil {
		return interp.Value{}, err
	}
	return interp.Uint(xxh3.HashSeed(b, args[0].Lo)), nil
}

func strEqual(m *interp.Machine, args []interp.Value) (interp.Value, error) {
	a, err := strBytes(m, args[0])
	if err != nil {
		return interp.Value{}, err
	}
	b, err := strBytes(m, args[1])
	if err != nil {
		return interp.Value{}, err
	}
	return interp.Bool(bytes.Equal(a, b)), nil
}
