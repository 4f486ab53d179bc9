package interp

import (
	"fmt"
	"math"

	"github.com/you-not-fish/kagi/internal/ir"
)

// Load reads a value of type t at addr.
func (m *Machine) Load(addr uint64, t ir.Type) (Value, error) {
	switch t := t.(type) {
	case *ir.IntType:
		if t.Bits > 64 {
			lo, err := m.mem.readUint(addr, 8)
			if err != nil {
				return Value{}, err
			}
			hi, err := m.mem.readUint(addr+8, 8)
			if err != nil {
				return Value{}, err
			}
			return Value{Lo: lo, Hi: hi}, nil
		}
		x, err := m.mem.readUint(addr, uint64(t.Bits+7)/8)
		if err != nil {
			return Value{}, err
		}
		return truncate(Uint(x), t), nil
	case *ir.FloatType:
		x, err := m.mem.readUint(addr, uint64(t.Bits/8))
		return Uint(x), err
	case *ir.PtrType:
		x, err := m.mem.readUint(addr, m.mem.ptrBytes)
		return Ptr(x), err
	case *ir.StructType:
		fields := make([]Value, len(t.Fields))
		for i, ft := range t.Fields {
			f, err := m.Load(addr+uint64(m.target.Offsetof(t, i)), ft)
			if err != nil {
				return Value{}, err
			}
			fields[i] = f
		}
		return Value{Fields: fields}, nil
	}
	return Value{}, fmt.Errorf("interp: cannot load %v", t)
}

// Store writes v as a value of type t at addr.
func (m *Machine) Store(addr uint64, t ir.Type, v Value) error {
	switch t := t.(type) {
	case *ir.IntType:
		if t.Bits > 64 {
			if err := m.WriteUint(addr, 8, v.Lo); err != nil {
				return err
			}
			return m.WriteUint(addr+8, 8, v.Hi)
		}
		return m.WriteUint(addr, uint64(t.Bits+7)/8, v.Lo)
	case *ir.FloatType:
		return m.WriteUint(addr, uint64(t.Bits/8), v.Lo)
	case *ir.PtrType:
		return m.WriteUint(addr, m.mem.ptrBytes, v.Lo)
	case *ir.StructType:
		if len(v.Fields) != len(t.Fields) {
			return fmt.Errorf("interp: storing %s as %v", v, t)
		}
		for i, ft := range t.Fields {
			if err := m.Store(addr+uint64(m.target.Offsetof(t, i)), ft, v.Fields[i]); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("interp: cannot store %v", t)
}

// Alloc returns size zeroed bytes aligned to align. The memory is never
// reclaimed.
func (m *Machine) Alloc(size, align uint64) uint64 { return m.mem.alloc(size, align) }

// AllocRC returns a refcounted heap allocation whose count starts at one.
func (m *Machine) AllocRC(size, align uint64) uint64 { return m.mem.allocRC(size, align) }

// Free releases a heap allocation.
func (m *Machine) Free(data uint64) error { return m.mem.free(data) }

// IsHeap reports whether data is a live heap allocation.
func (m *Machine) IsHeap(data uint64) bool {
	_, ok := m.mem.heap[data]
	return ok
}

// Refcount returns the count of the heap allocation at data.
func (m *Machine) Refcount(data uint64) (uint64, error) {
	if !m.IsHeap(data) {
		return 0, trapf("refcount of non-heap address 0x%x", data)
	}
	return m.mem.readUint(data-m.mem.ptrBytes, m.mem.ptrBytes)
}

// SetRefcount overwrites the count of the heap allocation at data.
func (m *Machine) SetRefcount(data, n uint64) error {
	if !m.IsHeap(data) {
		return trapf("refcount of non-heap address 0x%x", data)
	}
	m.mem.writeUint(data-m.mem.ptrBytes, m.mem.ptrBytes, n)
	return nil
}

// LiveAllocations returns the live heap allocations in address order.
func (m *Machine) LiveAllocations() []uint64 { return m.mem.liveAllocations() }

// ReadBytes returns a copy of n bytes at addr.
func (m *Machine) ReadBytes(addr, n uint64) ([]byte, error) { return m.mem.readBytes(addr, n) }

// WriteBytes copies b to addr.
func (m *Machine) WriteBytes(addr uint64, b []byte) error { return m.mem.writeBytes(addr, b) }

// CopyBytes copies n bytes from src to dst.
func (m *Machine) CopyBytes(dst, src, n uint64) error {
	b, err := m.mem.readBytes(src, n)
	if err != nil {
		return err
	}
	return m.mem.writeBytes(dst, b)
}

// ReadUint reads an n-byte little-endian integer, n <= 8.
func (m *Machine) ReadUint(addr, n uint64) (uint64, error) { return m.mem.readUint(addr, n) }

// WriteUint writes the low n bytes of x at addr, n <= 8.
func (m *Machine) WriteUint(addr, n, x uint64) error {
	if err := m.mem.check(addr, n); err != nil {
		return err
	}
	m.mem.writeUint(addr, n, x)
	return nil
}

// ReadUsize reads a pointer-sized integer.
func (m *Machine) ReadUsize(addr uint64) (uint64, error) {
	return m.mem.readUint(addr, m.mem.ptrBytes)
}

// WriteUsize writes a pointer-sized integer.
func (m *Machine) WriteUsize(addr, x uint64) error {
	return m.WriteUint(addr, m.mem.ptrBytes, x)
}

func floatEqual(a, b Value, t ir.Type) bool {
	if ft, ok := t.(*ir.FloatType); ok && ft.Bits == 32 {
		return math.Float32frombits(uint32(a.Lo)) == math.Float32frombits(uint32(b.Lo))
	}
	return math.Float64frombits(a.Lo) == math.Float64frombits(b.Lo)
}
