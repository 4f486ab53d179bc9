package interp

import (
	"encoding/binary"
	"sort"
)

// Addresses below memBase are never handed out, so null and small
// integers mistaken for pointers trap.
const memBase = 64

// Function addresses live far above data memory.
const (
	funcBase   = 1 << 48
	funcStride = 16
)

// memory is a flat little-endian byte array with a bump allocator.
// Heap allocations carry a refcount word directly before their data.
type memory struct {
	ptrBytes uint64
	bytes    []byte
	brk      uint64
	heap     map[uint64]uint64 // live data pointer -> size
	freed    map[uint64]bool
}

func newMemory(ptrBytes uint64) *memory {
	return &memory{
		ptrBytes: ptrBytes,
		bytes:    make([]byte, memBase, 4096),
		brk:      memBase,
		heap:     make(map[uint64]uint64),
		freed:    make(map[uint64]bool),
	}
}

func alignUp(x, a uint64) uint64 {
	if a <= 1 {
		return x
	}
	return (x + a - 1) &^ (a - 1)
}

// alloc returns size zeroed bytes aligned to align.
func (m *memory) alloc(size, align uint64) uint64 {
	addr := alignUp(m.brk, align)
	end := addr + size
	if end > uint64(len(m.bytes)) {
		grow := make([]byte, end-uint64(len(m.bytes)))
		m.bytes = append(m.bytes, grow...)
	}
	m.brk = end
	if size == 0 {
		// Distinct addresses for empty allocations.
		m.brk++
	}
	return addr
}

// allocRC returns a heap allocation with refcount one.
func (m *memory) allocRC(size, align uint64) uint64 {
	if align < m.ptrBytes {
		align = m.ptrBytes
	}
	header := alignUp(m.ptrBytes, align)
	raw := m.alloc(header+size, align)
	data := raw + header
	m.writeUint(data-m.ptrBytes, m.ptrBytes, 1)
	m.heap[data] = size
	return data
}

func (m *memory) free(data uint64) error {
	if _, ok := m.heap[data]; !ok {
		if m.freed[data] {
			return trapf("double free of 0x%x", data)
		}
		return trapf("free of non-heap address 0x%x", data)
	}
	delete(m.heap, data)
	m.freed[data] = true
	return nil
}

func (m *memory) check(addr, n uint64) error {
	if addr < memBase {
		return trapf("access to null page at 0x%x", addr)
	}
	if addr+n > uint64(len(m.bytes)) || addr+n < addr {
		return trapf("access to 0x%x+%d out of bounds", addr, n)
	}
	return nil
}

func (m *memory) readBytes(addr, n uint64) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	if err := m.check(addr, n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, m.bytes[addr:addr+n])
	return out, nil
}

func (m *memory) writeBytes(addr uint64, b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if err := m.check(addr, uint64(len(b))); err != nil {
		return err
	}
	copy(m.bytes[addr:], b)
	return nil
}

// readUint reads an n-byte little-endian integer, n <= 8.
func (m *memory) readUint(addr, n uint64) (uint64, error) {
	if err := m.check(addr, n); err != nil {
		return 0, err
	}
	var buf [8]byte
	copy(buf[:], m.bytes[addr:addr+n])
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// writeUint writes the low n bytes of x, n <= 8. Callers check bounds.
func (m *memory) writeUint(addr, n, x uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], x)
	copy(m.bytes[addr:addr+n], buf[:n])
}

// liveAllocations returns the live heap data pointers in address order.
func (m *memory) liveAllocations() []uint64 {
	out := make([]uint64, 0, len(m.heap))
	for p := range m.heap {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
