package rtlib

import (
	"go.uber.org/zap"

	"github.com/you-not-fish/kagi/internal/interp"
	"github.com/you-not-fish/kagi/internal/rtabi"
)

const minCapacity = 8

// shape is the slot geometry of one dict<key, value> instantiation.
type shape struct {
	align  uint64
	kw, vw uint64
	keyOff uint64
	valOff uint64
	stride uint64
}

func newShape(class, kw, vw uint64) (shape, error) {
	s := shape{kw: kw, vw: vw}
	keyFirst := true
	switch class {
	case rtabi.Align16KeyFirst:
		s.align = 16
	case rtabi.Align16ValueFirst:
		s.align, keyFirst = 16, false
	case rtabi.Align8KeyFirst:
		s.align = 8
	case rtabi.Align8ValueFirst:
		s.align, keyFirst = 8, false
	default:
		return shape{}, &interp.Trap{Msg: "invalid alignment class"}
	}
	if keyFirst {
		s.valOff = alignUp(kw, s.align)
		s.stride = s.valOff + alignUp(vw, s.align)
	} else {
		s.keyOff = alignUp(vw, s.align)
		s.stride = s.keyOff + alignUp(kw, s.align)
	}
	return s, nil
}

func alignUp(x, a uint64) uint64 {
	return (x + a - 1) &^ (a - 1)
}

// table is a view of one dict's open-addressing storage. Storage is a
// single refcounted allocation: cap slots followed by cap control bytes.
// Probing is linear from hash & (cap-1); cap is a power of two.
type table struct {
	m    *interp.Machine
	s    shape
	hash uint64 // (i64 seed, ptr key) -> i64
	eq   uint64 // (ptr, ptr) -> i1
	data uint64
	len  uint64
	cap  uint64
}

// loadTable reads the dict handle at ptr.
func loadTable(m *interp.Machine, ptr uint64, s shape, hash, eq uint64) (*table, error) {
	p := m.PtrBytes()
	data, err := m.ReadUsize(ptr + rtabi.DictFieldData*p)
	if err != nil {
		return nil, err
	}
	n, err := m.ReadUsize(ptr + rtabi.DictFieldLen*p)
	if err != nil {
		return nil, err
	}
	c, err := m.ReadUsize(ptr + rtabi.DictFieldCap*p)
	if err != nil {
		return nil, err
	}
	return &table{m: m, s: s, hash: hash, eq: eq, data: data, len: n, cap: c}, nil
}

// store writes the handle to out.
func (t *table) store(out uint64) error {
	p := t.m.PtrBytes()
	if err := t.m.WriteUsize(out+rtabi.DictFieldData*p, t.data); err != nil {
		return err
	}
	if err := t.m.WriteUsize(out+rtabi.DictFieldLen*p, t.len); err != nil {
		return err
	}
	return t.m.WriteUsize(out+rtabi.DictFieldCap*p, t.cap)
}

func (t *table) slot(i uint64) uint64 { return t.data + i*t.s.stride }
func (t *table) key(i uint64) uint64  { return t.slot(i) + t.s.keyOff }
func (t *table) val(i uint64) uint64  { return t.slot(i) + t.s.valOff }
func (t *table) ctrl(i uint64) uint64 { return t.data + t.cap*t.s.stride + i }

func (t *table) storageSize(c uint64) uint64 { return c*t.s.stride + c }

func (t *table) filled(i uint64) (bool, error) {
	c, err := t.m.ReadUint(t.ctrl(i), 1)
	return c == rtabi.SlotFilled, err
}

func (t *table) setCtrl(i, c uint64) error {
	return t.m.WriteUint(t.ctrl(i), 1, c)
}

func (t *table) hashKey(keyPtr uint64) (uint64, error) {
	r, err := t.m.CallAddr(t.hash, interp.Uint(rtabi.InitialSeed), interp.Ptr(keyPtr))
	return r.Lo, err
}

func (t *table) keysEqual(a, b uint64) (bool, error) {
	r, err := t.m.CallAddr(t.eq, interp.Ptr(a), interp.Ptr(b))
	return r.AsBool(), err
}

// find returns the slot holding key, or the empty slot where key would
// go. The table must have at least one empty slot.
func (t *table) find(keyPtr uint64) (idx uint64, found bool, err error) {
	if t.cap == 0 {
		return 0, false, nil
	}
	h, err := t.hashKey(keyPtr)
	if err != nil {
		return 0, false, err
	}
	mask := t.cap - 1
	i := h & mask
	for n := uint64(0); n < t.cap; n++ {
		full, err := t.filled(i)
		if err != nil {
			return 0, false, err
		}
		if !full {
			return i, false, nil
		}
		eq, err := t.keysEqual(t.key(i), keyPtr)
		if err != nil {
			return 0, false, err
		}
		if eq {
			return i, true, nil
		}
		i = (i + 1) & mask
	}
	return 0, false, &interp.Trap{Msg: "dict has no empty slot"}
}

func (t *table) contains(keyPtr uint64) (bool, error) {
	_, found, err := t.find(keyPtr)
	return found, err
}

// makeUnique gives t storage no other dict shares. A shared storage is
// copied and the copy takes over this handle's reference.
func (t *table) makeUnique() error {
	if t.data == 0 {
		return nil
	}
	rc, err := t.m.Refcount(t.data)
	if err != nil {
		return err
	}
	if rc == rtabi.RefcountOne {
		return nil
	}
	size := t.storageSize(t.cap)
	fresh := t.m.AllocRC(size, t.s.align)
	if err := t.m.CopyBytes(fresh, t.data, size); err != nil {
		return err
	}
	if err := t.m.SetRefcount(t.data, rc-1); err != nil {
		return err
	}
	t.data = fresh
	return nil
}

// reserve grows t so that one more entry keeps the load at most 7/8.
func (t *table) reserve() error {
	if (t.len+1)*8 <= t.cap*7 {
		return nil
	}
	newCap := t.cap * 2
	if newCap < minCapacity {
		newCap = minCapacity
	}
	return t.rehash(newCap)
}

func (t *table) rehash(newCap uint64) error {
	old := *t
	t.cap = newCap
	t.data = t.m.AllocRC(t.storageSize(newCap), t.s.align)
	t.m.Log.Debug("dict rehash",
		zap.Uint64("from", old.cap),
		zap.Uint64("to", newCap),
		zap.Uint64("len", t.len))

	for i := uint64(0); i < old.cap; i++ {
		full, err := old.filled(i)
		if err != nil {
			return err
		}
		if !full {
			continue
		}
		j, _, err := t.find(old.key(i))
		if err != nil {
			return err
		}
		if err := t.m.CopyBytes(t.slot(j), old.slot(i), t.s.stride); err != nil {
			return err
		}
		if err := t.setCtrl(j, rtabi.SlotFilled); err != nil {
			return err
		}
	}
	if old.data != 0 {
		return release(t.m, old.data)
	}
	return nil
}

// put stores the key and value bytes into empty slot i.
func (t *table) put(i, keyPtr, valPtr uint64) error {
	if err := t.m.CopyBytes(t.key(i), keyPtr, t.s.kw); err != nil {
		return err
	}
	if err := t.m.CopyBytes(t.val(i), valPtr, t.s.vw); err != nil {
		return err
	}
	t.len++
	return t.setCtrl(i, rtabi.SlotFilled)
}

// add inserts an entry known to be absent.
func (t *table) add(keyPtr, valPtr uint64) error {
	if err := t.reserve(); err != nil {
		return err
	}
	i, _, err := t.find(keyPtr)
	if err != nil {
		return err
	}
	return t.put(i, keyPtr, valPtr)
}

// removeAt releases the entry in slot i through decKey and decValue and
// shifts later entries of its probe run back into the hole.
func (t *table) removeAt(i, decKey, decValue uint64) error {
	if _, err := t.m.CallAddr(decKey, interp.Ptr(t.key(i))); err != nil {
		return err
	}
	if _, err := t.m.CallAddr(decValue, interp.Ptr(t.val(i))); err != nil {
		return err
	}
	t.len--

	mask := t.cap - 1
	hole := i
	for j := (i + 1) & mask; ; j = (j + 1) & mask {
		full, err := t.filled(j)
		if err != nil {
			return err
		}
		if !full {
			break
		}
		h, err := t.hashKey(t.key(j))
		if err != nil {
			return err
		}
		home := h & mask
		// The entry at j stays when its home lies cyclically in (hole, j].
		if hole <= j {
			if hole < home && home <= j {
				continue
			}
		} else if hole < home || home <= j {
			continue
		}
		if err := t.m.CopyBytes(t.slot(hole), t.slot(j), t.s.stride); err != nil {
			return err
		}
		hole = j
	}
	if err := t.m.WriteBytes(t.slot(hole), make([]byte, t.s.stride)); err != nil {
		return err
	}
	return t.setCtrl(hole, rtabi.SlotEmpty)
}

// each calls fn with every filled slot index.
func (t *table) each(fn func(i uint64) error) error {
	for i := uint64(0); i < t.cap; i++ {
		full, err := t.filled(i)
		if err != nil {
			return err
		}
		if full {
			if err := fn(i); err != nil {
				return err
			}
		}
	}
	return nil
}

// retain removes every entry for which keep returns false.
func (t *table) retain(keep func(keyPtr uint64) (bool, error), decKey, decValue uint64) error {
	for i := uint64(0); i < t.cap; {
		full, err := t.filled(i)
		if err != nil {
			return err
		}
		if full {
			ok, err := keep(t.key(i))
			if err != nil {
				return err
			}
			if !ok {
				// Slot i may now hold a shifted entry; look at it again.
				if err := t.removeAt(i, decKey, decValue); err != nil {
					return err
				}
				continue
			}
		}
		i++
	}
	return nil
}
