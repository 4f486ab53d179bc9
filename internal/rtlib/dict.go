package rtlib

import (
	"github.com/you-not-fish/kagi/internal/interp"
	"github.com/you-not-fish/kagi/internal/rtabi"
)

// rt_dict_len(ptr dict) usize
func dictLen(m *interp.Machine, args []interp.Value) (interp.Value, error) {
	n, err := m.ReadUsize(args[0].Lo + rtabi.DictFieldLen*m.PtrBytes())
	return interp.Uint(n), err
}

// rt_dict_empty(ptr out)
func dictEmpty(m *interp.Machine, args []interp.Value) (interp.Value, error) {
	t := &table{m: m}
	return interp.Value{}, t.store(args[0].Lo)
}

// rt_dict_insert(ptr dict, u8 align, ptr key, usize kw, ptr value,
// usize vw, ptr hash, ptr eq, ptr dec_key, ptr dec_value, ptr out)
func dictInsert(m *interp.Machine, args []interp.Value) (interp.Value, error) {
	dict, keyPtr, valPtr := args[0].Lo, args[2].Lo, args[4].Lo
	hash, eq, decKey, decValue, out := args[6].Lo, args[7].Lo, args[8].Lo, args[9].Lo, args[10].Lo

	s, err := newShape(args[1].Lo, args[3].Lo, args[5].Lo)
	if err != nil {
		return interp.Value{}, err
	}
	t, err := loadTable(m, dict, s, hash, eq)
	if err != nil {
		return interp.Value{}, err
	}
	if err := t.makeUnique(); err != nil {
		return interp.Value{}, err
	}

	i, found, err := t.find(keyPtr)
	if err != nil {
		return interp.Value{}, err
	}
	if found {
		// The new key and value replace the stored ones.
		if _, err := m.CallAddr(decKey, interp.Ptr(t.key(i))); err != nil {
			return interp.Value{}, err
		}
		if _, err := m.CallAddr(decValue, interp.Ptr(t.val(i))); err != nil {
			return interp.Value{}, err
		}
		if err := m.CopyBytes(t.key(i), keyPtr, s.kw); err != nil {
			return interp.Value{}, err
		}
		if err := m.CopyBytes(t.val(i), valPtr, s.vw); err != nil {
			return interp.Value{}, err
		}
	} else if err := t.add(keyPtr, valPtr); err != nil {
		return interp.Value{}, err
	}
	return interp.Value{}, t.store(out)
}

// rt_dict_remove(ptr dict, u8 align, ptr key, usize kw, usize vw,
// ptr hash, ptr eq, ptr dec_key, ptr dec_value, ptr out)
func dictRemove(m *interp.Machine, args []interp.Value) (interp.Value, error) {
	dict, keyPtr := args[0].Lo, args[2].Lo
	hash, eq, decKey, decValue, out := args[5].Lo, args[6].Lo, args[7].Lo, args[8].Lo, args[9].Lo

	s, err := newShape(args[1].Lo, args[3].Lo, args[4].Lo)
	if err != nil {
		return interp.Value{}, err
	}
	t, err := loadTable(m, dict, s, hash, eq)
	if err != nil {
		return interp.Value{}, err
	}
	if err := t.makeUnique(); err != nil {
		return interp.Value{}, err
	}
	i, found, err := t.find(keyPtr)
	if err != nil {
		return interp.Value{}, err
	}
	if found {
		if err := t.removeAt(i, decKey, decValue); err != nil {
			return interp.Value{}, err
		}
	}
	return interp.Value{}, t.store(out)
}

// rt_dict_contains(ptr dict, u8 align, ptr key, usize kw, usize vw,
// ptr hash, ptr eq) i1
func dictContains(m *interp.Machine, args []interp.Value) (interp.Value, error) {
	s, err := newShape(args[1].Lo, args[3].Lo, args[4].Lo)
	if err != nil {
		return interp.Value{}, err
	}
	t, err := loadTable(m, args[0].Lo, s, args[5].Lo, args[6].Lo)
	if err != nil {
		return interp.Value{}, err
	}
	found, err := t.contains(args[2].Lo)
	return interp.Bool(found), err
}

// rt_dict_get(ptr dict, u8 align, ptr key, usize kw, usize vw,
// ptr hash, ptr eq, ptr inc_value) { ptr, i1 }
//
// The returned pointer addresses the stored value, which has been given
// one more reference for the caller. It is null when the key is absent.
func dictGet(m *interp.Machine, args []interp.Value) (interp.Value, error) {
	notFound := interp.Agg(interp.Ptr(0), interp.Bool(false))
	s, err := newShape(args[1].Lo, args[3].Lo, args[4].Lo)
	if err != nil {
		return notFound, err
	}
	t, err := loadTable(m, args[0].Lo, s, args[5].Lo, args[6].Lo)
	if err != nil {
		return notFound, err
	}
	i, found, err := t.find(args[2].Lo)
	if err != nil || !found {
		return notFound, err
	}
	if _, err := m.CallAddr(args[7].Lo, interp.Ptr(t.val(i))); err != nil {
		return notFound, err
	}
	return interp.Agg(interp.Ptr(t.val(i)), interp.Bool(true)), nil
}

// rt_dict_elements_rc(ptr dict, u8 align, usize kw, usize vw,
// ptr rc_key, ptr rc_value)
func dictElementsRC(m *interp.Machine, args []interp.Value) (interp.Value, error) {
	s, err := newShape(args[1].Lo, args[2].Lo, args[3].Lo)
	if err != nil {
		return interp.Value{}, err
	}
	t, err := loadTable(m, args[0].Lo, s, 0, 0)
	if err != nil {
		return interp.Value{}, err
	}
	rcKey, rcValue := args[4].Lo, args[5].Lo
	return interp.Value{}, t.each(func(i uint64) error {
		if _, err := m.CallAddr(rcKey, interp.Ptr(t.key(i))); err != nil {
			return err
		}
		_, err := m.CallAddr(rcValue, interp.Ptr(t.val(i)))
		return err
	})
}

// rt_dict_keys(ptr dict, u8 align, usize kw, usize vw, ptr inc, ptr out)
func dictKeys(m *interp.Machine, args []interp.Value) (interp.Value, error) {
	return interp.Value{}, dictToList(m, args, true)
}

// rt_dict_values(ptr dict, u8 align, usize kw, usize vw, ptr inc, ptr out)
func dictValues(m *interp.Machine, args []interp.Value) (interp.Value, error) {
	return interp.Value{}, dictToList(m, args, false)
}

// dictToList copies the keys (or values) of a dict into a new list,
// giving each copied element one more reference.
func dictToList(m *interp.Machine, args []interp.Value, keys bool) error {
	s, err := newShape(args[1].Lo, args[2].Lo, args[3].Lo)
	if err != nil {
		return err
	}
	t, err := loadTable(m, args[0].Lo, s, 0, 0)
	if err != nil {
		return err
	}
	inc, out := args[4].Lo, args[5].Lo

	width, elem := s.vw, t.val
	if keys {
		width, elem = s.kw, t.key
	}
	var data uint64
	if t.len > 0 {
		data = m.AllocRC(t.len*width, s.align)
	}
	var n uint64
	err = t.each(func(i uint64) error {
		dst := data + n*width
		if err := m.CopyBytes(dst, elem(i), width); err != nil {
			return err
		}
		n++
		_, err := m.CallAddr(inc, interp.Ptr(dst))
		return err
	})
	if err != nil {
		return err
	}
	p := m.PtrBytes()
	if err := m.WriteUsize(out+rtabi.ListFieldData*p, data); err != nil {
		return err
	}
	return m.WriteUsize(out+rtabi.ListFieldLen*p, n)
}

// rt_dict_union(ptr dict1, ptr dict2, u8 align, usize kw, usize vw,
// ptr hash, ptr eq, ptr inc_key, ptr inc_value, ptr out)
//
// Both inputs are borrowed. The result holds every entry of dict2 and the
// entries of dict1 whose keys dict2 lacks.
func dictUnion(m *interp.Machine, args []interp.Value) (interp.Value, error) {
	hash, eq, incKey, incValue, out := args[5].Lo, args[6].Lo, args[7].Lo, args[8].Lo, args[9].Lo
	s, err := newShape(args[2].Lo, args[3].Lo, args[4].Lo)
	if err != nil {
		return interp.Value{}, err
	}
	t1, err := loadTable(m, args[0].Lo, s, hash, eq)
	if err != nil {
		return interp.Value{}, err
	}
	t2, err := loadTable(m, args[1].Lo, s, hash, eq)
	if err != nil {
		return interp.Value{}, err
	}

	result := &table{m: m, s: s, hash: hash, eq: eq}
	copyFrom := func(src *table, skipPresent bool) error {
		return src.each(func(i uint64) error {
			if skipPresent {
				present, err := result.contains(src.key(i))
				if err != nil || present {
					return err
				}
			}
			if err := result.add(src.key(i), src.val(i)); err != nil {
				return err
			}
			if _, err := m.CallAddr(incKey, interp.Ptr(src.key(i))); err != nil {
				return err
			}
			_, err := m.CallAddr(incValue, interp.Ptr(src.val(i)))
			return err
		})
	}
	if err := copyFrom(t2, false); err != nil {
		return interp.Value{}, err
	}
	if err := copyFrom(t1, true); err != nil {
		return interp.Value{}, err
	}
	return interp.Value{}, result.store(out)
}

// rt_dict_intersection(ptr dict1, ptr dict2, u8 align, usize kw,
// usize vw, ptr hash, ptr eq, ptr dec_key, ptr dec_value, ptr out)
func dictIntersection(m *interp.Machine, args []interp.Value) (interp.Value, error) {
	return interp.Value{}, filterBy(m, args, true)
}

// rt_dict_difference(ptr dict1, ptr dict2, u8 align, usize kw,
// usize vw, ptr hash, ptr eq, ptr dec_key, ptr dec_value, ptr out)
func dictDifference(m *interp.Machine, args []interp.Value) (interp.Value, error) {
	return interp.Value{}, filterBy(m, args, false)
}

// filterBy keeps the entries of dict1 whose presence in dict2 equals
// present. dict1 is consumed and dict2 borrowed.
func filterBy(m *interp.Machine, args []interp.Value, present bool) error {
	hash, eq, decKey, decValue, out := args[5].Lo, args[6].Lo, args[7].Lo, args[8].Lo, args[9].Lo
	s, err := newShape(args[2].Lo, args[3].Lo, args[4].Lo)
	if err != nil {
		return err
	}
	t1, err := loadTable(m, args[0].Lo, s, hash, eq)
	if err != nil {
		return err
	}
	t2, err := loadTable(m, args[1].Lo, s, hash, eq)
	if err != nil {
		return err
	}
	if err := t1.makeUnique(); err != nil {
		return err
	}
	err = t1.retain(func(keyPtr uint64) (bool, error) {
		in, err := t2.contains(keyPtr)
		return in == present, err
	}, decKey, decValue)
	if err != nil {
		return err
	}
	return t1.store(out)
}
