package layout

// Identical reports whether x and y describe the same layout.
// Layouts are structural; pointer identity is not required.
func Identical(x, y Layout) bool {
	if x == y {
		return true
	}
	if x == nil || y == nil {
		return false
	}
	return x.String() == y.String()
}

// IsHeapBacked reports whether values of layout l own a refcounted heap
// allocation directly (strings, lists, and dictionaries).
func IsHeapBacked(l Layout) bool {
	switch l := l.(type) {
	case *Builtin:
		switch l.kind {
		case Str, EmptyList, EmptyDict:
			return true
		}
	case *List, *Dict:
		return true
	}
	return false
}

// ContainsRefcounted reports whether values of layout l hold any refcounted
// pointer, directly or through struct fields.
func ContainsRefcounted(l Layout) bool {
	if IsHeapBacked(l) {
		return true
	}
	if s, ok := l.(*Struct); ok {
		for _, f := range s.fields {
			if ContainsRefcounted(f) {
				return true
			}
		}
	}
	return false
}
