package rtabi

// Runtime function names (must match the runtime library's exported symbols)
const (
	// Dictionary primitives
	FnDictLen          = "rt_dict_len"
	FnDictEmpty        = "rt_dict_empty"
	FnDictInsert       = "rt_dict_insert"
	FnDictRemove       = "rt_dict_remove"
	FnDictContains     = "rt_dict_contains"
	FnDictGet          = "rt_dict_get"
	FnDictElementsRC   = "rt_dict_elements_rc"
	FnDictKeys         = "rt_dict_keys"
	FnDictValues       = "rt_dict_values"
	FnDictUnion        = "rt_dict_union"
	FnDictIntersection = "rt_dict_intersection"
	FnDictDifference   = "rt_dict_difference"

	// Hashing
	FnHashBytes = "rt_hash_bytes"
	FnHashStr   = "rt_hash_str"

	// Equality
	FnStrEqual = "rt_str_equal"

	// Reference counting
	FnIncref = "rt_incref"
	FnDecref = "rt_decref"
)

// ABIType names a parameter or result type in a runtime signature.
// Usize is the pointer-sized integer of the target.
type ABIType string

const (
	Void   ABIType = "void"
	Bool   ABIType = "i1"
	U8     ABIType = "i8"
	U64    ABIType = "i64"
	Usize  ABIType = "usize"
	Ptr    ABIType = "ptr"
	Str    ABIType = "str"    // { ptr, usize } passed by value
	Lookup ABIType = "lookup" // { ptr, i1 } returned by rt_dict_get
)

// FuncSignature describes a runtime function's signature for code generation.
type FuncSignature struct {
	Name   string    // Function name
	Result ABIType   // Result type
	Params []ABIType // Parameter types
}

// RuntimeFunctions returns the signatures of all runtime functions.
func RuntimeFunctions() []FuncSignature {
	return []FuncSignature{
		// Dictionary primitives
		{Name: FnDictLen, Result: Usize, Params: []ABIType{Ptr}},
		{Name: FnDictEmpty, Result: Void, Params: []ABIType{Ptr}},
		{Name: FnDictInsert, Result: Void, Params: []ABIType{
			Ptr, U8, Ptr, Usize, Ptr, Usize, Ptr, Ptr, Ptr, Ptr, Ptr,
		}},
		{Name: FnDictRemove, Result: Void, Params: []ABIType{
			Ptr, U8, Ptr, Usize, Usize, Ptr, Ptr, Ptr, Ptr, Ptr,
		}},
		{Name: FnDictContains, Result: Bool, Params: []ABIType{
			Ptr, U8, Ptr, Usize, Usize, Ptr, Ptr,
		}},
		{Name: FnDictGet, Result: Lookup, Params: []ABIType{
			Ptr, U8, Ptr, Usize, Usize, Ptr, Ptr, Ptr,
		}},
		{Name: FnDictElementsRC, Result: Void, Params: []ABIType{
			Ptr, U8, Usize, Usize, Ptr, Ptr,
		}},
		{Name: FnDictKeys, Result: Void, Params: []ABIType{
			Ptr, U8, Usize, Usize, Ptr, Ptr,
		}},
		{Name: FnDictValues, Result: Void, Params: []ABIType{
			Ptr, U8, Usize, Usize, Ptr, Ptr,
		}},
		{Name: FnDictUnion, Result: Void, Params: []ABIType{
			Ptr, Ptr, U8, Usize, Usize, Ptr, Ptr, Ptr, Ptr, Ptr,
		}},
		{Name: FnDictIntersection, Result: Void, Params: []ABIType{
			Ptr, Ptr, U8, Usize, Usize, Ptr, Ptr, Ptr, Ptr, Ptr,
		}},
		{Name: FnDictDifference, Result: Void, Params: []ABIType{
			Ptr, Ptr, U8, Usize, Usize, Ptr, Ptr, Ptr, Ptr, Ptr,
		}},

		// Hashing
		{Name: FnHashBytes, Result: U64, Params: []ABIType{U64, Ptr, Usize}},
		{Name: FnHashStr, Result: U64, Params: []ABIType{U64, Str}},

		// Equality
		{Name: FnStrEqual, Result: Bool, Params: []ABIType{Str, Str}},

		// Reference counting
		{Name: FnIncref, Result: Void, Params: []ABIType{Ptr, Usize}},
		{Name: FnDecref, Result: Void, Params: []ABIType{Ptr}},
	}
}
