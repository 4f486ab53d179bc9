// Package rtabi defines the ABI constants shared between the compiler and the
// precompiled runtime library. These values must be kept in sync with the
// runtime's dictionary and list definitions.
package rtabi

// Default target configuration, used when no kagi.toml overrides it.
const (
	// DefaultTargetTriple is the LLVM target triple for code generation.
	DefaultTargetTriple = "x86_64-unknown-linux-gnu"

	// DefaultDataLayout is the LLVM data layout string matching the target.
	DefaultDataLayout = "e-m:e-i64:64-i128:128-n8:16:32:64-S128"

	// DefaultPtrBytes is the pointer width of the default target.
	DefaultPtrBytes = 8
)

// Runtime aggregate type names. The runtime bitcode defines these as named
// LLVM struct types; the compiler's own handles are anonymous structs with
// the same shape.
const (
	// TypeDict is the runtime dictionary struct: { ptr, usize, usize }.
	TypeDict = "rt.Dict"

	// TypeList is the runtime list struct: { ptr, usize }.
	TypeList = "rt.List"
)

// Dict field indices (matches the runtime Dict struct).
const (
	DictFieldData = 0 // pointer to slot storage (nil when empty)
	DictFieldLen  = 1 // number of live entries
	DictFieldCap  = 2 // number of slots
	DictNumFields = 3
)

// List field indices (matches the runtime List struct, and the Str layout).
const (
	ListFieldData = 0
	ListFieldLen  = 1
	ListNumFields = 2
)

// Heap allocation header. Every refcounted allocation is preceded by one
// pointer-sized refcount word; data pointers point just past it.
const (
	// RefcountOne is the initial refcount of a fresh allocation.
	RefcountOne = 1
)

// Dict slot control bytes, stored after the slot array. Removal shifts
// displaced entries back instead of leaving tombstones.
const (
	SlotEmpty  = 0
	SlotFilled = 1
)

// InitialSeed is the hash seed the runtime passes to hash wrappers.
const InitialSeed uint64 = 0xc70f6907

// Alignment classes as passed to the runtime (one byte).
const (
	Align16KeyFirst   = 0
	Align16ValueFirst = 1
	Align8KeyFirst    = 2
	Align8ValueFirst  = 3
)
