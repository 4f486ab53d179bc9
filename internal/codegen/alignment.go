package codegen

import (
	"fmt"

	"github.com/you-not-fish/kagi/internal/layout"
	"github.com/you-not-fish/kagi/internal/rtabi"
)

// AlignmentClass tells the runtime which of key and value is stored first
// in a slot, and whether slots are 8- or 16-byte aligned. Its numeric value
// is the byte passed to runtime entry points.
type AlignmentClass uint8

const (
	Align16KeyFirst   AlignmentClass = rtabi.Align16KeyFirst
	Align16ValueFirst AlignmentClass = rtabi.Align16ValueFirst
	Align8KeyFirst    AlignmentClass = rtabi.Align8KeyFirst
	Align8ValueFirst  AlignmentClass = rtabi.Align8ValueFirst
)

var alignmentClassNames = [...]string{
	Align16KeyFirst:   "Align16KeyFirst",
	Align16ValueFirst: "Align16ValueFirst",
	Align8KeyFirst:    "Align8KeyFirst",
	Align8ValueFirst:  "Align8ValueFirst",
}

func (c AlignmentClass) String() string {
	if int(c) < len(alignmentClassNames) {
		return alignmentClassNames[c]
	}
	return fmt.Sprintf("AlignmentClass(%d)", uint8(c))
}

// KeyFirst reports whether keys precede values in a slot.
func (c AlignmentClass) KeyFirst() bool {
	return c == Align16KeyFirst || c == Align8KeyFirst
}

// Align returns the slot alignment in bytes.
func (c AlignmentClass) Align() int64 {
	if c == Align16KeyFirst || c == Align16ValueFirst {
		return 16
	}
	return 8
}

// Classify picks the alignment class for a dict<key, value>. The more
// aligned operand goes first; ties go to the key. The larger alignment must
// be 8 or 16.
func Classify(sizes *layout.Sizes, key, value layout.Layout) AlignmentClass {
	ka := sizes.Alignof(key)
	va := sizes.Alignof(value)
	keyFirst := ka >= va

	switch max(ka, va) {
	case 16:
		if keyFirst {
			return Align16KeyFirst
		}
		return Align16ValueFirst
	case 8:
		if keyFirst {
			return Align8KeyFirst
		}
		return Align8ValueFirst
	}
	panic(fmt.Sprintf("codegen.Classify: unsupported alignment %d for dict<%s, %s> (key align %d, value align %d)",
		max(ka, va), key, value, ka, va))
}
