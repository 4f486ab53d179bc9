package layout

import "fmt"

// ID numbers a layout within the scope of one symbol. Structurally equal
// layouts get the same ID for the same symbol.
type ID int

// SymbolString returns the symbol-qualified name for the ID, e.g. "generic_hash_3".
func (id ID) SymbolString(symbol string) string {
	return fmt.Sprintf("%s_%d", symbol, id)
}

// IDs assigns IDs to layouts per symbol. The zero value is not ready for
// use; call NewIDs.
type IDs struct {
	bySymbol map[string]map[string]ID
}

// NewIDs returns an empty ID table.
func NewIDs() *IDs {
	return &IDs{bySymbol: make(map[string]map[string]ID)}
}

// Get returns the ID of l under symbol, assigning the next free one on
// first use.
func (ids *IDs) Get(symbol string, l Layout) ID {
	m := ids.bySymbol[symbol]
	if m == nil {
		m = make(map[string]ID)
		ids.bySymbol[symbol] = m
	}
	key := l.String()
	if id, ok := m[key]; ok {
		return id
	}
	id := ID(len(m))
	m[key] = id
	return id
}

// Len returns the number of layouts numbered under symbol.
func (ids *IDs) Len(symbol string) int {
	return len(ids.bySymbol[symbol])
}
