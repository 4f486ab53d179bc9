package ir

// ReversePostOrder returns the blocks of f in reverse post-order,
// starting from f.Entry. Unreachable blocks are excluded.
func ReversePostOrder(f *Func) []*Block {
	if f.Entry == nil {
		return nil
	}
	visited := make(map[*Block]bool, len(f.Blocks))
	var order []*Block

	var dfs func(b *Block)
	dfs = func(b *Block) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, s := range b.Succs {
			dfs(s)
		}
		order = append(order, b)
	}
	dfs(f.Entry)

	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// DomTree is the immediate dominator tree of the reachable blocks of a
// function.
type DomTree struct {
	entry *Block
	idom  map[*Block]*Block
}

// ComputeDom builds the dominator tree of f using Cooper, Harvey, and
// Kennedy's "A Simple, Fast Dominance Algorithm".
func ComputeDom(f *Func) *DomTree {
	rpo := ReversePostOrder(f)
	t := &DomTree{idom: make(map[*Block]*Block, len(rpo))}
	if len(rpo) == 0 {
		return t
	}

	rpoNum := make(map[*Block]int, len(rpo))
	for i, b := range rpo {
		rpoNum[b] = i
	}

	intersect := func(b1, b2 *Block) *Block {
		for b1 != b2 {
			for rpoNum[b1] > rpoNum[b2] {
				b1 = t.idom[b1]
			}
			for rpoNum[b2] > rpoNum[b1] {
				b2 = t.idom[b2]
			}
		}
		return b1
	}

	// The entry is its own dominator while iterating.
	t.entry = rpo[0]
	t.idom[t.entry] = t.entry

	for changed := true; changed; {
		changed = false
		for _, b := range rpo[1:] {
			var newIdom *Block
			for _, p := range b.Preds {
				if t.idom[p] == nil {
					continue
				}
				if newIdom == nil {
					newIdom = p
				} else {
					newIdom = intersect(p, newIdom)
				}
			}
			if newIdom != nil && t.idom[b] != newIdom {
				t.idom[b] = newIdom
				changed = true
			}
		}
	}

	t.idom[t.entry] = nil
	return t
}

// Reachable reports whether b is reachable from the entry block.
func (t *DomTree) Reachable(b *Block) bool {
	if b == t.entry {
		return b != nil
	}
	return t.idom[b] != nil
}

// Idom returns the immediate dominator of b, or nil for the entry block
// and unreachable blocks.
func (t *DomTree) Idom(b *Block) *Block {
	return t.idom[b]
}

// Dominates reports whether every path from the entry to b passes
// through a. A block dominates itself.
func (t *DomTree) Dominates(a, b *Block) bool {
	if !t.Reachable(a) || !t.Reachable(b) {
		return false
	}
	for ; b != nil; b = t.idom[b] {
		if a == b {
			return true
		}
	}
	return false
}
