package merkle

import (
	"fmt"

	"github.com/colorfulnotion/treeprogram/common"
	"github.com/colorfulnotion/treeprogram/treeerrors"
)

// Proof is the membership path of one leaf: the sibling digest at every
// level from the leaf layer up to, but excluding, the root. A node without a
// right neighbour is its own sibling.
type Proof struct {
	Index     int           `json:"index"`
	LeafCount int           `json:"leaf_count"`
	Siblings  []common.Hash `json:"siblings"`
}

// Proof returns the membership path for the leaf at index.
func (t *Tree) Proof(index int) (*Proof, error) {
	if index < 0 || index >= len(t.leaves) {
		return nil, fmt.Errorf("proof %d of %d: %w", index, len(t.leaves), treeerrors.ErrIndexOutOfRange)
	}
	p := &Proof{Index: index, LeafCount: len(t.leaves), Siblings: make([]common.Hash, 0, t.Depth())}
	idx := index
	for _, level := range t.levels[:len(t.levels)-1] {
		sib := idx ^ 1
		if sib >= len(level) {
			sib = idx
		}
		p.Siblings = append(p.Siblings, level[sib])
		idx /= 2
	}
	return p, nil
}

// depthFor returns the number of hashing levels of a tree with n leaves.
func depthFor(n int) int {
	d := 0
	for ; n > 1; n = (n + 1) / 2 {
		d++
	}
	return d
}

// VerifyProof reports whether leaf sits at p.Index of a tree with root.
func VerifyProof(h Hasher, root common.Hash, leaf []byte, p *Proof) bool {
	if p == nil || p.Index < 0 || p.Index >= p.LeafCount {
		return false
	}
	if len(p.Siblings) != depthFor(p.LeafCount) {
		return false
	}
	cur := h.HashLeaf(leaf)
	idx := p.Index
	for _, sib := range p.Siblings {
		if idx%2 == 0 {
			cur = h.HashNode(cur, sib)
		} else {
			cur = h.HashNode(sib, cur)
		}
		idx /= 2
	}
	return cur == root
}
