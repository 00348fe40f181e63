package merkle

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/colorfulnotion/treeprogram/common"
	"github.com/colorfulnotion/treeprogram/log"
	"github.com/colorfulnotion/treeprogram/treeerrors"
)

// Tree is an append-only binary Merkle tree over an ordered list of leaves.
//
// levels[0] holds the leaf digests in insertion order and every following
// level holds the parents of the level below; when a level has an odd number
// of digests the last one is paired with itself. The last level has exactly
// one digest, the root. levels is derived from leaves and never stored.
type Tree struct {
	hasher Hasher
	leaves [][]byte
	levels [][]common.Hash
}

// Option configures a Tree.
type Option func(*Tree)

// WithHasher selects the hash function. The default is BLAKE2b-256.
func WithHasher(h Hasher) Option {
	return func(t *Tree) {
		if h != nil {
			t.hasher = h
		}
	}
}

func newTree(opts []Option) *Tree {
	t := &Tree{hasher: NewBlake2bHasher()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Empty returns a tree with no leaves. Its root is absent.
func Empty(opts ...Option) *Tree {
	return newTree(opts)
}

// Build constructs a tree from a non-empty batch of leaves.
func Build(leaves [][]byte, opts ...Option) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, fmt.Errorf("build: %w", treeerrors.ErrEmptyLeaves)
	}
	t := newTree(opts)
	t.leaves = cloneLeaves(leaves)
	digests := make([]common.Hash, len(leaves))
	for i, leaf := range t.leaves {
		digests[i] = t.hasher.HashLeaf(leaf)
	}
	t.levels = buildLevels(t.hasher, nil, digests, 0)
	log.Trace(log.TreeMonitoring, "Build", "leaves", len(leaves), "depth", t.Depth())
	return t, nil
}

// Append returns a new tree holding the receiver's leaves followed by leaves.
// The receiver is left unchanged. The resulting root is identical to
// Build over the concatenated sequence.
//
// Positions whose subtree contains no new leaf and no duplicated edge node
// are copied from the receiver; only the right edge of every level is rehashed.
func (t *Tree) Append(leaves ...[]byte) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, fmt.Errorf("append: %w", treeerrors.ErrEmptyLeaves)
	}
	if len(t.leaves) == 0 {
		return Build(leaves, WithHasher(t.hasher))
	}
	old := len(t.leaves)
	next := &Tree{hasher: t.hasher}
	next.leaves = make([][]byte, 0, old+len(leaves))
	next.leaves = append(next.leaves, t.leaves...)
	next.leaves = append(next.leaves, cloneLeaves(leaves)...)

	digests := make([]common.Hash, old, old+len(leaves))
	copy(digests, t.levels[0])
	for _, leaf := range next.leaves[old:] {
		digests = append(digests, t.hasher.HashLeaf(leaf))
	}
	next.levels = buildLevels(t.hasher, t.levels, digests, old)
	log.Trace(log.TreeMonitoring, "Append", "old", old, "added", len(leaves), "depth", next.Depth())
	return next, nil
}

// buildLevels hashes upward from the leaf digests. Entries of prev left of
// the first changed position are reused: a parent at index i of level k+1 is
// unchanged when both its children sit left of the first changed child.
func buildLevels(h Hasher, prev [][]common.Hash, digests []common.Hash, from int) [][]common.Hash {
	levels := [][]common.Hash{digests}
	cur := digests
	for depth := 0; len(cur) > 1; depth++ {
		from /= 2
		parents := make([]common.Hash, (len(cur)+1)/2)
		if depth+1 < len(prev) {
			from = min(from, len(prev[depth+1]))
			copy(parents, prev[depth+1][:from])
		} else {
			from = 0
		}
		for i := from; i < len(parents); i++ {
			left := cur[2*i]
			right := left
			if 2*i+1 < len(cur) {
				right = cur[2*i+1]
			}
			parents[i] = h.HashNode(left, right)
		}
		levels = append(levels, parents)
		cur = parents
	}
	return levels
}

// Root returns the root digest. ok is false iff the tree has no leaves.
func (t *Tree) Root() (root common.Hash, ok bool) {
	if len(t.levels) == 0 {
		return common.Hash{}, false
	}
	return t.levels[len(t.levels)-1][0], true
}

// LeafCount returns the number of leaves.
func (t *Tree) LeafCount() int {
	return len(t.leaves)
}

// Depth returns the number of hashing levels above the leaves.
func (t *Tree) Depth() int {
	if len(t.levels) == 0 {
		return 0
	}
	return len(t.levels) - 1
}

// Hasher returns the hash function the tree was built with.
func (t *Tree) Hasher() Hasher {
	return t.hasher
}

// Leaf returns a copy of the leaf at index.
func (t *Tree) Leaf(index int) ([]byte, error) {
	if index < 0 || index >= len(t.leaves) {
		return nil, fmt.Errorf("leaf %d of %d: %w", index, len(t.leaves), treeerrors.ErrIndexOutOfRange)
	}
	return bytes.Clone(t.leaves[index]), nil
}

// Leaves returns a copy of all leaves in insertion order.
func (t *Tree) Leaves() [][]byte {
	return cloneLeaves(t.leaves)
}

// LeafDigest returns the tagged digest of the leaf at index.
func (t *Tree) LeafDigest(index int) (common.Hash, error) {
	if index < 0 || index >= len(t.leaves) {
		return common.Hash{}, fmt.Errorf("leaf %d of %d: %w", index, len(t.leaves), treeerrors.ErrIndexOutOfRange)
	}
	return t.levels[0][index], nil
}

// Equal reports whether both trees hold the same leaves in the same order
// under the same hash function.
func (t *Tree) Equal(o *Tree) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.hasher.Name() != o.hasher.Name() {
		return false
	}
	return slices.EqualFunc(t.leaves, o.leaves, bytes.Equal)
}

func (t *Tree) String() string {
	root, ok := t.Root()
	if !ok {
		return "Tree{leaves: 0, root: uninitialized}"
	}
	return fmt.Sprintf("Tree{leaves: %d, root: %s}", len(t.leaves), root.Hex())
}

func cloneLeaves(leaves [][]byte) [][]byte {
	out := make([][]byte, len(leaves))
	for i, leaf := range leaves {
		out[i] = bytes.Clone(leaf)
		if out[i] == nil {
			out[i] = []byte{}
		}
	}
	return out
}
