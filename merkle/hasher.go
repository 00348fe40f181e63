package merkle

import (
	"fmt"
	"hash"

	"github.com/colorfulnotion/treeprogram/common"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

const (
	Blake2b = "blake2b"
	Keccak  = "keccak"
)

// Domain tags. A leaf digest is H("leaf" ‖ data) and an internal digest is
// H("node" ‖ left ‖ right), so a leaf can never be replayed as an internal node.
var (
	leafPrefix = []byte("leaf")
	nodePrefix = []byte("node")
)

// Hasher combines byte strings into 32-byte digests.
type Hasher interface {
	// Hash digests the concatenation of parts with no domain tag.
	Hash(parts ...[]byte) common.Hash
	// HashLeaf digests one leaf with the leaf tag.
	HashLeaf(leaf []byte) common.Hash
	// HashNode digests two child digests with the node tag.
	HashNode(left, right common.Hash) common.Hash
	// Name identifies the underlying hash function.
	Name() string
}

type hasher struct {
	name    string
	newHash func() hash.Hash
}

func newBlake2b() hash.Hash {
	h, _ := blake2b.New256(nil)
	return h
}

// NewBlake2bHasher returns the default BLAKE2b-256 hasher.
func NewBlake2bHasher() Hasher {
	return &hasher{name: Blake2b, newHash: newBlake2b}
}

// NewKeccakHasher returns a legacy Keccak-256 hasher.
func NewKeccakHasher() Hasher {
	return &hasher{name: Keccak, newHash: sha3.NewLegacyKeccak256}
}

// NewHasher returns the hasher registered under hashType.
func NewHasher(hashType string) (Hasher, error) {
	switch hashType {
	case "", Blake2b:
		return NewBlake2bHasher(), nil
	case Keccak:
		return NewKeccakHasher(), nil
	default:
		return nil, fmt.Errorf("unknown hash type %q", hashType)
	}
}

func (h *hasher) sum(parts ...[]byte) common.Hash {
	d := h.newHash()
	for _, p := range parts {
		d.Write(p)
	}
	return common.BytesToHash(d.Sum(nil))
}

func (h *hasher) Hash(parts ...[]byte) common.Hash {
	return h.sum(parts...)
}

func (h *hasher) HashLeaf(leaf []byte) common.Hash {
	return h.sum(leafPrefix, leaf)
}

func (h *hasher) HashNode(left, right common.Hash) common.Hash {
	return h.sum(nodePrefix, left[:], right[:])
}

func (h *hasher) Name() string {
	return h.name
}
