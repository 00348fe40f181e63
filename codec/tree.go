package codec

import (
	"github.com/colorfulnotion/treeprogram/log"
	"github.com/colorfulnotion/treeprogram/merkle"
	"github.com/colorfulnotion/treeprogram/treeerrors"
)

// DefaultMaxLeafSize bounds a single decoded leaf.
const DefaultMaxLeafSize = 10 * 1024 * 1024

const lengthPrefixSize = 4

// EncodedTreeSize returns len(EncodeTree(t)) for a tree holding leaves.
func EncodedTreeSize(leaves [][]byte) int {
	n := lengthPrefixSize
	for _, leaf := range leaves {
		n += lengthPrefixSize + len(leaf)
	}
	return n
}

// EncodeTree serializes the tree's leaves: u32 leaf count, then every leaf
// as u32 length ‖ bytes. Digests are not stored; they are rebuilt on decode.
func EncodeTree(t *merkle.Tree) []byte {
	leaves := t.Leaves()
	return encodeWith(EncodedTreeSize(leaves), func(e *Encoder) {
		e.WriteU32(uint32(len(leaves)))
		for _, leaf := range leaves {
			e.WriteBytes(leaf)
		}
	})
}

// DecodeTree parses bytes written by EncodeTree and rebuilds the tree.
// maxLeafSize <= 0 selects DefaultMaxLeafSize.
func DecodeTree(data []byte, maxLeafSize int, opts ...merkle.Option) (*merkle.Tree, error) {
	if maxLeafSize <= 0 {
		maxLeafSize = DefaultMaxLeafSize
	}
	d := NewDecoder(data, treeerrors.ErrDecode)
	count, err := d.ReadU32("leaf count")
	if err != nil {
		return nil, err
	}
	// every leaf needs at least its length prefix
	if uint64(count)*lengthPrefixSize > uint64(d.Remaining()) {
		return nil, d.fail("declared leaf count %d cannot fit in %d bytes", count, d.Remaining())
	}
	leaves := make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		leaf, err := d.ReadBytes(maxLeafSize, "leaf")
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, leaf)
	}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	log.Trace(log.CodecMonitoring, "DecodeTree", "bytes", len(data), "leaves", count)
	if count == 0 {
		return merkle.Empty(opts...), nil
	}
	return merkle.Build(leaves, opts...)
}
