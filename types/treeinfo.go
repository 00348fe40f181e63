package types

import (
	"encoding/json"
	"fmt"

	"github.com/colorfulnotion/treeprogram/common"
)

// TreeInfo is the observable state of one tree: its leaf count and root.
// Root is nil when the region was never provisioned or holds no leaves.
type TreeInfo struct {
	LeafCount int          `json:"leaf_count"`
	Root      *common.Hash `json:"root"`
}

// Initialized reports whether the tree has a root.
func (t TreeInfo) Initialized() bool {
	return t.Root != nil
}

// RootString returns the hex root or "uninitialized".
func (t TreeInfo) RootString() string {
	if t.Root == nil {
		return "uninitialized"
	}
	return t.Root.Hex()
}

func (t TreeInfo) String() string {
	return fmt.Sprintf("Tree size %d root hash %s", t.LeafCount, t.RootString())
}

func (t TreeInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		LeafCount int    `json:"leaf_count"`
		Root      string `json:"root"`
	}{t.LeafCount, t.RootString()})
}

func (t *TreeInfo) UnmarshalJSON(data []byte) error {
	aux := &struct {
		LeafCount int    `json:"leaf_count"`
		Root      string `json:"root"`
	}{}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	t.LeafCount = aux.LeafCount
	t.Root = nil
	if aux.Root != "" && aux.Root != "uninitialized" {
		h := common.HexToHash(aux.Root)
		t.Root = &h
	}
	return nil
}
