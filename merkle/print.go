package merkle

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// Print renders the tree top-down, one branch per internal digest. Nodes
// paired with themselves are marked "dup".
func (t *Tree) Print() string {
	root, ok := t.Root()
	if !ok {
		return "Tree is empty.\n"
	}
	tp := treeprint.New()
	tp.SetValue(fmt.Sprintf("root %s (leaves: %d, depth: %d)", root.String_short(), len(t.leaves), t.Depth()))
	t.addChildren(tp, len(t.levels)-1, 0)
	return tp.String()
}

func (t *Tree) addChildren(branch treeprint.Tree, level, index int) {
	if level == 0 {
		return
	}
	below := t.levels[level-1]
	for _, child := range []int{2 * index, 2*index + 1} {
		label := ""
		if child >= len(below) {
			child = 2 * index
			label = " dup"
		}
		digest := below[child].String_short()
		if level-1 == 0 {
			branch.AddNode(fmt.Sprintf("leaf[%d] %s %x%s", child, digest, t.leaves[child], label))
			continue
		}
		sub := branch.AddBranch(fmt.Sprintf("node[%d/%d] %s%s", level-1, child, digest, label))
		if label == "" {
			t.addChildren(sub, level-1, child)
		}
	}
}
