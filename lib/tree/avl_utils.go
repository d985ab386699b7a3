package tree

import (
	"fmt"

	"github.com/benz9527/xavl/lib/infra"
)

// avl tree rule validation utilities.

// AVLViolationValidate checks every node by inorder traversal:
// the cached height equals 1 + max(children heights),
// the balance factor is in [-1, 1],
// the keys are in non-decreasing order,
// the count equals the number of nodes.
func AVLViolationValidate[K any, V any](tree AVLTree[K, V]) error {
	t, ok := tree.(*avlTree[K, V])
	if !ok || t == nil {
		return infra.NewErrorStack("[avltree] validate unknown tree implementation")
	}

	var (
		err   error
		prev  *avlNode[K, V]
		nodes int64
	)
	t.inorder(Ascend, func(node *avlNode[K, V]) bool {
		nodes++
		if h := 1 + max(node.left.safeHeight(), node.right.safeHeight()); h != node.height {
			err = fmt.Errorf("avl tree height violation, cached %d, expected %d", node.height, h)
			return false
		}
		if b := node.balance(); b < -1 || b > 1 {
			err = fmt.Errorf("avl tree balance violation, balance factor %d", b)
			return false
		}
		if prev != nil && t.cmp(prev.key, node.key) > 0 {
			err = fmt.Errorf("avl tree order violation, %v is greater than %v", prev.key, node.key)
			return false
		}
		prev = node
		return true
	})
	if err != nil {
		return err
	}
	if nodes != t.count {
		return fmt.Errorf("avl tree count violation, count %d, nodes %d", t.count, nodes)
	}
	return nil
}
