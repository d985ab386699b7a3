package tree

import (
	"errors"

	"go.uber.org/zap"
)

var (
	ErrAVLIteratorDone     = errors.New("[avltree] iterator no more elements")
	ErrAVLIteratorStale    = errors.New("[avltree] iterator stale, tree has been modified")
	ErrAVLIteratorReleased = errors.New("[avltree] iterator released")
)

type avlIterPair[K any, V any] struct {
	key K
	val V
}

var _ AVLIterator[int, int] = (*avlIterator[int, int])(nil)

// The snapshot holds copies of the pairs, so no node is referenced after
// the creation. The tree version is checked on every access.
type avlIterator[K any, V any] struct {
	tree       *avlTree[K, V]
	snapshot   []avlIterPair[K, V]
	cursor     int
	version    uint64
	dir        IterDirection
	isReleased bool
}

func (it *avlIterator[K, V]) Len() int {
	return len(it.snapshot)
}

func (it *avlIterator[K, V]) isStale() bool {
	return it.tree.version != it.version
}

func (it *avlIterator[K, V]) HasNext() bool {
	return !it.isReleased && !it.isStale() && it.cursor < len(it.snapshot)
}

func (it *avlIterator[K, V]) Next() (K, V, error) {
	var (
		zeroK K
		zeroV V
	)
	if it.isReleased {
		return zeroK, zeroV, ErrAVLIteratorReleased
	}
	if it.isStale() {
		if it.tree.logger != nil {
			it.tree.logger.Warn("[avltree] stale iterator accessed",
				zap.Stringer("direction", it.dir),
				zap.Int("cursor", it.cursor),
				zap.Uint64("snapshotVersion", it.version),
				zap.Uint64("treeVersion", it.tree.version),
			)
		}
		return zeroK, zeroV, ErrAVLIteratorStale
	}
	if it.cursor >= len(it.snapshot) {
		return zeroK, zeroV, ErrAVLIteratorDone
	}
	pair := it.snapshot[it.cursor]
	it.cursor++
	return pair.key, pair.val, nil
}

func (it *avlIterator[K, V]) Release() {
	if it.isReleased {
		return
	}
	clear(it.snapshot)
	it.snapshot = nil
	it.tree = nil
	it.isReleased = true
}

func (tree *avlTree[K, V]) NewIterator(dir IterDirection) (AVLIterator[K, V], error) {
	if tree.isReleased {
		return nil, ErrAVLTreeReleased
	}

	snapshot := make([]avlIterPair[K, V], 0, tree.count)
	tree.inorder(dir, func(node *avlNode[K, V]) bool {
		snapshot = append(snapshot, avlIterPair[K, V]{
			key: node.key,
			val: node.val,
		})
		return true
	})
	return &avlIterator[K, V]{
		tree:     tree,
		snapshot: snapshot,
		version:  tree.version,
		dir:      dir,
	}, nil
}
