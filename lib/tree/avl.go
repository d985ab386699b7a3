package tree

import (
	"errors"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xavl/lib/infra"
	"github.com/benz9527/xavl/xlog"
)

var (
	ErrAVLTreeNilComparator   = errors.New("[avltree] nil key comparator")
	ErrAVLTreeInvalidOption   = errors.New("[avltree] invalid option")
	ErrAVLTreeEmpty           = errors.New("[avltree] empty element to remove")
	ErrAVLTreeKeyNotFound     = errors.New("[avltree] key not found")
	ErrAVLTreeNodeAllocFailed = errors.New("[avltree] node allocation failed")
	ErrAVLTreeReleased        = errors.New("[avltree] tree released")
)

// The stored height of the replacement node in the removal, so the
// rebalancing never takes it as unchanged.
const invalidHeight = -2

type avlNode[K any, V any] struct {
	left   *avlNode[K, V]
	right  *avlNode[K, V]
	key    K
	val    V
	height int // leaf is 0
}

func (node *avlNode[K, V]) safeHeight() int {
	if node == nil {
		return -1
	}
	return node.height
}

// Right subtree height minus left subtree height.
func (node *avlNode[K, V]) balance() int {
	return node.right.safeHeight() - node.left.safeHeight()
}

func (node *avlNode[K, V]) updateHeight() {
	node.height = 1 + max(node.left.safeHeight(), node.right.safeHeight())
}

// The first child to descend in the given traversal direction.
func (node *avlNode[K, V]) leading(dir IterDirection) *avlNode[K, V] {
	if dir == Descend {
		return node.right
	}
	return node.left
}

func (node *avlNode[K, V]) trailing(dir IterDirection) *avlNode[K, V] {
	if dir == Descend {
		return node.left
	}
	return node.right
}

type avlTree[K any, V any] struct {
	root         *avlNode[K, V]
	cmp          infra.Comparator[K]
	path         []**avlNode[K, V] // links from root to the mutation point, reused
	count        int64
	version      uint64 // increased by every mutation
	alloc        avlNodeAllocator[K, V]
	stats        *avlTreeStats
	statsName    string
	logger       xlog.XLogger
	isUniqueKeys bool
	isReleased   bool
}

func (tree *avlTree[K, V]) Len() int64 {
	return tree.count
}

func (tree *avlTree[K, V]) IsEmpty() bool {
	return tree.root == nil
}

func (tree *avlTree[K, V]) Height() int {
	return tree.root.safeHeight()
}

func (tree *avlTree[K, V]) search(key K) *avlNode[K, V] {
	for aux := tree.root; aux != nil; {
		res := tree.cmp(key, aux.key)
		if res == 0 {
			return aux
		} else if res > 0 {
			aux = aux.right
		} else {
			aux = aux.left
		}
	}
	return nil
}

func (tree *avlTree[K, V]) Get(key K) (V, bool) {
	if node := tree.search(key); node != nil {
		return node.val, true
	}
	var zero V
	return zero, false
}

func (tree *avlTree[K, V]) First() (K, V, bool) {
	aux := tree.root
	if aux == nil {
		var (
			zeroK K
			zeroV V
		)
		return zeroK, zeroV, false
	}
	for ; aux.left != nil; aux = aux.left {
	}
	return aux.key, aux.val, true
}

func (tree *avlTree[K, V]) Last() (K, V, bool) {
	aux := tree.root
	if aux == nil {
		var (
			zeroK K
			zeroV V
		)
		return zeroK, zeroV, false
	}
	for ; aux.right != nil; aux = aux.right {
	}
	return aux.key, aux.val, true
}

// descend records the links from the root down to the empty link where the
// key belongs. The equal keys go to the right, so the later one is placed
// after its equals in order.
// If stopAtEqual, it returns the link of the first equal node instead.
func (tree *avlTree[K, V]) descend(key K, stopAtEqual bool) (link **avlNode[K, V], existed bool) {
	path := tree.path[:0]
	link = &tree.root
	for *link != nil {
		node := *link
		res := tree.cmp(key, node.key)
		if res == 0 {
			existed = true
			if stopAtEqual {
				break
			}
		}
		path = append(path, link)
		if res < 0 {
			link = &node.left
		} else {
			link = &node.right
		}
	}
	tree.path = path
	return link, existed
}

func (tree *avlTree[K, V]) resetPath() {
	clear(tree.path)
	tree.path = tree.path[:0]
}

func (tree *avlTree[K, V]) attach(link **avlNode[K, V], key K, val V) (*avlNode[K, V], error) {
	node := tree.alloc.newNode(key, val)
	if node == nil {
		tree.resetPath()
		if tree.logger != nil {
			tree.logger.Warn("[avltree] node allocation refused",
				zap.Int64("liveNodes", tree.alloc.liveNodes),
				zap.Int64("maxNodes", tree.alloc.maxNodes),
			)
		}
		return nil, ErrAVLTreeNodeAllocFailed
	}
	*link = node
	tree.rebalance(tree.path)
	tree.resetPath()
	tree.count++
	tree.version++
	tree.stats.RecordInsert()
	return node, nil
}

func (tree *avlTree[K, V]) Insert(key K, val V) (bool, error) {
	if tree.isReleased {
		return false, ErrAVLTreeReleased
	}

	link, existed := tree.descend(key, tree.isUniqueKeys)
	if existed && tree.isUniqueKeys {
		tree.resetPath()
		(*link).val = val
		tree.version++
		return true, nil
	}
	if _, err := tree.attach(link, key, val); err != nil {
		return existed, err
	}
	return existed, nil
}

func (tree *avlTree[K, V]) FindOrInsert(key K) (*V, bool, error) {
	if tree.isReleased {
		return nil, false, ErrAVLTreeReleased
	}

	link, existed := tree.descend(key, true)
	if existed {
		tree.resetPath()
		return &(*link).val, true, nil
	}
	var zero V
	node, err := tree.attach(link, key, zero)
	if err != nil {
		return nil, false, err
	}
	return &node.val, false, nil
}

/*
d1: The removed node X has no left child, its right child R replaces it.

	  |            |
	  X            R
	   \   ====>
	    R

d2: Otherwise, the rightmost node P of the left subtree replaces X in place,
P's left child takes P's former position.

	    |                |
	    X                P
	   / \              / \
	  L   R    ====>   L   R
	   \                \
	    P                Pl
	   /
	  Pl

The left subtree path (L ... P's parent) is rebalanced first, then the path
from the root to P, whose height is invalid and must be recomputed.
*/
func (tree *avlTree[K, V]) Delete(key K) (K, V, error) {
	var (
		zeroK K
		zeroV V
	)
	if tree.isReleased {
		return zeroK, zeroV, ErrAVLTreeReleased
	}
	if tree.root == nil {
		return zeroK, zeroV, ErrAVLTreeEmpty
	}

	path := tree.path[:0]
	link := &tree.root
	for {
		node := *link
		if node == nil {
			tree.path = path
			tree.resetPath()
			return zeroK, zeroV, ErrAVLTreeKeyNotFound
		}
		path = append(path, link)
		res := tree.cmp(key, node.key)
		if res == 0 {
			break
		} else if res < 0 {
			link = &node.left
		} else {
			link = &node.right
		}
	}

	x := *link
	if /* d1 */ x.left == nil {
		*link = x.right
		path = path[:len(path)-1]
		tree.rebalance(path)
	} else /* d2 */ {
		mark := len(path)
		sub := &x.left
		for (*sub).right != nil {
			path = append(path, sub)
			sub = &(*sub).right
		}
		p := *sub
		*sub = p.left
		p.left, p.right = x.left, x.right
		p.height = invalidHeight
		*link = p
		if len(path) > mark {
			// The link was owned by the removed node.
			path[mark] = &p.left
		}
		tree.rebalance(path[mark:])
		tree.rebalance(path[:mark])
	}
	tree.path = path
	tree.resetPath()

	key, val := x.key, x.val
	x.left, x.right = nil, nil
	tree.alloc.freeNode(x)
	tree.count--
	tree.version++
	tree.stats.RecordDelete()
	return key, val, nil
}

// Inorder traversal with explicit stack, the stack depth is bounded by the height.
func (tree *avlTree[K, V]) inorder(dir IterDirection, action func(node *avlNode[K, V]) bool) {
	aux := tree.root
	if aux == nil {
		return
	}

	stack := make([]*avlNode[K, V], 0, tree.Height()+1)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.leading(dir) {
		stack = append(stack, aux)
	}

	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		stack = stack[:size-1]
		if !action(aux) {
			return
		}
		for aux = aux.trailing(dir); aux != nil; aux = aux.leading(dir) {
			stack = append(stack, aux)
		}
	}
}

func (tree *avlTree[K, V]) Foreach(dir IterDirection, action func(idx int64, key K, val V) bool) {
	if action == nil {
		return
	}
	idx := int64(0)
	tree.inorder(dir, func(node *avlNode[K, V]) bool {
		if !action(idx, node.key, node.val) {
			return false
		}
		idx++
		return true
	})
}

// Postorder destruction by detaching the visited children. The stack depth
// is bounded by the height.
func (tree *avlTree[K, V]) Clear(keyFree func(K) error, valFree func(V) error) error {
	aux := tree.root
	count := tree.count
	tree.root = nil
	tree.count = 0
	tree.version++
	tree.resetPath()
	if aux == nil {
		return nil
	}

	var merr error
	stack := make([]*avlNode[K, V], 0, aux.height+1)
	stack = append(stack, aux)
	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		if aux.left != nil {
			stack = append(stack, aux.left)
			aux.left = nil
			continue
		}
		if aux.right != nil {
			stack = append(stack, aux.right)
			aux.right = nil
			continue
		}
		stack = stack[:size-1]
		if keyFree != nil {
			merr = multierr.Append(merr, keyFree(aux.key))
		}
		if valFree != nil {
			merr = multierr.Append(merr, valFree(aux.val))
		}
		tree.alloc.freeNode(aux)
	}
	tree.stats.RecordClear(count)

	if merr != nil && tree.logger != nil {
		tree.logger.Error(merr, "[avltree] destructors failed on clear",
			zap.Int64("nodes", count),
			zap.Int("errors", len(multierr.Errors(merr))),
		)
	}
	return merr
}

func (tree *avlTree[K, V]) Release(keyFree func(K) error, valFree func(V) error) error {
	if tree.isReleased {
		return nil
	}
	err := tree.Clear(keyFree, valFree)
	tree.isReleased = true
	tree.alloc.drain()
	tree.path = nil
	return err
}

type AVLTreeOption[K any, V any] func(*avlTree[K, V]) error

// WithAVLTreeUniqueKeys makes the insertion of an equal key overwrite the
// value instead of adding a duplicate, so the key identifies the pair.
func WithAVLTreeUniqueKeys[K any, V any]() AVLTreeOption[K, V] {
	return func(tree *avlTree[K, V]) error {
		tree.isUniqueKeys = true
		return nil
	}
}

// WithAVLTreeMaxNodes limits the live nodes, the insertion beyond it fails
// with ErrAVLTreeNodeAllocFailed.
func WithAVLTreeMaxNodes[K any, V any](maxNodes int64) AVLTreeOption[K, V] {
	return func(tree *avlTree[K, V]) error {
		if maxNodes <= 0 {
			return infra.WrapErrorStackWithMessage(ErrAVLTreeInvalidOption, "max nodes must be positive")
		}
		tree.alloc.maxNodes = maxNodes
		return nil
	}
}

func WithAVLTreeNodePoolSize[K any, V any](size int) AVLTreeOption[K, V] {
	return func(tree *avlTree[K, V]) error {
		if size < 0 {
			return infra.WrapErrorStackWithMessage(ErrAVLTreeInvalidOption, "negative node pool size")
		}
		tree.alloc.poolSize = size
		return nil
	}
}

func WithAVLTreeLogger[K any, V any](logger xlog.XLogger) AVLTreeOption[K, V] {
	return func(tree *avlTree[K, V]) error {
		if logger == nil {
			return infra.WrapErrorStackWithMessage(ErrAVLTreeInvalidOption, "nil logger")
		}
		tree.logger = logger.Named("avltree")
		return nil
	}
}

func WithAVLTreeStats[K any, V any](name string) AVLTreeOption[K, V] {
	return func(tree *avlTree[K, V]) error {
		if len(name) <= 0 {
			return infra.WrapErrorStackWithMessage(ErrAVLTreeInvalidOption, "empty stats name")
		}
		tree.statsName = name
		return nil
	}
}

func NewAVLTree[K any, V any](cmp infra.Comparator[K], opts ...AVLTreeOption[K, V]) (AVLTree[K, V], error) {
	if cmp == nil {
		return nil, infra.WrapErrorStack(ErrAVLTreeNilComparator)
	}
	tree := &avlTree[K, V]{
		cmp:  cmp,
		path: make([]**avlNode[K, V], 0, 32),
	}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o(tree); err != nil {
			return nil, err
		}
	}
	tree.stats = newAVLTreeStats(tree.statsName)
	return tree, nil
}

func NewOrderedAVLTree[K infra.OrderedKey, V any](opts ...AVLTreeOption[K, V]) (AVLTree[K, V], error) {
	return NewAVLTree[K, V](infra.OrderedKeyCompare[K], opts...)
}
