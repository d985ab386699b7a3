package tree

// Nodes are reclaimed into a free list and reused by the next insertion.
// A limit of live nodes may be set to make the allocation fail as an error
// instead of growing without bound.
type avlNodeAllocator[K any, V any] struct {
	pool      *avlNode[K, V] // linked list of reclaimed nodes, by the left pointer
	freeNodes int
	poolSize  int
	liveNodes int64
	maxNodes  int64 // 0 means unlimited
}

// Returns nil if the live nodes reach the limit.
func (alloc *avlNodeAllocator[K, V]) newNode(key K, val V) *avlNode[K, V] {
	if alloc.maxNodes > 0 && alloc.liveNodes >= alloc.maxNodes {
		return nil
	}
	alloc.liveNodes++
	if alloc.pool == nil {
		return &avlNode[K, V]{
			key: key,
			val: val,
		}
	}
	node := alloc.pool
	alloc.pool = node.left
	alloc.freeNodes--
	node.left = nil
	node.key = key
	node.val = val
	node.height = 0
	return node
}

func (alloc *avlNodeAllocator[K, V]) freeNode(node *avlNode[K, V]) {
	alloc.liveNodes--
	var (
		zeroK K
		zeroV V
	)
	node.right = nil
	node.key = zeroK
	node.val = zeroV
	node.height = 0
	if alloc.freeNodes >= alloc.poolSize {
		node.left = nil
		return
	}
	node.left = alloc.pool // use as free list pointer
	alloc.pool = node
	alloc.freeNodes++
}

func (alloc *avlNodeAllocator[K, V]) drain() {
	for alloc.pool != nil {
		node := alloc.pool
		alloc.pool = node.left
		node.left = nil
	}
	alloc.freeNodes = 0
}
