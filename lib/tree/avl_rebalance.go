package tree

// rebalance walks the recorded links from the mutation point back to the root.
// It stops early once a node keeps its height, the ancestors are unchanged then.
func (tree *avlTree[K, V]) rebalance(path []**avlNode[K, V]) {
	for i := len(path) - 1; i >= 0; i-- {
		link := path[i]
		node := *link
		lh, rh := node.left.safeHeight(), node.right.safeHeight()
		if rh-lh > 1 {
			tree.rotateLeft(link)
		} else if lh-rh > 1 {
			tree.rotateRight(link)
		} else {
			h := 1 + max(lh, rh)
			if h == node.height {
				return
			}
			node.height = h
		}
	}
}

/*
Single rotation, the right child R is not left heavy.

	  |                       |
	  X                       R
	 / \    rotateLeft(X)    / \
	L   R   ===========>    X   Rr
	   / \                 / \
	 Rl   Rr              L   Rl

Double rotation, the right child R is left heavy.

	  |                           |
	  X                           Rl
	 / \                        /    \
	L   R     rotateLeft(X)    X      R
	   / \    ===========>    / \    / \
	 Rl   Rr                 L  a   b   Rr
	/  \
   a    b
*/
func (tree *avlTree[K, V]) rotateLeft(link **avlNode[K, V]) {
	x := *link
	r := x.right
	if r.balance() >= 0 {
		x.right, r.left = r.left, x
		x.updateHeight()
		r.updateHeight()
		*link = r
		tree.stats.RecordRotation(singleRotation)
		return
	}

	rl := r.left
	x.right, r.left = rl.left, rl.right
	rl.left, rl.right = x, r
	x.updateHeight()
	r.updateHeight()
	rl.updateHeight()
	*link = rl
	tree.stats.RecordRotation(doubleRotation)
}

/*
Mirror of rotateLeft.

	    |                      |
	    X                      L
	   / \   rotateRight(X)   / \
	  L   R  ============>  Ll   X
	 / \                        / \
	Ll  Lr                     Lr  R
*/
func (tree *avlTree[K, V]) rotateRight(link **avlNode[K, V]) {
	x := *link
	l := x.left
	if l.balance() <= 0 {
		x.left, l.right = l.right, x
		x.updateHeight()
		l.updateHeight()
		*link = l
		tree.stats.RecordRotation(singleRotation)
		return
	}

	lr := l.right
	x.left, l.right = lr.right, lr.left
	lr.left, lr.right = l, x
	x.updateHeight()
	l.updateHeight()
	lr.updateHeight()
	*link = lr
	tree.stats.RecordRotation(doubleRotation)
}
