package tree

type IterDirection int8

const (
	Ascend IterDirection = iota
	Descend
)

func (dir IterDirection) String() string {
	switch dir {
	case Ascend:
		return "Ascend"
	case Descend:
		return "Descend"
	default:
	}
	return "Unknown"
}

// AVLTree is an ordered key/value container, height-balanced on every mutation.
// It is not thread safe. Callers must serialize the access, even the
// read-only lookups against a concurrent mutation.
type AVLTree[K any, V any] interface {
	Len() int64
	IsEmpty() bool
	// Height of the root node, -1 if the tree is empty.
	Height() int
	Get(key K) (V, bool)
	First() (K, V, bool)
	Last() (K, V, bool)
	// Insert reports whether an equal key exists already. By default the
	// new pair is inserted anyway, after its equals in order.
	Insert(key K, val V) (existed bool, err error)
	// FindOrInsert returns the value slot of the first equal key met from the
	// root, or creates a new zero value slot for the key. The slot stays valid
	// until the key is deleted or the tree is cleared.
	FindOrInsert(key K) (slot *V, existed bool, err error)
	// Delete removes the first equal key met from the root.
	Delete(key K) (K, V, error)
	Foreach(dir IterDirection, action func(idx int64, key K, val V) bool)
	NewIterator(dir IterDirection) (AVLIterator[K, V], error)
	// Clear destroys the nodes in post-order, children before parent.
	// The destructors are optional.
	Clear(keyFree func(K) error, valFree func(V) error) error
	// Release clears the tree and rejects the mutations afterward.
	Release(keyFree func(K) error, valFree func(V) error) error
}

// AVLIterator replays a snapshot of the pairs taken at its creation.
// It fails closed once the source tree has been mutated.
type AVLIterator[K any, V any] interface {
	Len() int
	HasNext() bool
	Next() (K, V, error)
	Release()
}
