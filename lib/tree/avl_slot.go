package tree

import (
	"go.uber.org/multierr"

	"github.com/benz9527/xavl/lib/infra"
)

// GetOrCompute memoizes the computed value by the key. The slot created for
// a failed computation is removed again.
func GetOrCompute[K any, V any](tree AVLTree[K, V], key K, compute func(K) (V, error)) (V, error) {
	var zero V
	slot, existed, err := tree.FindOrInsert(key)
	if err != nil {
		return zero, err
	}
	if existed {
		return *slot, nil
	}

	val, err := compute(key)
	if err != nil {
		if _, _, rmErr := tree.Delete(key); rmErr != nil {
			err = multierr.Append(err, rmErr)
		}
		return zero, err
	}
	*slot = val
	return val, nil
}

// Tally counts the occurrences of the keys.
func Tally[K any, V infra.Integer](tree AVLTree[K, V], keys ...K) error {
	for _, key := range keys {
		slot, _, err := tree.FindOrInsert(key)
		if err != nil {
			return err
		}
		*slot++
	}
	return nil
}
