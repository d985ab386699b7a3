package infra

type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Unsigned is a constraint that permits any unsigned integer type.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Integer is a constraint that permits any integer type.
type Integer interface {
	Signed | Unsigned
}

// Float is a constraint that permits any floating-point type.
type Float interface {
	~float32 | ~float64
}

// OrderedKey
// byte => ~uint8
type OrderedKey interface {
	Integer | Float | ~string
}

// Comparator is a three-way comparator over arbitrary keys.
// Assume i is the new key.
//  1. i == j (return 0)
//  2. i > j (return positive), turn to right part.
//  3. i < j (return negative), turn to left part.
//
// It must be a total order, otherwise the tree ordering is undefined.
type Comparator[K any] func(i, j K) int64

// OrderedKeyCompare is the natural ascending order of the ordered keys.
// NaN breaks the total order, the float keys containing NaN should use
// a custom comparator.
func OrderedKeyCompare[K OrderedKey](i, j K) int64 {
	if i == j {
		return 0
	} else if i < j {
		return -1
	}
	return 1
}

// ReverseComparator flips the comparator to get the descending order.
func ReverseComparator[K any](cmp Comparator[K]) Comparator[K] {
	if cmp == nil {
		return nil
	}
	return func(i, j K) int64 {
		return cmp(j, i)
	}
}
