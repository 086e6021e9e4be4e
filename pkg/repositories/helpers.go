package repositories

// maxInListSize bounds the number of values bound into a single IN clause.
// SQL Server caps a statement at 2100 parameters; staying well under that
// leaves room for the other bind variables of each query.
const maxInListSize = 1000

// chunk splits xs into slices of at most size elements.
func chunk[T any](xs []T, size int) [][]T {
	if len(xs) == 0 {
		return nil
	}
	out := make([][]T, 0, (len(xs)+size-1)/size)
	for size < len(xs) {
		xs, out = xs[size:], append(out, xs[:size])
	}
	return append(out, xs)
}

// anySlice converts a typed slice into []interface{} for query binding.
func anySlice[T any](xs []T) []interface{} {
	out := make([]interface{}, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}
