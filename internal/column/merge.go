package column

// SymmetricDifference writes the sorted symmetric difference of a and b into
// dst and returns the number of values written. It stops and returns false
// as soon as the result would not fit in dst; the contents of dst are then
// unspecified. a and b must be strictly increasing.
func SymmetricDifference(dst, a, b []uint32) (int, bool) {
	i, j, k := 0, 0, 0

	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			if k == len(dst) {
				return k, false
			}
			dst[k] = a[i]
			i++
			k++
		case a[i] > b[j]:
			if k == len(dst) {
				return k, false
			}
			dst[k] = b[j]
			j++
			k++
		default:
			i++
			j++
		}
	}

	rest := a[i:]
	if j < len(b) {
		rest = b[j:]
	}
	if k+len(rest) > len(dst) {
		return k, false
	}
	k += copy(dst[k:], rest)

	return k, true
}

// Demand returns the projected length of a column of length lenTarget after
// adding a column of length lenSource that shares its low:
// lenTarget + max(lenSource-2, lenTarget).
func Demand(lenTarget, lenSource uint32) uint64 {
	extra := int64(lenSource) - 2
	if t := int64(lenTarget); t > extra {
		extra = t
	}
	return uint64(lenTarget) + uint64(extra) //nolint:gosec // extra >= lenTarget >= 0
}
