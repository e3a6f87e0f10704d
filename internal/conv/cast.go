package conv

import (
	"fmt"
	"math"
)

// IntToUint32 converts int to uint32 safely.
func IntToUint32(v int) (uint32, error) {
	if v < 0 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to uint32 (negative)", v)
	}
	// On 64-bit systems, int can exceed uint32 max; on 32-bit, this is always false
	if uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to uint32 (too large)", v)
	}
	return uint32(v), nil
}

// Uint64ToUint32 converts uint64 to uint32 safely.
func Uint64ToUint32(v uint64) (uint32, error) {
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to uint32 (too large)", v)
	}
	return uint32(v), nil
}

// Uint64ToInt converts uint64 to int safely.
func Uint64ToInt(v uint64) (int, error) {
	if v > uint64(math.MaxInt) {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to int (too large)", v)
	}
	return int(v), nil
}

// SumUint32 adds the values in uint64 and reports whether the total still
// fits in a uint32 offset.
func SumUint32(vs ...uint32) (uint32, error) {
	var total uint64
	for _, v := range vs {
		total += uint64(v)
	}
	return Uint64ToUint32(total)
}

// ParseUint32 parses a decimal token without allocating.
// It rejects signs, empty input and values above math.MaxUint32.
func ParseUint32(b []byte) (uint32, error) {
	if len(b) == 0 {
		return 0, fmt.Errorf("invalid integer: empty token")
	}
	var v uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid integer %q", b)
		}
		v = v*10 + uint64(c-'0')
		if v > math.MaxUint32 {
			return 0, fmt.Errorf("integer overflow: %q does not fit in uint32", b)
		}
	}
	return uint32(v), nil
}
