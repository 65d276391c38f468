// Package align provides alignment arithmetic for address and size values.
// All helpers operate on uintptr and require power-of-two alignments; the
// power-of-two property is a caller precondition and is never validated here.
package align

// Up returns n rounded up to the next multiple of a.
// a must be a power of two.
//
// Example:
//
//	Up(0x1000, 16) = 0x1000
//	Up(0x1008, 16) = 0x1010
//	Up(0x1001, 1)  = 0x1001
func Up(n, a uintptr) uintptr {
	mask := a - 1
	return (n + mask) &^ mask
}

// Down returns n rounded down to the previous multiple of a.
// a must be a power of two.
//
// Example:
//
//	Down(0x2000, 0x1000) = 0x2000
//	Down(0x2FFF, 0x1000) = 0x2000
func Down(n, a uintptr) uintptr {
	return n &^ (a - 1)
}

// IsPowerOfTwo reports whether n is a power of two. Zero is not.
func IsPowerOfTwo(n uintptr) bool {
	return n != 0 && n&(n-1) == 0
}
