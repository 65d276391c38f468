//go:build !unix

package region

// mapAnon falls back to heap memory where anonymous mappings are
// unavailable. The slice pins the span for the lifetime of the Region, so
// addresses derived from it stay dereferenceable until Close.
func mapAnon(size int) ([]byte, error) {
	return make([]byte, size), nil
}

// unmapAnon drops the heap span; the garbage collector reclaims it.
func unmapAnon(_ []byte) error {
	return nil
}
