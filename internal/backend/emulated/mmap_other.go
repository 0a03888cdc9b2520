//go:build !unix

package emulated

// mapRegion falls back to heap memory where anonymous mappings are unavailable.
func mapRegion(n int) ([]byte, error) {
	return make([]byte, n), nil
}

func unmapRegion([]byte) error {
	return nil
}
