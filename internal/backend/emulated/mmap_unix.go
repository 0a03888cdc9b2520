//go:build unix

package emulated

import "golang.org/x/sys/unix"

// mapRegion maps n bytes of anonymous, zero-filled memory.
func mapRegion(n int) ([]byte, error) {
	return unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

// unmapRegion returns a mapping obtained from mapRegion.
func unmapRegion(data []byte) error {
	return unix.Munmap(data)
}
