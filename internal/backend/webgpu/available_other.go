//go:build !windows

// Package webgpu implements the WebGPU device backend for float32 storage. The bindings
// are only built on Windows; elsewhere the device stays unregistered.
package webgpu

// Available reports whether the WebGPU device was registered.
func Available() bool {
	return false
}
