package tensor

import (
	"strings"

	"github.com/pkg/errors"
)

// Device represents the compute device owning a memory space.
type Device int

// Known compute devices. CUDA, Vulkan and Metal are reserved tags without a backend.
const (
	CPU Device = iota
	CUDA
	Vulkan
	Metal
	WebGPU
	Emulated
)

var deviceNames = [...]string{"CPU", "CUDA", "Vulkan", "Metal", "WebGPU", "Emulated"}

// String returns a human-readable device name.
func (d Device) String() string {
	if d >= 0 && int(d) < len(deviceNames) {
		return deviceNames[d]
	}
	return "Unknown"
}

// IsHost reports whether the device memory is directly addressable from Go code.
func (d Device) IsHost() bool {
	return d == CPU
}

// ParseDevice converts a case-insensitive device name to a Device.
func ParseDevice(name string) (Device, error) {
	name = strings.TrimSpace(name)
	for i, n := range deviceNames {
		if strings.EqualFold(n, name) {
			return Device(i), nil
		}
	}
	return 0, errors.Errorf("unknown device %q (expected one of %s)", name, strings.Join(deviceNames[:], ", "))
}
