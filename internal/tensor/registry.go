package tensor

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// deviceEntry describes one registered backend.
type deviceEntry struct {
	name      string
	allocator Allocator
}

var registry = struct {
	mu        sync.RWMutex
	devices   map[Device]deviceEntry
	transfers map[[2]Device]Transfer
}{
	devices:   make(map[Device]deviceEntry),
	transfers: make(map[[2]Device]Transfer),
}

var (
	primitiveTable  Table[any] // Primitives[T]
	kernelTable     Table[Kernels]
	normalizerTable Table[any] // Normalizer[T]
	batchNormTable  Table[any] // BatchNormKernel[T]
)

// RegisterDevice makes a device usable for storage. Backends call it from init before
// registering their primitives.
func RegisterDevice(device Device, name string, alloc Allocator) {
	Expect(alloc != nil, "device %s registered without allocator", device)

	registry.mu.Lock()
	registry.devices[device] = deviceEntry{name: name, allocator: alloc}
	registry.mu.Unlock()

	log.WithFields(logrus.Fields{"device": device, "backend": name}).Debug("device registered")
}

// RegisterPrimitives installs the full primitive set of device for element type T.
func RegisterPrimitives[T DType](device Device, p Primitives[T]) {
	Expect(IsRegistered(device), "primitives registered for unknown device %s", device)
	dtype := DataTypeOf[T]()
	primitiveTable.Register(device, dtype, p)
	kernelTable.Register(device, dtype, erased[T]{device: device, prims: p})
}

// RegisterNormalizer installs the generic row normalizer of device for T.
func RegisterNormalizer[T Float](device Device, n Normalizer[T]) {
	Expect(IsRegistered(device), "normalizer registered for unknown device %s", device)
	normalizerTable.Register(device, DataTypeOf[T](), n)
}

// RegisterBatchNormKernel installs an optional vendor normalization kernel.
func RegisterBatchNormKernel[T Float](device Device, k BatchNormKernel[T]) {
	Expect(IsRegistered(device), "kernel registered for unknown device %s", device)
	batchNormTable.Register(device, DataTypeOf[T](), k)
}

// RegisterTransfer installs the copy routine from src to dst memory.
func RegisterTransfer(src, dst Device, fn Transfer) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.transfers[[2]Device{src, dst}] = fn
}

// PrimitivesFor returns the primitives of device for T.
// Panics if the combination was never registered.
func PrimitivesFor[T DType](device Device) Primitives[T] {
	return primitiveTable.Lookup(device, DataTypeOf[T]()).(Primitives[T])
}

// KernelsFor returns the dtype-erased primitives of (device, dtype).
func KernelsFor(device Device, dtype DataType) Kernels {
	return kernelTable.Lookup(device, dtype)
}

// NormalizerFor returns the generic row normalizer of device for T.
func NormalizerFor[T Float](device Device) Normalizer[T] {
	return normalizerTable.Lookup(device, DataTypeOf[T]()).(Normalizer[T])
}

// BatchNormKernelFor returns the vendor kernel of device for T, if any.
func BatchNormKernelFor[T Float](device Device) (BatchNormKernel[T], bool) {
	k, ok := batchNormTable.Find(device, DataTypeOf[T]())
	if !ok {
		return nil, false
	}
	return k.(BatchNormKernel[T]), true
}

// HasBatchNormKernel reports whether (device, dtype) has a vendor normalization kernel.
func HasBatchNormKernel(device Device, dtype DataType) bool {
	_, ok := batchNormTable.Find(device, dtype)
	return ok
}

// IsRegistered reports whether a backend for device has been registered.
func IsRegistered(device Device) bool {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	_, ok := registry.devices[device]
	return ok
}

// RegisteredDevices returns the devices with a backend, in enum order.
func RegisteredDevices() []Device {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	var devices []Device
	for d := range deviceNames {
		if _, ok := registry.devices[Device(d)]; ok {
			devices = append(devices, Device(d))
		}
	}
	return devices
}

// BackendName returns the name the backend of device registered with.
func BackendName(device Device) string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return registry.devices[device].name
}

// SupportedDataTypes returns the element types device has primitives for.
func SupportedDataTypes(device Device) []DataType {
	return primitiveTable.DataTypes(device)
}

func allocatorFor(device Device) Allocator {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	entry, ok := registry.devices[device]
	if !ok {
		Violate("device %s has no registered backend", device)
	}
	return entry.allocator
}

func transferFor(src, dst Device) (Transfer, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	fn, ok := registry.transfers[[2]Device{src, dst}]
	return fn, ok
}
