// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/sirupsen/logrus"

	// The CPU backend is always available.
	_ "github.com/born-ml/tensorcore/internal/backend/cpu"
	"github.com/born-ml/tensorcore/internal/tensor"
)

// DType is a constraint for storage element types.
type DType = tensor.DType

// Float is the constraint for floating point element types.
type Float = tensor.Float

// DataType is the runtime element type tag.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int8    DataType = tensor.Int8
	Int16   DataType = tensor.Int16
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
)

// Device is the device tag of a memory space.
type Device = tensor.Device

// Device constants. CUDA, Vulkan and Metal are reserved and have no backend.
const (
	CPU      Device = tensor.CPU
	CUDA     Device = tensor.CUDA
	Vulkan   Device = tensor.Vulkan
	Metal    Device = tensor.Metal
	WebGPU   Device = tensor.WebGPU
	Emulated Device = tensor.Emulated
)

// Shape represents the dimensions of a storage.
// Example: Shape{2, 3, 4} describes 2×3×4 elements; Shape{} is a scalar.
type Shape = tensor.Shape

// Storage is a device buffer with shape, element type and ownership.
type Storage = tensor.Storage

// Memory is a region of device memory.
type Memory = tensor.Memory

// HostMemory is directly addressable CPU memory.
type HostMemory = tensor.HostMemory

// Ownership tells whether a storage may release its memory.
type Ownership = tensor.Ownership

// Ownership constants.
const (
	Owned    Ownership = tensor.Owned
	Borrowed Ownership = tensor.Borrowed
)

// Context is the execution context of one device stream.
type Context = tensor.Context

// ContractViolation is the panic value of a broken precondition.
type ContractViolation = tensor.ContractViolation

// Table maps (device, dtype) pairs to statically typed specializations.
type Table[K any] = tensor.Table[K]

// NewEmpty creates a storage of size 0 without allocating.
func NewEmpty(dtype DataType, device Device) *Storage { return tensor.NewEmpty(dtype, device) }

// New allocates a zero-initialised storage.
func New(shape Shape, dtype DataType, device Device) *Storage {
	return tensor.New(shape, dtype, device)
}

// ViewMemory wraps externally owned device memory without copying.
func ViewMemory(shape Shape, dtype DataType, mem Memory) *Storage {
	return tensor.ViewMemory(shape, dtype, mem)
}

// Full allocates a storage with every element set to value.
func Full[T DType](shape Shape, value T, device Device) *Storage {
	return tensor.Full(shape, value, device)
}

// Scalar allocates a rank-0 storage holding value.
func Scalar[T DType](value T, device Device) *Storage { return tensor.Scalar(value, device) }

// FromSlice allocates a storage on device and copies values into it.
func FromSlice[T DType](shape Shape, values []T, device Device) *Storage {
	return tensor.FromSlice(shape, values, device)
}

// View wraps a host slice without copying.
func View[T DType](shape Shape, data []T) *Storage { return tensor.View(shape, data) }

// Data returns the host elements of s without copying.
func Data[T DType](s *Storage) []T { return tensor.Data[T](s) }

// ToSlice returns a host copy of the elements of s, whatever its device.
func ToSlice[T DType](s *Storage) []T { return tensor.ToSlice[T](s) }

// ScalarAt reads one element through the device primitives.
func ScalarAt[T DType](s *Storage, indices []int) T { return tensor.ScalarAt[T](s, indices) }

// Fill sets every element of s to value.
func Fill[T DType](s *Storage, value T) *Storage { return tensor.Fill(s, value) }

// Swap exchanges the contents of a and b.
func Swap(a, b *Storage) { tensor.Swap(a, b) }

// NewContext creates an execution context for device.
func NewContext(device Device) *Context { return tensor.NewContext(device) }

// ParseDevice converts a device name to a Device.
func ParseDevice(name string) (Device, error) { return tensor.ParseDevice(name) }

// ParseDataType converts a type name to a DataType.
func ParseDataType(name string) (DataType, error) { return tensor.ParseDataType(name) }

// RegisteredDevices returns the devices with a backend.
func RegisteredDevices() []Device { return tensor.RegisteredDevices() }

// IsContractViolation reports whether a recovered panic value is a ContractViolation.
func IsContractViolation(v any) bool { return tensor.IsContractViolation(v) }

// SetLogger redirects the storage and backend logs to l.
func SetLogger(l *logrus.Logger) { tensor.SetLogger(l) }
