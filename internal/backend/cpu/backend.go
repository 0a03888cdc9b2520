// Package cpu implements the host device backend: 64-byte aligned allocations, the
// primitive set for every element type, a generic row normalizer and a gonum backed
// normalization kernel. Importing the package registers the CPU device.
package cpu

import (
	"sync/atomic"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/born-ml/tensorcore/internal/parallel"
	"github.com/born-ml/tensorcore/internal/tensor"
)

// Alignment is the byte alignment of every host allocation.
const Alignment = 64

var parallelConfig atomic.Pointer[parallel.Config]

func init() {
	SetParallelConfig(parallel.DefaultConfig())

	tensor.RegisterDevice(tensor.CPU, "cpu", allocator{})

	register[float32]()
	register[float64]()
	register[int8]()
	register[int16]()
	register[int32]()
	register[int64]()
	register[uint8]()

	tensor.RegisterNormalizer[float32](tensor.CPU, normalizer[float32]{})
	tensor.RegisterNormalizer[float64](tensor.CPU, normalizer[float64]{})
	tensor.RegisterBatchNormKernel[float32](tensor.CPU, gonumKernel[float32]{})
	tensor.RegisterBatchNormKernel[float64](tensor.CPU, gonumKernel[float64]{})
}

func register[T tensor.DType]() {
	tensor.RegisterPrimitives[T](tensor.CPU, primitives[T]{})
}

// SetParallelConfig sets how host loops are split over goroutines.
func SetParallelConfig(cfg parallel.Config) {
	parallelConfig.Store(&cfg)
}

// ParallelConfig returns the current host loop configuration.
func ParallelConfig() parallel.Config {
	return *parallelConfig.Load()
}

// allocator hands out zeroed host memory aligned to Alignment bytes.
type allocator struct{}

func (allocator) Allocate(nbytes int) (tensor.Memory, error) {
	if nbytes < 0 {
		return nil, errors.Errorf("cpu: invalid allocation size %d", nbytes)
	}
	if nbytes == 0 {
		return tensor.HostMemory{}, nil
	}
	raw := make([]byte, nbytes+Alignment-1)
	off := 0
	//nolint:gosec // address arithmetic only, no pointer is rebuilt from it
	if r := uintptr(unsafe.Pointer(&raw[0])) % Alignment; r != 0 {
		off = int(Alignment - r)
	}
	return tensor.HostMemory(raw[off : off+nbytes : off+nbytes]), nil
}

// Free is a no-op: host memory is reclaimed by the garbage collector once the last
// reference is gone.
func (allocator) Free(tensor.Memory) {}
