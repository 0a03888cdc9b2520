// Package emulated implements an accelerator device whose memory is not host
// addressable. Regions are anonymous memory mappings recycled through a size-class
// pool, reached only through the registered primitives and host transfers. It lets the
// cross-device and vendor-kernel paths run on machines without a GPU.
//
// Importing the package registers the Emulated device.
package emulated

import (
	"github.com/born-ml/tensorcore/internal/tensor"
)

var pool = NewPool(tensor.Logger("emulated"))

func init() {
	tensor.RegisterDevice(tensor.Emulated, "emulated", allocator{pool: pool})

	register[float32]()
	register[float64]()
	register[int8]()
	register[int16]()
	register[int32]()
	register[int64]()
	register[uint8]()

	tensor.RegisterNormalizer[float32](tensor.Emulated, normalizer[float32]{})
	tensor.RegisterNormalizer[float64](tensor.Emulated, normalizer[float64]{})
	tensor.RegisterBatchNormKernel[float32](tensor.Emulated, fusedKernel[float32]{})
	tensor.RegisterBatchNormKernel[float64](tensor.Emulated, fusedKernel[float64]{})

	tensor.RegisterTransfer(tensor.CPU, tensor.Emulated, upload)
	tensor.RegisterTransfer(tensor.Emulated, tensor.CPU, download)
}

func register[T tensor.DType]() {
	tensor.RegisterPrimitives[T](tensor.Emulated, primitives[T]{})
}

// Stats returns the counters of the device memory pool.
func Stats() PoolStats {
	return pool.Stats()
}

// Trim unmaps every idle region of the device memory pool.
func Trim() {
	pool.Clear()
}
