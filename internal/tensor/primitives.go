package tensor

// Primitives is the elementary routine set one device provides for one element type.
// No bounds checking happens at this layer; callers guarantee shape correctness.
//
// Every backend registers a full set per supported dtype:
//
//	tensor.RegisterPrimitives[float32](tensor.CPU, hostPrimitives[float32]{})
type Primitives[T DType] interface {
	// Fill sets the first n elements of dst to value.
	Fill(dst Memory, value T, n int)
	// Copy copies n elements between two regions of the same device.
	Copy(src, dst Memory, n int)
	// Deref reads the element at offset. Needed because accelerator memory is not
	// host addressable.
	Deref(src Memory, offset int) T
	// MulBatchBroadcast multiplies every row of buf (totalLen/rowLen rows of rowLen
	// elements) by vec elementwise.
	MulBatchBroadcast(vec, buf Memory, rowLen, totalLen int)
	// AddBatchBroadcast adds vec to every row of buf.
	AddBatchBroadcast(vec, buf Memory, rowLen, totalLen int)
}

// Normalizer is the generic row normalization every device provides for floating types:
// each of the total/depth rows of in is shifted to zero mean and scaled to unit
// population variance, with epsilon added to the variance. The result goes to out.
type Normalizer[T Float] interface {
	NormalizeRows(in, out Memory, depth, total int, epsilon float64)
}

// BatchNormKernel is an optional vendor-optimised normalization kernel. It views in as
// batch rows of depth elements and normalizes each row, then applies the per-row
// scale and shift (each holding at least batch elements).
//
// Adapters follow a fixed pattern: build a layout descriptor, invoke the kernel,
// release the descriptor.
type BatchNormKernel[T Float] interface {
	Name() string
	BatchNormalize(ctx *Context, in, out, scale, shift Memory, batch, depth int, epsilon float64) error
}

// Transfer copies nbytes from src to dst across a device boundary. It blocks until the
// copy has completed.
type Transfer func(src, dst Memory, nbytes int) error

// Kernels is the dtype-erased view of one (device, dtype) primitive leaf, used by storage
// operations that do not know the element type statically.
type Kernels interface {
	Device() Device
	DType() DataType
	Copy(src, dst Memory, n int)
	Zero(dst Memory, n int)
	FillValue(dst Memory, value any, n int)
	DerefValue(src Memory, offset int) any
}

type erased[T DType] struct {
	device Device
	prims  Primitives[T]
}

func (e erased[T]) Device() Device  { return e.device }
func (e erased[T]) DType() DataType { return DataTypeOf[T]() }

func (e erased[T]) Copy(src, dst Memory, n int) { e.prims.Copy(src, dst, n) }

func (e erased[T]) Zero(dst Memory, n int) {
	var zero T
	e.prims.Fill(dst, zero, n)
}

func (e erased[T]) FillValue(dst Memory, value any, n int) {
	v, ok := value.(T)
	Expect(ok, "fill value %T does not match dtype %s", value, e.DType())
	e.prims.Fill(dst, v, n)
}

func (e erased[T]) DerefValue(src Memory, offset int) any {
	return e.prims.Deref(src, offset)
}
