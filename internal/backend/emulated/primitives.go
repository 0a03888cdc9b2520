package emulated

import "github.com/born-ml/tensorcore/internal/tensor"

// primitives runs the elementary routines as single-stream device loops.
type primitives[T tensor.DType] struct{}

func (primitives[T]) Fill(dst tensor.Memory, value T, n int) {
	data := elems[T](dst, n)
	for i := range data {
		data[i] = value
	}
}

func (primitives[T]) Copy(src, dst tensor.Memory, n int) {
	copy(elems[T](dst, n), elems[T](src, n))
}

func (primitives[T]) Deref(src tensor.Memory, offset int) T {
	return elems[T](src, offset+1)[offset]
}

func (primitives[T]) MulBatchBroadcast(vec, buf tensor.Memory, rowLen, totalLen int) {
	v := elems[T](vec, rowLen)
	data := elems[T](buf, totalLen)
	for i := range data {
		data[i] *= v[i%rowLen]
	}
}

func (primitives[T]) AddBatchBroadcast(vec, buf tensor.Memory, rowLen, totalLen int) {
	v := elems[T](vec, rowLen)
	data := elems[T](buf, totalLen)
	for i := range data {
		data[i] += v[i%rowLen]
	}
}
