package cpu

import (
	"github.com/born-ml/tensorcore/internal/parallel"
	"github.com/born-ml/tensorcore/internal/tensor"
)

// Verify that primitives implements tensor.Primitives.
var _ tensor.Primitives[float32] = primitives[float32]{}

// primitives is the host implementation of the elementary routines.
type primitives[T tensor.DType] struct{}

func (primitives[T]) Fill(dst tensor.Memory, value T, n int) {
	data := tensor.HostSlice[T](dst, n)
	parallel.Range(n, 1, func(start, end int) {
		chunk := data[start:end]
		for i := range chunk {
			chunk[i] = value
		}
	}, ParallelConfig())
}

func (primitives[T]) Copy(src, dst tensor.Memory, n int) {
	copy(tensor.HostSlice[T](dst, n), tensor.HostSlice[T](src, n))
}

func (primitives[T]) Deref(src tensor.Memory, offset int) T {
	return tensor.HostSlice[T](src, offset+1)[offset]
}

func (primitives[T]) MulBatchBroadcast(vec, buf tensor.Memory, rowLen, totalLen int) {
	v := tensor.HostSlice[T](vec, rowLen)
	data := tensor.HostSlice[T](buf, totalLen)
	forRows(data, rowLen, func(row []T) {
		for j := range row {
			row[j] *= v[j]
		}
	})
}

func (primitives[T]) AddBatchBroadcast(vec, buf tensor.Memory, rowLen, totalLen int) {
	v := tensor.HostSlice[T](vec, rowLen)
	data := tensor.HostSlice[T](buf, totalLen)
	forRows(data, rowLen, func(row []T) {
		for j := range row {
			row[j] += v[j]
		}
	})
}

// forRows calls f on each row of rowLen elements, splitting rows over goroutines.
func forRows[T tensor.DType](data []T, rowLen int, f func(row []T)) {
	if rowLen == 0 {
		return
	}
	rowsRange(len(data)/rowLen, rowLen, func(r int) {
		f(data[r*rowLen : (r+1)*rowLen])
	})
}

// rowsRange calls f for every row index, splitting rows over goroutines.
func rowsRange(rows, rowLen int, f func(r int)) {
	parallel.Range(rows, rowLen, func(start, end int) {
		for r := start; r < end; r++ {
			f(r)
		}
	}, ParallelConfig())
}
