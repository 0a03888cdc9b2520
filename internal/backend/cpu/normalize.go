package cpu

import (
	"math"

	"github.com/born-ml/tensorcore/internal/tensor"
)

// normalizer is the generic two-pass row normalization.
type normalizer[T tensor.Float] struct{}

func (normalizer[T]) NormalizeRows(in, out tensor.Memory, depth, total int, epsilon float64) {
	x := tensor.HostSlice[T](in, total)
	y := tensor.HostSlice[T](out, total)
	rows := total / depth
	forRowPairs(x, y, depth, rows, func(src, dst []T) {
		normalizeRow(src, dst, epsilon)
	})
}

// normalizeRow writes (src - mean) / sqrt(var + epsilon) to dst, accumulating in float64.
// src and dst may be the same slice.
func normalizeRow[T tensor.Float](src, dst []T, epsilon float64) {
	n := float64(len(src))

	var sum float64
	for _, v := range src {
		sum += float64(v)
	}
	mean := sum / n

	var sq float64
	for _, v := range src {
		d := float64(v) - mean
		sq += d * d
	}
	inv := 1 / math.Sqrt(sq/n+epsilon)

	for j, v := range src {
		dst[j] = T((float64(v) - mean) * inv)
	}
}

func forRowPairs[T tensor.DType](x, y []T, depth, rows int, f func(src, dst []T)) {
	rowsRange(rows, depth, func(r int) {
		f(x[r*depth:(r+1)*depth], y[r*depth:(r+1)*depth])
	})
}
