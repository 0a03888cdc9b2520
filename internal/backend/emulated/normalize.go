package emulated

import (
	"math"

	"github.com/pkg/errors"

	"github.com/born-ml/tensorcore/internal/tensor"
)

// normalizer is the generic two-pass row normalization.
type normalizer[T tensor.Float] struct{}

func (normalizer[T]) NormalizeRows(in, out tensor.Memory, depth, total int, epsilon float64) {
	x := elems[T](in, total)
	y := elems[T](out, total)
	for start := 0; start < total; start += depth {
		src, dst := x[start:start+depth], y[start:start+depth]
		var sum float64
		for _, v := range src {
			sum += float64(v)
		}
		mean := sum / float64(depth)
		var sq float64
		for _, v := range src {
			d := float64(v) - mean
			sq += d * d
		}
		inv := 1 / math.Sqrt(sq/float64(depth)+epsilon)
		for j, v := range src {
			dst[j] = T((float64(v) - mean) * inv)
		}
	}
}

// rowDescriptor describes the layout handed to the fused kernel.
type rowDescriptor struct {
	batch, depth int
	epsilon      float64
}

func newRowDescriptor(batch, depth int, epsilon float64) (*rowDescriptor, error) {
	if batch <= 0 || depth <= 0 {
		return nil, errors.Errorf("invalid layout %dx%d", batch, depth)
	}
	if !(epsilon > 0) {
		return nil, errors.Errorf("invalid epsilon %g", epsilon)
	}
	return &rowDescriptor{batch: batch, depth: depth, epsilon: epsilon}, nil
}

func (d *rowDescriptor) release() {
	*d = rowDescriptor{}
}

// fusedKernel computes single-pass (Welford) statistics and applies the per-row scale
// and shift in the same sweep.
type fusedKernel[T tensor.Float] struct{}

func (fusedKernel[T]) Name() string { return "welford" }

func (fusedKernel[T]) BatchNormalize(ctx *tensor.Context, in, out, scale, shift tensor.Memory, batch, depth int, epsilon float64) error {
	if ctx != nil && ctx.Device() != tensor.Emulated {
		return errors.Errorf("emulated: kernel launched on a %s context", ctx.Device())
	}
	desc, err := newRowDescriptor(batch, depth, epsilon)
	if err != nil {
		return errors.Wrap(err, "emulated: create descriptor")
	}
	defer desc.release()

	x := elems[T](in, batch*depth)
	y := elems[T](out, batch*depth)
	gamma := elems[T](scale, batch)
	beta := elems[T](shift, batch)

	for r := 0; r < desc.batch; r++ {
		src := x[r*desc.depth : (r+1)*desc.depth]
		var mean, m2 float64
		for j, v := range src {
			d := float64(v) - mean
			mean += d / float64(j+1)
			m2 += d * (float64(v) - mean)
		}
		k := float64(gamma[r]) / math.Sqrt(m2/float64(desc.depth)+desc.epsilon)
		b := float64(beta[r])
		dst := y[r*desc.depth : (r+1)*desc.depth]
		for j, v := range src {
			dst[j] = T((float64(v)-mean)*k + b)
		}
	}
	return nil
}
