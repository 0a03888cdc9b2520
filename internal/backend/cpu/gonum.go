package cpu

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/born-ml/tensorcore/internal/parallel"
	"github.com/born-ml/tensorcore/internal/tensor"
)

// gonumKernel normalizes rows with gonum's population statistics.
type gonumKernel[T tensor.Float] struct{}

func (gonumKernel[T]) Name() string { return "gonum" }

// statsDescriptor is the layout handed to the statistics kernel.
type statsDescriptor struct {
	batch, depth int
	epsilon      float64
}

func newStatsDescriptor(batch, depth int, epsilon float64) (*statsDescriptor, error) {
	if batch <= 0 || depth <= 0 {
		return nil, errors.Errorf("invalid layout %dx%d", batch, depth)
	}
	if epsilon <= 0 || math.IsNaN(epsilon) {
		return nil, errors.Errorf("invalid epsilon %g", epsilon)
	}
	return &statsDescriptor{batch: batch, depth: depth, epsilon: epsilon}, nil
}

func (d *statsDescriptor) release() {
	d.batch, d.depth = 0, 0
}

func (gonumKernel[T]) BatchNormalize(_ *tensor.Context, in, out, scale, shift tensor.Memory, batch, depth int, epsilon float64) error {
	desc, err := newStatsDescriptor(batch, depth, epsilon)
	if err != nil {
		return errors.Wrap(err, "gonum: create descriptor")
	}
	defer desc.release()

	x := tensor.HostSlice[T](in, batch*depth)
	y := tensor.HostSlice[T](out, batch*depth)
	gamma := tensor.HostSlice[T](scale, batch)
	beta := tensor.HostSlice[T](shift, batch)

	parallel.Range(desc.batch, desc.depth, func(start, end int) {
		row := make([]float64, desc.depth)
		for r := start; r < end; r++ {
			src := x[r*desc.depth : (r+1)*desc.depth]
			for j, v := range src {
				row[j] = float64(v)
			}
			// NaN in a row propagates to every element of that row.
			mean, variance := stat.PopMeanVariance(row, nil)
			floats.AddConst(-mean, row)
			floats.Scale(float64(gamma[r])/math.Sqrt(variance+desc.epsilon), row)
			floats.AddConst(float64(beta[r]), row)

			dst := y[r*desc.depth : (r+1)*desc.depth]
			for j, v := range row {
				dst[j] = T(v)
			}
		}
	}, ParallelConfig())
	return nil
}
