package nn

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/born-ml/tensorcore/internal/tensor"
)

// MinEpsilon is the variance stabilizer used by both normalization paths.
const MinEpsilon = 1e-5

var log = tensor.Logger("nn")

// LayerNorm normalizes every row of its input to zero mean and unit population variance
// and then applies a per-feature affine transform.
//
// Formula: Y = gamma * (X - mean(X)) / sqrt(var(X) + eps) + beta
//
// Where:
//   - X is viewed as batch = size/depth contiguous rows of depth elements
//   - gamma is the scale parameter [depth]
//   - beta is the shift parameter [depth]
//   - eps is MinEpsilon
//
// When the device has a vendor normalization kernel and Generic is false, the statistics
// step runs on that kernel with neutral per-row parameters; otherwise the device's
// generic row normalizer runs. Both paths finish with the same two broadcast primitives.
//
// Example:
//
//	ctx := tensor.NewContext(tensor.CPU)
//	defer ctx.Close()
//	ln := nn.NewLayerNorm(768, tensor.Float32, tensor.CPU)
//	out := tensor.New(hidden.Shape(), tensor.Float32, tensor.CPU)
//	ln.Forward(ctx, hidden, out) // [..., 768] -> [..., 768]
type LayerNorm struct {
	Gamma   *tensor.Storage // scale [depth]
	Beta    *tensor.Storage // shift [depth]
	Generic bool            // skip the vendor kernel
}

// NewLayerNorm creates a LayerNorm over depth features with gamma set to ones and beta
// to zeros. dtype must be a floating point type.
func NewLayerNorm(depth int, dtype tensor.DataType, device tensor.Device) *LayerNorm {
	tensor.Expect(dtype.IsFloat(), "layernorm needs a floating point dtype, got %s", dtype)
	return &LayerNorm{
		Gamma: tensor.New(tensor.Shape{depth}, dtype, device).FillValue(one(dtype)),
		Beta:  tensor.New(tensor.Shape{depth}, dtype, device),
	}
}

// Depth returns the number of features per row.
func (l *LayerNorm) Depth() int {
	return l.Gamma.Size()
}

// Forward normalizes input into output, which must already have input's size.
// Input and output may be the same storage.
//
// Panics with a tensor.ContractViolation on dtype, device or size mismatches, and aborts
// if the device kernel fails.
func (l *LayerNorm) Forward(ctx *tensor.Context, input, output *tensor.Storage) {
	tensor.Expect(ctx != nil, "layernorm needs an execution context")
	device, dtype := input.Device(), input.DType()
	tensor.Expect(ctx.Device() == device, "context drives %s, input lives on %s", ctx.Device(), device)
	for _, arg := range []struct {
		name string
		s    *tensor.Storage
	}{{"output", output}, {"gamma", l.Gamma}, {"beta", l.Beta}} {
		tensor.Expect(arg.s.DType() == dtype, "%s is %s, input is %s", arg.name, arg.s.DType(), dtype)
		tensor.Expect(arg.s.Device() == device, "%s lives on %s, input on %s", arg.name, arg.s.Device(), device)
	}

	depth := l.Gamma.Size()
	size := input.Size()
	tensor.Expect(depth > 0, "layernorm depth must be positive")
	tensor.Expect(l.Beta.Size() == depth, "beta has %d elements, gamma %d", l.Beta.Size(), depth)
	tensor.Expect(size%depth == 0, "depth %d does not divide input size %d", depth, size)
	batch := size / depth
	tensor.Expect(batch > 0, "layernorm on an empty input")
	tensor.Expect(output.Size() == size, "output has %d elements, input %d", output.Size(), size)

	forwardTable.Lookup(device, dtype)(l, ctx, input, output, batch, depth)
}

// forwardFunc is one (device, dtype) specialization of Forward.
type forwardFunc func(l *LayerNorm, ctx *tensor.Context, input, output *tensor.Storage, batch, depth int)

var forwardTable tensor.Table[forwardFunc]

func init() {
	for _, device := range []tensor.Device{tensor.CPU, tensor.Emulated} {
		forwardTable.Register(device, tensor.Float32, forward[float32])
		forwardTable.Register(device, tensor.Float64, forward[float64])
	}
	forwardTable.Register(tensor.WebGPU, tensor.Float32, forward[float32])
}

func forward[T tensor.Float](l *LayerNorm, ctx *tensor.Context, input, output *tensor.Storage, batch, depth int) {
	device := input.Device()
	total := batch * depth

	if k, ok := tensor.BatchNormKernelFor[T](device); ok && !l.Generic {
		params := neutralParamsFor[T](ctx, batch)
		err := k.BatchNormalize(ctx, input.Memory(), output.Memory(), params.scale.Memory(), params.shift.Memory(), batch, depth, MinEpsilon)
		tensor.Fatal(errors.Wrapf(err, "%s kernel", k.Name()), "layernorm "+device.String())
	} else {
		tensor.NormalizerFor[T](device).NormalizeRows(input.Memory(), output.Memory(), depth, total, MinEpsilon)
	}

	prims := tensor.PrimitivesFor[T](device)
	prims.MulBatchBroadcast(l.Gamma.Memory(), output.Memory(), depth, total)
	prims.AddBatchBroadcast(l.Beta.Memory(), output.Memory(), depth, total)
}

// neutralParams holds per-row scale ones and shift zeros for the vendor kernel. It lives
// in the execution context and only grows.
type neutralParams struct {
	scale, shift *tensor.Storage
}

// Release frees both buffers. Called by tensor.Context.Close.
func (p *neutralParams) Release() {
	p.scale.Release()
	p.shift.Release()
}

type neutralKey struct {
	dtype tensor.DataType
}

func neutralParamsFor[T tensor.Float](ctx *tensor.Context, batch int) *neutralParams {
	key := neutralKey{dtype: tensor.DataTypeOf[T]()}
	var p *neutralParams
	if v, ok := ctx.Resource(key); ok {
		p = v.(*neutralParams)
	} else {
		p = &neutralParams{
			scale: tensor.NewEmpty(key.dtype, ctx.Device()),
			shift: tensor.NewEmpty(key.dtype, ctx.Device()),
		}
		ctx.SetResource(key, p)
	}

	if p.scale.Size() < batch {
		log.WithFields(logrus.Fields{
			"context": ctx.ID(),
			"dtype":   key.dtype,
			"from":    p.scale.Size(),
			"to":      batch,
		}).Debug("growing neutral normalization parameters")
		tensor.Fill(p.scale.Resize(tensor.Shape{batch}), T(1))
		tensor.Fill(p.shift.Resize(tensor.Shape{batch}), T(0))
	}
	return p
}

func one(dtype tensor.DataType) any {
	if dtype == tensor.Float64 {
		return float64(1)
	}
	return float32(1)
}
