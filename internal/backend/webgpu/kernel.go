//go:build windows

package webgpu

import (
	"github.com/pkg/errors"

	"github.com/born-ml/tensorcore/internal/tensor"
)

// batchNormKernel is the fused normalization shader: statistics, scale and shift in one
// pass per row.
type batchNormKernel struct {
	b *Backend
}

func (batchNormKernel) Name() string { return "wgsl-fused" }

func (k batchNormKernel) BatchNormalize(ctx *tensor.Context, in, out, scale, shift tensor.Memory, batch, depth int, epsilon float64) error {
	if ctx != nil && ctx.Device() != tensor.WebGPU {
		return errors.Errorf("webgpu: kernel launched on a %s context", ctx.Device())
	}
	if batch <= 0 || depth <= 0 {
		return errors.Errorf("webgpu: invalid layout %dx%d", batch, depth)
	}
	if !(epsilon > 0) {
		return errors.Errorf("webgpu: invalid epsilon %g", epsilon)
	}
	return k.b.dispatch("batch_norm", batchNormShader, batch, packParams(batch, depth, epsilon),
		bufferOf(in), bufferOf(scale), bufferOf(shift), bufferOf(out))
}
