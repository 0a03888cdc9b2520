//go:build windows

package webgpu

import (
	"encoding/binary"
	"math"

	"github.com/born-ml/tensorcore/internal/tensor"
)

// Verify that primitives implements tensor.Primitives.
var _ tensor.Primitives[float32] = primitives{}

// primitives runs the elementary routines as WGSL compute passes.
type primitives struct {
	b *Backend
}

func (p primitives) Fill(dst tensor.Memory, value float32, n int) {
	tensor.Fatal(p.b.dispatch("fill", fillShader, n, packParams(n, value), bufferOf(dst)), "webgpu fill")
}

func (p primitives) Copy(src, dst tensor.Memory, n int) {
	if n == 0 {
		return
	}
	err := p.b.copyBuffer(bufferOf(src).buf, 0, bufferOf(dst).buf, 0, uint64(4*n)) //nolint:gosec // G115: n >= 0
	tensor.Fatal(err, "webgpu copy")
}

func (p primitives) Deref(src tensor.Memory, offset int) float32 {
	data, err := p.b.readBuffer(bufferOf(src).buf, uint64(4*offset), 4) //nolint:gosec // G115: offset >= 0
	tensor.Fatal(err, "webgpu deref")
	return math.Float32frombits(binary.LittleEndian.Uint32(data))
}

func (p primitives) MulBatchBroadcast(vec, buf tensor.Memory, rowLen, totalLen int) {
	err := p.b.dispatch("mul_broadcast", mulBroadcastShader, totalLen, packParams(totalLen, rowLen), bufferOf(vec), bufferOf(buf))
	tensor.Fatal(err, "webgpu mul broadcast")
}

func (p primitives) AddBatchBroadcast(vec, buf tensor.Memory, rowLen, totalLen int) {
	err := p.b.dispatch("add_broadcast", addBroadcastShader, totalLen, packParams(totalLen, rowLen), bufferOf(vec), bufferOf(buf))
	tensor.Fatal(err, "webgpu add broadcast")
}

// normalizer is the generic row normalization shader.
type normalizer struct {
	b *Backend
}

func (n normalizer) NormalizeRows(in, out tensor.Memory, depth, total int, epsilon float64) {
	rows := total / depth
	err := n.b.dispatch("normalize_rows", normalizeRowsShader, rows, packParams(rows, depth, epsilon), bufferOf(in), bufferOf(out))
	tensor.Fatal(err, "webgpu normalize rows")
}
