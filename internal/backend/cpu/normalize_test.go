package cpu

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRows_KnownValues(t *testing.T) {
	in, x := hostAlloc[float32](t, 4)
	out, y := hostAlloc[float32](t, 4)
	copy(x, []float32{1, 2, 3, 4})

	normalizer[float32]{}.NormalizeRows(in, out, 4, 4, 1e-5)

	want := []float32{-1.3416, -0.4472, 0.4472, 1.3416}
	assert.InDeltaSlice(t, want, y, 1e-3)
}

func TestNormalizeRows_InPlace(t *testing.T) {
	buf, data := hostAlloc[float64](t, 6)
	copy(data, []float64{1, 2, 3, 10, 10, 10})

	normalizer[float64]{}.NormalizeRows(buf, buf, 3, 6, 1e-5)

	assert.InDelta(t, 0, data[1], 1e-9)
	assert.InDelta(t, -data[0], data[2], 1e-9)
	assert.Equal(t, []float64{0, 0, 0}, data[3:])
}

func TestGonumKernel_MatchesGeneric(t *testing.T) {
	const batch, depth = 37, 19
	rng := rand.New(rand.NewPCG(1, 2))

	in, x := hostAlloc[float64](t, batch*depth)
	for i := range x {
		x[i] = rng.NormFloat64()*3 + 1
	}
	scale, gamma := hostAlloc[float64](t, batch)
	shift, _ := hostAlloc[float64](t, batch)
	for i := range gamma {
		gamma[i] = 1
	}

	generic, want := hostAlloc[float64](t, batch*depth)
	normalizer[float64]{}.NormalizeRows(in, generic, depth, batch*depth, 1e-5)

	out, got := hostAlloc[float64](t, batch*depth)
	err := gonumKernel[float64]{}.BatchNormalize(nil, in, out, scale, shift, batch, depth, 1e-5)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, got, 1e-9)
}

func TestGonumKernel_ScaleShift(t *testing.T) {
	in, x := hostAlloc[float32](t, 4)
	out, y := hostAlloc[float32](t, 4)
	scale, gamma := hostAlloc[float32](t, 2)
	shift, beta := hostAlloc[float32](t, 2)
	copy(x, []float32{1, 3, 5, 5})
	copy(gamma, []float32{2, 1})
	copy(beta, []float32{0.5, -1})

	err := gonumKernel[float32]{}.BatchNormalize(nil, in, out, scale, shift, 2, 2, 1e-5)
	require.NoError(t, err)

	n := float32(1 / math.Sqrt(1+1e-5))
	assert.InDeltaSlice(t, []float32{-2*n + 0.5, 2*n + 0.5, -1, -1}, y, 1e-5)
}

func TestGonumKernel_NaNRowPropagates(t *testing.T) {
	in, x := hostAlloc[float64](t, 8)
	out, y := hostAlloc[float64](t, 8)
	scale, gamma := hostAlloc[float64](t, 2)
	shift, _ := hostAlloc[float64](t, 2)
	copy(x, []float64{1, 2, 3, 4, 1, math.NaN(), 3, 4})
	copy(gamma, []float64{1, 1})

	require.NoError(t, gonumKernel[float64]{}.BatchNormalize(nil, in, out, scale, shift, 2, 4, 1e-5))

	assert.InDeltaSlice(t, []float64{-1.3416, -0.4472, 0.4472, 1.3416}, y[:4], 1e-3)
	for j, v := range y[4:] {
		assert.True(t, math.IsNaN(v), "element %d = %v", j, v)
	}
}

func TestGonumKernel_InvalidLayout(t *testing.T) {
	mem, _ := hostAlloc[float32](t, 1)
	k := gonumKernel[float32]{}
	assert.Equal(t, "gonum", k.Name())
	assert.Error(t, k.BatchNormalize(nil, mem, mem, mem, mem, 0, 1, 1e-5))
	assert.Error(t, k.BatchNormalize(nil, mem, mem, mem, mem, 1, 1, 0))
}
