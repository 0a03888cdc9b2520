package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/born-ml/tensorcore/internal/backend/cpu"
	_ "github.com/born-ml/tensorcore/internal/backend/emulated"
	"github.com/born-ml/tensorcore/internal/tensor"
)

var testDevices = []tensor.Device{tensor.CPU, tensor.Emulated}

// assertStorageEqual checks dtype, shape and every element of two storages, reading
// through the device primitives so either side may live on an accelerator.
func assertStorageEqual(t *testing.T, want, got *tensor.Storage) {
	t.Helper()
	require.Equal(t, want.DType(), got.DType(), "dtype")
	require.Equal(t, want.Shape(), got.Shape(), "shape")
	for i := 0; i < want.Size(); i++ {
		assert.Equal(t, want.Value(i), got.Value(i), "element %d", i)
	}
}

// valueOf returns v converted to the Go type of dtype.
func valueOf(dtype tensor.DataType, v int) any {
	switch dtype {
	case tensor.Float32:
		return float32(v)
	case tensor.Float64:
		return float64(v)
	case tensor.Int8:
		return int8(v)
	case tensor.Int16:
		return int16(v)
	case tensor.Int32:
		return int32(v)
	case tensor.Int64:
		return int64(v)
	case tensor.Uint8:
		return uint8(v)
	}
	panic("unknown dtype")
}

// requireViolation runs f and checks it panics with a contract violation.
func requireViolation(t *testing.T, f func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected a contract violation")
		assert.True(t, tensor.IsContractViolation(r), "unexpected panic: %v", r)
	}()
	f()
}
