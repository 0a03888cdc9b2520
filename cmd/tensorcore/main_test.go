package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/tensorcore/internal/tensor"
)

func TestDeviceInfos(t *testing.T) {
	infos := deviceInfos()
	require.NotEmpty(t, infos)

	byName := make(map[string]deviceInfo)
	for _, info := range infos {
		byName[info.Device] = info
	}

	cpu := byName["CPU"]
	assert.True(t, cpu.Host)
	assert.Equal(t, "cpu", cpu.Backend)
	assert.Len(t, cpu.DataTypes, 7)
	assert.Equal(t, []string{"gonum/float32", "gonum/float64"}, cpu.VendorKernels)
	assert.Nil(t, cpu.Pool)

	emu := byName["Emulated"]
	assert.False(t, emu.Host)
	assert.Equal(t, []string{"welford/float32", "welford/float64"}, emu.VendorKernels)
	assert.NotNil(t, emu.Pool)
}

func TestRunLayerNorm(t *testing.T) {
	for _, device := range []tensor.Device{tensor.CPU, tensor.Emulated} {
		for _, generic := range []bool{false, true} {
			res, err := runLayerNorm(layerNormRun{
				Device: device, DType: tensor.Float64, Batch: 4, Depth: 16, Generic: generic, Seed: 3,
			})
			require.NoError(t, err)
			assert.Less(t, res.MaxDeviation, 1e-9)
			if generic {
				assert.Equal(t, "generic", res.Path)
			} else {
				assert.Equal(t, "vendor", res.Path)
			}
		}
	}

	res, err := runLayerNorm(layerNormRun{Device: tensor.Emulated, DType: tensor.Float32, Batch: 3, Depth: 5, Seed: 9})
	require.NoError(t, err)
	assert.Less(t, res.MaxDeviation, 1e-4)
}

func TestRunLayerNorm_Errors(t *testing.T) {
	_, err := runLayerNorm(layerNormRun{Device: tensor.CPU, DType: tensor.Int32, Batch: 1, Depth: 1})
	assert.Error(t, err)

	_, err = runLayerNorm(layerNormRun{Device: tensor.CUDA, DType: tensor.Float32, Batch: 1, Depth: 1})
	assert.Error(t, err)

	_, err = runLayerNorm(layerNormRun{Device: tensor.CPU, DType: tensor.Float32, Batch: 0, Depth: 4})
	assert.Error(t, err)
}
