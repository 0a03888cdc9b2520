// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network operators over tensor storage.
//
// Example:
//
//	ctx := tensor.NewContext(tensor.CPU)
//	defer ctx.Close()
//
//	ln := nn.NewLayerNorm(768, tensor.Float32, tensor.CPU)
//	out := tensor.New(hidden.Shape(), tensor.Float32, tensor.CPU)
//	ln.Forward(ctx, hidden, out)
package nn

import (
	"github.com/born-ml/tensorcore/internal/nn"
	"github.com/born-ml/tensorcore/tensor"
)

// MinEpsilon is the variance stabilizer of LayerNorm.
const MinEpsilon = nn.MinEpsilon

// LayerNorm normalizes rows to zero mean and unit variance, then applies gamma and beta.
type LayerNorm = nn.LayerNorm

// NewLayerNorm creates a LayerNorm over depth features with gamma ones and beta zeros.
func NewLayerNorm(depth int, dtype tensor.DataType, device tensor.Device) *LayerNorm {
	return nn.NewLayerNorm(depth, dtype, device)
}
