// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public storage API of tensorcore.
//
// # Overview
//
// A Storage is a device buffer tagged with a shape, an element type and a device. It
// either owns its memory or borrows memory owned elsewhere, and it can be resized,
// reshaped, copied, moved and transferred between devices. Element types are erased at
// runtime: operations select statically typed specializations through a Table keyed by
// (device, dtype).
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/tensorcore/tensor"
//	    _ "github.com/born-ml/tensorcore/backend/emulated"
//	)
//
//	func main() {
//	    x := tensor.FromSlice(tensor.Shape{2, 2}, []float32{1, 2, 3, 4}, tensor.CPU)
//	    y := x.To(tensor.Emulated) // cross-device copy
//	    fmt.Println(tensor.ToSlice[float32](y))
//	}
//
// # Supported Data Types
//
//   - float32, float64 (floating-point)
//   - int8, int16, int32, int64 (signed integers)
//   - uint8 (unsigned integer)
//
// # Errors
//
// Broken preconditions (dtype or size mismatches, out-of-range indices, unregistered
// devices) panic with a *ContractViolation. Backend failures are logged and then raised
// with panic as well: numerics never continue past a failed primitive.
package tensor
