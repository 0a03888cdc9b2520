// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu registers the WebGPU device for float32 storage when an adapter is
// present. The bindings are built on Windows only. Import it for its side effect:
//
//	import _ "github.com/born-ml/tensorcore/backend/webgpu"
//
//	if !webgpu.Available() {
//	    // fall back to tensor.CPU
//	}
package webgpu

import (
	internalwebgpu "github.com/born-ml/tensorcore/internal/backend/webgpu"
)

// Available reports whether the WebGPU device was registered.
func Available() bool { return internalwebgpu.Available() }
