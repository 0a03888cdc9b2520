// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package emulated registers the Emulated accelerator: device memory that is not host
// addressable, backed by pooled anonymous mappings. Import it for its side effect:
//
//	import _ "github.com/born-ml/tensorcore/backend/emulated"
package emulated

import (
	internalemulated "github.com/born-ml/tensorcore/internal/backend/emulated"
)

// PoolStats summarizes device memory pool activity.
type PoolStats = internalemulated.PoolStats

// Stats returns the counters of the device memory pool.
func Stats() PoolStats { return internalemulated.Stats() }

// Trim unmaps every idle region of the device memory pool.
func Trim() { internalemulated.Trim() }
