// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu exposes the host backend. It is registered as soon as any tensorcore
// package is imported; this package only adds the tuning knobs.
//
// # Thread Safety
//
// Primitive calls on distinct storages are safe for concurrent use. Broadcasts and
// normalization split rows over goroutines according to the parallel configuration.
package cpu

import (
	internalcpu "github.com/born-ml/tensorcore/internal/backend/cpu"
	"github.com/born-ml/tensorcore/internal/parallel"
)

// Alignment is the byte alignment of every host allocation.
const Alignment = internalcpu.Alignment

// ParallelConfig controls how host loops are split over goroutines.
type ParallelConfig = parallel.Config

// SetParallelConfig sets how host loops are split over goroutines.
func SetParallelConfig(cfg ParallelConfig) { internalcpu.SetParallelConfig(cfg) }

// CurrentParallelConfig returns the host loop configuration in use.
func CurrentParallelConfig() ParallelConfig { return internalcpu.ParallelConfig() }
