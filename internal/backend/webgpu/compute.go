//go:build windows

package webgpu

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/pkg/errors"
)

const storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

// compileShader compiles WGSL shader code into a ShaderModule.
// Results are cached in the Backend's shaders map.
func (b *Backend) compileShader(name, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, exists := b.shaders[name]; exists {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	shader := b.device.CreateShaderModuleWGSL(code)

	b.mu.Lock()
	b.shaders[name] = shader
	b.mu.Unlock()
	return shader
}

// pipeline returns the cached compute pipeline for a shader, creating it on first use.
func (b *Backend) pipeline(name, code string) *wgpu.ComputePipeline {
	b.mu.RLock()
	if p, exists := b.pipelines[name]; exists {
		b.mu.RUnlock()
		return p
	}
	b.mu.RUnlock()

	// Auto layout (nil layout)
	p := b.device.CreateComputePipelineSimple(nil, b.compileShader(name, code), "main")

	b.mu.Lock()
	b.pipelines[name] = p
	b.mu.Unlock()
	return p
}

// alignedSize rounds n up to a multiple of 4 bytes, with a 4 byte minimum.
func alignedSize(n int) uint64 {
	return uint64(max((n+3)&^3, 4)) //nolint:gosec // G115: non-negative by construction
}

// createBuffer creates a GPU buffer initialised with data.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := alignedSize(len(data))
	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()
	return buffer
}

// createUniformBuffer creates a uniform buffer padded to 16 bytes.
func (b *Backend) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64((len(data) + 15) &^ 15) //nolint:gosec // G115: non-negative
	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()
	return buffer
}

// maxWorkgroupsPerDim is the default limit on workgroups along one grid dimension.
const maxWorkgroupsPerDim = 65535

// grid lays out the workgroups needed for invocations over x and y, keeping both
// dimensions within maxWorkgroupsPerDim. Shaders linearize the index as
// id.y * num_workgroups.x * workgroupSize + id.x.
func grid(invocations int) (x, y uint32, err error) {
	groups := (invocations + workgroupSize - 1) / workgroupSize
	rows := (groups + maxWorkgroupsPerDim - 1) / maxWorkgroupsPerDim
	if rows > maxWorkgroupsPerDim {
		return 0, 0, errors.Errorf("webgpu: %d invocations exceed the dispatch grid", invocations)
	}
	if rows <= 1 {
		return uint32(groups), 1, nil //nolint:gosec // G115: bounded by maxWorkgroupsPerDim
	}
	cols := (groups + rows - 1) / rows
	return uint32(cols), uint32(rows), nil //nolint:gosec // G115: bounded by maxWorkgroupsPerDim
}

// checked runs f inside a validation error scope and reports what the device caught.
func (b *Backend) checked(op string, f func() error) error {
	b.device.PushErrorScope(wgpu.ErrorFilterValidation)
	ferr := f()
	errType, msg, err := b.device.PopErrorScopeAsync(b.instance)
	if ferr != nil {
		return ferr
	}
	if err != nil {
		return errors.Wrapf(err, "webgpu: %s: pop error scope", op)
	}
	if errType != wgpu.ErrorTypeNoError {
		return errors.Errorf("webgpu: %s: %s", op, msg)
	}
	return nil
}

// copyBuffer copies size bytes between two device buffers and submits the copy.
func (b *Backend) copyBuffer(src *wgpu.Buffer, srcOffset uint64, dst *wgpu.Buffer, dstOffset, size uint64) error {
	return b.checked("copy", func() error {
		encoder := b.device.CreateCommandEncoder(nil)
		encoder.CopyBufferToBuffer(src, srcOffset, dst, dstOffset, size)
		b.queue.Submit(encoder.Finish(nil))
		return nil
	})
}

// readBuffer reads size bytes at offset back to host memory through a staging buffer.
func (b *Backend) readBuffer(src *wgpu.Buffer, offset, size uint64) ([]byte, error) {
	staging := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	if err := b.copyBuffer(src, offset, staging, 0, size); err != nil {
		return nil, err
	}

	if err := staging.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, errors.Wrap(err, "webgpu: map staging buffer")
	}
	mappedPtr := staging.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)
	staging.Unmap()
	return result, nil
}

// stage returns a device copy of m. The caller releases the returned buffer.
func (b *Backend) stage(m *gpuMemory) (*wgpu.Buffer, error) {
	buf := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: storageUsage,
		Size:  m.size,
	})
	if buf == nil {
		return nil, errors.Errorf("webgpu: create scratch buffer of %d bytes", m.size)
	}
	if err := b.copyBuffer(m.buf, 0, buf, 0, m.size); err != nil {
		buf.Release()
		return nil, err
	}
	return buf, nil
}

// dispatch binds buffers (storage bindings first, uniform params last) and runs
// invocations instances of the shader. Shaders declare their written binding last; a
// buffer that is also bound at a later position is read from a staged copy, since one
// buffer cannot be bound as both read and read_write storage.
func (b *Backend) dispatch(name, code string, invocations int, params []byte, buffers ...*gpuMemory) error {
	if invocations == 0 {
		return nil
	}
	x, y, err := grid(invocations)
	if err != nil {
		return err
	}

	bound := make([]*wgpu.Buffer, len(buffers))
	for i, m := range buffers {
		bound[i] = m.buf
		for _, later := range buffers[i+1:] {
			if later.buf != m.buf {
				continue
			}
			scratch, err := b.stage(m)
			if err != nil {
				return err
			}
			defer scratch.Release()
			bound[i] = scratch
			break
		}
	}

	return b.checked(name, func() error {
		pipeline := b.pipeline(name, code)

		uniform := b.createUniformBuffer(params)
		defer uniform.Release()

		entries := make([]wgpu.BindGroupEntry, 0, len(buffers)+1)
		for i, m := range buffers {
			//nolint:gosec // G115: binding index is small
			entries = append(entries, wgpu.BufferBindingEntry(uint32(i), bound[i], 0, m.size))
		}
		//nolint:gosec // G115: binding index is small
		entries = append(entries, wgpu.BufferBindingEntry(uint32(len(buffers)), uniform, 0, uint64((len(params)+15)&^15)))

		bindGroup := b.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), entries)
		defer bindGroup.Release()

		encoder := b.device.CreateCommandEncoder(nil)
		computePass := encoder.BeginComputePass(nil)
		computePass.SetPipeline(pipeline)
		computePass.SetBindGroup(0, bindGroup, nil)
		computePass.DispatchWorkgroups(x, y, 1)
		computePass.End()
		b.queue.Submit(encoder.Finish(nil))
		return nil
	})
}

// packParams encodes uniform fields little-endian. Ints become u32, float64 becomes f32.
func packParams(fields ...any) []byte {
	out := make([]byte, 4*len(fields))
	for i, f := range fields {
		var bits uint32
		switch v := f.(type) {
		case int:
			bits = uint32(v) //nolint:gosec // G115: sizes are validated by callers
		case float32:
			bits = math.Float32bits(v)
		case float64:
			bits = math.Float32bits(float32(v))
		default:
			panic(errors.Errorf("webgpu: unsupported param %T", f))
		}
		binary.LittleEndian.PutUint32(out[4*i:], bits)
	}
	return out
}
