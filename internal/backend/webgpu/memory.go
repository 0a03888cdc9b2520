//go:build windows

package webgpu

import (
	"math"

	"github.com/go-webgpu/webgpu/wgpu"
	"github.com/pkg/errors"

	"github.com/born-ml/tensorcore/internal/tensor"
)

// gpuMemory is a WebGPU storage buffer. size is the buffer size (4 byte aligned), n the
// logical length in bytes.
type gpuMemory struct {
	buf  *wgpu.Buffer
	size uint64
	n    int
}

func (m *gpuMemory) Device() tensor.Device { return tensor.WebGPU }
func (m *gpuMemory) Len() int              { return m.n }

func bufferOf(mem tensor.Memory) *gpuMemory {
	m, ok := mem.(*gpuMemory)
	tensor.Expect(ok, "memory on %s is not a WebGPU buffer", mem.Device())
	tensor.Expect(m.buf != nil, "WebGPU buffer used after release")
	return m
}

// allocator creates zero-initialised storage buffers.
type allocator struct {
	b *Backend
}

func (a allocator) Allocate(nbytes int) (tensor.Memory, error) {
	if nbytes < 0 || nbytes > math.MaxUint32 {
		return nil, errors.Errorf("webgpu: invalid allocation size %d", nbytes)
	}
	size := alignedSize(nbytes)
	buf := a.b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: storageUsage,
		Size:  size,
	})
	if buf == nil {
		return nil, errors.Errorf("webgpu: create buffer of %d bytes", size)
	}
	return &gpuMemory{buf: buf, size: size, n: nbytes}, nil
}

func (a allocator) Free(mem tensor.Memory) {
	m := mem.(*gpuMemory)
	if m.buf != nil {
		m.buf.Release()
		m.buf = nil
	}
}

func (b *Backend) upload(src, dst tensor.Memory, nbytes int) error {
	host, ok := src.(tensor.HostMemory)
	if !ok {
		return errors.Errorf("webgpu: upload from %s memory", src.Device())
	}
	if nbytes == 0 {
		return nil
	}
	if nbytes%4 != 0 || nbytes > len(host) || nbytes > dst.Len() {
		return errors.Errorf("webgpu: invalid upload of %d bytes", nbytes)
	}
	staging := b.createBuffer(host[:nbytes], wgpu.BufferUsageCopySrc)
	defer staging.Release()
	return b.copyBuffer(staging, 0, bufferOf(dst).buf, 0, uint64(nbytes)) //nolint:gosec // G115: checked above
}

func (b *Backend) download(src, dst tensor.Memory, nbytes int) error {
	host, ok := dst.(tensor.HostMemory)
	if !ok {
		return errors.Errorf("webgpu: download to %s memory", dst.Device())
	}
	if nbytes == 0 {
		return nil
	}
	if nbytes%4 != 0 || nbytes > len(host) || nbytes > src.Len() {
		return errors.Errorf("webgpu: invalid download of %d bytes", nbytes)
	}
	data, err := b.readBuffer(bufferOf(src).buf, 0, uint64(nbytes)) //nolint:gosec // G115: checked above
	if err != nil {
		return err
	}
	copy(host, data)
	return nil
}
