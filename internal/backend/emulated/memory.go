package emulated

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/born-ml/tensorcore/internal/tensor"
)

// deviceMemory is a region of emulated device memory. It is deliberately not a
// tensor.HostMemory: host code reaches it only through the registered primitives and
// transfers.
type deviceMemory struct {
	r *region
	n int
}

func (m *deviceMemory) Device() tensor.Device { return tensor.Emulated }
func (m *deviceMemory) Len() int              { return m.n }

func (m *deviceMemory) bytes() []byte {
	return m.r.data[:m.n]
}

func deviceBytes(mem tensor.Memory) []byte {
	m, ok := mem.(*deviceMemory)
	tensor.Expect(ok, "memory on %s is not emulated device memory", mem.Device())
	tensor.Expect(m.r != nil && m.r.data != nil, "emulated memory used after release")
	return m.bytes()
}

// elems interprets device memory as n elements of T.
func elems[T tensor.DType](mem tensor.Memory, n int) []T {
	b := deviceBytes(mem)
	if n == 0 {
		return nil
	}
	var zero T
	tensor.Expect(n*int(unsafe.Sizeof(zero)) <= len(b), "device slice of %d elements exceeds %d bytes", n, len(b))
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked above
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n)
}

// allocator hands out pooled regions.
type allocator struct {
	pool *Pool
}

func (a allocator) Allocate(nbytes int) (tensor.Memory, error) {
	r, err := a.pool.Acquire(nbytes)
	if err != nil {
		return nil, errors.Wrap(err, "emulated: allocate")
	}
	return &deviceMemory{r: r, n: nbytes}, nil
}

func (a allocator) Free(mem tensor.Memory) {
	m := mem.(*deviceMemory)
	if m.r == nil {
		return
	}
	a.pool.Release(m.r)
	m.r = nil
}
