package tensor

import (
	"runtime"
	"unsafe"

	"github.com/sirupsen/logrus"
)

// Memory is a region of device memory. Only host memory exposes its bytes; memory of
// other devices is reached exclusively through that device's primitives.
type Memory interface {
	// Device returns the device owning the region.
	Device() Device
	// Len returns the region length in bytes.
	Len() int
}

// HostMemory is directly addressable CPU memory.
type HostMemory []byte

// Device returns CPU.
func (m HostMemory) Device() Device { return CPU }

// Len returns the region length in bytes.
func (m HostMemory) Len() int { return len(m) }

// HostSlice interprets host memory as n elements of T.
// Panics if mem does not live on the host.
func HostSlice[T DType](mem Memory, n int) []T {
	host, ok := mem.(HostMemory)
	Expect(ok, "memory on %s is not host addressable", deviceOf(mem))
	if n == 0 {
		return nil
	}
	var zero T
	Expect(n*int(unsafe.Sizeof(zero)) <= len(host), "host slice of %d elements exceeds %d bytes", n, len(host))
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked above
	return unsafe.Slice((*T)(unsafe.Pointer(&host[0])), n)
}

// HostBytes returns the bytes backing a host slice without copying.
func HostBytes[T DType](data []T) HostMemory {
	if len(data) == 0 {
		return HostMemory{}
	}
	var zero T
	//nolint:gosec // unsafe.Slice for zero-copy access over the caller's slice
	return HostMemory(unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*int(unsafe.Sizeof(zero))))
}

func deviceOf(mem Memory) string {
	if mem == nil {
		return "<nil>"
	}
	return mem.Device().String()
}

// Allocator hands out zero-initialised memory for one device.
type Allocator interface {
	Allocate(nbytes int) (Memory, error)
	Free(mem Memory)
}

// Ownership tells whether a storage may release its memory.
type Ownership int

const (
	// Owned memory was allocated by the storage and is released by it.
	Owned Ownership = iota
	// Borrowed memory belongs to someone else; the storage never frees it and must not
	// outlive the owner.
	Borrowed
)

func (o Ownership) String() string {
	if o == Borrowed {
		return "borrowed"
	}
	return "owned"
}

// allocation is the release authority for an owned region. If the owning storage is
// dropped without Release, the runtime cleanup returns the region to its allocator.
type allocation struct {
	mem     Memory
	alloc   Allocator
	cleanup runtime.Cleanup
}

type cleanupArg struct {
	mem   Memory
	alloc Allocator
}

func allocate(device Device, nbytes int) *allocation {
	alloc := allocatorFor(device)
	mem, err := alloc.Allocate(nbytes)
	if err != nil {
		Fatal(err, "allocate "+device.String())
	}
	a := &allocation{mem: mem, alloc: alloc}
	a.cleanup = runtime.AddCleanup(a, func(arg cleanupArg) {
		arg.alloc.Free(arg.mem)
	}, cleanupArg{mem: mem, alloc: alloc})
	log.WithFields(logrus.Fields{"device": device, "bytes": nbytes}).Debug("allocated")
	return a
}

func (a *allocation) free() {
	a.cleanup.Stop()
	a.alloc.Free(a.mem)
	log.WithFields(logrus.Fields{"device": a.mem.Device(), "bytes": a.mem.Len()}).Debug("released")
	a.mem = nil
}

// sameMemory reports whether a and b are the same memory handle. Host memory matches
// when both slices start at the same address.
func sameMemory(a, b Memory) bool {
	if a == nil || b == nil {
		return false
	}
	ha, aHost := a.(HostMemory)
	hb, bHost := b.(HostMemory)
	if aHost || bHost {
		return aHost && bHost && len(ha) > 0 && len(hb) > 0 && &ha[0] == &hb[0]
	}
	return a == b
}
