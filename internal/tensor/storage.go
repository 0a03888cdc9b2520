package tensor

import (
	"fmt"
	"strings"
)

// Storage is a light wrapper around a device buffer that adds shape information.
//
// Storage:
//   - owns its memory (Owned) or views memory owned elsewhere (Borrowed);
//   - can be resized, reshaped, copied, moved and transferred between devices;
//   - erases the element type at runtime and dispatches on (device, dtype) tags so
//     storages of different types can live in one collection.
//
// Invariants: Size() == Shape().NumElements(), Size() <= capacity, strides always
// match the shape. A rank-0 storage is a one-element scalar; an empty storage has
// shape {0}.
//
// A Storage is not safe for concurrent mutation. A Borrowed view must not outlive the
// owner of its memory, and must not be used while the owner is resized or released.
type Storage struct {
	dtype         DataType
	device        Device
	mem           Memory
	own           *allocation // non-nil only for Owned, allocated memory
	ownership     Ownership
	allocatedSize int // elements
	size          int
	shape         Shape
	strides       []int
}

// NewEmpty creates a storage of size 0 for dtype on device without allocating.
func NewEmpty(dtype DataType, device Device) *Storage {
	Expect(IsRegistered(device), "device %s has no registered backend", device)
	s := &Storage{dtype: dtype, device: device}
	s.reset()
	return s
}

// New allocates a zero-initialised storage of the given shape.
func New(shape Shape, dtype DataType, device Device) *Storage {
	return NewEmpty(dtype, device).Resize(shape)
}

// ViewMemory wraps externally owned device memory without copying.
// The storage never frees mem and must not outlive its owner.
func ViewMemory(shape Shape, dtype DataType, mem Memory) *Storage {
	return NewEmpty(dtype, mem.Device()).AssignMemory(mem, shape)
}

func (s *Storage) reset() {
	s.mem = nil
	s.own = nil
	s.ownership = Owned
	s.allocatedSize = 0
	s.clearShape()
}

func (s *Storage) clearShape() {
	s.size = 0
	s.shape = Shape{0}
	s.strides = []int{1}
}

// Device returns the device holding the memory.
func (s *Storage) Device() Device { return s.device }

// DType returns the element type.
func (s *Storage) DType() DataType { return s.dtype }

// Ownership reports whether the storage owns or borrows its memory.
func (s *Storage) Ownership() Ownership { return s.ownership }

// Memory returns the underlying memory region (nil before the first allocation).
// The region may be larger than Size() elements.
func (s *Storage) Memory() Memory { return s.mem }

// Rank returns the number of dimensions.
func (s *Storage) Rank() int { return len(s.shape) }

// Shape returns the storage's shape. The returned slice must not be modified.
func (s *Storage) Shape() Shape { return s.shape }

// Strides returns the row-major strides.
func (s *Storage) Strides() []int { return s.strides }

// Size returns the logical number of elements.
func (s *Storage) Size() int { return s.size }

// IsScalar reports whether the storage is a rank-0 single element.
func (s *Storage) IsScalar() bool { return s.size == 1 && len(s.shape) == 0 }

// Empty reports whether the storage holds no element.
func (s *Storage) Empty() bool { return s.size == 0 }

// Capacity returns the number of allocated elements.
func (s *Storage) Capacity() int { return s.allocatedSize }

// ReservedMemory returns the allocated memory in bytes.
func (s *Storage) ReservedMemory() int { return s.allocatedSize * s.dtype.Size() }

func (s *Storage) resolveDim(dim int) int {
	rank := len(s.shape)
	if dim < 0 {
		dim += rank
	}
	Expect(dim >= 0 && dim < rank, "dimension %d out of range for rank %d", dim, rank)
	return dim
}

// Dim returns the extent of dimension dim. Negative values count from the end.
func (s *Storage) Dim(dim int) int {
	return s.shape[s.resolveDim(dim)]
}

// Stride returns the stride of dimension dim. Negative values count from the end.
func (s *Storage) Stride(dim int) int {
	return s.strides[s.resolveDim(dim)]
}

// Offset returns the flat element offset of indices (dot product with the strides).
func (s *Storage) Offset(indices []int) int {
	Expect(len(indices) <= len(s.shape), "%d indices for rank %d", len(indices), len(s.shape))
	offset := 0
	for i, idx := range indices {
		Expect(idx >= 0 && idx < s.shape[i], "index %d out of range for dimension %d of size %d", idx, i, s.shape[i])
		offset += idx * s.strides[i]
	}
	Expect(offset < s.size, "offset %d out of range for size %d", offset, s.size)
	return offset
}

// Reshape changes the shape without touching memory.
// Panics unless the new shape has exactly Size() elements.
func (s *Storage) Reshape(shape Shape) *Storage {
	if err := shape.Validate(); err != nil {
		panic(err)
	}
	Expect(shape.NumElements() == s.size, "cannot reshape %v (%d elements) to %v", s.shape, s.size, shape)
	s.shape = shape.Clone()
	s.strides = s.shape.ComputeStrides()
	return s
}

// Resize sets a new shape, reallocating when the new size exceeds the capacity.
// Content is discarded on reallocation and memory obtained before is invalidated.
func (s *Storage) Resize(shape Shape) *Storage {
	if err := shape.Validate(); err != nil {
		panic(err)
	}
	n := shape.NumElements()
	if n > s.allocatedSize {
		s.reallocate(n)
	}
	s.size = n
	s.shape = shape.Clone()
	s.strides = s.shape.ComputeStrides()
	return s
}

// ResizeDim sets the extent of one dimension.
func (s *Storage) ResizeDim(dim, n int) *Storage {
	return s.Resize(s.shape.With(s.resolveDim(dim), n))
}

// Grow extends dimension dim by n.
func (s *Storage) Grow(dim, n int) *Storage {
	return s.ResizeDim(dim, s.Dim(dim)+n)
}

// Shrink reduces dimension dim by n.
func (s *Storage) Shrink(dim, n int) *Storage {
	Expect(n <= s.Dim(dim), "cannot shrink dimension %d of size %d by %d", dim, s.Dim(dim), n)
	return s.ResizeDim(dim, s.Dim(dim)-n)
}

// ResizeAs resizes to the shape of other.
func (s *Storage) ResizeAs(other *Storage) *Storage {
	return s.Resize(other.shape)
}

// Reserve ensures room for n elements. Shape, size and content are preserved.
func (s *Storage) Reserve(n int) *Storage {
	if n <= s.allocatedSize {
		return s
	}
	prev, prevOwn, prevOwnership := s.mem, s.own, s.ownership
	shape, size, strides := s.shape, s.size, s.strides

	s.own = allocate(s.device, n*s.dtype.Size())
	s.mem = s.own.mem
	s.ownership = Owned
	s.allocatedSize = n
	if size > 0 {
		KernelsFor(s.device, s.dtype).Copy(prev, s.mem, size)
	}
	if prevOwnership == Owned && prevOwn != nil {
		prevOwn.free()
	}
	s.shape, s.size, s.strides = shape, size, strides
	return s
}

func (s *Storage) reallocate(n int) {
	s.Release()
	s.own = allocate(s.device, n*s.dtype.Size())
	s.mem = s.own.mem
	s.ownership = Owned
	s.allocatedSize = n
}

// Clear sets the size to 0. The memory stays reserved.
func (s *Storage) Clear() *Storage {
	s.clearShape()
	return s
}

// Release frees owned memory and resets capacity and size to 0. On a Borrowed view it
// only drops the view relation; the viewed memory is untouched.
func (s *Storage) Release() *Storage {
	if s.ownership == Owned && s.own != nil {
		s.own.free()
	}
	s.reset()
	return s
}

// Clone returns an independent deep copy on the same device.
func (s *Storage) Clone() *Storage {
	return NewEmpty(s.dtype, s.device).DeepCopy(s)
}

// DeepCopy makes s an independent copy of other: own memory, same dtype, device, shape
// and content.
func (s *Storage) DeepCopy(other *Storage) *Storage {
	if s == other {
		return s
	}
	if s.ownership == Borrowed || s.dtype != other.dtype || s.device != other.device {
		s.Release()
		s.dtype = other.dtype
		s.device = other.device
	}
	s.ResizeAs(other)
	return s.CopyFrom(other)
}

// ShallowCopy makes s a Borrowed alias of other's memory with its own metadata.
func (s *Storage) ShallowCopy(other *Storage) *Storage {
	if s == other {
		return s
	}
	if s.ownership == Owned && sameMemory(s.mem, other.mem) {
		s.dtype = other.dtype
		s.allocatedSize = s.mem.Len() / other.dtype.Size()
		s.size = other.size
		s.shape = other.shape.Clone()
		s.strides = append([]int(nil), other.strides...)
		return s
	}
	s.Release()
	s.dtype = other.dtype
	s.device = other.device
	s.mem = other.mem
	s.ownership = Borrowed
	s.allocatedSize = other.allocatedSize
	s.size = other.size
	s.shape = other.shape.Clone()
	s.strides = append([]int(nil), other.strides...)
	return s
}

// Move transfers every field of s to a new storage and leaves s empty.
func (s *Storage) Move() *Storage {
	moved := *s
	s.reset()
	return &moved
}

// MoveFrom releases the memory of s, takes over every field of other and leaves other
// empty.
func (s *Storage) MoveFrom(other *Storage) *Storage {
	if s == other {
		return s
	}
	s.Release()
	*s = *other
	other.reset()
	return s
}

// Swap exchanges the contents of a and b.
func Swap(a, b *Storage) {
	*a, *b = *b, *a
}

// AssignMemory releases owned memory and adopts mem as a Borrowed view with shape.
// mem must live on the storage's device and hold at least shape.NumElements() elements.
// Assigning the storage's own memory keeps it Owned and only changes the shape.
func (s *Storage) AssignMemory(mem Memory, shape Shape) *Storage {
	if err := shape.Validate(); err != nil {
		panic(err)
	}
	Expect(mem.Device() == s.device, "cannot view %s memory from a %s storage", mem.Device(), s.device)
	n := shape.NumElements()
	Expect(n*s.dtype.Size() <= mem.Len(), "view of %d %s elements exceeds %d bytes", n, s.dtype, mem.Len())

	if s.ownership == Owned && sameMemory(s.mem, mem) {
		s.size = n
		s.shape = shape.Clone()
		s.strides = s.shape.ComputeStrides()
		return s
	}
	s.Release()
	s.mem = mem
	s.ownership = Borrowed
	s.allocatedSize = n
	s.size = n
	s.shape = shape.Clone()
	s.strides = s.shape.ComputeStrides()
	return s
}

// CopyFrom copies the content of other, which must have the same dtype and size.
// Devices may differ.
func (s *Storage) CopyFrom(other *Storage) *Storage {
	Expect(other.dtype == s.dtype, "cannot copy %s into %s", other.dtype, s.dtype)
	return s.CopyFromMemory(other.mem, other.size)
}

// CopyFromMemory copies n elements of s's dtype from mem. n must equal Size(). The copy
// primitive is used within a device and the cross-device transfer otherwise.
func (s *Storage) CopyFromMemory(mem Memory, n int) *Storage {
	Expect(n == s.size, "cannot copy %d elements into storage of size %d", n, s.size)
	if n == 0 {
		return s
	}
	Expect(mem.Len() >= n*s.dtype.Size(), "source of %d bytes is shorter than %d %s elements", mem.Len(), n, s.dtype)
	if mem.Device() == s.device {
		KernelsFor(s.device, s.dtype).Copy(mem, s.mem, n)
	} else {
		CopyAcross(mem, s.mem, n*s.dtype.Size())
	}
	return s
}

// To returns a new storage on device with the same shape and content.
func (s *Storage) To(device Device) *Storage {
	return New(s.shape, s.dtype, device).CopyFrom(s)
}

// Zero sets every element to zero.
func (s *Storage) Zero() *Storage {
	if s.size > 0 {
		KernelsFor(s.device, s.dtype).Zero(s.mem, s.size)
	}
	return s
}

// FillValue sets every element to value, whose dynamic type must match the dtype.
func (s *Storage) FillValue(value any) *Storage {
	if s.size > 0 {
		KernelsFor(s.device, s.dtype).FillValue(s.mem, value, s.size)
	}
	return s
}

// Value returns the element at flat offset i as an interface value, reading through the
// device's deref primitive.
func (s *Storage) Value(i int) any {
	Expect(i >= 0 && i < s.size, "index %d out of range for size %d", i, s.size)
	return KernelsFor(s.device, s.dtype).DerefValue(s.mem, i)
}

const printLimit = 6

// String returns a short description with the leading values.
func (s *Storage) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Storage(%s, %s, shape=%v", s.dtype, s.device, []int(s.shape))
	if s.ownership == Borrowed {
		b.WriteString(", borrowed")
	}
	b.WriteString(")")
	if s.size == 0 {
		return b.String()
	}
	b.WriteString(" [")
	n := min(s.size, printLimit)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprint(&b, s.Value(i))
	}
	if s.size > n {
		b.WriteString(" ...")
	}
	b.WriteString("]")
	return b.String()
}
