package tensor

func expectType[T DType](s *Storage) {
	want := DataTypeOf[T]()
	Expect(want == s.dtype, "storage dtype is %s, not %s", s.dtype, want)
}

// Full allocates a storage of the given shape with every element set to value.
func Full[T DType](shape Shape, value T, device Device) *Storage {
	s := New(shape, DataTypeOf[T](), device)
	return Fill(s, value)
}

// Scalar allocates a rank-0 storage holding value.
func Scalar[T DType](value T, device Device) *Storage {
	return Full(Shape{}, value, device)
}

// FromSlice allocates a storage on device and deep-copies values into it.
// len(values) must equal shape.NumElements().
func FromSlice[T DType](shape Shape, values []T, device Device) *Storage {
	s := New(shape, DataTypeOf[T](), device)
	return CopyFromSlice(s, values)
}

// View wraps a host slice without copying. The storage never frees data and must not
// outlive it.
func View[T DType](shape Shape, data []T) *Storage {
	s := NewEmpty(DataTypeOf[T](), CPU)
	return Assign(s, data, shape)
}

// Assign releases owned memory of s and adopts data as a Borrowed host view with shape.
func Assign[T DType](s *Storage, data []T, shape Shape) *Storage {
	expectType[T](s)
	Expect(s.device == CPU, "cannot view host memory from a %s storage", s.device)
	Expect(len(data) >= shape.NumElements(), "view of shape %v needs %d elements, got %d", shape, shape.NumElements(), len(data))
	return s.AssignMemory(HostBytes(data), shape)
}

// Data returns the host elements of s without copying.
// Panics if T does not match the dtype or s does not live in host memory.
func Data[T DType](s *Storage) []T {
	expectType[T](s)
	if s.size == 0 {
		return nil
	}
	return HostSlice[T](s.mem, s.size)
}

// Index returns a pointer to the host element at indices.
func Index[T DType](s *Storage, indices []int) *T {
	data := Data[T](s)
	return &data[s.Offset(indices)]
}

// At returns the host element at flat offset i.
func At[T DType](s *Storage, i int) T {
	Expect(i >= 0 && i < s.size, "index %d out of range for size %d", i, s.size)
	return Data[T](s)[i]
}

// AtIndex returns the host element at indices.
func AtIndex[T DType](s *Storage, indices []int) T {
	return *Index[T](s, indices)
}

// Set writes the host element at flat offset i.
func Set[T DType](s *Storage, i int, value T) {
	Expect(i >= 0 && i < s.size, "index %d out of range for size %d", i, s.size)
	Data[T](s)[i] = value
}

// ScalarAt reads the element at indices through the device's deref primitive, so it
// works for memory that is not host addressable.
func ScalarAt[T DType](s *Storage, indices []int) T {
	expectType[T](s)
	return PrimitivesFor[T](s.device).Deref(s.mem, s.Offset(indices))
}

// Fill sets every element of s to value with the device fill primitive.
func Fill[T DType](s *Storage, value T) *Storage {
	expectType[T](s)
	if s.size > 0 {
		PrimitivesFor[T](s.device).Fill(s.mem, value, s.size)
	}
	return s
}

// CopyFromSlice copies host values into s. len(values) must equal Size().
func CopyFromSlice[T DType](s *Storage, values []T) *Storage {
	expectType[T](s)
	return s.CopyFromMemory(HostBytes(values), len(values))
}

// ToSlice returns a host copy of the elements of s, whatever its device.
func ToSlice[T DType](s *Storage) []T {
	expectType[T](s)
	out := make([]T, s.size)
	if s.size == 0 {
		return out
	}
	dst := HostBytes(out)
	if s.device == CPU {
		KernelsFor(CPU, s.dtype).Copy(s.mem, dst, s.size)
	} else {
		CopyAcross(s.mem, dst, s.size*s.dtype.Size())
	}
	return out
}
