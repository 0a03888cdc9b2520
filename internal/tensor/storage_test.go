package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/tensorcore/internal/tensor"
)

func TestStorage_FillReadback(t *testing.T) {
	shapes := []tensor.Shape{{}, {1}, {7}, {2, 3}, {2, 3, 4}, {1, 1, 5, 1}}
	for _, device := range testDevices {
		for _, dtype := range tensor.DataTypes() {
			for _, shape := range shapes {
				s := tensor.New(shape, dtype, device)
				require.Equal(t, shape.NumElements(), s.Size())
				require.Equal(t, len(shape), s.Rank())

				want := valueOf(dtype, 3)
				s.FillValue(want)
				for i := 0; i < s.Size(); i++ {
					assert.Equal(t, want, s.Value(i), "%s %s %v element %d", device, dtype, shape, i)
				}
				s.Release()
			}
		}
	}
}

func TestStorage_NewIsZeroed(t *testing.T) {
	for _, device := range testDevices {
		s := tensor.New(tensor.Shape{4, 4}, tensor.Int64, device)
		assert.Equal(t, make([]int64, 16), tensor.ToSlice[int64](s))
	}
}

func TestStorage_Empty(t *testing.T) {
	s := tensor.NewEmpty(tensor.Float32, tensor.CPU)
	assert.True(t, s.Empty())
	assert.Equal(t, 0, s.Size())
	assert.Equal(t, 0, s.Capacity())
	assert.Equal(t, tensor.Shape{0}, s.Shape())
	assert.Equal(t, []int{1}, s.Strides())
	assert.Nil(t, s.Memory())
	assert.Equal(t, tensor.Owned, s.Ownership())
}

func TestStorage_Scalar(t *testing.T) {
	for _, device := range testDevices {
		s := tensor.Scalar(float64(2.5), device)
		assert.True(t, s.IsScalar())
		assert.Equal(t, 0, s.Rank())
		assert.Equal(t, 1, s.Size())
		assert.Equal(t, 2.5, tensor.ScalarAt[float64](s, nil))
	}
}

func TestStorage_ShapeAccessors(t *testing.T) {
	s := tensor.New(tensor.Shape{2, 3, 4}, tensor.Float32, tensor.CPU)
	assert.Equal(t, []int{12, 4, 1}, s.Strides())
	assert.Equal(t, 4, s.Dim(-1))
	assert.Equal(t, 2, s.Dim(0))
	assert.Equal(t, 4, s.Stride(1))
	assert.Equal(t, 1, s.Stride(-1))
	assert.Equal(t, 1*12+2*4+3, s.Offset([]int{1, 2, 3}))
	assert.Equal(t, 4, s.Offset([]int{0, 1}))
	assert.Equal(t, 24*4, s.ReservedMemory())

	requireViolation(t, func() { s.Dim(3) })
	requireViolation(t, func() { s.Dim(-4) })
	requireViolation(t, func() { s.Offset([]int{2, 0, 0}) })
	requireViolation(t, func() { s.Offset([]int{0, 0, 0, 0}) })
}

func TestStorage_NegativeDimension(t *testing.T) {
	requireViolation(t, func() { tensor.New(tensor.Shape{2, -1}, tensor.Float32, tensor.CPU) })

	s := tensor.New(tensor.Shape{4}, tensor.Float32, tensor.CPU)
	requireViolation(t, func() { s.Resize(tensor.Shape{-4}) })
	requireViolation(t, func() { s.Reshape(tensor.Shape{-2, -2}) })
}

func TestStorage_Reshape(t *testing.T) {
	s := tensor.FromSlice(tensor.Shape{2, 6}, []int32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, tensor.CPU)
	mem := s.Memory()

	s.Reshape(tensor.Shape{3, 2, 2})
	assert.Equal(t, tensor.Shape{3, 2, 2}, s.Shape())
	assert.Equal(t, []int{4, 2, 1}, s.Strides())
	assert.Equal(t, int32(7), tensor.AtIndex[int32](s, []int{1, 1, 1}))
	assert.Equal(t, mem, s.Memory())

	requireViolation(t, func() { s.Reshape(tensor.Shape{5, 2}) })
	assert.Equal(t, tensor.Shape{3, 2, 2}, s.Shape())
}

func TestStorage_ResizeWithinCapacityKeepsMemory(t *testing.T) {
	s := tensor.New(tensor.Shape{4, 4}, tensor.Float32, tensor.CPU)
	tensor.Fill(s, float32(1))
	mem := s.Memory()

	s.Resize(tensor.Shape{2, 3})
	assert.Equal(t, 6, s.Size())
	assert.Equal(t, 16, s.Capacity())
	assert.Equal(t, mem, s.Memory())
	assert.Equal(t, []float32{1, 1, 1, 1, 1, 1}, tensor.Data[float32](s))
}

func TestStorage_ResizeReallocates(t *testing.T) {
	for _, device := range testDevices {
		s := tensor.Full(tensor.Shape{2}, int16(9), device)
		s.Resize(tensor.Shape{3, 3})
		assert.Equal(t, 9, s.Size())
		assert.Equal(t, 9, s.Capacity())
		assert.Equal(t, tensor.Owned, s.Ownership())
	}
}

func TestStorage_ResizeDimGrowShrink(t *testing.T) {
	s := tensor.New(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)

	s.Grow(0, 2)
	assert.Equal(t, tensor.Shape{4, 3}, s.Shape())
	s.Shrink(-1, 1)
	assert.Equal(t, tensor.Shape{4, 2}, s.Shape())
	s.ResizeDim(1, 5)
	assert.Equal(t, tensor.Shape{4, 5}, s.Shape())
	assert.Equal(t, 20, s.Size())

	requireViolation(t, func() { s.Shrink(0, 5) })

	other := tensor.New(tensor.Shape{7}, tensor.Float32, tensor.CPU)
	s.ResizeAs(other)
	assert.Equal(t, tensor.Shape{7}, s.Shape())
}

func TestStorage_ReservePreservesContent(t *testing.T) {
	for _, device := range testDevices {
		s := tensor.FromSlice(tensor.Shape{2, 2}, []float64{1, 2, 3, 4}, device)

		s.Reserve(2)
		assert.Equal(t, 4, s.Capacity())

		s.Reserve(100)
		assert.Equal(t, 100, s.Capacity())
		assert.Equal(t, tensor.Shape{2, 2}, s.Shape())
		assert.Equal(t, []float64{1, 2, 3, 4}, tensor.ToSlice[float64](s))

		mem := s.Memory()
		s.Resize(tensor.Shape{10, 10})
		assert.Equal(t, mem, s.Memory())
	}
}

func TestStorage_ClearAndRelease(t *testing.T) {
	for _, device := range testDevices {
		s := tensor.New(tensor.Shape{8}, tensor.Uint8, device)

		s.Clear()
		assert.True(t, s.Empty())
		assert.Equal(t, 8, s.Capacity())
		assert.NotNil(t, s.Memory())

		s.Release()
		assert.True(t, s.Empty())
		assert.Equal(t, 0, s.Capacity())
		assert.Nil(t, s.Memory())

		// A released storage is reusable.
		s.Resize(tensor.Shape{3})
		assert.Equal(t, []uint8{0, 0, 0}, tensor.ToSlice[uint8](s))
	}
}

func TestStorage_ViewIsNeverFreed(t *testing.T) {
	data := []float32{1, 2, 3, 4, 5, 6}
	view := tensor.View(tensor.Shape{2, 3}, data)
	assert.Equal(t, tensor.Borrowed, view.Ownership())
	assert.Equal(t, float32(6), tensor.AtIndex[float32](view, []int{1, 2}))

	tensor.Set(view, 0, float32(10))
	assert.Equal(t, float32(10), data[0])

	view.Release()
	assert.True(t, view.Empty())
	assert.Equal(t, tensor.Owned, view.Ownership())
	assert.Equal(t, []float32{10, 2, 3, 4, 5, 6}, data)
}

func TestStorage_ViewOfDeviceMemory(t *testing.T) {
	owner := tensor.FromSlice(tensor.Shape{6}, []int32{1, 2, 3, 4, 5, 6}, tensor.Emulated)
	view := tensor.ViewMemory(tensor.Shape{2, 2}, tensor.Int32, owner.Memory())

	assert.Equal(t, tensor.Borrowed, view.Ownership())
	assert.Equal(t, []int32{1, 2, 3, 4}, tensor.ToSlice[int32](view))

	view.Release()
	assert.Equal(t, []int32{1, 2, 3, 4, 5, 6}, tensor.ToSlice[int32](owner))

	requireViolation(t, func() { tensor.ViewMemory(tensor.Shape{7}, tensor.Int32, owner.Memory()) })
}

func TestStorage_AssignChecks(t *testing.T) {
	s := tensor.NewEmpty(tensor.Float32, tensor.CPU)
	requireViolation(t, func() { tensor.Assign(s, []float64{1}, tensor.Shape{1}) })
	requireViolation(t, func() { tensor.Assign(s, []float32{1}, tensor.Shape{2}) })

	dev := tensor.NewEmpty(tensor.Float32, tensor.Emulated)
	requireViolation(t, func() { tensor.Assign(dev, []float32{1}, tensor.Shape{1}) })
}

func TestStorage_AssignReleasesOwnedMemory(t *testing.T) {
	s := tensor.New(tensor.Shape{100}, tensor.Float32, tensor.CPU)
	data := []float32{1, 2}
	tensor.Assign(s, data, tensor.Shape{2})
	assert.Equal(t, 2, s.Capacity())
	assert.Equal(t, tensor.Borrowed, s.Ownership())
}

func TestStorage_AssignOwnMemoryReshapes(t *testing.T) {
	for _, device := range testDevices {
		s := tensor.FromSlice(tensor.Shape{6}, []int32{1, 2, 3, 4, 5, 6}, device)
		mem := s.Memory()

		s.AssignMemory(s.Memory(), tensor.Shape{2, 2})
		assert.Equal(t, tensor.Owned, s.Ownership(), device.String())
		assert.Equal(t, tensor.Shape{2, 2}, s.Shape())
		assert.Equal(t, 6, s.Capacity())
		assert.Equal(t, mem, s.Memory())
		assert.Equal(t, int32(4), tensor.ScalarAt[int32](s, []int{1, 1}))
		s.Release()
	}
}

func TestStorage_ShallowCopyOfOwnAlias(t *testing.T) {
	for _, device := range testDevices {
		s := tensor.FromSlice(tensor.Shape{4}, []float64{1, 2, 3, 4}, device)
		alias := tensor.NewEmpty(tensor.Float64, device).ShallowCopy(s)
		alias.Reshape(tensor.Shape{2, 2})

		s.ShallowCopy(alias)
		assert.Equal(t, tensor.Owned, s.Ownership(), device.String())
		assert.Equal(t, tensor.Shape{2, 2}, s.Shape())
		assert.Equal(t, []float64{1, 2, 3, 4}, tensor.ToSlice[float64](s))
		assert.Equal(t, float64(3), tensor.ScalarAt[float64](alias, []int{1, 0}))
		s.Release()
	}
}

func TestStorage_CopyFromShortMemory(t *testing.T) {
	short := tensor.FromSlice(tensor.Shape{2}, []float32{1, 2}, tensor.CPU)
	for _, device := range testDevices {
		dst := tensor.New(tensor.Shape{4}, tensor.Float32, device)
		requireViolation(t, func() { dst.CopyFromMemory(short.Memory(), 4) })
	}
}

func TestStorage_CloneIsIndependent(t *testing.T) {
	for _, device := range testDevices {
		s := tensor.FromSlice(tensor.Shape{3}, []int8{1, 2, 3}, device)
		c := s.Clone()
		assertStorageEqual(t, s, c)

		tensor.Fill(s, int8(0))
		assert.Equal(t, []int8{1, 2, 3}, tensor.ToSlice[int8](c))
		assert.Equal(t, device, c.Device())
	}
}

func TestStorage_DeepCopyChangesTypeAndDevice(t *testing.T) {
	src := tensor.FromSlice(tensor.Shape{2, 2}, []float64{1, 2, 3, 4}, tensor.Emulated)
	dst := tensor.New(tensor.Shape{9}, tensor.Int32, tensor.CPU)

	dst.DeepCopy(src)
	assert.Equal(t, tensor.Float64, dst.DType())
	assert.Equal(t, tensor.Emulated, dst.Device())
	assertStorageEqual(t, src, dst)
	assert.Equal(t, tensor.Owned, dst.Ownership())
}

func TestStorage_ShallowCopyAliases(t *testing.T) {
	s := tensor.FromSlice(tensor.Shape{4}, []float32{1, 2, 3, 4}, tensor.CPU)
	alias := tensor.NewEmpty(tensor.Float32, tensor.CPU).ShallowCopy(s)

	assert.Equal(t, tensor.Borrowed, alias.Ownership())
	assert.Equal(t, s.Memory(), alias.Memory())

	alias.Reshape(tensor.Shape{2, 2})
	assert.Equal(t, tensor.Shape{4}, s.Shape())

	tensor.Set(s, 3, float32(40))
	assert.Equal(t, float32(40), tensor.AtIndex[float32](alias, []int{1, 1}))

	alias.Release()
	assert.Equal(t, []float32{1, 2, 3, 40}, tensor.Data[float32](s))
}

func TestStorage_Move(t *testing.T) {
	s := tensor.FromSlice(tensor.Shape{2}, []int64{5, 6}, tensor.Emulated)
	mem := s.Memory()

	moved := s.Move()
	assert.True(t, s.Empty())
	assert.Nil(t, s.Memory())
	assert.Equal(t, mem, moved.Memory())
	assert.Equal(t, []int64{5, 6}, tensor.ToSlice[int64](moved))

	target := tensor.New(tensor.Shape{10}, tensor.Int64, tensor.Emulated)
	target.MoveFrom(moved)
	assert.True(t, moved.Empty())
	assert.Equal(t, []int64{5, 6}, tensor.ToSlice[int64](target))
	assert.Equal(t, target, target.MoveFrom(target))
}

func TestSwap(t *testing.T) {
	a := tensor.FromSlice(tensor.Shape{1}, []float32{1}, tensor.CPU)
	b := tensor.FromSlice(tensor.Shape{2}, []float64{2, 3}, tensor.Emulated)

	tensor.Swap(a, b)
	assert.Equal(t, tensor.Float64, a.DType())
	assert.Equal(t, tensor.Emulated, a.Device())
	assert.Equal(t, []float64{2, 3}, tensor.ToSlice[float64](a))
	assert.Equal(t, []float32{1}, tensor.Data[float32](b))
}

func TestStorage_CopyFrom(t *testing.T) {
	for _, src := range testDevices {
		for _, dst := range testDevices {
			a := tensor.FromSlice(tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6}, src)
			b := tensor.New(tensor.Shape{3, 2}, tensor.Float32, dst)
			b.CopyFrom(a)
			assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, tensor.ToSlice[float32](b), "%s -> %s", src, dst)
		}
	}

	a := tensor.New(tensor.Shape{3}, tensor.Float32, tensor.CPU)
	requireViolation(t, func() { a.CopyFrom(tensor.New(tensor.Shape{4}, tensor.Float32, tensor.CPU)) })
	requireViolation(t, func() { a.CopyFrom(tensor.New(tensor.Shape{3}, tensor.Int32, tensor.CPU)) })
}

func TestStorage_RoundTrip(t *testing.T) {
	for _, dtype := range tensor.DataTypes() {
		host := tensor.New(tensor.Shape{5, 3}, dtype, tensor.CPU).FillValue(valueOf(dtype, 7))
		back := host.To(tensor.Emulated).To(tensor.CPU)
		assertStorageEqual(t, host, back)
	}
}

func TestStorage_ScalarAtOnDevice(t *testing.T) {
	s := tensor.FromSlice(tensor.Shape{2, 3}, []int32{1, 2, 3, 4, 5, 6}, tensor.Emulated)
	assert.Equal(t, int32(6), tensor.ScalarAt[int32](s, []int{1, 2}))
	assert.Equal(t, int32(4), tensor.ScalarAt[int32](s, []int{1}))
	assert.Equal(t, int32(5), s.Value(4))

	requireViolation(t, func() { tensor.ScalarAt[float32](s, []int{0, 0}) })
	requireViolation(t, func() { tensor.Data[int32](s) })
}

func TestStorage_TypedAccessors(t *testing.T) {
	s := tensor.FromSlice(tensor.Shape{2, 2}, []uint8{1, 2, 3, 4}, tensor.CPU)
	assert.Equal(t, uint8(3), tensor.At[uint8](s, 2))
	*tensor.Index[uint8](s, []int{0, 1}) = 20
	assert.Equal(t, []uint8{1, 20, 3, 4}, tensor.Data[uint8](s))

	requireViolation(t, func() { tensor.At[uint8](s, 4) })
	requireViolation(t, func() { tensor.Set(s, -1, uint8(0)) })
	requireViolation(t, func() { tensor.At[int8](s, 0) })
	requireViolation(t, func() { tensor.FromSlice(tensor.Shape{3}, []uint8{1, 2}, tensor.CPU) })
}

func TestStorage_FillValueTypeMismatch(t *testing.T) {
	s := tensor.New(tensor.Shape{2}, tensor.Float32, tensor.CPU)
	requireViolation(t, func() { s.FillValue(1.0) })
	requireViolation(t, func() { tensor.Fill(s, int32(1)) })
}

func TestStorage_Zero(t *testing.T) {
	for _, device := range testDevices {
		s := tensor.Full(tensor.Shape{3}, float32(2), device)
		s.Zero()
		assert.Equal(t, []float32{0, 0, 0}, tensor.ToSlice[float32](s))
	}
}

func TestStorage_UnregisteredDevice(t *testing.T) {
	requireViolation(t, func() { tensor.NewEmpty(tensor.Float32, tensor.CUDA) })
	requireViolation(t, func() { tensor.New(tensor.Shape{1}, tensor.Float32, tensor.Metal) })
}

func TestStorage_String(t *testing.T) {
	s := tensor.FromSlice(tensor.Shape{2, 4}, []int32{1, 2, 3, 4, 5, 6, 7, 8}, tensor.CPU)
	assert.Equal(t, "Storage(int32, CPU, shape=[2 4]) [1 2 3 4 5 6 ...]", s.String())

	v := tensor.View(tensor.Shape{2}, []float32{0.5, 1})
	assert.Equal(t, "Storage(float32, CPU, shape=[2], borrowed) [0.5 1]", v.String())

	e := tensor.NewEmpty(tensor.Float64, tensor.Emulated)
	assert.Equal(t, "Storage(float64, Emulated, shape=[0])", e.String())
}
