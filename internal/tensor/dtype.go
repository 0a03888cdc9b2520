// Package tensor provides the storage container, the device/dtype dispatch registry and
// the primitive interfaces every compute backend implements.
package tensor

import (
	"strings"

	"github.com/pkg/errors"
)

// DType is a constraint for supported element types.
// It uses Go generics to ensure compile-time type safety.
type DType interface {
	~float32 | ~float64 | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8
}

// Float is the subset of element types normalization kernels operate on.
type Float interface {
	~float32 | ~float64
}

// DataType represents runtime type information for storages.
type DataType int

// Supported data types.
const (
	Float32 DataType = iota
	Float64
	Int8
	Int16
	Int32
	Int64
	Uint8
)

// DataTypes lists every supported data type in declaration order.
func DataTypes() []DataType {
	return []DataType{Float32, Float64, Int8, Int16, Int32, Int64, Uint8}
}

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	case Int16:
		return 2
	case Int8, Uint8:
		return 1
	default:
		panic("unknown data type")
	}
}

// IsFloat reports whether the data type is a floating point type.
func (dt DataType) IsFloat() bool {
	return dt == Float32 || dt == Float64
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	default:
		return "unknown"
	}
}

// ParseDataType converts a name such as "float32" to a DataType.
func ParseDataType(name string) (DataType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, dt := range DataTypes() {
		if dt.String() == name {
			return dt, nil
		}
	}
	return 0, errors.Errorf("unknown data type %q", name)
}

// DataTypeOf returns the DataType tag of T.
func DataTypeOf[T DType]() DataType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case uint8:
		return Uint8
	default:
		panic("unsupported type")
	}
}
