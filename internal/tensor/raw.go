package tensor

import (
	"fmt"
	"unsafe"
)

// RawTensor is a dense, row-major tensor backed by a byte buffer.
// Typed access goes through AsFloat32 / AsFloat64, which are zero-copy views.
type RawTensor struct {
	data   []byte
	shape  Shape
	stride []int
	dtype  DataType
}

// NewRaw creates a new RawTensor with the given shape and type.
// Memory is zero-initialized.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if !dtype.Valid() {
		return nil, fmt.Errorf("invalid dtype: %d", int(dtype))
	}

	return &RawTensor{
		data:   make([]byte, shape.NumElements()*dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
	}, nil
}

// FromBytes creates a RawTensor that takes ownership of data.
// len(data) must match shape and dtype exactly.
func FromBytes(shape Shape, dtype DataType, data []byte) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if !dtype.Valid() {
		return nil, fmt.Errorf("invalid dtype: %d", int(dtype))
	}
	if want := shape.NumElements() * dtype.Size(); len(data) != want {
		return nil, fmt.Errorf("data length %d does not match shape %v of %s (%d bytes)", len(data), shape, dtype, want)
	}

	return &RawTensor{
		data:   data,
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
	}, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides in elements.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// Data returns the raw byte slice.
// WARNING: Direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []byte {
	return r.data
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", r.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float32)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsFloat64 interprets the data as []float64.
// Panics if the tensor's dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not float64", r.dtype))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float64)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// Offset converts a multi-dimensional index into a flat element offset.
func (r *RawTensor) Offset(index ...int) (int, error) {
	if len(index) != len(r.shape) {
		return 0, fmt.Errorf("index has %d dimensions, tensor has %d", len(index), len(r.shape))
	}
	off := 0
	for i, idx := range index {
		if idx < 0 || idx >= r.shape[i] {
			return 0, fmt.Errorf("index %d out of range for dimension %d of size %d", idx, i, r.shape[i])
		}
		off += idx * r.stride[i]
	}
	return off, nil
}

// At returns the element at index widened to float64.
func (r *RawTensor) At(index ...int) (float64, error) {
	off, err := r.Offset(index...)
	if err != nil {
		return 0, err
	}
	if r.dtype == Float32 {
		return float64(r.AsFloat32()[off]), nil
	}
	return r.AsFloat64()[off], nil
}

// Set stores value at index, narrowing to the tensor's dtype.
func (r *RawTensor) Set(value float64, index ...int) error {
	off, err := r.Offset(index...)
	if err != nil {
		return err
	}
	if r.dtype == Float32 {
		r.AsFloat32()[off] = float32(value)
	} else {
		r.AsFloat64()[off] = value
	}
	return nil
}

// Float64s returns a float64 copy of the tensor's elements in row-major order.
func (r *RawTensor) Float64s() []float64 {
	out := make([]float64, r.NumElements())
	if r.dtype == Float32 {
		for i, v := range r.AsFloat32() {
			out[i] = float64(v)
		}
		return out
	}
	copy(out, r.AsFloat64())
	return out
}

// Clone returns a deep copy that shares no memory with r.
func (r *RawTensor) Clone() *RawTensor {
	data := make([]byte, len(r.data))
	copy(data, r.data)
	return &RawTensor{
		data:   data,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
	}
}

// Fill sets every element of a typed view to value.
func Fill[T Float](data []T, value T) {
	for i := range data {
		data[i] = value
	}
}
