package tensor

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	t, err := tensor.Zeros(tensor.Shape{3, 4}, tensor.Float32)
func Zeros(shape Shape, dtype DataType) (*RawTensor, error) {
	// Data is already zero-initialized by make()
	return NewRaw(shape, dtype)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	t, err := tensor.Full(tensor.Shape{1}, 0, tensor.Float32)
func Full(shape Shape, value float64, dtype DataType) (*RawTensor, error) {
	t, err := NewRaw(shape, dtype)
	if err != nil {
		return nil, err
	}
	if value == 0 {
		return t, nil
	}
	switch dtype {
	case Float32:
		Fill(t.AsFloat32(), float32(value))
	case Float64:
		Fill(t.AsFloat64(), value)
	}
	return t, nil
}

// ScaledEye creates an n x n identity matrix multiplied by scale.
//
// Example:
//
//	quarter, err := tensor.ScaledEye(3, 0.25, tensor.Float32) // diag(0.25, 0.25, 0.25)
func ScaledEye(n int, scale float64, dtype DataType) (*RawTensor, error) {
	t, err := NewRaw(Shape{n, n}, dtype)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		if err := t.Set(scale, i, i); err != nil {
			return nil, err
		}
	}
	return t, nil
}
