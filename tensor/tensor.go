// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public tensor types used for layer weights.
//
// The package defines:
//   - RawTensor: dense row-major tensor with a runtime element type
//   - Shape, DataType: core type definitions
//
// Example:
//
//	bias, err := tensor.Zeros(tensor.Shape{1}, tensor.Float32)
//	values := bias.AsFloat32() // zero-copy view
package tensor

import (
	"github.com/born-ml/upsample/internal/tensor"
)

// DataType represents the element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 2, 3, 3} is a 4D tensor with dimensions 2×2×3×3.
type Shape = tensor.Shape

// RawTensor is a dense tensor backed by a byte buffer.
type RawTensor = tensor.RawTensor

// ParseDataType converts a name such as "float32" into a DataType.
func ParseDataType(name string) (DataType, error) {
	return tensor.ParseDataType(name)
}

// Zeros creates a zero-filled tensor.
func Zeros(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.Zeros(shape, dtype)
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float64, dtype DataType) (*RawTensor, error) {
	return tensor.Full(shape, value, dtype)
}
