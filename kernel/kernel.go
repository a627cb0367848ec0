// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package kernel builds fixed bilinear weights for upsampling layers.
//
// # Basic Usage
//
//	import "github.com/born-ml/upsample/kernel"
//
//	// Weights for UpSampling2D(2, 2) -> Conv2D(3 filters, kernel 2x2, no bias).
//	weights, err := kernel.Bilinear(2, 2, 3, false, tensor.Float32)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	layerWeights := weights.Tensors() // [kernel]
//
// The kernel has shape (h, w, channels, channels) and every spatial
// position holds identity(channels)/(h*w). For an input of size
// (inH, inW) the upsampled output has size (h*(inH-1)+1, w*(inW-1)+1).
//
// # Layer contract
//
// Upsampler describes the consuming layer. Accept applies the same shape
// checks the layer applies when it is constructed with these weights:
//
//	up := kernel.Upsampler{Kind: kernel.Conv2DTranspose, Height: 3, Width: 5, Channels: 1, UseBias: true}
//	weights, _ := kernel.New(3, 5, 1)
//	if err := up.Accept(weights.Tensors()); err != nil {
//	    log.Fatal(err)
//	}
package kernel

import (
	"github.com/born-ml/upsample/internal/kernel"
	"github.com/born-ml/upsample/internal/layer"
	"github.com/born-ml/upsample/internal/tensor"
)

// Weights holds the kernel and optional bias handed to a layer.
type Weights = kernel.Weights

// ArgumentError names the argument a build rejected.
type ArgumentError = kernel.ArgumentError

// Errors.
var (
	ErrInvalidArgument = kernel.ErrInvalidArgument
	ErrStructure       = kernel.ErrStructure
	ErrShapeMismatch   = layer.ErrShapeMismatch
)

// Bilinear returns uniform upsampling weights for a (h, w) kernel with the
// given channel count. See the internal documentation for details.
func Bilinear(h, w, channels int, useBias bool, dtype tensor.DataType) (*Weights, error) {
	return kernel.Bilinear(h, w, channels, useBias, dtype)
}

// New returns float32 weights with a zero bias, the settings a default
// Conv2D or Conv2DTranspose layer expects.
func New(h, w, channels int) (*Weights, error) {
	return kernel.Bilinear(h, w, channels, true, tensor.Float32)
}

// Verify checks that w holds identity/(h*w) slices and a zero bias.
func Verify(w *Weights, tol float64) error {
	return kernel.Verify(w, tol)
}

// Upsampler describes the upsample + convolution pair consuming the weights.
type Upsampler = layer.Upsampler

// Kind selects Conv2D or Conv2DTranspose.
type Kind = layer.Kind

// Layer kinds.
const (
	Conv2D          Kind = layer.Conv2D
	Conv2DTranspose Kind = layer.Conv2DTranspose
)
