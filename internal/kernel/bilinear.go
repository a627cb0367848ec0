// Package kernel builds fixed weight tensors for upsampling layers.
//
// A bilinear kernel turns a Conv2D or Conv2DTranspose layer that follows a
// nearest-neighbour upsample into a uniform averaging upsample before any
// training happens. Weights use TensorFlow ordering: (height, width,
// in_channels, out_channels).
package kernel

import (
	"github.com/born-ml/upsample/internal/tensor"
)

// Bilinear returns uniform upsampling weights for a layer with kernel size
// (h, w) and the same number of input and output channels.
//
// Every spatial position (i, j) of the kernel holds identity(channels)/(h*w).
// With useBias the result also carries a length-1 zero bias, matching a layer
// created with a bias. For an input of size (inH, inW) the upsampled output
// has size (h*(inH-1)+1, w*(inW-1)+1).
//
// Parameters:
//   - h, w: magnification factors for height and width (> 0)
//   - channels: number of input and output channels (> 0)
//   - useBias: must match the consuming layer's bias setting
//   - dtype: element type of the returned tensors
//
// Errors wrap ErrInvalidArgument.
func Bilinear(h, w, channels int, useBias bool, dtype tensor.DataType) (*Weights, error) {
	if err := validate(h, w, channels, dtype); err != nil {
		return nil, err
	}

	k, err := tensor.Zeros(tensor.Shape{h, w, channels, channels}, dtype)
	if err != nil {
		return nil, err
	}

	scale := 1.0 / float64(h*w)
	switch dtype {
	case tensor.Float32:
		fillDiagonal(k.AsFloat32(), h*w, channels, float32(scale))
	case tensor.Float64:
		fillDiagonal(k.AsFloat64(), h*w, channels, scale)
	}

	weights := &Weights{Kernel: k, height: h, width: w, channels: channels}
	if useBias {
		bias, err := tensor.Zeros(tensor.Shape{1}, dtype)
		if err != nil {
			return nil, err
		}
		weights.Bias = bias
	}
	return weights, nil
}

func validate(h, w, channels int, dtype tensor.DataType) error {
	switch {
	case h <= 0:
		return &ArgumentError{Name: "h", Value: h, Reason: "must be a positive integer"}
	case w <= 0:
		return &ArgumentError{Name: "w", Value: w, Reason: "must be a positive integer"}
	case channels <= 0:
		return &ArgumentError{Name: "channels", Value: channels, Reason: "must be a positive integer"}
	case !dtype.Valid():
		return &ArgumentError{Name: "dtype", Value: int(dtype), Reason: "must be float32 or float64"}
	}
	shape := tensor.Shape{h, w, channels, channels}
	if err := shape.Validate(); err != nil {
		return &ArgumentError{Name: "shape", Value: shape, Reason: err.Error()}
	}
	return nil
}

// fillDiagonal writes scale on the diagonal of each of the positions
// channels x channels blocks laid out back to back in data.
func fillDiagonal[T tensor.Float](data []T, positions, channels int, scale T) {
	block := channels * channels
	for p := 0; p < positions; p++ {
		base := p * block
		for c := 0; c < channels; c++ {
			data[base+c*channels+c] = scale
		}
	}
}
