package kernel

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/upsample/internal/tensor"
)

// State dict keys used when weights are exported.
const (
	KernelName = "kernel"
	BiasName   = "bias"
)

// Weights holds the tensors handed to an upsampling layer.
//
// Kernel has shape (h, w, channels, channels). Bias is nil when the layer has
// no bias, otherwise it has shape (1) and holds 0.
type Weights struct {
	Kernel *tensor.RawTensor
	Bias   *tensor.RawTensor

	height   int
	width    int
	channels int
}

// FromTensors wraps tensors in the order a layer receives them: the kernel,
// optionally followed by the bias. The kernel must be rank 4 with square
// channel dimensions.
func FromTensors(tensors []*tensor.RawTensor) (*Weights, error) {
	if len(tensors) != 1 && len(tensors) != 2 {
		return nil, fmt.Errorf("%w: expected 1 or 2 tensors, got %d", ErrStructure, len(tensors))
	}

	for i, t := range tensors {
		if t == nil {
			return nil, fmt.Errorf("%w: tensor %d is nil", ErrStructure, i)
		}
	}

	k := tensors[0]
	shape := k.Shape()
	if len(shape) != 4 || shape[2] != shape[3] {
		return nil, fmt.Errorf("%w: kernel shape %v is not (h, w, c, c)", ErrStructure, shape)
	}

	w := &Weights{Kernel: k, height: shape[0], width: shape[1], channels: shape[2]}
	if len(tensors) == 2 {
		if tensors[1].DType() != k.DType() {
			return nil, fmt.Errorf("%w: bias dtype %s differs from kernel dtype %s",
				ErrStructure, tensors[1].DType(), k.DType())
		}
		w.Bias = tensors[1]
	}
	return w, nil
}

// Height returns the vertical magnification factor.
func (w *Weights) Height() int { return w.height }

// Width returns the horizontal magnification factor.
func (w *Weights) Width() int { return w.width }

// Channels returns the channel count.
func (w *Weights) Channels() int { return w.channels }

// DType returns the element type of the tensors.
func (w *Weights) DType() tensor.DataType { return w.Kernel.DType() }

// HasBias reports whether a bias tensor is present.
func (w *Weights) HasBias() bool { return w.Bias != nil }

// Tensors returns the weights in layer order: [kernel] or [kernel, bias].
func (w *Weights) Tensors() []*tensor.RawTensor {
	if w.Bias == nil {
		return []*tensor.RawTensor{w.Kernel}
	}
	return []*tensor.RawTensor{w.Kernel, w.Bias}
}

// StateDict returns the tensors keyed by parameter name, prefixed with
// prefix+"." when prefix is not empty.
func (w *Weights) StateDict(prefix string) map[string]*tensor.RawTensor {
	name := func(n string) string {
		if prefix == "" {
			return n
		}
		return prefix + "." + n
	}

	dict := map[string]*tensor.RawTensor{name(KernelName): w.Kernel}
	if w.Bias != nil {
		dict[name(BiasName)] = w.Bias
	}
	return dict
}

// SpatialSlice returns a copy of the channels x channels block at (i, j)
// as a matrix indexed [in, out].
func (w *Weights) SpatialSlice(i, j int) (*mat.Dense, error) {
	if i < 0 || i >= w.height || j < 0 || j >= w.width {
		return nil, fmt.Errorf("spatial position (%d, %d) outside (%d, %d)", i, j, w.height, w.width)
	}
	block := w.channels * w.channels
	start := (i*w.width + j) * block
	values := w.Kernel.Float64s()[start : start+block]
	return mat.NewDense(w.channels, w.channels, values), nil
}

// ChannelSums returns, for every (in, out) channel pair, the sum of the
// kernel over all spatial positions.
func (w *Weights) ChannelSums() *mat.Dense {
	c := w.channels
	block := c * c
	values := w.Kernel.Float64s()

	sums := mat.NewDense(c, c, nil)
	for p := 0; p < w.height*w.width; p++ {
		sums.Add(sums, mat.NewDense(c, c, values[p*block:(p+1)*block]))
	}
	return sums
}
