// Package layer describes the layers that consume bilinear kernels.
//
// Nothing here runs a convolution. An Upsampler records how a model wires a
// nearest-neighbour upsample into a stride-1, "valid" padded Conv2D or
// Conv2DTranspose, and checks weights the way such a layer does when it is
// constructed.
//
// Conv2D wiring:
//
//	input (inH, inW, c)
//	-> UpSampling2D(h, w)            (h*inH, w*inW, c)
//	-> Conv2D(c, kernel=(h, w))      (h*(inH-1)+1, w*(inW-1)+1, c)
//
// Conv2DTranspose wiring:
//
//	input (inH, inW, c)
//	-> UpSampling2D(h, w)            (h*inH, w*inW, c)
//	-> Conv2DTranspose(c, (h, w))    (h*inH+h-1, w*inW+w-1, c)
//	-> Cropping2D(h-1, w-1)          (h*(inH-1)+1, w*(inW-1)+1, c)
package layer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/born-ml/upsample/internal/tensor"
)

// Common errors.
var (
	ErrShapeMismatch = errors.New("weights do not match layer")
	ErrInvalidSize   = errors.New("invalid size")
	ErrUnknownKind   = errors.New("unknown layer kind")
)

// Kind selects the convolution that follows the upsample.
type Kind int

// Supported layer kinds.
const (
	Conv2D Kind = iota
	Conv2DTranspose
)

// String returns the configuration name of the kind.
func (k Kind) String() string {
	switch k {
	case Conv2D:
		return "conv2d"
	case Conv2DTranspose:
		return "conv2d_transpose"
	default:
		return "unknown"
	}
}

// ParseKind converts "conv2d" or "conv2d_transpose" into a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "conv", "conv2d":
		return Conv2D, nil
	case "deconv", "conv2d_transpose", "conv2dtranspose", "convtranspose2d":
		return Conv2DTranspose, nil
	default:
		return Conv2D, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k != Conv2D && k != Conv2DTranspose {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Upsampler is the upsample + convolution pair that receives the weights.
type Upsampler struct {
	Kind     Kind
	Height   int // vertical factor, also the kernel height
	Width    int // horizontal factor, also the kernel width
	Channels int // filters; equals input channels
	UseBias  bool
}

// Validate checks that the factors and channel count are positive.
func (u Upsampler) Validate() error {
	if u.Height <= 0 || u.Width <= 0 {
		return fmt.Errorf("%w: factors (%d, %d) must be positive", ErrInvalidSize, u.Height, u.Width)
	}
	if u.Channels <= 0 {
		return fmt.Errorf("%w: channels %d must be positive", ErrInvalidSize, u.Channels)
	}
	return nil
}

// KernelShape is the kernel shape the layer allocates: (h, w, in, out).
func (u Upsampler) KernelShape() tensor.Shape {
	return tensor.Shape{u.Height, u.Width, u.Channels, u.Channels}
}

// BiasShape is the bias shape the layer allocates, one entry per filter.
// It is nil when the layer has no bias.
func (u Upsampler) BiasShape() tensor.Shape {
	if !u.UseBias {
		return nil
	}
	return tensor.Shape{u.Channels}
}

// Accept checks weights the way the layer does at construction time:
// the number of tensors, then each tensor's shape.
func (u Upsampler) Accept(weights []*tensor.RawTensor) error {
	want := 1
	if u.UseBias {
		want = 2
	}
	if len(weights) != want {
		return fmt.Errorf("%w: %s with use_bias=%t expects %d weight tensors, got %d",
			ErrShapeMismatch, u.Kind, u.UseBias, want, len(weights))
	}

	for i, t := range weights {
		if t == nil {
			return fmt.Errorf("%w: weight tensor %d is nil", ErrShapeMismatch, i)
		}
	}

	if got := weights[0].Shape(); !got.Equal(u.KernelShape()) {
		return fmt.Errorf("%w: kernel shape %v, layer expects %v", ErrShapeMismatch, got, u.KernelShape())
	}
	if u.UseBias {
		if got := weights[1].Shape(); !got.Equal(u.BiasShape()) {
			return fmt.Errorf("%w: bias shape %v, layer expects %v", ErrShapeMismatch, got, u.BiasShape())
		}
	}
	return nil
}

// UpsampledSize is the spatial size after the nearest-neighbour upsample.
func (u Upsampler) UpsampledSize(inH, inW int) (int, int, error) {
	if err := checkInput(inH, inW); err != nil {
		return 0, 0, err
	}
	return u.Height * inH, u.Width * inW, nil
}

// ConvSize is the spatial size produced by the convolution itself, before
// any cropping.
func (u Upsampler) ConvSize(inH, inW int) (int, int, error) {
	upH, upW, err := u.UpsampledSize(inH, inW)
	if err != nil {
		return 0, 0, err
	}
	if u.Kind == Conv2DTranspose {
		return upH + u.Height - 1, upW + u.Width - 1, nil
	}
	return upH - u.Height + 1, upW - u.Width + 1, nil
}

// Cropping is the amount Cropping2D removes from each side of each axis.
func (u Upsampler) Cropping() (int, int) {
	if u.Kind == Conv2DTranspose {
		return u.Height - 1, u.Width - 1
	}
	return 0, 0
}

// OutputSize is the final spatial size: (h*(inH-1)+1, w*(inW-1)+1).
func (u Upsampler) OutputSize(inH, inW int) (int, int, error) {
	convH, convW, err := u.ConvSize(inH, inW)
	if err != nil {
		return 0, 0, err
	}
	cropH, cropW := u.Cropping()
	return convH - 2*cropH, convW - 2*cropW, nil
}

func checkInput(inH, inW int) error {
	if inH <= 0 || inW <= 0 {
		return fmt.Errorf("%w: input (%d, %d) must be positive", ErrInvalidSize, inH, inW)
	}
	return nil
}
