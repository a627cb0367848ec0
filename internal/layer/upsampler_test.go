package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/upsample/internal/kernel"
	"github.com/born-ml/upsample/internal/tensor"
)

func TestAcceptConvWithoutBias(t *testing.T) {
	u := Upsampler{Kind: Conv2D, Height: 2, Width: 2, Channels: 3, UseBias: false}

	weights, err := kernel.Bilinear(2, 2, 3, false, tensor.Float32)
	require.NoError(t, err)
	assert.NoError(t, u.Accept(weights.Tensors()))
}

func TestAcceptTransposeWithBiasSingleChannel(t *testing.T) {
	u := Upsampler{Kind: Conv2DTranspose, Height: 3, Width: 5, Channels: 1, UseBias: true}

	weights, err := kernel.Bilinear(3, 5, 1, true, tensor.Float32)
	require.NoError(t, err)
	assert.NoError(t, u.Accept(weights.Tensors()))
}

func TestAcceptRejectsMismatches(t *testing.T) {
	tests := []struct {
		name    string
		layer   Upsampler
		h, w, c int
		useBias bool
	}{
		{"bias flag differs", Upsampler{Height: 2, Width: 2, Channels: 1, UseBias: false}, 2, 2, 1, true},
		{"missing bias", Upsampler{Height: 2, Width: 2, Channels: 1, UseBias: true}, 2, 2, 1, false},
		{"kernel size differs", Upsampler{Height: 2, Width: 3, Channels: 1}, 2, 2, 1, false},
		{"channels differ", Upsampler{Height: 2, Width: 2, Channels: 4}, 2, 2, 3, false},
		{"bias per filter", Upsampler{Height: 2, Width: 2, Channels: 3, UseBias: true}, 2, 2, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			weights, err := kernel.Bilinear(tt.h, tt.w, tt.c, tt.useBias, tensor.Float32)
			require.NoError(t, err)
			assert.ErrorIs(t, tt.layer.Accept(weights.Tensors()), ErrShapeMismatch)
		})
	}
}

func TestAcceptRejectsNilTensors(t *testing.T) {
	u := Upsampler{Height: 2, Width: 2, Channels: 1, UseBias: true}

	weights, err := kernel.Bilinear(2, 2, 1, true, tensor.Float32)
	require.NoError(t, err)

	assert.ErrorIs(t, u.Accept([]*tensor.RawTensor{nil, weights.Bias}), ErrShapeMismatch)
	assert.ErrorIs(t, u.Accept([]*tensor.RawTensor{weights.Kernel, nil}), ErrShapeMismatch)
}

func TestShapes(t *testing.T) {
	u := Upsampler{Height: 3, Width: 5, Channels: 2, UseBias: true}
	assert.True(t, tensor.Shape{3, 5, 2, 2}.Equal(u.KernelShape()))
	assert.True(t, tensor.Shape{2}.Equal(u.BiasShape()))

	u.UseBias = false
	assert.Nil(t, u.BiasShape())
}

func TestOutputSize(t *testing.T) {
	for _, kind := range []Kind{Conv2D, Conv2DTranspose} {
		u := Upsampler{Kind: kind, Height: 3, Width: 5, Channels: 1}

		upH, upW, err := u.UpsampledSize(32, 32)
		require.NoError(t, err)
		assert.Equal(t, 96, upH)
		assert.Equal(t, 160, upW)

		outH, outW, err := u.OutputSize(32, 32)
		require.NoError(t, err)
		assert.Equal(t, 3*31+1, outH, kind.String())
		assert.Equal(t, 5*31+1, outW, kind.String())
	}
}

func TestConvSizeAndCropping(t *testing.T) {
	conv := Upsampler{Kind: Conv2D, Height: 2, Width: 2, Channels: 3}
	h, w, err := conv.ConvSize(32, 32)
	require.NoError(t, err)
	assert.Equal(t, []int{63, 63}, []int{h, w})
	cropH, cropW := conv.Cropping()
	assert.Equal(t, []int{0, 0}, []int{cropH, cropW})

	ct := Upsampler{Kind: Conv2DTranspose, Height: 3, Width: 5, Channels: 1}
	h, w, err = ct.ConvSize(32, 32)
	require.NoError(t, err)
	assert.Equal(t, []int{98, 164}, []int{h, w})
	cropH, cropW = ct.Cropping()
	assert.Equal(t, []int{2, 4}, []int{cropH, cropW})
}

func TestOutputSizeRejectsEmptyInput(t *testing.T) {
	u := Upsampler{Height: 2, Width: 2, Channels: 1}
	_, _, err := u.OutputSize(0, 4)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Upsampler{Height: 1, Width: 1, Channels: 1}.Validate())
	assert.ErrorIs(t, Upsampler{Height: 0, Width: 1, Channels: 1}.Validate(), ErrInvalidSize)
	assert.ErrorIs(t, Upsampler{Height: 1, Width: 1, Channels: 0}.Validate(), ErrInvalidSize)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("conv2d_transpose")
	require.NoError(t, err)
	assert.Equal(t, Conv2DTranspose, k)

	k, err = ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, Conv2D, k)

	_, err = ParseKind("dense")
	assert.ErrorIs(t, err, ErrUnknownKind)

	var parsed Kind
	require.NoError(t, parsed.UnmarshalText([]byte("deconv")))
	assert.Equal(t, Conv2DTranspose, parsed)
}
