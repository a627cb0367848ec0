package tensor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeNumElements(t *testing.T) {
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.Equal(t, 36, Shape{2, 2, 3, 3}.NumElements())
	assert.Equal(t, 15, Shape{3, 5, 1, 1}.NumElements())
}

func TestShapeValidate(t *testing.T) {
	require.NoError(t, Shape{1, 1, 1, 1}.Validate())
	assert.Error(t, Shape{2, 0, 3}.Validate())
	assert.Error(t, Shape{-1}.Validate())
}

func TestShapeValidateRejectsOverflow(t *testing.T) {
	assert.Error(t, Shape{math.MaxInt32, math.MaxInt32, 4}.Validate())
	assert.Error(t, Shape{math.MaxInt / 2, 3}.Validate())

	_, err := NewRaw(Shape{math.MaxInt32, math.MaxInt32, 1, 1}, Float32)
	assert.Error(t, err)
}

func TestShapeStridesAndString(t *testing.T) {
	s := Shape{3, 5, 2, 2}
	assert.Equal(t, []int{20, 4, 2, 1}, s.ComputeStrides())
	assert.Equal(t, "(3, 5, 2, 2)", s.String())
	assert.True(t, s.Equal(s.Clone()))
	assert.False(t, s.Equal(Shape{3, 5, 2}))
}

func TestParseDataType(t *testing.T) {
	tests := []struct {
		in   string
		want DataType
	}{
		{"", Float32},
		{"float32", Float32},
		{"F32", Float32},
		{"float64", Float64},
		{" f64 ", Float64},
	}
	for _, tt := range tests {
		got, err := ParseDataType(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseDataType("int32")
	assert.Error(t, err)
}

func TestDataTypeText(t *testing.T) {
	var dt DataType
	require.NoError(t, dt.UnmarshalText([]byte("float64")))
	assert.Equal(t, Float64, dt)

	text, err := Float32.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "float32", string(text))

	_, err = DataType(7).MarshalText()
	assert.Error(t, err)
}

func TestNewRawZeroed(t *testing.T) {
	raw, err := NewRaw(Shape{2, 3}, Float32)
	require.NoError(t, err)
	assert.Equal(t, 24, raw.ByteSize())
	for _, v := range raw.AsFloat32() {
		assert.Zero(t, v)
	}

	_, err = NewRaw(Shape{0, 3}, Float32)
	assert.Error(t, err)
	_, err = NewRaw(Shape{2}, DataType(9))
	assert.Error(t, err)
}

func TestRawTensorAsFloat64ZeroCopy(t *testing.T) {
	raw, err := NewRaw(Shape{3, 2}, Float64)
	require.NoError(t, err)

	data := raw.AsFloat64()
	data[0] = 42
	assert.Equal(t, 42.0, raw.AsFloat64()[0])
	assert.Panics(t, func() { raw.AsFloat32() })
}

func TestRawTensorAtSet(t *testing.T) {
	raw, err := NewRaw(Shape{2, 3, 4}, Float32)
	require.NoError(t, err)

	require.NoError(t, raw.Set(0.5, 1, 2, 3))
	v, err := raw.At(1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)
	assert.Equal(t, float32(0.5), raw.AsFloat32()[23])

	_, err = raw.At(2, 0, 0)
	assert.Error(t, err)
	_, err = raw.At(0, 0)
	assert.Error(t, err)
}

func TestRawTensorCloneIsIndependent(t *testing.T) {
	raw, err := Full(Shape{4}, 1, Float64)
	require.NoError(t, err)

	clone := raw.Clone()
	clone.AsFloat64()[0] = 7
	assert.Equal(t, 1.0, raw.AsFloat64()[0])
	assert.Equal(t, []float64{7, 1, 1, 1}, clone.Float64s())
}

func TestFromBytes(t *testing.T) {
	src, err := Full(Shape{2, 2}, 0.25, Float32)
	require.NoError(t, err)

	raw, err := FromBytes(Shape{2, 2}, Float32, src.Clone().Data())
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.25, 0.25, 0.25}, raw.Float64s())

	_, err = FromBytes(Shape{3}, Float32, src.Data())
	assert.Error(t, err)
}

func TestScaledEye(t *testing.T) {
	eye, err := ScaledEye(3, 0.25, Float32)
	require.NoError(t, err)
	assert.True(t, Shape{3, 3}.Equal(eye.Shape()))

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v, err := eye.At(i, j)
			require.NoError(t, err)
			if i == j {
				assert.Equal(t, 0.25, v)
			} else {
				assert.Zero(t, v)
			}
		}
	}
}
