package kernel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/upsample/internal/tensor"
)

// DefaultTolerance is suitable for float32 weights.
const DefaultTolerance = 1e-6

// Verify checks that weights form a bilinear kernel: every spatial slice equals
// identity/(h*w) within tol, and the bias, if any, is a single zero.
// Dimensions are taken from the kernel's shape.
func Verify(weights *Weights, tol float64) error {
	if weights == nil || weights.Kernel == nil {
		return fmt.Errorf("%w: missing kernel", ErrStructure)
	}
	w, err := FromTensors(weights.Tensors())
	if err != nil {
		return err
	}

	c, positions := w.channels, w.height*w.width
	eye, err := tensor.ScaledEye(c, 1/float64(positions), w.DType())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStructure, err)
	}
	want := mat.NewDense(c, c, eye.Float64s())

	for i := 0; i < w.height; i++ {
		for j := 0; j < w.width; j++ {
			got, err := w.SpatialSlice(i, j)
			if err != nil {
				return err
			}
			if !mat.EqualApprox(got, want, tol) {
				return fmt.Errorf("%w: slice (%d, %d) is not identity/%d", ErrStructure, i, j, positions)
			}
		}
	}

	if w.Bias == nil {
		return nil
	}
	if n := w.Bias.NumElements(); n != 1 {
		return fmt.Errorf("%w: bias has %d elements, want 1", ErrStructure, n)
	}
	if b := w.Bias.Float64s()[0]; math.Abs(b) > tol {
		return fmt.Errorf("%w: bias is %g, want 0", ErrStructure, b)
	}
	return nil
}
