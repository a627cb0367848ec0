package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/upsample/internal/kernel"
	"github.com/born-ml/upsample/internal/serialization"
	"github.com/born-ml/upsample/internal/tensor"
)

// build creates the weights described by the current configuration.
func (a *app) build() (*kernel.Weights, error) {
	k := a.cfg.Kernel
	weights, err := kernel.Bilinear(k.Height, k.Width, k.Channels, k.UseBias, k.DType)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("kernel built",
		zap.Stringer("shape", weights.Kernel.Shape()),
		zap.Bool("bias", weights.HasBias()),
	)
	return weights, nil
}

func newKernelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "kernel",
		Short: "Print the kernel slice by slice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			weights, err := a.build()
			if err != nil {
				return err
			}
			return printWeights(cmd.OutOrStdout(), weights)
		},
	}
}

func printWeights(out io.Writer, w *kernel.Weights) error {
	fmt.Fprintf(out, "kernel %v %s\n", w.Kernel.Shape(), w.DType())
	for i := 0; i < w.Height(); i++ {
		for j := 0; j < w.Width(); j++ {
			slice, err := w.SpatialSlice(i, j)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "[%d, %d]\n%v\n", i, j, mat.Formatted(slice, mat.Squeeze()))
		}
	}
	if w.HasBias() {
		fmt.Fprintf(out, "bias %v = %v\n", w.Bias.Shape(), w.Bias.Float64s())
	}
	return nil
}

func newExportCmd(a *app) *cobra.Command {
	var (
		output string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the weights to a SafeTensors file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			weights, err := a.build()
			if err != nil {
				return err
			}

			if err := a.cfg.Upsampler().Accept(weights.Tensors()); err != nil {
				if !force {
					return fmt.Errorf("layer would reject weights (use --force to export anyway): %w", err)
				}
				a.logger.Warn("exporting weights the layer would reject", zap.Error(err))
			}

			path := a.cfg.Output.Path
			if cmd.Flags().Changed("output") {
				path = output
			}
			if err := serialization.WriteSafeTensors(path, weights.StateDict(a.cfg.Layer.Name), a.metadata()); err != nil {
				return err
			}

			a.logger.Info("weights exported",
				zap.String("path", path),
				zap.Stringer("shape", weights.Kernel.Shape()),
				zap.Bool("bias", weights.HasBias()),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default from config)")
	cmd.Flags().BoolVar(&force, "force", false, "Export even if the layer contract rejects the weights")
	return cmd
}

// metadata merges the configured metadata with the build parameters.
func (a *app) metadata() map[string]string {
	meta := map[string]string{
		"initializer": "bilinear",
		"layer":       a.cfg.Layer.Kind.String(),
		"height":      strconv.Itoa(a.cfg.Kernel.Height),
		"width":       strconv.Itoa(a.cfg.Kernel.Width),
		"channels":    strconv.Itoa(a.cfg.Kernel.Channels),
		"use_bias":    strconv.FormatBool(a.cfg.Kernel.UseBias),
	}
	for k, v := range a.cfg.Output.Metadata {
		meta[k] = v
	}
	return meta
}

func newInspectCmd(a *app) *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "List the tensors of a SafeTensors file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := serialization.ReadSafeTensors(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range file.Names() {
				h := file.Headers[name]
				fmt.Fprintf(out, "%s\t%s\t%v\n", name, h.DType, h.Shape)
			}
			for k, v := range file.Metadata {
				a.logger.Debug("metadata", zap.String("key", k), zap.String("value", v))
			}

			if !verify {
				return nil
			}
			weights, err := kernelFromFile(file)
			if err != nil {
				return err
			}
			if err := kernel.Verify(weights, kernel.DefaultTolerance); err != nil {
				return err
			}
			fmt.Fprintln(out, "bilinear kernel: ok")
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "Check that the file holds a bilinear kernel")
	return cmd
}

// kernelFromFile finds the first "kernel" tensor in file order (and the
// "bias" with the same prefix, if any).
func kernelFromFile(file *serialization.File) (*kernel.Weights, error) {
	for _, name := range file.Names() {
		if name != kernel.KernelName && !strings.HasSuffix(name, "."+kernel.KernelName) {
			continue
		}
		tensors := []*tensor.RawTensor{file.Tensors[name]}
		biasName := strings.TrimSuffix(name, kernel.KernelName) + kernel.BiasName
		if b, ok := file.Tensors[biasName]; ok {
			tensors = append(tensors, b)
		}
		return kernel.FromTensors(tensors)
	}
	return nil, fmt.Errorf("%w: no tensor named %q", kernel.ErrStructure, kernel.KernelName)
}

func newPlanCmd(a *app) *cobra.Command {
	var inH, inW int

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show shapes and sizes of the upsample + convolution pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("input-height") {
				a.cfg.Layer.InputHeight = inH
			}
			if cmd.Flags().Changed("input-width") {
				a.cfg.Layer.InputWidth = inW
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			u := a.cfg.Upsampler()
			h, w := a.cfg.Layer.InputHeight, a.cfg.Layer.InputWidth
			upH, upW, err := u.UpsampledSize(h, w)
			if err != nil {
				return err
			}
			convH, convW, err := u.ConvSize(h, w)
			if err != nil {
				return err
			}
			outH, outW, err := u.OutputSize(h, w)
			if err != nil {
				return err
			}
			cropH, cropW := u.Cropping()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "layer       %s\n", u.Kind)
			fmt.Fprintf(out, "input       (%d, %d, %d)\n", h, w, u.Channels)
			fmt.Fprintf(out, "upsampled   (%d, %d, %d)\n", upH, upW, u.Channels)
			fmt.Fprintf(out, "convolved   (%d, %d, %d)\n", convH, convW, u.Channels)
			fmt.Fprintf(out, "cropping    (%d, %d)\n", cropH, cropW)
			fmt.Fprintf(out, "output      (%d, %d, %d)\n", outH, outW, u.Channels)
			fmt.Fprintf(out, "kernel      %v\n", u.KernelShape())
			if u.UseBias {
				fmt.Fprintf(out, "bias        %v\n", u.BiasShape())
			}

			weights, err := a.build()
			if err != nil {
				return err
			}
			if err := u.Accept(weights.Tensors()); err != nil {
				fmt.Fprintf(out, "accepted    no: %v\n", err)
				return nil
			}
			fmt.Fprintln(out, "accepted    yes")
			return nil
		},
	}

	cmd.Flags().IntVar(&inH, "input-height", 0, "Input height (default from config)")
	cmd.Flags().IntVar(&inW, "input-width", 0, "Input width (default from config)")
	return cmd
}
