// Package main provides the upsample CLI.
//
// It builds bilinear upsampling weights, exports them as SafeTensors and
// describes how an upsample + convolution layer pair consumes them.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/born-ml/upsample/internal/config"
	"github.com/born-ml/upsample/internal/logging"
)

const version = "v0.1.0"

// app carries state shared by the subcommands.
type app struct {
	configPath string
	verbose    bool

	// Kernel flags, applied over the config file when set.
	height   int
	width    int
	channels int
	noBias   bool
	dtype    string
	kind     string

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "upsample",
		Short: "Bilinear kernels for upsampling layers",
		Long: `upsample builds fixed weights that make an UpSampling2D followed by a
Conv2D or Conv2DTranspose layer perform a uniform averaging upsample.

Each spatial position of the (h, w, channels, channels) kernel holds
identity(channels) / (h*w).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "upsample.yaml", "Path to YAML config")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	flags.IntVar(&a.height, "height", 0, "Vertical magnification factor")
	flags.IntVar(&a.width, "width", 0, "Horizontal magnification factor")
	flags.IntVar(&a.channels, "channels", 0, "Input and output channel count")
	flags.BoolVar(&a.noBias, "no-bias", false, "Build weights for a layer without bias")
	flags.StringVar(&a.dtype, "dtype", "", "Element type: float32 or float64")
	flags.StringVar(&a.kind, "layer", "", "Consuming layer: conv2d or conv2d_transpose")

	root.AddCommand(
		newKernelCmd(a),
		newExportCmd(a),
		newInspectCmd(a),
		newPlanCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads the config, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := a.applyFlags(cmd, cfg); err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(a.verbose || cfg.Logging.Verbose)
	if err != nil {
		return err
	}
	a.logger = logger.With(zap.String("command", cmd.Name()))
	a.logger.Debug("configuration loaded",
		zap.String("path", a.configPath),
		zap.Int("height", cfg.Kernel.Height),
		zap.Int("width", cfg.Kernel.Width),
		zap.Int("channels", cfg.Kernel.Channels),
		zap.Bool("use_bias", cfg.Kernel.UseBias),
		zap.Stringer("dtype", cfg.Kernel.DType),
		zap.Stringer("layer", cfg.Layer.Kind),
	)
	return nil
}

func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("height") {
		cfg.Kernel.Height = a.height
	}
	if flags.Changed("width") {
		cfg.Kernel.Width = a.width
	}
	if flags.Changed("channels") {
		cfg.Kernel.Channels = a.channels
	}
	if flags.Changed("no-bias") {
		cfg.Kernel.UseBias = !a.noBias
	}
	if flags.Changed("dtype") {
		if err := cfg.Kernel.DType.UnmarshalText([]byte(a.dtype)); err != nil {
			return fmt.Errorf("--dtype: %w", err)
		}
	}
	if flags.Changed("layer") {
		if err := cfg.Layer.Kind.UnmarshalText([]byte(a.kind)); err != nil {
			return fmt.Errorf("--layer: %w", err)
		}
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		// No config or logger needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "upsample %s\n", version)
		},
	}
}
