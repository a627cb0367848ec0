package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/upsample/internal/layer"
	"github.com/born-ml/upsample/internal/tensor"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upsample.yaml")
	doc := `
kernel:
  height: 3
  width: 5
  channels: 1
  use_bias: true
  dtype: float64
layer:
  kind: conv2d_transpose
output:
  path: ct.safetensors
  metadata:
    model: demo
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Kernel.Height)
	assert.Equal(t, 5, cfg.Kernel.Width)
	assert.Equal(t, tensor.Float64, cfg.Kernel.DType)
	assert.Equal(t, layer.Conv2DTranspose, cfg.Layer.Kind)
	assert.Equal(t, "upsample", cfg.Layer.Name)
	assert.Equal(t, "ct.safetensors", cfg.Output.Path)
	assert.Equal(t, map[string]string{"model": "demo"}, cfg.Output.Metadata)

	u := cfg.Upsampler()
	assert.Equal(t, layer.Upsampler{Kind: layer.Conv2DTranspose, Height: 3, Width: 5, Channels: 1, UseBias: true}, u)
}

func TestLoadRejectsUnknownKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("layer:\n  kind: dense\n"), 0o600))

	_, err := Load(path)
	assert.ErrorIs(t, err, layer.ErrUnknownKind)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "upsample.yaml")

	cfg := DefaultConfig()
	cfg.Kernel.Channels = 4
	cfg.Kernel.UseBias = false
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Kernel.Height = 0
	assert.ErrorIs(t, cfg.Validate(), layer.ErrInvalidSize)

	cfg = DefaultConfig()
	cfg.Layer.InputWidth = -1
	assert.Error(t, cfg.Validate())
}
