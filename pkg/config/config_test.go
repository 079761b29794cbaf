package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, SourceAmp, cfg.Source)
	assert.Equal(t, 125.0, cfg.AmpGain)
	assert.Equal(t, 5.0, cfg.Excitation)
	assert.Equal(t, FactoryMatrix(), cfg.Matrix)
	assert.Equal(t, 1, cfg.I2C.Bus)
	assert.Equal(t, uint8(0x66), cfg.I2C.Addr)
	assert.Equal(t, "/dev/ttyACM0", cfg.Joint.Port)
	assert.Equal(t, 230400, cfg.Joint.BaudRate)

	assert.NoError(t, cfg.Validate())
}

func TestFactoryMatrixShape(t *testing.T) {
	m := FactoryMatrix()
	require.Len(t, m, 6)
	for _, row := range m {
		assert.Len(t, row, 6)
	}
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, SourceAmp, cfg.Source)
	assert.Equal(t, 125.0, cfg.AmpGain)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
source: "joint"
amp_gain: 250.0
excitation: 10.0

i2c:
  bus: 3
  addr: 0x67

joint:
  port: "/dev/ttyUSB1"
  baud_rate: 115200
`
	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)

	assert.Equal(t, SourceJoint, cfg.Source)
	assert.Equal(t, 250.0, cfg.AmpGain)
	assert.Equal(t, 10.0, cfg.Excitation)
	assert.Equal(t, 3, cfg.I2C.Bus)
	assert.Equal(t, uint8(0x67), cfg.I2C.Addr)
	assert.Equal(t, "/dev/ttyUSB1", cfg.Joint.Port)
	assert.Equal(t, 115200, cfg.Joint.BaudRate)

	// Fields absent from the file keep their defaults.
	assert.Equal(t, FactoryMatrix(), cfg.Matrix)
}

func TestLoad_BadMatrix(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
matrix:
  - [1, 2, 3]
  - [4, 5, 6]
`
	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	_, err = Load(tmpfile.Name())
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("source: [unclosed")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	_, err = Load(tmpfile.Name())
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "default is valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown source",
			mutate:  func(c *Config) { c.Source = "imu" },
			wantErr: true,
		},
		{
			name:    "zero gain",
			mutate:  func(c *Config) { c.AmpGain = 0 },
			wantErr: true,
		},
		{
			name:    "zero excitation",
			mutate:  func(c *Config) { c.Excitation = 0 },
			wantErr: true,
		},
		{
			name:    "wrong matrix row count",
			mutate:  func(c *Config) { c.Matrix = c.Matrix[:3] },
			wantErr: true,
		},
		{
			name:    "ragged matrix",
			mutate:  func(c *Config) { c.Matrix[0] = c.Matrix[0][:2] },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensecore.yaml")

	cfg := Default()
	cfg.Source = SourceJoint
	cfg.AmpGain = 200.0
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
