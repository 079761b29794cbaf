package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source selection for the raw strain channels.
const (
	SourceAmp   = "amp"   // onboard strain amplifier over I2C
	SourceJoint = "joint" // auxiliary channels relayed by the actuator
)

// Config represents the load cell configuration.
type Config struct {
	Source     string      `yaml:"source"`     // "amp" or "joint"
	AmpGain    float64     `yaml:"amp_gain"`   // amplifier gain
	Excitation float64     `yaml:"excitation"` // bridge excitation voltage (V)
	Matrix     [][]float64 `yaml:"matrix"`     // 6x6 decoupling matrix
	I2C        I2CConfig   `yaml:"i2c"`
	Joint      JointConfig `yaml:"joint"`
}

// I2CConfig contains the bus wiring of the onboard strain amplifier.
type I2CConfig struct {
	Bus  int   `yaml:"bus"`  // bus number, e.g. 1 for /dev/i2c-1
	Addr uint8 `yaml:"addr"` // device address
}

// JointConfig contains the serial link to the actuator relay.
type JointConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// FactoryMatrix returns the device-specific factory decoupling matrix,
// mapping normalized bridge voltages (mV/V) to fx, fy, fz, mx, my, mz.
func FactoryMatrix() [][]float64 {
	return [][]float64{
		{-35.44949, -1408.27600, 5.28557, -14.07667, 19.88193, 1413.95837},
		{-3.48398, 821.60516, -51.38681, 1630.13098, 42.46563, 823.29095},
		{-817.61768, -2.21026, -840.11005, -8.60509, -831.32318, -3.53086},
		{17.09737, 0.17497, 0.22292, -0.58087, -16.93312, -0.05286},
		{-9.28386, -0.30000, 20.22296, -0.07903, -9.65388, 0.34513},
		{-0.61599, -21.24456, -0.50275, 21.10707, -0.80625, -23.02333},
	}
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Source:     SourceAmp,
		AmpGain:    125.0,
		Excitation: 5.0,
		Matrix:     FactoryMatrix(),
		I2C: I2CConfig{
			Bus:  1,
			Addr: 0x66,
		},
		Joint: JointConfig{
			Port:     "/dev/ttyACM0",
			BaudRate: 230400,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the fields that would otherwise only fail deep inside the
// engine: gain, excitation and matrix shape are construction-time errors.
func (c *Config) Validate() error {
	if c.Source != SourceAmp && c.Source != SourceJoint {
		return fmt.Errorf("invalid source %q: must be %q or %q", c.Source, SourceAmp, SourceJoint)
	}
	if c.AmpGain == 0 {
		return fmt.Errorf("amp_gain must be non-zero")
	}
	if c.Excitation == 0 {
		return fmt.Errorf("excitation must be non-zero")
	}
	if len(c.Matrix) != 6 {
		return fmt.Errorf("matrix must have 6 rows, got %d", len(c.Matrix))
	}
	for i, row := range c.Matrix {
		if len(row) != 6 {
			return fmt.Errorf("matrix row %d must have 6 columns, got %d", i, len(row))
		}
	}
	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Source == "" {
		c.Source = def.Source
	}
	if c.AmpGain == 0 {
		c.AmpGain = def.AmpGain
	}
	if c.Excitation == 0 {
		c.Excitation = def.Excitation
	}
	if len(c.Matrix) == 0 {
		c.Matrix = def.Matrix
	}
	if c.I2C.Bus == 0 {
		c.I2C.Bus = def.I2C.Bus
	}
	if c.I2C.Addr == 0 {
		c.I2C.Addr = def.I2C.Addr
	}
	if c.Joint.Port == "" {
		c.Joint.Port = def.Joint.Port
	}
	if c.Joint.BaudRate == 0 {
		c.Joint.BaudRate = def.Joint.BaudRate
	}
}
