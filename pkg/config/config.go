package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial    SerialConfig    `yaml:"serial"`
	ADC       ADCConfig       `yaml:"adc"`
	Smoother  SmootherConfig  `yaml:"smoother"`
	Quantizer QuantizerConfig `yaml:"quantizer"`
	Mock      MockConfig      `yaml:"mock"`
	Recording RecordingConfig `yaml:"recording"`
	Display   DisplayConfig   `yaml:"display"`
}

// SerialConfig contains serial port configuration for the ADC bridge.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// ADCConfig describes how raw counts map to millivolts.
type ADCConfig struct {
	ResolutionBits int `yaml:"resolution_bits"`
	ReferenceMV    int `yaml:"reference_mv"` // Input voltage at full-scale count (after the divider)
}

// SmootherConfig contains moving average filter parameters.
type SmootherConfig struct {
	Window         int `yaml:"window"`          // Number of samples averaged, must be a power of two
	SlopeThreshold int `yaml:"slope_threshold"` // Jump in ADC counts (at adc.resolution_bits) that resets the filter
}

// QuantizerConfig contains step quantization parameters.
type QuantizerConfig struct {
	FullScaleMV int `yaml:"full_scale_mv"`
	StepCount   int `yaml:"step_count"`
}

// MockConfig contains simulated CV source configuration.
type MockConfig struct {
	Waveform    string        `yaml:"waveform"`     // sine, ramp or steps
	FrequencyHz float64       `yaml:"frequency_hz"` // Waveform frequency
	OffsetMV    float64       `yaml:"offset_mv"`    // Center voltage (mV)
	AmplitudeMV float64       `yaml:"amplitude_mv"` // Peak deviation from center (mV)
	NoiseMV     float64       `yaml:"noise_mv"`     // Noise level (mV)
	SampleRate  time.Duration `yaml:"sample_rate"`  // Sample period
}

// RecordingConfig points at a recorded CV signal to quantize offline.
type RecordingConfig struct {
	Path string `yaml:"path"`
}

// DisplayConfig selects the host front-panel implementation.
type DisplayConfig struct {
	Mode string `yaml:"mode"` // panel or terminal
}

// Display modes.
const (
	DisplayPanel    = "panel"
	DisplayTerminal = "terminal"
)

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0",
			BaudRate: 115200,
		},
		ADC: ADCConfig{
			ResolutionBits: 16,
			ReferenceMV:    5000,
		},
		Smoother: SmootherConfig{
			Window:         128,
			SlopeThreshold: 1000,
		},
		Quantizer: QuantizerConfig{
			FullScaleMV: 5000, // 5 octaves at 1V/oct
			StepCount:   60,   // 12 semitones per volt
		},
		Mock: MockConfig{
			Waveform:    "sine",
			FrequencyHz: 0.1,
			OffsetMV:    2500,
			AmplitudeMV: 2400,
			NoiseMV:     5,
			SampleRate:  time.Millisecond,
		},
		Display: DisplayConfig{
			Mode: DisplayPanel,
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

// Validate reports parameter combinations the pipeline cannot run with.
func (c *Config) Validate() error {
	if w := c.Smoother.Window; w <= 0 || w&(w-1) != 0 {
		return fmt.Errorf("invalid smoother window %d: must be a positive power of two", w)
	}
	if c.Smoother.SlopeThreshold <= 0 {
		return fmt.Errorf("invalid slope threshold %d: must be positive", c.Smoother.SlopeThreshold)
	}
	if c.Quantizer.StepCount < 2 {
		return fmt.Errorf("invalid step count %d: need at least 2 steps", c.Quantizer.StepCount)
	}
	if c.Quantizer.FullScaleMV < c.Quantizer.StepCount {
		return fmt.Errorf("invalid full scale %d mV for %d steps", c.Quantizer.FullScaleMV, c.Quantizer.StepCount)
	}
	if c.ADC.ResolutionBits < 1 || c.ADC.ResolutionBits > 24 {
		return fmt.Errorf("invalid ADC resolution %d bits", c.ADC.ResolutionBits)
	}
	if c.Mock.SampleRate <= 0 {
		return fmt.Errorf("invalid mock sample rate %s: must be positive", c.Mock.SampleRate)
	}
	switch c.Display.Mode {
	case DisplayPanel, DisplayTerminal:
	default:
		return fmt.Errorf("unknown display mode %q", c.Display.Mode)
	}
	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.ADC.ResolutionBits == 0 {
		c.ADC.ResolutionBits = def.ADC.ResolutionBits
	}
	if c.ADC.ReferenceMV == 0 {
		c.ADC.ReferenceMV = def.ADC.ReferenceMV
	}

	if c.Smoother.Window == 0 {
		c.Smoother.Window = def.Smoother.Window
	}
	if c.Smoother.SlopeThreshold == 0 {
		c.Smoother.SlopeThreshold = def.Smoother.SlopeThreshold
	}

	if c.Quantizer.FullScaleMV == 0 {
		c.Quantizer.FullScaleMV = def.Quantizer.FullScaleMV
	}
	if c.Quantizer.StepCount == 0 {
		c.Quantizer.StepCount = def.Quantizer.StepCount
	}

	if c.Mock.Waveform == "" {
		c.Mock.Waveform = def.Mock.Waveform
	}
	if c.Mock.FrequencyHz == 0 {
		c.Mock.FrequencyHz = def.Mock.FrequencyHz
	}
	if c.Mock.SampleRate == 0 {
		c.Mock.SampleRate = def.Mock.SampleRate
	}

	if c.Display.Mode == "" {
		c.Display.Mode = def.Display.Mode
	}
}
