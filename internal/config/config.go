package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/knobs/internal/host"
	"github.com/san-kum/knobs/internal/knob"
	"github.com/san-kum/knobs/internal/logging"
)

const (
	DefaultSize     = "medium"
	DefaultKnobType = "2"
	DefaultFamily   = "potentiometer"
	DefaultMode     = "relative"
	DefaultMinValue = 0.0
	DefaultMaxValue = 100.0
	DefaultStep     = 1.0
	DefaultWSAddr   = "127.0.0.1:8765"
	DefaultWSPath   = "/ws"
	DefaultDataDir  = ".knobs"
)

var (
	ErrNoKnobs         = errors.New("config: no knobs defined")
	ErrDuplicateID     = errors.New("config: duplicate knob id")
	ErrUnknownSize     = errors.New("config: unknown size")
	ErrUnknownKnobType = errors.New("config: unknown knob_type")
	ErrUnknownFamily   = errors.New("config: unknown family")
	ErrUnknownMode     = errors.New("config: unknown mode")
)

type Config struct {
	Title   string       `yaml:"title"`
	Knobs   []KnobConfig `yaml:"knobs"`
	Host    HostConfig   `yaml:"host"`
	Log     LogConfig    `yaml:"log"`
	DataDir string       `yaml:"data_dir"`
}

// KnobConfig is the construction surface of one knob. Pointer fields
// distinguish "unset" from zero.
type KnobConfig struct {
	ID           string   `yaml:"id"`
	Title        string   `yaml:"title"`
	Size         string   `yaml:"size"`
	KnobType     string   `yaml:"knob_type"`
	Family       string   `yaml:"family"`
	Mode         string   `yaml:"mode"`
	MinValue     float64  `yaml:"min_value"`
	MaxValue     float64  `yaml:"max_value"`
	Step         *float64 `yaml:"step,omitempty"`
	InitialValue *float64 `yaml:"initial_value,omitempty"`
	MinAngle     *float64 `yaml:"min_angle,omitempty"`
	MaxAngle     *float64 `yaml:"max_angle,omitempty"`
}

type HostConfig struct {
	Contract       string `yaml:"contract"`
	ResizeOnChange bool   `yaml:"resize_on_change"`
	WSAddr         string `yaml:"ws_addr"`
	WSPath         string `yaml:"ws_path"`
	Metrics        bool   `yaml:"metrics"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

func DefaultConfig() *Config {
	return &Config{
		Title: "knobs",
		Knobs: []KnobConfig{DefaultKnob("knob1")},
		Host: HostConfig{
			Contract: string(host.ContractAngleValue),
			WSPath:   DefaultWSPath,
		},
		Log:     LogConfig{Level: "info", Format: "text"},
		DataDir: DefaultDataDir,
	}
}

// DefaultKnob returns a 0..100 potentiometer starting at the midpoint.
func DefaultKnob(id string) KnobConfig {
	return KnobConfig{
		ID:       id,
		Title:    id,
		Size:     DefaultSize,
		KnobType: DefaultKnobType,
		Family:   DefaultFamily,
		Mode:     DefaultMode,
		MinValue: DefaultMinValue,
		MaxValue: DefaultMaxValue,
		Step:     Float(DefaultStep),
	}
}

// Float returns a pointer to v, for the optional fields of KnobConfig.
func Float(v float64) *float64 { return &v }

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Normalize fills unset knob fields with defaults and assigns ids to
// anonymous knobs.
func (c *Config) Normalize() {
	for i := range c.Knobs {
		k := &c.Knobs[i]
		if k.ID == "" {
			k.ID = fmt.Sprintf("knob%d", i+1)
		}
		if k.Title == "" {
			k.Title = k.ID
		}
		if k.Size == "" {
			k.Size = DefaultSize
		}
		if k.KnobType == "" {
			k.KnobType = DefaultKnobType
		}
		if k.Family == "" {
			k.Family = DefaultFamily
		}
		if k.Mode == "" {
			k.Mode = DefaultMode
		}
		if k.MinValue == 0 && k.MaxValue == 0 {
			k.MaxValue = DefaultMaxValue
		}
		if k.Step == nil {
			k.Step = Float(DefaultStep)
		}
	}
	if c.Host.WSPath == "" {
		c.Host.WSPath = DefaultWSPath
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
}

// Validate checks every knob and the host and log settings.
func (c *Config) Validate() error {
	if len(c.Knobs) == 0 {
		return ErrNoKnobs
	}
	seen := make(map[string]bool, len(c.Knobs))
	for _, k := range c.Knobs {
		if seen[k.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicateID, k.ID)
		}
		seen[k.ID] = true
		if err := k.Validate(); err != nil {
			return fmt.Errorf("knob %q: %w", k.ID, err)
		}
	}
	if _, err := host.ParseContract(c.Host.Contract); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Validate checks the rendering choices and the engine config.
func (k KnobConfig) Validate() error {
	if _, ok := Sizes[k.Size]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSize, k.Size)
	}
	if _, ok := KnobTypes[k.KnobType]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKnobType, k.KnobType)
	}
	if _, err := k.InteractionMode(); err != nil {
		return err
	}
	_, err := k.Build()
	return err
}

// Build resolves the family and defaults into an engine config and
// validates it. An unset initial value starts at the midpoint of the range.
func (k KnobConfig) Build() (knob.Config, error) {
	fam, ok := Families[k.Family]
	if !ok {
		return knob.Config{}, fmt.Errorf("%w: %q", ErrUnknownFamily, k.Family)
	}
	cfg := knob.Config{
		MinValue: k.MinValue,
		MaxValue: k.MaxValue,
		Step:     DefaultStep,
		MinAngle: fam.MinAngle,
		MaxAngle: fam.MaxAngle,
	}
	if k.Step != nil {
		cfg.Step = *k.Step
	}
	if k.MinAngle != nil {
		cfg.MinAngle = *k.MinAngle
	}
	if k.MaxAngle != nil {
		cfg.MaxAngle = *k.MaxAngle
	}
	if k.InitialValue != nil {
		cfg.InitialValue = *k.InitialValue
	} else {
		cfg.InitialValue = k.MinValue + (k.MaxValue-k.MinValue)/2
	}
	if err := cfg.Validate(); err != nil {
		return knob.Config{}, err
	}
	return cfg, nil
}

// InteractionMode returns the engine mode named by k.Mode.
func (k KnobConfig) InteractionMode() (knob.Mode, error) {
	m, ok := knob.ModeByName(k.Mode)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, k.Mode)
	}
	return m, nil
}

// Knob returns the knob with the given id.
func (c *Config) Knob(id string) (KnobConfig, bool) {
	for _, k := range c.Knobs {
		if k.ID == id {
			return k, true
		}
	}
	return KnobConfig{}, false
}
