package progressbar

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the YAML form of a bar configuration, for programs that let
// users tune their progress output from a file:
//
//	description: fetching
//	unit: B
//	unit_scale: true
//	unit_divisor: 1024
//	min_interval: 250ms
//	animation: ascii
//	output: stdout
//
// Fields left out keep the defaults of New.
type Settings struct {
	Description     string   `yaml:"description"`
	Postfix         string   `yaml:"postfix"`
	Unit            string   `yaml:"unit"`
	UnitScale       bool     `yaml:"unit_scale"`
	UnitDivisor     int      `yaml:"unit_divisor"`
	MinInterval     string   `yaml:"min_interval"`
	MinIters        int64    `yaml:"min_iters"`
	DynamicMinIters bool     `yaml:"dynamic_min_iters"`
	Delay           string   `yaml:"delay"`
	Disable         bool     `yaml:"disable"`
	Leave           *bool    `yaml:"leave"`
	Width           int      `yaml:"width"`
	Initial         int64    `yaml:"initial"`
	Position        int      `yaml:"position"`
	Colour          string   `yaml:"colour"`
	Animation       string   `yaml:"animation"`
	Charset         []string `yaml:"charset"`
	Fill            string   `yaml:"fill"`
	ForceRefresh    bool     `yaml:"force_refresh"`
	HumanTime       bool     `yaml:"human_time"`
	Template        string   `yaml:"template"`
	Output          string   `yaml:"output"`
	Plain           *bool    `yaml:"plain"`
}

// ParseSettings decodes YAML settings. Unknown keys are rejected.
func ParseSettings(data []byte) (Settings, error) {
	var s Settings
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	return s, nil
}

// LoadSettings reads and decodes a YAML settings file.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings file: %w", err)
	}
	return ParseSettings(data)
}

// Options converts the settings into options for New. An output naming a
// file opens it; the file stays open for the life of the bar.
func (s Settings) Options() ([]Option, error) {
	var opts []Option

	if s.Description != "" {
		opts = append(opts, OptionDescription(s.Description))
	}
	if s.Postfix != "" {
		opts = append(opts, OptionPostfix(s.Postfix))
	}
	if s.Unit != "" {
		opts = append(opts, OptionUnit(s.Unit))
	}
	if s.UnitScale {
		opts = append(opts, OptionUnitScale(true))
	}
	if s.UnitDivisor != 0 {
		opts = append(opts, OptionUnitDivisor(s.UnitDivisor))
	}
	if s.MinInterval != "" {
		d, err := time.ParseDuration(s.MinInterval)
		if err != nil {
			return nil, fmt.Errorf("parse min_interval: %w", err)
		}
		opts = append(opts, OptionThrottle(d))
	}
	if s.MinIters != 0 {
		opts = append(opts, OptionMinIters(s.MinIters))
	}
	if s.DynamicMinIters {
		opts = append(opts, OptionDynamicMinIters())
	}
	if s.Delay != "" {
		d, err := time.ParseDuration(s.Delay)
		if err != nil {
			return nil, fmt.Errorf("parse delay: %w", err)
		}
		opts = append(opts, OptionDelay(d))
	}
	if s.Disable {
		opts = append(opts, OptionVisibility(false))
	}
	if s.Leave != nil && !*s.Leave {
		opts = append(opts, OptionClearOnFinish())
	}
	if s.Width != 0 {
		opts = append(opts, OptionWidth(s.Width))
	}
	if s.Initial != 0 {
		opts = append(opts, OptionInitial(s.Initial))
	}
	if s.Position != 0 {
		opts = append(opts, OptionPosition(s.Position))
	}
	if s.Colour != "" {
		opts = append(opts, OptionColour(s.Colour))
	}
	if s.Animation != "" || len(s.Charset) > 0 {
		name := s.Animation
		if name == "" {
			name = "custom"
		}
		a, err := ParseAnimation(name, s.Charset...)
		if err != nil {
			return nil, err
		}
		a.Fill = s.Fill
		opts = append(opts, OptionAnimation(a))
	}
	if s.ForceRefresh {
		opts = append(opts, OptionForceRefresh())
	}
	if s.HumanTime {
		opts = append(opts, OptionHumanTime())
	}
	if s.Template != "" {
		opts = append(opts, OptionTemplate(s.Template))
	}
	if s.Output != "" {
		w, err := OpenSink(s.Output)
		if err != nil {
			return nil, err
		}
		opts = append(opts, OptionWriter(w))
	}
	if s.Plain != nil {
		opts = append(opts, OptionPlain(*s.Plain))
	}
	return opts, nil
}
