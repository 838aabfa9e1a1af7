package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"epr/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	FootnotesConfig struct {
		PopoverMaxChars int `yaml:"popover_max_chars" validate:"min=80,max=2000"`
		LongPressMS     int `yaml:"long_press_ms" validate:"min=100,max=2000"`
		AutoHideMS      int `yaml:"auto_hide_ms" validate:"min=500,max=10000"`
	}

	ReaderConfig struct {
		DefaultDisplayMode common.DisplayMode `yaml:"default_display_mode" validate:"gte=0"`
		DefaultTheme       common.Theme       `yaml:"default_theme" validate:"gte=0"`
		ReopenLastPosition bool               `yaml:"reopen_last_position"`
		TitleTemplate      string             `yaml:"title_template"`
		StylesheetPath     string             `yaml:"stylesheet_path" sanitize:"assure_file_access"`
		Footnotes          FootnotesConfig    `yaml:"footnotes"`
	}

	TapConfig struct {
		MaxDurationMS int `yaml:"max_duration_ms" validate:"min=50,max=2000"`
		MaxMovementPX int `yaml:"max_movement_px" validate:"min=1,max=100"`
	}

	EngineConfig struct {
		OpenTimeoutMS    int       `yaml:"open_timeout_ms" validate:"min=1000"`
		DisplayTimeoutMS int       `yaml:"display_timeout_ms" validate:"min=500"`
		TOCTimeoutMS     int       `yaml:"toc_timeout_ms" validate:"min=500"`
		ViewportWidth    int       `yaml:"viewport_width" validate:"min=320"`
		Tap              TapConfig `yaml:"tap"`
	}

	StorageConfig struct {
		Path string `yaml:"path" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Reader    ReaderConfig   `yaml:"reader"`
		Engine    EngineConfig   `yaml:"engine"`
		Storage   StorageConfig  `yaml:"storage"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, alternative is to use struct
	// field name and reflection which I want to avoid for now
	TitleTemplateFieldName TemplateFieldName = "title_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(TitleTemplateFieldName)),
)

// Millisecond fields are plain ints to keep yaml readable; code wants
// durations.

func (c *EngineConfig) OpenTimeout() time.Duration {
	return time.Duration(c.OpenTimeoutMS) * time.Millisecond
}

func (c *EngineConfig) DisplayTimeout() time.Duration {
	return time.Duration(c.DisplayTimeoutMS) * time.Millisecond
}

func (c *EngineConfig) TOCTimeout() time.Duration {
	return time.Duration(c.TOCTimeoutMS) * time.Millisecond
}

func (c *TapConfig) MaxDuration() time.Duration {
	return time.Duration(c.MaxDurationMS) * time.Millisecond
}

func (c *FootnotesConfig) LongPress() time.Duration {
	return time.Duration(c.LongPressMS) * time.Millisecond
}

func (c *FootnotesConfig) AutoHide() time.Duration {
	return time.Duration(c.AutoHideMS) * time.Millisecond
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("failed to sanitize configuration: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("failed to validate configuration: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration tamplate to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
