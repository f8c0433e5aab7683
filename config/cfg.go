package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	validator "github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	PipelineConfig struct {
		Steps []string `yaml:"steps" validate:"min=1,dive,oneof=merge remove_undefined combine_media_queries minify fix_rgb remove_media_queries"`
	}

	InputConfig struct {
		Extensions []string `yaml:"extensions" validate:"min=1,dive,startswith=."`
		CodePage   string   `yaml:"code_page"`
	}

	OutputConfig struct {
		Suffix        string `yaml:"suffix"`
		Overwrite     bool   `yaml:"overwrite"`
		Transliterate bool   `yaml:"transliterate"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Pipeline  PipelineConfig `yaml:"pipeline"`
		Input     InputConfig    `yaml:"input"`
		Output    OutputConfig   `yaml:"output"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

// checkConfig performs validations which could not be expressed with tags.
func checkConfig(sl validator.StructLevel) {
	cfg, ok := sl.Current().Interface().(Config)
	if !ok {
		return
	}
	if strings.ContainsAny(cfg.Output.Suffix, `/\`) {
		sl.ReportError(cfg.Output.Suffix, "Output.Suffix", "suffix", "nopathsep", "")
	}
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
			return nil, err
		}
		if err := gencfg.Validate(cfg, gencfg.WithAdditionalChecks(checkConfig)); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
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
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
