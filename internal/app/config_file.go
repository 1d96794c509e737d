package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the optional YAML configuration schema. Nested sections map
// naturally to the flag names.
type FileConfig struct {
	Server struct {
		Base string `yaml:"base"`
		UA   string `yaml:"ua"`
	} `yaml:"server"`

	Transport struct {
		MaxAttempts int `yaml:"maxAttempts"`
		// HeaderTimeout is a Go duration string, e.g. "5s".
		HeaderTimeout string `yaml:"headerTimeout"`
	} `yaml:"transport"`

	History struct {
		Path  string `yaml:"path"`
		Limit int    `yaml:"limit"`
		Off   bool   `yaml:"off"`
	} `yaml:"history"`

	Export struct {
		PDF string `yaml:"pdf"`
	} `yaml:"export"`

	Verbose bool `yaml:"verbose"`
}

// LoadConfigFile reads and parses the YAML config at path.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}

// Merge fills empty Config fields from the file. Flags and env always win:
// only unset values are taken from the file.
func Merge(cfg Config, fc FileConfig) Config {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = fc.Server.Base
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = fc.Server.UA
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = fc.Transport.MaxAttempts
	}
	if cfg.HeaderTimeout == 0 && fc.Transport.HeaderTimeout != "" {
		if d, err := time.ParseDuration(fc.Transport.HeaderTimeout); err == nil {
			cfg.HeaderTimeout = d
		}
	}
	if strings.TrimSpace(cfg.HistoryPath) == "" {
		cfg.HistoryPath = fc.History.Path
	}
	if cfg.HistoryLimit == 0 {
		cfg.HistoryLimit = fc.History.Limit
	}
	if fc.History.Off {
		cfg.NoHistory = true
	}
	if strings.TrimSpace(cfg.PDFPath) == "" {
		cfg.PDFPath = fc.Export.PDF
	}
	if fc.Verbose {
		cfg.Verbose = true
	}
	return cfg
}
