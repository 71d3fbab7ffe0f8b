// Package config loads the dev server's YAML configuration, validated with
// struct tags the way the teacher validates its own template config.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is hotmealsrv's full configuration surface.
type Config struct {
	Listen     string      `yaml:"listen" validate:"required,hostname_port"`
	WatchDir   string      `yaml:"watch_dir" validate:"required,dir"`
	WatchGlob  string      `yaml:"watch_glob" validate:"required"`
	AuditDB    string      `yaml:"audit_db" validate:"required"`
	Minify     bool        `yaml:"minify"`
	Differ     DifferOpts  `yaml:"differ"`
}

// DifferOpts exposes the differ's matching thresholds for tuning per
// deployment, mirroring differ.Options one-for-one.
type DifferOpts struct {
	MinHeight    int     `yaml:"min_height" validate:"gte=0"`
	SimThreshold float64 `yaml:"sim_threshold" validate:"gte=0,lte=1"`
}

// Default returns a Config with the reference thresholds, suitable as a
// starting point before overlaying a config file.
func Default() Config {
	return Config{
		Listen:    "127.0.0.1:8787",
		WatchDir:  ".",
		WatchGlob: "*.html",
		AuditDB:   "hotmeal_audit.sqlite",
		Differ:    DifferOpts{MinHeight: 2, SimThreshold: 0.5},
	}
}

var validate = validator.New()

// Load reads and validates a YAML config file at path.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}
