// Package config loads application configuration with koanf layering:
// built-in defaults, then an optional YAML file, then MEDRECALL_ environment
// variables, then command-line flags. Later layers win.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	flag "github.com/spf13/pflag"

	"github.com/medrecall/medrecall/internal/sm2"
)

const envPrefix = "MEDRECALL_"

// Config is the full application configuration.
type Config struct {
	Listen    string       `koanf:"listen"   validate:"required"`
	Database  string       `koanf:"database" validate:"required"`
	Scheduler sm2.Settings `koanf:"scheduler"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Listen:    ":8080",
		Database:  "medrecall.db",
		Scheduler: sm2.DefaultSettings(),
	}
}

// Load builds the configuration from the optional YAML file at path, the
// environment, and the given flag set. A missing file is only an error when
// its path was set explicitly.
func Load(path string, flags *flag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	// MEDRECALL_SCHEDULER_EASYBONUS=1.3 → scheduler.easybonus
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("loading flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Scheduler = cfg.Scheduler.Normalize()

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
