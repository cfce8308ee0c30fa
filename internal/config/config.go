// Package config loads the editor's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Source kinds.
const (
	SourceController = "controller"
	SourceHue        = "hue"
)

// DefaultPath is used when no --config flag is given.
const DefaultPath = "editor.yaml"

type Config struct {
	Source     string           `yaml:"source"`
	Controller ControllerConfig `yaml:"controller"`
	Hue        HueConfig        `yaml:"hue"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ControllerConfig points the editor at an LED controller's REST API.
type ControllerConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// HueConfig points the editor at a Philips Hue bridge. Brightness formulas
// use x as the input value.
type HueConfig struct {
	Host              string `yaml:"host"`
	User              string `yaml:"user"`
	Group             int    `yaml:"group"`
	BrightnessToHue   string `yaml:"brightness_to_hue"`
	BrightnessFromHue string `yaml:"brightness_from_hue"`
}

// ServerConfig is used by the simulated controller.
type ServerConfig struct {
	Listen string `yaml:"listen"`
	DBPath string `yaml:"db_path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File receives the log while the terminal editor owns the screen.
	File string `yaml:"file"`
}

func Default() Config {
	return Config{
		Source: SourceController,
		Controller: ControllerConfig{
			URL:     "http://localhost:3030",
			Timeout: 5 * time.Second,
		},
		Hue: HueConfig{
			BrightnessToHue:   "x * 254",
			BrightnessFromHue: "x / 254",
		},
		Server: ServerConfig{
			Listen: ":3030",
			DBPath: "effects.db",
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "CONSOLE",
			File:   "editor.log",
		},
	}
}

// Load reads path over the defaults, then applies environment overrides. A
// missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, err
	}
	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"EDITOR_SOURCE":  &c.Source,
		"CONTROLLER_URL": &c.Controller.URL,
		"HUE_HOST":       &c.Hue.Host,
		"HUE_USER":       &c.Hue.User,
		"LISTEN_ADDR":    &c.Server.Listen,
		"DB_PATH":        &c.Server.DBPath,
		"LOGGING_LEVEL":  &c.Logging.Level,
		"LOGGING_FORMAT": &c.Logging.Format,
	}
	for key, field := range overrides {
		if v := os.Getenv(key); v != "" {
			*field = v
		}
	}
}

func (c Config) Validate() error {
	switch c.Source {
	case SourceController:
		if c.Controller.URL == "" {
			return errors.New("controller.url is required")
		}
	case SourceHue:
		if c.Hue.Host == "" || c.Hue.User == "" {
			return errors.New("hue.host and hue.user are required")
		}
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}
	if c.Controller.Timeout < 0 {
		return errors.New("controller.timeout must not be negative")
	}
	return nil
}

// Save writes c to path.
func Save(path string, c Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
