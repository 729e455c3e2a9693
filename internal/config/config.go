package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// AppName is the application name used for the config directory and
// environment variable prefix.
const AppName = "harp"

// Config holds CLI configuration
type Config struct {
	DeviceSchema   string `yaml:"device_schema,omitempty" mapstructure:"device_schema"`
	RegisterSchema string `yaml:"register_schema,omitempty" mapstructure:"register_schema"`
	OutputFormat   string `yaml:"output_format,omitempty" mapstructure:"output_format"` // text, table, json, ndjson, yaml, html
}

// Keys lists the supported configuration keys.
func Keys() []string {
	return []string{"device_schema", "register_schema", "output_format"}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName), nil
}

// DefaultConfigPath returns the default config file path
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ReadConfig reads the config file from the default location
func ReadConfig() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Load loads config from the given path. A missing file yields an empty
// config. HARP_DEVICE_SCHEMA, HARP_REGISTER_SCHEMA and HARP_OUTPUT_FORMAT
// override the file.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// LoadFile loads only the config file, without environment overrides. It is
// the base for edits that are saved back.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(AppName)
	for _, key := range Keys() {
		// BindEnv only fails without a key.
		_ = v.BindEnv(key)
	}
	return v
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

// Set assigns a configuration key.
func (c *Config) Set(key, value string) error {
	switch key {
	case "device_schema":
		c.DeviceSchema = value
	case "register_schema":
		c.RegisterSchema = value
	case "output_format":
		c.OutputFormat = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// Unset clears a configuration key.
func (c *Config) Unset(key string) error {
	return c.Set(key, "")
}

// Save saves config to the given path
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
