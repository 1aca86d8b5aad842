package config

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Version string        `mapstructure:"version"`
	Store   StoreConfig   `mapstructure:"store"`
	Log     LogConfig     `mapstructure:"log"`
	Display DisplayConfig `mapstructure:"display"`
	Names   NamesConfig   `mapstructure:"names"`
}

type StoreConfig struct {
	Kind string   `mapstructure:"kind"` // file, pebble or s3
	Path string   `mapstructure:"path"` // directory for file and pebble stores
	S3   S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Secure    bool   `mapstructure:"secure"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DisplayConfig struct {
	// Precision is the number of decimals numbers are rounded to for display
	Precision int `mapstructure:"precision"`
}

type NamesConfig struct {
	// Uppercase normalizes cell names and formula variables to upper case
	Uppercase bool `mapstructure:"uppercase"`
}

// Store kinds
const (
	StoreFile   = "file"
	StorePebble = "pebble"
	StoreS3     = "s3"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("version", "default")
	v.SetDefault("store.kind", StoreFile)
	v.SetDefault("store.path", ".")
	v.SetDefault("store.s3.endpoint", "localhost:9000")
	v.SetDefault("store.s3.bucket", "sheets")
	v.SetDefault("store.s3.prefix", "")
	v.SetDefault("store.s3.access_key", "")
	v.SetDefault("store.s3.secret_key", "")
	v.SetDefault("store.s3.secure", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("display.precision", 5)
	v.SetDefault("names.uppercase", false)
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	switch c.Store.Kind {
	case StoreFile, StorePebble:
		if c.Store.Path == "" {
			warnings = append(warnings, fmt.Sprintf("store kind '%s' is configured but store.path is empty", c.Store.Kind))
		}
	case StoreS3:
		if c.Store.S3.Bucket == "" {
			warnings = append(warnings, "store kind 's3' is configured but store.s3.bucket is empty")
		}
		if c.Store.S3.AccessKey == "" || c.Store.S3.SecretKey == "" {
			warnings = append(warnings, "store kind 's3' is configured but credentials are empty")
		}
	default:
		warnings = append(warnings, fmt.Sprintf("unknown store kind '%s', expected file, pebble or s3", c.Store.Kind))
	}

	if c.Display.Precision < 0 || c.Display.Precision > 15 {
		warnings = append(warnings, fmt.Sprintf("display precision %d is outside range [0, 15]", c.Display.Precision))
	}

	if c.Log.Format != "console" && c.Log.Format != "json" {
		warnings = append(warnings, fmt.Sprintf("unknown log format '%s', expected console or json", c.Log.Format))
	}

	if c.Version == "" {
		warnings = append(warnings, "version is empty")
	}

	return warnings
}

// Load reads configuration from the file at path, if one is given, and from
// SHEET_* environment variables, on top of the defaults.
func Load(path string) (*Config, error) {
	return LoadFs(afero.NewOsFs(), path)
}

// LoadFs is Load reading the file from fs
func LoadFs(fs afero.Fs, path string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	setDefaults(v)
	v.SetEnvPrefix("SHEET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)
	cfg.Store.Kind = strings.ToLower(cfg.Store.Kind)

	return &cfg, nil
}
