// Package config loads the service configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Data     DataConfig     `yaml:"data"`
	ML       MLConfig       `yaml:"ml"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	Timeout        time.Duration `yaml:"timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type DataConfig struct {
	ReferencePath string `yaml:"reference_path"`
}

type MLConfig struct {
	ModelType  string `yaml:"model_type"`
	ModelPath  string `yaml:"model_path"`
	SchemaPath string `yaml:"schema_path"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type CacheConfig struct {
	Size int `yaml:"size"`
}

// Default returns the configuration used when a key is absent from the file.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:           8080,
			Timeout:        30 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Data: DataConfig{ReferencePath: "data/heart_2020_cleaned.csv"},
		ML: MLConfig{
			ModelType:  "decision_tree",
			ModelPath:  "models/model.json",
			SchemaPath: "models/schema.json",
		},
		Database: DatabaseConfig{Path: "data/heartrisk.db"},
		Cache:    CacheConfig{Size: 1024},
	}
}

// Load reads the YAML file at path on top of Default. Relative paths in the
// file are resolved against the file's directory.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	config.Data.ReferencePath = resolve(dir, config.Data.ReferencePath)
	config.ML.ModelPath = resolve(dir, config.ML.ModelPath)
	config.ML.SchemaPath = resolve(dir, config.ML.SchemaPath)
	config.Database.Path = resolve(dir, config.Database.Path)
	config.Log.File = resolve(dir, config.Log.File)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &config, nil
}

func resolve(dir, path string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d out of range", c.HTTP.Port))
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, errors.New("http.timeout must be positive"))
	}
	if c.Data.ReferencePath == "" {
		errs = append(errs, errors.New("data.reference_path is required"))
	}
	if c.ML.ModelType == "" {
		errs = append(errs, errors.New("ml.model_type is required"))
	}
	if c.ML.ModelPath == "" {
		errs = append(errs, errors.New("ml.model_path is required"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Cache.Size < 0 {
		errs = append(errs, errors.New("cache.size must not be negative"))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or console", c.Log.Format))
	}
	return errors.Join(errs...)
}
