package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port          string  `yaml:"port"`
	Environment   string  `yaml:"env"`
	ReadTimeout   int     `yaml:"read_timeout"`
	WriteTimeout  int     `yaml:"write_timeout"`
	LibraryDBPath string  `yaml:"library_db_path"`
	UnitScale     float64 `yaml:"unit_scale"`
	LogLevel      string  `yaml:"log_level"`
	LogFormat     string  `yaml:"log_format"`
}

// FileEnv names an optional YAML file read before the environment.
const FileEnv = "CONVERTER_CONFIG"

func defaults() *Config {
	return &Config{
		Port:          "3001",
		Environment:   "development",
		ReadTimeout:   10,
		WriteTimeout:  10,
		LibraryDBPath: "data/db/library.db",
		UnitScale:     1,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// Load загружает конфигурацию: значения по умолчанию, затем YAML-файл из
// CONVERTER_CONFIG, затем переменные окружения.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.overlay(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENV", cfg.Environment)
	cfg.ReadTimeout = getEnvAsInt("READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = getEnvAsInt("WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.LibraryDBPath = getEnv("LIBRARY_DB_PATH", cfg.LibraryDBPath)
	cfg.UnitScale = getEnvAsFloat("UNIT_SCALE", cfg.UnitScale)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)

	if cfg.UnitScale <= 0 {
		return nil, fmt.Errorf("unit scale must be positive, got %v", cfg.UnitScale)
	}
	return cfg, nil
}

func (c *Config) overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
