package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Bank struct {
		Default string `yaml:"default"`
		TTL     string `yaml:"ttl"`
	} `yaml:"bank"`
	Quiz struct {
		Duration     string `yaml:"duration"`
		WarningDelay string `yaml:"warningDelay"`
		TickInterval string `yaml:"tickInterval"`
		TimeFormat   string `yaml:"timeFormat"`
		PassMark     int    `yaml:"passMark"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path. A missing file yields the zero Config so
// every section falls back to its defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// StringOr returns raw unless it is empty.
func StringOr(raw, fallback string) string {
	if raw == "" {
		return fallback
	}
	return raw
}
