package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/nixxel-company-limited/escpos-serial-printer/adapter"
)

// Keys read from the environment or the config file
const (
	KeyServerAddress = "SERVER_ADDRESS"
	KeyDevice        = "PRINTER_DEVICE"
	KeyConfigFile    = "PRINTER_CONFIG"
)

const DefaultServerAddress = "localhost:9100"

// Config holds the settings of the printer server binary
type Config struct {
	ServerAddress string
	Serial        adapter.SerialConfig
}

// Load reads the configuration from environment variables and, when
// PRINTER_CONFIG names one, a config file. Environment variables win.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	// Initialize Viper to read from environment variables
	v.AutomaticEnv()
	v.SetDefault(KeyServerAddress, DefaultServerAddress)
	v.SetDefault(KeyDevice, adapter.DefaultDevice)

	if path := v.GetString(KeyConfigFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		ServerAddress: v.GetString(KeyServerAddress),
		Serial:        adapter.DefaultSerialConfig(),
	}
	cfg.Serial.Device = v.GetString(KeyDevice)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration correctness
func Validate(cfg *Config) error {
	if cfg.ServerAddress == "" {
		return fmt.Errorf("%s must not be empty", KeyServerAddress)
	}
	if cfg.Serial.Device == "" {
		return fmt.Errorf("%s must not be empty", KeyDevice)
	}
	if !adapter.ValidBaudRate(cfg.Serial.BaudRate) {
		return fmt.Errorf("%w: %d", adapter.ErrInvalidBaudRate, cfg.Serial.BaudRate)
	}
	return nil
}
