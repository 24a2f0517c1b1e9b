// Package config loads rtcsync settings from an optional YAML file and
// RTCSYNC_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "RTCSYNC"

const (
	BackendDevfs  = "devfs"
	BackendPeriph = "periph"
)

type Config struct {
	Bus   BusConfig   `mapstructure:"bus"`
	Clock ClockConfig `mapstructure:"clock"`
	Log   LogConfig   `mapstructure:"log"`
	MQTT  MQTTConfig  `mapstructure:"mqtt"`
	HTTP  HTTPConfig  `mapstructure:"http"`
	NTP   NTPConfig   `mapstructure:"ntp"`
}

type BusConfig struct {
	Backend string `mapstructure:"backend"`
	Device  string `mapstructure:"device"`
	Address uint16 `mapstructure:"address"`
}

type ClockConfig struct {
	// Timezone the RTC's wall-clock time is kept in; "Local" or an IANA name.
	Timezone         string `mapstructure:"timezone"`
	RereadOnRollover bool   `mapstructure:"reread_on_rollover"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type MQTTConfig struct {
	Broker   string        `mapstructure:"broker"`
	ClientID string        `mapstructure:"client_id"`
	Topic    string        `mapstructure:"topic"`
	QoS      byte          `mapstructure:"qos"`
	Interval time.Duration `mapstructure:"interval"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type NTPConfig struct {
	Server  string        `mapstructure:"server"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bus.backend", BackendDevfs)
	v.SetDefault("bus.device", "/dev/i2c-0")
	v.SetDefault("bus.address", 0x68)
	v.SetDefault("clock.timezone", "Local")
	v.SetDefault("clock.reread_on_rollover", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "rtcsync")
	v.SetDefault("mqtt.topic", "rtcsync/status")
	v.SetDefault("mqtt.qos", 0)
	v.SetDefault("mqtt.interval", time.Minute)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("ntp.server", "pool.ntp.org")
	v.SetDefault("ntp.timeout", 5*time.Second)
}

// New returns a viper instance with defaults and environment bindings, ready
// for flag overrides and Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (if non-empty) into v and decodes the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Bus.Backend {
	case BackendDevfs, BackendPeriph:
	default:
		return fmt.Errorf("config: unknown bus.backend %q", c.Bus.Backend)
	}
	// 7-bit addresses outside this range are reserved
	if c.Bus.Address < 0x03 || c.Bus.Address > 0x77 {
		return fmt.Errorf("config: bus.address 0x%02X outside 0x03-0x77", c.Bus.Address)
	}
	if _, err := c.Clock.Location(); err != nil {
		return err
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("config: mqtt.qos %d not in 0-2", c.MQTT.QoS)
	}
	if c.MQTT.Interval <= 0 {
		return fmt.Errorf("config: mqtt.interval must be positive")
	}
	if c.NTP.Timeout <= 0 {
		return fmt.Errorf("config: ntp.timeout must be positive")
	}
	return nil
}

// Location resolves Timezone.
func (c ClockConfig) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: clock.timezone: %w", err)
	}
	return loc, nil
}
