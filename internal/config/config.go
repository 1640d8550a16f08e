// Package config loads layered runtime configuration for the strudel
// CLI: flags override environment variables (STRUDEL_*), which override
// a .strudel.yaml file, which override the built-in defaults below.
package config

import (
	"os"

	"github.com/spf13/viper"
)

// Config holds every setting the scheduler, sinks, and watcher need at
// startup. Values are populated by Load from .strudel.yaml, STRUDEL_*
// env vars, and CLI flags (applied by cmd/strudel on top).
type Config struct {
	CPS        float64 `mapstructure:"cps"`
	LookAheadMS int    `mapstructure:"look_ahead_ms"`
	IntervalMS  int    `mapstructure:"interval_ms"`

	Sink        string `mapstructure:"sink"`
	MIDIDevice  string `mapstructure:"midi_device"`
	MIDIChannel int    `mapstructure:"midi_channel"`

	SerialDevice string `mapstructure:"serial_device"`
	SerialBaud   int    `mapstructure:"serial_baud"`

	SessionDB string `mapstructure:"session_db"`
	Verbose   bool   `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for
// any value not set by a config file, environment, or flag.
func Load(cfgFile string) (Config, error) {
	viper.SetDefault("cps", 0.5)
	viper.SetDefault("look_ahead_ms", 100)
	viper.SetDefault("interval_ms", 50)
	viper.SetDefault("sink", "log")
	viper.SetDefault("midi_device", "")
	viper.SetDefault("midi_channel", 0)
	viper.SetDefault("serial_device", "")
	viper.SetDefault("serial_baud", 115200)
	viper.SetDefault("session_db", "strudel.db")
	viper.SetDefault("verbose", false)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".strudel")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("STRUDEL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Config{}, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
