// Package config loads the daemon configuration: a TOML file, FRAMECTL_*
// environment variables and command-line flags, in rising precedence.
// The stored profile-override table lives in its own file and is loaded
// separately so a malformed override never takes the daemon down with it.
package config

import (
	"os"
	"strings"

	"codeberg.org/avask/framectl/internal/errors"
	"codeberg.org/avask/framectl/internal/profile"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel = "info"
	DefaultInterval = 1

	defaultProfile      = "balanced"
	defaultOutput       = "eDP-1"
	defaultProfilesPath = "/etc/framectl/profiles.toml"
	defaultHistoryDB    = "/var/lib/framectl/history.db"
)

type HistoryConfig struct {
	Enabled  bool
	Database string
}

type Config struct {
	Interval int    // seconds between telemetry samples
	Profile  string // profile applied at startup
	Profiles string // path to the stored profile-override table
	Output   string // xrandr output name of the internal panel
	LogLevel string `mapstructure:"log_level"`
	Debug    bool
	Verbose  bool
	History  HistoryConfig
}

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

func Load() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	errFactory := errors.New()

	fs := pflag.NewFlagSet("framectl", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Int("interval", DefaultInterval, "Seconds between telemetry samples")
	fs.String("profile", defaultProfile, "Profile applied at startup")
	fs.String("profiles", defaultProfilesPath, "Path to the stored profile table")
	fs.String("output", defaultOutput, "Internal panel output name")
	fs.String("log_level", DefaultLogLevel, "Log level")
	fs.Bool("debug", false, "Enable debugging mode")
	fs.Bool("verbose", false, "Enable verbose logging")
	fs.Bool("history.enabled", false, "Record telemetry snapshots")
	fs.String("history.database", defaultHistoryDB, "Snapshot history database path")

	if err := fs.Parse(args); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v.SetEnvPrefix("FRAMECTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("FRAMECTL_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("framectl")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/framectl")
		v.AddConfigPath("/etc")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	errFactory := errors.New()

	if !validLogLevels[c.LogLevel] {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, "interval must be positive")
	}
	if c.History.Enabled && c.History.Database == "" {
		return errFactory.WithData(errors.ErrInvalidConfig, "history.database required when history is enabled")
	}

	return nil
}

// LoadOverrides reads the stored profile table at path and merges it
// over the built-in defaults, stored fields winning. A missing file is
// not an error; every platform simply runs on defaults.
func LoadOverrides(path string) (profile.Overrides, error) {
	errFactory := errors.New()

	defaults := profile.DefaultOverrides()

	if path == "" {
		return defaults, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return defaults, nil
		}
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}

	stored := profile.Overrides{}
	for platformKey, names := range v.AllSettings() {
		nameMap, ok := names.(map[string]any)
		if !ok {
			return nil, errFactory.WithData(errors.ErrInvalidConfig, platformKey)
		}

		stored[platformKey] = map[string]profile.FieldSet{}
		for name, fields := range nameMap {
			fieldMap, ok := fields.(map[string]any)
			if !ok {
				return nil, errFactory.WithData(errors.ErrInvalidConfig, platformKey+"."+name)
			}
			stored[platformKey][name] = profile.FieldSet(fieldMap)
		}
	}

	return profile.Merge(defaults, stored), nil
}
