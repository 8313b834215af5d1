// Package config loads application settings from environment variables and an
// optional .env file, with Viper providing the binding and defaults.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all tunables for the payment client core.
type Config struct {
	ServerPort        string  `mapstructure:"SERVER_PORT"`
	SessionSigningKey string  `mapstructure:"SESSION_SIGNING_KEY"`
	SessionTimeoutMin int     `mapstructure:"SESSION_TIMEOUT_MINUTES"`
	MonitorIntervalS  int     `mapstructure:"SESSION_MONITOR_INTERVAL_SECONDS"`
	MaxLoginAttempts  int     `mapstructure:"MAX_LOGIN_ATTEMPTS"`
	LockoutMinutes    int     `mapstructure:"LOCKOUT_MINUTES"`
	StartingBalance   float64 `mapstructure:"STARTING_BALANCE"`
	SimTickSeconds    int     `mapstructure:"SIMULATOR_TICK_SECONDS"`
	SimProbability    float64 `mapstructure:"SIMULATOR_EVENT_PROBABILITY"`
}

// SessionTimeout returns the session timeout as a duration.
func (c Config) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutMin) * time.Minute
}

// MonitorInterval returns the liveness monitor cadence as a duration.
func (c Config) MonitorInterval() time.Duration {
	return time.Duration(c.MonitorIntervalS) * time.Second
}

// LockoutDuration returns the login lockout window as a duration.
func (c Config) LockoutDuration() time.Duration {
	return time.Duration(c.LockoutMinutes) * time.Minute
}

// SimulatorTick returns the background event cadence as a duration.
func (c Config) SimulatorTick() time.Duration {
	return time.Duration(c.SimTickSeconds) * time.Second
}

// LoadConfig reads configuration from environment variables and, when present,
// a .env file in the given path. Missing values fall back to defaults.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SESSION_SIGNING_KEY", "dev-only-signing-key")
	v.SetDefault("SESSION_TIMEOUT_MINUTES", 30)
	v.SetDefault("SESSION_MONITOR_INTERVAL_SECONDS", 60)
	v.SetDefault("MAX_LOGIN_ATTEMPTS", 5)
	v.SetDefault("LOCKOUT_MINUTES", 15)
	v.SetDefault("STARTING_BALANCE", 1000.0)
	v.SetDefault("SIMULATOR_TICK_SECONDS", 5)
	v.SetDefault("SIMULATOR_EVENT_PROBABILITY", 0.10)

	for _, key := range []string{
		"SERVER_PORT",
		"SESSION_SIGNING_KEY",
		"SESSION_TIMEOUT_MINUTES",
		"SESSION_MONITOR_INTERVAL_SECONDS",
		"MAX_LOGIN_ATTEMPTS",
		"LOCKOUT_MINUTES",
		"STARTING_BALANCE",
		"SIMULATOR_TICK_SECONDS",
		"SIMULATOR_EVENT_PROBABILITY",
	} {
		_ = v.BindEnv(key)
	}

	if err = v.ReadInConfig(); err != nil {
		// The .env file is optional; only a malformed file is an error.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			err = nil
		} else {
			return
		}
	}

	err = v.Unmarshal(&config)
	return
}
