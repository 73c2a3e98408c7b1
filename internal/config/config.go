// Package config loads and validates the application configuration from
// file, environment, and defaults.
package config

import (
	"fmt"
	"time"
)

// Config holds the overall configuration for the application.
type Config struct {
	Core   Core
	Server Server
	Auth   Auth
	Client Client
	Paths  Paths

	// Warnings collected while loading, logged once at startup.
	Warnings []string `mapstructure:"-"`
}

// Core holds settings shared by every command.
type Core struct {
	Debug     bool   `mapstructure:"debug"`
	LogFormat string `mapstructure:"logFormat"`
	Quiet     bool   `mapstructure:"quiet"`
}

// Server holds the authority bind settings.
type Server struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Auth holds the injected credential set. The defaults reproduce the
// well-known keys shipped with the original service so that existing
// deployments keep working.
type Auth struct {
	MemberKeys []string `mapstructure:"memberKeys"`
	AdminKeys  []string `mapstructure:"adminKeys"`
}

// Client holds the reconciler-side settings.
type Client struct {
	AuthorityURL   string        `mapstructure:"authorityUrl"`
	TTL            time.Duration `mapstructure:"ttl"`
	WarmupDelay    time.Duration `mapstructure:"warmupDelay"`
	RequestTimeout time.Duration `mapstructure:"requestTimeout"`
	ProbeTimeout   time.Duration `mapstructure:"probeTimeout"`
}

// Paths holds filesystem locations.
type Paths struct {
	AppHomeDir string `mapstructure:"appHomeDir"`
	DataFile   string `mapstructure:"dataFile"`
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", c.Server.Port)
	}
	if c.Client.TTL < 0 {
		return fmt.Errorf("invalid ttl: %s", c.Client.TTL)
	}
	if len(c.Auth.MemberKeys)+len(c.Auth.AdminKeys) == 0 {
		return fmt.Errorf("credential set is empty")
	}
	return nil
}
