package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

const (
	envPrefix  = "ACTD"
	appDirName = "actd"
)

// Default credential set, matching the keys the original service shipped
// with. Deployments override these via config or environment.
var (
	defaultMemberKeys = []string{"clinical_api_key_2025", "backup_key_2025"}
	defaultAdminKeys  = []string{"admin_key_2025"}
)

// ConfigLoader reads and merges configuration from file, environment, and
// defaults.
type ConfigLoader struct {
	v          *viper.Viper
	configFile string
	appHomeDir string
	warnings   []string
}

// ConfigLoaderOption defines a functional option for configuring a ConfigLoader.
type ConfigLoaderOption func(*ConfigLoader)

// WithConfigFile returns a ConfigLoaderOption that sets the configuration file path.
func WithConfigFile(configFile string) ConfigLoaderOption {
	return func(l *ConfigLoader) {
		l.configFile = configFile
	}
}

// WithAppHomeDir returns a ConfigLoaderOption that sets the application home
// directory, overriding the default ACTD_HOME resolution.
func WithAppHomeDir(dir string) ConfigLoaderOption {
	return func(l *ConfigLoader) {
		l.appHomeDir = dir
	}
}

// Load creates a ConfigLoader with the given options and loads the
// configuration.
func Load(opts ...ConfigLoaderOption) (*Config, error) {
	loader := &ConfigLoader{v: viper.New()}
	for _, opt := range opts {
		opt(loader)
	}
	return loader.Load()
}

// Load reads, merges, and validates the configuration.
func (l *ConfigLoader) Load() (*Config, error) {
	homeDir := l.resolveAppHomeDir()

	l.v.SetEnvPrefix(envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	l.setDefaults(homeDir)

	if err := l.readConfigFile(homeDir); err != nil {
		return nil, err
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Warnings = l.warnings

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// resolveAppHomeDir picks the application home: explicit option, the
// ACTD_HOME environment variable, then the XDG config directory.
func (l *ConfigLoader) resolveAppHomeDir() string {
	if l.appHomeDir != "" {
		return l.appHomeDir
	}
	if dir := os.Getenv(envPrefix + "_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(xdg.ConfigHome, appDirName)
}

func (l *ConfigLoader) setDefaults(homeDir string) {
	// Server
	l.v.SetDefault("server.host", "127.0.0.1")
	l.v.SetDefault("server.port", 5000)

	// Credential set
	l.v.SetDefault("auth.memberKeys", defaultMemberKeys)
	l.v.SetDefault("auth.adminKeys", defaultAdminKeys)

	// Client reconciler
	l.v.SetDefault("client.authorityUrl", "http://localhost:5000")
	l.v.SetDefault("client.ttl", 5*time.Minute)
	l.v.SetDefault("client.warmupDelay", 30*time.Second)
	l.v.SetDefault("client.requestTimeout", 10*time.Second)
	l.v.SetDefault("client.probeTimeout", 5*time.Second)

	// Paths
	l.v.SetDefault("paths.appHomeDir", homeDir)
	l.v.SetDefault("paths.dataFile", filepath.Join(homeDir, "settings.db"))

	// Core
	l.v.SetDefault("core.debug", false)
	l.v.SetDefault("core.logFormat", "text")
	l.v.SetDefault("core.quiet", false)
}

func (l *ConfigLoader) readConfigFile(homeDir string) error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
		if err := l.v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", l.configFile, err)
		}
		return nil
	}

	l.v.AddConfigPath(homeDir)
	l.v.SetConfigName("config")
	l.v.SetConfigType("yaml")
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Running without a config file is normal.
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		l.warnings = append(l.warnings, fmt.Sprintf("failed to read config file: %v", err))
	}
	return nil
}
