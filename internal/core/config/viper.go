package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"host":             "bridge.host",
	"port":             "bridge.port",
	"max-connections":  "bridge.max_connections",
	"request-timeout":  "bridge.request_timeout",
	"max-payload-size": "bridge.max_payload_size",
	"data-dir":         "bridge.data_dir",
	"journal":          "bridge.journal",
	"metrics-addr":     "bridge.metrics_addr",
	"app-package":      "bridge.app_package",
}

// LoadConfig loads configuration using viper.
// CLI flags > environment > config file > defaults precedence.
// flags may be nil; only flags that were explicitly set override.
func LoadConfig(configPath string, flags *pflag.FlagSet) (*BridgeConfig, error) {
	v := viper.New()

	def := DefaultBridgeConfig()
	v.SetDefault("bridge.host", def.Host)
	v.SetDefault("bridge.port", def.Port)
	v.SetDefault("bridge.max_connections", def.MaxConnections)
	v.SetDefault("bridge.request_timeout", def.RequestTimeout.String())
	v.SetDefault("bridge.max_payload_size", def.MaxPayloadSize)
	v.SetDefault("bridge.data_dir", def.DataDir)
	v.SetDefault("bridge.journal", def.Journal)
	v.SetDefault("bridge.metrics_addr", def.MetricsAddr)
	v.SetDefault("bridge.app_package", def.AppPackage)

	// Bind environment variables with AEB_ prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets must be environment-only
	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &BridgeConfig{
		Host:           v.GetString("bridge.host"),
		Port:           v.GetInt("bridge.port"),
		MaxConnections: v.GetInt("bridge.max_connections"),
		RequestTimeout: v.GetDuration("bridge.request_timeout"),
		MaxPayloadSize: v.GetInt("bridge.max_payload_size"),
		DataDir:        v.GetString("bridge.data_dir"),
		Journal:        v.GetBool("bridge.journal"),
		MetricsAddr:    v.GetString("bridge.metrics_addr"),
		AppPackage:     v.GetString("bridge.app_package"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range and positive limits.
func validateConfig(cfg *BridgeConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive, got %d", cfg.MaxConnections)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.MaxPayloadSize <= 0 {
		return fmt.Errorf("max_payload_size must be positive, got %d", cfg.MaxPayloadSize)
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if cfg.AppPackage == "" || strings.ContainsAny(cfg.AppPackage, "/ ") {
		return fmt.Errorf("app_package must be a non-empty package name without slashes or spaces, got %q", cfg.AppPackage)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("hmac_secret") || v.InConfig("bridge.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use %s_HMAC_SECRET environment variable)", EnvPrefix)
	}
	return nil
}
