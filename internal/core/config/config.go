// Package config provides configuration management for the bridge service.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment variable the bridge reads.
const EnvPrefix = "AEB"

// BridgeConfig holds configuration for the gRPC bridge service.
type BridgeConfig struct {
	Host           string
	Port           int
	MaxConnections int
	RequestTimeout time.Duration
	MaxPayloadSize int
	DataDir        string
	Journal        bool
	MetricsAddr    string
	// AppPackage names the host application. Messaging surfaces resolve
	// to mobileapp://<AppPackage>/<path>.
	AppPackage     string
}

// DefaultBridgeConfig returns configuration with default values.
func DefaultBridgeConfig() *BridgeConfig {
	return &BridgeConfig{
		Host:           "0.0.0.0",
		Port:           50061,
		MaxConnections: 1000,
		RequestTimeout: 30 * time.Second,
		MaxPayloadSize: 1024 * 1024,
		DataDir:        "./data",
		Journal:        true,
		AppPackage:     "com.solatis.aepbridge",
	}
}

// Addr returns the host:port listen address.
func (c *BridgeConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HMACSecrets extracts HMAC secrets from environment variables.
// Supports AEB_HMAC_SECRET (single) and AEB_HMAC_SECRET_N (rotation).
// Returns map of secret_id -> decoded secret bytes.
func HMACSecrets() (map[string][]byte, error) {
	return hmacSecretsFrom(os.Getenv)
}

func hmacSecretsFrom(getenv func(string) string) (map[string][]byte, error) {
	secrets := make(map[string][]byte)

	add := func(key string) (bool, error) {
		val := getenv(key)
		if val == "" {
			return false, nil
		}
		secretID, decoded, err := ParseHMACSecretWithID(val)
		if err != nil {
			return false, fmt.Errorf("%s: %w", key, err)
		}
		if _, exists := secrets[secretID]; exists {
			return false, fmt.Errorf("duplicate secret_id '%s' found in environment variables (check %s_HMAC_SECRET and %s_HMAC_SECRET_* for conflicts)", secretID, EnvPrefix, EnvPrefix)
		}
		secrets[secretID] = decoded
		return true, nil
	}

	// Format: <secret_id>:<base64_secret>
	if _, err := add(EnvPrefix + "_HMAC_SECRET"); err != nil {
		return nil, err
	}

	// Numbered secrets enable rotation: old and new keys valid during migration.
	for i := 1; ; i++ {
		found, err := add(fmt.Sprintf("%s_HMAC_SECRET_%d", EnvPrefix, i))
		if err != nil {
			return nil, err
		}
		if !found {
			break
		}
	}

	return secrets, nil
}

// ParseHMACSecretWithID parses secret_id:base64_secret format.
// Secret ID must be 32 lowercase hex chars.
func ParseHMACSecretWithID(envValue string) (secretID string, secret []byte, err error) {
	parts := strings.SplitN(strings.TrimSpace(envValue), ":", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("format must be <secret_id>:<base64_secret>")
	}

	secretID = parts[0]
	if len(secretID) != 32 {
		return "", nil, fmt.Errorf("secret_id must be 32 hex chars")
	}

	for _, c := range secretID {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", nil, fmt.Errorf("secret_id must be hex chars only")
		}
	}

	secret, err = base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}

	if len(secret) < 32 {
		return "", nil, fmt.Errorf("secret must be at least 32 bytes, got %d", len(secret))
	}

	return secretID, secret, nil
}
