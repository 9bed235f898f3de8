package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SecurityConfig holds the auth policy knobs a deployment can tune without a
// rebuild: minimum password length, the rejected weak-password list, and the
// endpoints that bypass auth. Grounded on the teacher's
// internal/config/security.go shape, trimmed to the GReader-token auth
// provider this module actually has (no JWT/basic-provider switch).
type SecurityConfig struct {
	Security struct {
		Auth struct {
			MinPasswordLength int      `yaml:"min_password_length"`
			WeakPasswords     []string `yaml:"weak_passwords"`
		} `yaml:"auth"`
		PublicEndpoints []string `yaml:"public_endpoints"`
	} `yaml:"security"`
}

// DefaultSecurityConfig mirrors the values cmd/api previously hardcoded
// inline, used when no config file path is given.
func DefaultSecurityConfig() *SecurityConfig {
	var c SecurityConfig
	c.Security.Auth.MinPasswordLength = 12
	c.Security.Auth.WeakPasswords = []string{"password", "123456", "admin", "test", "secret"}
	c.Security.PublicEndpoints = []string{"/auth/token", "/health", "/ready", "/live", "/metrics"}
	return &c
}

// LoadSecurityConfig loads security policy from a YAML file, falling back to
// DefaultSecurityConfig when path is empty.
func LoadSecurityConfig(path string) (*SecurityConfig, error) {
	if path == "" {
		return DefaultSecurityConfig(), nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from a trusted CLI/env source, not user input
	if err != nil {
		return nil, fmt.Errorf("read security config: %w", err)
	}

	var config SecurityConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse security config: %w", err)
	}
	if err := validateSecurityConfig(&config); err != nil {
		return nil, fmt.Errorf("security config validation failed: %w", err)
	}
	return &config, nil
}

func validateSecurityConfig(config *SecurityConfig) error {
	if config.Security.Auth.MinPasswordLength <= 0 {
		return fmt.Errorf("min_password_length must be positive")
	}
	if config.Security.Auth.MinPasswordLength < 8 {
		return fmt.Errorf("min_password_length must be at least 8")
	}
	if len(config.Security.PublicEndpoints) == 0 {
		return fmt.Errorf("public_endpoints must not be empty")
	}
	return nil
}

// GetMinPasswordLength returns the minimum password length requirement.
func (c *SecurityConfig) GetMinPasswordLength() int {
	return c.Security.Auth.MinPasswordLength
}

// GetWeakPasswords returns the list of rejected weak passwords.
func (c *SecurityConfig) GetWeakPasswords() []string {
	return c.Security.Auth.WeakPasswords
}

// GetPublicEndpoints returns the list of endpoints that bypass auth.
func (c *SecurityConfig) GetPublicEndpoints() []string {
	return c.Security.PublicEndpoints
}
