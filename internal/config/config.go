// Package config provides application configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultGatewayURL is the address of a locally running prompt-guard gateway.
const DefaultGatewayURL = "http://127.0.0.1:8000"

// DefaultTenant is the tenant scope used when none is configured.
const DefaultTenant = "default"

// Config holds application configuration
type Config struct {
	GatewayURL string
	Tenant     string
	SessionID  string // resume an existing session by id
	Debug      bool
}

// Load reads configuration from environment variables, with an optional
// .env file in the working directory. Callers apply flag overrides and
// then Validate.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		GatewayURL: getEnv("GUARDCHAT_GATEWAY_URL", DefaultGatewayURL),
		Tenant:     getEnv("GUARDCHAT_TENANT", DefaultTenant),
		SessionID:  getEnv("GUARDCHAT_SESSION_ID", ""),
		Debug:      getEnvBool("GUARDCHAT_DEBUG", false),
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.GatewayURL == "" {
		return fmt.Errorf("gateway URL cannot be empty")
	}
	u, err := url.Parse(c.GatewayURL)
	if err != nil {
		return fmt.Errorf("gateway URL is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("gateway URL must be http or https, got %q", u.Scheme)
	}
	if c.Tenant == "" {
		return fmt.Errorf("tenant cannot be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
