// Package config handles loading and validation of service configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// Config holds all service configuration.
// Environment determines whether secrets load from env vars (development)
// or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// SQLite database path for the negotiation backend.
	DatabasePath string

	// GCP settings (required in production)
	GCPProject string
	// SecretID names the Secret Manager entry holding CredentialsConfig.
	SecretID string

	// Identities the seller automation and agent bridge act as.
	BuyerID  string
	SellerID string

	// AgentWebhookURL is where the backend delivers negotiation webhooks.
	// Empty disables delivery.
	AgentWebhookURL string

	// TetsyBaseURL is the backend API root the agents talk to,
	// e.g. "http://localhost:8050/api".
	TetsyBaseURL string

	// Credentials for external services (loaded from secrets)
	Credentials CredentialsConfig
}

// CredentialsConfig contains third-party credentials.
// In production, this is loaded from Secret Manager as JSON.
// In development, loaded from individual env vars or CONFIG_FILE.
type CredentialsConfig struct {
	// eBay sandbox OAuth client credentials (presence enables the eBay adapter)
	EbayClientID     string `json:"ebay_client_id,omitempty"`
	EbayClientSecret string `json:"ebay_client_secret,omitempty"`
	EbayMarketplace  string `json:"ebay_marketplace,omitempty"`

	// OpenAI-compatible model access (presence enables the LLM runtime)
	OpenAIAPIKey  string `json:"openai_api_key,omitempty"`
	OpenAIBaseURL string `json:"openai_base_url,omitempty"`
	OpenAIModel   string `json:"openai_model,omitempty"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	// If CONFIG_FILE is set, load everything from the JSON file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	// Otherwise, use ENV vars / Secret Manager approach
	cfg := &Config{
		Port:            envOrDefault("PORT", "8050"),
		Environment:     envOrDefault("ENVIRONMENT", "development"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		DatabasePath:    envOrDefault("DATABASE_PATH", "negotiations.db"),
		GCPProject:      os.Getenv("GCP_PROJECT"),
		SecretID:        os.Getenv("SECRET_ID"),
		BuyerID:         envOrDefault("BUYER_ID", "buyer-001"),
		SellerID:        envOrDefault("SELLER_ID", "seller-001"),
		AgentWebhookURL: os.Getenv("AGENT_WEBHOOK_URL"),
		TetsyBaseURL:    envOrDefault("TETSY_BASE_URL", "http://localhost:8050/api"),
	}

	// Load credentials based on environment
	var err error
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if cfg.SecretID == "" {
			return nil, fmt.Errorf("SECRET_ID required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Use a struct that matches the JSON structure
	var fileConfig struct {
		Port            string            `json:"port"`
		Environment     string            `json:"environment"`
		LogLevel        string            `json:"log_level"`
		DatabasePath    string            `json:"database_path"`
		BuyerID         string            `json:"buyer_id"`
		SellerID        string            `json:"seller_id"`
		AgentWebhookURL string            `json:"agent_webhook_url"`
		TetsyBaseURL    string            `json:"tetsy_base_url"`
		Credentials     CredentialsConfig `json:"credentials"`
	}

	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:            withDefault(fileConfig.Port, "8050"),
		Environment:     withDefault(fileConfig.Environment, "development"),
		LogLevel:        withDefault(fileConfig.LogLevel, "info"),
		DatabasePath:    withDefault(fileConfig.DatabasePath, "negotiations.db"),
		BuyerID:         withDefault(fileConfig.BuyerID, "buyer-001"),
		SellerID:        withDefault(fileConfig.SellerID, "seller-001"),
		AgentWebhookURL: fileConfig.AgentWebhookURL,
		TetsyBaseURL:    withDefault(fileConfig.TetsyBaseURL, "http://localhost:8050/api"),
		Credentials:     fileConfig.Credentials,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadFromSecretManager fetches credentials from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{secret_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.SecretID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Credentials); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}

	return nil
}

// loadFromEnv reads credentials from individual environment variables.
// Used in development mode for local testing.
func (c *Config) loadFromEnv() error {
	c.Credentials = CredentialsConfig{
		EbayClientID:     os.Getenv("EBAY_CLIENT_ID"),
		EbayClientSecret: os.Getenv("EBAY_CLIENT_SECRET"),
		EbayMarketplace:  envOrDefault("EBAY_MARKETPLACE", "EBAY_US"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:      envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
	}
	return nil
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.TetsyBaseURL != "" {
		if _, err := url.Parse(c.TetsyBaseURL); err != nil {
			return fmt.Errorf("invalid tetsy_base_url: %w", err)
		}
	}
	if c.AgentWebhookURL != "" {
		if _, err := url.Parse(c.AgentWebhookURL); err != nil {
			return fmt.Errorf("invalid agent_webhook_url: %w", err)
		}
	}
	// eBay credentials come as a pair or not at all.
	if (c.Credentials.EbayClientID == "") != (c.Credentials.EbayClientSecret == "") {
		return fmt.Errorf("ebay_client_id and ebay_client_secret must be set together")
	}
	return nil
}

// EbayEnabled reports whether eBay cross-listing is configured.
func (c *Config) EbayEnabled() bool {
	return c.Credentials.EbayClientID != "" && c.Credentials.EbayClientSecret != ""
}

// LLMEnabled reports whether an OpenAI-compatible runtime is configured.
func (c *Config) LLMEnabled() bool {
	return c.Credentials.OpenAIAPIKey != ""
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
