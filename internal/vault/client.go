package vault

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/vault/api"

	"dex-scalp-assistant/config"
)

// MarketCredentials holds the data source API key stored in Vault
type MarketCredentials struct {
	APIKey   string `json:"api_key"`
	Provider string `json:"provider"`
}

// Client wraps the HashiCorp Vault client for market data credentials.
// When Vault is disabled the client stores credentials in memory only,
// which keeps local development working without a Vault server.
type Client struct {
	client *api.Client
	config config.VaultConfig

	mu    sync.RWMutex
	cache *MarketCredentials
}

// NewClient creates a new Vault client
func NewClient(cfg config.VaultConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{config: cfg}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	return &Client{client: client, config: cfg}, nil
}

// StoreMarketCredentials writes the market data credentials to the KV v2
// engine (or the in-memory cache when Vault is disabled).
func (c *Client) StoreMarketCredentials(ctx context.Context, creds MarketCredentials) error {
	c.mu.Lock()
	c.cache = &creds
	c.mu.Unlock()

	if !c.config.Enabled {
		return nil
	}

	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"api_key":  creds.APIKey,
			"provider": creds.Provider,
		},
	}

	if _, err := c.client.Logical().WriteWithContext(ctx, c.secretPath(), secretData); err != nil {
		return fmt.Errorf("failed to store market credentials in vault: %w", err)
	}
	return nil
}

// GetMarketCredentials retrieves the market data credentials
func (c *Client) GetMarketCredentials(ctx context.Context) (*MarketCredentials, error) {
	c.mu.RLock()
	if c.cache != nil {
		cached := *c.cache
		c.mu.RUnlock()
		return &cached, nil
	}
	c.mu.RUnlock()

	if !c.config.Enabled {
		return nil, fmt.Errorf("market credentials not found and vault is disabled")
	}

	secret, err := c.client.Logical().ReadWithContext(ctx, c.secretPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read market credentials from vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("market credentials not found")
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid secret format")
	}

	creds := &MarketCredentials{
		APIKey:   getString(data, "api_key"),
		Provider: getString(data, "provider"),
	}

	c.mu.Lock()
	c.cache = creds
	c.mu.Unlock()

	return creds, nil
}

// IsEnabled returns whether Vault is enabled
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// Health checks the Vault connection
func (c *Client) Health(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}

	health, err := c.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}
	if health.Sealed {
		return fmt.Errorf("vault is sealed")
	}
	return nil
}

// secretPath returns the KV v2 data path for the credentials
func (c *Client) secretPath() string {
	return fmt.Sprintf("%s/data/%s", c.config.MountPath, c.config.SecretPath)
}

func getString(data map[string]interface{}, key string) string {
	if val, ok := data[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
